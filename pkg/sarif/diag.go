package sarif

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ParseDiagLine parses Go diagnostic formats:
//  1. file.go:line:col: message
//  2. file.go:line: message
//  3. path/to/file.go  (file-only, e.g., gofmt -l)
//
// Handles Windows drive-letter prefixes (e.g. C:\path\file.go:10:5: msg).
// Unrecognized lines return an empty file.
func ParseDiagLine(line string) (file string, ln, col int, msg string) {
	rest := line
	var prefix string

	// Strip Windows drive letter (e.g. "C:") so the colon-split works.
	if len(rest) >= 3 && rest[1] == ':' && (rest[2] == '\\' || rest[2] == '/') {
		prefix = rest[:2]
		rest = rest[2:]
	}

	// Try file:line:col: message
	parts := strings.SplitN(rest, ":", 4)
	if len(parts) >= 4 {
		var l, c int
		if _, err := fmt.Sscanf(parts[1], "%d", &l); err == nil {
			if _, err := fmt.Sscanf(parts[2], "%d", &c); err == nil {
				return prefix + parts[0], l, c, strings.TrimSpace(parts[3])
			}
		}
	}

	// Try file:line: message
	if len(parts) >= 3 {
		var l int
		if _, err := fmt.Sscanf(parts[1], "%d", &l); err == nil {
			return prefix + parts[0], l, 0, strings.TrimSpace(strings.Join(parts[2:], ":"))
		}
	}

	// Try file-only (must end in .go or have path separators)
	trimmed := strings.TrimSpace(line)
	if strings.HasSuffix(trimmed, ".go") || strings.Contains(trimmed, "/") {
		if !strings.Contains(trimmed, " ") {
			return trimmed, 0, 0, "needs formatting"
		}
	}

	return "", 0, 0, ""
}

// FromDiagnostics converts line-oriented diagnostics into a SARIF document.
// Lines that are not diagnostics are dropped.
func FromDiagnostics(toolName, ruleID, level string, r io.Reader) (*Document, error) {
	run := Run{Tool: Tool{Driver: Driver{Name: toolName}}}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		file, ln, col, msg := ParseDiagLine(line)
		if file == "" {
			continue
		}
		run.Results = append(run.Results, Result{
			RuleID:  ruleID,
			Level:   level,
			Message: Message{Text: msg},
			Locations: []Location{{PhysicalLocation: PhysicalLocation{
				ArtifactLocation: ArtifactLocation{URI: file},
				Region:           Region{StartLine: ln, StartColumn: col},
			}}},
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading diagnostics: %w", err)
	}
	return &Document{Version: Version, Runs: []Run{run}}, nil
}
