// Package mapper converts run results into visualization patterns.
package mapper

import (
	"fmt"
	"strings"
	"time"
)

// Row statuses understood by every renderer.
const (
	statusPass  = "pass"
	statusFail  = "fail"
	statusError = "error"
	statusWarn  = "warn"
)

// maxTraceLines caps the trace shown under a failure.
const maxTraceLines = 20

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}

func truncateLines(lines []string, max int) string {
	if len(lines) <= max {
		return strings.Join(lines, "\n")
	}
	result := strings.Join(lines[:max], "\n")
	return result + fmt.Sprintf("\n... (%d more lines)", len(lines)-max)
}

func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

func countKind(n int, bad string) string {
	if n > 0 {
		return bad
	}
	return "success"
}
