// Package report reads the counts back out of a rendered test summary.
// It accepts plain output and terminal output (escape codes are
// stripped first), so wrappers such as the magefile can act on a run
// without a JSON round trip.
package report

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/acarl005/stripansi"

	"github.com/dkoosis/testrules/pkg/mapper"
)

// ErrNoSummary means the text holds no test summary block.
var ErrNoSummary = errors.New("no test summary found")

// Counts are the totals of one run. Failed includes Errors.
type Counts struct {
	Total  int
	Passed int
	Failed int
	Errors int
}

// OK reports a run with no failures.
func (c Counts) OK() bool { return c.Failed == 0 }

// metricRe matches "  Passed: 3" with an optional icon before the label.
var metricRe = regexp.MustCompile(`^\s*(?:\S+\s+)?(Passed|Failed|Errors|Total):\s*(\d+)\s*$`)

// ParseSummary extracts the counts of the test summary block in text. The
// block starts at the summary heading and ends at the first blank line, so
// test output quoted further down the report cannot change the counts.
func ParseSummary(text string) (Counts, error) {
	block, ok := summaryBlock(stripansi.Strip(text))
	if !ok {
		return Counts{}, ErrNoSummary
	}

	var c Counts
	seen := map[string]bool{}
	for _, line := range block {
		m := metricRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return Counts{}, fmt.Errorf("parse %s count %q: %w", m[1], m[2], err)
		}
		seen[m[1]] = true
		switch m[1] {
		case "Passed":
			c.Passed = n
		case "Failed":
			c.Failed = n
		case "Errors":
			c.Errors = n
		case "Total":
			c.Total = n
		}
	}
	if !seen["Total"] || !seen["Passed"] {
		return Counts{}, ErrNoSummary
	}
	c.Failed += c.Errors
	if c.Passed+c.Failed != c.Total {
		return c, fmt.Errorf("inconsistent summary: passed %d + failed %d != total %d", c.Passed, c.Failed, c.Total)
	}
	return c, nil
}

// summaryBlock returns the lines under the first test summary heading.
// Plain output upper-cases headings; terminal output does not.
func summaryBlock(text string) ([]string, bool) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !strings.EqualFold(strings.TrimSpace(line), mapper.LabelSummary) {
			continue
		}
		var block []string
		for _, l := range lines[i+1:] {
			if strings.TrimSpace(l) == "" {
				break
			}
			block = append(block, l)
		}
		return block, true
	}
	return nil, false
}
