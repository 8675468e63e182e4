// Package render turns report patterns into terminal, plain text or JSON
// output.
package render

import (
	"fmt"

	"github.com/dkoosis/testrules/pkg/pattern"
)

// Renderer converts patterns to formatted output.
type Renderer interface {
	Render(patterns []pattern.Pattern) string
}

// Output formats accepted by ForFormat.
const (
	FormatTerminal = "terminal"
	FormatPlain    = "plain"
	FormatJSON     = "json"
)

// ForFormat returns the renderer for a resolved format name. "auto" must
// be resolved by the caller, which knows whether stdout is a terminal.
func ForFormat(format string, theme Theme, width int) (Renderer, error) {
	switch format {
	case FormatTerminal:
		return NewTerminal(theme, width), nil
	case FormatPlain:
		return NewPlain(), nil
	case FormatJSON:
		return NewJSON(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want terminal, plain or json)", format)
	}
}
