package cli

import (
	_ "embed"
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
)

//go:embed help.md
var helpPage string

// writeHelp renders the help page as styled markdown on a terminal and
// as raw markdown otherwise.
func writeHelp(w io.Writer, styled bool, width int) error {
	if !styled {
		_, err := io.WriteString(w, helpPage)
		return err
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(min(width, 100)),
	)
	if err != nil {
		_, err = io.WriteString(w, helpPage)
		return err
	}
	out, err := renderer.Render(helpPage)
	if err != nil {
		_, err = io.WriteString(w, helpPage)
		return err
	}
	_, err = fmt.Fprint(w, out)
	return err
}
