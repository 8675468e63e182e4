package engine

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/dkoosis/testrules/internal/inspect"
	"github.com/dkoosis/testrules/internal/summary"
)

// Progress prints one line per method:
//
//	[2/5] calc/math_test.TestSub ... PASS (0.012s)
type Progress struct {
	w     io.Writer
	color bool
	pass  lipgloss.Style
	fail  lipgloss.Style
}

// NewProgress returns a Progress writing to w. Status labels are colored
// when color is true.
func NewProgress(w io.Writer, color bool) *Progress {
	return &Progress{
		w:     w,
		color: color,
		pass:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		fail:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
}

func (p *Progress) MethodStarted(i, n int, m inspect.Method) {
	fmt.Fprintf(p.w, "[%d/%d] %s ... ", i, n, m.FullName())
}

func (p *Progress) MethodFinished(_, _ int, o summary.MethodOutcome) {
	label := o.Status.Label()
	if p.color {
		if o.Status == summary.StatusPassed {
			label = p.pass.Render(label)
		} else {
			label = p.fail.Render(label)
		}
	}
	fmt.Fprintf(p.w, "%s (%.3fs)\n", label, o.Duration.Seconds())
}

// Event is a progress notification delivered over a channel.
type Event struct {
	Index   int
	Total   int
	Method  inspect.Method
	Outcome *summary.MethodOutcome // nil for a start event
}

// Done reports whether the event marks a finished method.
func (e Event) Done() bool { return e.Outcome != nil }

// ChannelObserver forwards notifications to ch. Sends block, so the
// receiver must keep draining until Execute returns.
type ChannelObserver chan<- Event

func (c ChannelObserver) MethodStarted(i, n int, m inspect.Method) {
	c <- Event{Index: i, Total: n, Method: m}
}

func (c ChannelObserver) MethodFinished(i, n int, o summary.MethodOutcome) {
	c <- Event{Index: i, Total: n, Method: o.Method, Outcome: &o}
}
