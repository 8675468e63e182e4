// Package tui shows a live progress view while methods execute. It reads
// engine events from a channel fed by engine.ChannelObserver.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dkoosis/testrules/internal/engine"
	"github.com/dkoosis/testrules/internal/summary"
)

// ErrInterrupted is returned when the user quits the view before the run
// finished. The caller should cancel the run.
var ErrInterrupted = errors.New("progress view interrupted")

const recentLines = 5

var (
	passStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	boldStyle  = lipgloss.NewStyle().Bold(true)
)

// Run displays progress until updates is closed. Remaining events are
// drained after the view exits so the sender never blocks.
func Run(ctx context.Context, total int, updates <-chan engine.Event, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	program := tea.NewProgram(newModel(total, updates), opts...)
	final, err := program.Run()
	go func() {
		for range updates {
		}
	}()
	if err != nil {
		return err
	}
	if m, ok := final.(model); ok && m.interrupted {
		return ErrInterrupted
	}
	return nil
}

type model struct {
	total       int
	finished    int
	passed      int
	failed      int
	current     string
	recent      []string
	updates     <-chan engine.Event
	spinner     spinner.Model
	bar         progress.Model
	done        bool
	interrupted bool
}

type eventMsg engine.Event
type closedMsg struct{}

func newModel(total int, updates <-chan engine.Event) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return model{
		total:   total,
		updates: updates,
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listen())
}

func (m model) listen() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.updates
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.interrupted = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.bar.Width = max(10, min(msg.Width-20, 60))
	case eventMsg:
		m.apply(engine.Event(msg))
		return m, m.listen()
	case closedMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) apply(ev engine.Event) {
	if ev.Total > 0 {
		m.total = ev.Total
	}
	if !ev.Done() {
		m.current = ev.Method.FullName()
		return
	}
	m.finished++
	o := ev.Outcome
	line := fmt.Sprintf("%s %s (%.3fs)", o.Status.Label(), o.Method.FullName(), o.Duration.Seconds())
	if o.Status == summary.StatusPassed {
		m.passed++
		line = passStyle.Render(line)
	} else {
		m.failed++
		line = failStyle.Render(line)
	}
	m.recent = append(m.recent, line)
	if len(m.recent) > recentLines {
		m.recent = m.recent[len(m.recent)-recentLines:]
	}
	m.current = ""
}

func (m model) percent() float64 {
	if m.total == 0 {
		return 1
	}
	return float64(m.finished) / float64(m.total)
}

func (m model) View() string {
	var sb strings.Builder
	switch {
	case m.done:
		sb.WriteString(boldStyle.Render("Finished"))
	case m.current != "":
		sb.WriteString(m.spinner.View() + " " + m.current)
	default:
		sb.WriteString(m.spinner.View() + " " + mutedStyle.Render("waiting"))
	}
	sb.WriteString("\n\n")
	sb.WriteString(m.bar.ViewAs(m.percent()))
	sb.WriteString(fmt.Sprintf("  %d/%d\n", m.finished, m.total))
	sb.WriteString(passStyle.Render(fmt.Sprintf("passed %d", m.passed)))
	sb.WriteString("  ")
	sb.WriteString(failStyle.Render(fmt.Sprintf("failed %d", m.failed)))
	sb.WriteString("\n")
	for _, line := range m.recent {
		sb.WriteString("  " + line + "\n")
	}
	return sb.String()
}
