// Package ui renders a single long-running tool action in the terminal.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	detailStyle = lipgloss.NewStyle().PaddingLeft(2)
)

type Action func(ctx context.Context) ([]string, error)

type doneMsg struct {
	details []string
	err     error
}

type tickMsg time.Time

type model struct {
	ctx     context.Context
	cancel  context.CancelFunc
	title   string
	action  Action
	started time.Time
	elapsed time.Duration
	details []string
	err     error
	done    bool
}

func tick() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tick(), func() tea.Msg {
		details, err := m.action(m.ctx)
		return doneMsg{details: details, err: err}
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			// The action observes the cancelled context and reports back.
			m.cancel()
		}
	case tickMsg:
		if m.done {
			return m, nil
		}
		m.elapsed = time.Since(m.started)
		return m, tick()
	case doneMsg:
		m.details = msg.details
		m.err = msg.err
		m.done = true
		m.elapsed = time.Since(m.started)
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	elapsed := mutedStyle.Render(m.elapsed.Truncate(100 * time.Millisecond).String())
	switch {
	case !m.done:
		fmt.Fprintf(&b, "running %s\n", elapsed)
		return b.String()
	case m.err != nil:
		fmt.Fprintf(&b, "%s after %s: %v\n", failStyle.Render("FAILED"), elapsed, m.err)
	default:
		fmt.Fprintf(&b, "%s in %s\n", okStyle.Render("OK"), elapsed)
	}
	b.WriteString(renderDetails(m.details))
	return b.String()
}

// renderDetails aligns key=value lines on the key column. Lines without a
// key are printed as-is.
func renderDetails(details []string) string {
	width := 0
	for _, d := range details {
		if k, _, ok := strings.Cut(d, "="); ok && len(k) > width {
			width = len(k)
		}
	}
	var b strings.Builder
	for _, d := range details {
		k, v, ok := strings.Cut(d, "=")
		if !ok {
			b.WriteString(detailStyle.Render(d))
		} else {
			b.WriteString(detailStyle.Render(fmt.Sprintf("%-*s  %s", width, k, v)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Run executes action under ctx while showing progress. ctrl+c cancels ctx
// instead of abandoning the action.
func Run(ctx context.Context, title string, action Action) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	m := model{ctx: ctx, cancel: cancel, title: title, action: action, started: time.Now()}
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return nil, err
	}
	res := final.(model)
	return res.details, res.err
}
