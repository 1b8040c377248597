// Package tui implements ruleforge's execution-trace replay viewer, modeled on
// the teacher's split-pane logic visualization (cmd/nerd/ui/splitpane.go):
// one pane lists fired rules as they replay, the other shows the facts each
// firing touched.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ruleforge/pkg/rules"
)

var (
	borderStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// tickMsg advances the replay by one trace entry.
type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(400*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type model struct {
	scenario string
	trace    []rules.TraceEntry
	runErr   error

	tbl    table.Model
	cursor int
	detail string
	done   bool
}

func newModel(engine *rules.Engine, scenario string, runErr error) model {
	trace := engine.GetExecutionTrace()

	columns := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Rule", Width: 24},
		{Title: "Facts", Width: 8},
		{Title: "Added", Width: 8},
	}
	tbl := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	return model{
		scenario: scenario,
		trace:    trace,
		runErr:   runErr,
		tbl:      tbl,
	}
}

func (m model) Init() tea.Cmd {
	return tick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tickMsg:
		if m.cursor < len(m.trace) {
			m.cursor++
			m.tbl.SetRows(rowsThrough(m.trace, m.cursor))
			if m.cursor > 0 {
				m.detail = detailFor(m.trace[m.cursor-1])
			}
			return m, tick()
		}
		m.done = true
	}
	var cmd tea.Cmd
	m.tbl, cmd = m.tbl.Update(msg)
	return m, cmd
}

func (m model) View() string {
	title := headerStyle.Render(fmt.Sprintf("ruleforge — scenario %q", m.scenario))

	agenda := borderStyle.Render(headerStyle.Render("fired rules")+"\n"+m.tbl.View())
	detail := borderStyle.Render(headerStyle.Render("last firing")+"\n"+m.detail)

	status := dimStyle.Render(fmt.Sprintf("%d/%d firings replayed — press q to quit", m.cursor, len(m.trace)))
	if m.done && m.runErr != nil {
		status = dimStyle.Render(fmt.Sprintf("engine stopped: %v — press q to quit", m.runErr))
	} else if m.done {
		status = dimStyle.Render("engine reached a fixed point — press q to quit")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		lipgloss.JoinHorizontal(lipgloss.Top, agenda, detail),
		status,
	)
}

func rowsThrough(trace []rules.TraceEntry, n int) []table.Row {
	rows := make([]table.Row, 0, n)
	for i := 0; i < n; i++ {
		e := trace[i]
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", i+1),
			e.RuleName,
			fmt.Sprintf("%d", len(e.Facts)),
			fmt.Sprintf("%d", len(e.FactsAdded)),
		})
	}
	return rows
}

func detailFor(e rules.TraceEntry) string {
	out := fmt.Sprintf("rule: %s\nfired at: %s\n", e.RuleName, e.Timestamp.Format(time.RFC3339))
	for i, p := range e.Facts {
		out += fmt.Sprintf("  fact[%d]: %v\n", i, p)
	}
	for i, p := range e.FactsAdded {
		out += fmt.Sprintf("  added[%d]: %v\n", i, p)
	}
	return out
}

// Run runs engine to a fixed point (or until it fails), then replays its
// execution trace in a terminal UI, showing the run error, if any, once the
// replay finishes.
func Run(engine *rules.Engine, scenario string) error {
	runErr := engine.Run()
	m := newModel(engine, scenario, runErr)
	p := tea.NewProgram(m)
	_, err := p.Run()
	return err
}
