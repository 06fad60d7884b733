// ABOUTME: Terminal progress viewer for a running image-sequence batch.
// ABOUTME: Renders one tile per placeholder slot from store snapshots, ticking until the batch resolves.

package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/storyforge/pipeline"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	filledStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type tickMsg time.Time

type doneMsg struct{ err error }

// Model watches a SlotStore while the batch fills it in another goroutine.
type Model struct {
	store *pipeline.SlotStore
	done  <-chan error

	finished bool
	err      error
}

// NewModel creates a progress model over the given store. The done channel
// delivers the batch outcome when FillSequence returns.
func NewModel(store *pipeline.SlotStore, done <-chan error) Model {
	return Model{store: store, done: done}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.waitForDone())
}

func tick() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) waitForDone() tea.Cmd {
	return func() tea.Msg {
		return doneMsg{err: <-m.done}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tickMsg:
		if m.finished {
			return m, nil
		}
		return m, tick()
	case doneMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	slots := m.store.Snapshot()
	filled := 0

	var tiles []string
	for i, slot := range slots {
		if slot.Filled() {
			filled++
			tiles = append(tiles, filledStyle.Render(fmt.Sprintf("[%d ok]", i+1)))
		} else {
			tiles = append(tiles, pendingStyle.Render(fmt.Sprintf("[%d ..]", i+1)))
		}
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("image sequence"))
	fmt.Fprintf(&b, "  %d/%d\n\n", filled, len(slots))
	b.WriteString(strings.Join(tiles, " "))
	b.WriteString("\n")

	if m.finished {
		if m.err != nil {
			b.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
		} else {
			b.WriteString("\n" + filledStyle.Render("batch complete") + "\n")
		}
	} else {
		b.WriteString("\npress q to stop watching (the batch keeps running)\n")
	}
	return b.String()
}
