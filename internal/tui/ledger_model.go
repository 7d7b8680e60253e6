// Package tui provides the interactive ledger browser.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/opswatch/piwatch/internal/ledger"
	"github.com/opswatch/piwatch/internal/policy"
)

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Top        key.Binding
	Bottom     key.Binding
	SevereOnly key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Top:        key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:     key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		SevereOnly: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "severe only")),
		Quit:       key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// LedgerModel is the Bubble Tea model for browsing ledger entries.
type LedgerModel struct {
	entries      []ledger.Entry
	visible      []ledger.Entry
	cursor       int
	severeOnly   bool
	windowWidth  int
	windowHeight int
	keys         keyMap
	quitting     bool
}

// NewLedgerModel creates a browser over the given entries.
func NewLedgerModel(entries []ledger.Entry) LedgerModel {
	m := LedgerModel{
		entries:      entries,
		windowWidth:  80,
		windowHeight: 24,
		keys:         defaultKeyMap(),
	}
	m.refilter()
	return m
}

// Init implements tea.Model.
func (m LedgerModel) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m LedgerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.visible)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Top):
			m.cursor = 0
		case key.Matches(msg, m.keys.Bottom):
			if len(m.visible) > 0 {
				m.cursor = len(m.visible) - 1
			}
		case key.Matches(msg, m.keys.SevereOnly):
			m.severeOnly = !m.severeOnly
			m.refilter()
		}
	}
	return m, nil
}

// refilter recomputes the visible list and clamps the cursor.
func (m *LedgerModel) refilter() {
	if !m.severeOnly {
		m.visible = m.entries
	} else {
		m.visible = nil
		for _, e := range m.entries {
			if policy.SeverePriority(e.Priority) || policy.SevereImpact(e.Impact) {
				m.visible = append(m.visible, e)
			}
		}
	}
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// View implements tea.Model.
func (m LedgerModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	title := fmt.Sprintf("Ledger — %d tickets", len(m.visible))
	if m.severeOnly {
		title += " (severe only)"
	}
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n\n")

	if len(m.visible) == 0 {
		b.WriteString(dimStyle.Render("No entries."))
	} else {
		idWidth := 8
		priWidth := len("PRIORITY")
		for _, e := range m.visible {
			idWidth = max(idWidth, runewidth.StringWidth(e.ID))
			priWidth = max(priWidth, runewidth.StringWidth(e.Priority))
		}

		b.WriteString(dimStyle.Render(fmt.Sprintf("  %-*s  %-*s  %-10s  %s",
			idWidth, "TICKET", priWidth, "PRIORITY", "IMPACT", "UPDATED")))
		b.WriteString("\n")

		start, end := m.viewport(len(m.visible))
		for i := start; i < end; i++ {
			e := m.visible[i]
			row := fmt.Sprintf("%-*s  %s  %-10s  %s",
				idWidth, e.ID,
				padCell(stylePriority(e.Priority), e.Priority, priWidth),
				e.Impact,
				relAge(e.Updated))
			if i == m.cursor {
				b.WriteString(selectedStyle.Render("> " + stripForSelection(row, e, idWidth, priWidth)))
			} else {
				b.WriteString("  " + row)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString(footerStyle.Render("↑/k up · ↓/j down · s severe only · q quit"))
	return b.String()
}

// viewport returns the slice bounds keeping the cursor on screen.
func (m LedgerModel) viewport(n int) (int, int) {
	rows := m.windowHeight - 6
	if rows < 1 {
		rows = 1
	}
	if n <= rows {
		return 0, n
	}
	start := m.cursor - rows/2
	if start < 0 {
		start = 0
	}
	if start+rows > n {
		start = n - rows
	}
	return start, start + rows
}

// stripForSelection re-renders a row without per-cell colors so the
// selection background covers it uniformly.
func stripForSelection(_ string, e ledger.Entry, idWidth, priWidth int) string {
	return fmt.Sprintf("%-*s  %-*s  %-10s  %s",
		idWidth, e.ID, priWidth, e.Priority, e.Impact, relAge(e.Updated))
}

func padCell(cell, plain string, width int) string {
	gap := width - runewidth.StringWidth(plain)
	if gap <= 0 {
		return cell
	}
	return cell + strings.Repeat(" ", gap)
}

func stylePriority(p string) string {
	switch {
	case p == "Blocker":
		return blockerStyle.Render(p)
	case policy.SeverePriority(p):
		return severeStyle.Render(p)
	case p == "Medium":
		return warnStyle.Render(p)
	default:
		return p
	}
}

func relAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
