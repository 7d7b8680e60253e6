package tui

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/opswatch/piwatch/internal/ledger"
)

func testEntries() []ledger.Entry {
	now := time.Now()
	return []ledger.Entry{
		{ID: "PI-1", Priority: "Blocker", Impact: "Severity 1", Updated: now},
		{ID: "PI-2", Priority: "Low", Impact: "None", Updated: now},
		{ID: "PI-3", Priority: "High", Impact: "None", Updated: now},
		{ID: "PI-4", Priority: "Medium", Impact: "Severity 2", Updated: now},
	}
}

func keyPress(m LedgerModel, r rune) LedgerModel {
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	return updated.(LedgerModel)
}

func TestCursorMovement(t *testing.T) {
	m := NewLedgerModel(testEntries())
	if m.cursor != 0 {
		t.Fatalf("initial cursor = %d", m.cursor)
	}

	m = keyPress(m, 'j')
	m = keyPress(m, 'j')
	if m.cursor != 2 {
		t.Errorf("cursor = %d after two downs, want 2", m.cursor)
	}

	m = keyPress(m, 'k')
	if m.cursor != 1 {
		t.Errorf("cursor = %d after up, want 1", m.cursor)
	}

	m = keyPress(m, 'G')
	if m.cursor != 3 {
		t.Errorf("cursor = %d after bottom, want 3", m.cursor)
	}
	m = keyPress(m, 'j')
	if m.cursor != 3 {
		t.Errorf("cursor = %d, must not move past the last row", m.cursor)
	}

	m = keyPress(m, 'g')
	if m.cursor != 0 {
		t.Errorf("cursor = %d after top, want 0", m.cursor)
	}
	m = keyPress(m, 'k')
	if m.cursor != 0 {
		t.Errorf("cursor = %d, must not move above the first row", m.cursor)
	}
}

func TestSevereOnlyFilter(t *testing.T) {
	m := NewLedgerModel(testEntries())
	m = keyPress(m, 'G')

	m = keyPress(m, 's')
	// Severe set: Blocker, High priorities plus the Severity 2 impact.
	if len(m.visible) != 3 {
		t.Fatalf("visible = %d entries with filter on, want 3", len(m.visible))
	}
	for _, e := range m.visible {
		if e.ID == "PI-2" {
			t.Error("non-severe entry survived the filter")
		}
	}
	// Cursor was at index 3 before filtering; it must be clamped.
	if m.cursor >= len(m.visible) {
		t.Errorf("cursor = %d not clamped to %d visible rows", m.cursor, len(m.visible))
	}

	m = keyPress(m, 's')
	if len(m.visible) != 4 {
		t.Errorf("visible = %d entries with filter off, want 4", len(m.visible))
	}
}

func TestQuit(t *testing.T) {
	m := NewLedgerModel(testEntries())
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if view := updated.(LedgerModel).View(); view != "" {
		t.Errorf("quitting view = %q, want empty", view)
	}
}

func TestViewRendersEntries(t *testing.T) {
	m := NewLedgerModel(testEntries())
	view := m.View()

	for _, id := range []string{"PI-1", "PI-2", "PI-3", "PI-4"} {
		if !strings.Contains(view, id) {
			t.Errorf("view missing %s", id)
		}
	}
	if !strings.Contains(view, "4 tickets") {
		t.Errorf("view missing the ticket count:\n%s", view)
	}
}

func TestViewEmptyLedger(t *testing.T) {
	m := NewLedgerModel(nil)
	view := m.View()
	if !strings.Contains(view, "No entries.") {
		t.Errorf("empty view = %q", view)
	}
}

func TestWindowResizeScrollsViewport(t *testing.T) {
	var entries []ledger.Entry
	for i := 0; i < 50; i++ {
		entries = append(entries, ledger.Entry{ID: fmt.Sprintf("PI-%d", i), Priority: "Low", Impact: "None", Updated: time.Now()})
	}
	m := NewLedgerModel(entries)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	m = updated.(LedgerModel)

	start, end := m.viewport(len(entries))
	if end-start != 4 {
		t.Errorf("viewport rows = %d, want 4 for a 10-line window", end-start)
	}

	m = keyPress(m, 'G')
	start, end = m.viewport(len(entries))
	if end != len(entries) {
		t.Errorf("viewport end = %d, want %d with cursor at bottom", end, len(entries))
	}
	if m.cursor < start || m.cursor >= end {
		t.Errorf("cursor %d outside viewport [%d, %d)", m.cursor, start, end)
	}
}
