// Package output renders ledger entries for the terminal.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/opswatch/piwatch/internal/ledger"
	"github.com/opswatch/piwatch/internal/policy"
)

const minIDWidth = 8

var (
	headerColor  = color.New(color.Bold)
	blockerColor = color.New(color.FgRed, color.Bold)
	severeColor  = color.New(color.FgRed)
	warnColor    = color.New(color.FgYellow)
	dimColor     = color.New(color.Faint)
)

// TableFormatter renders ledger entries as a terminal table.
type TableFormatter struct {
	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// Format writes the entries as an aligned table.
func (f TableFormatter) Format(w io.Writer, entries []ledger.Entry) error {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}

	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "Ledger is empty.")
		return err
	}

	idWidth := minIDWidth
	priWidth := len("PRIORITY")
	impWidth := len("IMPACT")
	for _, e := range entries {
		idWidth = max(idWidth, runewidth.StringWidth(e.ID))
		priWidth = max(priWidth, runewidth.StringWidth(e.Priority))
		impWidth = max(impWidth, runewidth.StringWidth(e.Impact))
	}

	header := fmt.Sprintf("%-*s  %-*s  %-*s  %5s  %7s",
		idWidth, "TICKET", priWidth, "PRIORITY", impWidth, "IMPACT", "SEEN", "UPDATED")
	if _, err := fmt.Fprintln(w, headerColor.Sprint(header)); err != nil {
		return err
	}

	for _, e := range entries {
		line := fmt.Sprintf("%-*s  %s  %s  %5s  %7s",
			idWidth, e.ID,
			pad(colorPriority(e.Priority), e.Priority, priWidth),
			pad(colorImpact(e.Impact), e.Impact, impWidth),
			age(now().Sub(e.FirstSeen)),
			age(now().Sub(e.Updated)))
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(w, dimColor.Sprintf("%d tickets recorded", len(entries)))
	return err
}

func colorPriority(p string) string {
	switch {
	case p == "Blocker":
		return blockerColor.Sprint(p)
	case policy.SeverePriority(p):
		return severeColor.Sprint(p)
	default:
		return p
	}
}

func colorImpact(impact string) string {
	switch impact {
	case "Severity 1":
		return severeColor.Sprint(impact)
	case "Severity 2":
		return warnColor.Sprint(impact)
	default:
		return impact
	}
}

// pad right-pads a colored cell to width, measuring the plain text so
// ANSI escape codes don't skew alignment.
func pad(cell, plain string, width int) string {
	gap := width - runewidth.StringWidth(plain)
	if gap <= 0 {
		return cell
	}
	return cell + strings.Repeat(" ", gap)
}

// age formats a duration as a compact relative age: "now", "5m", "2h",
// "3d", "2w", "3mo".
func age(d time.Duration) string {
	if d < time.Minute {
		return "now"
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	days := int(d.Hours() / 24)
	if days < 7 {
		return fmt.Sprintf("%dd", days)
	}
	if days < 30 {
		return fmt.Sprintf("%dw", days/7)
	}
	return fmt.Sprintf("%dmo", days/30)
}
