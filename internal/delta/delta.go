// Package delta classifies a polled ticket against its ledger entry.
package delta

import (
	"github.com/opswatch/piwatch/internal/ledger"
	"github.com/opswatch/piwatch/internal/model"
)

// Change records a field moving from one value to another.
type Change struct {
	Old string
	New string
}

// Delta is the detector result for one ticket within one poll cycle.
// Priority and Impact are evaluated independently; both can be set for
// the same ticket in the same cycle. A ticket never recorded before is
// Unseen, never a change, even when its first-sight priority is already
// severe.
type Delta struct {
	TicketID string
	Unseen   bool
	Priority *Change
	Impact   *Change
}

// Unchanged reports whether the detector found nothing to act on.
func (d Delta) Unchanged() bool {
	return !d.Unseen && d.Priority == nil && d.Impact == nil
}

// Detect compares the polled ticket snapshot against its ledger entry.
// A nil entry means the ticket has never been recorded.
func Detect(t model.Fielder, entry *ledger.Entry) Delta {
	d := Delta{TicketID: t.GetID()}
	if entry == nil {
		d.Unseen = true
		return d
	}
	// Both fields are checked on every poll; the notification policy
	// needs both deltas, so no short-circuit after the first hit.
	if p := t.GetPriority(); p != entry.Priority {
		d.Priority = &Change{Old: entry.Priority, New: p}
	}
	if imp := t.GetImpact(); imp != entry.Impact {
		d.Impact = &Change{Old: entry.Impact, New: imp}
	}
	return d
}
