// Package watch runs the poll-detect-decide-notify-persist loop over the
// open ticket set.
package watch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opswatch/piwatch/internal/delta"
	"github.com/opswatch/piwatch/internal/ledger"
	"github.com/opswatch/piwatch/internal/log"
	"github.com/opswatch/piwatch/internal/model"
	"github.com/opswatch/piwatch/internal/policy"
)

// Watcher orchestrates poll cycles. It is single-threaded: one cycle runs
// to completion before the next is scheduled, and the ledger is only ever
// touched from this loop.
type Watcher struct {
	source   TicketSource
	notifier Notifier
	ledger   Ledger
	interval time.Duration
}

// New creates a Watcher polling at the given interval.
func New(source TicketSource, notifier Notifier, store Ledger, interval time.Duration) *Watcher {
	return &Watcher{
		source:   source,
		notifier: notifier,
		ledger:   store,
		interval: interval,
	}
}

// CycleStats summarizes one poll cycle.
type CycleStats struct {
	Tickets         int // tickets returned by the source
	Discovered      int // first-sight tickets recorded
	PriorityChanges int // priority deltas applied to the ledger
	ImpactChanges   int // impact deltas applied to the ledger
	Notifications   int // messages successfully delivered
	Skipped         int // tickets skipped on ledger invariant errors
}

// Run polls until the context is cancelled. A failed cycle is logged and
// retried on the next scheduled iteration; Run itself only returns when
// ctx ends.
func (w *Watcher) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		stats, err := w.RunCycle(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			log.Warn("poll cycle aborted", "error", err)
		default:
			log.Info("poll cycle complete",
				"tickets", stats.Tickets,
				"discovered", stats.Discovered,
				"priority_changes", stats.PriorityChanges,
				"impact_changes", stats.ImpactChanges,
				"notified", stats.Notifications,
				"skipped", stats.Skipped)
		}

		timer.Reset(w.interval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RunCycle executes exactly one poll cycle. A fetch failure aborts the
// cycle before any ledger access; per-ticket ledger invariant violations
// skip that ticket and continue with the rest.
func (w *Watcher) RunCycle(ctx context.Context) (CycleStats, error) {
	var stats CycleStats

	tickets, err := w.source.FetchOpenTickets(ctx)
	if err != nil {
		return stats, fmt.Errorf("fetch open tickets: %w", err)
	}
	stats.Tickets = len(tickets)

	// Severe-priority snapshot, taken once and maintained incrementally
	// as severe priorities are written during this cycle. Keeps the
	// global throttle monotonically consistent regardless of how the
	// source ordered the tickets.
	severeSeen, err := w.ledger.AnyPriorityIn(policy.SeverePriorities()...)
	if err != nil {
		return stats, err
	}

	// Tickets are processed strictly in source order.
	for _, t := range tickets {
		if err := w.processTicket(ctx, t, &severeSeen, &stats); err != nil {
			stats.Skipped++
			log.Error("skipping ticket", "id", t.ID, "error", err)
		}
	}
	return stats, nil
}

// processTicket runs detection, policy, notification, and ledger updates
// for a single ticket. The priority check runs, and its ledger write
// lands, before the impact check.
func (w *Watcher) processTicket(ctx context.Context, t model.Ticket, severeSeen *bool, stats *CycleStats) error {
	entry, err := w.ledger.Lookup(t.ID)
	if err != nil && !errors.Is(err, ledger.ErrNotFound) {
		return err
	}

	d := delta.Detect(t, entry)
	if d.Unseen {
		log.Debug("new ticket discovered", "id", t.ID, "priority", t.Priority, "impact", t.Impact)
		w.notify(ctx, NewTicketMessage(t), stats)
		if err := w.ledger.RecordNew(t.ID, t.Priority, t.Impact); err != nil {
			return err
		}
		if policy.SeverePriority(t.Priority) {
			*severeSeen = true
		}
		stats.Discovered++
		return nil
	}
	if d.Unchanged() {
		return nil
	}

	if c := d.Priority; c != nil {
		log.Debug("priority changed", "id", t.ID, "old", c.Old, "new", c.New)
		if policy.NotifyPriority(*severeSeen, c.New) {
			w.notify(ctx, PriorityChangeMessage(t.ID, c.Old, c.New), stats)
		}
		// The ledger tracks the current value even when the policy
		// decided not to notify.
		if err := w.ledger.UpdatePriority(t.ID, c.New); err != nil {
			return err
		}
		if policy.SeverePriority(c.New) {
			*severeSeen = true
		}
		stats.PriorityChanges++
	}

	if c := d.Impact; c != nil {
		log.Debug("impact changed", "id", t.ID, "old", c.Old, "new", c.New)
		if policy.NotifyImpact(c.Old, c.New) {
			w.notify(ctx, ImpactChangeMessage(t.ID, c.Old, c.New), stats)
		}
		if err := w.ledger.UpdateImpact(t.ID, c.New); err != nil {
			return err
		}
		stats.ImpactChanges++
	}
	return nil
}

// notify delivers one message, accepting loss: a failed send is logged
// and never retried, since the ledger has (or will have) already moved
// past this state and a retry loop could double-post.
func (w *Watcher) notify(ctx context.Context, text string, stats *CycleStats) {
	if err := w.notifier.Notify(ctx, text); err != nil {
		log.Error("notification failed", "error", err)
		return
	}
	log.Info("notified", "message", text)
	stats.Notifications++
}
