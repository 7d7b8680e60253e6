package watch

import (
	"context"

	"github.com/opswatch/piwatch/internal/ledger"
	"github.com/opswatch/piwatch/internal/model"
)

// TicketSource fetches the current set of open tickets, ordered by
// descending priority then descending last-update time.
type TicketSource interface {
	FetchOpenTickets(ctx context.Context) ([]model.Ticket, error)
}

// Notifier delivers one self-contained human-readable message per
// qualifying event. Delivery is best effort: the watcher logs failures
// and moves on without rolling back ledger state.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Ledger is the subset of the ledger store the watcher needs. Defined
// here so tests can substitute a failing store.
type Ledger interface {
	Lookup(id string) (*ledger.Entry, error)
	RecordNew(id, priority, impact string) error
	UpdatePriority(id, priority string) error
	UpdateImpact(id, impact string) error
	AnyPriorityIn(priorities ...string) (bool, error)
}
