package watch

import (
	"fmt"

	"github.com/opswatch/piwatch/internal/model"
)

// NewTicketMessage formats the announcement for a newly discovered ticket.
func NewTicketMessage(t model.Ticket) string {
	assignee := t.Assignee
	if assignee == "" {
		assignee = "unassigned"
	}
	return fmt.Sprintf("New ticket %q: %s (priority %s, %s)",
		t.ID, t.Summary, t.Priority, assignee)
}

// PriorityChangeMessage formats the announcement for a priority change.
func PriorityChangeMessage(id, old, new string) string {
	return fmt.Sprintf("Ticket %q priority changed to %s (was %s)", id, new, old)
}

// ImpactChangeMessage formats the announcement for an impact change.
func ImpactChangeMessage(id, old, new string) string {
	return fmt.Sprintf("Ticket %q impact changed to %s (was %s)", id, new, old)
}
