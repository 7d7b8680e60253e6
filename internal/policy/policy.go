// Package policy decides whether a detected priority or impact delta is
// significant enough to announce to the channel.
//
// The priority rule is deliberately global: once any ticket in the ledger
// has ever carried a severe priority, the bar for every subsequent
// priority notification rises to Blocker. The impact rule is per ticket.
// Neither rule ever errors; unrecognized values are simply not severe.
package policy

// Severe priority and impact tiers. Values outside these sets, including
// misspellings coming back from the tracker, flow through the not-severe
// branches.
var (
	severePriorities = map[string]bool{
		"Blocker": true,
		"High":    true,
	}
	severeImpacts = map[string]bool{
		"Severity 1": true,
		"Severity 2": true,
	}
)

// SeverePriority reports whether p is in the severe priority set.
func SeverePriority(p string) bool { return severePriorities[p] }

// SevereImpact reports whether impact is in the severe impact set.
func SevereImpact(impact string) bool { return severeImpacts[impact] }

// SeverePriorities returns the severe priority values, for callers that
// need to query a store for them.
func SeverePriorities() []string { return []string{"Blocker", "High"} }

// NotifyPriority reports whether a priority change to newPriority should
// be announced. severeSeen is the ledger-wide "has any entry ever been
// recorded with a severe priority" snapshot, computed once per poll cycle
// and maintained incrementally as severe priorities are written.
func NotifyPriority(severeSeen bool, newPriority string) bool {
	if !severeSeen {
		return SeverePriority(newPriority)
	}
	return newPriority == "Blocker"
}

// NotifyImpact reports whether an impact change from oldImpact to
// newImpact should be announced. Unlike the priority rule this is scoped
// to the ticket's own history: once a ticket is in severe territory only
// the Severity 2 to Severity 1 escalation is announced.
func NotifyImpact(oldImpact, newImpact string) bool {
	if SevereImpact(oldImpact) {
		return oldImpact == "Severity 2" && newImpact == "Severity 1"
	}
	return SevereImpact(newImpact)
}
