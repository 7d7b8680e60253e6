// Package model defines the core data types shared across piwatch.
package model

import "time"

// ImpactNone is the normalized impact value for tickets whose impact
// field is unset in the tracker.
const ImpactNone = "None"

// Ticket is an immutable snapshot of a tracker issue as of one poll.
type Ticket struct {
	ID       string    // stable identifier, e.g. "PI-1234"
	Priority string    // normalized priority name, e.g. "Blocker", "High"
	Impact   string    // normalized impact value, ImpactNone when unset
	Summary  string
	Assignee string
	Created  time.Time
	Updated  time.Time
}

// Fielder is the minimal capability surface the watcher needs from any
// ticket kind. Concrete tracker clients may model richer per-kind types;
// the core only ever reads these three fields.
type Fielder interface {
	GetID() string
	GetPriority() string
	GetImpact() string
}

// GetID implements Fielder.
func (t Ticket) GetID() string { return t.ID }

// GetPriority implements Fielder.
func (t Ticket) GetPriority() string { return t.Priority }

// GetImpact implements Fielder.
func (t Ticket) GetImpact() string { return t.Impact }
