package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/opswatch/piwatch/internal/ledger"
)

// jsonEntry is the stable JSON shape for one ledger entry.
type jsonEntry struct {
	ID        string    `json:"id"`
	Priority  string    `json:"priority"`
	Impact    string    `json:"impact"`
	FirstSeen time.Time `json:"firstSeen"`
	Updated   time.Time `json:"updated"`
}

// JSONFormatter renders ledger entries as a JSON array.
type JSONFormatter struct{}

// Format writes the entries as indented JSON.
func (JSONFormatter) Format(w io.Writer, entries []ledger.Entry) error {
	out := make([]jsonEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, jsonEntry{
			ID:        e.ID,
			Priority:  e.Priority,
			Impact:    e.Impact,
			FirstSeen: e.FirstSeen,
			Updated:   e.Updated,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
