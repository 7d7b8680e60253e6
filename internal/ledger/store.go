// Package ledger persists the last-observed priority and impact for every
// ticket the watcher has ever seen.
//
// The ledger is the durable source of truth across restarts: every
// mutation is committed synchronously before the driver loop moves on to
// the next ticket, so a crash mid-cycle leaves the ledger consistent with
// "tickets fully processed so far". Entries are created on first sight and
// updated in place; the core never deletes them (Delete exists only for
// operator repair via the CLI).
//
// The store assumes a single process and a single writer. That assumption
// is enforced rather than implied: Open takes an exclusive flock on a lock
// file next to the database and fails if another process holds it.
package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Sentinel errors for ledger invariant violations. Both indicate a logic
// defect in the caller, not an environmental failure.
var (
	ErrNotFound  = errors.New("ledger: ticket not recorded")
	ErrDuplicate = errors.New("ledger: ticket already recorded")
	ErrLocked    = errors.New("ledger: locked by another process")
)

// Entry is the recorded state for one ticket id.
type Entry struct {
	ID        string
	Priority  string
	Impact    string
	FirstSeen time.Time
	Updated   time.Time
}

// Store is the SQLite-backed ledger.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
	path string
}

// Open opens (creating if necessary) the ledger database at path and
// acquires the single-writer lock. Callers must Close the store to
// release the lock.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("ledger: create data dir: %w", err)
	}

	// Exclusive lock before touching the database. SQLite would serialize
	// writers on its own, but the watcher's severe-priority scan is only
	// coherent with exactly one writer per ledger.
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("ledger: acquire lock: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("ledger: open database: %w", err)
	}

	// synchronous=FULL so every committed mutation is on disk before the
	// driver loop proceeds to the next ticket.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = FULL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("ledger: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, lock: lock, path: path}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("ledger: migration: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database and releases the single-writer lock.
func (s *Store) Close() error {
	err := s.db.Close()
	if lerr := s.lock.Unlock(); lerr != nil && err == nil {
		err = lerr
	}
	return err
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS tickets (
			id         TEXT PRIMARY KEY,
			priority   TEXT NOT NULL,
			impact     TEXT NOT NULL,
			first_seen TEXT NOT NULL,
			updated    TEXT NOT NULL
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Lookup returns the entry for a ticket id, or ErrNotFound if the ticket
// has never been recorded.
func (s *Store) Lookup(id string) (*Entry, error) {
	row := s.db.QueryRow(
		`SELECT id, priority, impact, first_seen, updated FROM tickets WHERE id = ?`, id)

	var e Entry
	var firstSeen, updated string
	err := row.Scan(&e.ID, &e.Priority, &e.Impact, &firstSeen, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: lookup %s: %w", id, err)
	}
	e.FirstSeen = parseTime(firstSeen)
	e.Updated = parseTime(updated)
	return &e, nil
}

// RecordNew creates the entry for a newly discovered ticket. It returns
// ErrDuplicate when the id is already recorded.
func (s *Store) RecordNew(id, priority, impact string) error {
	now := timestamp()
	res, err := s.db.Exec(
		`INSERT INTO tickets (id, priority, impact, first_seen, updated)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		id, priority, impact, now, now)
	if err != nil {
		return fmt.Errorf("ledger: record %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ledger: record %s: %w", id, err)
	}
	if n == 0 {
		return ErrDuplicate
	}
	return nil
}

// UpdatePriority mutates only the priority field of an existing entry.
// It returns ErrNotFound if the ticket has never been recorded.
func (s *Store) UpdatePriority(id, priority string) error {
	return s.updateField(id, "priority", priority)
}

// UpdateImpact mutates only the impact field of an existing entry.
// It returns ErrNotFound if the ticket has never been recorded.
func (s *Store) UpdateImpact(id, impact string) error {
	return s.updateField(id, "impact", impact)
}

func (s *Store) updateField(id, column, value string) error {
	// column is one of two compile-time constants, never user input.
	res, err := s.db.Exec(
		fmt.Sprintf(`UPDATE tickets SET %s = ?, updated = ? WHERE id = ?`, column),
		value, timestamp(), id)
	if err != nil {
		return fmt.Errorf("ledger: update %s of %s: %w", column, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ledger: update %s of %s: %w", column, id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AnyPriorityIn reports whether any entry in the whole ledger currently
// records one of the given priorities. The watcher uses this once per
// cycle to seed the severe-priority throttle.
func (s *Store) AnyPriorityIn(priorities ...string) (bool, error) {
	if len(priorities) == 0 {
		return false, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(priorities)), ",")
	args := make([]any, len(priorities))
	for i, p := range priorities {
		args[i] = p
	}

	var exists bool
	err := s.db.QueryRow(
		fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM tickets WHERE priority IN (%s))`, placeholders),
		args...).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ledger: severe scan: %w", err)
	}
	return exists, nil
}

// All returns every entry ordered by ticket id, for inspection tooling.
func (s *Store) All() ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, priority, impact, first_seen, updated FROM tickets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ledger: list: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var firstSeen, updated string
		if err := rows.Scan(&e.ID, &e.Priority, &e.Impact, &firstSeen, &updated); err != nil {
			return nil, fmt.Errorf("ledger: list: %w", err)
		}
		e.FirstSeen = parseTime(firstSeen)
		e.Updated = parseTime(updated)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of recorded tickets.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM tickets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("ledger: count: %w", err)
	}
	return n, nil
}

// Delete removes an entry. The watcher never calls this; it exists for
// operator repair through the ledger CLI. Returns ErrNotFound if the id
// is not recorded.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM tickets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("ledger: delete %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ledger: delete %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
