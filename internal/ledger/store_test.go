package ledger

import (
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestLookupUnrecorded(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Lookup("PI-100")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordAndLookup(t *testing.T) {
	store := openTestStore(t)

	if err := store.RecordNew("PI-100", "Low", "None"); err != nil {
		t.Fatalf("RecordNew() error: %v", err)
	}

	e, err := store.Lookup("PI-100")
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if e.ID != "PI-100" || e.Priority != "Low" || e.Impact != "None" {
		t.Errorf("unexpected entry %+v", e)
	}
	if e.FirstSeen.IsZero() || e.Updated.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestRecordNewDuplicate(t *testing.T) {
	store := openTestStore(t)

	if err := store.RecordNew("PI-100", "Low", "None"); err != nil {
		t.Fatalf("RecordNew() error: %v", err)
	}
	err := store.RecordNew("PI-100", "High", "Severity 1")
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	// The original entry must be untouched.
	e, err := store.Lookup("PI-100")
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if e.Priority != "Low" || e.Impact != "None" {
		t.Errorf("duplicate insert mutated the entry: %+v", e)
	}
}

func TestUpdatePriority(t *testing.T) {
	store := openTestStore(t)

	if err := store.RecordNew("PI-100", "Low", "Severity 3"); err != nil {
		t.Fatalf("RecordNew() error: %v", err)
	}
	if err := store.UpdatePriority("PI-100", "High"); err != nil {
		t.Fatalf("UpdatePriority() error: %v", err)
	}

	e, err := store.Lookup("PI-100")
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if e.Priority != "High" {
		t.Errorf("expected priority High, got %q", e.Priority)
	}
	if e.Impact != "Severity 3" {
		t.Errorf("UpdatePriority must not touch impact, got %q", e.Impact)
	}
}

func TestUpdateImpact(t *testing.T) {
	store := openTestStore(t)

	if err := store.RecordNew("PI-100", "Low", "Severity 2"); err != nil {
		t.Fatalf("RecordNew() error: %v", err)
	}
	if err := store.UpdateImpact("PI-100", "Severity 1"); err != nil {
		t.Fatalf("UpdateImpact() error: %v", err)
	}

	e, err := store.Lookup("PI-100")
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if e.Impact != "Severity 1" {
		t.Errorf("expected impact Severity 1, got %q", e.Impact)
	}
	if e.Priority != "Low" {
		t.Errorf("UpdateImpact must not touch priority, got %q", e.Priority)
	}
}

func TestUpdateMissing(t *testing.T) {
	store := openTestStore(t)

	if err := store.UpdatePriority("PI-404", "High"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdatePriority: expected ErrNotFound, got %v", err)
	}
	if err := store.UpdateImpact("PI-404", "Severity 1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateImpact: expected ErrNotFound, got %v", err)
	}
}

func TestAnyPriorityIn(t *testing.T) {
	store := openTestStore(t)

	if err := store.RecordNew("PI-100", "Low", "None"); err != nil {
		t.Fatalf("RecordNew() error: %v", err)
	}
	if err := store.RecordNew("PI-101", "Medium", "None"); err != nil {
		t.Fatalf("RecordNew() error: %v", err)
	}

	severe, err := store.AnyPriorityIn("Blocker", "High")
	if err != nil {
		t.Fatalf("AnyPriorityIn() error: %v", err)
	}
	if severe {
		t.Error("expected no severe entries")
	}

	if err := store.UpdatePriority("PI-101", "High"); err != nil {
		t.Fatalf("UpdatePriority() error: %v", err)
	}
	severe, err = store.AnyPriorityIn("Blocker", "High")
	if err != nil {
		t.Fatalf("AnyPriorityIn() error: %v", err)
	}
	if !severe {
		t.Error("expected a severe entry after update")
	}

	severe, err = store.AnyPriorityIn()
	if err != nil {
		t.Fatalf("AnyPriorityIn() error: %v", err)
	}
	if severe {
		t.Error("empty priority set must match nothing")
	}
}

func TestAllAndCount(t *testing.T) {
	store := openTestStore(t)

	for _, id := range []string{"PI-300", "PI-100", "PI-200"} {
		if err := store.RecordNew(id, "Low", "None"); err != nil {
			t.Fatalf("RecordNew(%s) error: %v", id, err)
		}
	}

	entries, err := store.All()
	if err != nil {
		t.Fatalf("All() error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	// Ordered by id.
	for i, want := range []string{"PI-100", "PI-200", "PI-300"} {
		if entries[i].ID != want {
			t.Errorf("entries[%d].ID = %q, want %q", i, entries[i].ID, want)
		}
	}

	n, err := store.Count()
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if n != 3 {
		t.Errorf("Count() = %d, want 3", n)
	}
}

func TestDelete(t *testing.T) {
	store := openTestStore(t)

	if err := store.RecordNew("PI-100", "Low", "None"); err != nil {
		t.Fatalf("RecordNew() error: %v", err)
	}
	if err := store.Delete("PI-100"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := store.Lookup("PI-100"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete("PI-100"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if err := store.RecordNew("PI-100", "High", "Severity 2"); err != nil {
		t.Fatalf("RecordNew() error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer reopened.Close()

	e, err := reopened.Lookup("PI-100")
	if err != nil {
		t.Fatalf("Lookup() after reopen error: %v", err)
	}
	if e.Priority != "High" || e.Impact != "Severity 2" {
		t.Errorf("entry not durable across reopen: %+v", e)
	}
}

func TestSingleWriterLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer store.Close()

	if _, err := Open(path); !errors.Is(err, ErrLocked) {
		t.Errorf("expected ErrLocked for a second open, got %v", err)
	}
}
