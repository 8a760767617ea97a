package sqlite

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/catalogapp/catalog-server/internal/domain"
	"github.com/catalogapp/catalog-server/internal/store"
	"github.com/catalogapp/catalog-server/internal/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func countJoinRows(t *testing.T, s *Store) int {
	t.Helper()
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM entries_to_tags`).Scan(&n); err != nil {
		t.Fatalf("count join rows: %v", err)
	}
	return n
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return newTestStore(t) })
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	// Every pooled connection must enforce foreign keys, so check a few.
	for range 3 {
		var fk int
		if err := s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
			t.Fatalf("query foreign_keys: %v", err)
		}
		if fk != 1 {
			t.Errorf("expected foreign_keys=1, got %d", fk)
		}
	}

	for _, table := range []string{"users", "entries", "tags", "entries_to_tags"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestOpen_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	s, err := Open(dbPath, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, _, err := s.CreateOrGetTag(ctx, "persisted"); err != nil {
		t.Fatalf("CreateOrGetTag: %v", err)
	}
	s.Close()

	s, err = Open(dbPath, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	tags, err := s.ListTags(ctx)
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "persisted" {
		t.Errorf("tags after reopen = %+v", tags)
	}
}

func TestDeleteEntry_JoinRowCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, n := range []string{"a", "b"} {
		if _, _, err := s.CreateOrGetTag(ctx, n); err != nil {
			t.Fatalf("CreateOrGetTag: %v", err)
		}
	}
	e, err := s.CreateEntry(ctx, &domain.Entry{Name: "two tags"}, []string{"a", "b"})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if got := countJoinRows(t, s); got != 2 {
		t.Fatalf("join rows after create = %d, want 2", got)
	}

	if _, err := s.DeleteEntry(ctx, "ent-missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("delete missing: got %v, want not found", err)
	}
	if got := countJoinRows(t, s); got != 2 {
		t.Errorf("join rows after missing delete = %d, want 2", got)
	}

	removed, err := s.DeleteEntry(ctx, e.ID)
	if err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if got := countJoinRows(t, s); got != 0 {
		t.Errorf("join rows after delete = %d, want 0", got)
	}
}

func TestForeignKeysBlockEntryDeleteWithJoinRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, _, err := s.CreateOrGetTag(ctx, "a"); err != nil {
		t.Fatalf("CreateOrGetTag: %v", err)
	}
	e, err := s.CreateEntry(ctx, &domain.Entry{Name: "linked"}, []string{"a"})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	// Deleting the entry row first must fail: there is no cascade.
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, e.ID); err == nil {
		t.Fatal("expected foreign key violation deleting an entry with join rows")
	}
}

func TestCreateEntry_RollsBackOnFailure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateEntry(ctx, &domain.Entry{ID: "ent-1", Name: "first"}, nil); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if _, err := s.CreateEntry(ctx, &domain.Entry{ID: "ent-1", Name: "second"}, nil); !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("duplicate id: got %v", err)
	}

	got, err := s.GetEntry(ctx, "ent-1")
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if got.Name != "first" {
		t.Errorf("Name = %q, want first", got.Name)
	}
}

func TestListEntries_FoldedColumnTracksName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e, err := s.CreateEntry(ctx, &domain.Entry{Name: "ÉCOLE"}, nil)
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	var folded string
	if err := s.db.QueryRow(`SELECT name_folded FROM entries WHERE id = ?`, e.ID).Scan(&folded); err != nil {
		t.Fatalf("read folded: %v", err)
	}
	if folded != "école" {
		t.Errorf("name_folded = %q, want école", folded)
	}
}
