package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mcq-app/internal/quiz"
)

func newTestHistoryStore(t *testing.T) (*HistoryStore, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewHistoryStore(path)
	if err != nil {
		t.Fatalf("NewHistoryStore failed: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
		_ = os.Remove(path)
		_ = os.Remove(path + "-wal")
		_ = os.Remove(path + "-shm")
	})
	return store, path
}

func TestNewHistoryStoreUsesWAL(t *testing.T) {
	store, path := newTestHistoryStore(t)

	if store.Path() != path {
		t.Fatalf("Path() = %q, want %q", store.Path(), path)
	}
	var mode string
	if err := store.db.QueryRow(`PRAGMA journal_mode;`).Scan(&mode); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("journal_mode = %q, want wal", mode)
	}
}

func TestHistoryStoreAppendAndReadAll(t *testing.T) {
	store, _ := newTestHistoryStore(t)
	ctx := context.Background()

	first := quiz.HistoryRecord{
		ID:             "r1",
		Date:           time.Unix(1700000000, 123).UTC(),
		Score:          44,
		CorrectAnswers: 2,
		RawScore:       1.75,
		TotalQuestions: 4,
		Difficulty:     "medium",
	}
	second := quiz.HistoryRecord{
		ID:             "r2",
		Date:           time.Unix(1700000000, 123).UTC(),
		Score:          0,
		TotalQuestions: 10,
		Difficulty:     "hard",
		TimedOut:       true,
	}

	for _, record := range []quiz.HistoryRecord{first, second} {
		if err := store.Append(ctx, record); err != nil {
			t.Fatalf("Append(%s) failed: %v", record.ID, err)
		}
	}

	records, err := store.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != "r1" || records[1].ID != "r2" {
		t.Fatalf("records not in append order: %+v", records)
	}
	got := records[0]
	if !got.Date.Equal(first.Date) || got.RawScore != 1.75 || got.Score != 44 || got.Difficulty != "medium" {
		t.Fatalf("unexpected first record: %+v", got)
	}
	if !records[1].TimedOut {
		t.Fatalf("timed_out flag lost: %+v", records[1])
	}
}

func TestHistoryStoreAppendNeverOverwrites(t *testing.T) {
	store, _ := newTestHistoryStore(t)
	ctx := context.Background()

	if err := store.Append(ctx, quiz.HistoryRecord{ID: "dup", Score: 80, Difficulty: "easy"}); err != nil {
		t.Fatalf("first Append failed: %v", err)
	}
	if err := store.Append(ctx, quiz.HistoryRecord{ID: "dup", Score: 10, Difficulty: "easy"}); err != nil {
		t.Fatalf("second Append failed: %v", err)
	}

	records, err := store.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(records) != 1 || records[0].Score != 80 {
		t.Fatalf("existing record was modified: %+v", records)
	}
}

func TestHistoryStoreAssignsMissingIDAndDate(t *testing.T) {
	store, _ := newTestHistoryStore(t)
	ctx := context.Background()

	if err := store.Append(ctx, quiz.HistoryRecord{Score: 50, Difficulty: "medium"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	records, err := store.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(records) != 1 || records[0].ID == "" || records[0].Date.IsZero() {
		t.Fatalf("expected generated id and date, got %+v", records)
	}
}

func TestHistoryStoreSurvivesReopen(t *testing.T) {
	store, path := newTestHistoryStore(t)
	ctx := context.Background()

	if err := store.Append(ctx, quiz.HistoryRecord{ID: "keep", Score: 70, Difficulty: "easy"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewHistoryStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	records, err := reopened.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != "keep" {
		t.Fatalf("history lost across reopen: %+v", records)
	}
}
