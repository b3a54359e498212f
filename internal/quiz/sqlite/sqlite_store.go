package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const defaultPath = "mcq_history.db"

// The history file is written once per finished quiz and read by both the
// terminal client and the web API, possibly at the same time. WAL lets a
// reader proceed while the other process appends.
var historyPragmas = []string{
	`PRAGMA busy_timeout = 5000;`,
	`PRAGMA journal_mode = WAL;`,
	`PRAGMA synchronous = NORMAL;`,
}

// HistoryStore keeps the completed-quiz history in a local SQLite file.
type HistoryStore struct {
	db   *sql.DB
	path string
}

// NewHistoryStore opens (or creates) the history file at path, falling back
// to mcq_history.db in the working directory.
func NewHistoryStore(path string) (*HistoryStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = defaultPath
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}

	// Appends are single-row inserts; one connection keeps them serialized.
	db.SetMaxOpenConns(1)

	for _, pragma := range historyPragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("history %s: %s: %w", path, pragma, err)
		}
	}

	store := &HistoryStore{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history %s: init schema: %w", path, err)
	}

	return store, nil
}

// Path is the file the store writes to.
func (s *HistoryStore) Path() string {
	return s.path
}

func (s *HistoryStore) Close() error {
	return s.db.Close()
}
