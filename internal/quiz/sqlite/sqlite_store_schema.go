package sqlite

import (
	"context"
)

func (s *HistoryStore) initSchema(ctx context.Context) error {
	// seq preserves append order even when two records share a timestamp.
	statements := []string{
		`CREATE TABLE IF NOT EXISTS history (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			record_id TEXT NOT NULL UNIQUE,
			completed_at_unix INTEGER NOT NULL,
			score INTEGER NOT NULL,
			correct_answers INTEGER NOT NULL,
			raw_score REAL NOT NULL,
			total_questions INTEGER NOT NULL,
			difficulty TEXT NOT NULL,
			timed_out INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_history_difficulty ON history(difficulty);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
