package sqlite

import (
	"context"
	"time"

	"github.com/google/uuid"

	"mcq-app/internal/quiz"
)

// Append inserts one record. History is append-only: a record whose ID is
// already stored is left unchanged.
func (s *HistoryStore) Append(ctx context.Context, record quiz.HistoryRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Date.IsZero() {
		record.Date = time.Now().UTC()
	}

	timedOut := 0
	if record.TimedOut {
		timedOut = 1
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO history
			(record_id, completed_at_unix, score, correct_answers, raw_score, total_questions, difficulty, timed_out)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Date.UTC().UnixNano(),
		record.Score,
		record.CorrectAnswers,
		record.RawScore,
		record.TotalQuestions,
		record.Difficulty,
		timedOut,
	)
	return err
}

// ReadAll returns every record in append order.
func (s *HistoryStore) ReadAll(ctx context.Context) ([]quiz.HistoryRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT record_id, completed_at_unix, score, correct_answers, raw_score, total_questions, difficulty, timed_out
		 FROM history
		 ORDER BY seq ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]quiz.HistoryRecord, 0)
	for rows.Next() {
		var (
			record      quiz.HistoryRecord
			completedNs int64
			timedOut    int
		)
		if err := rows.Scan(
			&record.ID,
			&completedNs,
			&record.Score,
			&record.CorrectAnswers,
			&record.RawScore,
			&record.TotalQuestions,
			&record.Difficulty,
			&timedOut,
		); err != nil {
			return nil, err
		}
		record.Date = time.Unix(0, completedNs).UTC()
		record.TimedOut = timedOut != 0
		records = append(records, record)
	}

	return records, rows.Err()
}
