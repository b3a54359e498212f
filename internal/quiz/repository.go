package quiz

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidState    = errors.New("operation not allowed in current session state")
	ErrOutOfRange      = errors.New("index out of range")
	ErrInvalidQuestion = errors.New("invalid question")
	ErrNoQuestions     = errors.New("generator returned no questions")
)

// HistoryRecord is one completed quiz as persisted in the history list.
type HistoryRecord struct {
	ID             string    `json:"id"`
	Date           time.Time `json:"date"`
	Score          int       `json:"score"`
	CorrectAnswers int       `json:"correctAnswers"`
	RawScore       float64   `json:"rawScore"`
	TotalQuestions int       `json:"totalQuestions"`
	Difficulty     string    `json:"difficulty"`
	TimedOut       bool      `json:"timedOut,omitempty"`
}

// HistoryRepository is an append-only list of completed quizzes.
type HistoryRepository interface {
	Append(ctx context.Context, record HistoryRecord) error
	ReadAll(ctx context.Context) ([]HistoryRecord, error)
}

// CompletionPublisher is notified once per completed session.
type CompletionPublisher interface {
	PublishCompletion(ctx context.Context, event CompletionEvent) error
}

type CompletionEvent struct {
	SessionID  string        `json:"session_id"`
	Reason     string        `json:"reason"`
	Difficulty string        `json:"difficulty"`
	Result     ScoreResult   `json:"result"`
	Record     HistoryRecord `json:"record"`
}
