package quiz

import (
	"math"
	"time"

	"github.com/google/uuid"
)

const recentQuizLimit = 5

type DifficultyStats struct {
	TotalQuizzes int `json:"totalQuizzes"`
	TotalScore   int `json:"totalScore"`
	BestScore    int `json:"bestScore"`
	AverageScore int `json:"averageScore"`
}

// Dashboard is the across-difficulty overview of the history list.
type Dashboard struct {
	TotalQuizzes      int             `json:"totalQuizzes"`
	AverageScore      int             `json:"averageScore"`
	QuestionsAnswered int             `json:"questionsAnswered"`
	Recent            []HistoryRecord `json:"recent"`
}

// NewHistoryRecord converts a completion into the record appended to history.
func NewHistoryRecord(completion Completion) HistoryRecord {
	date := completion.CompletedAt
	if date.IsZero() {
		date = time.Now()
	}
	return HistoryRecord{
		ID:             uuid.NewString(),
		Date:           date.UTC(),
		Score:          completion.Result.Percentage,
		CorrectAnswers: completion.Result.Correct,
		RawScore:       completion.Result.RawScore,
		TotalQuestions: completion.Result.Total,
		Difficulty:     completion.Difficulty,
		TimedOut:       completion.Reason == ReasonTimeout,
	}
}

func AggregateByDifficulty(records []HistoryRecord) map[string]DifficultyStats {
	stats := make(map[string]DifficultyStats)
	for _, record := range records {
		addToStats(stats, record)
	}
	return stats
}

func addToStats(stats map[string]DifficultyStats, record HistoryRecord) {
	item := stats[record.Difficulty]
	item.TotalQuizzes++
	item.TotalScore += record.Score
	item.AverageScore = roundDiv(item.TotalScore, item.TotalQuizzes)
	if record.Score > item.BestScore {
		item.BestScore = record.Score
	}
	stats[record.Difficulty] = item
}

func Summarize(records []HistoryRecord) Dashboard {
	dashboard := Dashboard{
		TotalQuizzes: len(records),
		Recent:       []HistoryRecord{},
	}
	if len(records) == 0 {
		return dashboard
	}

	totalScore := 0
	for _, record := range records {
		totalScore += record.Score
		dashboard.QuestionsAnswered += record.TotalQuestions
	}
	dashboard.AverageScore = roundDiv(totalScore, len(records))

	for idx := len(records) - 1; idx >= 0 && len(dashboard.Recent) < recentQuizLimit; idx-- {
		dashboard.Recent = append(dashboard.Recent, records[idx])
	}
	return dashboard
}

func roundDiv(total, count int) int {
	if count == 0 {
		return 0
	}
	return int(math.Round(float64(total) / float64(count)))
}
