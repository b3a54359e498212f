package quiz

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

const unansweredLabel = "unanswered"

type ResultExport struct {
	SessionID     string           `json:"session_id"`
	Date          time.Time        `json:"date"`
	Difficulty    string           `json:"difficulty,omitempty"`
	Reason        string           `json:"reason"`
	Score         float64          `json:"score"`
	Total         int              `json:"total"`
	Percentage    int              `json:"percentage"`
	Correct       int              `json:"correct"`
	Incorrect     int              `json:"incorrect"`
	Unanswered    int              `json:"unanswered"`
	NegativeMarks float64          `json:"negative_marks"`
	Questions     []QuestionResult `json:"questions"`
}

type QuestionResult struct {
	QuestionNumber int      `json:"question_number"`
	Question       string   `json:"question"`
	UserAnswer     string   `json:"user_answer"`
	CorrectAnswer  string   `json:"correct_answer"`
	IsCorrect      bool     `json:"is_correct"`
	Status         string   `json:"status"`
	Explanation    string   `json:"explanation"`
	Options        []string `json:"options"`
}

// Export builds the downloadable result document of a completed session.
func (s *Session) Export(now time.Time) (ResultExport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCompleted {
		return ResultExport{}, fmt.Errorf("%w: export while %s", ErrInvalidState, s.state)
	}

	export := ResultExport{
		SessionID:     s.id,
		Date:          now.UTC(),
		Difficulty:    s.difficulty,
		Reason:        s.reason,
		Score:         s.result.RawScore,
		Total:         s.result.Total,
		Percentage:    s.result.Percentage,
		Correct:       s.result.Correct,
		Incorrect:     s.result.Incorrect,
		Unanswered:    s.result.Unanswered,
		NegativeMarks: s.result.NegativeMarks,
		Questions:     make([]QuestionResult, 0, len(s.questions)),
	}

	for idx, question := range s.questions {
		optionIndex, answered := s.answers[idx]
		status := Status(question, optionIndex, answered)
		userAnswer := unansweredLabel
		if answered {
			userAnswer = OptionLetter(optionIndex)
		}
		export.Questions = append(export.Questions, QuestionResult{
			QuestionNumber: idx + 1,
			Question:       question.Text,
			UserAnswer:     userAnswer,
			CorrectAnswer:  question.CorrectAnswer,
			IsCorrect:      status == StatusCorrect,
			Status:         status,
			Explanation:    question.Explanation,
			Options:        question.Options,
		})
	}
	return export, nil
}

// FileName is the download name of the export, dated like the document.
func (e ResultExport) FileName() string {
	return ExportFileName(e.Date)
}

func ExportFileName(now time.Time) string {
	return "mcq-quiz-results-" + now.Format("2006-01-02") + ".json"
}

func WriteExport(w io.Writer, export ResultExport) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}
