package httpapi

import "mcq-app/internal/quiz"

type answerRequest struct {
	// QuestionIndex is zero-based across the whole quiz.
	QuestionIndex *int   `json:"question_index"`
	Answer        string `json:"answer"`
}

type answerResponse struct {
	Recorded bool      `json:"recorded"`
	Session  quiz.View `json:"session"`
}

type historyResponse struct {
	Records   []quiz.HistoryRecord `json:"records"`
	Dashboard quiz.Dashboard       `json:"dashboard"`
}

type statsResponse struct {
	Stats map[string]quiz.DifficultyStats `json:"stats"`
}

type errorResponse struct {
	Error string `json:"error"`
}
