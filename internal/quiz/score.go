package quiz

import "math"

// NegativeMark is deducted for every answered-and-wrong question.
const NegativeMark = 0.25

type ScoreResult struct {
	Total         int     `json:"total"`
	Correct       int     `json:"correct"`
	Incorrect     int     `json:"incorrect"`
	Unanswered    int     `json:"unanswered"`
	NegativeMarks float64 `json:"negative_marks"`
	RawScore      float64 `json:"raw_score"`
	Percentage    int     `json:"percentage"`
}

// ComputeScore is a pure function of the questions and the sparse answer map
// (question index -> option index). Answers for indexes outside the question
// list are ignored.
func ComputeScore(questions []Question, answers map[int]int) ScoreResult {
	result := ScoreResult{Total: len(questions)}

	for idx, question := range questions {
		optionIndex, answered := answers[idx]
		switch Status(question, optionIndex, answered) {
		case StatusUnanswered:
			result.Unanswered++
		case StatusCorrect:
			result.Correct++
		default:
			result.Incorrect++
		}
	}

	result.NegativeMarks = NegativeMark * float64(result.Incorrect)
	result.RawScore = math.Max(0, float64(result.Correct)-result.NegativeMarks)
	if result.Total > 0 {
		result.Percentage = int(math.Round(100 * result.RawScore / float64(result.Total)))
	}
	return result
}

// Status reports how a single question was answered.
func Status(question Question, optionIndex int, answered bool) string {
	switch {
	case !answered:
		return StatusUnanswered
	case OptionLetter(optionIndex) == question.CorrectAnswer:
		return StatusCorrect
	default:
		return StatusIncorrect
	}
}
