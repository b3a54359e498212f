package quiz

import (
	"fmt"
	"regexp"
	"strings"

	"mcq-app/internal/generator"
)

const (
	StatusCorrect    = "correct"
	StatusIncorrect  = "incorrect"
	StatusUnanswered = "unanswered"
)

// optionPrefix matches the "A) " labels the generator puts in front of option text.
var optionPrefix = regexp.MustCompile(`^\w\)\s*`)

// Question is immutable once loaded into a session.
type Question struct {
	Text          string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// CorrectIndex is the option index of the correct letter, or -1.
func (q Question) CorrectIndex() int {
	idx := LetterIndex(q.CorrectAnswer)
	if idx < 0 || idx >= len(q.Options) {
		return -1
	}
	return idx
}

// BuildQuestions converts generator output into session questions. A question
// without at least two options or with a correct letter that points outside
// its options is rejected, since it could never be scored.
func BuildQuestions(raw []generator.RawQuestion) ([]Question, error) {
	questions := make([]Question, 0, len(raw))
	for idx, item := range raw {
		question := buildQuestion(item)
		if len(question.Options) < 2 {
			return nil, fmt.Errorf("%w: question %d has %d options", ErrInvalidQuestion, idx+1, len(question.Options))
		}
		if question.CorrectIndex() < 0 {
			return nil, fmt.Errorf("%w: question %d has correct answer %q", ErrInvalidQuestion, idx+1, item.CorrectAnswer)
		}
		questions = append(questions, question)
	}
	return questions, nil
}

func buildQuestion(raw generator.RawQuestion) Question {
	options := make([]string, 0, len(raw.Options))
	for _, option := range raw.Options {
		options = append(options, StripOptionPrefix(option))
	}

	return Question{
		Text:          strings.TrimSpace(raw.Question),
		Options:       options,
		CorrectAnswer: NormalizeLetter(raw.CorrectAnswer),
		Explanation:   strings.TrimSpace(raw.Explanation),
	}
}

func StripOptionPrefix(option string) string {
	return strings.TrimSpace(optionPrefix.ReplaceAllString(strings.TrimSpace(option), ""))
}

// OptionLetter maps 0 -> "A", 1 -> "B", ...
func OptionLetter(index int) string {
	if index < 0 || index >= 26 {
		return ""
	}
	return string(rune('A' + index))
}

// LetterIndex maps "A" -> 0 and returns -1 for anything that is not a single letter.
func LetterIndex(letter string) int {
	letter = NormalizeLetter(letter)
	if letter == "" {
		return -1
	}
	return int(letter[0] - 'A')
}

// NormalizeLetter accepts "a", " B ", "C)" and returns the upper-case letter,
// or "" when the input is not a single letter.
func NormalizeLetter(answer string) string {
	letter := strings.ToUpper(strings.TrimSpace(answer))
	letter = strings.TrimSuffix(letter, ")")
	letter = strings.TrimSuffix(letter, ".")
	if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'Z' {
		return ""
	}
	return letter
}
