package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"mcq-app/internal/generator"
	"mcq-app/internal/quiz"
)

func normalizeSettings(settings Settings) Settings {
	if settings.NumQuestions <= 0 {
		settings.NumQuestions = generator.DefaultNumQuestions
	}
	if strings.TrimSpace(settings.Difficulty) == "" {
		settings.Difficulty = generator.DefaultDifficulty
	}
	if settings.TimeLimit < 0 {
		settings.TimeLimit = 0
	}
	if len(settings.QuestionTypes) == 0 {
		settings.QuestionTypes = generator.DefaultQuestionTypes()
	}
	return settings
}

func applySetting(settings *Settings, key, value string) error {
	switch key {
	case "count":
		count, err := parsePositive(value)
		if err != nil {
			return err
		}
		settings.NumQuestions = count
	case "difficulty":
		difficulty := strings.ToLower(strings.TrimSpace(value))
		switch difficulty {
		case "easy", "medium", "hard":
		default:
			return generator.ErrInvalidDifficulty
		}
		settings.Difficulty = difficulty
	case "time":
		seconds, err := strconv.Atoi(value)
		if err != nil || seconds < 0 {
			return errors.New("must be a non-negative number of seconds")
		}
		settings.TimeLimit = seconds
	case "types":
		types := make([]string, 0, 3)
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				types = append(types, strings.ToLower(item))
			}
		}
		if len(types) == 0 {
			return generator.ErrNoQuestionTypes
		}
		settings.QuestionTypes = types
	default:
		return errors.New("unknown setting")
	}
	return nil
}

func splitCommand(line string) (string, string) {
	command, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	return strings.ToLower(command), strings.TrimSpace(rest)
}

func parsePositive(value string) (int, error) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return 0, errors.New("must be a positive integer")
	}
	return parsed, nil
}

func isNumber(value string) bool {
	_, err := strconv.Atoi(value)
	return err == nil
}

func readUntilDot(reader *bufio.Reader) (string, error) {
	var b strings.Builder
	for {
		line, err := reader.ReadString('\n')
		if strings.TrimSpace(line) == "." {
			return b.String(), nil
		}
		b.WriteString(line)
		if err != nil {
			return b.String(), err
		}
	}
}

func promptYesNo(reader *bufio.Reader, out io.Writer, prompt string) (bool, error) {
	for {
		fmt.Fprint(out, prompt)
		line, err := reader.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		switch answer {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if err != nil {
			return false, err
		}
		fmt.Fprintln(out, "Please answer yes or no.")
	}
}

func describeError(err error, generatorURL string) error {
	var apiErr *generator.APIError
	switch {
	case errors.Is(err, generator.ErrServiceUnavailable):
		return fmt.Errorf("question generator unavailable at %s", generatorURL)
	case errors.As(err, &apiErr):
		return fmt.Errorf("generator: %s", apiErr.Message)
	case errors.Is(err, quiz.ErrInvalidState):
		return errors.New("not possible right now; type 'show' to see the quiz state")
	case errors.Is(err, quiz.ErrOutOfRange):
		return errors.New("no such question or option")
	}
	return err
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

func formatSize(size int64) string {
	switch {
	case size >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	case size >= 1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%d B", size)
	}
}

func unansweredInBatch(view quiz.View) int {
	count := 0
	for _, item := range view.Questions {
		if !item.Locked {
			count++
		}
	}
	return count
}
