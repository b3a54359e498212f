package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"mcq-app/internal/quiz"
)

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  text [content]        stage text (no argument: paste, end with '.')")
	fmt.Fprintln(out, "  file <path>           stage a .pdf, .docx, .doc or .txt file")
	fmt.Fprintln(out, "  settings [key value]  count, difficulty, time (seconds), types")
	fmt.Fprintln(out, "  generate              create a quiz from the staged content")
	fmt.Fprintln(out, "  <n> <letter>          answer question n, e.g. 3 b")
	fmt.Fprintln(out, "  next | prev | show    move between batches")
	fmt.Fprintln(out, "  results               score and answer review")
	fmt.Fprintln(out, "  export [path]         save results as JSON")
	fmt.Fprintln(out, "  restart | new         replay the same quiz / start over")
	fmt.Fprintln(out, "  history | stats       past quizzes")
	fmt.Fprintln(out, "  exit")
}

func printSettings(out io.Writer, settings Settings) {
	timeLimit := "none"
	if settings.TimeLimit > 0 {
		timeLimit = quiz.FormatRemaining(settings.TimeLimit)
	}
	fmt.Fprintf(out, "count=%d difficulty=%s time=%s types=%s\n",
		settings.NumQuestions,
		settings.Difficulty,
		timeLimit,
		strings.Join(settings.QuestionTypes, ","),
	)
}

func progressLine(view quiz.View) string {
	line := fmt.Sprintf("Answered %d/%d (%.0f%%)", view.Answered, view.Total, view.ProgressPercent)
	if view.TimeLimit > 0 && view.State == quiz.StateActive {
		line += " | time left " + quiz.FormatRemaining(view.Remaining)
	}
	return line
}

func printView(out io.Writer, view quiz.View) {
	if view.State == quiz.StateIdle {
		fmt.Fprintln(out, "No quiz loaded. Use 'text' or 'file', then 'generate'.")
		return
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s | batch %d/%d | %s\n", view.Counter(), view.BatchIndex+1, view.BatchCount, progressLine(view))
	for _, item := range view.Questions {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "%d. %s\n", item.Number, item.Text)
		for idx, option := range item.Options {
			marker := " "
			if item.Selected == quiz.OptionLetter(idx) {
				marker = "*"
			}
			fmt.Fprintf(out, " %s %s) %s\n", marker, quiz.OptionLetter(idx), option)
		}
	}

	if view.State == quiz.StateActive {
		fmt.Fprintln(out)
		switch {
		case view.CanAdvance && view.IsLastBatch:
			fmt.Fprintln(out, "Type 'next' to submit.")
		case view.CanAdvance:
			fmt.Fprintln(out, "Type 'next' for the next batch.")
		default:
			fmt.Fprintln(out, "Answer every question in this batch to continue.")
		}
	}
}

func printResults(out io.Writer, export quiz.ResultExport) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Quiz completed (%s)\n", export.Reason)
	fmt.Fprintf(out, "Score: %s/%d (%d%%)\n", formatScore(export.Score), export.Total, export.Percentage)
	fmt.Fprintf(out, "Correct: %d  Incorrect: %d  Unanswered: %d  Negative marks: -%s\n",
		export.Correct,
		export.Incorrect,
		export.Unanswered,
		formatScore(export.NegativeMarks),
	)
}

func printReview(out io.Writer, export quiz.ResultExport) {
	for _, item := range export.Questions {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "%d. [%s] %s\n", item.QuestionNumber, item.Status, item.Question)
		fmt.Fprintf(out, "   your answer: %s, correct: %s\n", item.UserAnswer, item.CorrectAnswer)
		if item.Explanation != "" {
			fmt.Fprintf(out, "   %s\n", item.Explanation)
		}
	}
}

func printDashboard(out io.Writer, dashboard quiz.Dashboard) {
	if dashboard.TotalQuizzes == 0 {
		fmt.Fprintln(out, "No quizzes taken yet.")
		return
	}

	fmt.Fprintf(out, "Quizzes: %d  Average: %d%%  Questions answered: %d\n",
		dashboard.TotalQuizzes,
		dashboard.AverageScore,
		dashboard.QuestionsAnswered,
	)
	fmt.Fprintln(out, "Recent:")
	for idx, record := range dashboard.Recent {
		suffix := ""
		if record.TimedOut {
			suffix = " (timed out)"
		}
		fmt.Fprintf(out, "%d. %s %s %d%% (%d/%d)%s\n",
			idx+1,
			record.Date.Local().Format(time.DateTime),
			record.Difficulty,
			record.Score,
			record.CorrectAnswers,
			record.TotalQuestions,
			suffix,
		)
	}
}

func printStats(out io.Writer, stats map[string]quiz.DifficultyStats) {
	if len(stats) == 0 {
		fmt.Fprintln(out, "No quizzes taken yet.")
		return
	}

	difficulties := make([]string, 0, len(stats))
	for difficulty := range stats {
		difficulties = append(difficulties, difficulty)
	}
	sort.Slice(difficulties, func(i, j int) bool {
		ri, rj := difficultyRank(difficulties[i]), difficultyRank(difficulties[j])
		if ri != rj {
			return ri < rj
		}
		return difficulties[i] < difficulties[j]
	})

	for _, difficulty := range difficulties {
		item := stats[difficulty]
		fmt.Fprintf(out, "%-7s quizzes=%d average=%d%% best=%d%%\n",
			difficulty,
			item.TotalQuizzes,
			item.AverageScore,
			item.BestScore,
		)
	}
}

func difficultyRank(difficulty string) int {
	switch difficulty {
	case "easy":
		return 0
	case "medium":
		return 1
	case "hard":
		return 2
	default:
		return 3
	}
}
