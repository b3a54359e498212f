package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"mcq-app/internal/generator"
	"mcq-app/internal/quiz"
)

// QuizService is the part of quiz.Service the terminal UI drives.
type QuizService interface {
	Generate(ctx context.Context, req generator.Request) (quiz.View, error)
	AnswerLetter(questionIndex int, letter string) (bool, error)
	Next(ctx context.Context) (quiz.View, error)
	Previous() (quiz.View, error)
	Restart() (quiz.View, error)
	Reset() quiz.View
	View() quiz.View
	Export() (quiz.ResultExport, error)
	Stats(ctx context.Context) (map[string]quiz.DifficultyStats, error)
	Dashboard(ctx context.Context) (quiz.Dashboard, error)
}

// Settings are the quiz options used for the next generate command.
type Settings struct {
	NumQuestions  int
	Difficulty    string
	TimeLimit     int
	QuestionTypes []string
}

type Config struct {
	Settings     Settings
	GeneratorURL string
	// ExportDir is where export writes when no path is given.
	ExportDir string
}

type app struct {
	ctx     context.Context
	reader  *bufio.Reader
	out     io.Writer
	service QuizService
	cfg     Config

	settings Settings
	text     string
	filePath string

	// reported is the session whose results were already printed.
	reported string
}

func Run(ctx context.Context, in io.Reader, out io.Writer, service QuizService, cfg Config) error {
	a := &app{
		ctx:      ctx,
		reader:   bufio.NewReader(in),
		out:      out,
		service:  service,
		cfg:      cfg,
		settings: normalizeSettings(cfg.Settings),
	}

	fmt.Fprintf(out, "mcq-cli\ngenerator=%s\n\n", cfg.GeneratorURL)
	printHelp(out)

	for {
		fmt.Fprint(out, "\n> ")
		line, err := a.reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && strings.TrimSpace(line) != "") {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}

		// The countdown may have completed the quiz while we were waiting.
		a.reportCompletion()

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if done := a.dispatch(line); done {
			return nil
		}
	}
}

func (a *app) dispatch(line string) bool {
	command, rest := splitCommand(line)

	switch command {
	case "help":
		printHelp(a.out)
	case "exit", "quit":
		return true
	case "text":
		a.stageText(rest)
	case "file":
		a.stageFile(rest)
	case "settings":
		a.runSettings(strings.Fields(rest))
	case "generate":
		a.runGenerate()
	case "answer":
		a.runAnswer(strings.Fields(rest))
	case "next":
		a.runNext()
	case "prev", "previous":
		a.runPrevious()
	case "show":
		printView(a.out, a.service.View())
	case "results":
		a.runResults()
	case "export":
		a.runExport(rest)
	case "restart":
		a.runRestart()
	case "new":
		a.runNew()
	case "history":
		a.runHistory()
	case "stats":
		a.runStats()
	default:
		if isNumber(command) {
			a.runAnswer(strings.Fields(line))
			return false
		}
		fmt.Fprintln(a.out, "unknown command. type 'help' for usage.")
	}
	return false
}

func (a *app) stageText(rest string) {
	text := strings.TrimSpace(rest)
	if text == "" {
		fmt.Fprintln(a.out, "Paste the text, then a line with a single '.' to finish:")
		collected, err := readUntilDot(a.reader)
		if err != nil && !errors.Is(err, io.EOF) {
			fmt.Fprintf(a.out, "error: %v\n", err)
			return
		}
		text = strings.TrimSpace(collected)
	}
	if text == "" {
		fmt.Fprintln(a.out, "no text staged")
		return
	}

	a.text = text
	a.filePath = ""
	fmt.Fprintf(a.out, "Staged %d characters of text.\n", len([]rune(text)))
}

func (a *app) stageFile(rest string) {
	path := strings.TrimSpace(rest)
	if path == "" {
		fmt.Fprintln(a.out, "usage: file <path>")
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	if info.IsDir() {
		fmt.Fprintf(a.out, "error: %s is a directory\n", path)
		return
	}

	a.filePath = path
	a.text = ""
	fmt.Fprintf(a.out, "Staged file %s (%s).\n", path, formatSize(info.Size()))
}

func (a *app) runSettings(args []string) {
	if len(args) == 0 {
		printSettings(a.out, a.settings)
		return
	}
	if len(args)%2 != 0 {
		fmt.Fprintln(a.out, "usage: settings [count <n>] [difficulty <easy|medium|hard>] [time <seconds>] [types <a,b,...>]")
		return
	}

	next := a.settings
	for idx := 0; idx < len(args); idx += 2 {
		if err := applySetting(&next, strings.ToLower(args[idx]), args[idx+1]); err != nil {
			fmt.Fprintf(a.out, "invalid %s: %v\n", args[idx], err)
			return
		}
	}
	a.settings = next
	printSettings(a.out, a.settings)
}

func (a *app) runGenerate() {
	if view := a.service.View(); view.State == quiz.StateActive {
		discard, err := promptYesNo(a.reader, a.out, "a quiz is in progress. discard it? (yes/no): ")
		if err != nil || !discard {
			return
		}
	}

	req := generator.Request{
		Text:          a.text,
		NumQuestions:  a.settings.NumQuestions,
		Difficulty:    a.settings.Difficulty,
		TimeLimit:     a.settings.TimeLimit,
		QuestionTypes: a.settings.QuestionTypes,
	}
	if a.filePath != "" {
		upload, file, err := generator.OpenUpload(a.filePath)
		if err != nil {
			fmt.Fprintf(a.out, "error: %v\n", err)
			return
		}
		defer file.Close()
		req.File = upload
	}

	fmt.Fprintln(a.out, "Generating questions...")
	view, err := a.service.Generate(a.ctx, req)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", describeError(err, a.cfg.GeneratorURL))
		return
	}
	a.reported = ""
	printView(a.out, view)
}

func (a *app) runAnswer(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(a.out, "usage: <question number> <letter>, e.g. 3 b")
		return
	}
	number, err := parsePositive(args[0])
	if err != nil {
		fmt.Fprintf(a.out, "invalid question number: %v\n", err)
		return
	}

	view := a.service.View()
	if view.State == quiz.StateActive && (number <= view.BatchStart || number > view.BatchEnd) {
		fmt.Fprintf(a.out, "question %d is not in the current batch (%s)\n", number, view.Counter())
		return
	}

	recorded, err := a.service.AnswerLetter(number-1, args[1])
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", describeError(err, a.cfg.GeneratorURL))
		return
	}
	if !recorded {
		fmt.Fprintf(a.out, "Question %d is already answered.\n", number)
		return
	}

	view = a.service.View()
	fmt.Fprintf(a.out, "Recorded %s for question %d. %s\n", strings.ToUpper(strings.TrimSpace(args[1])), number, progressLine(view))
	if view.CanAdvance {
		if view.IsLastBatch {
			fmt.Fprintln(a.out, "All questions answered. Type 'next' to submit.")
		} else {
			fmt.Fprintln(a.out, "Batch complete. Type 'next' to continue.")
		}
	}
}

func (a *app) runNext() {
	before := a.service.View()
	view, err := a.service.Next(a.ctx)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", describeError(err, a.cfg.GeneratorURL))
		return
	}
	if view.State == quiz.StateCompleted {
		a.reportCompletion()
		return
	}
	if view.BatchIndex == before.BatchIndex {
		fmt.Fprintf(a.out, "Answer every question in this batch first (%d left).\n", unansweredInBatch(view))
		return
	}
	printView(a.out, view)
}

func (a *app) runPrevious() {
	before := a.service.View()
	view, err := a.service.Previous()
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", describeError(err, a.cfg.GeneratorURL))
		return
	}
	if view.BatchIndex == before.BatchIndex {
		fmt.Fprintln(a.out, "Already at the first batch.")
		return
	}
	printView(a.out, view)
}

func (a *app) runResults() {
	export, err := a.service.Export()
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", describeError(err, a.cfg.GeneratorURL))
		return
	}
	printResults(a.out, export)
	printReview(a.out, export)
}

func (a *app) runExport(rest string) {
	export, err := a.service.Export()
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", describeError(err, a.cfg.GeneratorURL))
		return
	}

	path := strings.TrimSpace(rest)
	if path == "" {
		path = export.FileName()
		if a.cfg.ExportDir != "" {
			path = filepath.Join(a.cfg.ExportDir, path)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	writeErr := quiz.WriteExport(file, export)
	closeErr := file.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		fmt.Fprintf(a.out, "error: export %s: %v\n", path, err)
		return
	}
	fmt.Fprintf(a.out, "Results exported to %s\n", path)
}

func (a *app) runRestart() {
	view, err := a.service.Restart()
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", describeError(err, a.cfg.GeneratorURL))
		return
	}
	a.reported = ""
	fmt.Fprintln(a.out, "Quiz restarted with the same questions.")
	printView(a.out, view)
}

func (a *app) runNew() {
	a.service.Reset()
	a.text = ""
	a.filePath = ""
	a.reported = ""
	fmt.Fprintln(a.out, "Ready for new content. Use 'text' or 'file', then 'generate'.")
}

func (a *app) runHistory() {
	dashboard, err := a.service.Dashboard(a.ctx)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	printDashboard(a.out, dashboard)
}

func (a *app) runStats() {
	stats, err := a.service.Stats(a.ctx)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	printStats(a.out, stats)
}

// reportCompletion prints the results once per completed session.
func (a *app) reportCompletion() {
	view := a.service.View()
	if view.State != quiz.StateCompleted || view.SessionID == a.reported {
		return
	}
	a.reported = view.SessionID

	export, err := a.service.Export()
	if err != nil {
		return
	}
	if export.Reason == quiz.ReasonTimeout {
		fmt.Fprintln(a.out, "\nTime's up!")
	}
	printResults(a.out, export)
	fmt.Fprintln(a.out, "Type 'results' to review answers, 'export' to save them, 'restart' or 'new'.")
}
