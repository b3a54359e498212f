package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"mcq-app/internal/app"
	"mcq-app/internal/cli"
	"mcq-app/internal/config"
)

func main() {
	configPath := flag.String("config", os.Getenv("MCQ_CONFIG"), "optional YAML config file")
	generatorURL := flag.String("generator", "", "question generator base URL")
	difficulty := flag.String("difficulty", "", "default difficulty (easy, medium, hard)")
	count := flag.Int("count", 0, "default number of questions")
	timeLimit := flag.Int("time", -1, "default time limit in seconds (0 for none)")
	types := flag.String("types", "", "default question types, comma separated")
	verbose := flag.Bool("v", false, "log to stderr")
	flag.Parse()

	if !*verbose {
		log.SetOutput(io.Discard)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if *generatorURL != "" {
		cfg.Generator.URL = *generatorURL
	}
	if *difficulty != "" {
		cfg.Quiz.Difficulty = *difficulty
	}
	if *count > 0 {
		cfg.Quiz.NumQuestions = *count
	}
	if *timeLimit >= 0 {
		cfg.Quiz.TimeLimit = *timeLimit
	}
	if *types != "" {
		cfg.Quiz.QuestionTypes = strings.Split(*types, ",")
	}

	ctx := context.Background()

	a, err := app.New(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer a.Close()

	err = cli.Run(ctx, os.Stdin, os.Stdout, a.Service, cli.Config{
		GeneratorURL: cfg.Generator.URL,
		Settings: cli.Settings{
			NumQuestions:  cfg.Quiz.NumQuestions,
			Difficulty:    cfg.Quiz.Difficulty,
			TimeLimit:     cfg.Quiz.TimeLimit,
			QuestionTypes: cfg.Quiz.QuestionTypes,
		},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		a.Close()
		os.Exit(1)
	}
}
