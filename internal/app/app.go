package app

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"mcq-app/internal/config"
	"mcq-app/internal/event"
	"mcq-app/internal/generator"
	"mcq-app/internal/quiz"
	"mcq-app/internal/quiz/redisstore"
	"mcq-app/internal/quiz/sqlite"
)

// App holds the wired quiz service and the resources it owns.
type App struct {
	Service   *quiz.Service
	Generator *generator.Client

	closers []func() error
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	history, err := openHistory(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, history.Close)

	publisher, err := event.NewPublisher(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, publisher.Close)

	a.Generator = generator.NewClient(cfg.Generator.URL, &http.Client{Timeout: cfg.Generator.Timeout})
	a.Service = quiz.NewService(history, a.Generator.Generate, quiz.ServiceConfig{
		BatchSize: cfg.Quiz.BatchSize,
		Publisher: publisher,
	})
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for idx := len(a.closers) - 1; idx >= 0; idx-- {
		if err := a.closers[idx](); err != nil {
			log.Printf("close: %v", err)
		}
	}
	a.closers = nil
}

type historyStore interface {
	quiz.HistoryRepository
	Close() error
}

func openHistory(ctx context.Context, cfg *config.Config) (historyStore, error) {
	switch cfg.History.Backend {
	case config.BackendRedis:
		store, err := redisstore.NewHistoryStore(ctx, redisstore.Options{
			Addr:     cfg.History.RedisAddr,
			Password: cfg.History.RedisPassword,
			DB:       cfg.History.RedisDB,
			Key:      cfg.History.RedisKey,
		})
		if err != nil {
			return nil, err
		}
		log.Printf("history stored in redis %s key %s", cfg.History.RedisAddr, cfg.History.RedisKey)
		return store, nil
	case config.BackendSQLite:
		store, err := sqlite.NewHistoryStore(cfg.History.DBPath)
		if err != nil {
			return nil, err
		}
		log.Printf("history stored in %s", store.Path())
		return store, nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.History.Backend)
	}
}
