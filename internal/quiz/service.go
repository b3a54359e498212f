package quiz

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"mcq-app/internal/generator"
)

// persistTimeout bounds the history append and event publish of a finished
// quiz. They run detached from the caller's context.
const persistTimeout = 10 * time.Second

type QuestionsFetcher func(ctx context.Context, req generator.Request) ([]generator.RawQuestion, error)

type ServiceConfig struct {
	BatchSize    int
	TickInterval time.Duration
	Publisher    CompletionPublisher
}

// Service owns the single quiz session of a client together with its
// countdown, history list and completion publisher.
type Service struct {
	session   *Session
	fetcher   QuestionsFetcher
	history   HistoryRepository
	publisher CompletionPublisher
	countdown *Countdown

	// lifecycle serializes Generate/Restart/Reset so a timer armed for one
	// session never outlives it.
	lifecycle sync.Mutex

	cacheMu       sync.Mutex
	historyCache  []HistoryRecord
	historyLoaded bool
	statsCache    map[string]DifficultyStats

	// historyGen counts appends patched into the caches. A read that raced
	// an append is not cached.
	historyGen int

	now func() time.Time
}

func NewService(history HistoryRepository, fetcher QuestionsFetcher, cfg ServiceConfig) *Service {
	s := &Service{
		session:   NewSession(cfg.BatchSize),
		fetcher:   fetcher,
		history:   history,
		publisher: cfg.Publisher,
		now:       time.Now,
	}
	s.countdown = NewCountdown(cfg.TickInterval, s.session.Tick, s.handleTimerExpired)
	return s
}

// Generate fetches a new question set and starts a session with it. When
// fetching or building fails the current session is left untouched.
func (s *Service) Generate(ctx context.Context, req generator.Request) (View, error) {
	if s.fetcher == nil {
		return View{}, errors.New("question generator is not configured")
	}
	if err := req.Validate(); err != nil {
		return View{}, err
	}

	raw, err := s.fetcher(ctx, req)
	if err != nil {
		return View{}, err
	}
	questions, err := BuildQuestions(raw)
	if err != nil {
		return View{}, err
	}
	if len(questions) == 0 {
		return View{}, ErrNoQuestions
	}

	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.countdown.Stop()
	s.session.Reset()
	if err := s.session.Load(questions, LoadOptions{TimeLimit: req.TimeLimit, Difficulty: req.Difficulty}); err != nil {
		return View{}, err
	}
	s.countdown.Start(context.Background(), s.session.ID(), s.session.TimeLimit())

	log.Printf("quiz %s started: %d questions, difficulty=%s, time_limit=%ds",
		s.session.ID(), len(questions), req.Difficulty, req.TimeLimit)
	return s.session.View(), nil
}

func (s *Service) Answer(questionIndex, optionIndex int) (bool, error) {
	return s.session.Answer(questionIndex, optionIndex)
}

// AnswerLetter is Answer with the option given as a letter.
func (s *Service) AnswerLetter(questionIndex int, letter string) (bool, error) {
	optionIndex := LetterIndex(letter)
	if optionIndex < 0 {
		return false, ErrOutOfRange
	}
	return s.session.Answer(questionIndex, optionIndex)
}

func (s *Service) Next(ctx context.Context) (View, error) {
	_, done, err := s.session.AdvanceBatch()
	if err != nil {
		return View{}, err
	}
	if done != nil {
		s.finish(ctx, *done)
	}
	return s.session.View(), nil
}

func (s *Service) Previous() (View, error) {
	if _, err := s.session.RetreatBatch(); err != nil {
		return View{}, err
	}
	return s.session.View(), nil
}

// Restart replays the current questions. History is kept.
func (s *Service) Restart() (View, error) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.countdown.Stop()
	if err := s.session.Restart(); err != nil {
		return View{}, err
	}
	s.countdown.Start(context.Background(), s.session.ID(), s.session.TimeLimit())
	return s.session.View(), nil
}

// Reset discards the session, e.g. before a new upload.
func (s *Service) Reset() View {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.countdown.Stop()
	s.session.Reset()
	return s.session.View()
}

func (s *Service) View() View {
	return s.session.View()
}

func (s *Service) Export() (ResultExport, error) {
	return s.session.Export(s.now())
}

func (s *Service) History(ctx context.Context) ([]HistoryRecord, error) {
	if records, ok := s.getCachedHistory(); ok {
		return records, nil
	}
	if s.history == nil {
		return []HistoryRecord{}, nil
	}

	gen := s.historyGeneration()
	records, err := s.history.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	s.setCachedHistory(records, gen)
	return copyRecords(records), nil
}

func (s *Service) Stats(ctx context.Context) (map[string]DifficultyStats, error) {
	if stats, ok := s.getCachedStats(); ok {
		return stats, nil
	}
	gen := s.historyGeneration()
	records, err := s.History(ctx)
	if err != nil {
		return nil, err
	}
	stats := AggregateByDifficulty(records)
	s.setCachedStats(stats, gen)
	return copyStats(stats), nil
}

func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	records, err := s.History(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return Summarize(records), nil
}

// handleTimerExpired completes the session the countdown was armed for.
// Holding lifecycle keeps Restart and Generate from swapping the session
// underneath; an expiry for a replaced session is dropped.
func (s *Service) handleTimerExpired(sessionID string) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.session.ID() != sessionID {
		log.Printf("quiz %s: ignoring expiry of replaced session", sessionID)
		return
	}
	completion, err := s.session.TimerExpire()
	if err != nil {
		// Finished by the user between the last tick and expiry.
		return
	}
	log.Printf("quiz %s: time limit reached", completion.SessionID)
	s.finish(context.Background(), completion)
}

// finish persists and announces a completed session. The session only
// completes once, so the append must not depend on the caller staying
// around. Failures are logged: the quiz result itself is already final.
func (s *Service) finish(ctx context.Context, completion Completion) {
	s.countdown.Stop()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	record := NewHistoryRecord(completion)
	if s.history != nil {
		if err := s.history.Append(ctx, record); err != nil {
			log.Printf("quiz %s: append history: %v", completion.SessionID, err)
		} else {
			s.updateCachesAfterAppend(record)
		}
	}

	if s.publisher != nil {
		event := CompletionEvent{
			SessionID:  completion.SessionID,
			Reason:     completion.Reason,
			Difficulty: completion.Difficulty,
			Result:     completion.Result,
			Record:     record,
		}
		if err := s.publisher.PublishCompletion(ctx, event); err != nil {
			log.Printf("quiz %s: publish completion: %v", completion.SessionID, err)
		}
	}

	log.Printf("quiz %s completed (%s): %d%% correct=%d incorrect=%d unanswered=%d",
		completion.SessionID, completion.Reason, completion.Result.Percentage,
		completion.Result.Correct, completion.Result.Incorrect, completion.Result.Unanswered)
}
