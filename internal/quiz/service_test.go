package quiz

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"mcq-app/internal/generator"
)

type fakeHistoryRepo struct {
	mu sync.Mutex

	records   []HistoryRecord
	appendErr error
	readErr   error

	appendCalls int
	readCalls   int

	appended chan HistoryRecord
	// afterRead runs once, outside the lock, after the next ReadAll snapshot.
	afterRead func()
}

func newFakeHistoryRepo(records ...HistoryRecord) *fakeHistoryRepo {
	return &fakeHistoryRepo{
		records:  records,
		appended: make(chan HistoryRecord, 8),
	}
}

func (f *fakeHistoryRepo) Append(_ context.Context, record HistoryRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.appendCalls++
	if f.appendErr != nil {
		return f.appendErr
	}
	f.records = append(f.records, record)
	f.appended <- record
	return nil
}

func (f *fakeHistoryRepo) ReadAll(_ context.Context) ([]HistoryRecord, error) {
	f.mu.Lock()
	f.readCalls++
	if f.readErr != nil {
		f.mu.Unlock()
		return nil, f.readErr
	}
	out := make([]HistoryRecord, len(f.records))
	copy(out, f.records)
	hook := f.afterRead
	f.afterRead = nil
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return out, nil
}

func (f *fakeHistoryRepo) counts() (appends, reads int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appendCalls, f.readCalls
}

type fakePublisher struct {
	mu     sync.Mutex
	events []CompletionEvent
	err    error
}

func (f *fakePublisher) PublishCompletion(_ context.Context, event CompletionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

func (f *fakePublisher) published() []CompletionEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]CompletionEvent, len(f.events))
	copy(out, f.events)
	return out
}

type fakeFetcher struct {
	questions []generator.RawQuestion
	err       error

	calls   int
	lastReq generator.Request
}

func (f *fakeFetcher) fetch(_ context.Context, req generator.Request) ([]generator.RawQuestion, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.questions, nil
}

func rawQuestions(n int) []generator.RawQuestion {
	out := make([]generator.RawQuestion, 0, n)
	for idx := 0; idx < n; idx++ {
		out = append(out, generator.RawQuestion{
			Question:      fmt.Sprintf("Question %d", idx+1),
			Options:       []string{"A) Right", "B) Wrong", "C) Wrong", "D) Wrong"},
			CorrectAnswer: "A",
			Explanation:   "Because.",
		})
	}
	return out
}

func sampleRequest(timeLimit int) generator.Request {
	return generator.Request{
		Text:          "Photosynthesis converts light energy into chemical energy stored in glucose molecules.",
		Difficulty:    "easy",
		TimeLimit:     timeLimit,
		QuestionTypes: generator.DefaultQuestionTypes(),
	}
}

func TestServiceGenerateStartsSession(t *testing.T) {
	fetcher := &fakeFetcher{questions: rawQuestions(6)}
	service := NewService(newFakeHistoryRepo(), fetcher.fetch, ServiceConfig{})

	view, err := service.Generate(context.Background(), sampleRequest(0))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if view.State != StateActive || view.Total != 6 || view.BatchCount != 2 || len(view.Questions) != 5 {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.Questions[0].Options[0] != "Right" {
		t.Fatalf("option prefix not stripped: %q", view.Questions[0].Options[0])
	}
	if fetcher.calls != 1 || fetcher.lastReq.NumQuestions != generator.DefaultNumQuestions {
		t.Fatalf("fetcher not called with validated request: calls=%d req=%+v", fetcher.calls, fetcher.lastReq)
	}
	if view.Difficulty != "easy" {
		t.Fatalf("difficulty not carried into session: %q", view.Difficulty)
	}
}

func TestServiceGenerateFailureKeepsCurrentSession(t *testing.T) {
	fetcher := &fakeFetcher{questions: rawQuestions(2)}
	service := NewService(newFakeHistoryRepo(), fetcher.fetch, ServiceConfig{})

	first, err := service.Generate(context.Background(), sampleRequest(0))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := service.Answer(0, 0); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	fetcher.err = fmt.Errorf("%w: connection refused", generator.ErrServiceUnavailable)
	if _, err := service.Generate(context.Background(), sampleRequest(0)); !errors.Is(err, generator.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}

	fetcher.err = nil
	fetcher.questions = nil
	if _, err := service.Generate(context.Background(), sampleRequest(0)); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}

	view := service.View()
	if view.SessionID != first.SessionID || view.Answered != 1 || view.State != StateActive {
		t.Fatalf("failed generation changed the session: %+v", view)
	}
}

func TestServiceGenerateValidatesBeforeFetching(t *testing.T) {
	fetcher := &fakeFetcher{questions: rawQuestions(1)}
	service := NewService(nil, fetcher.fetch, ServiceConfig{})

	_, err := service.Generate(context.Background(), generator.Request{Text: "too short", QuestionTypes: []string{"factual"}})
	if !errors.Is(err, generator.ErrTextTooShort) {
		t.Fatalf("expected ErrTextTooShort, got %v", err)
	}
	if fetcher.calls != 0 {
		t.Fatalf("fetcher called for invalid request")
	}
}

func TestServiceAnswerLetter(t *testing.T) {
	fetcher := &fakeFetcher{questions: rawQuestions(1)}
	service := NewService(nil, fetcher.fetch, ServiceConfig{})
	if _, err := service.Generate(context.Background(), sampleRequest(0)); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if _, err := service.AnswerLetter(0, "?"); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange for bad letter, got %v", err)
	}
	recorded, err := service.AnswerLetter(0, "b")
	if err != nil || !recorded {
		t.Fatalf("AnswerLetter: recorded=%v err=%v", recorded, err)
	}
	if got := service.View().Questions[0].Selected; got != "B" {
		t.Fatalf("unexpected selection %q", got)
	}
}

func TestServiceCompletionAppendsHistoryOnceAndPublishes(t *testing.T) {
	history := newFakeHistoryRepo()
	publisher := &fakePublisher{}
	fetcher := &fakeFetcher{questions: rawQuestions(2)}
	service := NewService(history, fetcher.fetch, ServiceConfig{Publisher: publisher})

	if _, err := service.Generate(context.Background(), sampleRequest(0)); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := service.Answer(0, 0); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if _, err := service.Answer(1, 3); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	view, err := service.Next(context.Background())
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if view.State != StateCompleted || view.Result == nil || view.Result.Percentage != 38 {
		t.Fatalf("unexpected completed view: %+v", view)
	}

	if _, err := service.Next(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState after completion, got %v", err)
	}

	appends, _ := history.counts()
	if appends != 1 {
		t.Fatalf("expected exactly one history append, got %d", appends)
	}
	events := publisher.published()
	if len(events) != 1 || events[0].Reason != ReasonFinished || events[0].Record.Score != 38 {
		t.Fatalf("unexpected published events: %+v", events)
	}

	export, err := service.Export()
	if err != nil || export.Percentage != 38 {
		t.Fatalf("Export: %+v err=%v", export, err)
	}
}

func TestServiceHistoryIsCachedAndPatchedOnAppend(t *testing.T) {
	history := newFakeHistoryRepo(HistoryRecord{ID: "old", Difficulty: "easy", Score: 50, TotalQuestions: 4})
	fetcher := &fakeFetcher{questions: rawQuestions(1)}
	service := NewService(history, fetcher.fetch, ServiceConfig{})
	ctx := context.Background()

	if _, err := service.History(ctx); err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if _, err := service.Stats(ctx); err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if _, reads := history.counts(); reads != 1 {
		t.Fatalf("expected one repository read, got %d", reads)
	}

	if _, err := service.Generate(ctx, sampleRequest(0)); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := service.Answer(0, 0); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if _, err := service.Next(ctx); err != nil {
		t.Fatalf("Next failed: %v", err)
	}

	records, err := service.History(ctx)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(records) != 2 || records[1].Score != 100 {
		t.Fatalf("cached history not patched: %+v", records)
	}
	stats, err := service.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if easy := stats["easy"]; easy.TotalQuizzes != 2 || easy.BestScore != 100 || easy.AverageScore != 75 {
		t.Fatalf("cached stats not patched: %+v", easy)
	}
	dashboard, err := service.Dashboard(ctx)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if dashboard.TotalQuizzes != 2 || dashboard.Recent[0].Score != 100 {
		t.Fatalf("unexpected dashboard: %+v", dashboard)
	}
	if _, reads := history.counts(); reads != 1 {
		t.Fatalf("expected reads to stay cached, got %d", reads)
	}
}

func TestServiceAppendDoesNotMaterializeCache(t *testing.T) {
	history := newFakeHistoryRepo()
	fetcher := &fakeFetcher{questions: rawQuestions(1)}
	service := NewService(history, fetcher.fetch, ServiceConfig{})

	if _, err := service.Generate(context.Background(), sampleRequest(0)); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := service.Answer(0, 0); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if _, err := service.Next(context.Background()); err != nil {
		t.Fatalf("Next failed: %v", err)
	}

	if _, ok := service.getCachedHistory(); ok {
		t.Fatalf("write path should not create the history cache")
	}
}

func TestServiceHistoryAppendFailureKeepsResult(t *testing.T) {
	history := newFakeHistoryRepo()
	history.appendErr = errors.New("disk full")
	fetcher := &fakeFetcher{questions: rawQuestions(1)}
	service := NewService(history, fetcher.fetch, ServiceConfig{Publisher: &fakePublisher{err: errors.New("broker down")}})

	if _, err := service.Generate(context.Background(), sampleRequest(0)); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := service.Answer(0, 0); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	view, err := service.Next(context.Background())
	if err != nil {
		t.Fatalf("Next should not surface persistence errors: %v", err)
	}
	if view.State != StateCompleted || view.Result.Percentage != 100 {
		t.Fatalf("unexpected view: %+v", view)
	}
}

func TestServiceTimerExpiryCompletesAndRecordsHistory(t *testing.T) {
	history := newFakeHistoryRepo()
	publisher := &fakePublisher{}
	fetcher := &fakeFetcher{questions: rawQuestions(4)}
	service := NewService(history, fetcher.fetch, ServiceConfig{TickInterval: 5 * time.Millisecond, Publisher: publisher})

	if _, err := service.Generate(context.Background(), sampleRequest(2)); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := service.Answer(0, 0); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	var record HistoryRecord
	select {
	case record = <-history.appended:
	case <-time.After(2 * time.Second):
		t.Fatalf("timer expiry did not record history")
	}

	if !record.TimedOut || record.CorrectAnswers != 1 || record.TotalQuestions != 4 || record.Score != 25 {
		t.Fatalf("unexpected record: %+v", record)
	}
	view := service.View()
	if view.State != StateCompleted || view.Reason != ReasonTimeout || view.Remaining != 0 {
		t.Fatalf("unexpected view after expiry: %+v", view)
	}
	if events := publisher.published(); len(events) != 1 || events[0].Reason != ReasonTimeout {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestServiceRestartKeepsHistoryAndQuestions(t *testing.T) {
	history := newFakeHistoryRepo()
	fetcher := &fakeFetcher{questions: rawQuestions(2)}
	service := NewService(history, fetcher.fetch, ServiceConfig{})
	ctx := context.Background()

	if _, err := service.Generate(ctx, sampleRequest(0)); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := service.Answer(0, 0); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if _, err := service.Answer(1, 0); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if _, err := service.Next(ctx); err != nil {
		t.Fatalf("Next failed: %v", err)
	}

	view, err := service.Restart()
	if err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	if view.State != StateActive || view.Total != 2 || view.Answered != 0 {
		t.Fatalf("unexpected view after restart: %+v", view)
	}
	if fetcher.calls != 1 {
		t.Fatalf("restart should not fetch new questions")
	}

	records, err := service.History(ctx)
	if err != nil || len(records) != 1 {
		t.Fatalf("history lost on restart: %+v err=%v", records, err)
	}
}

func TestServiceRestartThenResetStopsTimer(t *testing.T) {
	history := newFakeHistoryRepo()
	fetcher := &fakeFetcher{questions: rawQuestions(1)}
	service := NewService(history, fetcher.fetch, ServiceConfig{TickInterval: 10 * time.Millisecond})

	if _, err := service.Generate(context.Background(), sampleRequest(3)); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	view := service.Reset()
	if view.State != StateIdle {
		t.Fatalf("expected idle after reset, got %s", view.State)
	}

	time.Sleep(80 * time.Millisecond)
	if appends, _ := history.counts(); appends != 0 {
		t.Fatalf("reset session still expired: appends=%d", appends)
	}
	if _, err := service.Restart(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("restart while idle: expected ErrInvalidState, got %v", err)
	}
}

func TestServicePrevious(t *testing.T) {
	fetcher := &fakeFetcher{questions: rawQuestions(6)}
	service := NewService(nil, fetcher.fetch, ServiceConfig{})
	if _, err := service.Generate(context.Background(), sampleRequest(0)); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	for idx := 0; idx < 5; idx++ {
		if _, err := service.Answer(idx, 1); err != nil {
			t.Fatalf("Answer failed: %v", err)
		}
	}
	view, err := service.Next(context.Background())
	if err != nil || view.BatchIndex != 1 {
		t.Fatalf("Next: batch=%d err=%v", view.BatchIndex, err)
	}
	view, err = service.Previous()
	if err != nil || view.BatchIndex != 0 {
		t.Fatalf("Previous: batch=%d err=%v", view.BatchIndex, err)
	}
}

func TestServiceHistoryWithoutRepository(t *testing.T) {
	service := NewService(nil, nil, ServiceConfig{})

	records, err := service.History(context.Background())
	if err != nil || len(records) != 0 {
		t.Fatalf("expected empty history, got %+v err=%v", records, err)
	}
	if _, err := service.Generate(context.Background(), sampleRequest(0)); err == nil {
		t.Fatalf("expected error without a fetcher")
	}
}

func TestServiceHistoryReadRacingAppendIsNotCached(t *testing.T) {
	history := newFakeHistoryRepo()
	fetcher := &fakeFetcher{questions: rawQuestions(1)}
	service := NewService(history, fetcher.fetch, ServiceConfig{})
	ctx := context.Background()

	if _, err := service.Generate(ctx, sampleRequest(0)); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := service.Answer(0, 0); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	// The quiz completes after the store snapshot was taken but before the
	// read is cached.
	history.afterRead = func() {
		if _, err := service.Next(ctx); err != nil {
			t.Errorf("Next failed: %v", err)
		}
	}
	records, err := service.History(ctx)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected the pre-completion snapshot, got %+v", records)
	}

	records, err = service.History(ctx)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(records) != 1 || records[0].Score != 100 {
		t.Fatalf("completed quiz missing from history: %+v", records)
	}
	stats, err := service.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if easy := stats["easy"]; easy.TotalQuizzes != 1 {
		t.Fatalf("completed quiz missing from stats: %+v", stats)
	}
	if _, reads := history.counts(); reads != 2 {
		t.Fatalf("expected the raced read to be repeated once, got %d reads", reads)
	}
}

func TestServiceExpiryOfReplacedSessionIsIgnored(t *testing.T) {
	history := newFakeHistoryRepo()
	publisher := &fakePublisher{}
	fetcher := &fakeFetcher{questions: rawQuestions(3)}
	service := NewService(history, fetcher.fetch, ServiceConfig{Publisher: publisher})
	ctx := context.Background()

	first, err := service.Generate(ctx, sampleRequest(60))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	restarted, err := service.Restart()
	if err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	if restarted.SessionID == first.SessionID {
		t.Fatalf("restart kept session id %s", first.SessionID)
	}

	// A run armed for the first session that passed its own check just
	// before Restart replaced it.
	service.handleTimerExpired(first.SessionID)

	view := service.View()
	if view.State != StateActive || view.SessionID != restarted.SessionID {
		t.Fatalf("restarted session was completed by a stale expiry: %+v", view)
	}
	if appends, _ := history.counts(); appends != 0 {
		t.Fatalf("expected no history appends, got %d", appends)
	}
	if events := publisher.published(); len(events) != 0 {
		t.Fatalf("expected no events, got %+v", events)
	}

	service.handleTimerExpired(restarted.SessionID)
	if view := service.View(); view.State != StateCompleted || view.Reason != ReasonTimeout {
		t.Fatalf("current session expiry not applied: %+v", view)
	}
	if appends, _ := history.counts(); appends != 1 {
		t.Fatalf("expected one history append, got %d", appends)
	}
	service.Reset()
}
