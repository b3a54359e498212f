package quiz

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultBatchSize = 5

type State int

const (
	StateIdle State = iota
	StateActive
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = StateIdle
	case "active":
		*s = StateActive
	case "completed":
		*s = StateCompleted
	default:
		return fmt.Errorf("unknown session state %q", text)
	}
	return nil
}

const (
	ReasonFinished = "finished"
	ReasonTimeout  = "timeout"
)

// LoadOptions are the per-quiz settings chosen before generation.
type LoadOptions struct {
	// TimeLimit in seconds; zero means untimed.
	TimeLimit  int
	Difficulty string
}

// Completion describes a transition into StateCompleted.
type Completion struct {
	SessionID   string
	Reason      string
	Difficulty  string
	Result      ScoreResult
	CompletedAt time.Time
}

// Session is the quiz progression state machine. All methods are safe to
// call from the UI goroutine and from the countdown goroutine.
type Session struct {
	mu sync.Mutex

	id        string
	batchSize int
	state     State

	questions  []Question
	answers    map[int]int
	batch      int
	timeLimit  int
	remaining  int
	difficulty string

	startedAt   time.Time
	completedAt time.Time
	reason      string
	result      ScoreResult

	now func() time.Time
}

func NewSession(batchSize int) *Session {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Session{
		batchSize: batchSize,
		answers:   make(map[int]int),
		now:       time.Now,
	}
}

func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) BatchSize() int {
	return s.batchSize
}

// Load starts a new attempt. It is only legal from StateIdle.
func (s *Session) Load(questions []Question, opts LoadOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return fmt.Errorf("%w: load while %s", ErrInvalidState, s.state)
	}

	loaded := make([]Question, len(questions))
	copy(loaded, questions)

	s.id = uuid.NewString()
	s.questions = loaded
	s.difficulty = opts.Difficulty
	s.timeLimit = max(opts.TimeLimit, 0)
	s.start()
	return nil
}

// Answer records optionIndex for questionIndex. The first answer for a
// question locks it: later calls report recorded=false and change nothing.
func (s *Session) Answer(questionIndex, optionIndex int) (recorded bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return false, fmt.Errorf("%w: answer while %s", ErrInvalidState, s.state)
	}
	if questionIndex < 0 || questionIndex >= len(s.questions) {
		return false, fmt.Errorf("%w: question %d of %d", ErrOutOfRange, questionIndex, len(s.questions))
	}
	if optionIndex < 0 || optionIndex >= len(s.questions[questionIndex].Options) {
		return false, fmt.Errorf("%w: option %d of %d", ErrOutOfRange, optionIndex, len(s.questions[questionIndex].Options))
	}
	if _, exists := s.answers[questionIndex]; exists {
		return false, nil
	}

	s.answers[questionIndex] = optionIndex
	return true, nil
}

// AdvanceBatch moves to the next batch once every question of the current
// batch is answered. On the last batch it completes the session instead.
// The returned Completion is non-nil only when this call completed it.
func (s *Session) AdvanceBatch() (moved bool, done *Completion, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return false, nil, fmt.Errorf("%w: advance while %s", ErrInvalidState, s.state)
	}
	if !s.batchAnswered() {
		return false, nil, nil
	}
	if s.batch < s.lastBatch() {
		s.batch++
		return true, nil, nil
	}

	completion := s.complete(ReasonFinished)
	return true, &completion, nil
}

// RetreatBatch steps back one batch; it is a no-op on the first batch.
func (s *Session) RetreatBatch() (moved bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return false, fmt.Errorf("%w: retreat while %s", ErrInvalidState, s.state)
	}
	if s.batch == 0 {
		return false, nil
	}
	s.batch--
	return true, nil
}

// Tick records the remaining time reported by the countdown.
func (s *Session) Tick(remaining int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateActive {
		s.remaining = max(remaining, 0)
	}
}

// TimerExpire completes an active session regardless of unanswered questions.
func (s *Session) TimerExpire() (Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return Completion{}, fmt.Errorf("%w: timer expired while %s", ErrInvalidState, s.state)
	}
	s.remaining = 0
	return s.complete(ReasonTimeout), nil
}

// Restart replays the same questions from the beginning.
func (s *Session) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateIdle {
		return fmt.Errorf("%w: restart while %s", ErrInvalidState, s.state)
	}
	s.id = uuid.NewString()
	s.start()
	return nil
}

// Reset drops the questions and returns to StateIdle.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.id = ""
	s.state = StateIdle
	s.questions = nil
	s.answers = make(map[int]int)
	s.batch = 0
	s.timeLimit = 0
	s.remaining = 0
	s.difficulty = ""
	s.reason = ""
	s.result = ScoreResult{}
	s.startedAt = time.Time{}
	s.completedAt = time.Time{}
}

func (s *Session) TimeLimit() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeLimit
}

func (s *Session) Difficulty() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.difficulty
}

// Result returns the score of a completed session.
func (s *Session) Result() (ScoreResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCompleted {
		return ScoreResult{}, fmt.Errorf("%w: result while %s", ErrInvalidState, s.state)
	}
	return s.result, nil
}

// Answers returns a copy of the recorded answers.
func (s *Session) Answers() map[int]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[int]int, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

func (s *Session) start() {
	s.state = StateActive
	s.answers = make(map[int]int)
	s.batch = 0
	s.remaining = s.timeLimit
	s.reason = ""
	s.result = ScoreResult{}
	s.startedAt = s.now()
	s.completedAt = time.Time{}
}

func (s *Session) complete(reason string) Completion {
	s.state = StateCompleted
	s.reason = reason
	s.result = ComputeScore(s.questions, s.answers)
	s.completedAt = s.now()

	return Completion{
		SessionID:   s.id,
		Reason:      reason,
		Difficulty:  s.difficulty,
		Result:      s.result,
		CompletedAt: s.completedAt,
	}
}

func (s *Session) batchBounds() (start, end int) {
	start = s.batch * s.batchSize
	end = min(start+s.batchSize, len(s.questions))
	return start, end
}

func (s *Session) batchAnswered() bool {
	start, end := s.batchBounds()
	for idx := start; idx < end; idx++ {
		if _, ok := s.answers[idx]; !ok {
			return false
		}
	}
	return true
}

func (s *Session) batchCount() int {
	if len(s.questions) == 0 {
		return 1
	}
	return (len(s.questions) + s.batchSize - 1) / s.batchSize
}

func (s *Session) lastBatch() int {
	return s.batchCount() - 1
}
