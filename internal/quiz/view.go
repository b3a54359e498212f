package quiz

import "fmt"

type BatchQuestion struct {
	Index    int      `json:"index"`
	Number   int      `json:"number"`
	Text     string   `json:"question"`
	Options  []string `json:"options"`
	Selected string   `json:"selected,omitempty"`
	Locked   bool     `json:"locked"`
}

// View is the derived state a UI renders. It never exposes correct answers
// while the session is active.
type View struct {
	SessionID       string          `json:"session_id,omitempty"`
	State           State           `json:"state"`
	Difficulty      string          `json:"difficulty,omitempty"`
	BatchIndex      int             `json:"batch_index"`
	BatchCount      int             `json:"batch_count"`
	BatchStart      int             `json:"batch_start"`
	BatchEnd        int             `json:"batch_end"`
	Questions       []BatchQuestion `json:"questions"`
	Answered        int             `json:"answered"`
	Total           int             `json:"total"`
	ProgressPercent float64         `json:"progress_percent"`
	CanRetreat      bool            `json:"can_retreat"`
	CanAdvance      bool            `json:"can_advance"`
	IsLastBatch     bool            `json:"is_last_batch"`
	TimeLimit       int             `json:"time_limit"`
	Remaining       int             `json:"remaining"`
	Reason          string          `json:"reason,omitempty"`
	Result          *ScoreResult    `json:"result,omitempty"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := View{
		SessionID:  s.id,
		State:      s.state,
		Difficulty: s.difficulty,
		BatchIndex: s.batch,
		BatchCount: s.batchCount(),
		Answered:   len(s.answers),
		Total:      len(s.questions),
		TimeLimit:  s.timeLimit,
		Remaining:  s.remaining,
		Questions:  []BatchQuestion{},
	}
	if s.state == StateIdle {
		return view
	}

	if view.Total > 0 {
		view.ProgressPercent = 100 * float64(view.Answered) / float64(view.Total)
	}

	start, end := s.batchBounds()
	view.BatchStart = start
	view.BatchEnd = end
	view.IsLastBatch = s.batch == s.lastBatch()

	for idx := start; idx < end; idx++ {
		question := s.questions[idx]
		item := BatchQuestion{
			Index:   idx,
			Number:  idx + 1,
			Text:    question.Text,
			Options: question.Options,
		}
		if optionIndex, ok := s.answers[idx]; ok {
			item.Selected = OptionLetter(optionIndex)
			item.Locked = true
		}
		view.Questions = append(view.Questions, item)
	}

	switch s.state {
	case StateActive:
		view.CanRetreat = s.batch > 0
		view.CanAdvance = s.batchAnswered()
	case StateCompleted:
		result := s.result
		view.Result = &result
		view.Reason = s.reason
	}
	return view
}

// Counter renders the batch range, e.g. "Questions 6-10 of 12".
func (v View) Counter() string {
	if v.Total == 0 {
		return "Questions 0-0 of 0"
	}
	return fmt.Sprintf("Questions %d-%d of %d", v.BatchStart+1, v.BatchEnd, v.Total)
}
