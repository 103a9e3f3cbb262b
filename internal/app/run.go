package app

import (
	"sync"
	"time"

	"zoo-quiz-service/internal/domain"
)

// RunPhase is the state of an in-progress quiz run.
type RunPhase string

const (
	PhaseInProgress RunPhase = "in_progress"
	PhaseRevealing  RunPhase = "revealing"
	PhaseCompleted  RunPhase = "completed"
)

// RunState is the serialisable state of a Run.
// Version grows by one with every transition; registries use it to reject stale saves.
type RunState struct {
	ID          string            `json:"id"`
	Version     int               `json:"version"`
	SessionID   string            `json:"sessionId"`
	StudentID   string            `json:"studentId"`
	ClassroomID string            `json:"classroomId"`
	Subject     domain.Subject    `json:"subject"`
	Questions   []domain.Question `json:"questions"`
	Index       int               `json:"index"`
	Score       int               `json:"score"`
	Phase       RunPhase          `json:"phase"`
	Selected    domain.Letter     `json:"selected,omitempty"`
	LastCorrect bool              `json:"lastCorrect"`
	RevealedAt  time.Time         `json:"revealedAt"`
	StartedAt   time.Time         `json:"startedAt"`
	Award       *Award            `json:"award,omitempty"`
}

// Run is one student's pass through a quiz. All methods are safe for concurrent use.
type Run struct {
	mu    sync.Mutex
	state RunState
}

// NewRun starts a run at the first question.
func NewRun(state RunState) *Run {
	if state.Phase == "" {
		state.Phase = PhaseInProgress
	}
	return &Run{state: state}
}

func (r *Run) ID() string {
	return r.state.ID
}

// State returns a copy of the run state.
func (r *Run) State() RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Run) snapshotLocked() RunState {
	s := r.state
	s.Questions = append([]domain.Question(nil), r.state.Questions...)
	return s
}

// ownedBy reports whether studentID started the run.
func (r *Run) ownedBy(studentID string) bool {
	return r.state.StudentID == studentID
}

// answer records a letter for the current question.
// The first answer moves the run to revealing; later answers are ignored.
func (r *Run) answer(letter domain.Letter, now time.Time) (q domain.Question, correct, ignored bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Phase != PhaseInProgress {
		return domain.Question{}, false, true
	}
	q = r.state.Questions[r.state.Index]
	correct = q.IsCorrect(letter)
	if correct {
		r.state.Score++
	}
	r.state.Selected = letter
	r.state.LastCorrect = correct
	r.state.RevealedAt = now
	r.state.Phase = PhaseRevealing
	r.state.Version++
	return q, correct, false
}

// advance moves to the next question. It reports last=true, without changing state,
// when the current question is the final one and the run must be completed.
func (r *Run) advance(now time.Time, delay time.Duration) (last bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state.Phase {
	case PhaseCompleted:
		return false, domain.ErrSessionCompleted
	case PhaseInProgress:
		return false, domain.ErrAnswerRequired
	}
	if now.Sub(r.state.RevealedAt) < delay {
		return false, domain.ErrRevealPending
	}
	if r.state.Index+1 >= len(r.state.Questions) {
		return true, nil
	}
	r.state.Index++
	r.state.Phase = PhaseInProgress
	r.state.Selected = ""
	r.state.LastCorrect = false
	r.state.Version++
	return false, nil
}

// complete marks the run finished with the award granted by the store.
func (r *Run) complete(award Award) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Phase = PhaseCompleted
	r.state.Award = &award
	r.state.Version++
}

func (r *Run) score() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Score
}
