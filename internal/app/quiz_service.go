package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"zoo-quiz-service/internal/domain"
)

// QuizService contains the subject quiz use cases.
type QuizService struct {
	store   Store
	bank    QuestionBank
	runs    RunRegistry
	awards  *Awarder
	limiter SessionLimiter
	rules   Rules
	rnd     Randomizer
	log     *slog.Logger
	now     func() time.Time
}

func NewQuizService(store Store, bank QuestionBank, runs RunRegistry, awards *Awarder, rules Rules, log *slog.Logger) *QuizService {
	return NewQuizServiceWithClock(store, bank, runs, awards, rules, log, time.Now, NewRandomizer(time.Now().UnixNano()))
}

// NewQuizServiceWithClock is test-only for deterministic timestamps and sampling.
func NewQuizServiceWithClock(store Store, bank QuestionBank, runs RunRegistry, awards *Awarder, rules Rules, log *slog.Logger, now func() time.Time, rnd Randomizer) *QuizService {
	rules = rules.withDefaults()
	return &QuizService{
		store:   store,
		bank:    bank,
		runs:    runs,
		awards:  awards,
		limiter: NewSessionLimiter(rules.DailyGameLimit),
		rules:   rules,
		rnd:     rnd,
		log:     log,
		now:     now,
	}
}

// StartQuiz claims a daily game slot and starts a run over a random subset of the subject's questions.
func (s *QuizService) StartQuiz(ctx context.Context, studentID, subjectSlug string) (RunView, error) {
	student, err := s.store.Student(ctx, studentID)
	if err != nil {
		return RunView{}, err
	}
	subject, err := s.store.SubjectBySlug(ctx, subjectSlug)
	if err != nil {
		return RunView{}, err
	}

	now := s.now()
	today := domain.DayOf(now)
	if !s.limiter.CanPlay(student.DailyState, today) {
		return RunView{}, domain.ErrDailyLimitReached
	}

	all, err := s.bank.Questions(ctx, subject.ID)
	if err != nil {
		return RunView{}, fmt.Errorf("load questions: %w", err)
	}
	pool := make([]domain.Question, 0, len(all))
	for _, q := range all {
		if q.VisibleTo(student.ClassroomID) {
			pool = append(pool, q)
		}
	}
	if len(pool) == 0 {
		return RunView{}, domain.ErrNoQuestions
	}
	questions := sample(s.rnd, pool, s.rules.QuestionsPerSession)

	ps, _, err := s.store.StartPlaySession(ctx, domain.PlaySession{
		ID:             uuid.NewString(),
		StudentID:      student.ID,
		SubjectID:      subject.ID,
		TotalQuestions: len(questions),
		PlayedAt:       now,
	}, today, s.limiter.DailyLimit)
	if err != nil {
		return RunView{}, err
	}

	run := NewRun(RunState{
		ID:          uuid.NewString(),
		SessionID:   ps.ID,
		StudentID:   student.ID,
		ClassroomID: student.ClassroomID,
		Subject:     subject,
		Questions:   questions,
		StartedAt:   now,
	})
	if err := s.runs.Put(ctx, run); err != nil {
		return RunView{}, fmt.Errorf("register run: %w", err)
	}

	s.log.InfoContext(ctx, "quiz started", "run", run.ID(), "student", student.ID, "subject", subject.Slug, "questions", len(questions))
	return newRunView(run.State(), s.rules.RevealDelay), nil
}

// Current returns the run as it stands.
func (s *QuizService) Current(ctx context.Context, runID, studentID string) (RunView, error) {
	run, err := s.ownedRun(ctx, runID, studentID)
	if err != nil {
		return RunView{}, err
	}
	return newRunView(run.State(), s.rules.RevealDelay), nil
}

// Answer scores the current question. Repeated answers are ignored.
func (s *QuizService) Answer(ctx context.Context, runID, studentID string, letter domain.Letter) (RunView, error) {
	if !letter.Valid() {
		return RunView{}, domain.ErrInvalidLetter
	}
	run, err := s.ownedRun(ctx, runID, studentID)
	if err != nil {
		return RunView{}, err
	}

	now := s.now()
	q, correct, ignored := run.answer(letter, now)
	if ignored {
		return s.ignoredView(run), nil
	}
	// The saved transition claims the question; only the winner records an answer.
	if err := s.runs.Save(ctx, run); err != nil {
		if !errors.Is(err, domain.ErrRunConflict) {
			return RunView{}, fmt.Errorf("save run: %w", err)
		}
		fresh, err := s.ownedRun(ctx, runID, studentID)
		if err != nil {
			return RunView{}, err
		}
		return s.ignoredView(fresh), nil
	}

	state := run.State()
	if err := s.store.RecordAnswer(ctx, domain.AnswerRecord{
		ID:         uuid.NewString(),
		SessionID:  state.SessionID,
		QuestionID: q.ID,
		Chosen:     letter,
		Correct:    correct,
		AnsweredAt: now,
	}); err != nil {
		return RunView{}, fmt.Errorf("record answer: %w", err)
	}
	return newRunView(state, s.rules.RevealDelay), nil
}

func (s *QuizService) ignoredView(run *Run) RunView {
	view := newRunView(run.State(), s.rules.RevealDelay)
	view.Ignored = true
	return view
}

// Advance leaves the reveal step; after the last question it completes the run exactly once.
func (s *QuizService) Advance(ctx context.Context, runID, studentID string) (RunView, error) {
	run, err := s.ownedRun(ctx, runID, studentID)
	if err != nil {
		return RunView{}, err
	}

	now := s.now()
	last, err := run.advance(now, s.rules.RevealDelay)
	if err != nil {
		return RunView{}, err
	}
	if !last {
		if err := s.runs.Save(ctx, run); err != nil {
			if !errors.Is(err, domain.ErrRunConflict) {
				return RunView{}, fmt.Errorf("save run: %w", err)
			}
			// another request moved the run on first
			if run, err = s.ownedRun(ctx, runID, studentID); err != nil {
				return RunView{}, err
			}
		}
		return newRunView(run.State(), s.rules.RevealDelay), nil
	}

	score := run.score()
	ps, student, err := s.store.CompletePlaySession(ctx, run.State().SessionID, score, now)
	if err != nil {
		return RunView{}, err
	}
	award := s.awards.settle(ctx, domain.EventSessionCompleted, student, ps.Score, ps.ID)
	run.complete(award)

	if err := s.runs.Save(ctx, run); err != nil {
		s.log.WarnContext(ctx, "save completed run failed", "run", runID, "err", err)
	}
	s.log.InfoContext(ctx, "quiz completed", "run", runID, "student", studentID, "score", score, "level", student.Level)
	return newRunView(run.State(), s.rules.RevealDelay), nil
}

func (s *QuizService) ownedRun(ctx context.Context, runID, studentID string) (*Run, error) {
	run, err := s.runs.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !run.ownedBy(studentID) {
		return nil, domain.ErrRunNotFound
	}
	return run, nil
}
