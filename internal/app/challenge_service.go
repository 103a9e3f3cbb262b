package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"zoo-quiz-service/internal/domain"
)

// ChallengeService runs the once-a-day classroom challenge.
type ChallengeService struct {
	store  Store
	awards *Awarder
	rules  Rules
	rnd    Randomizer
	log    *slog.Logger
	now    func() time.Time
}

func NewChallengeService(store Store, awards *Awarder, rules Rules, log *slog.Logger) *ChallengeService {
	return NewChallengeServiceWithClock(store, awards, rules, log, time.Now, NewRandomizer(time.Now().UnixNano()))
}

// NewChallengeServiceWithClock is test-only for deterministic dates and picks.
func NewChallengeServiceWithClock(store Store, awards *Awarder, rules Rules, log *slog.Logger, now func() time.Time, rnd Randomizer) *ChallengeService {
	return &ChallengeService{store: store, awards: awards, rules: rules.withDefaults(), rnd: rnd, log: log, now: now}
}

// Today returns the classroom challenge of the day, creating it on first request.
func (s *ChallengeService) Today(ctx context.Context, studentID string) (ChallengeView, error) {
	student, err := s.store.Student(ctx, studentID)
	if err != nil {
		return ChallengeView{}, err
	}
	challenge, err := s.ensureToday(ctx, student.ClassroomID)
	if err != nil {
		return ChallengeView{}, err
	}
	return s.view(ctx, challenge, student.ID)
}

func (s *ChallengeService) ensureToday(ctx context.Context, classroomID string) (domain.DailyChallenge, error) {
	now := s.now()
	today := domain.DayOf(now)

	challenge, err := s.store.DailyChallenge(ctx, classroomID, today)
	if err == nil {
		return challenge, nil
	}
	if !errors.Is(err, domain.ErrChallengeNotFound) {
		return domain.DailyChallenge{}, err
	}

	pool, err := s.store.SampleQuestions(ctx, classroomID, s.rules.ChallengePoolSize)
	if err != nil {
		return domain.DailyChallenge{}, err
	}
	if len(pool) == 0 {
		return domain.DailyChallenge{}, domain.ErrNoChallenge
	}
	pick := pool[s.rnd.Intn(len(pool))]

	// Concurrent first requests race on the unique (classroom, day) key; the store returns the winner.
	challenge, err = s.store.CreateDailyChallenge(ctx, domain.DailyChallenge{
		ID:          uuid.NewString(),
		ClassroomID: classroomID,
		QuestionID:  pick.ID,
		Date:        today,
		CreatedAt:   now,
	})
	if err != nil {
		return domain.DailyChallenge{}, err
	}
	s.log.InfoContext(ctx, "daily challenge created", "classroom", classroomID, "date", today, "question", challenge.QuestionID)
	return challenge, nil
}

// Answer records the student's single answer; a correct answer is worth one point.
func (s *ChallengeService) Answer(ctx context.Context, studentID, challengeID string, letter domain.Letter) (ChallengeView, error) {
	if !letter.Valid() {
		return ChallengeView{}, domain.ErrInvalidLetter
	}
	student, err := s.store.Student(ctx, studentID)
	if err != nil {
		return ChallengeView{}, err
	}
	challenge, err := s.store.ChallengeByID(ctx, challengeID)
	if err != nil {
		return ChallengeView{}, err
	}
	if challenge.ClassroomID != student.ClassroomID {
		return ChallengeView{}, domain.ErrChallengeNotFound
	}
	if challenge.Date != domain.DayOf(s.now()) {
		return ChallengeView{}, domain.ErrChallengeExpired
	}
	q, err := s.store.Question(ctx, challenge.QuestionID)
	if err != nil {
		return ChallengeView{}, err
	}

	correct := q.IsCorrect(letter)
	points := 0
	if correct {
		points = 1
	}
	_, updated, err := s.store.AnswerChallenge(ctx, domain.ChallengeAnswer{
		ID:          uuid.NewString(),
		ChallengeID: challenge.ID,
		StudentID:   student.ID,
		Chosen:      letter,
		Correct:     correct,
		AnsweredAt:  s.now(),
	}, points)
	if err != nil {
		return ChallengeView{}, err
	}

	award := s.awards.settle(ctx, domain.EventChallengeAnswered, updated, points, "")
	view, err := s.view(ctx, challenge, student.ID)
	if err != nil {
		return ChallengeView{}, err
	}
	view.Award = &award
	return view, nil
}

func (s *ChallengeService) view(ctx context.Context, c domain.DailyChallenge, studentID string) (ChallengeView, error) {
	q, err := s.store.Question(ctx, c.QuestionID)
	if err != nil {
		return ChallengeView{}, err
	}
	v := ChallengeView{
		ChallengeID: c.ID,
		Date:        c.Date,
		Question:    newQuestionView(q),
	}
	if subject, err := s.store.Subject(ctx, q.SubjectID); err == nil {
		v.Subject = &subject
	}

	ans, ok, err := s.store.ChallengeAnswer(ctx, c.ID, studentID)
	if err != nil {
		return ChallengeView{}, err
	}
	if ok {
		correct := ans.Correct
		v.Answered = true
		v.Selected = ans.Chosen
		v.Correct = &correct
		v.CorrectLetter = q.Correct
	}
	return v, nil
}
