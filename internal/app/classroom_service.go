package app

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"zoo-quiz-service/internal/domain"
	"zoo-quiz-service/internal/progression"
)

const maxRollOverAttempts = 3

// JoinRequest is the student login form.
type JoinRequest struct {
	Code string `json:"code" validate:"notblank,max=10"`
	Name string `json:"name" validate:"notblank,max=30"`
}

// AvatarRequest is the avatar editor form.
type AvatarRequest struct {
	Type  string `json:"type" validate:"required,animal"`
	Color string `json:"color" validate:"required,animal_color"`
	Name  string `json:"name" validate:"notblank,max=20"`
}

// JoinResult is returned after a successful join.
type JoinResult struct {
	Classroom   domain.Classroom `json:"classroom"`
	Student     domain.Student   `json:"student"`
	NeedsAvatar bool             `json:"needsAvatar"`
}

// Dashboard is the student home screen.
type Dashboard struct {
	Student        domain.Student       `json:"student"`
	Progress       progression.Progress `json:"progress"`
	GamesRemaining int                  `json:"gamesRemaining"`
	DailyLimit     int                  `json:"dailyLimit"`
	Subjects       []domain.Subject     `json:"subjects"`
	Challenge      *ChallengeView       `json:"challenge,omitempty"`
}

// SubjectStats aggregates completed sessions of one subject.
type SubjectStats struct {
	Subject   domain.Subject `json:"subject"`
	Sessions  int            `json:"sessions"`
	Correct   int            `json:"correct"`
	Questions int            `json:"questions"`
	Accuracy  int            `json:"accuracy"`
}

// Profile is the student profile page.
type Profile struct {
	Student   domain.Student       `json:"student"`
	Progress  progression.Progress `json:"progress"`
	Badges    []progression.Badge  `json:"badges"`
	NextBadge *progression.Badge   `json:"nextBadge,omitempty"`
	Subjects  []SubjectStats       `json:"subjects"`
}

// ClassroomService covers joining, the dashboard, avatars and profiles.
type ClassroomService struct {
	store      Store
	challenges *ChallengeService
	limiter    SessionLimiter
	log        *slog.Logger
	now        func() time.Time
}

func NewClassroomService(store Store, challenges *ChallengeService, rules Rules, log *slog.Logger) *ClassroomService {
	return NewClassroomServiceWithClock(store, challenges, rules, log, time.Now)
}

// NewClassroomServiceWithClock is test-only for deterministic dates.
func NewClassroomServiceWithClock(store Store, challenges *ChallengeService, rules Rules, log *slog.Logger, now func() time.Time) *ClassroomService {
	rules = rules.withDefaults()
	return &ClassroomService{
		store:      store,
		challenges: challenges,
		limiter:    NewSessionLimiter(rules.DailyGameLimit),
		log:        log,
		now:        now,
	}
}

// Join finds or creates the classroom for the code and the student for the name.
func (s *ClassroomService) Join(ctx context.Context, req JoinRequest) (JoinResult, error) {
	req.Code = domain.NormalizeJoinCode(req.Code)
	req.Name = strings.TrimSpace(req.Name)
	if err := check(req); err != nil {
		return JoinResult{}, err
	}

	now := s.now()
	classroom, err := s.store.GetOrCreateClassroom(ctx, domain.Classroom{
		ID:        uuid.NewString(),
		Name:      domain.DefaultClassroomName(req.Code),
		JoinCode:  req.Code,
		CreatedAt: now,
	})
	if err != nil {
		return JoinResult{}, err
	}

	student, err := s.store.GetOrCreateStudent(ctx, domain.Student{
		ID:          uuid.NewString(),
		ClassroomID: classroom.ID,
		Name:        req.Name,
		Avatar:      domain.DefaultAvatar(),
		CreatedAt:   now,
	})
	if err != nil {
		return JoinResult{}, err
	}

	s.log.InfoContext(ctx, "student joined", "classroom", classroom.JoinCode, "student", student.ID)
	return JoinResult{
		Classroom:   classroom,
		Student:     student,
		NeedsAvatar: !student.Avatar.IsPersonalized(),
	}, nil
}

// Dashboard rolls the daily counters over and gathers the home screen.
func (s *ClassroomService) Dashboard(ctx context.Context, studentID string) (Dashboard, error) {
	today := domain.DayOf(s.now())
	student, err := s.rollOver(ctx, studentID, today)
	if err != nil {
		return Dashboard{}, err
	}

	subjects, err := s.store.Subjects(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{
		Student:        student,
		Progress:       progression.Snapshot(student.CumulativeScore),
		GamesRemaining: s.limiter.Remaining(student.DailyState, today),
		DailyLimit:     s.limiter.DailyLimit,
		Subjects:       subjects,
	}
	if s.challenges != nil {
		challenge, err := s.challenges.Today(ctx, student.ID)
		if err != nil {
			s.log.WarnContext(ctx, "daily challenge unavailable", "student", student.ID, "err", err)
		} else {
			d.Challenge = &challenge
		}
	}
	return d, nil
}

// rollOver loads the student and persists the day's streak and counter reset.
// A game slot claimed between the read and the write makes the write miss, so
// the student is reloaded and the rollover recomputed from the fresh state.
func (s *ClassroomService) rollOver(ctx context.Context, studentID string, today domain.Day) (domain.Student, error) {
	for attempt := 0; ; attempt++ {
		student, err := s.store.Student(ctx, studentID)
		if err != nil {
			return domain.Student{}, err
		}
		next, changed := s.limiter.RollOver(student.DailyState, today)
		if !changed {
			return student, nil
		}
		saved, err := s.store.SaveDailyState(ctx, student.ID, student.DailyState, next)
		if err != nil {
			s.log.WarnContext(ctx, "save daily state failed", "student", student.ID, "err", err)
		}
		if saved || err != nil || attempt == maxRollOverAttempts-1 {
			student.DailyState = next
			return student, nil
		}
	}
}

// Subjects lists every subject ordered by name.
func (s *ClassroomService) Subjects(ctx context.Context) ([]domain.Subject, error) {
	return s.store.Subjects(ctx)
}

// UpdateAvatar personalises the student's animal.
func (s *ClassroomService) UpdateAvatar(ctx context.Context, studentID string, req AvatarRequest) (domain.Student, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := check(req); err != nil {
		return domain.Student{}, err
	}
	return s.store.UpdateAvatar(ctx, studentID, domain.Avatar{
		Type:  domain.AnimalType(req.Type),
		Color: domain.AnimalColor(req.Color),
		Name:  req.Name,
	})
}

// Profile returns progression, badges and per-subject accuracy of completed sessions.
func (s *ClassroomService) Profile(ctx context.Context, studentID string) (Profile, error) {
	student, err := s.store.Student(ctx, studentID)
	if err != nil {
		return Profile{}, err
	}
	sessions, err := s.store.PlaySessionsByStudent(ctx, student.ID)
	if err != nil {
		return Profile{}, err
	}
	subjects, err := s.store.Subjects(ctx)
	if err != nil {
		return Profile{}, err
	}

	p := Profile{
		Student:  student,
		Progress: progression.Snapshot(student.CumulativeScore),
		Badges:   progression.EarnedBadges(student.CumulativeScore),
		Subjects: subjectStats(subjects, sessions),
	}
	if next, ok := progression.NextBadge(student.CumulativeScore); ok {
		p.NextBadge = &next
	}
	return p, nil
}

func subjectStats(subjects []domain.Subject, sessions []domain.PlaySession) []SubjectStats {
	byID := make(map[string]*SubjectStats, len(subjects))
	order := make([]string, 0, len(subjects))
	for _, subj := range subjects {
		byID[subj.ID] = &SubjectStats{Subject: subj}
		order = append(order, subj.ID)
	}
	for _, ps := range sessions {
		st, ok := byID[ps.SubjectID]
		if !ok || !ps.Completed() {
			continue
		}
		st.Sessions++
		st.Correct += ps.Score
		st.Questions += ps.TotalQuestions
	}

	out := make([]SubjectStats, 0, len(order))
	for _, id := range order {
		st := byID[id]
		if st.Sessions == 0 {
			continue
		}
		if st.Questions > 0 {
			st.Accuracy = (st.Correct*200 + st.Questions) / (2 * st.Questions)
		}
		out = append(out, *st)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Accuracy > out[j].Accuracy
	})
	return out
}
