package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"zoo-quiz-service/internal/domain"
)

// NewQuestion is the admin form for a classroom's custom question.
type NewQuestion struct {
	ClassroomID string    `json:"classroomId" validate:"required"`
	SubjectID   string    `json:"subjectId" validate:"required"`
	Prompt      string    `json:"prompt" validate:"notblank,max=500"`
	Options     [4]string `json:"options" validate:"dive,notblank,max=200"`
	Correct     string    `json:"correct" validate:"required,letter"`
}

// NewStudent is the admin form for adding a student by hand.
type NewStudent struct {
	ClassroomID string `json:"classroomId" validate:"required"`
	Name        string `json:"name" validate:"notblank,max=30"`
}

// ClassroomOverview is the admin landing page of a classroom.
type ClassroomOverview struct {
	Classroom domain.Classroom `json:"classroom"`
	Subjects  []domain.Subject `json:"subjects"`
	Students  []domain.Student `json:"students"`
}

// AdminService is the teacher surface. Callers are expected to hold an admin token.
type AdminService struct {
	store      Store
	bank       QuestionBank
	passphrase string
	log        *slog.Logger
	now        func() time.Time
}

func NewAdminService(store Store, bank QuestionBank, passphrase string, log *slog.Logger) *AdminService {
	return &AdminService{store: store, bank: bank, passphrase: passphrase, log: log, now: time.Now}
}

// Authenticate compares the passphrase case-insensitively.
func (s *AdminService) Authenticate(passphrase string) error {
	if s.passphrase == "" || !strings.EqualFold(strings.TrimSpace(passphrase), s.passphrase) {
		return domain.ErrInvalidPassphrase
	}
	return nil
}

// Classroom returns the classroom for a join code with its subjects and students.
func (s *AdminService) Classroom(ctx context.Context, code string) (ClassroomOverview, error) {
	classroom, err := s.store.ClassroomByCode(ctx, domain.NormalizeJoinCode(code))
	if err != nil {
		return ClassroomOverview{}, err
	}
	subjects, err := s.store.Subjects(ctx)
	if err != nil {
		return ClassroomOverview{}, err
	}
	students, err := s.store.StudentsByClassroom(ctx, classroom.ID)
	if err != nil {
		return ClassroomOverview{}, err
	}
	return ClassroomOverview{Classroom: classroom, Subjects: subjects, Students: students}, nil
}

// Questions lists the shared questions of a subject plus the classroom's own, newest first.
func (s *AdminService) Questions(ctx context.Context, classroomID, subjectID string) ([]domain.Question, error) {
	if _, err := s.store.Classroom(ctx, classroomID); err != nil {
		return nil, err
	}
	if _, err := s.store.Subject(ctx, subjectID); err != nil {
		return nil, err
	}
	all, err := s.store.QuestionsBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Question, 0, len(all))
	for _, q := range all {
		if q.VisibleTo(classroomID) {
			out = append(out, q)
		}
	}
	return out, nil
}

// AddQuestion stores a custom question for the classroom and refreshes the subject cache.
func (s *AdminService) AddQuestion(ctx context.Context, req NewQuestion) (domain.Question, error) {
	req.Prompt = strings.TrimSpace(req.Prompt)
	for i := range req.Options {
		req.Options[i] = strings.TrimSpace(req.Options[i])
	}
	req.Correct = strings.ToLower(strings.TrimSpace(req.Correct))
	if err := check(req); err != nil {
		return domain.Question{}, err
	}
	if _, err := s.store.Classroom(ctx, req.ClassroomID); err != nil {
		return domain.Question{}, err
	}
	if _, err := s.store.Subject(ctx, req.SubjectID); err != nil {
		return domain.Question{}, err
	}

	q, err := s.store.InsertQuestion(ctx, domain.Question{
		ID:          uuid.NewString(),
		SubjectID:   req.SubjectID,
		Prompt:      req.Prompt,
		Options:     req.Options,
		Correct:     domain.Letter(req.Correct),
		IsCustom:    true,
		ClassroomID: req.ClassroomID,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return domain.Question{}, err
	}
	s.invalidate(ctx, q.SubjectID)
	s.log.InfoContext(ctx, "custom question added", "classroom", q.ClassroomID, "subject", q.SubjectID, "question", q.ID)
	return q, nil
}

// DeleteQuestion removes a question and refreshes the subject cache.
func (s *AdminService) DeleteQuestion(ctx context.Context, id string) error {
	q, err := s.store.Question(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteQuestion(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, q.SubjectID)
	return nil
}

// AddStudent creates a student with the default avatar; names are unique per classroom.
func (s *AdminService) AddStudent(ctx context.Context, req NewStudent) (domain.Student, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := check(req); err != nil {
		return domain.Student{}, err
	}
	if _, err := s.store.Classroom(ctx, req.ClassroomID); err != nil {
		return domain.Student{}, err
	}
	return s.store.InsertStudent(ctx, domain.Student{
		ID:          uuid.NewString(),
		ClassroomID: req.ClassroomID,
		Name:        req.Name,
		Avatar:      domain.DefaultAvatar(),
		CreatedAt:   s.now(),
	})
}

// DeleteStudent removes a student with their history.
func (s *AdminService) DeleteStudent(ctx context.Context, id string) error {
	return s.store.DeleteStudent(ctx, id)
}

func (s *AdminService) invalidate(ctx context.Context, subjectID string) {
	if s.bank == nil {
		return
	}
	if err := s.bank.Invalidate(ctx, subjectID); err != nil {
		s.log.WarnContext(ctx, "question cache invalidation failed", "subject", subjectID, "err", err)
	}
}
