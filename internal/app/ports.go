package app

import (
	"context"
	"time"

	"zoo-quiz-service/internal/domain"
)

// ClassroomStore persists classrooms.
type ClassroomStore interface {
	// GetOrCreateClassroom returns the classroom with c.JoinCode, inserting c when absent.
	GetOrCreateClassroom(ctx context.Context, c domain.Classroom) (domain.Classroom, error)
	Classroom(ctx context.Context, id string) (domain.Classroom, error)
	ClassroomByCode(ctx context.Context, code string) (domain.Classroom, error)
}

// StudentStore persists students and their daily counters.
type StudentStore interface {
	// GetOrCreateStudent returns the student named s.Name in s.ClassroomID, inserting s when absent.
	GetOrCreateStudent(ctx context.Context, s domain.Student) (domain.Student, error)
	// InsertStudent fails with domain.ErrStudentExists when the name is taken in the classroom.
	InsertStudent(ctx context.Context, s domain.Student) (domain.Student, error)
	Student(ctx context.Context, id string) (domain.Student, error)
	// StudentsByClassroom returns students ordered by level desc, then name.
	StudentsByClassroom(ctx context.Context, classroomID string) ([]domain.Student, error)
	UpdateAvatar(ctx context.Context, id string, avatar domain.Avatar) (domain.Student, error)
	// SaveDailyState writes next only while the stored state still equals prev.
	// It reports false when a concurrent write got there first.
	SaveDailyState(ctx context.Context, id string, prev, next domain.DailyState) (bool, error)
	// DeleteStudent removes the student with its play sessions and answers.
	DeleteStudent(ctx context.Context, id string) error
}

// CatalogStore persists subjects and questions.
type CatalogStore interface {
	// Subjects returns all subjects ordered by name.
	Subjects(ctx context.Context) ([]domain.Subject, error)
	Subject(ctx context.Context, id string) (domain.Subject, error)
	SubjectBySlug(ctx context.Context, slug string) (domain.Subject, error)
	// UpsertSubject inserts or renames the subject identified by its slug.
	UpsertSubject(ctx context.Context, s domain.Subject) (domain.Subject, error)
	Question(ctx context.Context, id string) (domain.Question, error)
	// QuestionsBySubject returns every question of the subject, newest first.
	QuestionsBySubject(ctx context.Context, subjectID string) ([]domain.Question, error)
	// SampleQuestions returns up to limit questions visible to the classroom in random order.
	SampleQuestions(ctx context.Context, classroomID string, limit int) ([]domain.Question, error)
	InsertQuestion(ctx context.Context, q domain.Question) (domain.Question, error)
	DeleteQuestion(ctx context.Context, id string) error
}

// PlayStore persists play sessions and their answer log.
type PlayStore interface {
	// StartPlaySession claims one of today's game slots and inserts ps in a single transaction.
	// It fails with domain.ErrDailyLimitReached when no slot is left.
	StartPlaySession(ctx context.Context, ps domain.PlaySession, today domain.Day, limit int) (domain.PlaySession, domain.DailyState, error)
	RecordAnswer(ctx context.Context, rec domain.AnswerRecord) error
	// CompletePlaySession sets the final score and adds it to the student's cumulative score.
	// It fails with domain.ErrSessionCompleted when the session was already finalized.
	CompletePlaySession(ctx context.Context, sessionID string, score int, at time.Time) (domain.PlaySession, domain.Student, error)
	PlaySession(ctx context.Context, id string) (domain.PlaySession, error)
	PlaySessionsByStudent(ctx context.Context, studentID string) ([]domain.PlaySession, error)
	// WeeklyScores sums completed session scores played at or after since, keyed by student id.
	WeeklyScores(ctx context.Context, classroomID string, since time.Time) (map[string]int, error)
}

// ChallengeStore persists daily challenges and their answers.
type ChallengeStore interface {
	// DailyChallenge fails with domain.ErrChallengeNotFound when the day has no challenge yet.
	DailyChallenge(ctx context.Context, classroomID string, day domain.Day) (domain.DailyChallenge, error)
	// CreateDailyChallenge inserts c unless the classroom already has one for c.Date,
	// and returns the stored challenge either way.
	CreateDailyChallenge(ctx context.Context, c domain.DailyChallenge) (domain.DailyChallenge, error)
	ChallengeByID(ctx context.Context, id string) (domain.DailyChallenge, error)
	ChallengeAnswer(ctx context.Context, challengeID, studentID string) (domain.ChallengeAnswer, bool, error)
	// AnswerChallenge inserts the answer and adds points to the student in one transaction.
	// It fails with domain.ErrChallengeAnswered on a second answer.
	AnswerChallenge(ctx context.Context, ans domain.ChallengeAnswer, points int) (domain.ChallengeAnswer, domain.Student, error)
}

// Store is the full persistence collaborator.
type Store interface {
	ClassroomStore
	StudentStore
	CatalogStore
	PlayStore
	ChallengeStore
}

// QuestionBank serves a subject's questions, usually from a cache.
type QuestionBank interface {
	Questions(ctx context.Context, subjectID string) ([]domain.Question, error)
	Invalidate(ctx context.Context, subjectID string) error
}

// RunRegistry keeps in-progress quiz runs (in-memory, Redis, etc).
// Get hands out a private copy; concurrent copies of one run are reconciled by Save.
type RunRegistry interface {
	// Put registers a new run.
	Put(ctx context.Context, run *Run) error
	// Get fails with domain.ErrRunNotFound for unknown or expired runs.
	Get(ctx context.Context, id string) (*Run, error)
	// Save stores a transition of run. It fails with domain.ErrRunConflict unless the
	// stored version is exactly one behind run's.
	Save(ctx context.Context, run *Run) error
	Delete(ctx context.Context, id string) error
}

// BoardRelay tells every service instance that a classroom's scores changed.
type BoardRelay interface {
	Announce(ctx context.Context, classroomID string) error
}

// EventPublisher forwards progression events to other systems.
type EventPublisher interface {
	Publish(ctx context.Context, evt domain.ProgressEvent) error
}
