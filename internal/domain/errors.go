package domain

import (
	"errors"
	"strings"
)

var (
	// ErrClassroomNotFound is returned when no classroom matches the requested id or join code.
	ErrClassroomNotFound = errors.New("classroom not found")
	// ErrStudentNotFound is returned when the student record is missing.
	ErrStudentNotFound = errors.New("student not found")
	// ErrStudentExists indicates a classroom already has a student with that name.
	ErrStudentExists = errors.New("student already exists in classroom")
	// ErrSubjectNotFound indicates the subject slug or id is unknown.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrQuestionNotFound indicates a question id is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrNoQuestions aborts a quiz start when the subject has nothing to ask.
	ErrNoQuestions = errors.New("no questions available for subject")
	// ErrInvalidLetter indicates an answer letter outside a-d.
	ErrInvalidLetter = errors.New("answer must be one of a, b, c, d")

	// ErrDailyLimitReached is returned when a student used all of today's games.
	ErrDailyLimitReached = errors.New("daily game limit reached")
	// ErrPlaySessionNotFound indicates the stored play session is missing.
	ErrPlaySessionNotFound = errors.New("play session not found")
	// ErrSessionCompleted is returned when a play session was already finalized.
	ErrSessionCompleted = errors.New("play session already completed")
	// ErrRunNotFound is returned when no quiz run is in progress for the id and student.
	ErrRunNotFound = errors.New("quiz run not found")
	// ErrRunConflict is returned when a quiz run was changed by another request first.
	ErrRunConflict = errors.New("quiz run changed concurrently")
	// ErrAnswerRequired is returned when advancing before answering the current question.
	ErrAnswerRequired = errors.New("current question has not been answered")
	// ErrRevealPending is returned when advancing before the reveal delay elapsed.
	ErrRevealPending = errors.New("answer is still being revealed")

	// ErrNoChallenge indicates no question could be picked for today's challenge.
	ErrNoChallenge = errors.New("no daily challenge available")
	// ErrChallengeNotFound indicates a challenge id is unknown or belongs to another classroom.
	ErrChallengeNotFound = errors.New("daily challenge not found")
	// ErrChallengeAnswered is returned on a second answer to the same challenge.
	ErrChallengeAnswered = errors.New("daily challenge already answered")
	// ErrChallengeExpired is returned when answering a challenge from an earlier day.
	ErrChallengeExpired = errors.New("daily challenge is no longer open")

	// ErrInvalidPassphrase rejects an admin login.
	ErrInvalidPassphrase = errors.New("invalid admin passphrase")
	// ErrUnauthorized is returned when a token is missing, expired or of the wrong kind.
	ErrUnauthorized = errors.New("unauthorized")
)

// FieldError describes a validation failure on a single input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when user input is rejected before any store call.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid input"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid input: " + strings.Join(parts, "; ")
}
