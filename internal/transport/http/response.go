package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"zoo-quiz-service/internal/domain"
)

const maxBodyBytes = 1 << 20

type envelope struct {
	Error   bool   `json:"error"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
	Fields  any    `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Data: data})
}

func writeMessage(w http.ResponseWriter, status int, msg string, fields any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Error: true, Message: msg, Fields: fields})
}

// statusFor maps domain failures onto HTTP status codes.
func statusFor(err error) int {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrClassroomNotFound),
		errors.Is(err, domain.ErrStudentNotFound),
		errors.Is(err, domain.ErrSubjectNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrPlaySessionNotFound),
		errors.Is(err, domain.ErrRunNotFound),
		errors.Is(err, domain.ErrChallengeNotFound),
		errors.Is(err, domain.ErrNoChallenge),
		errors.Is(err, domain.ErrNoQuestions):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidLetter):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidPassphrase):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrDailyLimitReached):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrChallengeAnswered),
		errors.Is(err, domain.ErrChallengeExpired),
		errors.Is(err, domain.ErrStudentExists),
		errors.Is(err, domain.ErrSessionCompleted),
		errors.Is(err, domain.ErrAnswerRequired),
		errors.Is(err, domain.ErrRevealPending),
		errors.Is(err, domain.ErrRunConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeMessage(w, status, "internal error", nil)
		return
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeMessage(w, status, "invalid input", verr.Fields)
		return
	}
	writeMessage(w, status, err.Error(), nil)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &domain.ValidationError{Fields: []domain.FieldError{{Field: "body", Message: "le corps de la requête est vide"}}}
		}
		return &domain.ValidationError{Fields: []domain.FieldError{{Field: "body", Message: fmt.Sprintf("JSON invalide : %v", err)}}}
	}
	return nil
}
