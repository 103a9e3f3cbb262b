package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"zoo-quiz-service/internal/domain"
)

type startQuizRequest struct {
	Subject string `json:"subject"`
}

type answerRequest struct {
	Letter string `json:"letter"`
}

func (s *Server) startQuiz(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	var req startQuizRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Subject == "" {
		s.fail(w, r, &domain.ValidationError{Fields: []domain.FieldError{{Field: "subject", Message: "la matière est obligatoire"}}})
		return
	}
	view, err := s.quiz.StartQuiz(r.Context(), id.StudentID, req.Subject)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) currentQuiz(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	view, err := s.quiz.Current(r.Context(), chi.URLParam(r, "runID"), id.StudentID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) answerQuiz(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	letter, ok := s.decodeLetter(w, r)
	if !ok {
		return
	}
	view, err := s.quiz.Answer(r.Context(), chi.URLParam(r, "runID"), id.StudentID, letter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) advanceQuiz(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	view, err := s.quiz.Advance(r.Context(), chi.URLParam(r, "runID"), id.StudentID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) todayChallenge(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	view, err := s.challenges.Today(r.Context(), id.StudentID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) answerChallenge(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	letter, ok := s.decodeLetter(w, r)
	if !ok {
		return
	}
	view, err := s.challenges.Answer(r.Context(), id.StudentID, chi.URLParam(r, "challengeID"), letter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) decodeLetter(w http.ResponseWriter, r *http.Request) (domain.Letter, bool) {
	var req answerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return "", false
	}
	letter, err := domain.ParseLetter(req.Letter)
	if err != nil {
		s.fail(w, r, err)
		return "", false
	}
	return letter, true
}
