package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"zoo-quiz-service/internal/app"
)

type adminLoginRequest struct {
	Passphrase string `json:"passphrase"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) adminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.admin.Authenticate(req.Passphrase); err != nil {
		s.log.WarnContext(r.Context(), "admin login rejected", "remote", r.RemoteAddr)
		s.fail(w, r, err)
		return
	}
	token, expires, err := s.tokens.IssueAdmin()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expires})
}

func (s *Server) adminClassroom(w http.ResponseWriter, r *http.Request) {
	overview, err := s.admin.Classroom(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) adminQuestions(w http.ResponseWriter, r *http.Request) {
	qs, err := s.admin.Questions(r.Context(), chi.URLParam(r, "classroomID"), r.URL.Query().Get("subjectId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, qs)
}

func (s *Server) adminAddQuestion(w http.ResponseWriter, r *http.Request) {
	var req app.NewQuestion
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	req.ClassroomID = chi.URLParam(r, "classroomID")
	q, err := s.admin.AddQuestion(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (s *Server) adminDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := s.admin.DeleteQuestion(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) adminAddStudent(w http.ResponseWriter, r *http.Request) {
	var req app.NewStudent
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	req.ClassroomID = chi.URLParam(r, "classroomID")
	student, err := s.admin.AddStudent(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, student)
}

func (s *Server) adminDeleteStudent(w http.ResponseWriter, r *http.Request) {
	if err := s.admin.DeleteStudent(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
