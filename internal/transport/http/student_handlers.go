package http

import (
	"net/http"
	"time"

	"zoo-quiz-service/internal/app"
	"zoo-quiz-service/internal/domain"
)

type joinResponse struct {
	app.JoinResult
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type avatarCatalog struct {
	Animals []domain.AnimalInfo `json:"animals"`
	Colors  []domain.ColorInfo  `json:"colors"`
}

func (s *Server) join(w http.ResponseWriter, r *http.Request) {
	var req app.JoinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.classrooms.Join(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	token, expires, err := s.tokens.IssueStudent(res.Student)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, joinResponse{JoinResult: res, Token: token, ExpiresAt: expires})
}

func (s *Server) subjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := s.classrooms.Subjects(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subjects)
}

func (s *Server) avatars(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, avatarCatalog{Animals: domain.Animals(), Colors: domain.Colors()})
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	dash, err := s.classrooms.Dashboard(r.Context(), id.StudentID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (s *Server) updateAvatar(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	var req app.AvatarRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	student, err := s.classrooms.UpdateAvatar(r.Context(), id.StudentID, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, student)
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	p, err := s.classrooms.Profile(r.Context(), id.StudentID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// board serves the caller's classroom; admins pick one with ?classroomId=.
func (s *Server) board(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	classroomID := id.ClassroomID
	if id.IsAdmin() {
		classroomID = r.URL.Query().Get("classroomId")
	}
	if classroomID == "" {
		s.fail(w, r, domain.ErrClassroomNotFound)
		return
	}
	lb, err := s.leaderboard.Board(r.Context(), classroomID, domain.ParseLeaderboardMode(r.URL.Query().Get("mode")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}
