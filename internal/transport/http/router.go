// Package http exposes the quiz use cases as a JSON API with a websocket leaderboard feed.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"zoo-quiz-service/internal/app"
	"zoo-quiz-service/internal/auth"
)

// Services bundles the use cases served over HTTP.
type Services struct {
	Classrooms  *app.ClassroomService
	Quiz        *app.QuizService
	Challenges  *app.ChallengeService
	Leaderboard *app.LeaderboardService
	Admin       *app.AdminService
	Tokens      *auth.Issuer
	// Ping reports backend health for /healthz; nil means always healthy.
	Ping func(ctx context.Context) error
}

type Server struct {
	classrooms  *app.ClassroomService
	quiz        *app.QuizService
	challenges  *app.ChallengeService
	leaderboard *app.LeaderboardService
	admin       *app.AdminService
	tokens      *auth.Issuer
	ping        func(ctx context.Context) error
	upgrader    websocket.Upgrader
	log         *slog.Logger
}

func NewServer(svc Services, log *slog.Logger) *Server {
	return &Server{
		classrooms:  svc.Classrooms,
		quiz:        svc.Quiz,
		challenges:  svc.Challenges,
		leaderboard: svc.Leaderboard,
		admin:       svc.Admin,
		tokens:      svc.Tokens,
		ping:        svc.Ping,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	mux.Use(cors.AllowAll().Handler)
	mux.Use(s.requestLogger)

	mux.Get("/healthz", s.health)
	mux.Get("/ws/leaderboard", s.ServeLeaderboardWS)

	mux.Route("/api", func(r chi.Router) {
		r.Post("/join", s.join)
		r.Get("/subjects", s.subjects)
		r.Get("/avatars", s.avatars)
		r.Post("/admin/login", s.adminLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Get("/leaderboard", s.board)

			r.Group(func(r chi.Router) {
				r.Use(s.requireStudent)
				r.Get("/me/dashboard", s.dashboard)
				r.Put("/me/avatar", s.updateAvatar)
				r.Get("/me/profile", s.profile)

				r.Post("/quiz", s.startQuiz)
				r.Get("/quiz/{runID}", s.currentQuiz)
				r.Post("/quiz/{runID}/answer", s.answerQuiz)
				r.Post("/quiz/{runID}/advance", s.advanceQuiz)

				r.Get("/challenge", s.todayChallenge)
				r.Post("/challenge/{challengeID}/answer", s.answerChallenge)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Get("/classrooms/{code}", s.adminClassroom)
				r.Get("/classrooms/{classroomID}/questions", s.adminQuestions)
				r.Post("/classrooms/{classroomID}/questions", s.adminAddQuestion)
				r.Post("/classrooms/{classroomID}/students", s.adminAddStudent)
				r.Delete("/questions/{id}", s.adminDeleteQuestion)
				r.Delete("/students/{id}", s.adminDeleteStudent)
			})
		})
	})

	return mux
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.ping != nil {
		if err := s.ping(r.Context()); err != nil {
			s.log.WarnContext(r.Context(), "health check failed", "err", err)
			writeMessage(w, http.StatusServiceUnavailable, "unavailable", nil)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
