package app_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"zoo-quiz-service/internal/app"
	"zoo-quiz-service/internal/domain"
	"zoo-quiz-service/internal/infra/memory"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type env struct {
	ctx        context.Context
	clock      *clock
	store      *memory.Store
	events     *memory.EventLog
	hub        *app.Hub
	boards     *app.LeaderboardService
	quiz       *app.QuizService
	challenges *app.ChallengeService
	classrooms *app.ClassroomService
	admin      *app.AdminService
	classroom  domain.Classroom
	student    domain.Student
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newEnv wires every service on the memory backend with a "maths" subject of n questions whose answer is always b.
func newEnv(t *testing.T, n int) *env {
	t.Helper()
	ctx := context.Background()
	clk := &clock{now: time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)}
	store := memory.NewStore()
	events := memory.NewEventLog(100)
	hub := app.NewHub()
	log := discardLogger()
	rules := app.Rules{QuestionsPerSession: 10, DailyGameLimit: 2, ChallengePoolSize: 50, RevealDelay: 1500 * time.Millisecond}

	boards := app.NewLeaderboardServiceWithClock(store, hub, log, clk.Now)
	awards := app.NewAwarder(events, boards, log)
	bank := memory.NewQuestionBank(store, time.Minute)
	challenges := app.NewChallengeServiceWithClock(store, awards, rules, log, clk.Now, app.NewRandomizer(7))
	e := &env{
		ctx:        ctx,
		clock:      clk,
		store:      store,
		events:     events,
		hub:        hub,
		boards:     boards,
		quiz:       app.NewQuizServiceWithClock(store, bank, memory.NewRunRegistry(time.Hour), awards, rules, log, clk.Now, app.NewRandomizer(7)),
		challenges: challenges,
		classrooms: app.NewClassroomServiceWithClock(store, challenges, rules, log, clk.Now),
		admin:      app.NewAdminService(store, bank, "Admin", log),
	}

	if _, err := store.UpsertSubject(ctx, domain.Subject{ID: "subj-maths", Name: "Maths", Emoji: "🔢", Slug: "maths"}); err != nil {
		t.Fatalf("subject: %v", err)
	}
	for i := 0; i < n; i++ {
		_, err := store.InsertQuestion(ctx, domain.Question{
			ID:        fmt.Sprintf("q%02d", i),
			SubjectID: "subj-maths",
			Prompt:    fmt.Sprintf("Question %d", i),
			Options:   [4]string{"w", "right", "w", "w"},
			Correct:   domain.LetterB,
			CreatedAt: clk.Now().Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("question: %v", err)
		}
	}

	joined, err := e.classrooms.Join(ctx, app.JoinRequest{Code: "ce1a", Name: "Léa"})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	e.classroom = joined.Classroom
	e.student = joined.Student
	return e
}

func (e *env) join(t *testing.T, name string) domain.Student {
	t.Helper()
	res, err := e.classrooms.Join(e.ctx, app.JoinRequest{Code: e.classroom.JoinCode, Name: name})
	if err != nil {
		t.Fatalf("join %s: %v", name, err)
	}
	return res.Student
}

// playQuiz answers every question, correct for the first `correct` ones, and returns the final view.
func (e *env) playQuiz(t *testing.T, studentID string, correct int) app.RunView {
	t.Helper()
	view, err := e.quiz.StartQuiz(e.ctx, studentID, "maths")
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	for i := 0; i < view.Total; i++ {
		letter := domain.LetterA
		if i < correct {
			letter = domain.LetterB
		}
		if _, err := e.quiz.Answer(e.ctx, view.RunID, studentID, letter); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		e.clock.Advance(2 * time.Second)
		next, err := e.quiz.Advance(e.ctx, view.RunID, studentID)
		if err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
		view = next
	}
	return view
}
