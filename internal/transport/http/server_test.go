package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"zoo-quiz-service/internal/app"
	"zoo-quiz-service/internal/auth"
	"zoo-quiz-service/internal/domain"
	"zoo-quiz-service/internal/infra/memory"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testServer struct {
	*httptest.Server
	store *memory.Store
	clock *testClock
}

type testEnvelope struct {
	Error   bool                `json:"error"`
	Data    json.RawMessage     `json:"data"`
	Message string              `json:"message"`
	Fields  []domain.FieldError `json:"fields"`
}

// newTestServer serves every route on the memory backend with a "maths" subject whose answer is always b.
func newTestServer(t *testing.T, questions int) *testServer {
	t.Helper()
	ctx := context.Background()
	clk := &testClock{now: time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	rules := app.Rules{QuestionsPerSession: 10, DailyGameLimit: 2, ChallengePoolSize: 50, RevealDelay: 0}

	if _, err := store.UpsertSubject(ctx, domain.Subject{ID: "subj-maths", Name: "Maths", Emoji: "🔢", Slug: "maths"}); err != nil {
		t.Fatalf("subject: %v", err)
	}
	for i := 0; i < questions; i++ {
		_, err := store.InsertQuestion(ctx, domain.Question{
			ID:        fmt.Sprintf("q%02d", i),
			SubjectID: "subj-maths",
			Prompt:    fmt.Sprintf("Question %d", i),
			Options:   [4]string{"w", "right", "w", "w"},
			Correct:   domain.LetterB,
			CreatedAt: clk.Now(),
		})
		if err != nil {
			t.Fatalf("question: %v", err)
		}
	}

	tokens, err := auth.NewIssuer("transport-test-secret-0123", time.Hour, time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	boards := app.NewLeaderboardServiceWithClock(store, app.NewHub(), log, clk.Now)
	awards := app.NewAwarder(memory.NewEventLog(10), boards, log)
	bank := memory.NewQuestionBank(store, time.Minute)
	challenges := app.NewChallengeServiceWithClock(store, awards, rules, log, clk.Now, app.NewRandomizer(3))

	srv := NewServer(Services{
		Classrooms:  app.NewClassroomServiceWithClock(store, challenges, rules, log, clk.Now),
		Quiz:        app.NewQuizServiceWithClock(store, bank, memory.NewRunRegistry(time.Hour), awards, rules, log, clk.Now, app.NewRandomizer(3)),
		Challenges:  challenges,
		Leaderboard: boards,
		Admin:       app.NewAdminService(store, bank, "Admin", log),
		Tokens:      tokens,
	}, log)

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, store: store, clock: clk}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (int, testEnvelope) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, ts.URL+path, rdr)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env testEnvelope
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode, env
}

func decodeData[T any](t *testing.T, env testEnvelope) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode data: %v (%s)", err, env.Data)
	}
	return out
}

type joined struct {
	Token       string         `json:"token"`
	Student     domain.Student `json:"student"`
	NeedsAvatar bool           `json:"needsAvatar"`
}

func (ts *testServer) join(t *testing.T, name string) joined {
	t.Helper()
	status, env := ts.do(t, http.MethodPost, "/api/join", "", map[string]string{"code": "ce1a", "name": name})
	if status != http.StatusOK {
		t.Fatalf("join %s: status %d (%s)", name, status, env.Message)
	}
	return decodeData[joined](t, env)
}

// playQuiz answers every question of a fresh run correctly and returns the final view.
func (ts *testServer) playQuiz(t *testing.T, token string) app.RunView {
	t.Helper()
	status, env := ts.do(t, http.MethodPost, "/api/quiz", token, map[string]string{"subject": "maths"})
	if status != http.StatusCreated {
		t.Fatalf("start quiz: status %d (%s)", status, env.Message)
	}
	view := decodeData[app.RunView](t, env)
	for i := 0; i < view.Total; i++ {
		if status, env := ts.do(t, http.MethodPost, "/api/quiz/"+view.RunID+"/answer", token, map[string]string{"letter": "b"}); status != http.StatusOK {
			t.Fatalf("answer %d: status %d (%s)", i, status, env.Message)
		}
		status, env := ts.do(t, http.MethodPost, "/api/quiz/"+view.RunID+"/advance", token, nil)
		if status != http.StatusOK {
			t.Fatalf("advance %d: status %d (%s)", i, status, env.Message)
		}
		view = decodeData[app.RunView](t, env)
	}
	return view
}

func TestJoinIssuesTokenForDashboard(t *testing.T) {
	ts := newTestServer(t, 3)

	j := ts.join(t, "Léa")
	if j.Token == "" || !j.NeedsAvatar {
		t.Fatalf("unexpected join response %+v", j)
	}

	status, env := ts.do(t, http.MethodGet, "/api/me/dashboard", j.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("dashboard: status %d (%s)", status, env.Message)
	}
	dash := decodeData[app.Dashboard](t, env)
	if dash.Student.ID != j.Student.ID || dash.GamesRemaining != 2 {
		t.Fatalf("unexpected dashboard %+v", dash)
	}

	if status, _ := ts.do(t, http.MethodGet, "/api/me/dashboard", "", nil); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}
	if status, _ := ts.do(t, http.MethodGet, "/api/me/dashboard", "garbage", nil); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", status)
	}
}

func TestJoinValidation(t *testing.T) {
	ts := newTestServer(t, 1)

	status, env := ts.do(t, http.MethodPost, "/api/join", "", map[string]string{"code": "  ", "name": "Léa"})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if len(env.Fields) == 0 || env.Fields[0].Field != "code" {
		t.Fatalf("expected a code field error, got %+v", env.Fields)
	}

	status, _ = ts.do(t, http.MethodPost, "/api/join", "", map[string]any{"code": "X", "name": "Léa", "admin": true})
	if status != http.StatusBadRequest {
		t.Fatalf("unknown fields should be rejected, got %d", status)
	}
}

func TestAvatarUpdate(t *testing.T) {
	ts := newTestServer(t, 1)
	j := ts.join(t, "Léa")

	status, env := ts.do(t, http.MethodPut, "/api/me/avatar", j.Token, map[string]string{"type": "chat", "color": "bleu", "name": "Minou"})
	if status != http.StatusOK {
		t.Fatalf("avatar: status %d (%s)", status, env.Message)
	}
	student := decodeData[domain.Student](t, env)
	if student.Avatar.Type != "chat" || student.Avatar.Name != "Minou" {
		t.Fatalf("unexpected avatar %+v", student.Avatar)
	}

	status, _ = ts.do(t, http.MethodPut, "/api/me/avatar", j.Token, map[string]string{"type": "dragon", "color": "bleu", "name": "Minou"})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown animal, got %d", status)
	}
}

func TestQuizFlowAndDailyLimit(t *testing.T) {
	ts := newTestServer(t, 3)
	j := ts.join(t, "Léa")

	final := ts.playQuiz(t, j.Token)
	if final.Phase != app.PhaseCompleted || final.Score != 3 {
		t.Fatalf("unexpected final view %+v", final)
	}
	if final.Award == nil || final.Award.Points != 3 {
		t.Fatalf("expected an award of 3 points, got %+v", final.Award)
	}

	status, _ := ts.do(t, http.MethodPost, "/api/quiz/"+final.RunID+"/advance", j.Token, nil)
	if status != http.StatusConflict {
		t.Fatalf("advancing a completed run should conflict, got %d", status)
	}

	ts.playQuiz(t, j.Token)
	status, env := ts.do(t, http.MethodPost, "/api/quiz", j.Token, map[string]string{"subject": "maths"})
	if status != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after two games, got %d (%s)", status, env.Message)
	}

	status, env = ts.do(t, http.MethodGet, "/api/me/profile", j.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("profile: status %d", status)
	}
	profile := decodeData[app.Profile](t, env)
	if profile.Student.CumulativeScore != 6 || len(profile.Subjects) != 1 || profile.Subjects[0].Accuracy != 100 {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

func TestQuizErrors(t *testing.T) {
	ts := newTestServer(t, 2)
	j := ts.join(t, "Léa")
	other := ts.join(t, "Tom")

	if status, _ := ts.do(t, http.MethodPost, "/api/quiz", j.Token, map[string]string{"subject": "histoire"}); status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown subject, got %d", status)
	}

	_, env := ts.do(t, http.MethodPost, "/api/quiz", j.Token, map[string]string{"subject": "maths"})
	view := decodeData[app.RunView](t, env)

	if status, _ := ts.do(t, http.MethodPost, "/api/quiz/"+view.RunID+"/answer", j.Token, map[string]string{"letter": "z"}); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid letter, got %d", status)
	}
	if status, _ := ts.do(t, http.MethodPost, "/api/quiz/"+view.RunID+"/advance", j.Token, nil); status != http.StatusConflict {
		t.Fatalf("expected 409 advancing unanswered question, got %d", status)
	}
	if status, _ := ts.do(t, http.MethodGet, "/api/quiz/"+view.RunID, other.Token, nil); status != http.StatusNotFound {
		t.Fatalf("another student must not see the run, got %d", status)
	}
}

func TestDailyChallengeOverHTTP(t *testing.T) {
	ts := newTestServer(t, 4)
	j := ts.join(t, "Léa")

	status, env := ts.do(t, http.MethodGet, "/api/challenge", j.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("challenge: status %d (%s)", status, env.Message)
	}
	ch := decodeData[app.ChallengeView](t, env)
	if ch.Answered {
		t.Fatalf("fresh challenge should be unanswered")
	}

	path := "/api/challenge/" + ch.ChallengeID + "/answer"
	status, env = ts.do(t, http.MethodPost, path, j.Token, map[string]string{"letter": "b"})
	if status != http.StatusOK {
		t.Fatalf("answer: status %d (%s)", status, env.Message)
	}
	answered := decodeData[app.ChallengeView](t, env)
	if !answered.Answered || answered.Correct == nil || !*answered.Correct {
		t.Fatalf("unexpected answered view %+v", answered)
	}

	if status, _ := ts.do(t, http.MethodPost, path, j.Token, map[string]string{"letter": "a"}); status != http.StatusConflict {
		t.Fatalf("expected 409 on second answer, got %d", status)
	}

	tom := ts.join(t, "Tom")
	ts.clock.Advance(48 * time.Hour)
	if status, _ := ts.do(t, http.MethodPost, path, tom.Token, map[string]string{"letter": "b"}); status != http.StatusConflict {
		t.Fatalf("expected 409 on an old challenge, got %d", status)
	}
}

func TestLeaderboardModes(t *testing.T) {
	ts := newTestServer(t, 2)
	lea := ts.join(t, "Léa")
	tom := ts.join(t, "Tom")
	ts.playQuiz(t, tom.Token)

	status, env := ts.do(t, http.MethodGet, "/api/leaderboard?mode=weekly", lea.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("leaderboard: status %d", status)
	}
	lb := decodeData[domain.Leaderboard](t, env)
	if lb.Mode != domain.ModeWeekly || len(lb.Entries) != 2 {
		t.Fatalf("unexpected board %+v", lb)
	}
	if lb.Entries[0].Name != "Tom" || lb.Entries[0].WeeklyScore != 2 || lb.Entries[0].Rank != 1 {
		t.Fatalf("expected Tom first with 2 weekly points, got %+v", lb.Entries[0])
	}
}

func TestAdminRoutes(t *testing.T) {
	ts := newTestServer(t, 1)
	student := ts.join(t, "Léa")

	if status, _ := ts.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{"passphrase": "nope"}); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong passphrase, got %d", status)
	}
	status, env := ts.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{"passphrase": "admin"})
	if status != http.StatusOK {
		t.Fatalf("login: status %d", status)
	}
	admin := decodeData[tokenResponse](t, env).Token

	if status, _ := ts.do(t, http.MethodGet, "/api/admin/classrooms/CE1A", student.Token, nil); status != http.StatusUnauthorized {
		t.Fatalf("student token must not reach admin routes, got %d", status)
	}
	if status, _ := ts.do(t, http.MethodGet, "/api/me/dashboard", admin, nil); status != http.StatusUnauthorized {
		t.Fatalf("admin token must not reach student routes, got %d", status)
	}

	status, env = ts.do(t, http.MethodGet, "/api/admin/classrooms/ce1a", admin, nil)
	if status != http.StatusOK {
		t.Fatalf("classroom: status %d (%s)", status, env.Message)
	}
	overview := decodeData[app.ClassroomOverview](t, env)
	classroomID := overview.Classroom.ID
	if len(overview.Students) != 1 {
		t.Fatalf("expected one student, got %+v", overview.Students)
	}

	base := "/api/admin/classrooms/" + classroomID
	status, env = ts.do(t, http.MethodPost, base+"/questions", admin, map[string]any{
		"subjectId": "subj-maths",
		"prompt":    "Combien font 2 + 3 ?",
		"options":   []string{"4", "5", "6", "7"},
		"correct":   "b",
	})
	if status != http.StatusCreated {
		t.Fatalf("add question: status %d (%s %+v)", status, env.Message, env.Fields)
	}
	q := decodeData[domain.Question](t, env)
	if !q.IsCustom || q.ClassroomID != classroomID {
		t.Fatalf("unexpected custom question %+v", q)
	}

	status, env = ts.do(t, http.MethodPost, base+"/questions", admin, map[string]any{
		"subjectId": "subj-maths",
		"prompt":    "",
		"options":   []string{"4", "5", "6", "7"},
		"correct":   "e",
	})
	if status != http.StatusBadRequest || len(env.Fields) != 2 {
		t.Fatalf("expected 400 with two field errors, got %d %+v", status, env.Fields)
	}

	status, env = ts.do(t, http.MethodGet, base+"/questions?subjectId=subj-maths", admin, nil)
	if status != http.StatusOK || len(decodeData[[]domain.Question](t, env)) != 2 {
		t.Fatalf("expected shared and custom questions, got %d %s", status, env.Data)
	}

	if status, _ := ts.do(t, http.MethodDelete, "/api/admin/questions/"+q.ID, admin, nil); status != http.StatusNoContent {
		t.Fatalf("delete question: status %d", status)
	}

	if status, _ := ts.do(t, http.MethodPost, base+"/students", admin, map[string]string{"name": "Léa"}); status != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate student, got %d", status)
	}
	status, env = ts.do(t, http.MethodPost, base+"/students", admin, map[string]string{"name": "Noé"})
	if status != http.StatusCreated {
		t.Fatalf("add student: status %d (%s)", status, env.Message)
	}
	added := decodeData[domain.Student](t, env)
	if status, _ := ts.do(t, http.MethodDelete, "/api/admin/students/"+added.ID, admin, nil); status != http.StatusNoContent {
		t.Fatalf("delete student: status %d", status)
	}
	if status, _ := ts.do(t, http.MethodDelete, "/api/admin/students/"+added.ID, admin, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 deleting twice, got %d", status)
	}
}

func TestPublicRoutes(t *testing.T) {
	ts := newTestServer(t, 1)

	status, env := ts.do(t, http.MethodGet, "/api/subjects", "", nil)
	if status != http.StatusOK || len(decodeData[[]domain.Subject](t, env)) != 1 {
		t.Fatalf("subjects: status %d %s", status, env.Data)
	}
	status, env = ts.do(t, http.MethodGet, "/api/avatars", "", nil)
	catalog := decodeData[avatarCatalog](t, env)
	if status != http.StatusOK || len(catalog.Animals) != 6 || len(catalog.Colors) != 8 {
		t.Fatalf("avatars: status %d %+v", status, catalog)
	}
	if status, _ := ts.do(t, http.MethodGet, "/healthz", "", nil); status != http.StatusOK {
		t.Fatalf("healthz: status %d", status)
	}
}
