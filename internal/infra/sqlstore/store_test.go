package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zoo-quiz-service/internal/domain"
	"zoo-quiz-service/internal/infra/sqlstore/migrations"
)

var day1 = time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = migrations.Up(context.Background(), db)
	require.NoError(t, err)
	return New(db)
}

type fixture struct {
	store     *Store
	classroom domain.Classroom
	student   domain.Student
	subject   domain.Subject
	questions []domain.Question
}

func seed(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	s := openTestStore(t)

	c, err := s.GetOrCreateClassroom(ctx, domain.Classroom{ID: "c1", Name: "Classe CE1A", JoinCode: "CE1A", CreatedAt: day1})
	require.NoError(t, err)
	st, err := s.GetOrCreateStudent(ctx, domain.Student{ID: "s1", ClassroomID: c.ID, Name: "Léa", Avatar: domain.DefaultAvatar(), CreatedAt: day1})
	require.NoError(t, err)
	subj, err := s.UpsertSubject(ctx, domain.Subject{ID: "maths", Name: "Maths", Emoji: "🔢", Slug: "maths"})
	require.NoError(t, err)

	var qs []domain.Question
	for i := 0; i < 3; i++ {
		q, err := s.InsertQuestion(ctx, domain.Question{
			ID:        fmt.Sprintf("q%d", i),
			SubjectID: subj.ID,
			Prompt:    fmt.Sprintf("Question %d", i),
			Options:   [4]string{"a", "b", "c", "d"},
			Correct:   domain.LetterC,
			CreatedAt: day1.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
		qs = append(qs, q)
	}
	return fixture{store: s, classroom: c, student: st, subject: subj, questions: qs}
}

func TestClassroomAndStudentGetOrCreate(t *testing.T) {
	ctx := context.Background()
	f := seed(t)

	again, err := f.store.GetOrCreateClassroom(ctx, domain.Classroom{ID: "c2", Name: "x", JoinCode: "CE1A", CreatedAt: day1})
	require.NoError(t, err)
	assert.Equal(t, "c1", again.ID)
	assert.Equal(t, "Classe CE1A", again.Name)

	st, err := f.store.GetOrCreateStudent(ctx, domain.Student{ID: "s2", ClassroomID: "c1", Name: "Léa", Avatar: domain.DefaultAvatar(), CreatedAt: day1})
	require.NoError(t, err)
	assert.Equal(t, "s1", st.ID)
	assert.Equal(t, domain.AnimalRabbit, st.Avatar.Type)

	_, err = f.store.InsertStudent(ctx, domain.Student{ID: "s3", ClassroomID: "c1", Name: "Léa", Avatar: domain.DefaultAvatar(), CreatedAt: day1})
	assert.ErrorIs(t, err, domain.ErrStudentExists)

	_, err = f.store.Student(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrStudentNotFound)
}

func TestUpsertSubjectBySlug(t *testing.T) {
	ctx := context.Background()
	f := seed(t)

	renamed, err := f.store.UpsertSubject(ctx, domain.Subject{ID: "other-id", Name: "Mathématiques", Emoji: "➗", Slug: "maths"})
	require.NoError(t, err)
	assert.Equal(t, "maths", renamed.ID)
	assert.Equal(t, "Mathématiques", renamed.Name)

	subjects, err := f.store.Subjects(ctx)
	require.NoError(t, err)
	assert.Len(t, subjects, 1)
}

func TestQuestionVisibility(t *testing.T) {
	ctx := context.Background()
	f := seed(t)

	other, err := f.store.GetOrCreateClassroom(ctx, domain.Classroom{ID: "c2", Name: "Classe CM2", JoinCode: "CM2", CreatedAt: day1})
	require.NoError(t, err)
	_, err = f.store.InsertQuestion(ctx, domain.Question{
		ID: "custom", SubjectID: f.subject.ID, Prompt: "?", Options: [4]string{"1", "2", "3", "4"},
		Correct: domain.LetterA, IsCustom: true, ClassroomID: other.ID, CreatedAt: day1.Add(time.Hour),
	})
	require.NoError(t, err)

	all, err := f.store.QuestionsBySubject(ctx, f.subject.ID)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "custom", all[0].ID, "newest first")
	assert.Equal(t, other.ID, all[0].ClassroomID)
	assert.Equal(t, "", all[1].ClassroomID)

	mine, err := f.store.SampleQuestions(ctx, f.classroom.ID, 50)
	require.NoError(t, err)
	assert.Len(t, mine, 3)
	theirs, err := f.store.SampleQuestions(ctx, other.ID, 50)
	require.NoError(t, err)
	assert.Len(t, theirs, 4)
	limited, err := f.store.SampleQuestions(ctx, other.ID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestStartPlaySessionClaimsSlots(t *testing.T) {
	ctx := context.Background()
	f := seed(t)
	today := domain.DayOf(day1)

	for i := 0; i < 2; i++ {
		_, state, err := f.store.StartPlaySession(ctx, domain.PlaySession{
			ID: fmt.Sprintf("ps%d", i), StudentID: f.student.ID, SubjectID: f.subject.ID, TotalQuestions: 3, PlayedAt: day1,
		}, today, 2)
		require.NoError(t, err)
		assert.Equal(t, i+1, state.GamesPlayedToday)
		assert.Equal(t, today, state.LastPlayedDate)
	}

	_, _, err := f.store.StartPlaySession(ctx, domain.PlaySession{ID: "ps-over", StudentID: f.student.ID, SubjectID: f.subject.ID, TotalQuestions: 3, PlayedAt: day1}, today, 2)
	assert.ErrorIs(t, err, domain.ErrDailyLimitReached)
	_, err = f.store.PlaySession(ctx, "ps-over")
	assert.ErrorIs(t, err, domain.ErrPlaySessionNotFound)

	_, state, err := f.store.StartPlaySession(ctx, domain.PlaySession{ID: "ps-next", StudentID: f.student.ID, SubjectID: f.subject.ID, TotalQuestions: 3, PlayedAt: day1.AddDate(0, 0, 1)}, today.Next(), 2)
	require.NoError(t, err)
	assert.Equal(t, 1, state.GamesPlayedToday)

	_, _, err = f.store.StartPlaySession(ctx, domain.PlaySession{ID: "ps-ghost", StudentID: "ghost", SubjectID: f.subject.ID}, today, 2)
	assert.ErrorIs(t, err, domain.ErrStudentNotFound)
}

func TestCompletePlaySessionAddsPointsOnce(t *testing.T) {
	ctx := context.Background()
	f := seed(t)

	_, _, err := f.store.StartPlaySession(ctx, domain.PlaySession{ID: "ps1", StudentID: f.student.ID, SubjectID: f.subject.ID, TotalQuestions: 3, PlayedAt: day1}, domain.DayOf(day1), 2)
	require.NoError(t, err)
	require.NoError(t, f.store.RecordAnswer(ctx, domain.AnswerRecord{ID: "r1", SessionID: "ps1", QuestionID: "q0", Chosen: domain.LetterC, Correct: true, AnsweredAt: day1}))

	ps, st, err := f.store.CompletePlaySession(ctx, "ps1", 14, day1.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, ps.Completed())
	assert.Equal(t, 14, ps.Score)
	assert.Equal(t, 14, st.CumulativeScore)
	assert.Equal(t, 1, st.Level)

	_, _, err = f.store.CompletePlaySession(ctx, "ps1", 14, day1.Add(time.Minute))
	assert.ErrorIs(t, err, domain.ErrSessionCompleted)
	_, _, err = f.store.CompletePlaySession(ctx, "missing", 1, day1)
	assert.ErrorIs(t, err, domain.ErrPlaySessionNotFound)

	after, err := f.store.Student(ctx, f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, 14, after.CumulativeScore)

	answers, err := f.store.Answers(ctx, "ps1")
	require.NoError(t, err)
	assert.Len(t, answers, 1)
}

func TestWeeklyScores(t *testing.T) {
	ctx := context.Background()
	f := seed(t)
	lastWeek := day1.AddDate(0, 0, -7)

	_, _, err := f.store.StartPlaySession(ctx, domain.PlaySession{ID: "old", StudentID: f.student.ID, SubjectID: f.subject.ID, TotalQuestions: 3, PlayedAt: lastWeek}, domain.DayOf(lastWeek), 2)
	require.NoError(t, err)
	_, _, err = f.store.CompletePlaySession(ctx, "old", 3, lastWeek)
	require.NoError(t, err)
	_, _, err = f.store.StartPlaySession(ctx, domain.PlaySession{ID: "new", StudentID: f.student.ID, SubjectID: f.subject.ID, TotalQuestions: 3, PlayedAt: day1}, domain.DayOf(day1), 2)
	require.NoError(t, err)
	_, _, err = f.store.CompletePlaySession(ctx, "new", 2, day1)
	require.NoError(t, err)
	_, _, err = f.store.StartPlaySession(ctx, domain.PlaySession{ID: "open", StudentID: f.student.ID, SubjectID: f.subject.ID, TotalQuestions: 3, PlayedAt: day1}, domain.DayOf(day1), 2)
	require.NoError(t, err)

	scores, err := f.store.WeeklyScores(ctx, f.classroom.ID, domain.StartOfWeek(day1))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{f.student.ID: 2}, scores)
}

func TestDailyChallengeInsertIfAbsent(t *testing.T) {
	ctx := context.Background()
	f := seed(t)
	today := domain.DayOf(day1)

	_, err := f.store.DailyChallenge(ctx, f.classroom.ID, today)
	assert.ErrorIs(t, err, domain.ErrChallengeNotFound)

	first, err := f.store.CreateDailyChallenge(ctx, domain.DailyChallenge{ID: "ch1", ClassroomID: f.classroom.ID, QuestionID: "q0", Date: today, CreatedAt: day1})
	require.NoError(t, err)
	second, err := f.store.CreateDailyChallenge(ctx, domain.DailyChallenge{ID: "ch2", ClassroomID: f.classroom.ID, QuestionID: "q1", Date: today, CreatedAt: day1})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "q0", second.QuestionID)

	ans, st, err := f.store.AnswerChallenge(ctx, domain.ChallengeAnswer{ID: "a1", ChallengeID: "ch1", StudentID: f.student.ID, Chosen: domain.LetterC, Correct: true, AnsweredAt: day1}, 1)
	require.NoError(t, err)
	assert.True(t, ans.Correct)
	assert.Equal(t, 1, st.CumulativeScore)

	_, _, err = f.store.AnswerChallenge(ctx, domain.ChallengeAnswer{ID: "a2", ChallengeID: "ch1", StudentID: f.student.ID, Chosen: domain.LetterA, AnsweredAt: day1}, 0)
	assert.ErrorIs(t, err, domain.ErrChallengeAnswered)

	stored, ok, err := f.store.ChallengeAnswer(ctx, "ch1", f.student.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.LetterC, stored.Chosen)
}

func TestDeleteStudentAndQuestionCascade(t *testing.T) {
	ctx := context.Background()
	f := seed(t)

	_, _, err := f.store.StartPlaySession(ctx, domain.PlaySession{ID: "ps1", StudentID: f.student.ID, SubjectID: f.subject.ID, TotalQuestions: 3, PlayedAt: day1}, domain.DayOf(day1), 2)
	require.NoError(t, err)
	require.NoError(t, f.store.RecordAnswer(ctx, domain.AnswerRecord{ID: "r1", SessionID: "ps1", QuestionID: "q0", Chosen: domain.LetterA, AnsweredAt: day1}))
	_, err = f.store.CreateDailyChallenge(ctx, domain.DailyChallenge{ID: "ch1", ClassroomID: f.classroom.ID, QuestionID: "q0", Date: domain.DayOf(day1), CreatedAt: day1})
	require.NoError(t, err)

	require.NoError(t, f.store.DeleteQuestion(ctx, "q0"))
	_, err = f.store.ChallengeByID(ctx, "ch1")
	assert.ErrorIs(t, err, domain.ErrChallengeNotFound)
	assert.ErrorIs(t, f.store.DeleteQuestion(ctx, "q0"), domain.ErrQuestionNotFound)

	require.NoError(t, f.store.DeleteStudent(ctx, f.student.ID))
	_, err = f.store.PlaySession(ctx, "ps1")
	assert.ErrorIs(t, err, domain.ErrPlaySessionNotFound)
	assert.True(t, errors.Is(f.store.DeleteStudent(ctx, f.student.ID), domain.ErrStudentNotFound))
}

func TestAvatarAndDailyState(t *testing.T) {
	ctx := context.Background()
	f := seed(t)

	st, err := f.store.UpdateAvatar(ctx, f.student.ID, domain.Avatar{Type: domain.AnimalParrot, Color: domain.ColorTurquoise, Name: "Coco"})
	require.NoError(t, err)
	assert.Equal(t, "Coco", st.Avatar.Name)

	state := domain.DailyState{GamesPlayedToday: 1, LastPlayedDate: "2026-03-04", StreakCount: 3, LastStreakDate: "2026-03-04"}
	saved, err := f.store.SaveDailyState(ctx, f.student.ID, st.DailyState, state)
	require.NoError(t, err)
	assert.True(t, saved)
	st, err = f.store.Student(ctx, f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, state, st.DailyState)

	// a write based on a stale read leaves the stored state alone
	stale := domain.DailyState{StreakCount: 1, LastStreakDate: "2026-03-03"}
	saved, err = f.store.SaveDailyState(ctx, f.student.ID, stale, domain.DailyState{StreakCount: 9})
	require.NoError(t, err)
	assert.False(t, saved)
	st, err = f.store.Student(ctx, f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, state, st.DailyState)

	_, err = f.store.SaveDailyState(ctx, "ghost", stale, state)
	assert.ErrorIs(t, err, domain.ErrStudentNotFound)

	_, err = f.store.UpdateAvatar(ctx, "ghost", domain.DefaultAvatar())
	assert.ErrorIs(t, err, domain.ErrStudentNotFound)
}
