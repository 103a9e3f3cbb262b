package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"zoo-quiz-service/internal/domain"
	"zoo-quiz-service/internal/progression"
)

// Store implements app.Store on a bun database.
type Store struct {
	db *bun.DB
}

func New(db *bun.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for migrations and health checks.
func (s *Store) DB() *bun.DB {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// notFound maps sql.ErrNoRows to the given domain error.
func notFound(err error, target error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return target
	}
	return err
}

func rowsAffected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}

// classrooms

func (s *Store) GetOrCreateClassroom(ctx context.Context, c domain.Classroom) (domain.Classroom, error) {
	if _, err := s.db.NewInsert().Model(newClassroomRow(c)).On("CONFLICT (join_code) DO NOTHING").Exec(ctx); err != nil {
		return domain.Classroom{}, fmt.Errorf("insert classroom: %w", err)
	}
	return s.ClassroomByCode(ctx, c.JoinCode)
}

func (s *Store) Classroom(ctx context.Context, id string) (domain.Classroom, error) {
	var row classroomRow
	if err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		return domain.Classroom{}, notFound(err, domain.ErrClassroomNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) ClassroomByCode(ctx context.Context, code string) (domain.Classroom, error) {
	var row classroomRow
	if err := s.db.NewSelect().Model(&row).Where("join_code = ?", code).Scan(ctx); err != nil {
		return domain.Classroom{}, notFound(err, domain.ErrClassroomNotFound)
	}
	return row.toDomain(), nil
}

// students

func (s *Store) GetOrCreateStudent(ctx context.Context, st domain.Student) (domain.Student, error) {
	if _, err := s.db.NewInsert().Model(newStudentRow(st)).On("CONFLICT (classroom_id, name) DO NOTHING").Exec(ctx); err != nil {
		return domain.Student{}, fmt.Errorf("insert student: %w", err)
	}
	var row studentRow
	err := s.db.NewSelect().Model(&row).
		Where("classroom_id = ?", st.ClassroomID).
		Where("name = ?", st.Name).
		Scan(ctx)
	if err != nil {
		return domain.Student{}, notFound(err, domain.ErrStudentNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) InsertStudent(ctx context.Context, st domain.Student) (domain.Student, error) {
	res, err := s.db.NewInsert().Model(newStudentRow(st)).On("CONFLICT (classroom_id, name) DO NOTHING").Exec(ctx)
	if err != nil {
		return domain.Student{}, fmt.Errorf("insert student: %w", err)
	}
	if rowsAffected(res) == 0 {
		return domain.Student{}, domain.ErrStudentExists
	}
	return s.Student(ctx, st.ID)
}

func (s *Store) Student(ctx context.Context, id string) (domain.Student, error) {
	return studentByID(ctx, s.db, id)
}

func studentByID(ctx context.Context, db bun.IDB, id string) (domain.Student, error) {
	var row studentRow
	if err := db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		return domain.Student{}, notFound(err, domain.ErrStudentNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) StudentsByClassroom(ctx context.Context, classroomID string) ([]domain.Student, error) {
	var rows []studentRow
	err := s.db.NewSelect().Model(&rows).
		Where("classroom_id = ?", classroomID).
		Order("level DESC", "name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	out := make([]domain.Student, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) UpdateAvatar(ctx context.Context, id string, avatar domain.Avatar) (domain.Student, error) {
	res, err := s.db.NewUpdate().Model((*studentRow)(nil)).
		Set("animal_type = ?", string(avatar.Type)).
		Set("animal_color = ?", string(avatar.Color)).
		Set("animal_name = ?", avatar.Name).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return domain.Student{}, fmt.Errorf("update avatar: %w", err)
	}
	if rowsAffected(res) == 0 {
		return domain.Student{}, domain.ErrStudentNotFound
	}
	return s.Student(ctx, id)
}

func (s *Store) SaveDailyState(ctx context.Context, id string, prev, next domain.DailyState) (bool, error) {
	res, err := s.db.NewUpdate().Model((*studentRow)(nil)).
		Set("games_played_today = ?", next.GamesPlayedToday).
		Set("last_played_date = ?", string(next.LastPlayedDate)).
		Set("streak_count = ?", next.StreakCount).
		Set("last_streak_date = ?", string(next.LastStreakDate)).
		Where("id = ?", id).
		Where("games_played_today = ?", prev.GamesPlayedToday).
		Where("last_played_date = ?", string(prev.LastPlayedDate)).
		Where("streak_count = ?", prev.StreakCount).
		Where("last_streak_date = ?", string(prev.LastStreakDate)).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("save daily state: %w", err)
	}
	if rowsAffected(res) == 0 {
		if _, err := s.Student(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (s *Store) DeleteStudent(ctx context.Context, id string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		sessions := tx.NewSelect().Model((*playSessionRow)(nil)).Column("id").Where("student_id = ?", id)
		if _, err := tx.NewDelete().Model((*answerRecordRow)(nil)).Where("session_id IN (?)", sessions).Exec(ctx); err != nil {
			return fmt.Errorf("delete answers: %w", err)
		}
		if _, err := tx.NewDelete().Model((*playSessionRow)(nil)).Where("student_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete sessions: %w", err)
		}
		if _, err := tx.NewDelete().Model((*challengeAnswerRow)(nil)).Where("student_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete challenge answers: %w", err)
		}
		res, err := tx.NewDelete().Model((*studentRow)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete student: %w", err)
		}
		if rowsAffected(res) == 0 {
			return domain.ErrStudentNotFound
		}
		return nil
	})
}

// addPoints adds to the cumulative score and recomputes the level from the new total.
func addPoints(ctx context.Context, tx bun.Tx, studentID string, points int) error {
	res, err := tx.NewUpdate().Model((*studentRow)(nil)).
		Set("cumulative_score = cumulative_score + ?", points).
		Set("level = (cumulative_score + ?) / ?", points, progression.PointsPerLevel).
		Where("id = ?", studentID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("add points: %w", err)
	}
	if rowsAffected(res) == 0 {
		return domain.ErrStudentNotFound
	}
	return nil
}

// catalog

func (s *Store) Subjects(ctx context.Context) ([]domain.Subject, error) {
	var rows []subjectRow
	if err := s.db.NewSelect().Model(&rows).Order("name ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	out := make([]domain.Subject, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) Subject(ctx context.Context, id string) (domain.Subject, error) {
	var row subjectRow
	if err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		return domain.Subject{}, notFound(err, domain.ErrSubjectNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) SubjectBySlug(ctx context.Context, slug string) (domain.Subject, error) {
	var row subjectRow
	if err := s.db.NewSelect().Model(&row).Where("slug = ?", slug).Scan(ctx); err != nil {
		return domain.Subject{}, notFound(err, domain.ErrSubjectNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) UpsertSubject(ctx context.Context, subj domain.Subject) (domain.Subject, error) {
	row := &subjectRow{ID: subj.ID, Name: subj.Name, Emoji: subj.Emoji, Slug: subj.Slug}
	_, err := s.db.NewInsert().Model(row).
		On("CONFLICT (slug) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("emoji = EXCLUDED.emoji").
		Exec(ctx)
	if err != nil {
		return domain.Subject{}, fmt.Errorf("upsert subject: %w", err)
	}
	return s.SubjectBySlug(ctx, subj.Slug)
}

func (s *Store) Question(ctx context.Context, id string) (domain.Question, error) {
	var row questionRow
	if err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		return domain.Question{}, notFound(err, domain.ErrQuestionNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) QuestionsBySubject(ctx context.Context, subjectID string) ([]domain.Question, error) {
	var rows []questionRow
	err := s.db.NewSelect().Model(&rows).
		Where("subject_id = ?", subjectID).
		Order("created_at DESC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questionsToDomain(rows), nil
}

func (s *Store) SampleQuestions(ctx context.Context, classroomID string, limit int) ([]domain.Question, error) {
	var rows []questionRow
	q := s.db.NewSelect().Model(&rows).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("is_custom = ?", false).WhereOr("classroom_id = ?", classroomID)
		}).
		OrderExpr("RANDOM()")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("sample questions: %w", err)
	}
	return questionsToDomain(rows), nil
}

func questionsToDomain(rows []questionRow) []domain.Question {
	out := make([]domain.Question, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}

func (s *Store) InsertQuestion(ctx context.Context, q domain.Question) (domain.Question, error) {
	if _, err := s.Subject(ctx, q.SubjectID); err != nil {
		return domain.Question{}, err
	}
	if _, err := s.db.NewInsert().Model(newQuestionRow(q)).Exec(ctx); err != nil {
		return domain.Question{}, fmt.Errorf("insert question: %w", err)
	}
	return s.Question(ctx, q.ID)
}

func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		challenges := tx.NewSelect().Model((*dailyChallengeRow)(nil)).Column("id").Where("question_id = ?", id)
		if _, err := tx.NewDelete().Model((*challengeAnswerRow)(nil)).Where("challenge_id IN (?)", challenges).Exec(ctx); err != nil {
			return fmt.Errorf("delete challenge answers: %w", err)
		}
		if _, err := tx.NewDelete().Model((*dailyChallengeRow)(nil)).Where("question_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete challenges: %w", err)
		}
		res, err := tx.NewDelete().Model((*questionRow)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete question: %w", err)
		}
		if rowsAffected(res) == 0 {
			return domain.ErrQuestionNotFound
		}
		return nil
	})
}

// play sessions

func (s *Store) StartPlaySession(ctx context.Context, ps domain.PlaySession, today domain.Day, limit int) (domain.PlaySession, domain.DailyState, error) {
	var state domain.DailyState
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		day := string(today)
		res, err := tx.NewUpdate().Model((*studentRow)(nil)).
			Set("games_played_today = CASE WHEN last_played_date = ? THEN games_played_today + 1 ELSE 1 END", day).
			Set("last_played_date = ?", day).
			Where("id = ?", ps.StudentID).
			WhereGroup(" AND ", func(q *bun.UpdateQuery) *bun.UpdateQuery {
				return q.Where("last_played_date <> ?", day).WhereOr("games_played_today < ?", limit)
			}).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("claim game slot: %w", err)
		}
		if rowsAffected(res) == 0 {
			if _, err := studentByID(ctx, tx, ps.StudentID); err != nil {
				return err
			}
			return domain.ErrDailyLimitReached
		}

		row := &playSessionRow{
			ID:             ps.ID,
			StudentID:      ps.StudentID,
			SubjectID:      ps.SubjectID,
			TotalQuestions: ps.TotalQuestions,
			PlayedAt:       ps.PlayedAt.UTC(),
		}
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return fmt.Errorf("insert play session: %w", err)
		}

		student, err := studentByID(ctx, tx, ps.StudentID)
		if err != nil {
			return err
		}
		state = student.DailyState
		return nil
	})
	if err != nil {
		return domain.PlaySession{}, domain.DailyState{}, err
	}
	ps.Score = 0
	ps.CompletedAt = nil
	return ps, state, nil
}

func (s *Store) RecordAnswer(ctx context.Context, rec domain.AnswerRecord) error {
	row := &answerRecordRow{
		ID:         rec.ID,
		SessionID:  rec.SessionID,
		QuestionID: rec.QuestionID,
		Chosen:     string(rec.Chosen),
		Correct:    rec.Correct,
		AnsweredAt: rec.AnsweredAt.UTC(),
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert answer: %w", err)
	}
	return nil
}

// Answers returns the answer log of a session, oldest first.
func (s *Store) Answers(ctx context.Context, sessionID string) ([]domain.AnswerRecord, error) {
	var rows []answerRecordRow
	if err := s.db.NewSelect().Model(&rows).Where("session_id = ?", sessionID).Order("answered_at ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	out := make([]domain.AnswerRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.AnswerRecord{
			ID:         r.ID,
			SessionID:  r.SessionID,
			QuestionID: r.QuestionID,
			Chosen:     domain.Letter(r.Chosen),
			Correct:    r.Correct,
			AnsweredAt: r.AnsweredAt.UTC(),
		})
	}
	return out, nil
}

func (s *Store) CompletePlaySession(ctx context.Context, sessionID string, score int, at time.Time) (domain.PlaySession, domain.Student, error) {
	var (
		ps      domain.PlaySession
		student domain.Student
	)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().Model((*playSessionRow)(nil)).
			Set("score = ?", score).
			Set("completed_at = ?", at.UTC()).
			Where("id = ?", sessionID).
			Where("completed_at IS NULL").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("complete play session: %w", err)
		}

		var row playSessionRow
		if err := tx.NewSelect().Model(&row).Where("id = ?", sessionID).Scan(ctx); err != nil {
			return notFound(err, domain.ErrPlaySessionNotFound)
		}
		if rowsAffected(res) == 0 {
			return domain.ErrSessionCompleted
		}
		ps = row.toDomain()

		if err := addPoints(ctx, tx, row.StudentID, score); err != nil {
			return err
		}
		student, err = studentByID(ctx, tx, row.StudentID)
		return err
	})
	if err != nil {
		return domain.PlaySession{}, domain.Student{}, err
	}
	return ps, student, nil
}

func (s *Store) PlaySession(ctx context.Context, id string) (domain.PlaySession, error) {
	var row playSessionRow
	if err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		return domain.PlaySession{}, notFound(err, domain.ErrPlaySessionNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) PlaySessionsByStudent(ctx context.Context, studentID string) ([]domain.PlaySession, error) {
	var rows []playSessionRow
	if err := s.db.NewSelect().Model(&rows).Where("student_id = ?", studentID).Order("played_at DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list play sessions: %w", err)
	}
	out := make([]domain.PlaySession, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) WeeklyScores(ctx context.Context, classroomID string, since time.Time) (map[string]int, error) {
	var rows []struct {
		StudentID string `bun:"student_id"`
		Total     int    `bun:"total"`
	}
	err := s.db.NewSelect().
		TableExpr("play_sessions AS ps").
		Join("JOIN students AS st ON st.id = ps.student_id").
		ColumnExpr("ps.student_id AS student_id").
		ColumnExpr("SUM(ps.score) AS total").
		Where("st.classroom_id = ?", classroomID).
		Where("ps.completed_at IS NOT NULL").
		Where("ps.played_at >= ?", since.UTC()).
		GroupExpr("ps.student_id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("weekly scores: %w", err)
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.StudentID] = r.Total
	}
	return out, nil
}

// daily challenges

func (s *Store) DailyChallenge(ctx context.Context, classroomID string, day domain.Day) (domain.DailyChallenge, error) {
	return challengeForDay(ctx, s.db, classroomID, day)
}

func challengeForDay(ctx context.Context, db bun.IDB, classroomID string, day domain.Day) (domain.DailyChallenge, error) {
	var row dailyChallengeRow
	err := db.NewSelect().Model(&row).
		Where("classroom_id = ?", classroomID).
		Where("challenge_date = ?", string(day)).
		Scan(ctx)
	if err != nil {
		return domain.DailyChallenge{}, notFound(err, domain.ErrChallengeNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) CreateDailyChallenge(ctx context.Context, c domain.DailyChallenge) (domain.DailyChallenge, error) {
	row := &dailyChallengeRow{
		ID:            c.ID,
		ClassroomID:   c.ClassroomID,
		QuestionID:    c.QuestionID,
		ChallengeDate: string(c.Date),
		CreatedAt:     c.CreatedAt.UTC(),
	}
	if _, err := s.db.NewInsert().Model(row).On("CONFLICT (classroom_id, challenge_date) DO NOTHING").Exec(ctx); err != nil {
		return domain.DailyChallenge{}, fmt.Errorf("insert daily challenge: %w", err)
	}
	return challengeForDay(ctx, s.db, c.ClassroomID, c.Date)
}

func (s *Store) ChallengeByID(ctx context.Context, id string) (domain.DailyChallenge, error) {
	var row dailyChallengeRow
	if err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		return domain.DailyChallenge{}, notFound(err, domain.ErrChallengeNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) ChallengeAnswer(ctx context.Context, challengeID, studentID string) (domain.ChallengeAnswer, bool, error) {
	var row challengeAnswerRow
	err := s.db.NewSelect().Model(&row).
		Where("challenge_id = ?", challengeID).
		Where("student_id = ?", studentID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ChallengeAnswer{}, false, nil
	}
	if err != nil {
		return domain.ChallengeAnswer{}, false, fmt.Errorf("load challenge answer: %w", err)
	}
	return row.toDomain(), true, nil
}

func (s *Store) AnswerChallenge(ctx context.Context, ans domain.ChallengeAnswer, points int) (domain.ChallengeAnswer, domain.Student, error) {
	var student domain.Student
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := &challengeAnswerRow{
			ID:          ans.ID,
			ChallengeID: ans.ChallengeID,
			StudentID:   ans.StudentID,
			Chosen:      string(ans.Chosen),
			Correct:     ans.Correct,
			AnsweredAt:  ans.AnsweredAt.UTC(),
		}
		res, err := tx.NewInsert().Model(row).On("CONFLICT (challenge_id, student_id) DO NOTHING").Exec(ctx)
		if err != nil {
			return fmt.Errorf("insert challenge answer: %w", err)
		}
		if rowsAffected(res) == 0 {
			return domain.ErrChallengeAnswered
		}
		if points > 0 {
			if err := addPoints(ctx, tx, ans.StudentID, points); err != nil {
				return err
			}
		}
		student, err = studentByID(ctx, tx, ans.StudentID)
		return err
	})
	if err != nil {
		return domain.ChallengeAnswer{}, domain.Student{}, err
	}
	return ans, student, nil
}
