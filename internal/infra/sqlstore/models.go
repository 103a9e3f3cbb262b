package sqlstore

import (
	"time"

	"github.com/uptrace/bun"

	"zoo-quiz-service/internal/domain"
)

type classroomRow struct {
	bun.BaseModel `bun:"table:classrooms,alias:c"`

	ID        string    `bun:"id,pk"`
	Name      string    `bun:"name,notnull"`
	JoinCode  string    `bun:"join_code,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

func (r classroomRow) toDomain() domain.Classroom {
	return domain.Classroom{ID: r.ID, Name: r.Name, JoinCode: r.JoinCode, CreatedAt: r.CreatedAt.UTC()}
}

func newClassroomRow(c domain.Classroom) *classroomRow {
	return &classroomRow{ID: c.ID, Name: c.Name, JoinCode: c.JoinCode, CreatedAt: c.CreatedAt.UTC()}
}

type studentRow struct {
	bun.BaseModel `bun:"table:students,alias:st"`

	ID               string    `bun:"id,pk"`
	ClassroomID      string    `bun:"classroom_id,notnull"`
	Name             string    `bun:"name,notnull"`
	AnimalType       string    `bun:"animal_type,notnull"`
	AnimalColor      string    `bun:"animal_color,notnull"`
	AnimalName       string    `bun:"animal_name,notnull"`
	CumulativeScore  int       `bun:"cumulative_score,notnull"`
	Level            int       `bun:"level,notnull"`
	GamesPlayedToday int       `bun:"games_played_today,notnull"`
	LastPlayedDate   string    `bun:"last_played_date,notnull"`
	StreakCount      int       `bun:"streak_count,notnull"`
	LastStreakDate   string    `bun:"last_streak_date,notnull"`
	CreatedAt        time.Time `bun:"created_at,notnull"`
}

func (r studentRow) toDomain() domain.Student {
	return domain.Student{
		ID:          r.ID,
		ClassroomID: r.ClassroomID,
		Name:        r.Name,
		Avatar: domain.Avatar{
			Type:  domain.AnimalType(r.AnimalType),
			Color: domain.AnimalColor(r.AnimalColor),
			Name:  r.AnimalName,
		},
		CumulativeScore: r.CumulativeScore,
		Level:           r.Level,
		CreatedAt:       r.CreatedAt.UTC(),
		DailyState: domain.DailyState{
			GamesPlayedToday: r.GamesPlayedToday,
			LastPlayedDate:   domain.Day(r.LastPlayedDate),
			StreakCount:      r.StreakCount,
			LastStreakDate:   domain.Day(r.LastStreakDate),
		},
	}
}

func newStudentRow(s domain.Student) *studentRow {
	return &studentRow{
		ID:               s.ID,
		ClassroomID:      s.ClassroomID,
		Name:             s.Name,
		AnimalType:       string(s.Avatar.Type),
		AnimalColor:      string(s.Avatar.Color),
		AnimalName:       s.Avatar.Name,
		CumulativeScore:  s.CumulativeScore,
		Level:            s.Level,
		GamesPlayedToday: s.GamesPlayedToday,
		LastPlayedDate:   string(s.LastPlayedDate),
		StreakCount:      s.StreakCount,
		LastStreakDate:   string(s.LastStreakDate),
		CreatedAt:        s.CreatedAt.UTC(),
	}
}

type subjectRow struct {
	bun.BaseModel `bun:"table:subjects,alias:sj"`

	ID    string `bun:"id,pk"`
	Name  string `bun:"name,notnull"`
	Emoji string `bun:"emoji,notnull"`
	Slug  string `bun:"slug,notnull"`
}

func (r subjectRow) toDomain() domain.Subject {
	return domain.Subject{ID: r.ID, Name: r.Name, Emoji: r.Emoji, Slug: r.Slug}
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID          string    `bun:"id,pk"`
	SubjectID   string    `bun:"subject_id,notnull"`
	Prompt      string    `bun:"prompt,notnull"`
	OptionA     string    `bun:"option_a,notnull"`
	OptionB     string    `bun:"option_b,notnull"`
	OptionC     string    `bun:"option_c,notnull"`
	OptionD     string    `bun:"option_d,notnull"`
	Correct     string    `bun:"correct,notnull"`
	IsCustom    bool      `bun:"is_custom,notnull"`
	ClassroomID string    `bun:"classroom_id,nullzero"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

func (r questionRow) toDomain() domain.Question {
	return domain.Question{
		ID:          r.ID,
		SubjectID:   r.SubjectID,
		Prompt:      r.Prompt,
		Options:     [4]string{r.OptionA, r.OptionB, r.OptionC, r.OptionD},
		Correct:     domain.Letter(r.Correct),
		IsCustom:    r.IsCustom,
		ClassroomID: r.ClassroomID,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

func newQuestionRow(q domain.Question) *questionRow {
	return &questionRow{
		ID:          q.ID,
		SubjectID:   q.SubjectID,
		Prompt:      q.Prompt,
		OptionA:     q.Options[0],
		OptionB:     q.Options[1],
		OptionC:     q.Options[2],
		OptionD:     q.Options[3],
		Correct:     string(q.Correct),
		IsCustom:    q.IsCustom,
		ClassroomID: q.ClassroomID,
		CreatedAt:   q.CreatedAt.UTC(),
	}
}

type playSessionRow struct {
	bun.BaseModel `bun:"table:play_sessions,alias:ps"`

	ID             string     `bun:"id,pk"`
	StudentID      string     `bun:"student_id,notnull"`
	SubjectID      string     `bun:"subject_id,notnull"`
	Score          int        `bun:"score,notnull"`
	TotalQuestions int        `bun:"total_questions,notnull"`
	PlayedAt       time.Time  `bun:"played_at,notnull"`
	CompletedAt    *time.Time `bun:"completed_at"`
}

func (r playSessionRow) toDomain() domain.PlaySession {
	ps := domain.PlaySession{
		ID:             r.ID,
		StudentID:      r.StudentID,
		SubjectID:      r.SubjectID,
		Score:          r.Score,
		TotalQuestions: r.TotalQuestions,
		PlayedAt:       r.PlayedAt.UTC(),
	}
	if r.CompletedAt != nil {
		at := r.CompletedAt.UTC()
		ps.CompletedAt = &at
	}
	return ps
}

type answerRecordRow struct {
	bun.BaseModel `bun:"table:answer_records,alias:ar"`

	ID         string    `bun:"id,pk"`
	SessionID  string    `bun:"session_id,notnull"`
	QuestionID string    `bun:"question_id,notnull"`
	Chosen     string    `bun:"chosen,notnull"`
	Correct    bool      `bun:"correct,notnull"`
	AnsweredAt time.Time `bun:"answered_at,notnull"`
}

type dailyChallengeRow struct {
	bun.BaseModel `bun:"table:daily_challenges,alias:dc"`

	ID            string    `bun:"id,pk"`
	ClassroomID   string    `bun:"classroom_id,notnull"`
	QuestionID    string    `bun:"question_id,notnull"`
	ChallengeDate string    `bun:"challenge_date,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

func (r dailyChallengeRow) toDomain() domain.DailyChallenge {
	return domain.DailyChallenge{
		ID:          r.ID,
		ClassroomID: r.ClassroomID,
		QuestionID:  r.QuestionID,
		Date:        domain.Day(r.ChallengeDate),
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

type challengeAnswerRow struct {
	bun.BaseModel `bun:"table:challenge_answers,alias:ca"`

	ID          string    `bun:"id,pk"`
	ChallengeID string    `bun:"challenge_id,notnull"`
	StudentID   string    `bun:"student_id,notnull"`
	Chosen      string    `bun:"chosen,notnull"`
	Correct     bool      `bun:"correct,notnull"`
	AnsweredAt  time.Time `bun:"answered_at,notnull"`
}

func (r challengeAnswerRow) toDomain() domain.ChallengeAnswer {
	return domain.ChallengeAnswer{
		ID:          r.ID,
		ChallengeID: r.ChallengeID,
		StudentID:   r.StudentID,
		Chosen:      domain.Letter(r.Chosen),
		Correct:     r.Correct,
		AnsweredAt:  r.AnsweredAt.UTC(),
	}
}
