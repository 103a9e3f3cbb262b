package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"zoo-quiz-service/internal/domain"
)

// QuestionLoader reads a subject's questions straight from Postgres to fill the question cache.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

const questionsBySubjectSQL = `
SELECT id, subject_id, prompt, option_a, option_b, option_c, option_d,
       correct, is_custom, classroom_id, created_at
FROM questions
WHERE subject_id = $1
ORDER BY created_at DESC, id ASC`

func (l *QuestionLoader) QuestionsBySubject(ctx context.Context, subjectID string) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, questionsBySubjectSQL, subjectID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		var (
			q           domain.Question
			correct     string
			classroomID *string
			createdAt   time.Time
		)
		if err := rows.Scan(&q.ID, &q.SubjectID, &q.Prompt,
			&q.Options[0], &q.Options[1], &q.Options[2], &q.Options[3],
			&correct, &q.IsCustom, &classroomID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Correct = domain.Letter(correct)
		if classroomID != nil {
			q.ClassroomID = *classroomID
		}
		q.CreatedAt = createdAt.UTC()
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return out, nil
}
