package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zoo-quiz-service/internal/domain"
	"zoo-quiz-service/internal/infra/memory"
)

func TestDefaultBankIsValid(t *testing.T) {
	bank, err := Parse(DefaultBank())
	require.NoError(t, err)
	require.NotEmpty(t, bank.Subjects)

	for _, s := range bank.Subjects {
		assert.NotEmpty(t, s.Questions, s.Slug)
		for _, q := range s.Questions {
			assert.True(t, q.Correct.Valid(), q.Prompt)
			for _, opt := range q.Options {
				assert.NotEmpty(t, opt, q.Prompt)
			}
		}
	}
}

func TestParseRejectsInvalidBanks(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{"subjects": [`},
		{"no subjects", `{"subjects": []}`},
		{"bad slug", `{"subjects": [{"slug": "Maths Avancées", "name": "M", "emoji": "🔢", "questions": []}]}`},
		{"three options", `{"subjects": [{"slug": "m", "name": "M", "emoji": "🔢", "questions": [
			{"prompt": "1+1", "options": ["1", "2", "3"], "correct": "b"}]}]}`},
		{"bad letter", `{"subjects": [{"slug": "m", "name": "M", "emoji": "🔢", "questions": [
			{"prompt": "1+1", "options": ["1", "2", "3", "4"], "correct": "e"}]}]}`},
		{"unknown field", `{"subjects": [], "extra": true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestImportIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	imp := NewImporter(store)

	first, err := imp.ImportJSON(ctx, DefaultBank())
	require.NoError(t, err)
	assert.Equal(t, 4, first.Subjects)
	assert.Positive(t, first.Questions)
	assert.Zero(t, first.Skipped)

	second, err := imp.ImportJSON(ctx, DefaultBank())
	require.NoError(t, err)
	assert.Zero(t, second.Questions)
	assert.Equal(t, first.Questions, second.Skipped)

	subjects, err := store.Subjects(ctx)
	require.NoError(t, err)
	assert.Len(t, subjects, 4)

	maths, err := store.SubjectBySlug(ctx, "maths")
	require.NoError(t, err)
	qs, err := store.QuestionsBySubject(ctx, maths.ID)
	require.NoError(t, err)
	for _, q := range qs {
		assert.False(t, q.IsCustom)
		assert.Equal(t, maths.ID, q.SubjectID)
	}
}

func TestImportKeepsCustomQuestionsSeparate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	imp := NewImporter(store)

	raw := []byte(`{"subjects": [{"slug": "maths", "name": "Maths", "emoji": "🔢", "questions": [
		{"prompt": "Combien font 2 + 2 ?", "options": ["3", "4", "5", "6"], "correct": "b"}]}]}`)
	_, err := imp.ImportJSON(ctx, raw)
	require.NoError(t, err)

	maths, err := store.SubjectBySlug(ctx, "maths")
	require.NoError(t, err)
	_, err = store.InsertQuestion(ctx, domain.Question{
		ID: "custom-1", SubjectID: maths.ID, Prompt: "Combien font 3 + 3 ?",
		Options: [4]string{"5", "6", "7", "8"}, Correct: domain.LetterB,
		IsCustom: true, ClassroomID: "class-1",
	})
	require.NoError(t, err)

	raw = []byte(`{"subjects": [{"slug": "maths", "name": "Mathématiques", "emoji": "🔢", "questions": [
		{"prompt": "combien  font 2 + 2 ?", "options": ["3", "4", "5", "6"], "correct": "b"},
		{"prompt": "Combien font 3 + 3 ?", "options": ["5", "6", "7", "8"], "correct": "b"}]}]}`)
	res, err := imp.ImportJSON(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Questions)
	assert.Equal(t, 1, res.Skipped)

	renamed, err := store.SubjectBySlug(ctx, "maths")
	require.NoError(t, err)
	assert.Equal(t, "Mathématiques", renamed.Name)
	assert.Equal(t, maths.ID, renamed.ID)
}
