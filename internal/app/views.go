package app

import (
	"time"

	"zoo-quiz-service/internal/domain"
	"zoo-quiz-service/internal/progression"
)

// OptionView is one answer choice as shown to a student.
type OptionView struct {
	Letter domain.Letter `json:"letter"`
	Text   string        `json:"text"`
}

// QuestionView hides the correct letter until the answer is revealed.
type QuestionView struct {
	ID      string        `json:"id"`
	Prompt  string        `json:"prompt"`
	Options [4]OptionView `json:"options"`
}

func newQuestionView(q domain.Question) QuestionView {
	v := QuestionView{ID: q.ID, Prompt: q.Prompt}
	for i, l := range domain.Letters {
		v.Options[i] = OptionView{Letter: l, Text: q.Options[i]}
	}
	return v
}

// Award describes the points granted at the end of a quiz or challenge.
type Award struct {
	Points    int                  `json:"points"`
	Before    progression.Progress `json:"before"`
	After     progression.Progress `json:"after"`
	LeveledUp bool                 `json:"leveledUp"`
	NewBadge  *progression.Badge   `json:"newBadge,omitempty"`
}

func newAward(points, newTotal int) Award {
	before := progression.Snapshot(newTotal - points)
	after := progression.Snapshot(newTotal)
	a := Award{
		Points:    points,
		Before:    before,
		After:     after,
		LeveledUp: after.Level > before.Level,
	}
	if b, ok := progression.NewlyEarned(before.CumulativeScore, after.CumulativeScore); ok {
		a.NewBadge = &b
	}
	return a
}

// RunView is what a student sees of a quiz run.
type RunView struct {
	RunID         string         `json:"runId"`
	SessionID     string         `json:"sessionId"`
	Subject       domain.Subject `json:"subject"`
	Phase         RunPhase       `json:"phase"`
	Index         int            `json:"index"`
	Total         int            `json:"total"`
	Score         int            `json:"score"`
	Question      *QuestionView  `json:"question,omitempty"`
	Selected      domain.Letter  `json:"selected,omitempty"`
	Correct       *bool          `json:"correct,omitempty"`
	CorrectLetter domain.Letter  `json:"correctLetter,omitempty"`
	RevealUntil   *time.Time     `json:"revealUntil,omitempty"`
	Ignored       bool           `json:"ignored,omitempty"`
	Cheer         string         `json:"cheer,omitempty"`
	Award         *Award         `json:"award,omitempty"`
}

func newRunView(s RunState, delay time.Duration) RunView {
	v := RunView{
		RunID:     s.ID,
		SessionID: s.SessionID,
		Subject:   s.Subject,
		Phase:     s.Phase,
		Index:     s.Index,
		Total:     len(s.Questions),
		Score:     s.Score,
	}
	switch s.Phase {
	case PhaseInProgress:
		q := newQuestionView(s.Questions[s.Index])
		v.Question = &q
	case PhaseRevealing:
		cur := s.Questions[s.Index]
		q := newQuestionView(cur)
		v.Question = &q
		correct := s.LastCorrect
		v.Selected = s.Selected
		v.Correct = &correct
		v.CorrectLetter = cur.Correct
		until := s.RevealedAt.Add(delay)
		v.RevealUntil = &until
	case PhaseCompleted:
		v.Index = len(s.Questions)
		v.Cheer = Cheer(s.Score)
		v.Award = s.Award
	}
	return v
}

// Cheer returns the end-of-quiz message for a score.
func Cheer(score int) string {
	switch {
	case score >= 8:
		return "🎉 Bravo !"
	case score >= 5:
		return "👍 Bien joué !"
	default:
		return "💪 Continue !"
	}
}

// ChallengeView is the daily challenge as shown to a student.
type ChallengeView struct {
	ChallengeID   string          `json:"challengeId"`
	Date          domain.Day      `json:"date"`
	Subject       *domain.Subject `json:"subject,omitempty"`
	Question      QuestionView    `json:"question"`
	Answered      bool            `json:"answered"`
	Selected      domain.Letter   `json:"selected,omitempty"`
	Correct       *bool           `json:"correct,omitempty"`
	CorrectLetter domain.Letter   `json:"correctLetter,omitempty"`
	Award         *Award          `json:"award,omitempty"`
}
