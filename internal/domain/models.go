package domain

import (
	"strings"
	"time"

	"zoo-quiz-service/internal/progression"
)

// Letter identifies one of the four answer slots of a question.
type Letter string

const (
	LetterA Letter = "a"
	LetterB Letter = "b"
	LetterC Letter = "c"
	LetterD Letter = "d"
)

// Letters lists the answer slots in display order.
var Letters = [4]Letter{LetterA, LetterB, LetterC, LetterD}

// ParseLetter normalises user input ("B", " c ") into a Letter.
func ParseLetter(raw string) (Letter, error) {
	l := Letter(strings.ToLower(strings.TrimSpace(raw)))
	if !l.Valid() {
		return "", ErrInvalidLetter
	}
	return l, nil
}

// Valid reports whether l is one of the four slots.
func (l Letter) Valid() bool {
	return l.Index() >= 0
}

// Index returns the option slot for l, or -1.
func (l Letter) Index() int {
	for i, candidate := range Letters {
		if candidate == l {
			return i
		}
	}
	return -1
}

// Classroom groups students under a unique join code.
type Classroom struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	JoinCode  string    `json:"joinCode"`
	CreatedAt time.Time `json:"createdAt"`
}

// NormalizeJoinCode trims and upper-cases a join code.
func NormalizeJoinCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// DefaultClassroomName is the name given to a classroom created on first join.
func DefaultClassroomName(code string) string {
	return "Classe " + NormalizeJoinCode(code)
}

// DailyState tracks the daily game counter and the login streak.
type DailyState struct {
	GamesPlayedToday int `json:"gamesPlayedToday"`
	LastPlayedDate   Day `json:"lastPlayedDate"`
	StreakCount      int `json:"streakCount"`
	LastStreakDate   Day `json:"lastStreakDate"`
}

// Student is a classroom member with an avatar and cumulative progression.
type Student struct {
	ID              string    `json:"id"`
	ClassroomID     string    `json:"classroomId"`
	Name            string    `json:"name"`
	Avatar          Avatar    `json:"avatar"`
	CumulativeScore int       `json:"cumulativeScore"`
	Level           int       `json:"level"`
	CreatedAt       time.Time `json:"createdAt"`
	DailyState
}

// AddPoints adds to the cumulative score and recomputes the level from the new total.
func (s *Student) AddPoints(points int) {
	s.CumulativeScore += points
	s.Level = progression.Level(s.CumulativeScore)
}

// Subject is a quiz topic.
type Subject struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
	Slug  string `json:"slug"`
}

// Question is a four-option multiple-choice question.
type Question struct {
	ID          string    `json:"id"`
	SubjectID   string    `json:"subjectId"`
	Prompt      string    `json:"prompt"`
	Options     [4]string `json:"options"`
	Correct     Letter    `json:"correct"`
	IsCustom    bool      `json:"isCustom"`
	ClassroomID string    `json:"classroomId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// VisibleTo reports whether a classroom may be asked this question.
func (q Question) VisibleTo(classroomID string) bool {
	return !q.IsCustom || q.ClassroomID == classroomID
}

// IsCorrect reports whether the chosen letter matches the designated answer.
func (q Question) IsCorrect(chosen Letter) bool {
	return chosen == q.Correct
}

// PlaySession is one play-through of a subject quiz.
type PlaySession struct {
	ID             string     `json:"id"`
	StudentID      string     `json:"studentId"`
	SubjectID      string     `json:"subjectId"`
	Score          int        `json:"score"`
	TotalQuestions int        `json:"totalQuestions"`
	PlayedAt       time.Time  `json:"playedAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// Completed reports whether the session score was finalized.
func (p PlaySession) Completed() bool {
	return p.CompletedAt != nil
}

// AnswerRecord is the append-only log of one answered quiz question.
type AnswerRecord struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"sessionId"`
	QuestionID string    `json:"questionId"`
	Chosen     Letter    `json:"chosen"`
	Correct    bool      `json:"correct"`
	AnsweredAt time.Time `json:"answeredAt"`
}

// DailyChallenge is the single shared question of a classroom for a day.
type DailyChallenge struct {
	ID          string    `json:"id"`
	ClassroomID string    `json:"classroomId"`
	QuestionID  string    `json:"questionId"`
	Date        Day       `json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ChallengeAnswer is a student's only answer to a daily challenge.
type ChallengeAnswer struct {
	ID          string    `json:"id"`
	ChallengeID string    `json:"challengeId"`
	StudentID   string    `json:"studentId"`
	Chosen      Letter    `json:"chosen"`
	Correct     bool      `json:"correct"`
	AnsweredAt  time.Time `json:"answeredAt"`
}

// LeaderboardMode selects how a classroom board is ordered.
type LeaderboardMode string

const (
	ModeTotal  LeaderboardMode = "total"
	ModeWeekly LeaderboardMode = "weekly"
	ModeName   LeaderboardMode = "name"
)

// ParseLeaderboardMode defaults to total for empty or unknown input.
func ParseLeaderboardMode(raw string) LeaderboardMode {
	switch LeaderboardMode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeWeekly:
		return ModeWeekly
	case ModeName:
		return ModeName
	default:
		return ModeTotal
	}
}

// LeaderboardEntry is a snapshot-friendly view of a student.
type LeaderboardEntry struct {
	Rank            int               `json:"rank,omitempty"` // 0 in name mode
	StudentID       string            `json:"studentId"`
	Name            string            `json:"name"`
	Avatar          Avatar            `json:"avatar"`
	Level           int               `json:"level"`
	CumulativeScore int               `json:"cumulativeScore"`
	WeeklyScore     int               `json:"weeklyScore"`
	Medal           progression.Medal `json:"medal"`
}

// Leaderboard captures the ordered scoreboard of a classroom.
type Leaderboard struct {
	ClassroomID string             `json:"classroomId"`
	Mode        LeaderboardMode    `json:"mode"`
	Entries     []LeaderboardEntry `json:"entries"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// EventKind names a progression event published to other systems.
type EventKind string

const (
	EventSessionCompleted  EventKind = "session.completed"
	EventChallengeAnswered EventKind = "challenge.answered"
	EventLevelUp           EventKind = "student.level_up"
	EventBadgeEarned       EventKind = "student.badge_earned"
)

// ProgressEvent is published after a student's score changes.
type ProgressEvent struct {
	Kind            EventKind         `json:"kind"`
	StudentID       string            `json:"studentId"`
	ClassroomID     string            `json:"classroomId"`
	Points          int               `json:"points"`
	CumulativeScore int               `json:"cumulativeScore"`
	Level           int               `json:"level"`
	Medal           progression.Medal `json:"medal"`
	BadgeID         string            `json:"badgeId,omitempty"`
	SessionID       string            `json:"sessionId,omitempty"`
	OccurredAt      time.Time         `json:"occurredAt"`
}
