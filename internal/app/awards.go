package app

import (
	"context"
	"log/slog"
	"time"

	"zoo-quiz-service/internal/domain"
	"zoo-quiz-service/internal/progression"
)

// Awarder turns a committed score change into an Award, progress events and a board refresh.
type Awarder struct {
	events EventPublisher
	boards *LeaderboardService
	log    *slog.Logger
	now    func() time.Time
}

// NewAwarder accepts a nil publisher or board service; the matching step is then skipped.
func NewAwarder(events EventPublisher, boards *LeaderboardService, log *slog.Logger) *Awarder {
	return &Awarder{events: events, boards: boards, log: log, now: time.Now}
}

// settle is called after the store committed points for student.
func (a *Awarder) settle(ctx context.Context, kind domain.EventKind, student domain.Student, points int, sessionID string) Award {
	award := newAward(points, student.CumulativeScore)

	base := domain.ProgressEvent{
		StudentID:       student.ID,
		ClassroomID:     student.ClassroomID,
		Points:          points,
		CumulativeScore: student.CumulativeScore,
		Level:           student.Level,
		Medal:           progression.MedalFor(student.Level),
		SessionID:       sessionID,
		OccurredAt:      a.now(),
	}
	events := []domain.ProgressEvent{withKind(base, kind)}
	if award.LeveledUp {
		events = append(events, withKind(base, domain.EventLevelUp))
	}
	if award.NewBadge != nil {
		evt := withKind(base, domain.EventBadgeEarned)
		evt.BadgeID = award.NewBadge.ID
		events = append(events, evt)
	}
	a.publish(ctx, events)

	if a.boards != nil && points > 0 {
		a.boards.Changed(ctx, student.ClassroomID)
	}
	return award
}

func (a *Awarder) publish(ctx context.Context, events []domain.ProgressEvent) {
	if a.events == nil {
		return
	}
	for _, evt := range events {
		if err := a.events.Publish(ctx, evt); err != nil {
			a.log.WarnContext(ctx, "publish progress event failed", "kind", evt.Kind, "student", evt.StudentID, "err", err)
		}
	}
}

func withKind(evt domain.ProgressEvent, kind domain.EventKind) domain.ProgressEvent {
	evt.Kind = kind
	return evt
}
