package memory

import (
	"context"
	"sync"

	"zoo-quiz-service/internal/domain"
)

// EventLog keeps published progress events in memory; used when no broker is configured.
type EventLog struct {
	mu     sync.Mutex
	events []domain.ProgressEvent
	limit  int
}

// NewEventLog keeps at most limit events; older ones are discarded.
func NewEventLog(limit int) *EventLog {
	return &EventLog{limit: limit}
}

func (l *EventLog) Publish(_ context.Context, evt domain.ProgressEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, evt)
	if l.limit > 0 && len(l.events) > l.limit {
		l.events = l.events[len(l.events)-l.limit:]
	}
	return nil
}

// Events returns a copy of the retained events, oldest first.
func (l *EventLog) Events() []domain.ProgressEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.ProgressEvent(nil), l.events...)
}
