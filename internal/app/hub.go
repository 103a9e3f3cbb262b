package app

import (
	"sync"

	"zoo-quiz-service/internal/domain"
)

// Hub fans leaderboard snapshots out to the subscribers of each classroom.
type Hub struct {
	mu     sync.Mutex
	rooms  map[string]map[chan domain.Leaderboard]struct{}
	buffer int
}

func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[string]map[chan domain.Leaderboard]struct{}),
		buffer: 8,
	}
}

// subscribe registers a channel primed with initial. cancel closes it and must be called.
func (h *Hub) subscribe(classroomID string, initial domain.Leaderboard) (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, h.buffer)
	ch <- initial

	h.mu.Lock()
	subs, ok := h.rooms[classroomID]
	if !ok {
		subs = make(map[chan domain.Leaderboard]struct{})
		h.rooms[classroomID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs := h.rooms[classroomID]
		if _, ok := subs[ch]; !ok {
			return
		}
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(h.rooms, classroomID)
		}
	}
	return ch, cancel
}

// HasSubscribers reports whether anyone watches the classroom board.
func (h *Hub) HasSubscribers(classroomID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[classroomID]) > 0
}

// Broadcast delivers lb without blocking; a full subscriber loses its oldest pending update.
func (h *Hub) Broadcast(lb domain.Leaderboard) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.rooms[lb.ClassroomID] {
		select {
		case ch <- lb:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}
