package memory

import (
	"context"
	"sync"
	"time"

	"zoo-quiz-service/internal/app"
	"zoo-quiz-service/internal/domain"
)

// RunRegistry is an in-memory implementation of app.RunRegistry.
// It stores state snapshots, so every Get returns an independent run.
// Idle runs are dropped after ttl, checked lazily on access.
type RunRegistry struct {
	ttl   time.Duration
	clock func() time.Time

	mu   sync.Mutex
	runs map[string]registeredRun
}

type registeredRun struct {
	state    app.RunState
	lastSeen time.Time
}

func NewRunRegistry(ttl time.Duration) *RunRegistry {
	return &RunRegistry{
		ttl:   ttl,
		clock: time.Now,
		runs:  make(map[string]registeredRun),
	}
}

func (r *RunRegistry) Put(_ context.Context, run *app.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.clock()
	r.pruneLocked(now)
	r.runs[run.ID()] = registeredRun{state: run.State(), lastSeen: now}
	return nil
}

func (r *RunRegistry) Get(_ context.Context, id string) (*app.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.runs[id]
	if !ok || r.expired(entry, r.clock()) {
		delete(r.runs, id)
		return nil, domain.ErrRunNotFound
	}
	entry.lastSeen = r.clock()
	r.runs[id] = entry
	return app.NewRun(entry.state), nil
}

func (r *RunRegistry) Save(_ context.Context, run *app.Run) error {
	state := run.State()
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.clock()
	entry, ok := r.runs[state.ID]
	if !ok || r.expired(entry, now) {
		delete(r.runs, state.ID)
		return domain.ErrRunNotFound
	}
	if entry.state.Version != state.Version-1 {
		return domain.ErrRunConflict
	}
	r.runs[state.ID] = registeredRun{state: state, lastSeen: now}
	return nil
}

func (r *RunRegistry) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.runs, id)
	return nil
}

func (r *RunRegistry) expired(entry registeredRun, now time.Time) bool {
	return r.ttl > 0 && now.Sub(entry.lastSeen) > r.ttl
}

func (r *RunRegistry) pruneLocked(now time.Time) {
	for id, entry := range r.runs {
		if r.expired(entry, now) {
			delete(r.runs, id)
		}
	}
}
