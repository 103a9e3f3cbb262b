package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"zoo-quiz-service/internal/app"
	"zoo-quiz-service/internal/domain"
)

// RunRegistry is a Redis-backed implementation of app.RunRegistry.
// Notes:
//   - Redis holds the only copy of a run; every Get decodes it afresh, so any
//     instance can serve the next request of a run.
//   - Save is a WATCH/MULTI compare-and-set on the run version, so two
//     instances racing on one question cannot both record a transition.
//   - Every write refreshes the TTL.
type RunRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRunRegistry(client *redis.Client, ttl time.Duration) *RunRegistry {
	return &RunRegistry{client: client, ttl: ttl}
}

func (r *RunRegistry) Put(ctx context.Context, run *app.Run) error {
	raw, err := json.Marshal(run.State())
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	if err := r.client.Set(ctx, r.key(run.ID()), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("store run: %w", err)
	}
	return nil
}

func (r *RunRegistry) Get(ctx context.Context, id string) (*app.Run, error) {
	state, err := r.load(ctx, r.client, id)
	if err != nil {
		return nil, err
	}
	return app.NewRun(state), nil
}

func (r *RunRegistry) Save(ctx context.Context, run *app.Run) error {
	state := run.State()
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	key := r.key(state.ID)

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		stored, err := r.load(ctx, tx, state.ID)
		if err != nil {
			return err
		}
		if stored.Version != state.Version-1 {
			return domain.ErrRunConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, r.ttl)
			return nil
		})
		return err
	}, key)
	switch {
	case err == nil, errors.Is(err, domain.ErrRunConflict), errors.Is(err, domain.ErrRunNotFound):
		return err
	case errors.Is(err, redis.TxFailedErr):
		return domain.ErrRunConflict
	default:
		return fmt.Errorf("save run: %w", err)
	}
}

func (r *RunRegistry) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

func (r *RunRegistry) load(ctx context.Context, c getter, id string) (app.RunState, error) {
	raw, err := c.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return app.RunState{}, domain.ErrRunNotFound
	}
	if err != nil {
		return app.RunState{}, fmt.Errorf("load run: %w", err)
	}
	var state app.RunState
	if err := json.Unmarshal(raw, &state); err != nil {
		return app.RunState{}, fmt.Errorf("unmarshal run: %w", err)
	}
	return state, nil
}

// getter is satisfied by both *redis.Client and the *redis.Tx of a WATCH.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *RunRegistry) key(id string) string {
	return "zoo:run:" + id
}
