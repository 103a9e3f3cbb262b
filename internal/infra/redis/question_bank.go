package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"zoo-quiz-service/internal/domain"
)

// QuestionLoader fetches a subject's questions from a backing store.
type QuestionLoader interface {
	QuestionsBySubject(ctx context.Context, subjectID string) ([]domain.Question, error)
}

// emptyMarker is stored for subjects with no questions so misses are cached too.
const emptyMarker = "-"

// QuestionBank caches subject questions in Redis (hash per subject) and falls back to a loader on miss.
// Questions are stored as: HSET zoo:questions:{subjectID} {questionID} {json}
type QuestionBank struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuestionBank(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *QuestionBank) Questions(ctx context.Context, subjectID string) ([]domain.Question, error) {
	key := b.key(subjectID)

	if qs, ok := b.fromCache(ctx, key); ok {
		return qs, nil
	}

	result, err, _ := b.sf.Do(subjectID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if qs, ok := b.fromCache(ctx, key); ok {
			return qs, nil
		}

		qs, err := b.loader.QuestionsBySubject(ctx, subjectID)
		if err != nil {
			return nil, err
		}

		pipe := b.client.TxPipeline()
		pipe.Del(ctx, key)
		if len(qs) == 0 {
			pipe.HSet(ctx, key, emptyMarker, "")
		}
		for _, q := range qs {
			raw, err := json.Marshal(q)
			if err != nil {
				return nil, fmt.Errorf("marshal question %s: %w", q.ID, err)
			}
			pipe.HSet(ctx, key, q.ID, raw)
		}
		if ttl := b.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		// best-effort fill; the loader result is served either way
		_, _ = pipe.Exec(ctx)

		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops the subject hash so the next read reloads it.
func (b *QuestionBank) Invalidate(ctx context.Context, subjectID string) error {
	b.sf.Forget(subjectID)
	return b.client.Del(ctx, b.key(subjectID)).Err()
}

func (b *QuestionBank) fromCache(ctx context.Context, key string) ([]domain.Question, bool) {
	fields, err := b.client.HGetAll(ctx, key).Result()
	if err != nil || len(fields) == 0 {
		return nil, false
	}
	qs := make([]domain.Question, 0, len(fields))
	for field, raw := range fields {
		if field == emptyMarker {
			continue
		}
		var q domain.Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return nil, false
		}
		qs = append(qs, q)
	}
	sort.Slice(qs, func(i, j int) bool {
		if !qs[i].CreatedAt.Equal(qs[j].CreatedAt) {
			return qs[i].CreatedAt.After(qs[j].CreatedAt)
		}
		return qs[i].ID < qs[j].ID
	})
	return qs, true
}

func (b *QuestionBank) key(subjectID string) string {
	return "zoo:questions:" + subjectID
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	jitterMax := int64(b.ttl) / 10
	b.rndMu.Lock()
	defer b.rndMu.Unlock()
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}
