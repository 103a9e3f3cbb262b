package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"zoo-quiz-service/internal/domain"
)

// QuestionLoader fetches a subject's questions from a backing store.
type QuestionLoader interface {
	QuestionsBySubject(ctx context.Context, subjectID string) ([]domain.Question, error)
}

// QuestionBank caches subject questions with TTL to avoid repeated DB hits.
type QuestionBank struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedQuestions
}

type cachedQuestions struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionBank(loader QuestionLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuestions),
	}
}

func (b *QuestionBank) Questions(ctx context.Context, subjectID string) ([]domain.Question, error) {
	if qs, ok := b.lookup(subjectID); ok {
		return qs, nil
	}

	result, err, _ := b.sf.Do(subjectID, func() (interface{}, error) {
		if qs, ok := b.lookup(subjectID); ok {
			return qs, nil
		}

		qs, err := b.loader.QuestionsBySubject(ctx, subjectID)
		if err != nil {
			return nil, err
		}

		b.mu.Lock()
		b.cache[subjectID] = cachedQuestions{
			questions: qs,
			expiresAt: b.clock().Add(b.ttlWithJitter()),
		}
		b.mu.Unlock()
		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops the cached entry so the next read reloads it.
func (b *QuestionBank) Invalidate(_ context.Context, subjectID string) error {
	b.mu.Lock()
	delete(b.cache, subjectID)
	b.mu.Unlock()
	b.sf.Forget(subjectID)
	return nil
}

func (b *QuestionBank) lookup(subjectID string) ([]domain.Question, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	entry, ok := b.cache[subjectID]
	if !ok || !entry.expiresAt.After(b.clock()) {
		return nil, false
	}
	return entry.questions, true
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(b.ttl) / 10
	b.rndMu.Lock()
	defer b.rndMu.Unlock()
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}
