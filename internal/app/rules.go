package app

import (
	"math/rand"
	"sync"
	"time"
)

// Rules holds the tunable game parameters.
type Rules struct {
	QuestionsPerSession int
	DailyGameLimit      int
	ChallengePoolSize   int
	RevealDelay         time.Duration
}

// DefaultRules returns the classroom defaults.
func DefaultRules() Rules {
	return Rules{
		QuestionsPerSession: 10,
		DailyGameLimit:      DefaultDailyGameLimit,
		ChallengePoolSize:   50,
		RevealDelay:         1500 * time.Millisecond,
	}
}

func (r Rules) withDefaults() Rules {
	def := DefaultRules()
	if r.QuestionsPerSession <= 0 {
		r.QuestionsPerSession = def.QuestionsPerSession
	}
	if r.DailyGameLimit <= 0 {
		r.DailyGameLimit = def.DailyGameLimit
	}
	if r.ChallengePoolSize <= 0 {
		r.ChallengePoolSize = def.ChallengePoolSize
	}
	if r.RevealDelay < 0 {
		r.RevealDelay = 0
	}
	return r
}

// Randomizer is the source of question sampling.
type Randomizer interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

type lockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomizer returns a goroutine-safe Randomizer seeded with seed.
func NewRandomizer(seed int64) Randomizer {
	return &lockedRand{rnd: rand.New(rand.NewSource(seed))}
}

func (r *lockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Intn(n)
}

func (r *lockedRand) Shuffle(n int, swap func(i, j int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rnd.Shuffle(n, swap)
}

// sample returns up to n items picked uniformly without replacement.
func sample[T any](rnd Randomizer, items []T, n int) []T {
	out := make([]T, len(items))
	copy(out, items)
	rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if n < len(out) {
		out = out[:n]
	}
	return out
}
