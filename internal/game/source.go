package game

import (
	"math/rand"
	"sync"
	"time"
)

// Source is the randomness every machine draws from. Tests inject a seeded
// or scripted implementation.
type Source interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// lockedSource makes a *rand.Rand safe to share between sessions.
type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSource returns a goroutine safe Source. A zero seed uses the clock.
func NewSource(seed int64) Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedSource{r: rand.New(rand.NewSource(seed))}
}

func (s *lockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Intn(n)
}

func (s *lockedSource) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r.Shuffle(n, swap)
}

func pick(src Source, words []string) string {
	return words[src.Intn(len(words))]
}

// between returns a uniform integer in [lo, hi].
func between(src Source, lo, hi int) int {
	return lo + src.Intn(hi-lo+1)
}
