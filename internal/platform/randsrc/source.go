package randsrc

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
	"time"
)

// Source is the randomness the box pool generator draws from. It is injected
// so tests can pin a seed and assert exact box assignments.
type Source interface {
	Shuffle(n int, swap func(i, j int))
	Intn(n int) int
}

// LockedSource wraps math/rand with a mutex so one Source can serve
// concurrent entry creations.
type LockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSeeded(seed int64) *LockedSource {
	return &LockedSource{rng: rand.New(rand.NewSource(seed))}
}

// New returns a Source seeded from the OS entropy pool, falling back to the
// wall clock if that read fails.
func New() *LockedSource {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return NewSeeded(time.Now().UnixNano())
	}
	return NewSeeded(int64(binary.LittleEndian.Uint64(buf[:])))
}

func (s *LockedSource) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Shuffle(n, swap)
}

func (s *LockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}
