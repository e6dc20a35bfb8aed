package timing

import "sync"

// Rand is the classic linear congruential generator
// next = next*1103515245 + 12345, returning 31 bits per call.
// The same seed always produces the same sequence.
type Rand struct {
	next uint64
}

// NewRand returns a generator seeded with seed.
func NewRand(seed uint32) *Rand {
	return &Rand{next: uint64(seed)}
}

// Seed restarts the sequence.
func (r *Rand) Seed(seed uint32) {
	r.next = uint64(seed)
}

// Next returns a value in [0, 2^31).
func (r *Rand) Next() uint32 {
	r.next = r.next*1103515245 + 12345
	return uint32(r.next>>16) & 0x7fffffff
}

// Intn returns a value in [0, n). It returns 0 when n <= 0.
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Next() % uint32(n))
}

var (
	defaultMu   sync.Mutex
	defaultRand = NewRand(1)
)

// Seed reseeds the package generator.
func Seed(seed uint32) {
	defaultMu.Lock()
	defaultRand.Seed(seed)
	defaultMu.Unlock()
}

// Next draws from the package generator, seeded with 1 at boot.
func Next() uint32 {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultRand.Next()
}

// Intn draws a value in [0, n) from the package generator.
func Intn(n int) int {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultRand.Intn(n)
}
