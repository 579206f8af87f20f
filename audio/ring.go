package audio

import "sync/atomic"

// ring is a single-producer single-consumer lock-free buffer carrying
// mono mic samples from the input callback to the output callback. Both
// sides run on real-time threads, so push and pop never block; a full
// ring drops the newest sample, an empty ring yields silence.
type ring struct {
	buf  []float32
	mask uint64
	head atomic.Uint64 // next write
	tail atomic.Uint64 // next read
}

// newRing rounds the size up to a power of two.
func newRing(size int) *ring {
	n := 1
	for n < size {
		n <<= 1
	}
	return &ring{buf: make([]float32, n), mask: uint64(n - 1)}
}

func (r *ring) push(s float32) bool {
	head := r.head.Load()
	if head-r.tail.Load() >= uint64(len(r.buf)) {
		return false
	}
	r.buf[head&r.mask] = s
	r.head.Store(head + 1)
	return true
}

func (r *ring) pop() (float32, bool) {
	tail := r.tail.Load()
	if tail == r.head.Load() {
		return 0, false
	}
	s := r.buf[tail&r.mask]
	r.tail.Store(tail + 1)
	return s, true
}

func (r *ring) len() int {
	return int(r.head.Load() - r.tail.Load())
}
