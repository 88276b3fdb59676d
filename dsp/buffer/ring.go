package buffer

import "sync"

// Ring is a fixed-capacity rolling window of int16 samples. Writing past
// capacity overwrites the oldest samples. Before the first capacity samples
// have been written the window is padded with leading zeros.
//
// Ring supports one writer and any number of concurrent readers.
type Ring struct {
	mu      sync.RWMutex
	data    []int16
	head    int // next write position
	written uint64
}

// NewRing returns a zero-filled window of capacity samples.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}

	return &Ring{data: make([]int16, capacity)}
}

// Cap returns the window length.
func (r *Ring) Cap() int { return len(r.data) }

// Written returns the total number of samples ever written.
func (r *Ring) Written() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.written
}

// Write appends samples. When len(samples) exceeds the capacity only the
// newest Cap samples are kept.
func (r *Ring) Write(samples []int16) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.written += uint64(len(samples))

	n := len(r.data)
	if len(samples) >= n {
		copy(r.data, samples[len(samples)-n:])
		r.head = 0

		return
	}

	k := copy(r.data[r.head:], samples)
	if k < len(samples) {
		copy(r.data, samples[k:])
	}

	r.head = (r.head + len(samples)) % n
}

// Snapshot copies the window, oldest sample first, into dst and returns the
// number of samples copied. If dst is shorter than Cap only the newest
// len(dst) samples are copied.
func (r *Ring) Snapshot(dst []int16) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.data)
	want := min(len(dst), n)
	start := (r.head + n - want) % n

	k := copy(dst[:want], r.data[start:])
	if k < want {
		copy(dst[k:want], r.data[:want-k])
	}

	return want
}

// Reset zeroes the window.
func (r *Ring) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.data)
	r.head = 0
	r.written = 0
}
