package ebiten

import (
	"context"
	"encoding/binary"
	"io"
	"math"
	"sync"

	"github.com/cwbudde/algo-wdrc/dsp/core"
)

// bytesPerFrame is one stereo float32 frame.
const bytesPerFrame = 8

// Queue buffers mono int16 chunks and reads them back as interleaved stereo
// float32 little-endian frames. Reads never block: an empty queue yields
// silence so the player keeps its clock.
type Queue struct {
	mu        sync.Mutex
	chunks    [][]int16
	cur       []int16
	depth     int
	space     chan struct{}
	done      chan struct{}
	closed    bool
	underruns uint64
}

// NewQueue returns a queue holding at most depth chunks.
func NewQueue(depth int) *Queue {
	if depth < 1 {
		depth = 1
	}

	q := &Queue{depth: depth, space: make(chan struct{}, depth), done: make(chan struct{})}
	for range depth {
		q.space <- struct{}{}
	}

	return q
}

// Push copies chunk into the queue, waiting for room. A push waiting on a
// full queue returns io.ErrClosedPipe once the queue is closed.
func (q *Queue) Push(ctx context.Context, chunk []int16) error {
	select {
	case <-q.space:
	case <-q.done:
		return io.ErrClosedPipe
	case <-ctx.Done():
		return ctx.Err()
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return io.ErrClosedPipe
	}

	q.chunks = append(q.chunks, append([]int16(nil), chunk...))

	return nil
}

// Read implements io.Reader for the player.
func (q *Queue) Read(p []byte) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return 0, io.EOF
	}

	frames := len(p) / bytesPerFrame
	starved := false

	for i := range frames {
		if len(q.cur) == 0 && !q.pop() {
			starved = true
		}

		var v float32
		if len(q.cur) > 0 {
			v = float32(float64(q.cur[0]) / core.FullScale)
			q.cur = q.cur[1:]
		}

		bits := math.Float32bits(v)
		binary.LittleEndian.PutUint32(p[i*bytesPerFrame:], bits)
		binary.LittleEndian.PutUint32(p[i*bytesPerFrame+4:], bits)
	}

	if starved {
		q.underruns++
	}

	return frames * bytesPerFrame, nil
}

// pop makes the oldest queued chunk current and frees its slot.
func (q *Queue) pop() bool {
	if len(q.chunks) == 0 {
		return false
	}

	q.cur = q.chunks[0]
	q.chunks[0] = nil
	q.chunks = q.chunks[1:]
	q.space <- struct{}{}

	return true
}

// Underruns returns how many reads ran out of queued samples.
func (q *Queue) Underruns() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.underruns
}

// Close makes further reads return io.EOF and pushes fail.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.done)
	q.chunks = nil
	q.cur = nil
}
