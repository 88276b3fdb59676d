package stream

import (
	"context"
	"time"

	"github.com/cwbudde/algo-wdrc/dsp/signal"
)

// SineCapture is a synthetic Capture backed by a signal.Generator. When
// paced, each ReadChunk blocks for one chunk duration like a device would.
type SineCapture struct {
	gen    *signal.Generator
	paced  bool
	ticker *time.Ticker
	spikes uint64
}

// NewSineCapture returns a capture reading from gen. If paced, reads are
// released at the real-time rate for chunks of chunkLength samples.
func NewSineCapture(gen *signal.Generator, chunkLength int, paced bool) *SineCapture {
	s := &SineCapture{gen: gen, paced: paced}
	if paced {
		period := time.Duration(float64(chunkLength) / gen.SampleRate() * float64(time.Second))
		s.ticker = time.NewTicker(max(period, time.Millisecond))
	}

	return s
}

// ReadChunk fills dst with the next generated samples.
func (s *SineCapture) ReadChunk(ctx context.Context, dst []int16) error {
	if s.paced {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.ticker.C:
		}
	}

	if s.gen.Next(dst) {
		s.spikes++
	}

	return nil
}

// Spikes returns how many chunks carried a burst.
func (s *SineCapture) Spikes() uint64 { return s.spikes }

// Close stops pacing.
func (s *SineCapture) Close() error {
	if s.ticker != nil {
		s.ticker.Stop()
	}

	return nil
}
