// Package stream moves fixed-length chunks from a capture source through a
// processor to a playback sink, one goroutine per stage.
package stream

import (
	"context"
	"errors"

	"github.com/cwbudde/algo-wdrc/pipeline"
)

// ErrOverflow is returned by Capture.ReadChunk when samples were lost before
// the chunk was read. The chunk is still filled and usable.
var ErrOverflow = errors.New("stream: input overflow")

// Capture is a blocking source of chunks. ReadChunk fills all of dst or
// returns an error; io.EOF ends the stream.
type Capture interface {
	ReadChunk(ctx context.Context, dst []int16) error
	Close() error
}

// Playback is a blocking sink of chunks. WriteChunk must not retain chunk.
type Playback interface {
	WriteChunk(ctx context.Context, chunk []int16) error
	Close() error
}

// Frame is what a Tap sees for every chunk. Slices are only valid for the
// duration of Observe and must not be modified.
type Frame struct {
	Seq       uint64
	Raw       []int16
	Processed []int16
	Bands     []pipeline.BandMetrics
	Fallback  bool // processing failed and Raw was passed through
}

// Tap observes frames, typically for visualization. Observe runs on the
// processing goroutine and should return quickly.
type Tap interface {
	Observe(f Frame)
}

// TapFunc adapts a function to Tap.
type TapFunc func(f Frame)

// Observe calls fn(f).
func (fn TapFunc) Observe(f Frame) { fn(f) }

// Processor is the part of *pipeline.Pipeline the runner drives.
type Processor interface {
	ProcessInto(dst, in []int16) error
	ChunkLength() int
	SampleRate() float64
	Metrics() []pipeline.BandMetrics
	ResetMetrics()
}

var _ Processor = (*pipeline.Pipeline)(nil)

// FitChunk copies src into dst, truncating or zero-padding to len(dst).
func FitChunk(dst, src []int16) {
	n := copy(dst, src)
	clear(dst[n:])
}

type teePlayback []Playback

// Tee returns a Playback writing every chunk to each sink in order. Close
// closes all sinks and returns the first error.
func Tee(sinks ...Playback) Playback {
	return teePlayback(sinks)
}

func (t teePlayback) WriteChunk(ctx context.Context, chunk []int16) error {
	for _, p := range t {
		if err := p.WriteChunk(ctx, chunk); err != nil {
			return err
		}
	}

	return nil
}

func (t teePlayback) Close() error {
	var first error
	for _, p := range t {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}

	return first
}

// Discard is a Playback that drops every chunk.
type Discard struct{}

// WriteChunk does nothing.
func (Discard) WriteChunk(context.Context, []int16) error { return nil }

// Close does nothing.
func (Discard) Close() error { return nil }
