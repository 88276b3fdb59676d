// Package portaudio captures and plays mono 16-bit chunks on the default
// PortAudio devices.
//
// Input and output use separate blocking streams so the capture and playback
// goroutines never share a stream.
package portaudio

import (
	"context"
	"errors"
	"fmt"

	"github.com/cwbudde/algo-wdrc/stream"
	"github.com/gordonklaus/portaudio"
)

// Init initializes PortAudio. The returned function terminates it and must
// be called after every stream is closed.
func Init() (terminate func() error, err error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: initialize: %w", err)
	}

	return portaudio.Terminate, nil
}

// Input reads chunks from the default input device.
type Input struct {
	stream *portaudio.Stream
	buf    []int16
}

// OpenInput opens and starts a mono input stream with chunkLength frames
// per buffer.
func OpenInput(sampleRate float64, chunkLength int) (*Input, error) {
	in := &Input{buf: make([]int16, chunkLength)}

	s, err := portaudio.OpenDefaultStream(1, 0, sampleRate, chunkLength, in.buf)
	if err != nil {
		return nil, fmt.Errorf("portaudio: open input: %w", err)
	}

	if err := s.Start(); err != nil {
		s.Close()
		return nil, fmt.Errorf("portaudio: start input: %w", err)
	}

	in.stream = s

	return in, nil
}

// ReadChunk blocks until one buffer has been captured. Lost input is
// reported as stream.ErrOverflow with dst still filled.
func (in *Input) ReadChunk(ctx context.Context, dst []int16) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := in.stream.Read()
	stream.FitChunk(dst, in.buf)

	if errors.Is(err, portaudio.InputOverflowed) {
		return fmt.Errorf("%w: %w", stream.ErrOverflow, err)
	}

	if err != nil {
		return fmt.Errorf("portaudio: read: %w", err)
	}

	return nil
}

// Close stops and closes the stream.
func (in *Input) Close() error {
	return closeStream(in.stream)
}

// Output writes chunks to the default output device.
type Output struct {
	stream     *portaudio.Stream
	buf        []int16
	underflows uint64
}

// OpenOutput opens and starts a mono output stream with chunkLength frames
// per buffer.
func OpenOutput(sampleRate float64, chunkLength int) (*Output, error) {
	out := &Output{buf: make([]int16, chunkLength)}

	s, err := portaudio.OpenDefaultStream(0, 1, sampleRate, chunkLength, out.buf)
	if err != nil {
		return nil, fmt.Errorf("portaudio: open output: %w", err)
	}

	if err := s.Start(); err != nil {
		s.Close()
		return nil, fmt.Errorf("portaudio: start output: %w", err)
	}

	out.stream = s

	return out, nil
}

// WriteChunk blocks until the chunk has been queued on the device. Output
// underflow only counts; the next chunk plays normally.
func (out *Output) WriteChunk(ctx context.Context, chunk []int16) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stream.FitChunk(out.buf, chunk)

	err := out.stream.Write()
	if errors.Is(err, portaudio.OutputUnderflowed) {
		out.underflows++
		return nil
	}

	if err != nil {
		return fmt.Errorf("portaudio: write: %w", err)
	}

	return nil
}

// Underflows returns the number of output underflows seen so far.
func (out *Output) Underflows() uint64 { return out.underflows }

// Close stops and closes the stream.
func (out *Output) Close() error {
	return closeStream(out.stream)
}

func closeStream(s *portaudio.Stream) error {
	stopErr := s.Stop()
	closeErr := s.Close()

	if stopErr != nil {
		return fmt.Errorf("portaudio: stop: %w", stopErr)
	}

	if closeErr != nil {
		return fmt.Errorf("portaudio: close: %w", closeErr)
	}

	return nil
}
