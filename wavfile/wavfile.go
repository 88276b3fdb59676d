// Package wavfile persists 16-bit PCM streams as WAV files and replays WAV
// files as a chunked capture source.
package wavfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	bitDepth16 = 16
	formatPCM  = 1
)

var (
	// ErrUnsupportedBitDepth is returned for bit depths other than 16.
	ErrUnsupportedBitDepth = errors.New("wavfile: only 16 bit depth is supported")

	// ErrInvalidFile is returned when a file is not a readable WAV file.
	ErrInvalidFile = errors.New("wavfile: not a valid wav file")
)

// Save encodes chunks, interleaved when channels > 1, as one WAV stream.
func Save(w io.WriteSeeker, chunks [][]int16, sampleRate, channels, bitDepth int) error {
	if bitDepth != bitDepth16 {
		return ErrUnsupportedBitDepth
	}

	if channels < 1 || sampleRate <= 0 {
		return fmt.Errorf("wavfile: invalid format: %d channels at %d Hz", channels, sampleRate)
	}

	enc := wav.NewEncoder(w, sampleRate, bitDepth, channels, formatPCM)
	ib := newIntBuffer(sampleRate, channels)

	for _, c := range chunks {
		if err := writeChunk(enc, ib, c); err != nil {
			return err
		}
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("wavfile: finalize: %w", err)
	}

	return nil
}

func newIntBuffer(sampleRate, channels int) *audio.IntBuffer {
	return &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		SourceBitDepth: bitDepth16,
	}
}

func writeChunk(enc *wav.Encoder, ib *audio.IntBuffer, chunk []int16) error {
	if cap(ib.Data) < len(chunk) {
		ib.Data = make([]int, len(chunk))
	}

	ib.Data = ib.Data[:len(chunk)]
	for i, v := range chunk {
		ib.Data[i] = int(v)
	}

	if err := enc.Write(ib); err != nil {
		return fmt.Errorf("wavfile: write: %w", err)
	}

	return nil
}

// Recorder is a mono 16-bit playback sink that streams every chunk into a
// WAV file. The header is finalized on Close.
type Recorder struct {
	file    *os.File
	enc     *wav.Encoder
	ib      *audio.IntBuffer
	samples int
}

// NewRecorder creates path and prepares a mono 16-bit encoder.
func NewRecorder(path string, sampleRate int) (*Recorder, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("wavfile: invalid sample rate %d", sampleRate)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("wavfile: %w", err)
	}

	return &Recorder{
		file: f,
		enc:  wav.NewEncoder(f, sampleRate, bitDepth16, 1, formatPCM),
		ib:   newIntBuffer(sampleRate, 1),
	}, nil
}

// WriteChunk appends chunk to the file.
func (r *Recorder) WriteChunk(_ context.Context, chunk []int16) error {
	if err := writeChunk(r.enc, r.ib, chunk); err != nil {
		return err
	}

	r.samples += len(chunk)

	return nil
}

// Samples returns the number of samples written.
func (r *Recorder) Samples() int { return r.samples }

// Path returns the output file name.
func (r *Recorder) Path() string { return r.file.Name() }

// Close finalizes the WAV header and closes the file.
func (r *Recorder) Close() error {
	encErr := r.enc.Close()
	fileErr := r.file.Close()

	if encErr != nil {
		return fmt.Errorf("wavfile: finalize: %w", encErr)
	}

	return fileErr
}

// Source reads a 16-bit WAV file as a sequence of mono chunks. Multi-channel
// files are downmixed by averaging. The last partial chunk is zero-padded.
type Source struct {
	file       *os.File
	dec        *wav.Decoder
	ib         *audio.IntBuffer
	scratch    []int
	channels   int
	sampleRate int
	done       bool
}

// OpenSource opens path for chunked reading.
func OpenSource(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wavfile: %w", err)
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrInvalidFile, path)
	}

	if dec.BitDepth != bitDepth16 {
		f.Close()
		return nil, fmt.Errorf("%w: %s has %d bits", ErrUnsupportedBitDepth, path, dec.BitDepth)
	}

	format := dec.Format()

	return &Source{
		file:       f,
		dec:        dec,
		ib:         &audio.IntBuffer{Format: format, SourceBitDepth: bitDepth16},
		channels:   format.NumChannels,
		sampleRate: format.SampleRate,
	}, nil
}

// SampleRate returns the file's sample rate.
func (s *Source) SampleRate() int { return s.sampleRate }

// Channels returns the file's channel count.
func (s *Source) Channels() int { return s.channels }

// ReadChunk fills dst with the next len(dst) mono samples. It returns io.EOF
// once the file is exhausted.
func (s *Source) ReadChunk(_ context.Context, dst []int16) error {
	if s.done {
		return io.EOF
	}

	need := len(dst) * s.channels
	if cap(s.scratch) < need {
		s.scratch = make([]int, need)
	}

	// The decoder may return short reads before the end of the data chunk.
	n := 0
	for n < need {
		s.ib.Data = s.scratch[n:need]

		m, err := s.dec.PCMBuffer(s.ib)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("wavfile: read: %w", err)
		}

		if m == 0 {
			break
		}

		n += m
	}

	frames := n / s.channels
	if frames == 0 {
		s.done = true
		return io.EOF
	}

	for i := range frames {
		var sum int
		for ch := range s.channels {
			sum += s.scratch[i*s.channels+ch]
		}

		dst[i] = int16(sum / s.channels)
	}

	clear(dst[frames:])

	if frames < len(dst) {
		s.done = true
	}

	return nil
}

// Close closes the file.
func (s *Source) Close() error {
	return s.file.Close()
}
