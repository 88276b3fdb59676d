package bank

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-wdrc/dsp/filter/biquad"
	"github.com/cwbudde/algo-wdrc/dsp/filter/design/band"
)

const defaultOrder = 5

var (
	// ErrNoBands is returned when a bank is built without any band.
	ErrNoBands = errors.New("bank: at least one band is required")

	// ErrStateMismatch is returned by SetState for a snapshot taken from a
	// bank with a different layout.
	ErrStateMismatch = errors.New("bank: state does not match bank layout")

	// ErrOutputShape is returned by SplitInto when dst cannot hold the bands.
	ErrOutputShape = errors.New("bank: output buffers do not match bank")

	// ErrUnstable is returned when a designed band has a pole on or outside
	// the unit circle, which extreme order and cutoff combinations can cause.
	ErrUnstable = errors.New("bank: designed filter is unstable")
)

// Spec describes one band: its -3 dB edges and the Butterworth prototype order.
type Spec struct {
	LowCutoffHz  float64 `yaml:"low_cutoff_hz"`
	HighCutoffHz float64 `yaml:"high_cutoff_hz"`
	Order        int     `yaml:"order"`
}

// Validate checks the spec against the sample rate:
// 0 < low < high < sampleRate/2.
func (s Spec) Validate(sampleRate float64) error {
	return band.Validate(s.LowCutoffHz, s.HighCutoffHz, s.Order, sampleRate)
}

// DefaultSpecs returns the four hearing bands: low, mid-low, mid-high, high.
func DefaultSpecs() []Spec {
	return []Spec{
		{LowCutoffHz: 20, HighCutoffHz: 300, Order: defaultOrder},
		{LowCutoffHz: 300, HighCutoffHz: 1000, Order: defaultOrder},
		{LowCutoffHz: 1000, HighCutoffHz: 3000, Order: defaultOrder},
		{LowCutoffHz: 3000, HighCutoffHz: 6000, Order: defaultOrder},
	}
}

// Band is one designed filter of the bank.
type Band struct {
	Spec

	CenterHz float64 // digital center frequency, unity gain
	filter   *biquad.Chain
}

// MagnitudeDB returns the band's magnitude response at freqHz.
func (b *Band) MagnitudeDB(freqHz, sampleRate float64) float64 {
	return b.filter.MagnitudeDB(freqHz, sampleRate)
}

// State is a snapshot of every band's delay line: State[band][section].
type State [][][2]float64

// Bank is a set of band-pass filters applied in parallel to the same input.
// It is not safe for concurrent use.
type Bank struct {
	bands         []Band
	sampleRate    float64
	resetPerChunk bool
}

type bankConfig struct {
	resetPerChunk bool
}

// Option configures a Bank.
type Option func(*bankConfig)

// WithPerChunkReset zeroes every delay line at the start of each chunk.
func WithPerChunkReset() Option {
	return func(cfg *bankConfig) { cfg.resetPerChunk = true }
}

// New designs one band-pass per spec. Invalid specs fail here, never at
// Split time.
func New(specs []Spec, sampleRate float64, opts ...Option) (*Bank, error) {
	if len(specs) == 0 {
		return nil, ErrNoBands
	}

	var cfg bankConfig
	for _, o := range opts {
		o(&cfg)
	}

	bands := make([]Band, len(specs))
	for i, s := range specs {
		sections, err := band.ButterworthBandpass(s.LowCutoffHz, s.HighCutoffHz, s.Order, sampleRate)
		if err != nil {
			return nil, fmt.Errorf("bank: band %d: %w", i, err)
		}

		filter := biquad.NewChain(sections)
		if !filter.Stable() {
			return nil, fmt.Errorf("%w: band %d (%v-%v Hz, order %d)", ErrUnstable, i, s.LowCutoffHz, s.HighCutoffHz, s.Order)
		}

		bands[i] = Band{
			Spec:     s,
			CenterHz: band.CenterFrequency(s.LowCutoffHz, s.HighCutoffHz, sampleRate),
			filter:   filter,
		}
	}

	return &Bank{
		bands:         bands,
		sampleRate:    sampleRate,
		resetPerChunk: cfg.resetPerChunk,
	}, nil
}

// Bands returns the bands in construction order.
func (b *Bank) Bands() []Band { return b.bands }

// NumBands returns the number of bands.
func (b *Bank) NumBands() int { return len(b.bands) }

// SampleRate returns the sample rate the bank was designed for.
func (b *Bank) SampleRate() float64 { return b.sampleRate }

// Split filters chunk through every band and returns one new slice per band,
// each len(chunk) long.
func (b *Bank) Split(chunk []float64) [][]float64 {
	out := make([][]float64, len(b.bands))
	for i := range out {
		out[i] = make([]float64, len(chunk))
	}

	// out is shaped for the bank, so SplitInto cannot fail.
	_ = b.SplitInto(out, chunk)

	return out
}

// SplitInto is the allocation-free form of Split. dst must have one slice per
// band, each at least len(chunk) long; the first len(chunk) values of each
// are overwritten.
func (b *Bank) SplitInto(dst [][]float64, chunk []float64) error {
	if len(dst) != len(b.bands) {
		return fmt.Errorf("%w: %d buffers for %d bands", ErrOutputShape, len(dst), len(b.bands))
	}

	for i := range dst {
		if len(dst[i]) < len(chunk) {
			return fmt.Errorf("%w: band %d buffer holds %d of %d samples", ErrOutputShape, i, len(dst[i]), len(chunk))
		}
	}

	for i := range b.bands {
		if b.resetPerChunk {
			b.bands[i].filter.Reset()
		}

		b.bands[i].filter.ProcessBlockTo(dst[i], chunk)
	}

	return nil
}

// Reset zeroes every delay line.
func (b *Bank) Reset() {
	for i := range b.bands {
		b.bands[i].filter.Reset()
	}
}

// State returns a deep copy of all delay lines.
func (b *Bank) State() State {
	st := make(State, len(b.bands))
	for i := range b.bands {
		st[i] = b.bands[i].filter.State()
	}

	return st
}

// SetState restores delay lines captured by State on a bank with the same specs.
func (b *Bank) SetState(st State) error {
	if len(st) != len(b.bands) {
		return ErrStateMismatch
	}

	for i := range b.bands {
		if len(st[i]) != b.bands[i].filter.NumSections() {
			return fmt.Errorf("%w: band %d", ErrStateMismatch, i)
		}
	}

	for i := range b.bands {
		if err := b.bands[i].filter.SetState(st[i]); err != nil {
			return fmt.Errorf("bank: band %d: %w", i, err)
		}
	}

	return nil
}
