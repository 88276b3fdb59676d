package pipeline

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-vecmath"
	"github.com/cwbudde/algo-wdrc/dsp/core"
	"github.com/cwbudde/algo-wdrc/dsp/effects/dynamics"
	"github.com/cwbudde/algo-wdrc/dsp/filter/bank"
)

var (
	// ErrChunkLength is returned for an input or output chunk whose length
	// differs from Config.ChunkLength.
	ErrChunkLength = errors.New("pipeline: chunk length mismatch")

	// ErrSnapshotMismatch is returned by Restore for a snapshot taken from a
	// pipeline with a different band layout.
	ErrSnapshotMismatch = errors.New("pipeline: snapshot does not match pipeline")
)

// BandMetrics is the metering of one band since the last ResetMetrics.
type BandMetrics struct {
	Band bank.Spec
	dynamics.Metrics

	Gain float64 // current smoothed gain
}

// GainReductionDB returns the deepest gain reduction as a positive dB value.
func (m BandMetrics) GainReductionDB() float64 {
	if m.MinGain >= 1 || m.MinGain <= 0 {
		return 0
	}

	return -core.LinearToDB(m.MinGain)
}

// Snapshot is a checkpoint of all per-band state.
type Snapshot struct {
	Filters bank.State
	Gains   []float64
}

type options struct {
	compress      bool
	perChunkReset bool
}

// Option configures a Pipeline.
type Option func(*options)

// WithoutCompression bypasses the compressors; bands are only split and
// recombined.
func WithoutCompression() Option {
	return func(o *options) { o.compress = false }
}

// WithPerChunkReset zeroes the filter delay lines before every chunk.
func WithPerChunkReset() Option {
	return func(o *options) { o.perChunkReset = true }
}

// Pipeline turns one input chunk into one output chunk: normalize, split into
// bands, compress each band, convert each band back to 16-bit samples with
// saturation, and sum the bands.
//
// Filter and compressor state persists across chunks, so Process is not
// idempotent. For a fixed input sequence the output is deterministic.
// A Pipeline is not safe for concurrent use.
type Pipeline struct {
	cfg      Config
	bank     *bank.Bank
	comps    []*dynamics.Compressor
	compress bool

	raw   []float64
	norm  []float64
	bands [][]float64
	ints  [][]int16
}

// New validates cfg and builds the filter bank and compressors. All scratch
// buffers are allocated here.
func New(cfg Config, opts ...Option) (*Pipeline, error) {
	o := options{compress: true}
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var bankOpts []bank.Option
	if o.perChunkReset {
		bankOpts = append(bankOpts, bank.WithPerChunkReset())
	}

	fb, err := bank.New(cfg.Specs(), cfg.SampleRate, bankOpts...)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	comps := make([]*dynamics.Compressor, len(cfg.Bands))
	for i, b := range cfg.Bands {
		c, err := dynamics.NewCompressor(b.Compressor, cfg.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("pipeline: band %d: %w", i, err)
		}

		comps[i] = c
	}

	// Config is copied so later edits to the caller's Bands slice are not seen.
	cfg.Bands = append([]BandConfig(nil), cfg.Bands...)

	p := &Pipeline{
		cfg:      cfg,
		bank:     fb,
		comps:    comps,
		compress: o.compress,
		raw:      make([]float64, cfg.ChunkLength),
		norm:     make([]float64, cfg.ChunkLength),
		bands:    make([][]float64, len(cfg.Bands)),
		ints:     make([][]int16, len(cfg.Bands)),
	}

	for i := range p.bands {
		p.bands[i] = make([]float64, cfg.ChunkLength)
		p.ints[i] = make([]int16, cfg.ChunkLength)
	}

	return p, nil
}

// Config returns a copy of the configuration.
func (p *Pipeline) Config() Config {
	cfg := p.cfg
	cfg.Bands = append([]BandConfig(nil), p.cfg.Bands...)

	return cfg
}

// ChunkLength returns the fixed chunk length in samples.
func (p *Pipeline) ChunkLength() int { return p.cfg.ChunkLength }

// SampleRate returns the sample rate in Hz.
func (p *Pipeline) SampleRate() float64 { return p.cfg.SampleRate }

// NumBands returns the number of bands.
func (p *Pipeline) NumBands() int { return len(p.comps) }

// Bands returns the designed filter bands in order.
func (p *Pipeline) Bands() []bank.Band { return p.bank.Bands() }

// Compressing reports whether the compressors are active.
func (p *Pipeline) Compressing() bool { return p.compress }

// Process returns a new chunk holding the processed input.
func (p *Pipeline) Process(in []int16) ([]int16, error) {
	out := make([]int16, p.cfg.ChunkLength)
	if err := p.ProcessInto(out, in); err != nil {
		return nil, err
	}

	return out, nil
}

// ProcessInto writes the processed input to dst without allocating. Both
// in and dst must be exactly ChunkLength long. On error no state changes.
func (p *Pipeline) ProcessInto(dst, in []int16) error {
	n := p.cfg.ChunkLength
	if len(in) != n {
		return fmt.Errorf("%w: got %d samples, want %d", ErrChunkLength, len(in), n)
	}

	if len(dst) != n {
		return fmt.Errorf("%w: output holds %d samples, want %d", ErrChunkLength, len(dst), n)
	}

	core.Int16ToFloat(p.raw, in)
	vecmath.ScaleBlock(p.norm, p.raw, 1/core.FullScale)

	if err := p.bank.SplitInto(p.bands, p.norm); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	for i, band := range p.bands {
		if p.compress {
			p.comps[i].ProcessInPlace(band)
		}

		core.FloatToInt16(p.ints[i], band, core.FullScale)
	}

	Combine(dst, p.ints...)

	return nil
}

// Reset returns every filter and compressor to its initial state.
func (p *Pipeline) Reset() {
	p.bank.Reset()
	for _, c := range p.comps {
		c.Reset()
	}
}

// Snapshot captures filter delay lines and smoothed gains.
func (p *Pipeline) Snapshot() Snapshot {
	gains := make([]float64, len(p.comps))
	for i, c := range p.comps {
		gains[i] = c.Gain()
	}

	return Snapshot{Filters: p.bank.State(), Gains: gains}
}

// Restore reinstates a Snapshot taken from a pipeline with the same config.
func (p *Pipeline) Restore(s Snapshot) error {
	if len(s.Gains) != len(p.comps) {
		return fmt.Errorf("%w: %d gains for %d bands", ErrSnapshotMismatch, len(s.Gains), len(p.comps))
	}

	if err := p.bank.SetState(s.Filters); err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshotMismatch, err)
	}

	for i, c := range p.comps {
		c.SetGain(s.Gains[i])
	}

	return nil
}

// Metrics returns per-band metering.
func (p *Pipeline) Metrics() []BandMetrics {
	out := make([]BandMetrics, len(p.comps))
	for i, c := range p.comps {
		out[i] = BandMetrics{
			Band:    p.cfg.Bands[i].Band,
			Metrics: c.Metrics(),
			Gain:    c.Gain(),
		}
	}

	return out
}

// ResetMetrics clears per-band metering without touching processing state.
func (p *Pipeline) ResetMetrics() {
	for _, c := range p.comps {
		c.ResetMetrics()
	}
}
