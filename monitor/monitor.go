// Package monitor keeps a rolling view of the stream for display: a window
// of raw input, the spectrum of the latest processed chunk, level readouts
// and per-band gain reduction.
package monitor

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cwbudde/algo-vecmath"
	"github.com/cwbudde/algo-wdrc/dsp/buffer"
	"github.com/cwbudde/algo-wdrc/dsp/core"
	"github.com/cwbudde/algo-wdrc/dsp/spectrum"
	"github.com/cwbudde/algo-wdrc/dsp/window"
	"github.com/cwbudde/algo-wdrc/pipeline"
	"github.com/cwbudde/algo-wdrc/stats/frequency"
	stats "github.com/cwbudde/algo-wdrc/stats/time"
	"github.com/cwbudde/algo-wdrc/stream"
)

const (
	// DefaultHistory is the raw window length in chunks.
	DefaultHistory = 50
	// DefaultInterval is the redraw cadence.
	DefaultInterval = 10 * time.Millisecond
	// DefaultWidth is the number of columns used by the graphs.
	DefaultWidth = 64
)

type options struct {
	history  int
	interval time.Duration
	width    int
}

// Option configures a Monitor.
type Option func(*options)

// WithHistory sets the raw window length in chunks.
func WithHistory(chunks int) Option {
	return func(o *options) { o.history = chunks }
}

// WithInterval sets the redraw cadence of Run.
func WithInterval(d time.Duration) Option {
	return func(o *options) { o.interval = d }
}

// WithWidth sets the graph width in columns.
func WithWidth(cols int) Option {
	return func(o *options) { o.width = cols }
}

// View is a consistent copy of the monitor state.
type View struct {
	Seq       uint64
	Fallbacks uint64
	Window    []int16 // raw input, oldest first
	Input     stats.Stats
	Output    stats.Stats
	Freqs     []float64
	Spectrum  []float64 // dB per bin of the latest processed chunk
	Shape     frequency.Shape
	Bands     []pipeline.BandMetrics
}

// Monitor is a stream.Tap. Observe is called by the processing goroutine;
// View and Run may be used from any other goroutine.
type Monitor struct {
	opts options

	ring *buffer.Ring

	mu        sync.Mutex
	seq       uint64
	fallbacks uint64
	processed []int16
	bands     []pipeline.BandMetrics
	analyzer  *spectrum.Analyzer
	block     []float64
}

var _ stream.Tap = (*Monitor)(nil)

// New returns a monitor for chunks of chunkLength samples at sampleRate.
func New(chunkLength int, sampleRate float64, opts ...Option) (*Monitor, error) {
	o := options{history: DefaultHistory, interval: DefaultInterval, width: DefaultWidth}
	for _, opt := range opts {
		opt(&o)
	}

	if chunkLength <= 1 {
		return nil, fmt.Errorf("monitor: chunk length must be > 1: %d", chunkLength)
	}

	if o.history < 1 || o.width < 1 || o.interval <= 0 {
		return nil, fmt.Errorf("monitor: invalid options: history=%d width=%d interval=%v", o.history, o.width, o.interval)
	}

	a, err := spectrum.NewAnalyzer(chunkLength, sampleRate, window.TypeHann)
	if err != nil {
		return nil, fmt.Errorf("monitor: %w", err)
	}

	return &Monitor{
		opts:      o,
		ring:      buffer.NewRing(chunkLength * o.history),
		processed: make([]int16, chunkLength),
		analyzer:  a,
		block:     make([]float64, chunkLength),
	}, nil
}

// Observe records one frame.
func (m *Monitor) Observe(f stream.Frame) {
	m.ring.Write(f.Raw)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq = f.Seq
	if f.Fallback {
		m.fallbacks++
	}

	stream.FitChunk(m.processed, f.Processed)
	m.bands = append(m.bands[:0], f.Bands...)
}

// View returns a copy of the current state with the spectrum computed.
func (m *Monitor) View() View {
	win := make([]int16, m.ring.Cap())
	m.ring.Snapshot(win)

	m.mu.Lock()
	defer m.mu.Unlock()

	v := View{
		Seq:       m.seq,
		Fallbacks: m.fallbacks,
		Window:    win,
		Input:     stats.Calculate(win),
		Output:    stats.Calculate(m.processed),
		Freqs:     m.analyzer.Frequencies(),
		Spectrum:  make([]float64, m.analyzer.Bins()),
		Bands:     append([]pipeline.BandMetrics(nil), m.bands...),
	}

	core.Int16ToFloat(m.block, m.processed)
	vecmath.ScaleBlock(m.block, m.block, 1/core.FullScale)

	if err := m.analyzer.MagnitudeDB(v.Spectrum, m.block); err != nil {
		for i := range v.Spectrum {
			v.Spectrum[i] = spectrum.FloorDB
		}
	}

	v.Shape = frequency.FromDB(v.Spectrum, v.Freqs)

	return v
}

// Run redraws the view to w on every tick until ctx is done.
func (m *Monitor) Run(ctx context.Context, w io.Writer) error {
	ticker := time.NewTicker(m.opts.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := io.WriteString(w, clearScreen+Render(m.View(), m.opts.width)); err != nil {
				return fmt.Errorf("monitor: write: %w", err)
			}
		}
	}
}
