package spectrum

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-wdrc/dsp/window"
)

// FloorDB is reported for bins with zero magnitude.
const FloorDB = -200.0

var errBlockSize = errors.New("spectrum: block size mismatch")

// Analyzer computes windowed one-sided magnitude spectra of fixed-size
// blocks. It is not safe for concurrent use.
type Analyzer struct {
	size       int
	fftSize    int
	sampleRate float64

	coeffs   []float64
	windowed []float64
	in       []complex128
	out      []complex128
	re       []float64
	im       []float64
	mag      []float64
	plan     *algofft.Plan[complex128]
}

// NewAnalyzer prepares an analyzer for blocks of size samples. The FFT
// length is the next power of two.
func NewAnalyzer(size int, sampleRate float64, win window.Type) (*Analyzer, error) {
	if size <= 1 {
		return nil, fmt.Errorf("spectrum: block size must be > 1: %d", size)
	}

	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("spectrum: sample rate must be positive and finite: %v", sampleRate)
	}

	fftSize := nextPowerOf2(size)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("spectrum: failed to create FFT plan: %w", err)
	}

	return &Analyzer{
		size:       size,
		fftSize:    fftSize,
		sampleRate: sampleRate,
		coeffs:     window.Generate(win, size),
		windowed:   make([]float64, size),
		in:         make([]complex128, fftSize),
		out:        make([]complex128, fftSize),
		re:         make([]float64, fftSize/2+1),
		im:         make([]float64, fftSize/2+1),
		mag:        make([]float64, fftSize/2+1),
		plan:       plan,
	}, nil
}

// Size returns the expected block length.
func (a *Analyzer) Size() int { return a.size }

// FFTSize returns the transform length.
func (a *Analyzer) FFTSize() int { return a.fftSize }

// Bins returns the number of one-sided bins, FFTSize/2+1.
func (a *Analyzer) Bins() int { return len(a.mag) }

// Frequencies returns the center frequency of every bin in Hz.
func (a *Analyzer) Frequencies() []float64 {
	freqs := make([]float64, a.Bins())
	for k := range freqs {
		freqs[k] = float64(k) * a.sampleRate / float64(a.fftSize)
	}

	return freqs
}

// MagnitudeDB writes 20*log10(|X[k]|/Bins) for the windowed block into
// dst, which must hold Bins values.
func (a *Analyzer) MagnitudeDB(dst, block []float64) error {
	if len(block) != a.size {
		return fmt.Errorf("%w: got %d, want %d", errBlockSize, len(block), a.size)
	}

	if len(dst) < a.Bins() {
		return fmt.Errorf("%w: dst holds %d of %d bins", errBlockSize, len(dst), a.Bins())
	}

	if err := window.ApplyCoefficients(a.windowed, block, a.coeffs); err != nil {
		return fmt.Errorf("spectrum: %w", err)
	}

	for i, x := range a.windowed {
		a.in[i] = complex(x, 0)
	}

	for i := a.size; i < a.fftSize; i++ {
		a.in[i] = 0
	}

	if err := a.plan.Forward(a.out, a.in); err != nil {
		return fmt.Errorf("spectrum: forward FFT: %w", err)
	}

	MagnitudeInto(a.mag, a.re, a.im, a.out[:a.Bins()])

	norm := float64(a.Bins())
	for k, m := range a.mag {
		if m <= 0 {
			dst[k] = FloorDB
			continue
		}

		dst[k] = math.Max(20*math.Log10(m/norm), FloorDB)
	}

	return nil
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
