// Package signal generates deterministic test signals as 16-bit chunks.
package signal

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-wdrc/dsp/core"
)

const (
	defaultFreqHz    = 440.0
	defaultAmplitude = 0.5 * core.MaxSample
	defaultSpikeProb = 0.05
)

// Generator produces a phase-continuous sine, chunk by chunk, with optional
// broadband bursts: with probability SpikeProbability a whole chunk gets
// uniform positive noise of up to SpikeAmplitude added on top of the tone.
type Generator struct {
	sampleRate float64
	freqHz     float64
	amplitude  float64

	spikeProb float64
	spikeAmp  float64

	seed int64
	rng  *rand.Rand
	pos  int
}

// Option configures a Generator.
type Option func(*Generator)

// WithTone sets the sine frequency and peak amplitude in sample units.
func WithTone(freqHz, amplitude float64) Option {
	return func(g *Generator) {
		g.freqHz = freqHz
		g.amplitude = amplitude
	}
}

// WithSpikes sets the per-chunk burst probability and burst amplitude.
// A probability of 0 disables bursts.
func WithSpikes(probability, amplitude float64) Option {
	return func(g *Generator) {
		g.spikeProb = probability
		g.spikeAmp = amplitude
	}
}

// WithSeed sets the deterministic random seed for bursts.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// NewGenerator returns a 440 Hz half-scale tone with bursts in 5% of
// chunks unless overridden by opts.
func NewGenerator(sampleRate float64, opts ...Option) (*Generator, error) {
	g := &Generator{
		sampleRate: sampleRate,
		freqHz:     defaultFreqHz,
		amplitude:  defaultAmplitude,
		spikeProb:  defaultSpikeProb,
		spikeAmp:   defaultAmplitude,
		seed:       1,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	switch {
	case !core.IsFinite(sampleRate) || sampleRate <= 0:
		return nil, fmt.Errorf("signal: sample rate must be > 0: %f", sampleRate)
	case !core.IsFinite(g.freqHz) || g.freqHz < 0 || g.freqHz >= sampleRate/2:
		return nil, fmt.Errorf("signal: tone frequency must be in [0, %f): %f", sampleRate/2, g.freqHz)
	case g.spikeProb < 0 || g.spikeProb > 1:
		return nil, fmt.Errorf("signal: spike probability must be in [0, 1]: %f", g.spikeProb)
	}

	g.rng = rand.New(rand.NewSource(g.seed))

	return g, nil
}

// SampleRate returns the sample rate in Hz.
func (g *Generator) SampleRate() float64 { return g.sampleRate }

// Position returns the number of samples generated so far.
func (g *Generator) Position() int { return g.pos }

// Next fills dst with the next len(dst) samples and reports whether a burst
// was added. Samples are saturated to the int16 range.
func (g *Generator) Next(dst []int16) bool {
	spiked := g.spikeProb > 0 && g.rng.Float64() < g.spikeProb

	step := 2 * math.Pi * g.freqHz / g.sampleRate
	for i := range dst {
		v := g.amplitude * math.Sin(step*float64(g.pos+i))
		if spiked {
			v += g.spikeAmp * g.rng.Float64()
		}

		dst[i] = core.SaturateInt16(v)
	}

	g.pos += len(dst)

	return spiked
}

// Reset rewinds the phase and reseeds the burst generator.
func (g *Generator) Reset() {
	g.pos = 0
	g.rng = rand.New(rand.NewSource(g.seed))
}
