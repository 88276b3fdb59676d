// Package time computes time-domain level statistics of 16-bit sample
// chunks, in full-scale units and dBFS.
package time

import (
	"math"

	"github.com/cwbudde/algo-wdrc/dsp/core"
)

// Stats holds level statistics. Amplitudes are normalized so that 1.0 is
// full scale (32768).
//
//nolint:revive
type Stats struct {
	Length        int
	DC            float64 // mean
	RMS           float64
	RMS_dBFS      float64
	Peak          float64 // max |x|
	Peak_dBFS     float64
	CrestFactor   float64 // peak / RMS (linear)
	Clipped       int     // samples at either rail
	ZeroCrossings int
}

// ampTodB converts an amplitude value to decibels: 20 * log10(|value|).
// Returns -Inf for zero values.
func ampTodB(value float64) float64 {
	a := math.Abs(value)
	if a == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(a)
}

func emptyStats() Stats {
	return Stats{
		RMS_dBFS:  math.Inf(-1),
		Peak_dBFS: math.Inf(-1),
	}
}

// Calculate computes statistics for one chunk.
func Calculate(chunk []int16) Stats {
	var s Meter
	s.Update(chunk)

	return s.Result()
}

// Meter accumulates statistics across consecutive chunks of one stream.
// Zero crossings spanning a chunk boundary are counted.
type Meter struct {
	n             int
	sum           float64
	sumSq         float64
	peak          float64
	clipped       int
	zeroCrossings int
	last          int16
}

// Update adds a chunk to the running statistics.
func (s *Meter) Update(chunk []int16) {
	for _, v := range chunk {
		x := float64(v) / core.FullScale

		if s.n > 0 && (s.last < 0) != (v < 0) && s.last != 0 && v != 0 {
			s.zeroCrossings++
		}

		s.n++
		s.sum += x
		s.sumSq += x * x
		s.peak = math.Max(s.peak, math.Abs(x))

		if v == core.MaxSample || v == core.MinSample {
			s.clipped++
		}

		s.last = v
	}
}

// Result computes the statistics of everything seen since the last Reset.
func (s *Meter) Result() Stats {
	if s.n == 0 {
		return emptyStats()
	}

	nf := float64(s.n)
	rms := math.Sqrt(s.sumSq / nf)

	var crest float64
	if rms > 0 {
		crest = s.peak / rms
	}

	return Stats{
		Length:        s.n,
		DC:            s.sum / nf,
		RMS:           rms,
		RMS_dBFS:      ampTodB(rms),
		Peak:          s.peak,
		Peak_dBFS:     ampTodB(s.peak),
		CrestFactor:   crest,
		Clipped:       s.clipped,
		ZeroCrossings: s.zeroCrossings,
	}
}

// Reset clears all accumulated data.
func (s *Meter) Reset() {
	*s = Meter{}
}
