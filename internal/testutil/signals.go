// Package testutil provides deterministic signals and comparison helpers
// shared by package tests.
package testutil

import (
	"math"
	"math/rand"
)

// Sine returns length samples of amplitude*sin(2*pi*freqHz*n/sampleRate),
// starting at sample offset start so consecutive chunks stay phase-continuous.
func Sine(freqHz, sampleRate, amplitude float64, start, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(start+i))
	}

	return out
}

// SineChunk is Sine rounded to 16-bit samples.
func SineChunk(freqHz, sampleRate, amplitude float64, start, length int) []int16 {
	return ToInt16(Sine(freqHz, sampleRate, amplitude, start, length))
}

// Noise returns white noise in [-amplitude, amplitude] from a fixed seed.
func Noise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}

	return out
}

// Impulse returns a chunk of zeros with value at pos.
func Impulse(length, pos int, value int16) []int16 {
	out := make([]int16, length)
	if pos >= 0 && pos < length {
		out[pos] = value
	}

	return out
}

// Constant returns a chunk filled with value.
func Constant(length int, value int16) []int16 {
	out := make([]int16, length)
	for i := range out {
		out[i] = value
	}

	return out
}

// ToInt16 rounds and clamps samples to int16.
func ToInt16(in []float64) []int16 {
	out := make([]int16, len(in))
	for i, v := range in {
		r := math.Round(v)
		switch {
		case r > math.MaxInt16:
			out[i] = math.MaxInt16
		case r < math.MinInt16:
			out[i] = math.MinInt16
		default:
			out[i] = int16(r)
		}
	}

	return out
}

// ToFloat widens int16 samples.
func ToFloat(in []int16) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}

	return out
}

// RMS returns the root-mean-square of in.
func RMS(in []float64) float64 {
	if len(in) == 0 {
		return 0
	}

	var sum float64
	for _, v := range in {
		sum += v * v
	}

	return math.Sqrt(sum / float64(len(in)))
}
