// Package frequency summarizes the shape of a one-sided spectrum for the
// level readouts of the monitor.
package frequency

import "math"

// RolloffFraction is the energy fraction used for Shape.RolloffHz.
const RolloffFraction = 0.85

// Shape describes where the energy of a spectrum sits.
type Shape struct {
	PeakHz     float64
	PeakDB     float64
	CentroidHz float64 // magnitude-weighted mean frequency
	RolloffHz  float64 // frequency below which RolloffFraction of the energy lies
	Flatness   float64 // geometric over arithmetic mean, 0..1, DC excluded
}

// FromDB computes the shape of a spectrum given in dB per bin, with freqs
// holding the frequency of each bin. A silent spectrum yields zero values
// with PeakDB at -Inf.
func FromDB(db, freqs []float64) Shape {
	n := min(len(db), len(freqs))
	s := Shape{PeakDB: math.Inf(-1)}

	if n == 0 {
		return s
	}

	mag := make([]float64, n)

	var sumMag, energy float64

	for i := range n {
		mag[i] = math.Pow(10, db[i]/20)
		sumMag += mag[i]
		energy += mag[i] * mag[i]

		if db[i] > s.PeakDB {
			s.PeakDB = db[i]
			s.PeakHz = freqs[i]
		}
	}

	if sumMag == 0 {
		return Shape{PeakDB: math.Inf(-1)}
	}

	var weighted float64
	for i, m := range mag {
		weighted += freqs[i] * m
	}

	s.CentroidHz = weighted / sumMag
	s.RolloffHz = rolloff(mag, freqs, energy)
	s.Flatness = flatness(mag)

	return s
}

func rolloff(mag, freqs []float64, energy float64) float64 {
	threshold := RolloffFraction * energy

	var cum float64
	for i, m := range mag {
		cum += m * m
		if cum >= threshold {
			return freqs[i]
		}
	}

	return freqs[len(freqs)-1]
}

func flatness(mag []float64) float64 {
	if len(mag) < 2 {
		return 0
	}

	var sumLin, sumLog float64

	for _, m := range mag[1:] {
		if m <= 0 {
			return 0
		}

		sumLin += m
		sumLog += math.Log(m)
	}

	n := float64(len(mag) - 1)

	return math.Exp(sumLog/n) / (sumLin / n)
}
