package band

import (
	"errors"
	"fmt"
	"math"
)

// MaxOrder is the highest supported prototype order.
const MaxOrder = 12

// ErrInvalidParams is returned for band edges, orders or sample rates that
// cannot produce a stable band-pass design.
var ErrInvalidParams = errors.New("band: invalid parameters")

// Validate checks 0 < lowHz < highHz < sampleRate/2 and 1 <= order <= MaxOrder.
func Validate(lowHz, highHz float64, order int, sampleRate float64) error {
	if !finite(sampleRate) || sampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive and finite: %v", ErrInvalidParams, sampleRate)
	}

	if !finite(lowHz) || !finite(highHz) {
		return fmt.Errorf("%w: cutoffs must be finite: %v, %v", ErrInvalidParams, lowHz, highHz)
	}

	nyquist := sampleRate / 2
	if lowHz <= 0 || lowHz >= nyquist {
		return fmt.Errorf("%w: low cutoff %v Hz outside (0, %v)", ErrInvalidParams, lowHz, nyquist)
	}

	if highHz <= 0 || highHz >= nyquist {
		return fmt.Errorf("%w: high cutoff %v Hz outside (0, %v)", ErrInvalidParams, highHz, nyquist)
	}

	if lowHz >= highHz {
		return fmt.Errorf("%w: low cutoff %v Hz not below high cutoff %v Hz", ErrInvalidParams, lowHz, highHz)
	}

	if order < 1 || order > MaxOrder {
		return fmt.Errorf("%w: order %d outside [1, %d]", ErrInvalidParams, order, MaxOrder)
	}

	return nil
}

// CenterFrequency returns the digital center frequency of a band-pass with
// the given edges: the geometric mean of the pre-warped edges mapped back to
// Hz. The response of [ButterworthBandpass] peaks at unity gain there.
func CenterFrequency(lowHz, highHz, sampleRate float64) float64 {
	tl := math.Tan(math.Pi * lowHz / sampleRate)
	th := math.Tan(math.Pi * highHz / sampleRate)

	return sampleRate / math.Pi * math.Atan(math.Sqrt(tl*th))
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
