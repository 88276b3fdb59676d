package band

import (
	"math"
	"math/cmplx"
	"sort"

	"github.com/cwbudde/algo-wdrc/dsp/filter/biquad"
)

// imagTol separates complex-conjugate z-plane poles from real ones.
const imagTol = 1e-12

// ButterworthBandpass designs an order-N Butterworth band-pass between
// lowHz and highHz. The result has N sections (2N poles), so the delay
// line of the cascade holds 2N values.
func ButterworthBandpass(lowHz, highHz float64, order int, sampleRate float64) ([]biquad.Coefficients, error) {
	if err := Validate(lowHz, highHz, order, sampleRate); err != nil {
		return nil, err
	}

	fs2 := 2 * sampleRate
	wl := fs2 * math.Tan(math.Pi*lowHz/sampleRate)
	wh := fs2 * math.Tan(math.Pi*highHz/sampleRate)
	bw := wh - wl
	w0sq := complex(wl*wh, 0)
	k := complex(fs2, 0)

	// Prototype poles on the left half of the unit circle, shifted to the
	// band: s = p*bw/2 ± sqrt((p*bw/2)^2 - w0^2). The N zeros at s=0 land on
	// z=+1 and the N zeros at infinity on z=-1. The overall gain is
	// (bw*fs2)^N / prod(fs2 - s), accumulated per prototype pole.
	gain := 1.0
	poles := make([]complex128, 0, 2*order)
	for i := range order {
		theta := math.Pi * float64(2*i+order+1) / float64(2*order)
		p := cmplx.Rect(bw/2, theta)
		d := cmplx.Sqrt(p*p - w0sq)
		s1, s2 := p+d, p-d

		poles = append(poles, (k+s1)/(k-s1), (k+s2)/(k-s2))
		gain *= bw * fs2 / (cmplx.Abs(k-s1) * cmplx.Abs(k-s2))
	}

	sections, ok := pairPoles(poles, order)
	if !ok || !finite(gain) || gain <= 0 {
		return nil, ErrInvalidParams
	}

	g := math.Pow(gain, 1/float64(order))
	for i := range sections {
		sections[i].B0 = g
		sections[i].B1 = 0
		sections[i].B2 = -g
	}

	return sections, nil
}

// pairPoles groups 2N z-plane poles into N denominators. Conjugate pairs are
// taken from their upper-half member; real poles are paired in sorted order.
func pairPoles(poles []complex128, order int) ([]biquad.Coefficients, bool) {
	var (
		upper []complex128
		reals []float64
	)

	for _, p := range poles {
		switch {
		case imag(p) > imagTol:
			upper = append(upper, p)
		case imag(p) < -imagTol:
		default:
			reals = append(reals, real(p))
		}
	}

	if len(reals)%2 != 0 || len(upper)+len(reals)/2 != order {
		return nil, false
	}

	sort.Slice(upper, func(i, j int) bool { return cmplx.Phase(upper[i]) < cmplx.Phase(upper[j]) })
	sort.Float64s(reals)

	sections := make([]biquad.Coefficients, 0, order)
	for _, p := range upper {
		sections = append(sections, biquad.Coefficients{
			A1: -2 * real(p),
			A2: real(p)*real(p) + imag(p)*imag(p),
		})
	}

	for i := 0; i < len(reals); i += 2 {
		sections = append(sections, biquad.Coefficients{
			A1: -(reals[i] + reals[i+1]),
			A2: reals[i] * reals[i+1],
		})
	}

	return sections, true
}
