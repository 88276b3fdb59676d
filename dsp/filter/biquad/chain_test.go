package biquad

import (
	"errors"
	"math"
	"testing"
)

const eps = 1e-12

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func lowpassLike() Coefficients {
	return Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04}
}

func twoSectionCoeffs() []Coefficients {
	return []Coefficients{
		lowpassLike(),
		{B0: 0.1, B1: 0.2, B2: 0.1, A1: -0.5, A2: 0.1},
	}
}

// directForm runs the recurrence sample by sample as a reference.
func directForm(c Coefficients, in []float64) []float64 {
	var d0, d1 float64

	out := make([]float64, len(in))
	for i, x := range in {
		y := c.B0*x + d0
		d0 = c.B1*x - c.A1*y + d1
		d1 = c.B2*x - c.A2*y
		out[i] = y
	}

	return out
}

func TestSection_PassthroughIsIdentity(t *testing.T) {
	var s Section
	s.Coefficients = Coefficients{B0: 1}

	buf := []float64{1, -0.5, 0.25, 0, 3}
	s.ProcessBlock(buf)

	for i, want := range []float64{1, -0.5, 0.25, 0, 3} {
		if buf[i] != want {
			t.Fatalf("sample %d: got %v, want %v", i, buf[i], want)
		}
	}
}

func TestChain_MatchesManualCascade(t *testing.T) {
	input := []float64{1, 0.5, -0.3, 0.7, 0, -1, 0.2, 0.8}
	coeffs := twoSectionCoeffs()
	want := directForm(coeffs[1], directForm(coeffs[0], input))

	dst := make([]float64, len(input))
	NewChain(coeffs).ProcessBlockTo(dst, input)

	for i := range dst {
		if !almostEqual(dst[i], want[i], eps) {
			t.Errorf("sample %d: chain=%.15f, ref=%.15f", i, dst[i], want[i])
		}
	}

	if input[0] != 1 {
		t.Fatal("ProcessBlockTo modified its source")
	}
}

func TestChain_SplitBlocksEqualContinuous(t *testing.T) {
	input := make([]float64, 64)
	for i := range input {
		input[i] = math.Sin(float64(i) * 0.3)
	}

	whole := make([]float64, len(input))
	NewChain(twoSectionCoeffs()).ProcessBlockTo(whole, input)

	split := make([]float64, len(input))
	c := NewChain(twoSectionCoeffs())
	c.ProcessBlockTo(split[:17], input[:17])
	c.ProcessBlockTo(split[17:40], input[17:40])
	c.ProcessBlockTo(split[40:], input[40:])

	for i := range whole {
		if !almostEqual(whole[i], split[i], eps) {
			t.Fatalf("index %d: whole=%v split=%v", i, whole[i], split[i])
		}
	}
}

func TestChain_StateRoundTrip(t *testing.T) {
	c := NewChain(twoSectionCoeffs())
	c.ProcessBlockTo(make([]float64, 2), []float64{1, 0.3})

	saved := c.State()
	a := make([]float64, 1)
	c.ProcessBlockTo(a, []float64{-0.2})

	if err := c.SetState(saved); err != nil {
		t.Fatalf("SetState: %v", err)
	}

	b := make([]float64, 1)
	c.ProcessBlockTo(b, []float64{-0.2})
	if a[0] != b[0] {
		t.Fatalf("restored state diverged: %v vs %v", a[0], b[0])
	}

	if err := c.SetState(make([][2]float64, 3)); !errors.Is(err, ErrStateSize) {
		t.Fatalf("SetState with wrong size: err = %v", err)
	}

	c.Reset()
	for i, st := range c.State() {
		if st != [2]float64{} {
			t.Fatalf("Reset left section %d state %v", i, st)
		}
	}
}

func TestChain_DecayFlushesDenormals(t *testing.T) {
	// Lightly damped resonator: the impulse tail takes thousands of samples
	// to fall below the flush threshold.
	c := NewChain([]Coefficients{{B0: 1, A1: -1.9, A2: 0.95}})

	buf := make([]float64, 256)
	buf[0] = 1
	c.ProcessBlockTo(buf, buf)

	silence := make([]float64, 256)
	for range 200 {
		c.ProcessBlockTo(buf, silence)
	}

	for i, st := range c.State() {
		for j, d := range st {
			if d != 0 {
				t.Fatalf("section %d delay %d = %g, want flushed to 0", i, j, d)
			}
		}
	}

	for i, y := range buf {
		if y != 0 {
			t.Fatalf("output %d = %g after flushed state", i, y)
		}
	}
}

func TestChain_Stable(t *testing.T) {
	if !NewChain(twoSectionCoeffs()).Stable() {
		t.Fatal("expected stable chain")
	}

	unstable := NewChain([]Coefficients{{B0: 1, A1: 0, A2: 1.2}})
	if unstable.Stable() {
		t.Fatal("expected unstable chain")
	}
}

func TestChain_MagnitudeDBAtDC(t *testing.T) {
	c := NewChain([]Coefficients{lowpassLike()})
	// H(1) = (0.25+0.5+0.25)/(1-0.2+0.04)
	want := 20 * math.Log10(1/0.84)
	if got := c.MagnitudeDB(0, 48000); !almostEqual(got, want, 1e-9) {
		t.Fatalf("MagnitudeDB(0) = %v, want %v", got, want)
	}
}
