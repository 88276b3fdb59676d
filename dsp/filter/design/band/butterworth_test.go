package band

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-wdrc/dsp/filter/biquad"
)

const testSR = 44100.0

func magnitudeDB(sections []biquad.Coefficients, freq float64) float64 {
	return biquad.NewChain(sections).MagnitudeDB(freq, testSR)
}

func TestButterworthBandpass_SectionCount(t *testing.T) {
	for order := 1; order <= 8; order++ {
		sections, err := ButterworthBandpass(300, 1000, order, testSR)
		if err != nil {
			t.Fatalf("order %d: %v", order, err)
		}
		if len(sections) != order {
			t.Fatalf("order %d: got %d sections", order, len(sections))
		}
	}
}

func TestButterworthBandpass_Response(t *testing.T) {
	tests := []struct {
		name      string
		low, high float64
		order     int
	}{
		{"low band", 20, 300, 5},
		{"mid-low band", 300, 1000, 5},
		{"mid-high band", 1000, 3000, 5},
		{"high band", 3000, 6000, 5},
		{"order 1", 500, 2000, 1},
		{"order 2 near nyquist", 10000, 20000, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sections, err := ButterworthBandpass(tt.low, tt.high, tt.order, testSR)
			if err != nil {
				t.Fatal(err)
			}

			if !biquad.NewChain(sections).Stable() {
				t.Fatal("design is unstable")
			}

			center := CenterFrequency(tt.low, tt.high, testSR)
			if mag := magnitudeDB(sections, center); math.Abs(mag) > 0.01 {
				t.Errorf("center %.1f Hz: %.4f dB, want 0", center, mag)
			}

			for _, edge := range []float64{tt.low, tt.high} {
				mag := magnitudeDB(sections, edge)
				if math.Abs(mag+3.0103) > 0.01 {
					t.Errorf("edge %.1f Hz: %.4f dB, want -3.01", edge, mag)
				}
			}

			for _, f := range []float64{tt.low / 4, math.Min(tt.high*4, testSR/2-1)} {
				if mag := magnitudeDB(sections, f); mag > -6 {
					t.Errorf("stopband %.1f Hz: %.2f dB, want < -6", f, mag)
				}
			}
		})
	}
}

func TestButterworthBandpass_SteeperWithOrder(t *testing.T) {
	lo, err := ButterworthBandpass(1000, 2000, 2, testSR)
	if err != nil {
		t.Fatal(err)
	}
	hi, err := ButterworthBandpass(1000, 2000, 6, testSR)
	if err != nil {
		t.Fatal(err)
	}

	if a, b := magnitudeDB(lo, 4000), magnitudeDB(hi, 4000); b >= a {
		t.Fatalf("order 6 (%.1f dB) not steeper than order 2 (%.1f dB)", b, a)
	}
}

func TestButterworthBandpass_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		low, high float64
		order     int
		sr        float64
	}{
		{"low equals high", 1000, 1000, 4, testSR},
		{"low above high", 2000, 1000, 4, testSR},
		{"zero low", 0, 1000, 4, testSR},
		{"negative low", -10, 1000, 4, testSR},
		{"high at nyquist", 1000, testSR / 2, 4, testSR},
		{"high above nyquist", 1000, 30000, 4, testSR},
		{"NaN cutoff", math.NaN(), 1000, 4, testSR},
		{"zero order", 300, 1000, 0, testSR},
		{"order too high", 300, 1000, MaxOrder + 1, testSR},
		{"zero sample rate", 300, 1000, 4, 0},
		{"infinite sample rate", 300, 1000, 4, math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sections, err := ButterworthBandpass(tt.low, tt.high, tt.order, tt.sr)
			if !errors.Is(err, ErrInvalidParams) {
				t.Fatalf("err = %v, want ErrInvalidParams", err)
			}
			if sections != nil {
				t.Fatal("expected no sections on error")
			}
		})
	}
}

func TestButterworthBandpass_NumeratorShape(t *testing.T) {
	sections, err := ButterworthBandpass(300, 1000, 4, testSR)
	if err != nil {
		t.Fatal(err)
	}

	for i, s := range sections {
		if s.B1 != 0 || s.B2 != -s.B0 || s.B0 <= 0 {
			t.Fatalf("section %d numerator = [%v %v %v], want g*[1 0 -1]", i, s.B0, s.B1, s.B2)
		}
	}

	// Zeros at DC and Nyquist.
	if mag := magnitudeDB(sections, 0); !math.IsInf(mag, -1) && mag > -200 {
		t.Fatalf("DC magnitude = %v dB", mag)
	}
}
