package signal

import (
	"math"
	"slices"
	"testing"
)

func TestNextPhaseContinuous(t *testing.T) {
	g, err := NewGenerator(44100, WithSpikes(0, 0))
	if err != nil {
		t.Fatal(err)
	}

	whole, err := NewGenerator(44100, WithSpikes(0, 0))
	if err != nil {
		t.Fatal(err)
	}

	a := make([]int16, 100)
	b := make([]int16, 100)
	g.Next(a)
	g.Next(b)

	all := make([]int16, 200)
	whole.Next(all)

	if !slices.Equal(append(a, b...), all) {
		t.Fatal("consecutive chunks are not phase-continuous")
	}
	if g.Position() != 200 {
		t.Fatalf("Position = %d, want 200", g.Position())
	}
}

func TestNextAmplitude(t *testing.T) {
	g, err := NewGenerator(44100, WithSpikes(0, 0))
	if err != nil {
		t.Fatal(err)
	}

	buf := make([]int16, 4410)
	g.Next(buf)

	var peak int16
	for _, v := range buf {
		if v > peak {
			peak = v
		}
	}

	if want := int16(math.Round(0.5 * 32767)); peak < want-20 || peak > want {
		t.Fatalf("peak = %d, want about %d", peak, want)
	}
}

func TestSpikesDeterministic(t *testing.T) {
	run := func() []bool {
		g, err := NewGenerator(44100, WithSeed(7), WithSpikes(0.3, 10000))
		if err != nil {
			t.Fatal(err)
		}

		flags := make([]bool, 50)
		buf := make([]int16, 64)
		for i := range flags {
			flags[i] = g.Next(buf)
		}

		return flags
	}

	a, b := run(), run()
	if !slices.Equal(a, b) {
		t.Fatal("same seed produced different burst pattern")
	}
	if !slices.Contains(a, true) || !slices.Contains(a, false) {
		t.Fatalf("expected a mix of burst and clean chunks: %v", a)
	}
}

func TestSpikesSaturate(t *testing.T) {
	g, err := NewGenerator(44100, WithTone(0, 30000), WithSpikes(1, 30000))
	if err != nil {
		t.Fatal(err)
	}

	buf := make([]int16, 256)
	if !g.Next(buf) {
		t.Fatal("probability 1 must always burst")
	}

	for i, v := range buf {
		if v < 0 {
			t.Fatalf("sample %d = %d wrapped negative", i, v)
		}
	}
}

func TestResetRewinds(t *testing.T) {
	g, err := NewGenerator(8000, WithSeed(3))
	if err != nil {
		t.Fatal(err)
	}

	first := make([]int16, 512)
	g.Next(first)
	g.Reset()

	again := make([]int16, 512)
	g.Next(again)

	if !slices.Equal(first, again) {
		t.Fatal("Reset did not rewind")
	}
}

func TestNewGeneratorInvalid(t *testing.T) {
	tests := []struct {
		name string
		sr   float64
		opts []Option
	}{
		{"zero rate", 0, nil},
		{"tone above nyquist", 8000, []Option{WithTone(5000, 1)}},
		{"negative probability", 8000, []Option{WithSpikes(-0.1, 1)}},
		{"probability above one", 8000, []Option{WithSpikes(1.5, 1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewGenerator(tt.sr, tt.opts...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
