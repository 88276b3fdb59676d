package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombineSums(t *testing.T) {
	dst := make([]int16, 3)
	Combine(dst, []int16{1, 2, 3}, []int16{10, -20, 30})
	assert.Equal(t, []int16{11, -18, 33}, dst)
}

func TestCombineSaturates(t *testing.T) {
	hi := []int16{30000, -30000, math.MaxInt16}
	dst := make([]int16, 3)

	Combine(dst, hi, hi, hi, hi)
	assert.Equal(t, []int16{math.MaxInt16, math.MinInt16, math.MaxInt16}, dst)

	// Intermediate sums past the rails must not wrap.
	Combine(dst, []int16{30000, 0, 0}, []int16{30000, 0, 0}, []int16{-30000, 0, 0})
	assert.Equal(t, int16(30000), dst[0])
}

func TestCombineOrderIndependent(t *testing.T) {
	a := []int16{32000, -5, 100, -32768}
	b := []int16{1000, 7, -200, -1}
	c := []int16{-500, 32767, 50, 16000}

	want := make([]int16, 4)
	Combine(want, a, b, c)

	for _, perm := range [][][]int16{{b, c, a}, {c, a, b}, {c, b, a}} {
		got := make([]int16, 4)
		Combine(got, perm...)
		assert.Equal(t, want, got)
	}
}

func TestCombineShortBand(t *testing.T) {
	dst := make([]int16, 4)
	Combine(dst, []int16{1, 1, 1, 1}, []int16{5})
	assert.Equal(t, []int16{6, 1, 1, 1}, dst)
}
