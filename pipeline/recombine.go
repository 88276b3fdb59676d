package pipeline

import "github.com/cwbudde/algo-wdrc/dsp/core"

// Combine writes the sample-wise sum of bands into dst. Sums are formed in
// int32 and saturated to the int16 range, so the result does not depend on
// band order. Bands shorter than dst contribute silence past their end.
func Combine(dst []int16, bands ...[]int16) {
	for n := range dst {
		var sum int32
		for _, b := range bands {
			if n < len(b) {
				sum += int32(b[n])
			}
		}

		dst[n] = core.SaturateInt32(sum)
	}
}
