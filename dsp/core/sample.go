package core

import "math"

const (
	// MaxSample and MinSample bound a signed 16-bit sample.
	MaxSample = math.MaxInt16
	MinSample = math.MinInt16

	// FullScale is the divisor mapping int16 samples onto [-1, 1).
	FullScale = 32768.0
)

// SaturateInt16 rounds x to the nearest integer and saturates it to the
// int16 range. NaN maps to zero.
func SaturateInt16(x float64) int16 {
	if math.IsNaN(x) {
		return 0
	}

	r := math.Round(x)
	if r >= MaxSample {
		return MaxSample
	}

	if r <= MinSample {
		return MinSample
	}

	return int16(r)
}

// SaturateInt32 narrows an accumulated integer sum to the int16 range.
func SaturateInt32(v int32) int16 {
	if v > MaxSample {
		return MaxSample
	}

	if v < MinSample {
		return MinSample
	}

	return int16(v)
}

// Int16ToFloat converts src into dst without scaling. dst must be at least
// as long as src.
func Int16ToFloat(dst []float64, src []int16) {
	if len(src) == 0 {
		return
	}

	_ = dst[len(src)-1]
	for i, s := range src {
		dst[i] = float64(s)
	}
}

// FloatToInt16 writes scale*src into dst, rounding and saturating each sample.
func FloatToInt16(dst []int16, src []float64, scale float64) {
	if len(src) == 0 {
		return
	}

	_ = dst[len(src)-1]
	for i, x := range src {
		dst[i] = SaturateInt16(x * scale)
	}
}
