// Package band designs Butterworth band-pass filters as cascades of biquad
// sections.
//
// [ButterworthBandpass] follows the classic analog route: the order-N
// Butterworth low-pass prototype is moved to the band edges with the
// low-pass to band-pass transform, mapped to the z-plane with the bilinear
// transform (edges pre-warped, so the digital filter is exactly -3 dB at
// both cutoffs) and grouped into N second-order sections. Every section has
// the numerator 1 - z^-2, i.e. one zero at DC and one at Nyquist.
package band
