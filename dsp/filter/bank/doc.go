// Package bank splits a stream of samples into parallel frequency bands.
//
// Each band is an order-N Butterworth band-pass (see dsp/filter/design/band)
// that owns its delay line. [Bank.Split] filters one chunk into one output
// chunk per band and leaves every delay line where the chunk ended, so the
// next chunk continues the same recursion with no discontinuity at the
// boundary.
//
// [WithPerChunkReset] zeroes every delay line before each chunk instead.
// That reproduces the behavior of recomputing the filter per chunk, which
// produces audible transients at chunk boundaries; it exists for comparison.
//
// Basic usage:
//
//	b, err := bank.New(bank.DefaultSpecs(), 44100)
//	bands := b.Split(chunk) // bands[i][n] is band i at sample n
package bank
