// Package biquad provides the second-order IIR runtime used by the band
// filters.
//
// A [Section] runs Direct Form II Transposed over one set of
// [Coefficients]. A [Chain] cascades sections for higher orders and exposes
// its delay lines through [Chain.State] and [Chain.SetState], so a stream
// can be filtered chunk by chunk without restarting from zero state.
//
// Coefficient design lives in dsp/filter/design/band.
package biquad
