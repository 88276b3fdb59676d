// Package spectrum computes magnitude spectra of sample blocks.
//
// Analyzer windows a block, zero-pads it to a power of two and runs a
// forward FFT from algo-fft. Magnitudes are computed with algo-vecmath
// kernels on split real and imaginary parts.
package spectrum
