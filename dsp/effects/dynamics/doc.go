// Package dynamics provides the per-band wide dynamic range compressor.
//
// Compressor follows the absolute sample level with a gain smoother that
// uses separate attack and release coefficients, and applies power-law gain
// reduction above a threshold followed by a fixed makeup gain. State is a
// single smoothed gain carried across calls, so consecutive blocks of one
// stream must be fed to the same Compressor.
package dynamics
