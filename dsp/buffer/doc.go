// Package buffer provides sample containers shared between goroutines of a
// streaming pipeline: a rolling window for observers and a pool of
// fixed-length chunks for the hot path.
package buffer
