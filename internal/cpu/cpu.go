// Package cpu reports the SIMD extensions of the host, logged at startup
// next to the vector kernels that will run the pipeline.
package cpu

import (
	"strings"
	"sync"
)

// SIMDLevel is a SIMD instruction set extension.
type SIMDLevel int

const (
	SIMDNone SIMDLevel = iota
	SIMDSSE2
	SIMDAVX
	SIMDAVX2
	SIMDAVX512
	SIMDNEON
)

// String returns the conventional name of the level.
func (s SIMDLevel) String() string {
	switch s {
	case SIMDNone:
		return "none"
	case SIMDSSE2:
		return "SSE2"
	case SIMDAVX:
		return "AVX"
	case SIMDAVX2:
		return "AVX2"
	case SIMDAVX512:
		return "AVX-512"
	case SIMDNEON:
		return "NEON"
	default:
		return "unknown"
	}
}

// Features describes the host.
type Features struct {
	Architecture string

	HasSSE2   bool
	HasAVX    bool
	HasAVX2   bool
	HasAVX512 bool
	HasNEON   bool
}

var detect = sync.OnceValue(detectFeaturesImpl)

// DetectFeatures returns the host features, detected once per process.
func DetectFeatures() Features {
	return detect()
}

// Best returns the widest extension available.
func (f Features) Best() SIMDLevel {
	switch {
	case f.HasAVX512:
		return SIMDAVX512
	case f.HasAVX2:
		return SIMDAVX2
	case f.HasAVX:
		return SIMDAVX
	case f.HasSSE2:
		return SIMDSSE2
	case f.HasNEON:
		return SIMDNEON
	default:
		return SIMDNone
	}
}

// String lists the available extensions, e.g. "amd64 SSE2,AVX,AVX2".
func (f Features) String() string {
	var names []string

	for _, l := range []struct {
		ok    bool
		level SIMDLevel
	}{
		{f.HasSSE2, SIMDSSE2},
		{f.HasAVX, SIMDAVX},
		{f.HasAVX2, SIMDAVX2},
		{f.HasAVX512, SIMDAVX512},
		{f.HasNEON, SIMDNEON},
	} {
		if l.ok {
			names = append(names, l.level.String())
		}
	}

	if len(names) == 0 {
		names = append(names, SIMDNone.String())
	}

	return f.Architecture + " " + strings.Join(names, ",")
}
