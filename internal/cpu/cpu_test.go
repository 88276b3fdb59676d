package cpu

import (
	"runtime"
	"testing"
)

func TestDetectFeatures(t *testing.T) {
	f := DetectFeatures()
	if f.Architecture != runtime.GOARCH {
		t.Fatalf("Architecture = %q, want %q", f.Architecture, runtime.GOARCH)
	}

	if runtime.GOARCH == "amd64" && !f.HasSSE2 {
		t.Fatal("amd64 must report SSE2")
	}

	if DetectFeatures() != f {
		t.Fatal("detection is not stable")
	}
}

func TestBest(t *testing.T) {
	tests := []struct {
		f    Features
		want SIMDLevel
	}{
		{Features{}, SIMDNone},
		{Features{HasSSE2: true}, SIMDSSE2},
		{Features{HasSSE2: true, HasAVX: true, HasAVX2: true}, SIMDAVX2},
		{Features{HasSSE2: true, HasAVX2: true, HasAVX512: true}, SIMDAVX512},
		{Features{HasNEON: true}, SIMDNEON},
	}

	for _, tt := range tests {
		if got := tt.f.Best(); got != tt.want {
			t.Errorf("%+v.Best() = %v, want %v", tt.f, got, tt.want)
		}
	}
}

func TestString(t *testing.T) {
	f := Features{Architecture: "amd64", HasSSE2: true, HasAVX2: true}
	if got, want := f.String(), "amd64 SSE2,AVX2"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	if got, want := (Features{Architecture: "wasm"}).String(), "wasm none"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	if got := SIMDLevel(99).String(); got != "unknown" {
		t.Errorf("SIMDLevel(99).String() = %q", got)
	}
}
