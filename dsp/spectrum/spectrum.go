package spectrum

import "github.com/cwbudde/algo-vecmath"

// MagnitudeInto writes |X[k]| into dst. re and im are scratch space; all
// slices must hold len(in) values.
func MagnitudeInto(dst, re, im []float64, in []complex128) {
	n := len(in)
	re, im = re[:n], im[:n]

	for i, c := range in {
		re[i] = real(c)
		im[i] = imag(c)
	}

	vecmath.Magnitude(dst[:n], re, im)
}
