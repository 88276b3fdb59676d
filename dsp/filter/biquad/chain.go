package biquad

import "errors"

// ErrStateSize is returned by SetState when the number of delay lines does
// not match the number of sections.
var ErrStateSize = errors.New("biquad: state size does not match section count")

// Chain is an ordered cascade of sections; each section's output feeds the
// next. A Butterworth band-pass of order N is a Chain of N sections.
type Chain struct {
	sections []Section
}

// NewChain creates a cascade with one Section per Coefficients value.
func NewChain(coeffs []Coefficients) *Chain {
	c := &Chain{sections: make([]Section, len(coeffs))}
	for i := range coeffs {
		c.sections[i].Coefficients = coeffs[i]
	}

	return c
}

// ProcessBlockTo filters src into dst, leaving src untouched. dst must be
// at least len(src) long.
func (c *Chain) ProcessBlockTo(dst, src []float64) {
	out := dst[:len(src)]
	copy(out, src)

	for i := range c.sections {
		c.sections[i].ProcessBlock(out)
	}
}

// Reset clears the delay lines of all sections.
func (c *Chain) Reset() {
	for i := range c.sections {
		c.sections[i].Reset()
	}
}

// NumSections returns the number of sections.
func (c *Chain) NumSections() int {
	return len(c.sections)
}

// State returns a snapshot of all delay lines, one pair per section.
func (c *Chain) State() [][2]float64 {
	states := make([][2]float64, len(c.sections))
	for i := range c.sections {
		states[i] = c.sections[i].State()
	}

	return states
}

// SetState restores delay lines captured by State.
func (c *Chain) SetState(states [][2]float64) error {
	if len(states) != len(c.sections) {
		return ErrStateSize
	}

	for i := range c.sections {
		c.sections[i].SetState(states[i])
	}

	return nil
}
