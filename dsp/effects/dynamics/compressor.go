package dynamics

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-wdrc/dsp/core"
)

const (
	defaultThresholdDB  = -40.0
	defaultRatio        = 3.0
	defaultAttackTime   = 0.01
	defaultReleaseTime  = 0.1
	defaultMakeupGainDB = 10.0

	// Goal gain bounds, +-120 dB.
	minGoalGain = 1e-6
	maxGoalGain = 1e6
)

// ln9 makes a time constant the time to cover 8/9 of a step.
var ln9 = math.Log(9)

// ErrInvalidParams is returned for non-finite or out-of-range parameters.
var ErrInvalidParams = errors.New("dynamics: invalid compressor parameters")

// Params configures a Compressor. Times are in seconds.
type Params struct {
	ThresholdDB  float64 `yaml:"threshold_db"`
	Ratio        float64 `yaml:"ratio"`
	AttackTime   float64 `yaml:"attack_time"`
	ReleaseTime  float64 `yaml:"release_time"`
	MakeupGainDB float64 `yaml:"makeup_gain_db"`
}

// DefaultParams returns the low band defaults: -40 dB, 3:1, 10 ms attack,
// 100 ms release, 10 dB makeup.
func DefaultParams() Params {
	return Params{
		ThresholdDB:  defaultThresholdDB,
		Ratio:        defaultRatio,
		AttackTime:   defaultAttackTime,
		ReleaseTime:  defaultReleaseTime,
		MakeupGainDB: defaultMakeupGainDB,
	}
}

// Validate reports whether p can build a Compressor.
func (p Params) Validate() error {
	switch {
	case !core.IsFinite(p.ThresholdDB):
		return fmt.Errorf("%w: threshold %v dB", ErrInvalidParams, p.ThresholdDB)
	case !core.IsFinite(p.MakeupGainDB):
		return fmt.Errorf("%w: makeup gain %v dB", ErrInvalidParams, p.MakeupGainDB)
	case !core.IsFinite(p.Ratio) || p.Ratio <= 0:
		return fmt.Errorf("%w: ratio %v must be > 0", ErrInvalidParams, p.Ratio)
	case !core.IsFinite(p.AttackTime) || p.AttackTime <= 0:
		return fmt.Errorf("%w: attack time %v s must be > 0", ErrInvalidParams, p.AttackTime)
	case !core.IsFinite(p.ReleaseTime) || p.ReleaseTime <= 0:
		return fmt.Errorf("%w: release time %v s must be > 0", ErrInvalidParams, p.ReleaseTime)
	}

	return nil
}

// Metrics holds metering since the last reset.
type Metrics struct {
	InputPeak  float64 // largest |x|
	OutputPeak float64 // largest |y|
	MinGain    float64 // smallest smoothed gain, 1 means no reduction
}

// Compressor is a feed-forward WDRC stage for one band.
//
// Per sample the goal gain is (|x|/threshold)^(1-ratio) above the threshold
// and 1 below it. The smoothed gain moves toward the goal with the attack
// coefficient when the goal is lower and the release coefficient otherwise.
// Output is makeup * gain * x.
//
// A Compressor is not safe for concurrent use.
type Compressor struct {
	params     Params
	sampleRate float64

	alphaAttack  float64
	alphaRelease float64
	thresholdLin float64
	makeupLin    float64
	exponent     float64 // 1 - ratio

	gain    float64
	metrics Metrics
}

// NewCompressor validates params and caches the per-sample coefficients.
func NewCompressor(params Params, sampleRate float64) (*Compressor, error) {
	if !core.IsFinite(sampleRate) || sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %v", ErrInvalidParams, sampleRate)
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}

	c := &Compressor{
		params:       params,
		sampleRate:   sampleRate,
		alphaAttack:  math.Exp(-ln9 / (sampleRate * params.AttackTime)),
		alphaRelease: math.Exp(-ln9 / (sampleRate * params.ReleaseTime)),
		thresholdLin: core.DBToLinear(params.ThresholdDB),
		makeupLin:    core.DBToLinear(params.MakeupGainDB),
		exponent:     1 - params.Ratio,
	}
	c.Reset()

	return c, nil
}

// Params returns the parameters the compressor was built with.
func (c *Compressor) Params() Params { return c.params }

// SampleRate returns the sample rate in Hz.
func (c *Compressor) SampleRate() float64 { return c.sampleRate }

// AttackCoeff returns the cached attack smoothing coefficient.
func (c *Compressor) AttackCoeff() float64 { return c.alphaAttack }

// ReleaseCoeff returns the cached release smoothing coefficient.
func (c *Compressor) ReleaseCoeff() float64 { return c.alphaRelease }

// Gain returns the current smoothed gain.
func (c *Compressor) Gain() float64 { return c.gain }

// SetGain overrides the smoothed gain, used to restore a checkpoint.
// Non-finite or non-positive values reset it to 1.
func (c *Compressor) SetGain(g float64) {
	if !core.IsFinite(g) || g <= 0 {
		g = 1
	}

	c.gain = g
}

// GoalGain returns the static gain for a level, before smoothing and makeup.
func (c *Compressor) GoalGain(level float64) float64 {
	level = math.Abs(level)
	if level <= c.thresholdLin {
		return 1
	}

	g := math.Pow(level/c.thresholdLin, c.exponent)
	if math.IsNaN(g) {
		return minGoalGain
	}

	return core.Clamp(g, minGoalGain, maxGoalGain)
}

// ProcessSample compresses one sample.
func (c *Compressor) ProcessSample(x float64) float64 {
	level := math.Abs(x)
	goal := c.GoalGain(level)

	alpha := c.alphaRelease
	if goal < c.gain {
		alpha = c.alphaAttack
	}

	c.gain = alpha*c.gain + (1-alpha)*goal
	y := c.makeupLin * c.gain * x

	if level > c.metrics.InputPeak {
		c.metrics.InputPeak = level
	}
	if a := math.Abs(y); a > c.metrics.OutputPeak {
		c.metrics.OutputPeak = a
	}
	if c.gain < c.metrics.MinGain {
		c.metrics.MinGain = c.gain
	}

	return y
}

// ProcessBlock compresses src into dst. dst and src may alias; dst must be
// at least len(src) long.
func (c *Compressor) ProcessBlock(dst, src []float64) {
	if len(src) == 0 {
		return
	}

	_ = dst[len(src)-1]
	for i, x := range src {
		dst[i] = c.ProcessSample(x)
	}
}

// ProcessInPlace compresses buf in place.
func (c *Compressor) ProcessInPlace(buf []float64) {
	c.ProcessBlock(buf, buf)
}

// Metrics returns metering since the last reset.
func (c *Compressor) Metrics() Metrics { return c.metrics }

// ResetMetrics clears metering only.
func (c *Compressor) ResetMetrics() {
	c.metrics = Metrics{MinGain: 1}
}

// Reset returns the smoothed gain to 1 and clears metering.
func (c *Compressor) Reset() {
	c.gain = 1
	c.ResetMetrics()
}
