package pipeline

import (
	"errors"
	"fmt"
	"os"

	"github.com/cwbudde/algo-wdrc/dsp/core"
	"github.com/cwbudde/algo-wdrc/dsp/effects/dynamics"
	"github.com/cwbudde/algo-wdrc/dsp/filter/bank"
	"gopkg.in/yaml.v2"
)

// Defaults used when no config file is given.
const (
	DefaultSampleRate  = 44100.0
	DefaultChunkLength = 256
)

// ErrInvalidConfig wraps configuration problems that are not band or
// compressor parameter errors.
var ErrInvalidConfig = errors.New("pipeline: invalid config")

// BandConfig pairs one filter band with the compressor applied to it.
type BandConfig struct {
	Band       bank.Spec       `yaml:"band"`
	Compressor dynamics.Params `yaml:"compressor"`
}

// Config is the startup configuration of a Pipeline. It is copied by New
// and never changes afterwards.
type Config struct {
	SampleRate  float64      `yaml:"sample_rate"`
	ChunkLength int          `yaml:"chunk_length"`
	Bands       []BandConfig `yaml:"bands"`
}

// DefaultConfig returns four bands at 44.1 kHz with 256-sample chunks.
// Thresholds rise and ratios steepen toward the high band.
func DefaultConfig() Config {
	specs := bank.DefaultSpecs()
	thresholds := []float64{-40, -35, -30, -25}
	ratios := []float64{3, 3.5, 4, 4.5}

	bands := make([]BandConfig, len(specs))
	for i, s := range specs {
		p := dynamics.DefaultParams()
		p.ThresholdDB = thresholds[i]
		p.Ratio = ratios[i]
		bands[i] = BandConfig{Band: s, Compressor: p}
	}

	return Config{
		SampleRate:  DefaultSampleRate,
		ChunkLength: DefaultChunkLength,
		Bands:       bands,
	}
}

// FilterOnlyConfig returns a single 20-6000 Hz band, meant to run with
// WithoutCompression as a plain band-limited pass-through.
func FilterOnlyConfig() Config {
	return Config{
		SampleRate:  DefaultSampleRate,
		ChunkLength: DefaultChunkLength,
		Bands: []BandConfig{{
			Band:       bank.Spec{LowCutoffHz: 20, HighCutoffHz: 6000, Order: 5},
			Compressor: dynamics.DefaultParams(),
		}},
	}
}

// Validate checks every field. Band errors carry the band index and wrap
// band.ErrInvalidParams or dynamics.ErrInvalidParams.
func (c Config) Validate() error {
	if !core.IsFinite(c.SampleRate) || c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %v", ErrInvalidConfig, c.SampleRate)
	}

	if c.ChunkLength <= 0 {
		return fmt.Errorf("%w: chunk length %d", ErrInvalidConfig, c.ChunkLength)
	}

	if len(c.Bands) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, bank.ErrNoBands)
	}

	for i, b := range c.Bands {
		if err := b.Band.Validate(c.SampleRate); err != nil {
			return fmt.Errorf("pipeline: band %d: %w", i, err)
		}

		if err := b.Compressor.Validate(); err != nil {
			return fmt.Errorf("pipeline: band %d: %w", i, err)
		}
	}

	return nil
}

// Specs returns the filter specs in band order.
func (c Config) Specs() []bank.Spec {
	specs := make([]bank.Spec, len(c.Bands))
	for i, b := range c.Bands {
		specs[i] = b.Band
	}

	return specs
}

// ParseConfig decodes YAML over DefaultConfig. Unknown keys are rejected.
// A bands list in the document replaces the default bands entirely.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("pipeline: parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("pipeline: read config: %w", err)
	}

	return ParseConfig(data)
}

// Encode renders c as YAML in the format ParseConfig reads.
func (c Config) Encode() ([]byte, error) {
	return yaml.Marshal(c)
}
