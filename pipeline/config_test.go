package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-wdrc/dsp/effects/dynamics"
	"github.com/cwbudde/algo-wdrc/dsp/filter/bank"
	"github.com/cwbudde/algo-wdrc/dsp/filter/design/band"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 44100.0, cfg.SampleRate)
	assert.Equal(t, 256, cfg.ChunkLength)
	require.Len(t, cfg.Bands, 4)

	wantThresholds := []float64{-40, -35, -30, -25}
	wantRatios := []float64{3, 3.5, 4, 4.5}
	for i, b := range cfg.Bands {
		assert.Equal(t, wantThresholds[i], b.Compressor.ThresholdDB, "band %d", i)
		assert.Equal(t, wantRatios[i], b.Compressor.Ratio, "band %d", i)
		assert.Equal(t, 0.01, b.Compressor.AttackTime)
		assert.Equal(t, 0.1, b.Compressor.ReleaseTime)
		assert.Equal(t, 10.0, b.Compressor.MakeupGainDB)
		assert.Equal(t, 5, b.Band.Order)
	}
}

func TestFilterOnlyConfig(t *testing.T) {
	cfg := FilterOnlyConfig()
	require.NoError(t, cfg.Validate())
	require.Len(t, cfg.Bands, 1)
	assert.Equal(t, bank.Spec{LowCutoffHz: 20, HighCutoffHz: 6000, Order: 5}, cfg.Bands[0].Band)

	p, err := New(cfg, WithoutCompression())
	require.NoError(t, err)
	assert.Equal(t, 1, p.NumBands())
	assert.False(t, p.Compressing())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		target error
	}{
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }, ErrInvalidConfig},
		{"zero chunk", func(c *Config) { c.ChunkLength = 0 }, ErrInvalidConfig},
		{"no bands", func(c *Config) { c.Bands = nil }, bank.ErrNoBands},
		{"inverted band", func(c *Config) { c.Bands[1].Band.LowCutoffHz = 2000 }, band.ErrInvalidParams},
		{"band above nyquist", func(c *Config) { c.Bands[3].Band.HighCutoffHz = 30000 }, band.ErrInvalidParams},
		{"zero ratio", func(c *Config) { c.Bands[2].Compressor.Ratio = 0 }, dynamics.ErrInvalidParams},
		{"zero release", func(c *Config) { c.Bands[0].Compressor.ReleaseTime = 0 }, dynamics.ErrInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "err = %v", err)

			p, err := New(cfg)
			assert.Nil(t, p)
			assert.Error(t, err)
		})
	}
}

func TestConfigValidateNamesBand(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bands[1].Band.LowCutoffHz = 2000

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "band 1")
}

func TestParseConfig(t *testing.T) {
	doc := []byte(`
sample_rate: 48000
chunk_length: 512
bands:
  - band: {low_cutoff_hz: 100, high_cutoff_hz: 1000, order: 3}
    compressor: {threshold_db: -30, ratio: 2, attack_time: 0.005, release_time: 0.2, makeup_gain_db: 6}
`)

	cfg, err := ParseConfig(doc)
	require.NoError(t, err)

	assert.Equal(t, 48000.0, cfg.SampleRate)
	assert.Equal(t, 512, cfg.ChunkLength)
	require.Len(t, cfg.Bands, 1)
	assert.Equal(t, bank.Spec{LowCutoffHz: 100, HighCutoffHz: 1000, Order: 3}, cfg.Bands[0].Band)
	assert.Equal(t, dynamics.Params{ThresholdDB: -30, Ratio: 2, AttackTime: 0.005, ReleaseTime: 0.2, MakeupGainDB: 6}, cfg.Bands[0].Compressor)
}

func TestParseConfigKeepsDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("chunk_length: 2048\n"))
	require.NoError(t, err)

	assert.Equal(t, 2048, cfg.ChunkLength)
	assert.Equal(t, DefaultConfig().Bands, cfg.Bands)
}

func TestParseConfigRejects(t *testing.T) {
	_, err := ParseConfig([]byte("chunk_size: 10\n"))
	assert.Error(t, err, "unknown key")

	_, err = ParseConfig([]byte("sample_rate: -1\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadConfigRoundTrip(t *testing.T) {
	want := DefaultConfig()
	want.ChunkLength = 1024

	data, err := want.Encode()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "wdrc.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
