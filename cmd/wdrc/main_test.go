package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-wdrc/pipeline"
	"github.com/cwbudde/algo-wdrc/stream"
	"github.com/cwbudde/algo-wdrc/wavfile"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return l
}

func readAll(t *testing.T, path string, chunk int) []int16 {
	t.Helper()

	src, err := wavfile.OpenSource(path)
	require.NoError(t, err)
	defer src.Close()

	var out []int16
	buf := make([]int16, chunk)

	for {
		err := src.ReadChunk(context.Background(), buf)
		if errors.Is(err, io.EOF) {
			return out
		}

		require.NoError(t, err)
		out = append(out, buf...)
	}
}

func TestRunSineToWav(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.wav")

	err := run(context.Background(), quietLogger(), options{in: "sine", play: "none", out: out, chunks: 5})
	require.NoError(t, err)

	samples := readAll(t, out, pipeline.DefaultChunkLength)
	assert.Len(t, samples, 5*pipeline.DefaultChunkLength)
}

func TestRunWavToWav(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	out := filepath.Join(dir, "out.wav")

	chunks := make([][]int16, 3)
	for i := range chunks {
		chunks[i] = make([]int16, pipeline.DefaultChunkLength)
		chunks[i][0] = 1000
	}

	f, err := os.Create(in)
	require.NoError(t, err)
	require.NoError(t, wavfile.Save(f, chunks, 44100, 1, 16))
	require.NoError(t, f.Close())

	err = run(context.Background(), quietLogger(), options{in: in, play: "none", out: out, noCompress: true})
	require.NoError(t, err)

	samples := readAll(t, out, pipeline.DefaultChunkLength)
	assert.Len(t, samples, 3*pipeline.DefaultChunkLength)
}

func TestRunRejectsBadFlags(t *testing.T) {
	for _, o := range []options{
		{in: "microphone", play: "none"},
		{in: "sine", play: "speaker"},
		{in: "missing.wav", play: "none"},
		{in: "sine", play: "none", configPath: "missing.yaml"},
	} {
		err := run(context.Background(), quietLogger(), o)
		assert.ErrorIs(t, err, errUsage, "%+v", o)
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig(options{})
	require.NoError(t, err)
	assert.Len(t, cfg.Bands, 4)

	cfg, err = loadConfig(options{noCompress: true})
	require.NoError(t, err)
	assert.Len(t, cfg.Bands, 1)

	path := filepath.Join(t.TempDir(), "wdrc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunk_length: 512\n"), 0o600))

	cfg, err = loadConfig(options{configPath: path, noCompress: true})
	require.NoError(t, err)
	assert.Equal(t, 512, cfg.ChunkLength)
	assert.Len(t, cfg.Bands, 4)
}

func TestOpenPlaybackWithoutSinks(t *testing.T) {
	p, err := pipeline.New(pipeline.DefaultConfig())
	require.NoError(t, err)

	pb, err := openPlayback(quietLogger(), options{play: "none"}, p)
	require.NoError(t, err)
	assert.Equal(t, stream.Discard{}, pb)
}
