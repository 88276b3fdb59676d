// Package ebiten plays mono 16-bit chunks through the Ebitengine audio
// context, as an alternative to PortAudio on platforms without it.
package ebiten

import (
	"context"
	"fmt"
	"sync"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

// sharedAudioContext returns the process-wide audio context. Ebitengine
// allows only one, so a second sample rate is an error.
func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})

	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("ebiten: audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}

	return audioContext, nil
}

// Output is a Playback that queues chunks for the Ebitengine player, which
// pulls them from its own goroutine.
type Output struct {
	queue  *Queue
	player *ebitaudio.Player
}

// OpenOutput starts a player at sampleRate with room for depth queued
// chunks.
func OpenOutput(sampleRate, depth int) (*Output, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}

	q := NewQueue(depth)

	pl, err := ctx.NewPlayerF32(q)
	if err != nil {
		return nil, fmt.Errorf("ebiten: new player: %w", err)
	}

	pl.Play()

	return &Output{queue: q, player: pl}, nil
}

// WriteChunk blocks while the queue is full.
func (o *Output) WriteChunk(ctx context.Context, chunk []int16) error {
	return o.queue.Push(ctx, chunk)
}

// Underruns returns how many reads found the queue empty.
func (o *Output) Underruns() uint64 { return o.queue.Underruns() }

// Close stops the player.
func (o *Output) Close() error {
	o.player.Pause()
	o.queue.Close()

	return o.player.Close()
}
