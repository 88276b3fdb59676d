package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-wdrc/dsp/buffer"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	defaultQueueDepth   = 4
	defaultDrainTimeout = 2 * time.Second
)

// Summary describes a finished run.
type Summary struct {
	RunID     string
	Chunks    uint64 // chunks delivered to playback
	Overflows uint64 // capture overflows, chunk used best-effort
	Fallbacks uint64 // chunks passed through unprocessed
	Late      uint64 // chunks whose processing exceeded the chunk duration
	Elapsed   time.Duration
}

// Runner connects Capture, Processor and Playback with bounded queues.
// Each stage runs on its own goroutine, chunks keep arrival order and only
// the processing goroutine touches the Processor.
type Runner struct {
	proc     Processor
	capture  Capture
	playback Playback
	taps     []Tap
	log      logrus.FieldLogger
	depth    int
	limit    uint64
	drainFor time.Duration

	pool *buffer.ChunkPool
	id   string

	overflows atomic.Uint64
	fallbacks atomic.Uint64
	late      atomic.Uint64
	delivered atomic.Uint64
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTap adds an observer of every frame.
func WithTap(t Tap) RunnerOption {
	return func(r *Runner) { r.taps = append(r.taps, t) }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logrus.FieldLogger) RunnerOption {
	return func(r *Runner) { r.log = l }
}

// WithQueueDepth sets the capacity of the queues between stages.
func WithQueueDepth(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.depth = n
		}
	}
}

// WithDrainTimeout bounds how long queued chunks may still be processed and
// played after ctx is cancelled. A playback blocked past it is interrupted
// and the remaining chunks are dropped.
func WithDrainTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.drainFor = d
		}
	}
}

// WithMaxChunks stops capture after n chunks. Zero means no limit.
func WithMaxChunks(n uint64) RunnerOption {
	return func(r *Runner) { r.limit = n }
}

// NewRunner returns a runner with a fresh run id.
func NewRunner(proc Processor, capture Capture, playback Playback, opts ...RunnerOption) *Runner {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	r := &Runner{
		proc:     proc,
		capture:  capture,
		playback: playback,
		log:      discard,
		depth:    defaultQueueDepth,
		drainFor: defaultDrainTimeout,
		pool:     buffer.NewChunkPool(proc.ChunkLength()),
		id:       xid.New().String(),
	}

	for _, opt := range opts {
		opt(r)
	}

	r.log = r.log.WithField("run", r.id)

	return r
}

// ID returns the run id attached to every log line.
func (r *Runner) ID() string { return r.id }

// Run streams until capture reports io.EOF, the chunk limit is reached or
// ctx is cancelled. Cancellation is observed between chunks: chunks already
// captured are still processed and played, within the drain timeout. A
// cancelled ctx is a normal stop and returns a nil error. A failing stage
// stops the others and its error is returned. Run does not close capture or
// playback.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	start := time.Now()

	// Downstream stages outlive ctx so queued chunks drain on a normal stop.
	// The drain deadline cuts them off once ctx is done.
	downCtx, cancelDown := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelDown()

	var (
		mu         sync.Mutex
		finished   bool
		drainTimer *time.Timer
	)

	stopWatch := context.AfterFunc(ctx, func() {
		mu.Lock()
		defer mu.Unlock()

		if !finished {
			drainTimer = time.AfterFunc(r.drainFor, cancelDown)
		}
	})

	defer func() {
		stopWatch()

		mu.Lock()
		defer mu.Unlock()

		finished = true
		if drainTimer != nil {
			drainTimer.Stop()
		}
	}()

	g, gctx := errgroup.WithContext(downCtx)

	// Capture also stops when a downstream stage fails.
	capCtx, stopCapture := context.WithCancel(ctx)
	defer stopCapture()

	stop := context.AfterFunc(gctx, stopCapture)
	defer stop()

	raw := make(chan *buffer.Chunk, r.depth)
	processed := make(chan *buffer.Chunk, r.depth)

	g.Go(func() error {
		defer close(raw)
		return r.captureLoop(capCtx, raw)
	})

	g.Go(func() error {
		defer close(processed)
		return r.processLoop(gctx, raw, processed)
	})

	g.Go(func() error {
		return r.playbackLoop(gctx, processed)
	})

	err := g.Wait()

	if err != nil && ctx.Err() != nil && downCtx.Err() != nil && errors.Is(err, context.Canceled) {
		r.log.WithError(err).Warn("drain timeout exceeded, dropped queued chunks")
		err = nil
	}

	s := Summary{
		RunID:     r.id,
		Chunks:    r.delivered.Load(),
		Overflows: r.overflows.Load(),
		Fallbacks: r.fallbacks.Load(),
		Late:      r.late.Load(),
		Elapsed:   time.Since(start),
	}

	r.log.WithFields(logrus.Fields{
		"chunks":    s.Chunks,
		"overflows": s.Overflows,
		"fallbacks": s.Fallbacks,
		"late":      s.Late,
		"elapsed":   s.Elapsed,
	}).Info("stream stopped")

	return s, err
}

func (r *Runner) captureLoop(ctx context.Context, out chan<- *buffer.Chunk) error {
	for seq := uint64(0); r.limit == 0 || seq < r.limit; seq++ {
		if ctx.Err() != nil {
			return nil
		}

		c := r.pool.Get()
		c.Seq = seq

		err := r.capture.ReadChunk(ctx, c.Samples)
		switch {
		case err == nil:
		case errors.Is(err, ErrOverflow):
			r.overflows.Add(1)
			r.log.WithField("chunk", seq).Warn("input overflow, using chunk as read")
		case errors.Is(err, io.EOF):
			r.pool.Put(c)
			r.log.WithField("chunk", seq).Debug("capture finished")

			return nil
		case ctx.Err() != nil:
			r.pool.Put(c)
			return nil
		default:
			r.pool.Put(c)
			return fmt.Errorf("stream: capture chunk %d: %w", seq, err)
		}

		select {
		case out <- c:
		case <-ctx.Done():
			r.pool.Put(c)
			return nil
		}
	}

	return nil
}

func (r *Runner) processLoop(gctx context.Context, in <-chan *buffer.Chunk, out chan<- *buffer.Chunk) error {
	budget := time.Duration(float64(r.proc.ChunkLength()) / r.proc.SampleRate() * float64(time.Second))

	for c := range in {
		if gctx.Err() != nil {
			r.pool.Put(c)
			drain(in, r.pool)

			return nil
		}

		dst := r.pool.Get()
		dst.Seq = c.Seq

		begin := time.Now()
		err := r.proc.ProcessInto(dst.Samples, c.Samples)
		took := time.Since(begin)

		fallback := err != nil
		if fallback {
			r.fallbacks.Add(1)
			r.log.WithError(err).WithField("chunk", c.Seq).Warn("processing failed, passing chunk through")
			FitChunk(dst.Samples, c.Samples)
		}

		if took > budget {
			r.late.Add(1)
			r.log.WithFields(logrus.Fields{"chunk": c.Seq, "took": took, "budget": budget}).Warn("chunk missed deadline")
		}

		if len(r.taps) > 0 {
			f := Frame{Seq: c.Seq, Raw: c.Samples, Processed: dst.Samples, Fallback: fallback, Bands: r.proc.Metrics()}
			for _, t := range r.taps {
				t.Observe(f)
			}

			r.proc.ResetMetrics()
		}

		r.pool.Put(c)

		select {
		case out <- dst:
		case <-gctx.Done():
			r.pool.Put(dst)
			drain(in, r.pool)

			return nil
		}
	}

	return nil
}

func (r *Runner) playbackLoop(gctx context.Context, in <-chan *buffer.Chunk) error {
	for c := range in {
		err := r.playback.WriteChunk(gctx, c.Samples)
		seq := c.Seq
		r.pool.Put(c)

		// Returning cancels gctx, which stops capture and lets the
		// processing stage drain what is left.
		if err != nil {
			return fmt.Errorf("stream: playback chunk %d: %w", seq, err)
		}

		r.delivered.Add(1)
	}

	return nil
}

func drain(in <-chan *buffer.Chunk, pool *buffer.ChunkPool) {
	for c := range in {
		pool.Put(c)
	}
}
