// Command wdrc runs the multiband wide dynamic range compressor on a live
// device, a synthetic test signal or a WAV file.
//
// Usage:
//
//	wdrc [flags]
//
// Examples:
//
//	wdrc -in sine -chunks 500 -out sine-wdrc.wav
//	wdrc -in device -play device -monitor 10ms
//	wdrc -in speech.wav -out speech-wdrc.wav
//	wdrc -in device -play ebiten -no-compress
//	wdrc -print-config > wdrc.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-wdrc/device/ebiten"
	"github.com/cwbudde/algo-wdrc/device/portaudio"
	dspsignal "github.com/cwbudde/algo-wdrc/dsp/signal"
	"github.com/cwbudde/algo-wdrc/internal/cpu"
	"github.com/cwbudde/algo-wdrc/internal/logging"
	"github.com/cwbudde/algo-wdrc/monitor"
	"github.com/cwbudde/algo-wdrc/pipeline"
	"github.com/cwbudde/algo-wdrc/stream"
	"github.com/cwbudde/algo-wdrc/wavfile"
)

// errUsage marks bad flags or configuration; main exits with status 2.
var errUsage = errors.New("usage")

type options struct {
	configPath  string
	in          string
	out         string
	play        string
	monitor     time.Duration
	legacyReset bool
	noCompress  bool
	chunks      uint64
	printConfig bool
}

func main() {
	var o options

	flag.StringVar(&o.configPath, "config", "", "YAML pipeline config (default: built-in four bands)")
	flag.StringVar(&o.in, "in", "sine", "input: device, sine or a .wav file")
	flag.StringVar(&o.out, "out", "", "write processed audio to this .wav file")
	flag.StringVar(&o.play, "play", "none", "playback: device, ebiten or none")
	flag.DurationVar(&o.monitor, "monitor", 0, "redraw the terminal monitor at this interval, 0 disables")
	flag.BoolVar(&o.legacyReset, "legacy-reset", false, "restart filters from zero state on every chunk")
	flag.BoolVar(&o.noCompress, "no-compress", false, "band-pass only, compression disabled")
	flag.Uint64Var(&o.chunks, "chunks", 0, "stop after this many chunks, 0 runs until EOF or interrupt")
	flag.BoolVar(&o.printConfig, "print-config", false, "print the effective config as YAML and exit")
	logLevel := flag.String("log-level", "info", "log level: trace, debug, info, warn, error")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: wdrc [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Streams audio through a multiband wide dynamic range compressor.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	log, err := logging.New(os.Stderr, *logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "wdrc:", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = run(ctx, log, o)
	stop()

	if err != nil {
		log.WithError(err).Error("wdrc failed")

		if errors.Is(err, errUsage) {
			os.Exit(2)
		}

		os.Exit(1)
	}
}

func run(ctx context.Context, log *logrus.Logger, o options) error {
	log.WithField("simd", cpu.DetectFeatures().String()).Debug("host features")

	cfg, err := loadConfig(o)
	if err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	var capture stream.Capture

	switch {
	case o.in == "sine" || o.in == "device":
	case strings.HasSuffix(strings.ToLower(o.in), ".wav"):
		src, err := wavfile.OpenSource(o.in)
		if err != nil {
			return fmt.Errorf("%w: %w", errUsage, err)
		}
		defer closeLogged(log, "wav input", src)

		// The file dictates the rate; cutoffs are re-checked against it.
		cfg.SampleRate = float64(src.SampleRate())
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("%w: %s: %w", errUsage, o.in, err)
		}

		capture = src
	default:
		return fmt.Errorf("%w: unknown input %q", errUsage, o.in)
	}

	if o.printConfig {
		data, err := cfg.Encode()
		if err != nil {
			return err
		}

		_, err = os.Stdout.Write(data)

		return err
	}

	var popts []pipeline.Option
	if o.noCompress {
		popts = append(popts, pipeline.WithoutCompression())
	}

	if o.legacyReset {
		popts = append(popts, pipeline.WithPerChunkReset())
	}

	p, err := pipeline.New(cfg, popts...)
	if err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	log.WithFields(logrus.Fields{
		"bands":        p.NumBands(),
		"sample_rate":  p.SampleRate(),
		"chunk_length": p.ChunkLength(),
		"compress":     p.Compressing(),
	}).Info("pipeline ready")

	for i, b := range p.Bands() {
		log.WithFields(logrus.Fields{
			"band":      i,
			"low_hz":    b.LowCutoffHz,
			"high_hz":   b.HighCutoffHz,
			"order":     b.Order,
			"center_hz": b.CenterHz,
			"center_db": b.MagnitudeDB(b.CenterHz, p.SampleRate()),
		}).Debug("band designed")
	}

	if o.in == "device" || o.play == "device" {
		terminate, err := portaudio.Init()
		if err != nil {
			return err
		}
		defer closeFuncLogged(log, "portaudio", terminate)
	}

	switch o.in {
	case "device":
		input, err := portaudio.OpenInput(p.SampleRate(), p.ChunkLength())
		if err != nil {
			return err
		}
		defer closeLogged(log, "device input", input)

		capture = input
	case "sine":
		gen, err := dspsignal.NewGenerator(p.SampleRate())
		if err != nil {
			return err
		}

		sine := stream.NewSineCapture(gen, p.ChunkLength(), o.play != "none" || o.monitor > 0)
		defer func() {
			log.WithField("spikes", sine.Spikes()).Debug("synthetic input finished")
		}()

		capture = sine
	}

	playback, err := openPlayback(log, o, p)
	if err != nil {
		return err
	}
	defer closeLogged(log, "playback", playback)

	ropts := []stream.RunnerOption{
		stream.WithLogger(log),
		stream.WithMaxChunks(o.chunks),
	}

	var monitorDone chan error

	if o.monitor > 0 {
		m, err := monitor.New(p.ChunkLength(), p.SampleRate(), monitor.WithInterval(o.monitor))
		if err != nil {
			return fmt.Errorf("%w: %w", errUsage, err)
		}

		ropts = append(ropts, stream.WithTap(m))

		monCtx, stopMonitor := context.WithCancel(ctx)
		defer stopMonitor()

		monitorDone = make(chan error, 1)
		go func() { monitorDone <- m.Run(monCtx, os.Stdout) }()

		defer func() {
			stopMonitor()

			if err := <-monitorDone; err != nil {
				log.WithError(err).Warn("monitor stopped")
			}
		}()
	}

	runner := stream.NewRunner(p, capture, playback, ropts...)
	log.WithField("run", runner.ID()).Info("streaming, interrupt to stop")

	summary, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	snap := p.Snapshot()
	log.WithFields(logrus.Fields{
		"run":   summary.RunID,
		"gains": snap.Gains,
	}).Debug("final band state")

	return nil
}

func loadConfig(o options) (pipeline.Config, error) {
	switch {
	case o.configPath != "":
		return pipeline.LoadConfig(o.configPath)
	case o.noCompress:
		return pipeline.FilterOnlyConfig(), nil
	default:
		return pipeline.DefaultConfig(), nil
	}
}

func openPlayback(log *logrus.Logger, o options, p *pipeline.Pipeline) (stream.Playback, error) {
	var sinks []stream.Playback

	closeAll := func() {
		for _, s := range sinks {
			closeLogged(log, "playback", s)
		}
	}

	switch o.play {
	case "none":
	case "device":
		out, err := portaudio.OpenOutput(p.SampleRate(), p.ChunkLength())
		if err != nil {
			return nil, err
		}

		sinks = append(sinks, underflowLogger{Output: out, log: log})
	case "ebiten":
		out, err := ebiten.OpenOutput(int(p.SampleRate()), 4)
		if err != nil {
			return nil, err
		}

		sinks = append(sinks, out)
	default:
		return nil, fmt.Errorf("%w: unknown playback %q", errUsage, o.play)
	}

	if o.out != "" {
		rec, err := wavfile.NewRecorder(o.out, int(p.SampleRate()))
		if err != nil {
			closeAll()
			return nil, err
		}

		sinks = append(sinks, recorderLogger{Recorder: rec, log: log})
	}

	switch len(sinks) {
	case 0:
		return stream.Discard{}, nil
	case 1:
		return sinks[0], nil
	default:
		return stream.Tee(sinks...), nil
	}
}

type underflowLogger struct {
	*portaudio.Output
	log logrus.FieldLogger
}

func (u underflowLogger) Close() error {
	if n := u.Underflows(); n > 0 {
		u.log.WithField("underflows", n).Warn("device output underflowed")
	}

	return u.Output.Close()
}

type recorderLogger struct {
	*wavfile.Recorder
	log logrus.FieldLogger
}

func (r recorderLogger) Close() error {
	if err := r.Recorder.Close(); err != nil {
		return err
	}

	r.log.WithFields(logrus.Fields{
		"path":    r.Path(),
		"samples": r.Samples(),
	}).Info("saved")

	return nil
}

type closer interface{ Close() error }

func closeLogged(log logrus.FieldLogger, what string, c closer) {
	if err := c.Close(); err != nil {
		log.WithError(err).Warnf("closing %s", what)
	}
}

func closeFuncLogged(log logrus.FieldLogger, what string, fn func() error) {
	if err := fn(); err != nil {
		log.WithError(err).Warnf("closing %s", what)
	}
}
