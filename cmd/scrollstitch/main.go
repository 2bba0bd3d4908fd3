// Command scrollstitch stitches a scrolling capture into one tall PNG.
//
// Frames come either from a directory (sorted by file name) or from
// recording a screen region while the user scrolls.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"scroll-stitch/internal/capture"
	"scroll-stitch/internal/config"
	"scroll-stitch/internal/debugdump"
	frameimage "scroll-stitch/internal/image"
	"scroll-stitch/internal/stitch"
	"scroll-stitch/internal/version"
	"scroll-stitch/pkg/bitmap"
	"scroll-stitch/pkg/geometry"

	"github.com/lmittmann/tint"
)

type options struct {
	dir        string
	out        string
	configPath string
	debugDir   string
	strategy   string
	bottomUp   bool

	record    bool
	interval  time.Duration
	duration  time.Duration
	rect      string
	maxFrames int

	verbose bool
}

func main() {
	var opts options
	flag.StringVar(&opts.dir, "dir", "", "Directory of frames, processed in file name order")
	flag.StringVar(&opts.out, "o", "stitched.png", "Output PNG path")
	flag.StringVar(&opts.configPath, "config", "", "TOML config file (default: user config dir)")
	flag.StringVar(&opts.debugDir, "debug-dir", "", "Write input frames, result and trace to this directory")
	flag.StringVar(&opts.strategy, "strategy", "", "Override strategy: accumulated or pairwise")
	flag.BoolVar(&opts.bottomUp, "bottom-up", false, "Frame files store the bottom row first")
	flag.BoolVar(&opts.record, "record", false, "Record frames from the screen instead of reading -dir")
	flag.DurationVar(&opts.interval, "interval", 250*time.Millisecond, "Capture interval when recording")
	flag.DurationVar(&opts.duration, "duration", 10*time.Second, "Maximum recording time (Ctrl-C stops early)")
	flag.StringVar(&opts.rect, "rect", "", "Capture region x,y,w,h (default: primary display)")
	flag.IntVar(&opts.maxFrames, "max-frames", 0, "Stop recording after this many frames (0 = no limit)")
	flag.BoolVar(&opts.verbose, "v", false, "Log every frame decision")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if opts.dir == "" && !opts.record {
		fmt.Println("Usage: scrollstitch -dir <frames> [-o out.png] | -record [-rect x,y,w,h] [-duration 10s]")
		os.Exit(1)
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
	}))

	if err := run(opts, logger); err != nil {
		logger.Error("scrollstitch failed", "error", err)
		os.Exit(1)
	}
}

func run(opts options, logger *slog.Logger) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.strategy != "" {
		cfg = cfg.WithStrategy(stitch.Strategy(opts.strategy))
	}

	frames, err := loadFrames(opts, logger)
	if err != nil {
		return err
	}
	logger.Info("frames ready", "count", len(frames), "strategy", cfg.Strategy, "scorer", scorerName)

	stitchOpts := append([]stitch.Option{stitch.WithLogger(logger)}, scorerOptions(cfg)...)
	if opts.debugDir != "" {
		stitchOpts = append(stitchOpts, stitch.WithDebugSink(debugdump.Dir{Path: opts.debugDir}))
	}
	s, err := stitch.New(cfg, stitchOpts...)
	if err != nil {
		return err
	}

	start := time.Now()
	outcome := <-s.StitchAsync(frames)
	if outcome.Err != nil {
		return fmt.Errorf("stitch: %w", outcome.Err)
	}
	res := outcome.Result

	if res.Trace.HasGaps() {
		logger.Warn("stitching found no overlap for some frames, result may have gaps")
	}
	if err := frameimage.SavePNG(opts.out, res.Image); err != nil {
		return err
	}
	logger.Info("saved",
		"path", opts.out,
		"width", res.Image.Width,
		"height", res.Image.Height,
		"accepted", len(res.Trace.Accepted),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

func loadFrames(opts options, logger *slog.Logger) ([]*bitmap.Bitmap, error) {
	if opts.record {
		return recordFrames(opts, logger)
	}

	origin := bitmap.TopDown
	if opts.bottomUp {
		origin = bitmap.BottomUp
	}
	logger.Info("loading frames", "dir", opts.dir, "origin", origin.String())
	frames, loadErrs, err := frameimage.LoadDir(opts.dir, origin)
	if err != nil {
		return nil, err
	}
	for _, e := range loadErrs {
		logger.Warn("frame not loaded", "error", e)
	}
	return frames, nil
}

func recordFrames(opts options, logger *slog.Logger) ([]*bitmap.Bitmap, error) {
	region, err := captureRegion(opts.rect)
	if err != nil {
		return nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.duration)
	defer cancel()

	logger.Info("recording, scroll now", "region", region.String(), "interval", opts.interval, "max", opts.duration)
	rec := &capture.Recorder{
		Rect:      region.ToImage(),
		Interval:  opts.interval,
		MaxFrames: opts.maxFrames,
		Logger:    logger,
	}
	return rec.Record(ctx)
}

func captureRegion(rect string) (geometry.RectInt, error) {
	if rect != "" {
		return geometry.ParseRectInt(rect)
	}
	bounds, err := capture.PrimaryDisplay()
	if err != nil {
		return geometry.RectInt{}, err
	}
	return geometry.RectInt{X: bounds.Min.X, Y: bounds.Min.Y, Width: bounds.Dx(), Height: bounds.Dy()}, nil
}
