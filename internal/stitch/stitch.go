// Package stitch combines the frames of a scrolling capture into one tall
// image.
//
// Each frame is downscaled, reduced to a per-row brightness profile and
// aligned against the content stitched so far: a cheap profile sweep
// shortlists offsets, and pixel scoring on the shortlist picks the winner.
// Frames that add no new rows (scroll bounce-back) are skipped. Accepted
// frames are stacked at full resolution with their overlaps removed.
package stitch

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	frameimage "scroll-stitch/internal/image"
	"scroll-stitch/pkg/bitmap"
)

var (
	// ErrNoFrames is returned for an empty input.
	ErrNoFrames = errors.New("no frames to stitch")
	// ErrNoUsableFrames is returned when every frame was rejected.
	ErrNoUsableFrames = errors.New("no usable frames")
)

// Result is the stitched image plus the decision log.
type Result struct {
	Image *bitmap.Bitmap // nil when no frame was usable
	Trace *Trace
}

// Outcome is delivered by StitchAsync.
type Outcome struct {
	Result *Result
	Err    error
}

// DebugSink receives the inputs and output of a stitch for offline
// inspection. Failures are logged and never affect the result.
type DebugSink interface {
	Dump(frames []*bitmap.Bitmap, result *bitmap.Bitmap, trace *Trace) error
}

// Option customises a Stitcher.
type Option func(*Stitcher)

// WithLogger sets the logger used for per-frame decisions.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Stitcher) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithScorer replaces the pixel verification scorer.
func WithScorer(scorer Scorer) Option {
	return func(s *Stitcher) { s.scorer = scorer }
}

// WithDebugSink enables debug dumps.
func WithDebugSink(sink DebugSink) Option {
	return func(s *Stitcher) { s.sink = sink }
}

// Stitcher is safe for sequential reuse; each Stitch call is independent.
type Stitcher struct {
	cfg    Config
	scorer Scorer
	sink   DebugSink
	logger *slog.Logger
}

// New validates cfg and returns a Stitcher.
func New(cfg Config, opts ...Option) (*Stitcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	s := &Stitcher{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the stitcher's configuration.
func (s *Stitcher) Config() Config {
	return s.cfg
}

// StitchAsync runs Stitch on its own goroutine and delivers exactly one
// Outcome on the returned channel.
func (s *Stitcher) StitchAsync(frames []*bitmap.Bitmap) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		res, err := s.Stitch(frames)
		out <- Outcome{Result: res, Err: err}
		close(out)
	}()
	return out
}

// Stitch combines frames, given in presentation order, into one image.
// The returned Result is never nil and always carries a complete trace;
// Result.Image is nil only together with a non-nil error.
func (s *Stitcher) Stitch(frames []*bitmap.Bitmap) (res *Result, err error) {
	res = &Result{Trace: &Trace{}}
	defer func() {
		if p := recover(); p != nil {
			res.Image = nil
			err = fmt.Errorf("stitch: internal error: %v", p)
		}
	}()

	if len(frames) == 0 {
		return res, ErrNoFrames
	}

	if len(frames) == 1 {
		if verr := frames[0].Validate(); verr != nil {
			res.Trace.add(skip(0, CauseResource, fmt.Sprintf("skipped (invalid frame: %v)", verr)))
			return res, ErrNoUsableFrames
		}
		res.Trace.add(Entry{Frame: 0, Compared: -1, Decision: DecisionKept, Cause: CauseSeed, Reason: "kept (first frame)"})
		res.Image = frames[0]
		s.dump(frames, res)
		return res, nil
	}

	thumbs, thumbErrs := buildThumbnails(frames, s.cfg.ScaleFactor)
	r := newRun(s.cfg, s.scorer)
	res.Trace = &r.trace

	for i, frame := range frames {
		var e Entry
		switch {
		case frame.Validate() != nil:
			e = skip(i, CauseResource, fmt.Sprintf("skipped (invalid frame: %v)", frame.Validate()))
		case r.seeded() && frame.Width != r.width:
			e = skip(i, CauseMismatch, "skipped (thumbnail/width mismatch)")
		case thumbErrs[i] != nil:
			e = skip(i, CauseResource, fmt.Sprintf("skipped (thumbnail failed: %v)", thumbErrs[i]))
		case !r.seeded():
			e = r.seed(i, frame, thumbs[i])
		default:
			e = r.step(i, frame, thumbs[i])
		}
		r.trace.add(e)
		s.logger.Debug("frame decision",
			"frame", e.Frame,
			"compared", e.Compared,
			"thumb_overlap", e.ThumbOverlap,
			"overlap", e.FullOverlap,
			"score", e.Score,
			"reason", e.Reason)
	}

	if len(r.trace.Accepted) == 0 {
		s.dump(frames, res)
		return res, ErrNoUsableFrames
	}

	img, err := compose(frames, r.trace.Accepted, r.trace.Overlaps)
	if err != nil {
		return res, fmt.Errorf("compose: %w", err)
	}
	res.Image = img

	s.logger.Info("stitch complete",
		"frames", len(frames),
		"accepted", len(r.trace.Accepted),
		"comparisons", r.trace.Comparisons,
		"width", img.Width,
		"height", img.Height,
		"gaps", r.trace.HasGaps())
	s.dump(frames, res)
	return res, nil
}

func (s *Stitcher) dump(frames []*bitmap.Bitmap, res *Result) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Dump(frames, res.Image, res.Trace); err != nil {
		s.logger.Warn("debug dump failed", "error", err)
	}
}

// compose stacks the accepted frames. A single accepted frame is returned
// as is.
func compose(frames []*bitmap.Bitmap, accepted, overlaps []int) (*bitmap.Bitmap, error) {
	if len(accepted) == 1 {
		return frames[accepted[0]], nil
	}
	parts := make([]*bitmap.Bitmap, len(accepted))
	for i, idx := range accepted {
		parts[i] = frames[idx]
	}
	c, err := frameimage.Stack(parts, overlaps)
	if err != nil {
		return nil, err
	}
	return c.Render()
}

// Stitch runs a one-off stitch with cfg.
func Stitch(frames []*bitmap.Bitmap, cfg Config) (*Result, error) {
	s, err := New(cfg)
	if err != nil {
		return &Result{Trace: &Trace{}}, err
	}
	return s.Stitch(frames)
}
