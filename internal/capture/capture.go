// Package capture records a screen region at a fixed interval, producing the
// ordered frame list the stitcher consumes.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"scroll-stitch/pkg/bitmap"

	"github.com/kbinani/screenshot"
)

// ErrNoDisplay is returned when no active display can be found.
var ErrNoDisplay = errors.New("no active displays found")

// GrabFunc captures the pixels inside rect.
type GrabFunc func(rect image.Rectangle) (*image.RGBA, error)

// Recorder grabs Rect every Interval until stopped.
type Recorder struct {
	Rect      image.Rectangle
	Interval  time.Duration
	MaxFrames int // 0 = unlimited

	Grab   GrabFunc     // defaults to screenshot.CaptureRect
	Logger *slog.Logger // optional
}

// PrimaryDisplay returns the bounds of the first active display.
func PrimaryDisplay() (image.Rectangle, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return image.Rectangle{}, ErrNoDisplay
	}
	return screenshot.GetDisplayBounds(0), nil
}

// Record captures frames until ctx is done or MaxFrames is reached. The
// first frame is taken immediately. A failed grab is logged and skipped;
// Record only fails if it could not capture a single frame.
func (r *Recorder) Record(ctx context.Context) ([]*bitmap.Bitmap, error) {
	if r.Rect.Empty() {
		return nil, fmt.Errorf("capture: empty region %v", r.Rect)
	}
	if r.Interval <= 0 {
		return nil, fmt.Errorf("capture: interval must be positive, got %s", r.Interval)
	}
	grab := r.Grab
	if grab == nil {
		grab = screenshot.CaptureRect
	}

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	var frames []*bitmap.Bitmap
	var lastErr error
	for {
		img, err := grab(r.Rect)
		switch {
		case err != nil:
			lastErr = err
			r.log("grab failed", "error", err)
		default:
			b, err := bitmap.FromImage(img, bitmap.TopDown)
			if err != nil {
				lastErr = err
				r.log("convert failed", "error", err)
				break
			}
			frames = append(frames, b)
			r.log("frame captured", "index", len(frames)-1)
		}

		if r.MaxFrames > 0 && len(frames) >= r.MaxFrames {
			break
		}
		select {
		case <-ctx.Done():
			return r.finish(frames, lastErr)
		case <-ticker.C:
		}
	}
	return r.finish(frames, lastErr)
}

func (r *Recorder) finish(frames []*bitmap.Bitmap, lastErr error) ([]*bitmap.Bitmap, error) {
	if len(frames) == 0 {
		if lastErr == nil {
			lastErr = errors.New("stopped before first frame")
		}
		return nil, fmt.Errorf("capture: no frames: %w", lastErr)
	}
	return frames, nil
}

func (r *Recorder) log(msg string, args ...any) {
	if r.Logger != nil {
		r.Logger.Debug(msg, args...)
	}
}
