// Package debugdump writes the inputs and outputs of a stitch to disk for
// offline tuning.
package debugdump

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	frameimage "scroll-stitch/internal/image"
	"scroll-stitch/internal/stitch"
	"scroll-stitch/pkg/bitmap"
)

const (
	resultFile = "result.png"
	traceFile  = "trace.txt"
)

// Dir dumps into a directory: frame_0000.png and so on for each input
// frame, result.png and trace.txt.
type Dir struct {
	Path string
}

var _ stitch.DebugSink = Dir{}

// FrameName returns the file name used for frame i.
func FrameName(i int) string {
	return fmt.Sprintf("frame_%04d.png", i)
}

// Dump implements stitch.DebugSink. Frames that cannot be encoded are
// reported together; the remaining files are still written.
func (d Dir) Dump(frames []*bitmap.Bitmap, result *bitmap.Bitmap, trace *stitch.Trace) error {
	if d.Path == "" {
		return errors.New("debug dump: no directory")
	}
	if err := os.MkdirAll(d.Path, 0o755); err != nil {
		return fmt.Errorf("debug dump: %w", err)
	}

	var errs []error
	for i, f := range frames {
		if f == nil {
			continue
		}
		if err := frameimage.SavePNG(filepath.Join(d.Path, FrameName(i)), f); err != nil {
			errs = append(errs, err)
		}
	}
	if result != nil {
		if err := frameimage.SavePNG(filepath.Join(d.Path, resultFile), result); err != nil {
			errs = append(errs, err)
		}
	}
	if trace != nil {
		if err := os.WriteFile(filepath.Join(d.Path, traceFile), []byte(trace.String()), 0o644); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
