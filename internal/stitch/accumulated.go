package stitch

import (
	"fmt"

	"scroll-stitch/pkg/bitmap"
)

// Accumulated is the thumbnail-resolution tail of everything stitched so
// far. Values are never modified in place; Extend returns a new one.
type Accumulated struct {
	Thumb     *bitmap.Bitmap
	LastIndex int // frame index of the most recently appended frame
}

// Seed starts an accumulated image from one frame's thumbnail.
func Seed(thumb *bitmap.Bitmap, index int) Accumulated {
	return Accumulated{Thumb: thumb, LastIndex: index}
}

// Height returns the accumulated height in thumbnail rows.
func (a Accumulated) Height() int {
	if a.Thumb == nil {
		return 0
	}
	return a.Thumb.Height
}

// Extend appends the bottom newRows rows of thumb and crops the result to
// cfg.CropMultiple frame heights once it exceeds cfg.CapMultiple. Rows
// cropped off the top are already final in the full-resolution composite.
func (a Accumulated) Extend(thumb *bitmap.Bitmap, newRows, index int, cfg Config) (Accumulated, error) {
	if a.Thumb == nil {
		return Seed(thumb, index), nil
	}
	if newRows < 0 || newRows > thumb.Height {
		return a, fmt.Errorf("extend: %d new rows of a %d-row frame", newRows, thumb.Height)
	}

	grown := a.Thumb
	if newRows > 0 {
		tail, err := thumb.SubRows(thumb.Height-newRows, thumb.Height)
		if err != nil {
			return a, fmt.Errorf("extend: %w", err)
		}
		grown, err = bitmap.VConcat(a.Thumb, tail)
		if err != nil {
			return a, fmt.Errorf("extend: %w", err)
		}
	}

	if grown.Height > cfg.CapMultiple*thumb.Height {
		keep := cfg.CropMultiple * thumb.Height
		cropped, err := grown.SubRows(grown.Height-keep, grown.Height)
		if err != nil {
			return a, fmt.Errorf("extend: crop: %w", err)
		}
		grown = cropped
	}
	return Accumulated{Thumb: grown, LastIndex: index}, nil
}
