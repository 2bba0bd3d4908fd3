package stitch

import (
	"math"

	"scroll-stitch/pkg/bitmap"
	"scroll-stitch/pkg/colorutil"
)

// Scorer measures how well frame rows [0, rows) match ref rows
// [matchRow, matchRow+rows). Lower is better; the scale is the mean
// per-channel absolute difference (0-255).
type Scorer interface {
	Score(ref, frame *bitmap.Bitmap, matchRow, rows int) float64
}

// PixelScorer samples every Step pixels of each compared row, skipping
// Margin pixels on both edges.
type PixelScorer struct {
	Step   int
	Margin int
}

// NewPixelScorer returns the default scorer for thumbnails of the given width.
func NewPixelScorer(cfg Config, width int) PixelScorer {
	return PixelScorer{Step: max(cfg.SampleStep, 1), Margin: cfg.margin(width)}
}

// Score implements Scorer.
func (s PixelScorer) Score(ref, frame *bitmap.Bitmap, matchRow, rows int) float64 {
	w := min(ref.Width, frame.Width)
	x0, x1 := s.Margin, w-s.Margin
	if x1 <= x0 {
		x0, x1 = 0, w
	}
	step := max(s.Step, 1)

	var sum, count int
	for r := 0; r < rows; r++ {
		refRow := ref.Row(matchRow + r)
		newRow := frame.Row(r)
		for x := x0; x < x1; x += step {
			i := x * bitmap.BytesPerPixel
			sum += colorutil.AbsDiffRGB(refRow[i:], newRow[i:])
			count += 3
		}
	}
	if count == 0 {
		return math.Inf(1)
	}
	return float64(sum) / float64(count)
}
