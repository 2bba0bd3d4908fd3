//go:build gocv

// Package cvscore verifies overlap candidates with OpenCV. It is built only
// with the gocv tag because it needs the OpenCV shared libraries.
package cvscore

import (
	"image"
	"math"

	"scroll-stitch/internal/stitch"
	"scroll-stitch/pkg/bitmap"

	"gocv.io/x/gocv"
)

// DiffScorer scores a band as the mean absolute per-channel difference,
// computed with cv::absdiff and cv::mean over the region inside the margins.
type DiffScorer struct {
	MarginPercent float64
}

var _ stitch.Scorer = DiffScorer{}

// New returns a scorer using the margin of cfg.
func New(cfg stitch.Config) DiffScorer {
	return DiffScorer{MarginPercent: cfg.MarginPercent}
}

// Score implements stitch.Scorer.
func (s DiffScorer) Score(ref, frame *bitmap.Bitmap, matchRow, rows int) float64 {
	if rows <= 0 || ref.Width != frame.Width {
		return math.Inf(1)
	}

	refMat, err := bandMat(ref, matchRow, rows)
	if err != nil {
		return math.Inf(1)
	}
	defer refMat.Close()

	frameMat, err := bandMat(frame, 0, rows)
	if err != nil {
		return math.Inf(1)
	}
	defer frameMat.Close()

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(refMat, frameMat, &diff)

	w := ref.Width
	margin := int(float64(w) * s.MarginPercent / 100)
	if 2*margin >= w {
		margin = 0
	}
	roi := diff.Region(image.Rect(margin, 0, w-margin, rows))
	defer roi.Close()

	mean := roi.Mean()
	return (mean.Val1 + mean.Val2 + mean.Val3) / 3
}

// bandMat wraps rows [y, y+rows) of b as an 8UC4 Mat. The bytes are
// copied by gocv, so b is never written.
func bandMat(b *bitmap.Bitmap, y, rows int) (gocv.Mat, error) {
	band, err := b.SubRows(y, y+rows)
	if err != nil {
		return gocv.Mat{}, err
	}
	return gocv.NewMatFromBytes(rows, band.Width, gocv.MatTypeCV8UC4, band.Pix)
}
