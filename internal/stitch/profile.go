package stitch

import (
	"math"

	"scroll-stitch/pkg/bitmap"
	"scroll-stitch/pkg/colorutil"

	"gonum.org/v1/gonum/floats"
)

// Profile is one mean-brightness value per bitmap row.
type Profile []float64

// RowProfile reduces each row of b to the mean of its R, G and B bytes,
// ignoring margin pixels at both edges.
func RowProfile(b *bitmap.Bitmap, margin int) Profile {
	x0, x1 := margin, b.Width-margin
	if x1 <= x0 {
		x0, x1 = 0, b.Width
	}
	n := float64(3 * (x1 - x0))

	p := make(Profile, b.Height)
	for y := 0; y < b.Height; y++ {
		row := b.Row(y)
		sum := 0
		for x := x0; x < x1; x++ {
			sum += colorutil.SumRGB(row[x*bitmap.BytesPerPixel:])
		}
		p[y] = float64(sum) / n
	}
	return p
}

// rmsDiff is the root-mean-square difference between p[offset:offset+n]
// and q[:n].
func (p Profile) rmsDiff(q Profile, offset, n int) float64 {
	if n <= 0 {
		return math.Inf(1)
	}
	return floats.Distance(p[offset:offset+n], q[:n], 2) / math.Sqrt(float64(n))
}
