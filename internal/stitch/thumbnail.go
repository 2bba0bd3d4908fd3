package stitch

import (
	"fmt"
	"image"
	"runtime"

	"scroll-stitch/pkg/bitmap"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// Thumbnail downscales b by the integer factor k. Trailing rows and columns
// that do not fill a whole k×k block are dropped so that a shift of n·k
// source rows maps to exactly n thumbnail rows.
func Thumbnail(b *bitmap.Bitmap, k int) (*bitmap.Bitmap, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if k < 1 {
		return nil, fmt.Errorf("scale factor %d", k)
	}
	if k == 1 {
		return b.Clone(), nil
	}

	w, h := b.Width/k, b.Height/k
	dst, err := bitmap.New(w, h)
	if err != nil {
		return nil, fmt.Errorf("thumbnail of %dx%d at 1/%d: %w", b.Width, b.Height, k, err)
	}
	draw.BiLinear.Scale(dst.RGBA(), image.Rect(0, 0, w, h), b.RGBA(), image.Rect(0, 0, w*k, h*k), draw.Src, nil)
	return dst, nil
}

// buildThumbnails downscales every frame in parallel. Results are positional;
// a frame that cannot be downscaled gets a nil thumbnail and its error.
func buildThumbnails(frames []*bitmap.Bitmap, k int) ([]*bitmap.Bitmap, []error) {
	thumbs := make([]*bitmap.Bitmap, len(frames))
	errs := make([]error, len(frames))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, f := range frames {
		g.Go(func() error {
			thumbs[i], errs[i] = Thumbnail(f, k)
			return nil
		})
	}
	_ = g.Wait()
	return thumbs, errs
}
