package stitch

import (
	"image/color"
	"math/rand"
	"testing"

	"scroll-stitch/pkg/bitmap"

	"github.com/stretchr/testify/require"
)

// bandPage renders a tall page of horizontal bands with random colors,
// standing in for scrolled document content.
func bandPage(t *testing.T, width, height, band int, seed int64) *bitmap.Bitmap {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	page, err := bitmap.New(width, height)
	require.NoError(t, err)

	var c color.RGBA
	for y := 0; y < height; y++ {
		if y%band == 0 {
			c = color.RGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 255}
		}
		for x := 0; x < width; x++ {
			page.SetRGBA(x, y, c)
		}
	}
	return page
}

// noisePage renders square blocks of random color. Blocks are larger than
// the thumbnail factor so the noise survives downscaling.
func noisePage(t *testing.T, width, height, block int, seed int64) *bitmap.Bitmap {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	page, err := bitmap.New(width, height)
	require.NoError(t, err)

	cols := (width + block - 1) / block
	rows := (height + block - 1) / block
	colors := make([]color.RGBA, cols*rows)
	for i := range colors {
		colors[i] = color.RGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 255}
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			page.SetRGBA(x, y, colors[(y/block)*cols+x/block])
		}
	}
	return page
}

// solidPage renders a uniform bitmap.
func solidPage(t *testing.T, width, height int, c color.RGBA) *bitmap.Bitmap {
	t.Helper()
	page, err := bitmap.New(width, height)
	require.NoError(t, err)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			page.SetRGBA(x, y, c)
		}
	}
	return page
}

// window crops rows [y, y+h) of page, simulating the viewport after scrolling.
func window(t *testing.T, page *bitmap.Bitmap, y, h int) *bitmap.Bitmap {
	t.Helper()
	f, err := page.SubRows(y, y+h)
	require.NoError(t, err)
	return f
}

// scroll returns frames of height h taken every step rows down page.
func scroll(t *testing.T, page *bitmap.Bitmap, h, step, n int) []*bitmap.Bitmap {
	t.Helper()
	frames := make([]*bitmap.Bitmap, n)
	for i := range frames {
		frames[i] = window(t, page, i*step, h)
	}
	return frames
}

func thumb(t *testing.T, b *bitmap.Bitmap, k int) *bitmap.Bitmap {
	t.Helper()
	th, err := Thumbnail(b, k)
	require.NoError(t, err)
	return th
}

func newStitcher(t *testing.T, cfg Config) *Stitcher {
	t.Helper()
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}
