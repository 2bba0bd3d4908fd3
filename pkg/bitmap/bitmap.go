// Package bitmap provides an owned, contiguous RGBA pixel buffer with a
// top-left origin. All stitching math indexes into Bitmap values; raw
// pointers into foreign image backing stores never cross this boundary.
package bitmap

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// BytesPerPixel is fixed: every Bitmap is 8-bit RGBA.
const BytesPerPixel = 4

// ErrInvalidBitmap reports a zero-size or inconsistent buffer.
var ErrInvalidBitmap = errors.New("invalid bitmap")

// Origin describes the row order of an externally produced image.
type Origin int

const (
	TopDown  Origin = iota // Row 0 is the top of the picture
	BottomUp               // Row 0 is the bottom of the picture
)

func (o Origin) String() string {
	switch o {
	case TopDown:
		return "top-down"
	case BottomUp:
		return "bottom-up"
	default:
		return "unknown"
	}
}

// Bitmap is an RGBA pixel buffer. Row y starts at Pix[y*Stride].
type Bitmap struct {
	Width  int
	Height int
	Stride int
	Pix    []byte
}

// New allocates a zeroed bitmap.
func New(width, height int) (*Bitmap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidBitmap, width, height)
	}
	stride := width * BytesPerPixel
	return &Bitmap{
		Width:  width,
		Height: height,
		Stride: stride,
		Pix:    make([]byte, stride*height),
	}, nil
}

// Validate checks that the buffer is large enough for the declared geometry.
func (b *Bitmap) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil", ErrInvalidBitmap)
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidBitmap, b.Width, b.Height)
	}
	if b.Stride < b.Width*BytesPerPixel {
		return fmt.Errorf("%w: stride %d < %d", ErrInvalidBitmap, b.Stride, b.Width*BytesPerPixel)
	}
	if len(b.Pix) < (b.Height-1)*b.Stride+b.Width*BytesPerPixel {
		return fmt.Errorf("%w: buffer %d bytes too short for %dx%d", ErrInvalidBitmap, len(b.Pix), b.Width, b.Height)
	}
	return nil
}

// Row returns the pixels of row y (Width*4 bytes). Panics on out-of-range y,
// like slice indexing.
func (b *Bitmap) Row(y int) []byte {
	if y < 0 || y >= b.Height {
		panic(fmt.Sprintf("bitmap: row %d out of range [0,%d)", y, b.Height))
	}
	off := y * b.Stride
	return b.Pix[off : off+b.Width*BytesPerPixel]
}

// RGBAAt returns the pixel at (x, y), or transparent black outside the bounds.
func (b *Bitmap) RGBAAt(x, y int) color.RGBA {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return color.RGBA{}
	}
	i := y*b.Stride + x*BytesPerPixel
	return color.RGBA{R: b.Pix[i], G: b.Pix[i+1], B: b.Pix[i+2], A: b.Pix[i+3]}
}

// SetRGBA writes the pixel at (x, y). Out-of-range writes are ignored.
func (b *Bitmap) SetRGBA(x, y int, c color.RGBA) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	i := y*b.Stride + x*BytesPerPixel
	b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3] = c.R, c.G, c.B, c.A
}

// Clone returns a deep copy with a tight stride.
func (b *Bitmap) Clone() *Bitmap {
	out, err := New(b.Width, b.Height)
	if err != nil {
		return &Bitmap{}
	}
	for y := 0; y < b.Height; y++ {
		copy(out.Row(y), b.Row(y))
	}
	return out
}

// SubRows returns a copy of rows [y0, y1).
func (b *Bitmap) SubRows(y0, y1 int) (*Bitmap, error) {
	if y0 < 0 || y1 > b.Height || y0 >= y1 {
		return nil, fmt.Errorf("%w: rows [%d,%d) of %d", ErrInvalidBitmap, y0, y1, b.Height)
	}
	out, err := New(b.Width, y1-y0)
	if err != nil {
		return nil, err
	}
	for y := y0; y < y1; y++ {
		copy(out.Row(y-y0), b.Row(y))
	}
	return out, nil
}

// Equal reports whether two bitmaps have the same geometry and pixels.
// Stride padding is ignored.
func Equal(a, b *Bitmap) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Width != b.Width || a.Height != b.Height {
		return false
	}
	for y := 0; y < a.Height; y++ {
		ra, rb := a.Row(y), b.Row(y)
		for i := range ra {
			if ra[i] != rb[i] {
				return false
			}
		}
	}
	return true
}

// VConcat stacks bitmaps of equal width top to bottom.
func VConcat(parts ...*Bitmap) (*Bitmap, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: nothing to concatenate", ErrInvalidBitmap)
	}
	width := parts[0].Width
	height := 0
	for _, p := range parts {
		if p.Width != width {
			return nil, fmt.Errorf("%w: width %d != %d", ErrInvalidBitmap, p.Width, width)
		}
		height += p.Height
	}
	out, err := New(width, height)
	if err != nil {
		return nil, err
	}
	y := 0
	for _, p := range parts {
		for r := 0; r < p.Height; r++ {
			copy(out.Row(y), p.Row(r))
			y++
		}
	}
	return out, nil
}

// FromImage copies img into a new Bitmap. A BottomUp origin flips rows so
// the result is always top-down; this is the only place a flip happens.
func FromImage(img image.Image, origin Origin) (*Bitmap, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidBitmap)
	}
	bounds := img.Bounds()
	out, err := New(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}

	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	rb := rgba.Bounds()
	rowBytes := out.Width * BytesPerPixel
	for y := 0; y < out.Height; y++ {
		src := rgba.PixOffset(rb.Min.X, rb.Min.Y+y)
		dstY := y
		if origin == BottomUp {
			dstY = out.Height - 1 - y
		}
		copy(out.Row(dstY), rgba.Pix[src:src+rowBytes])
	}
	return out, nil
}

// RGBA returns an *image.RGBA view sharing the bitmap's pixels.
func (b *Bitmap) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    b.Pix,
		Stride: b.Stride,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}
