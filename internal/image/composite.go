package image

import (
	"fmt"

	"scroll-stitch/pkg/bitmap"
)

// Composite stacks frames vertically at full resolution.
type Composite struct {
	Width  int
	Height int
	Layers []*CompositeLayer
}

// CompositeLayer places one frame at a vertical offset in the composite.
type CompositeLayer struct {
	Frame   *bitmap.Bitmap
	OffsetY int
}

// NewComposite creates a new Composite with the specified dimensions.
func NewComposite(width, height int) *Composite {
	return &Composite{
		Width:  width,
		Height: height,
	}
}

// AddLayer adds a frame to the composite. Layers are drawn in the order
// they were added.
func (c *Composite) AddLayer(frame *bitmap.Bitmap, offsetY int) {
	c.Layers = append(c.Layers, &CompositeLayer{
		Frame:   frame,
		OffsetY: offsetY,
	})
}

// Stack builds a composite from frames and the overlaps between neighbours.
// overlaps[i] is the number of top rows of frames[i+1] that duplicate the
// bottom of everything drawn before it.
func Stack(frames []*bitmap.Bitmap, overlaps []int) (*Composite, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("stack: no frames")
	}
	if len(overlaps) != len(frames)-1 {
		return nil, fmt.Errorf("stack: %d overlaps for %d frames", len(overlaps), len(frames))
	}

	width := frames[0].Width
	height := 0
	offsets := make([]int, len(frames))
	for i, f := range frames {
		if f.Width != width {
			return nil, fmt.Errorf("stack: frame %d width %d != %d", i, f.Width, width)
		}
		if i > 0 {
			ov := overlaps[i-1]
			if ov < 0 || ov > f.Height || ov > height {
				return nil, fmt.Errorf("stack: overlap %d out of range for frame %d", ov, i)
			}
			height -= ov
		}
		offsets[i] = height
		height += f.Height
	}

	c := NewComposite(width, height)
	for i, f := range frames {
		c.AddLayer(f, offsets[i])
	}
	return c, nil
}

// Render produces the final composited bitmap. Later layers overwrite
// earlier ones where they overlap.
func (c *Composite) Render() (*bitmap.Bitmap, error) {
	result, err := bitmap.New(c.Width, c.Height)
	if err != nil {
		return nil, err
	}

	for _, cl := range c.Layers {
		if cl.Frame == nil {
			continue
		}
		c.compositeLayer(result, cl)
	}
	return result, nil
}

// compositeLayer copies a layer's rows onto the result, clipping to bounds.
func (c *Composite) compositeLayer(dst *bitmap.Bitmap, cl *CompositeLayer) {
	src := cl.Frame
	n := min(src.Width, c.Width) * bitmap.BytesPerPixel
	for y := 0; y < src.Height; y++ {
		dstY := y + cl.OffsetY
		if dstY < 0 || dstY >= c.Height {
			continue
		}
		copy(dst.Row(dstY)[:n], src.Row(y)[:n])
	}
}
