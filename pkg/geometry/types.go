// Package geometry provides basic geometric types used by the command line.
package geometry

import (
	"fmt"
	"image"
	"strconv"
	"strings"
)

// RectInt represents a rectangle with integer coordinates.
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ParseRectInt parses "x,y,w,h".
func ParseRectInt(s string) (RectInt, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return RectInt{}, fmt.Errorf("rect %q: want x,y,w,h", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return RectInt{}, fmt.Errorf("rect %q: %w", s, err)
		}
		v[i] = n
	}
	r := RectInt{X: v[0], Y: v[1], Width: v[2], Height: v[3]}
	if r.Width <= 0 || r.Height <= 0 {
		return RectInt{}, fmt.Errorf("rect %q: width and height must be positive", s)
	}
	return r, nil
}

// ToImage converts to an image.Rectangle.
func (r RectInt) ToImage() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// String formats the rectangle as accepted by ParseRectInt.
func (r RectInt) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", r.X, r.Y, r.Width, r.Height)
}
