// Package colorutil provides shared color utilities for the stitcher.
package colorutil

import (
	"image/color"
)

// Common colors for synthetic test frames.
var (
	Black   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Cyan    = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Blue    = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	Green   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Yellow  = color.RGBA{R: 255, G: 255, B: 0, A: 255}
)

// SumRGB returns R+G+B of a packed RGBA pixel (alpha ignored).
func SumRGB(px []byte) int {
	return int(px[0]) + int(px[1]) + int(px[2])
}

// AbsDiffRGB returns the summed per-channel absolute difference of two
// packed RGBA pixels, in 0..765.
func AbsDiffRGB(a, b []byte) int {
	return absDiff(a[0], b[0]) + absDiff(a[1], b[1]) + absDiff(a[2], b[2])
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
