//go:build !gocv

package main

import "scroll-stitch/internal/stitch"

const scorerName = "pixel"

func scorerOptions(stitch.Config) []stitch.Option {
	return nil
}
