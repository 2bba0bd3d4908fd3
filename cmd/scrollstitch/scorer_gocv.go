//go:build gocv

package main

import (
	"scroll-stitch/internal/cvscore"
	"scroll-stitch/internal/stitch"
)

const scorerName = "opencv"

func scorerOptions(cfg stitch.Config) []stitch.Option {
	return []stitch.Option{stitch.WithScorer(cvscore.New(cfg))}
}
