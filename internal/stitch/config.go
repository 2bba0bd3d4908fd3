package stitch

import (
	"fmt"
	"math"
)

// Strategy selects what each new frame is compared against.
type Strategy string

const (
	// StrategyAccumulated compares against a running thumbnail of
	// everything stitched so far, which rejects scroll bounce-back.
	StrategyAccumulated Strategy = "accumulated"
	// StrategyPairwise compares against the last accepted frame only.
	StrategyPairwise Strategy = "pairwise"
)

// Config holds every tunable of the stitcher.
type Config struct {
	// Downscale factor for thumbnails
	ScaleFactor int `toml:"scale_factor"`

	// Overlap search window, percent of the new frame's thumbnail height
	MinOverlapPercent float64 `toml:"min_overlap_percent"`
	MaxOverlapPercent float64 `toml:"max_overlap_percent"`

	// Pixel score cutoff on the 0-255 per-channel difference scale
	ScoreThreshold float64 `toml:"score_threshold"`

	// Candidate pruning: best N profile offsets, each widened by ±Spread rows
	TopCandidates   int `toml:"top_candidates"`
	CandidateSpread int `toml:"candidate_spread"`

	// Pixel sampling: every SampleStep pixels (4 px = 16 bytes), skipping
	// MarginPercent of the width on each side (scrollbars)
	SampleStep    int     `toml:"sample_step"`
	MarginPercent float64 `toml:"margin_percent"`

	Strategy Strategy `toml:"strategy"`

	// Accumulated thumbnail is cropped to CropMultiple frame heights once it
	// grows past CapMultiple frame heights
	CapMultiple  int `toml:"cap_multiple"`
	CropMultiple int `toml:"crop_multiple"`

	// Force-keep a frame after this many consecutive "no match" skips (0 = never)
	ForceKeepAfter int `toml:"force_keep_after"`
}

// DefaultConfig returns the tuned defaults for desktop screen captures.
func DefaultConfig() Config {
	return Config{
		ScaleFactor:       4,
		MinOverlapPercent: 20,
		MaxOverlapPercent: 97,
		ScoreThreshold:    35.0,
		TopCandidates:     5,
		CandidateSpread:   1,
		SampleStep:        4,
		MarginPercent:     5,
		Strategy:          StrategyAccumulated,
		CapMultiple:       3,
		CropMultiple:      2,
		ForceKeepAfter:    3,
	}
}

// WithStrategy returns a copy of the config using strategy s.
func (c Config) WithStrategy(s Strategy) Config {
	c.Strategy = s
	return c
}

// WithOverlapRange returns a copy with a custom search window in percent.
func (c Config) WithOverlapRange(minPercent, maxPercent float64) Config {
	c.MinOverlapPercent = minPercent
	c.MaxOverlapPercent = maxPercent
	return c
}

// WithThreshold returns a copy with a custom pixel score cutoff.
func (c Config) WithThreshold(threshold float64) Config {
	c.ScoreThreshold = threshold
	return c
}

// WithForceKeep returns a copy with a custom safety valve (0 disables it).
func (c Config) WithForceKeep(after int) Config {
	c.ForceKeepAfter = after
	return c
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	switch {
	case c.ScaleFactor < 1:
		return fmt.Errorf("scale_factor must be >= 1, got %d", c.ScaleFactor)
	case c.MinOverlapPercent <= 0 || c.MinOverlapPercent >= 100:
		return fmt.Errorf("min_overlap_percent must be in (0,100), got %g", c.MinOverlapPercent)
	case c.MaxOverlapPercent <= c.MinOverlapPercent || c.MaxOverlapPercent >= 100:
		return fmt.Errorf("max_overlap_percent must be in (min_overlap_percent,100), got %g", c.MaxOverlapPercent)
	case c.ScoreThreshold <= 0:
		return fmt.Errorf("score_threshold must be > 0, got %g", c.ScoreThreshold)
	case c.TopCandidates < 1:
		return fmt.Errorf("top_candidates must be >= 1, got %d", c.TopCandidates)
	case c.CandidateSpread < 0:
		return fmt.Errorf("candidate_spread must be >= 0, got %d", c.CandidateSpread)
	case c.SampleStep < 1:
		return fmt.Errorf("sample_step must be >= 1, got %d", c.SampleStep)
	case c.MarginPercent < 0 || c.MarginPercent >= 50:
		return fmt.Errorf("margin_percent must be in [0,50), got %g", c.MarginPercent)
	case c.Strategy != StrategyAccumulated && c.Strategy != StrategyPairwise:
		return fmt.Errorf("unknown strategy %q", c.Strategy)
	case c.CropMultiple < 1 || c.CapMultiple <= c.CropMultiple:
		return fmt.Errorf("need 1 <= crop_multiple < cap_multiple, got %d/%d", c.CropMultiple, c.CapMultiple)
	case c.ForceKeepAfter < 0:
		return fmt.Errorf("force_keep_after must be >= 0, got %d", c.ForceKeepAfter)
	}
	return nil
}

// overlapBounds returns [minOverlapRows, maxOverlapRows] for a frame of
// height h (thumbnail rows).
func (c Config) overlapBounds(h int) (int, int) {
	lo := int(math.Ceil(float64(h)*c.MinOverlapPercent/100 - 1e-9))
	hi := int(math.Floor(float64(h)*c.MaxOverlapPercent/100 + 1e-9))
	return max(lo, 1), hi
}

// minNewRows is the least amount of new content an accepted frame of
// height h must contribute.
func (c Config) minNewRows(h int) int {
	_, hi := c.overlapBounds(h)
	return max(h-hi, 1)
}

// margin returns the number of pixels skipped on each side of a row.
func (c Config) margin(width int) int {
	m := int(float64(width) * c.MarginPercent / 100)
	if 2*m >= width {
		return 0
	}
	return m
}
