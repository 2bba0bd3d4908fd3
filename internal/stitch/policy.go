package stitch

import (
	"fmt"

	"scroll-stitch/pkg/bitmap"
)

// run carries the bookkeeping of one stitch between frames.
type run struct {
	cfg    Config
	finder *Finder

	width  int         // full-resolution width fixed by the seed
	ref    Accumulated // comparison target
	height int         // running full-resolution composite height
	tail   int         // rows of the last accepted frame below its thumbnail
	misses int         // consecutive "no match" skips
	trace  Trace
}

func newRun(cfg Config, scorer Scorer) *run {
	return &run{cfg: cfg, finder: NewFinder(cfg, scorer)}
}

func (r *run) seeded() bool {
	return r.ref.Thumb != nil
}

// seed accepts the first usable frame unconditionally.
func (r *run) seed(index int, frame, thumb *bitmap.Bitmap) Entry {
	r.width = frame.Width
	r.ref = Seed(thumb, index)
	r.height = frame.Height
	r.tail = frame.Height - thumb.Height*r.cfg.ScaleFactor
	return Entry{
		Frame:    index,
		Compared: -1,
		Decision: DecisionKept,
		Cause:    CauseSeed,
		Reason:   "kept (first frame)",
	}
}

// skip builds an entry for a frame that never reached comparison.
func skip(index int, cause Cause, reason string) Entry {
	return Entry{Frame: index, Compared: -1, Decision: DecisionSkipped, Cause: cause, Reason: reason}
}

// step decides one frame after the seed and updates the run.
func (r *run) step(index int, frame, thumb *bitmap.Bitmap) Entry {
	k := r.cfg.ScaleFactor
	if frame.Width != r.width || thumb.Width != r.ref.Thumb.Width {
		return skip(index, CauseMismatch, "skipped (thumbnail/width mismatch)")
	}

	m := r.finder.Find(r.ref.Thumb, thumb)
	r.trace.Comparisons++

	e := Entry{
		Frame:        index,
		Compared:     r.ref.LastIndex,
		ThumbOverlap: m.Overlap,
		FullOverlap:  r.fullOverlap(m, frame),
		Score:        m.Score,
	}

	if !m.Found {
		if r.cfg.ForceKeepAfter > 0 && r.misses >= r.cfg.ForceKeepAfter {
			misses := r.misses
			r.restart(index, frame, thumb)
			e.ThumbOverlap, e.FullOverlap = 0, 0
			e.Decision = DecisionForceKept
			e.Cause = CauseNoMatch
			e.Reason = fmt.Sprintf("force-kept (%d consecutive misses)", misses)
			return e
		}
		r.misses++
		e.Decision = DecisionSkipped
		e.Cause = CauseNoMatch
		e.Reason = fmt.Sprintf("skipped (no match, score %.2f > %.2f)", m.Score, r.cfg.ScoreThreshold)
		return e
	}
	r.misses = 0

	minNew := r.cfg.minNewRows(thumb.Height)
	if m.NewRows < minNew {
		e.Decision = DecisionSkipped
		e.Cause = CauseBounce
		e.Reason = fmt.Sprintf("skipped (bounce back, %dpx new < %dpx min)", m.NewRows*k, minNew*k)
		return e
	}

	next := Seed(thumb, index)
	if r.cfg.Strategy == StrategyAccumulated {
		var err error
		next, err = r.ref.Extend(thumb, m.NewRows, index, r.cfg)
		if err != nil {
			return skip(index, CauseResource, fmt.Sprintf("skipped (%v)", err))
		}
	}

	overlap := r.fullOverlap(m, frame)
	r.ref = next
	r.height += frame.Height - overlap
	r.tail = frame.Height - thumb.Height*k
	e.FullOverlap = overlap
	e.Decision = DecisionKept
	e.Reason = "kept"
	return e
}

// restart appends frame with no overlap and makes it the new reference.
func (r *run) restart(index int, frame, thumb *bitmap.Bitmap) {
	r.ref = Seed(thumb, index)
	r.height += frame.Height
	r.tail = frame.Height - thumb.Height*r.cfg.ScaleFactor
	r.misses = 0
}

// fullOverlap converts a thumbnail match into composite rows covered by
// frame. The reference thumbnail ends r.tail rows above the composite
// bottom, because thumbnails drop the last H mod k rows of a frame.
func (r *run) fullOverlap(m Match, frame *bitmap.Bitmap) int {
	ov := (r.ref.Thumb.Height-m.MatchRow)*r.cfg.ScaleFactor + r.tail
	return min(max(ov, 0), frame.Height, r.height)
}
