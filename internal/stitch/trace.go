package stitch

import (
	"fmt"
	"strings"
)

// Decision is the outcome recorded for one frame.
type Decision int

const (
	DecisionKept Decision = iota
	DecisionForceKept
	DecisionSkipped
)

func (d Decision) String() string {
	switch d {
	case DecisionKept:
		return "kept"
	case DecisionForceKept:
		return "force-kept"
	case DecisionSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Cause classifies skips and force-keeps for callers that need more than
// the reason text.
type Cause int

const (
	CauseNone Cause = iota
	CauseSeed
	CauseBounce
	CauseNoMatch
	CauseMismatch
	CauseResource
)

// Entry records the decision for one frame.
type Entry struct {
	Frame        int     // index in the input
	Compared     int     // frame the reference ended with, -1 if no comparison
	ThumbOverlap int     // overlap in thumbnail rows
	FullOverlap  int     // overlap applied at full resolution
	Score        float64 // pixel score of the best alignment
	Decision     Decision
	Cause        Cause
	Reason       string
}

// Accepted reports whether the frame is part of the composite.
func (e Entry) Accepted() bool {
	return e.Decision == DecisionKept || e.Decision == DecisionForceKept
}

// Trace is the complete decision log of one stitch.
type Trace struct {
	Entries     []Entry
	Accepted    []int // accepted frame indices in composition order
	Overlaps    []int // full-resolution overlap before each accepted frame after the first
	Comparisons int   // overlap searches performed
}

func (t *Trace) add(e Entry) {
	t.Entries = append(t.Entries, e)
	if e.Accepted() {
		if len(t.Accepted) > 0 {
			t.Overlaps = append(t.Overlaps, e.FullOverlap)
		}
		t.Accepted = append(t.Accepted, e.Frame)
	}
}

// HasGaps reports whether any frame was dropped or force-kept for lack of
// a match, meaning the result may be missing content.
func (t *Trace) HasGaps() bool {
	for _, e := range t.Entries {
		if e.Cause == CauseNoMatch {
			return true
		}
	}
	return false
}

// String renders the trace as text, one line per frame.
func (t *Trace) String() string {
	var sb strings.Builder
	for _, e := range t.Entries {
		compared := "-"
		if e.Compared >= 0 {
			compared = fmt.Sprintf("%d", e.Compared)
		}
		fmt.Fprintf(&sb, "frame %04d vs %s: overlap=%d thumb / %d px, score=%.2f: %s\n",
			e.Frame, compared, e.ThumbOverlap, e.FullOverlap, e.Score, e.Reason)
	}
	fmt.Fprintf(&sb, "accepted: %v\n", t.Accepted)
	fmt.Fprintf(&sb, "overlaps: %v\n", t.Overlaps)
	fmt.Fprintf(&sb, "comparisons: %d\n", t.Comparisons)
	return sb.String()
}
