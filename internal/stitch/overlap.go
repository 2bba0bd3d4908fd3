package stitch

import (
	"math"
	"sort"

	"scroll-stitch/pkg/bitmap"
)

// scoreEpsilon treats two scores this close as tied.
const scoreEpsilon = 1e-9

// Match is the outcome of aligning a frame against a reference, in
// thumbnail rows. The frame's top row lines up with reference row MatchRow.
type Match struct {
	Found    bool
	MatchRow int
	Overlap  int // frame rows already present in the reference
	NewRows  int // frame rows extending below the reference
	Score    float64
	Verified int // offsets that went through pixel scoring
}

// FullOffset returns MatchRow at full resolution.
func (m Match) FullOffset(k int) int { return m.MatchRow * k }

// candidate is one offset in the profile sweep.
type candidate struct {
	matchRow int
	newRows  int
	score    float64
}

// better orders candidates by score, then by least new content, then by
// the later match row. The tie-break keeps blank or repetitive content from
// being duplicated: when nothing distinguishes two offsets the one that
// adds less is chosen.
func (c candidate) better(o candidate) bool {
	if math.Abs(c.score-o.score) > scoreEpsilon {
		return c.score < o.score
	}
	if c.newRows != o.newRows {
		return c.newRows < o.newRows
	}
	return c.matchRow > o.matchRow
}

// Finder locates where a new frame continues a reference image.
type Finder struct {
	cfg    Config
	scorer Scorer
}

// NewFinder returns a Finder. A nil scorer selects PixelScorer.
func NewFinder(cfg Config, scorer Scorer) *Finder {
	return &Finder{cfg: cfg, scorer: scorer}
}

// FindOverlap aligns frame against ref using the default scorer.
func FindOverlap(ref, frame *bitmap.Bitmap, cfg Config) Match {
	return NewFinder(cfg, nil).Find(ref, frame)
}

func newRowsAt(matchRow, frameHeight, refHeight int) int {
	return max(0, matchRow+frameHeight-refHeight)
}

// Find searches every match row whose compared band is at least the minimum
// overlap, shortlists by row-profile RMS, and verifies the shortlist with
// the pixel scorer.
func (f *Finder) Find(ref, frame *bitmap.Bitmap) Match {
	none := Match{Score: math.Inf(1)}
	if ref == nil || frame == nil || ref.Width != frame.Width {
		return none
	}

	hr, hn := ref.Height, frame.Height
	minOv, maxOv := f.cfg.overlapBounds(hn)
	if minOv >= maxOv || hr < minOv {
		return none
	}
	lastRow := hr - minOv

	margin := f.cfg.margin(ref.Width)
	refProfile := RowProfile(ref, margin)
	newProfile := RowProfile(frame, margin)

	cands := make([]candidate, 0, lastRow+1)
	for m := 0; m <= lastRow; m++ {
		n := min(hn, hr-m)
		cands = append(cands, candidate{
			matchRow: m,
			newRows:  newRowsAt(m, hn, hr),
			score:    refProfile.rmsDiff(newProfile, m, n),
		})
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].better(cands[j]) })

	verify := f.verificationSet(cands, lastRow)

	scorer := f.scorer
	if scorer == nil {
		scorer = NewPixelScorer(f.cfg, ref.Width)
	}

	best := candidate{matchRow: -1, score: math.Inf(1)}
	for _, m := range verify {
		n := min(hn, hr-m)
		c := candidate{matchRow: m, newRows: newRowsAt(m, hn, hr), score: scorer.Score(ref, frame, m, n)}
		if best.matchRow < 0 || c.better(best) {
			best = c
		}
	}
	if best.matchRow < 0 {
		return none
	}

	return Match{
		Found:    best.score <= f.cfg.ScoreThreshold,
		MatchRow: best.matchRow,
		Overlap:  hn - best.newRows,
		NewRows:  best.newRows,
		Score:    best.score,
		Verified: len(verify),
	}
}

// verificationSet widens the top profile candidates by ±CandidateSpread
// rows and returns the distinct in-range offsets in ascending order.
func (f *Finder) verificationSet(sorted []candidate, lastRow int) []int {
	top := sorted[:min(f.cfg.TopCandidates, len(sorted))]
	seen := make(map[int]bool, len(top)*(2*f.cfg.CandidateSpread+1))
	var rows []int
	for _, c := range top {
		for d := -f.cfg.CandidateSpread; d <= f.cfg.CandidateSpread; d++ {
			m := c.matchRow + d
			if m < 0 || m > lastRow || seen[m] {
				continue
			}
			seen[m] = true
			rows = append(rows, m)
		}
	}
	sort.Ints(rows)
	return rows
}
