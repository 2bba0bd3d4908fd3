package stitch

import (
	"fmt"
	"strings"
	"testing"

	"scroll-stitch/pkg/bitmap"
	"scroll-stitch/pkg/colorutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStitchEmpty(t *testing.T) {
	res, err := newStitcher(t, DefaultConfig()).Stitch(nil)
	assert.ErrorIs(t, err, ErrNoFrames)
	require.NotNil(t, res)
	assert.Nil(t, res.Image)
	assert.Empty(t, res.Trace.Entries)
}

func TestStitchSingleFrameIsPassthrough(t *testing.T) {
	frame := bandPage(t, 120, 300, 24, 5)
	before := frame.Clone()

	res, err := newStitcher(t, DefaultConfig()).Stitch([]*bitmap.Bitmap{frame})
	require.NoError(t, err)
	assert.Same(t, frame, res.Image)
	assert.True(t, bitmap.Equal(before, res.Image))

	require.Len(t, res.Trace.Entries, 1)
	assert.True(t, res.Trace.Entries[0].Accepted())
	assert.Equal(t, []int{0}, res.Trace.Accepted)
	assert.Empty(t, res.Trace.Overlaps)
	assert.Zero(t, res.Trace.Comparisons)
}

func TestStitchScrollSequence(t *testing.T) {
	for _, strategy := range []Strategy{StrategyAccumulated, StrategyPairwise} {
		t.Run(string(strategy), func(t *testing.T) {
			cfg := DefaultConfig().WithStrategy(strategy)
			page := bandPage(t, 200, 1600, 24, 21)
			frames := scroll(t, page, 400, 80, 14)

			res, err := newStitcher(t, cfg).Stitch(frames)
			require.NoError(t, err)

			require.Len(t, res.Trace.Accepted, len(frames))
			for _, ov := range res.Trace.Overlaps {
				assert.Equal(t, 320, ov)
			}

			want := window(t, page, 0, 400+80*13)
			assert.True(t, bitmap.Equal(want, res.Image), "stitched page differs from source")
		})
	}
}

func TestStitchFrameHeightNotMultipleOfScale(t *testing.T) {
	for _, strategy := range []Strategy{StrategyAccumulated, StrategyPairwise} {
		for _, h := range []int{401, 402, 403} {
			t.Run(fmt.Sprintf("%s/%d", strategy, h), func(t *testing.T) {
				page := bandPage(t, 200, 1200, 24, 47)
				frames := scroll(t, page, h, 80, 6)

				res, err := newStitcher(t, DefaultConfig().WithStrategy(strategy)).Stitch(frames)
				require.NoError(t, err)
				require.Len(t, res.Trace.Accepted, len(frames))
				for _, ov := range res.Trace.Overlaps {
					assert.Equal(t, h-80, ov)
				}

				want := window(t, page, 0, h+80*5)
				assert.Equal(t, want.Height, res.Image.Height)
				assert.True(t, bitmap.Equal(want, res.Image), "stitched page differs from source")
			})
		}
	}
}

func TestStitchMixedFrameHeights(t *testing.T) {
	for _, strategy := range []Strategy{StrategyAccumulated, StrategyPairwise} {
		t.Run(string(strategy), func(t *testing.T) {
			page := bandPage(t, 200, 1200, 24, 53)
			heights := []int{400, 403, 401, 402, 400, 403}
			frames := make([]*bitmap.Bitmap, len(heights))
			for i, h := range heights {
				frames[i] = window(t, page, i*80, h)
			}

			res, err := newStitcher(t, DefaultConfig().WithStrategy(strategy)).Stitch(frames)
			require.NoError(t, err)
			require.Len(t, res.Trace.Accepted, len(frames))

			last := len(frames) - 1
			want := window(t, page, 0, last*80+heights[last])
			assert.True(t, bitmap.Equal(want, res.Image), "stitched page differs from source")
		})
	}
}

// panicScorer fails every verification.
type panicScorer struct{}

func (panicScorer) Score(ref, frame *bitmap.Bitmap, matchRow, rows int) float64 {
	panic("scorer exploded")
}

func TestStitchRecoveredPanicKeepsTrace(t *testing.T) {
	page := bandPage(t, 200, 1200, 24, 59)
	frames := scroll(t, page, 400, 80, 3)

	s, err := New(DefaultConfig(), WithScorer(panicScorer{}))
	require.NoError(t, err)

	res, err := s.Stitch(frames)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scorer exploded")
	require.NotNil(t, res)
	assert.Nil(t, res.Image)
	require.Len(t, res.Trace.Entries, 1)
	assert.Equal(t, CauseSeed, res.Trace.Entries[0].Cause)
	assert.Equal(t, []int{0}, res.Trace.Accepted)
}

func TestStitchHeightMatchesTrace(t *testing.T) {
	page := bandPage(t, 200, 3000, 24, 33)
	steps := []int{0, 60, 130, 230, 250, 390, 520, 600}
	frames := make([]*bitmap.Bitmap, len(steps))
	for i, y := range steps {
		frames[i] = window(t, page, y, 400)
	}

	cfg := DefaultConfig()
	res, err := newStitcher(t, cfg).Stitch(frames)
	require.NoError(t, err)

	height := 0
	for _, idx := range res.Trace.Accepted {
		height += frames[idx].Height
	}
	for _, ov := range res.Trace.Overlaps {
		height -= ov
	}
	assert.Equal(t, height, res.Image.Height)
	assert.Equal(t, 200, res.Image.Width)
	require.Len(t, res.Trace.Overlaps, len(res.Trace.Accepted)-1)

	k := cfg.ScaleFactor
	lo, hi := cfg.overlapBounds(400 / k)
	for _, ov := range res.Trace.Overlaps {
		assert.GreaterOrEqual(t, ov, lo*k)
		assert.LessOrEqual(t, ov, hi*k)
	}
	assert.InDelta(t, 1000, res.Image.Height, float64(len(steps)*k))
}

func TestStitchRejectsBounceBack(t *testing.T) {
	page := bandPage(t, 200, 1200, 24, 42)
	f1 := window(t, page, 0, 400)
	f2 := window(t, page, 50, 400)
	f3 := f1.Clone()

	s := newStitcher(t, DefaultConfig())
	res, err := s.Stitch([]*bitmap.Bitmap{f1, f2, f3})
	require.NoError(t, err)

	require.Len(t, res.Trace.Entries, 3)
	bounce := res.Trace.Entries[2]
	assert.Equal(t, DecisionSkipped, bounce.Decision)
	assert.Equal(t, CauseBounce, bounce.Cause)
	assert.Contains(t, bounce.Reason, "bounce")
	assert.Equal(t, []int{0, 1}, res.Trace.Accepted)

	pair, err := s.Stitch([]*bitmap.Bitmap{f1, f2})
	require.NoError(t, err)
	assert.True(t, bitmap.Equal(pair.Image, res.Image))
	assert.InDelta(t, 450, res.Image.Height, 4)
}

func TestStitchDuplicateFrames(t *testing.T) {
	f := bandPage(t, 200, 400, 24, 8)
	frames := []*bitmap.Bitmap{f, f.Clone(), f.Clone(), f.Clone()}

	res, err := newStitcher(t, DefaultConfig()).Stitch(frames)
	require.NoError(t, err)

	assert.Equal(t, []int{0}, res.Trace.Accepted)
	assert.Same(t, f, res.Image)
	for _, e := range res.Trace.Entries[1:] {
		assert.Equal(t, DecisionSkipped, e.Decision)
		assert.Equal(t, CauseBounce, e.Cause)
		assert.Equal(t, f.Height, e.FullOverlap)
		assert.InDelta(t, 0, e.Score, 1e-9)
	}
}

func TestStitchBlankFrames(t *testing.T) {
	f := solidPage(t, 100, 200, colorutil.White)
	res, err := newStitcher(t, DefaultConfig()).Stitch([]*bitmap.Bitmap{f, f.Clone()})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, res.Trace.Accepted)
	assert.Equal(t, 200, res.Image.Height)
}

func TestStitchUnrelatedFramesNoMatch(t *testing.T) {
	a := noisePage(t, 200, 400, 16, 100)
	b := noisePage(t, 200, 400, 16, 101)

	res, err := newStitcher(t, DefaultConfig()).Stitch([]*bitmap.Bitmap{a, b})
	require.NoError(t, err)

	assert.Equal(t, []int{0}, res.Trace.Accepted)
	e := res.Trace.Entries[1]
	assert.Equal(t, DecisionSkipped, e.Decision)
	assert.Equal(t, CauseNoMatch, e.Cause)
	assert.True(t, strings.HasPrefix(e.Reason, "skipped (no match"))
	assert.True(t, res.Trace.HasGaps())
	assert.Same(t, a, res.Image)
}

func TestStitchForceKeepAfterMisses(t *testing.T) {
	frames := make([]*bitmap.Bitmap, 5)
	for i := range frames {
		frames[i] = noisePage(t, 200, 400, 16, int64(200+i))
	}

	res, err := newStitcher(t, DefaultConfig().WithForceKeep(3)).Stitch(frames)
	require.NoError(t, err)

	decisions := make([]Decision, len(res.Trace.Entries))
	for i, e := range res.Trace.Entries {
		decisions[i] = e.Decision
	}
	assert.Equal(t, []Decision{DecisionKept, DecisionSkipped, DecisionSkipped, DecisionSkipped, DecisionForceKept}, decisions)
	assert.Equal(t, []int{0, 4}, res.Trace.Accepted)
	assert.Equal(t, []int{0}, res.Trace.Overlaps)
	assert.Contains(t, res.Trace.Entries[4].Reason, "force-kept")
	assert.Equal(t, 800, res.Image.Height)

	res, err = newStitcher(t, DefaultConfig().WithForceKeep(0)).Stitch(frames)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, res.Trace.Accepted)
}

func TestStitchWidthMismatchNeverAccepted(t *testing.T) {
	page := bandPage(t, 200, 1200, 24, 55)
	narrowPage := bandPage(t, 160, 1200, 24, 55)
	frames := []*bitmap.Bitmap{
		window(t, page, 0, 400),
		window(t, narrowPage, 80, 400),
		window(t, page, 80, 400),
	}

	res, err := newStitcher(t, DefaultConfig()).Stitch(frames)
	require.NoError(t, err)

	assert.NotContains(t, res.Trace.Accepted, 1)
	assert.Equal(t, CauseMismatch, res.Trace.Entries[1].Cause)
	assert.Equal(t, "skipped (thumbnail/width mismatch)", res.Trace.Entries[1].Reason)
	assert.Equal(t, []int{0, 2}, res.Trace.Accepted)
}

func TestStitchSkipsBrokenFrames(t *testing.T) {
	page := bandPage(t, 200, 1200, 24, 66)
	tiny := solidPage(t, 200, 2, colorutil.Black)
	frames := []*bitmap.Bitmap{
		nil,
		window(t, page, 0, 400),
		tiny,
		window(t, page, 80, 400),
	}

	res, err := newStitcher(t, DefaultConfig()).Stitch(frames)
	require.NoError(t, err)

	assert.Equal(t, CauseResource, res.Trace.Entries[0].Cause)
	assert.Equal(t, CauseSeed, res.Trace.Entries[1].Cause)
	assert.Equal(t, CauseResource, res.Trace.Entries[2].Cause)
	assert.Contains(t, res.Trace.Entries[2].Reason, "thumbnail failed")
	assert.Equal(t, []int{1, 3}, res.Trace.Accepted)
	assert.Equal(t, []int{320}, res.Trace.Overlaps)
}

func TestStitchNoUsableFrames(t *testing.T) {
	res, err := newStitcher(t, DefaultConfig()).Stitch([]*bitmap.Bitmap{nil, {Width: 10}})
	assert.ErrorIs(t, err, ErrNoUsableFrames)
	require.NotNil(t, res)
	assert.Nil(t, res.Image)
	assert.Len(t, res.Trace.Entries, 2)
}

func TestStitchDeterministic(t *testing.T) {
	page := bandPage(t, 200, 2000, 24, 77)
	frames := []*bitmap.Bitmap{
		window(t, page, 0, 400),
		window(t, page, 90, 400),
		window(t, page, 40, 400),
		window(t, page, 210, 400),
		noisePage(t, 200, 400, 16, 9),
		window(t, page, 330, 400),
	}

	s := newStitcher(t, DefaultConfig())
	first, err := s.Stitch(frames)
	require.NoError(t, err)
	second, err := s.Stitch(frames)
	require.NoError(t, err)

	assert.True(t, bitmap.Equal(first.Image, second.Image))
	assert.Equal(t, first.Trace, second.Trace)
}

func TestStitchAsync(t *testing.T) {
	page := bandPage(t, 200, 1200, 24, 88)
	frames := scroll(t, page, 400, 80, 3)

	out := <-newStitcher(t, DefaultConfig()).StitchAsync(frames)
	require.NoError(t, out.Err)
	assert.Equal(t, 560, out.Result.Image.Height)
}

type recordingSink struct {
	frames int
	result *bitmap.Bitmap
	trace  *Trace
}

func (r *recordingSink) Dump(frames []*bitmap.Bitmap, result *bitmap.Bitmap, trace *Trace) error {
	r.frames = len(frames)
	r.result = result
	r.trace = trace
	return nil
}

func TestStitchCallsDebugSink(t *testing.T) {
	page := bandPage(t, 200, 1200, 24, 99)
	frames := scroll(t, page, 400, 80, 2)
	sink := &recordingSink{}

	s, err := New(DefaultConfig(), WithDebugSink(sink))
	require.NoError(t, err)
	res, err := s.Stitch(frames)
	require.NoError(t, err)

	assert.Equal(t, 2, sink.frames)
	assert.Same(t, res.Image, sink.result)
	assert.Same(t, res.Trace, sink.trace)
}

func TestTraceString(t *testing.T) {
	page := bandPage(t, 200, 1200, 24, 12)
	f1 := window(t, page, 0, 400)
	res, err := newStitcher(t, DefaultConfig()).Stitch([]*bitmap.Bitmap{f1, window(t, page, 80, 400), f1})
	require.NoError(t, err)

	text := res.Trace.String()
	assert.Contains(t, text, "frame 0000 vs -")
	assert.Contains(t, text, "kept (first frame)")
	assert.Contains(t, text, "frame 0002 vs 1")
	assert.Contains(t, text, "bounce back")
	assert.Contains(t, text, "accepted: [0 1]")
}
