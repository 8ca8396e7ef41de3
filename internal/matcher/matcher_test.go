package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seung-gu/factset-report-analyzer/internal/ocr"
)

// frag builds a fragment whose center sits at (cx, cy).
func frag(text string, cx, cy int) ocr.Fragment {
	const w, h = 20, 10
	return ocr.Fragment{Text: text, Left: cx - w/2, Top: cy - h/2, Width: w, Height: h}
}

func TestMatch_BasicPairing(t *testing.T) {
	fragments := []ocr.Fragment{
		frag("Q1'17", 100, 500),
		frag("27.85", 100, 200),
		frag("Q2'17", 200, 500),
		frag("29.10", 200, 150),
		frag("Bottom-Up EPS Estimates", 300, 20), // heading, not a number
	}

	pairs := Match(fragments, DefaultConfig())
	require.Len(t, pairs, 2)

	assert.Equal(t, "Q1'17", pairs[0].Quarter.String())
	assert.InDelta(t, 27.85, pairs[0].EPS, 1e-9)
	assert.Equal(t, "Q2'17", pairs[1].Quarter.String())
	assert.InDelta(t, 29.10, pairs[1].EPS, 1e-9)
}

func TestMatch_HorizontalDominance(t *testing.T) {
	// Candidate A is perfectly aligned horizontally but 2px further away
	// vertically than candidate B. Under plain Euclidean distance B would
	// win; the 100x horizontal weighting makes A win.
	fragments := []ocr.Fragment{
		frag("Q1'17", 100, 600),
		frag("10.0", 100, 570), // x_diff 0, y_diff 30
		frag("20.0", 103, 572), // x_diff 3, y_diff 28
	}

	pairs := Match(fragments, DefaultConfig())
	require.Len(t, pairs, 1)
	assert.InDelta(t, 10.0, pairs[0].EPS, 1e-9)
}

func TestMatch_ExcludesCandidatesBelowCenter(t *testing.T) {
	fragments := []ocr.Fragment{
		frag("Q1'17", 100, 500),
		frag("15.0", 100, 500), // same center, not strictly above
		frag("16.0", 100, 510), // below
	}

	pairs := Match(fragments, DefaultConfig())
	assert.Empty(t, pairs)
}

func TestMatch_ExcludesYearLikeNumbers(t *testing.T) {
	fragments := []ocr.Fragment{
		frag("Q1'17", 100, 500),
		frag("2017", 100, 200), // value >= 2000 is a year, not an EPS
	}

	pairs := Match(fragments, DefaultConfig())
	assert.Empty(t, pairs)
}

func TestMatch_XToleranceBounds(t *testing.T) {
	cfg := DefaultConfig()
	fragments := []ocr.Fragment{
		frag("Q1'17", 100, 500),
		frag("27.85", 115, 200), // x_diff 15 > tolerance 10
	}
	assert.Empty(t, Match(fragments, cfg))

	fragments[1] = frag("27.85", 108, 200) // x_diff 8, within tolerance
	pairs := Match(fragments, cfg)
	require.Len(t, pairs, 1)
	assert.InDelta(t, 27.85, pairs[0].EPS, 1e-9)
}

func TestMatch_BottomBandFiltering(t *testing.T) {
	// A quarter label high up on the chart (e.g. in the title) is not an
	// axis label and must be ignored.
	fragments := []ocr.Fragment{
		frag("Q1'17", 100, 50), // top of a tall text extent
		frag("27.85", 100, 20),
		frag("Q2'17", 200, 500),
		frag("29.10", 200, 200),
	}

	pairs := Match(fragments, DefaultConfig())
	require.Len(t, pairs, 1)
	assert.Equal(t, "Q2'17", pairs[0].Quarter.String())
}

func TestMatch_QuarterBoxesAreNotNumberCandidates(t *testing.T) {
	// "Q114" parses as a number too and sits closer to the quarter box than
	// the real value label, but it must be excluded as a candidate because
	// it matches a quarter pattern. It sits above the bottom band so it is
	// not picked up as an axis label either.
	fragments := []ocr.Fragment{
		frag("Q1'17", 100, 500),
		frag("Q114", 100, 300),
		frag("27.85", 100, 200),
	}

	pairs := Match(fragments, DefaultConfig())
	require.Len(t, pairs, 1)
	assert.InDelta(t, 27.85, pairs[0].EPS, 1e-9)
}

func TestMatch_OnePairPerDistinctQuarter(t *testing.T) {
	// Two boxes normalizing to the same label yield a single pair (leftmost
	// wins).
	fragments := []ocr.Fragment{
		frag("Q1'17", 100, 500),
		frag("27.85", 100, 200),
		frag("Q1i7y", 180, 500),
		frag("30.00", 180, 200),
	}

	pairs := Match(fragments, DefaultConfig())
	require.Len(t, pairs, 1)
	assert.InDelta(t, 27.85, pairs[0].EPS, 1e-9)
}

func TestMatch_LeftToRightOrder(t *testing.T) {
	fragments := []ocr.Fragment{
		frag("Q3'17", 300, 500),
		frag("31.0", 300, 200),
		frag("Q1'17", 100, 500),
		frag("27.0", 100, 200),
		frag("Q2'17", 200, 500),
		frag("29.0", 200, 200),
	}

	pairs := Match(fragments, DefaultConfig())
	require.Len(t, pairs, 3)
	assert.Equal(t, "Q1'17", pairs[0].Quarter.String())
	assert.Equal(t, "Q2'17", pairs[1].Quarter.String())
	assert.Equal(t, "Q3'17", pairs[2].Quarter.String())
}

func TestMatch_EmptyInput(t *testing.T) {
	assert.Empty(t, Match(nil, DefaultConfig()))
	assert.Empty(t, Match([]ocr.Fragment{}, DefaultConfig()))
}

func TestMatch_QuarterWithoutNumberIsDropped(t *testing.T) {
	fragments := []ocr.Fragment{
		frag("Q1'17", 100, 500),
		frag("27.85", 100, 200),
		frag("Q2'17", 200, 500), // no number anywhere near
	}

	pairs := Match(fragments, DefaultConfig())
	require.Len(t, pairs, 1)
	assert.Equal(t, "Q1'17", pairs[0].Quarter.String())
}
