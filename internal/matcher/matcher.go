// Package matcher pairs quarter axis labels with the numeric value labels
// printed above their bars, using 2-D geometric proximity over OCR bounding
// boxes. The chart archetype is fixed: quarter labels run along the bottom
// axis and each bar carries its number directly above it.
package matcher

import (
	"math"
	"sort"

	"github.com/seung-gu/factset-report-analyzer/internal/ocr"
	"github.com/seung-gu/factset-report-analyzer/internal/quarter"
)

// Config holds the geometric tolerances of the matching rules.
type Config struct {
	// BottomPercent is the fraction of the text extent counted as the bottom
	// band holding quarter labels (0.3 = bottom 30%).
	BottomPercent float64
	// YTolerance is the maximum vertical center distance from quarter box to
	// number box. Large on purpose: bars can be arbitrarily tall.
	YTolerance float64
	// XTolerance is the maximum horizontal center distance. Tight on purpose:
	// the number sits directly above its bar with only small OCR jitter.
	// Tunable; wide charts with shifted layouts may need more.
	XTolerance float64
}

// DefaultConfig returns the tolerances used for FactSet chart rasters.
func DefaultConfig() Config {
	return Config{
		BottomPercent: 0.3,
		YTolerance:    1000,
		XTolerance:    10,
	}
}

// maxEPSValue rejects number candidates that are years rather than EPS values.
const maxEPSValue = 2000

// Pair couples a quarter label with the number judged to belong to its bar.
type Pair struct {
	Quarter    quarter.Label
	EPS        float64
	QuarterBox ocr.Fragment
	NumberBox  ocr.Fragment
	// Distance is the weighted metric the number box won with. Diagnostic
	// only; never recomputed downstream.
	Distance float64
}

// Match identifies quarter labels in the bottom band and pairs each with its
// nearest qualifying number box. Quarter boxes without a candidate are
// dropped. Output preserves left-to-right order with at most one pair per
// distinct quarter label.
func Match(fragments []ocr.Fragment, cfg Config) []Pair {
	quarterBoxes := quartersAtBottom(fragments, cfg.BottomPercent)
	if len(quarterBoxes) == 0 {
		return nil
	}

	pairs := make([]Pair, 0, len(quarterBoxes))
	seen := make(map[quarter.Label]bool, len(quarterBoxes))
	for _, qb := range quarterBoxes {
		if seen[qb.label] {
			continue
		}
		num, dist, ok := nearestNumber(qb.box, fragments, cfg)
		if !ok {
			continue
		}
		eps, _ := quarter.ParseNumber(num.Text)
		pairs = append(pairs, Pair{
			Quarter:    qb.label,
			EPS:        eps,
			QuarterBox: qb.box,
			NumberBox:  num,
			Distance:   dist,
		})
		seen[qb.label] = true
	}
	return pairs
}

type quarterBox struct {
	box   ocr.Fragment
	label quarter.Label
}

// quartersAtBottom finds fragments in the bottom band whose text parses as a
// quarter label, sorted left to right.
func quartersAtBottom(fragments []ocr.Fragment, bottomPercent float64) []quarterBox {
	if len(fragments) == 0 {
		return nil
	}

	maxY := 0
	for _, f := range fragments {
		if f.Bottom() > maxY {
			maxY = f.Bottom()
		}
	}
	threshold := float64(maxY) * (1 - bottomPercent)

	var boxes []quarterBox
	for _, f := range fragments {
		if float64(f.Bottom()) < threshold {
			continue
		}
		if label, ok := quarter.Parse(f.Text); ok {
			boxes = append(boxes, quarterBox{box: f, label: label})
		}
	}
	sort.SliceStable(boxes, func(i, j int) bool {
		return boxes[i].box.Left < boxes[j].box.Left
	})
	return boxes
}

// nearestNumber searches all fragments for the best number box for qb: a
// numeric fragment strictly above the quarter box, within tolerances, and not
// itself a quarter label. Horizontal misalignment is weighted 100x more than
// vertical distance.
func nearestNumber(qb ocr.Fragment, fragments []ocr.Fragment, cfg Config) (ocr.Fragment, float64, bool) {
	var (
		best     ocr.Fragment
		bestDist = math.Inf(1)
		found    bool
	)

	for _, f := range fragments {
		if _, isQuarter := quarter.Parse(f.Text); isQuarter {
			continue
		}
		value, ok := quarter.ParseNumber(f.Text)
		if !ok || value >= maxEPSValue {
			continue
		}
		// The number must sit above the quarter label.
		if f.CenterY() >= qb.CenterY() {
			continue
		}
		yDiff := qb.CenterY() - f.CenterY()
		if yDiff > cfg.YTolerance {
			continue
		}
		xDiff := math.Abs(f.CenterX() - qb.CenterX())
		if xDiff > cfg.XTolerance {
			continue
		}

		dist := math.Sqrt(10*xDiff*xDiff + 0.1*yDiff*yDiff)
		if dist < bestDist {
			best, bestDist, found = f, dist, true
		}
	}
	return best, bestDist, found
}
