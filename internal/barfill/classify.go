// Package barfill decides whether a chart bar is rendered with a dark fill
// (an actual reported value) or a light fill (an analyst estimate). Three
// independent thresholding strategies vote on the pixel region between a
// quarter label and its number label; agreement determines confidence.
package barfill

import (
	"image"

	"github.com/seung-gu/factset-report-analyzer/internal/ocr"
)

// Color is the inferred rendering of a bar fill.
type Color string

const (
	Dark  Color = "dark"  // solid fill: actual reported EPS
	Light Color = "light" // light/hatched fill: analyst estimate
)

// Confidence grades how strongly the three methods agree.
type Confidence string

const (
	High   Confidence = "high"   // 3-0 vote
	Medium Confidence = "medium" // 2-1 vote
	Low    Confidence = "low"    // degenerate region, no vote taken
)

// Score maps a confidence grade to its numeric contribution in the composite
// row confidence. Unknown grades score zero.
func (c Confidence) Score() float64 {
	switch c {
	case High:
		return 100
	case Medium:
		return 67
	case Low:
		return 33
	default:
		return 0
	}
}

// Votes tallies the per-method decisions. Dark+Light is always 3 except in
// the degenerate empty-region case, where both are zero.
type Votes struct {
	Dark  int
	Light int
}

// Method names reported in Classification.Methods.
const (
	methodAdaptive = "adaptive"
	methodClosing  = "closing"
	methodOtsuInv  = "otsu_inv"
)

// Classification is the outcome of the three-method vote for one bar.
type Classification struct {
	Color      Color
	Confidence Confidence
	Votes      Votes
	Methods    map[string]Color
}

// regionWidth is the fixed width in pixels of the sampled bar strip.
const regionWidth = 30

// barRegion computes the strip between the two labels: centered between the
// box centers horizontally, spanning from the bottom of the number box down
// to the top of the quarter box.
func barRegion(quarterBox, numberBox ocr.Fragment, bounds image.Rectangle) image.Rectangle {
	xCenter := int((quarterBox.CenterX() + numberBox.CenterX()) / 2)
	x0 := max(bounds.Min.X, xCenter-regionWidth/2)
	x1 := min(bounds.Max.X, xCenter+regionWidth/2)
	y0 := numberBox.Bottom()
	y1 := quarterBox.Top
	// Not image.Rect: a number box below the quarter box must stay
	// degenerate rather than be canonicalized into a valid span.
	return image.Rectangle{Min: image.Point{X: x0, Y: y0}, Max: image.Point{X: x1, Y: y1}}
}

// Classify votes on the bar between quarterBox and numberBox using the
// preprocessed binarizations. An empty region yields the light/low default
// without invoking any method.
func Classify(pre *Preprocessed, quarterBox, numberBox ocr.Fragment) Classification {
	region := barRegion(quarterBox, numberBox, pre.Bounds)
	if region.Dx() <= 0 || region.Dy() <= 0 {
		return Classification{
			Color:      Light,
			Confidence: Low,
			Votes:      Votes{},
			Methods:    map[string]Color{},
		}
	}

	methods := map[string]Color{
		methodAdaptive: classifyAdaptive(pre.Adaptive, region),
		methodClosing:  classifyClosing(pre.Closing, region),
		methodOtsuInv:  classifyOtsuInverted(pre.OtsuInv, region),
	}

	var votes Votes
	for _, c := range methods {
		if c == Dark {
			votes.Dark++
		} else {
			votes.Light++
		}
	}

	color := Light
	if votes.Dark > votes.Light {
		color = Dark
	}
	winner := votes.Light
	if color == Dark {
		winner = votes.Dark
	}

	confidence := Low
	switch winner {
	case 3:
		confidence = High
	case 2:
		confidence = Medium
	}

	return Classification{Color: color, Confidence: confidence, Votes: votes, Methods: methods}
}

// classifyAdaptive: on the adaptive-threshold image a dark solid bar comes
// out mostly white (the threshold tracks the local mean), so a high white
// ratio means dark.
func classifyAdaptive(bin *image.Gray, region image.Rectangle) Color {
	if whiteRatio(bin, region) > 0.7 {
		return Dark
	}
	return Light
}

// classifyClosing: closing fills the gaps of hatched fills, so a fully white
// closed region indicates a light-rendered bar and a partially filled one a
// dark bar. Inverted sense relative to the other two methods.
func classifyClosing(bin *image.Gray, region image.Rectangle) Color {
	if whiteRatio(bin, region) > 0.5 {
		return Light
	}
	return Dark
}

// classifyOtsuInverted: inverted Otsu renders dark bars white.
func classifyOtsuInverted(bin *image.Gray, region image.Rectangle) Color {
	if whiteRatio(bin, region) > 0.7 {
		return Dark
	}
	return Light
}

// whiteRatio returns the fraction of pure-white pixels in the region,
// clipped to the image bounds.
func whiteRatio(bin *image.Gray, region image.Rectangle) float64 {
	r := region.Intersect(bin.Bounds())
	total := r.Dx() * r.Dy()
	if total <= 0 {
		return 0
	}
	count := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if bin.GrayAt(x, y).Y == white {
				count++
			}
		}
	}
	return float64(count) / float64(total)
}
