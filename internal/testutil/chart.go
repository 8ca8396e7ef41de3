// Package testutil generates synthetic EPS chart images for tests:
// quarter labels along the bottom, values along the top, and a solid or
// striped bar between each pair.
package testutil

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/seung-gu/factset-report-analyzer/internal/ocr"
)

// Bar describes one quarter column on the synthetic chart.
type Bar struct {
	Label string // quarter label drawn at the bottom, e.g. "Q1'17"
	Value string // value drawn at the top, e.g. "27.85"
	Solid bool   // solid fill (reported) versus striped (estimate)
}

// ChartConfig sizes the synthetic chart.
type ChartConfig struct {
	Width  int
	Height int
	Bars   []Bar
}

// DefaultChartConfig returns a chart with one reported and one
// estimated quarter.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:  400,
		Height: 300,
		Bars: []Bar{
			{Label: "Q1'17", Value: "27.85", Solid: true},
			{Label: "Q2'17", Value: "30.10", Solid: false},
		},
	}
}

const (
	face        = 13 // basicfont.Face7x13 glyph height
	faceAscent  = 11
	glyphWidth  = 7
	barWidth    = 30
	valueBase   = 40 // value text baseline
	barTop      = 70
	bottomGap   = 50 // bar bottom inset from the image bottom
	labelInset  = 20 // label baseline inset from the image bottom
	stripePitch = 2
)

// GenerateChart renders the chart and returns the OCR fragments a
// perfect text detector would produce for it.
func GenerateChart(cfg ChartConfig) (*image.RGBA, []ocr.Fragment) {
	img := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	var fragments []ocr.Fragment
	if len(cfg.Bars) == 0 {
		return img, nil
	}

	slot := cfg.Width / len(cfg.Bars)
	barBottom := cfg.Height - bottomGap
	labelBase := cfg.Height - labelInset

	for i, bar := range cfg.Bars {
		centerX := slot*i + slot/2

		fragments = append(fragments, drawText(img, bar.Value, centerX, valueBase))
		drawBar(img, centerX, barTop, barBottom, bar.Solid)
		fragments = append(fragments, drawText(img, bar.Label, centerX, labelBase))
	}
	return img, fragments
}

// drawText renders centered text at the given baseline and returns its
// bounding fragment.
func drawText(img *image.RGBA, text string, centerX, baseline int) ocr.Fragment {
	width := glyphWidth * len(text)
	left := centerX - width/2

	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(left, baseline),
	}
	d.DrawString(text)

	return ocr.Fragment{
		Text:       text,
		Left:       left,
		Top:        baseline - faceAscent,
		Width:      width,
		Height:     face,
		Confidence: 95,
	}
}

// drawBar paints a solid black bar, or horizontal stripes for the
// estimate fill.
func drawBar(img *image.RGBA, centerX, top, bottom int, solid bool) {
	left := centerX - barWidth/2
	step := 1
	if !solid {
		step = stripePitch
	}
	for y := top; y < bottom; y += step {
		for x := left; x < left+barWidth; x++ {
			img.Set(x, y, color.Black)
		}
	}
}
