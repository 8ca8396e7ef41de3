// Package ocr defines the text-detection boundary of the extraction pipeline.
// The chart parser only needs text fragments with pixel bounding boxes; where
// they come from (Tesseract, a cloud vision API, a test fake) is behind the
// Provider interface.
package ocr

import "context"

// Fragment is a single piece of text located by the OCR engine, with its
// bounding box in image pixel coordinates.
type Fragment struct {
	Text       string
	Left       int
	Top        int
	Width      int
	Height     int
	Confidence float64
}

// CenterX returns the horizontal center of the bounding box.
func (f Fragment) CenterX() float64 {
	return float64(f.Left) + float64(f.Width)/2
}

// CenterY returns the vertical center of the bounding box.
func (f Fragment) CenterY() float64 {
	return float64(f.Top) + float64(f.Height)/2
}

// Bottom returns the y coordinate of the bottom edge.
func (f Fragment) Bottom() int {
	return f.Top + f.Height
}

// Provider extracts text fragments from an image file. Implementations are
// external-service boundaries; callers that need a deadline should wrap the
// context.
type Provider interface {
	DetectText(ctx context.Context, imagePath string) ([]Fragment, error)
}
