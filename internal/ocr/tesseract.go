package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// TesseractConfig holds settings for the Tesseract-backed provider.
type TesseractConfig struct {
	Language string // Tesseract language code, e.g. "eng"
	// MinImageHeight triggers an upscale before OCR when the source image is
	// shorter than this many pixels. Chart rasters are usually large enough;
	// 0 disables the upscale.
	MinImageHeight int
}

// DefaultTesseractConfig returns defaults suitable for rasterized report pages.
func DefaultTesseractConfig() TesseractConfig {
	return TesseractConfig{
		Language:       "eng",
		MinImageHeight: 0,
	}
}

// Tesseract detects text with word-level bounding boxes using a local
// Tesseract installation via gosseract.
type Tesseract struct {
	cfg    TesseractConfig
	logger *slog.Logger
}

// NewTesseract creates a Tesseract-backed Provider.
func NewTesseract(cfg TesseractConfig, logger *slog.Logger) *Tesseract {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tesseract{cfg: cfg, logger: logger}
}

// DetectText runs OCR on the image at path and returns word fragments with
// bounding boxes. The Tesseract call itself is not cancellable; the context is
// checked before and after the external call.
func (t *Tesseract) DetectText(ctx context.Context, imagePath string) ([]Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, cleanup, err := t.preprocess(imagePath)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	client := gosseract.NewClient()
	defer func() { _ = client.Close() }()

	if err := client.SetLanguage(t.cfg.Language); err != nil {
		return nil, fmt.Errorf("set language %q: %w", t.cfg.Language, err)
	}
	if err := client.SetImage(path); err != nil {
		return nil, fmt.Errorf("set image %q: %w", path, err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("detect text in %q: %w", imagePath, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fragments := make([]Fragment, 0, len(boxes))
	for _, b := range boxes {
		if b.Word == "" {
			continue
		}
		fragments = append(fragments, Fragment{
			Text:       b.Word,
			Left:       b.Box.Min.X,
			Top:        b.Box.Min.Y,
			Width:      b.Box.Dx(),
			Height:     b.Box.Dy(),
			Confidence: b.Confidence,
		})
	}
	t.logger.Debug("ocr complete", "image", imagePath, "fragments", len(fragments))
	return fragments, nil
}

// preprocess grayscales and optionally upscales the image into a temp file.
// Returns the path Tesseract should read and a cleanup func.
func (t *Tesseract) preprocess(imagePath string) (string, func(), error) {
	noop := func() {}
	if t.cfg.MinImageHeight <= 0 {
		return imagePath, noop, nil
	}

	img, err := imaging.Open(imagePath)
	if err != nil {
		return "", noop, fmt.Errorf("open image %q: %w", imagePath, err)
	}
	gray := imaging.Grayscale(img)
	if gray.Bounds().Dy() < t.cfg.MinImageHeight {
		gray = imaging.Resize(gray, 0, t.cfg.MinImageHeight, imaging.Lanczos)
	}

	tmp, err := os.CreateTemp("", "factset-ocr-*.png")
	if err != nil {
		// Fall back to the original image rather than failing the OCR call.
		t.logger.Warn("temp file for preprocessed image failed, using original", "error", err)
		return imagePath, noop, nil
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	if err := imaging.Save(gray, tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		t.logger.Warn("saving preprocessed image failed, using original", "error", err)
		return imagePath, noop, nil
	}
	return tmpPath, func() { _ = os.Remove(tmpPath) }, nil
}
