// Package extract turns a single chart image into EPS records by running
// OCR, pairing quarter labels with their values, and classifying each
// bar's fill.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/seung-gu/factset-report-analyzer/internal/barfill"
	"github.com/seung-gu/factset-report-analyzer/internal/matcher"
	"github.com/seung-gu/factset-report-analyzer/internal/ocr"
	"github.com/seung-gu/factset-report-analyzer/internal/quarter"
)

// Record is one extracted quarter/EPS observation from a report image.
type Record struct {
	ReportDate    string // ISO date when the filename carries one, raw stem otherwise
	Quarter       quarter.Label
	EPS           float64
	BarColor      barfill.Color
	BarConfidence barfill.Confidence
}

// IsEstimate reports whether the value is an analyst estimate rather
// than a reported actual.
func (r Record) IsEstimate() bool {
	return r.BarColor == barfill.Light
}

var datePattern = regexp.MustCompile(`\d{8}`)

// ReportDateFromFilename derives the report date from an image filename.
// The first 8-digit run is read as YYYYMMDD; when none parses, the bare
// file stem is returned so the row stays traceable.
func ReportDateFromFilename(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if m := datePattern.FindString(stem); m != "" {
		if t, err := time.Parse("20060102", m); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return stem
}

// Processor extracts records from chart images.
type Processor struct {
	provider ocr.Provider
	matchCfg matcher.Config
	logger   *slog.Logger
}

// NewProcessor builds a Processor around the given OCR provider.
func NewProcessor(provider ocr.Provider, matchCfg matcher.Config, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{provider: provider, matchCfg: matchCfg, logger: logger}
}

// ProcessImage runs the full extraction on one image: OCR, label
// matching, then bar classification for every matched pair. Records come
// back in the matcher's left-to-right order.
func (p *Processor) ProcessImage(ctx context.Context, imagePath string) ([]Record, error) {
	fragments, err := p.provider.DetectText(ctx, imagePath)
	if err != nil {
		return nil, fmt.Errorf("detect text in %s: %w", imagePath, err)
	}

	pairs := matcher.Match(fragments, p.matchCfg)
	if len(pairs) == 0 {
		p.logger.Warn("no quarter/value pairs found", "image", imagePath, "fragments", len(fragments))
		return nil, nil
	}

	img, err := imaging.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", imagePath, err)
	}
	pre := barfill.Preprocess(img)

	reportDate := ReportDateFromFilename(imagePath)
	records := make([]Record, 0, len(pairs))
	for _, pair := range pairs {
		cls := barfill.Classify(pre, pair.QuarterBox, pair.NumberBox)
		records = append(records, Record{
			ReportDate:    reportDate,
			Quarter:       pair.Quarter,
			EPS:           pair.EPS,
			BarColor:      cls.Color,
			BarConfidence: cls.Confidence,
		})
		p.logger.Debug("classified bar",
			"quarter", pair.Quarter.String(),
			"eps", pair.EPS,
			"color", cls.Color,
			"confidence", cls.Confidence)
	}
	p.logger.Info("extracted records", "image", imagePath, "count", len(records))
	return records, nil
}
