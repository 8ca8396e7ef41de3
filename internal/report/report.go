// Package report locates the bottom-up EPS chart inside an Earnings
// Insight PDF and exports it as a dated PNG.
package report

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/dslipak/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/seung-gu/factset-report-analyzer/internal/storage"
)

// chartKeywords identify the page carrying the historical EPS chart.
// Matching is case-insensitive against the page's plain text.
var chartKeywords = []string{
	"bottom-up eps estimates: current & historical",
	"bottom-up eps: current & historical",
}

// bottomFraction marks the page band where a title belongs to the next
// page's chart rather than this page's.
const bottomFraction = 0.25

// Extractor pulls chart images out of report PDFs.
type Extractor struct {
	charts *storage.DirStore
	logger *slog.Logger
}

// NewExtractor writes chart PNGs into the given store.
func NewExtractor(charts *storage.DirStore, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{charts: charts, logger: logger}
}

// DateFromPDFName reads the report date from names like
// EarningsInsight_011323.pdf or EarningsInsight_01132023.pdf.
func DateFromPDFName(path string) (time.Time, error) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	parts := strings.Split(stem, "_")
	if len(parts) < 2 {
		return time.Time{}, fmt.Errorf("no date token in %q", base)
	}
	token := parts[1]
	layout := "010206"
	if len(token) == 8 {
		layout = "01022006"
	}
	t, err := time.Parse(layout, token)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date token %q: %w", token, err)
	}
	return t, nil
}

// ExtractChart finds the chart page, extracts its images, and stores the
// largest one as {YYYYMMDD}.png. It returns the stored name.
func (e *Extractor) ExtractChart(ctx context.Context, pdfPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	date, err := DateFromPDFName(pdfPath)
	if err != nil {
		return "", err
	}
	page, err := findChartPage(pdfPath)
	if err != nil {
		return "", fmt.Errorf("locate chart page in %s: %w", filepath.Base(pdfPath), err)
	}

	img, err := largestPageImage(pdfPath, page)
	if err != nil {
		return "", fmt.Errorf("extract images from page %d of %s: %w", page, filepath.Base(pdfPath), err)
	}

	name := date.Format("20060102") + ".png"
	data, err := encodePNG(img)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	if err := e.charts.Write(ctx, name, data); err != nil {
		return "", err
	}
	e.logger.Info("extracted chart", "pdf", filepath.Base(pdfPath), "page", page, "chart", name)
	return name, nil
}

// findChartPage scans page text for the chart title. A title sitting in
// the bottom band of a page announces the chart on the following page.
func findChartPage(pdfPath string) (int, error) {
	r, err := pdf.Open(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pos, span, found := keywordPosition(p)
		if !found {
			continue
		}
		if span > 0 && pos < bottomFraction*span {
			if i < r.NumPage() {
				return i + 1, nil
			}
		}
		return i, nil
	}
	return 0, fmt.Errorf("chart title not found")
}

// keywordPosition returns the vertical position of the first chart
// keyword on the page and the page's text span. Positions grow upward,
// so small values sit near the bottom.
func keywordPosition(p pdf.Page) (pos, span float64, found bool) {
	rows, err := p.GetTextByRow()
	if err != nil || len(rows) == 0 {
		return 0, 0, false
	}
	minPos, maxPos := rows[0].Position, rows[0].Position
	keywordPos := int64(-1)
	for _, row := range rows {
		if row.Position < minPos {
			minPos = row.Position
		}
		if row.Position > maxPos {
			maxPos = row.Position
		}
		if keywordPos >= 0 {
			continue
		}
		var sb strings.Builder
		for _, word := range row.Content {
			sb.WriteString(word.S)
		}
		text := strings.ToLower(sb.String())
		for _, kw := range chartKeywords {
			if strings.Contains(text, kw) {
				keywordPos = row.Position
				break
			}
		}
	}
	if keywordPos < 0 {
		return 0, 0, false
	}
	return float64(keywordPos - minPos), float64(maxPos - minPos), true
}

// largestPageImage extracts the page's images to a temp dir and decodes
// the largest by pixel area. Charts dominate their page, so the small
// logos and icons fall away.
func largestPageImage(pdfPath string, page int) (image.Image, error) {
	tempDir, err := os.MkdirTemp("", "report-extract-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	if err := api.ExtractImagesFile(pdfPath, tempDir, []string{strconv.Itoa(page)}, nil); err != nil {
		return nil, fmt.Errorf("pdfcpu extract: %w", err)
	}

	var best image.Image
	bestArea := 0
	err = filepath.Walk(tempDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		img, openErr := imaging.Open(path)
		if openErr != nil {
			return nil // skip non-image artifacts
		}
		b := img.Bounds()
		if area := b.Dx() * b.Dy(); area > bestArea {
			best, bestArea = img, area
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if best == nil {
		return nil, fmt.Errorf("page %d has no images", page)
	}
	return best, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
