package extract

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seung-gu/factset-report-analyzer/internal/barfill"
	"github.com/seung-gu/factset-report-analyzer/internal/matcher"
	"github.com/seung-gu/factset-report-analyzer/internal/ocr"
	"github.com/seung-gu/factset-report-analyzer/internal/testutil"
)

type stubProvider struct {
	fragments []ocr.Fragment
	err       error
}

func (s *stubProvider) DetectText(_ context.Context, _ string) ([]ocr.Fragment, error) {
	return s.fragments, s.err
}

func TestReportDateFromFilename(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"charts/20161209.png", "2016-12-09"},
		{"EarningsInsight_20230113.png", "2023-01-13"},
		{"/tmp/out/20200101.png", "2020-01-01"},
		{"notes.png", "notes"},          // no digit run
		{"99999999.png", "99999999"},    // eight digits but not a date
		{"snapshot_1234.png", "snapshot_1234"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ReportDateFromFilename(tt.path), "path %q", tt.path)
	}
}

// chartImage renders a synthetic chart with one solid and one striped
// bar and returns its path plus the matching OCR fragments.
func chartImage(t *testing.T) (string, []ocr.Fragment) {
	t.Helper()
	img, fragments := testutil.GenerateChart(testutil.DefaultChartConfig())
	path := filepath.Join(t.TempDir(), "20161209.png")
	require.NoError(t, imaging.Save(img, path))
	return path, fragments
}

func TestProcessImage(t *testing.T) {
	path, fragments := chartImage(t)
	p := NewProcessor(&stubProvider{fragments: fragments}, matcher.DefaultConfig(), nil)

	records, err := p.ProcessImage(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "2016-12-09", records[0].ReportDate)
	assert.Equal(t, "Q1'17", records[0].Quarter.String())
	assert.InDelta(t, 27.85, records[0].EPS, 1e-9)
	assert.Equal(t, barfill.Dark, records[0].BarColor)
	assert.False(t, records[0].IsEstimate())

	assert.Equal(t, "Q2'17", records[1].Quarter.String())
	assert.InDelta(t, 30.1, records[1].EPS, 1e-9)
	assert.Equal(t, barfill.Light, records[1].BarColor)
	assert.True(t, records[1].IsEstimate())
}

func TestProcessImage_NoPairs(t *testing.T) {
	p := NewProcessor(&stubProvider{fragments: []ocr.Fragment{
		{Text: "Bottom-Up", Left: 10, Top: 10, Width: 40, Height: 10},
	}}, matcher.DefaultConfig(), nil)

	records, err := p.ProcessImage(context.Background(), "missing.png")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestProcessImage_OCRError(t *testing.T) {
	wantErr := errors.New("tesseract unavailable")
	p := NewProcessor(&stubProvider{err: wantErr}, matcher.DefaultConfig(), nil)

	_, err := p.ProcessImage(context.Background(), "chart.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
}

func TestProcessImage_UnreadableImage(t *testing.T) {
	_, fragments := testutil.GenerateChart(testutil.DefaultChartConfig())
	p := NewProcessor(&stubProvider{fragments: fragments}, matcher.DefaultConfig(), nil)

	_, err := p.ProcessImage(context.Background(), filepath.Join(t.TempDir(), "absent.png"))
	require.Error(t, err)
}
