package timeseries

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/gocarina/gocsv"

	"github.com/seung-gu/factset-report-analyzer/internal/extract"
)

// ConfidenceRow scores how trustworthy one report date's extraction is.
type ConfidenceRow struct {
	Date       string  `csv:"Report_Date"`
	Confidence float64 `csv:"Confidence"`
}

// relativeTolerance bounds how far a reported value may drift from the
// previous report before it counts as inconsistent.
const relativeTolerance = 0.2

// ComputeConfidence blends two equally weighted signals: how decisively
// the bar classifier voted, and how consistent the reported (dark bar)
// values are with the immediately preceding report in the merged table.
func ComputeConfidence(records []extract.Record, merged Table, date string) float64 {
	bar := barScore(records)
	consistency := consistencyScore(records, merged, date)
	return round1(0.5*bar + 0.5*consistency)
}

func barScore(records []extract.Record) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, r := range records {
		sum += r.BarConfidence.Score()
	}
	return sum / float64(len(records))
}

// consistencyScore compares reported values against the previous row.
// Only quarters reported (not estimated) on both dates are comparable.
// The first date in the table has nothing to compare and scores 100. A
// later date with no comparable quarters scores 0.
func consistencyScore(records []extract.Record, merged Table, date string) float64 {
	idx := -1
	for i, row := range merged.Rows {
		if row.Date == date {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return 100
	}
	prev := merged.Rows[idx-1].Date

	var matches, total int
	for _, r := range records {
		if r.IsEstimate() {
			continue
		}
		prevValue, prevEstimate, ok := merged.Value(prev, r.Quarter.String())
		if !ok || prevEstimate {
			continue
		}
		total++
		denom := math.Max(math.Abs(prevValue), 0.01)
		if math.Abs(r.EPS-prevValue)/denom <= relativeTolerance {
			matches++
		}
	}
	if total == 0 {
		return 0
	}
	return 100 * float64(matches) / float64(total)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// MergeConfidence combines confidence rows, keeping the later entry for
// duplicate dates and sorting by date.
func MergeConfidence(existing, incoming []ConfidenceRow) []ConfidenceRow {
	byDate := make(map[string]ConfidenceRow)
	for _, r := range append(append([]ConfidenceRow{}, existing...), incoming...) {
		byDate[r.Date] = r
	}
	merged := make([]ConfidenceRow, 0, len(byDate))
	for _, r := range byDate {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date < merged[j].Date })
	return merged
}

// EncodeConfidence writes confidence rows as CSV.
func EncodeConfidence(rows []ConfidenceRow, w io.Writer) error {
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("encode confidence: %w", err)
	}
	return nil
}

// DecodeConfidence reads confidence rows from CSV. An empty input yields
// an empty series.
func DecodeConfidence(r io.Reader) ([]ConfidenceRow, error) {
	var rows []ConfidenceRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode confidence: %w", err)
	}
	return rows, nil
}
