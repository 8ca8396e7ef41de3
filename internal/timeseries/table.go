// Package timeseries maintains the wide EPS table (one row per report
// date, one column per quarter) and the per-report confidence series.
package timeseries

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/seung-gu/factset-report-analyzer/internal/extract"
	"github.com/seung-gu/factset-report-analyzer/internal/quarter"
)

// dateColumn heads the wide table. legacyConfidenceColumn appeared in an
// earlier file layout and is dropped on load; confidence now lives in its
// own table.
const (
	dateColumn             = "Report_Date"
	legacyConfidenceColumn = "Confidence"
)

// estimateMarker suffixes values read from light (estimate) bars.
const estimateMarker = "*"

// Row is one report date's snapshot across quarters. Cells map quarter
// labels to formatted values; absent quarters have no entry.
type Row struct {
	Date  string
	Cells map[string]string
}

// Table is the wide EPS table. Quarters holds the column order.
type Table struct {
	Quarters []string
	Rows     []Row
}

// FromRecords pivots records into one row per report date. The first
// record wins when a quarter repeats within a date. Estimate values
// carry the trailing marker.
func FromRecords(records []extract.Record) Table {
	if len(records) == 0 {
		return Table{}
	}
	byDate := make(map[string]Row)
	dates := make([]string, 0, 1)
	quarters := make([]string, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		row, ok := byDate[r.ReportDate]
		if !ok {
			row = Row{Date: r.ReportDate, Cells: make(map[string]string, len(records))}
			byDate[r.ReportDate] = row
			dates = append(dates, r.ReportDate)
		}
		label := r.Quarter.String()
		if _, dup := row.Cells[label]; dup {
			continue
		}
		value := strconv.FormatFloat(r.EPS, 'f', -1, 64)
		if r.IsEstimate() {
			value += estimateMarker
		}
		row.Cells[label] = value
		if !seen[label] {
			seen[label] = true
			quarters = append(quarters, label)
		}
	}
	sort.Strings(dates)
	t := Table{Quarters: quarters, Rows: make([]Row, 0, len(dates))}
	for _, date := range dates {
		t.Rows = append(t.Rows, byDate[date])
	}
	t.sortColumns()
	return t
}

// Merge combines two tables. Rows with the same date collapse to the
// later table's row, rows sort by date, and columns sort chronologically.
func Merge(existing, incoming Table) Table {
	byDate := make(map[string]Row)
	order := make([]string, 0, len(existing.Rows)+len(incoming.Rows))
	for _, r := range append(append([]Row{}, existing.Rows...), incoming.Rows...) {
		if _, ok := byDate[r.Date]; !ok {
			order = append(order, r.Date)
		}
		byDate[r.Date] = r
	}
	sort.Strings(order)

	merged := Table{Rows: make([]Row, 0, len(order))}
	seen := make(map[string]bool)
	for _, date := range order {
		row := byDate[date]
		merged.Rows = append(merged.Rows, row)
		for label := range row.Cells {
			if !seen[label] {
				seen[label] = true
				merged.Quarters = append(merged.Quarters, label)
			}
		}
	}
	merged.sortColumns()
	return merged
}

// sortColumns orders quarter columns chronologically. Labels that do not
// parse sort first so they stay visible rather than vanishing.
func (t *Table) sortColumns() {
	sort.SliceStable(t.Quarters, func(i, j int) bool {
		yi, qi := quarter.SortKey(t.Quarters[i])
		yj, qj := quarter.SortKey(t.Quarters[j])
		if yi != yj {
			return yi < yj
		}
		return qi < qj
	})
}

// Cell returns the raw cell for a date and quarter label.
func (t Table) Cell(date, label string) (string, bool) {
	for _, r := range t.Rows {
		if r.Date == date {
			v, ok := r.Cells[label]
			return v, ok
		}
	}
	return "", false
}

// Value returns the numeric cell value and whether the cell was marked
// as an estimate.
func (t Table) Value(date, label string) (value float64, estimate, ok bool) {
	raw, ok := t.Cell(date, label)
	if !ok || raw == "" {
		return 0, false, false
	}
	estimate = strings.HasSuffix(raw, estimateMarker)
	raw = strings.TrimSuffix(raw, estimateMarker)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, false
	}
	return v, estimate, true
}

// HasDate reports whether the table already holds a row for the date.
func (t Table) HasDate(date string) bool {
	for _, r := range t.Rows {
		if r.Date == date {
			return true
		}
	}
	return false
}

// Encode writes the table as CSV with the date column first.
func (t Table) Encode(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append([]string{dateColumn}, t.Quarters...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range t.Rows {
		record := make([]string, 0, len(header))
		record = append(record, row.Date)
		for _, label := range t.Quarters {
			record = append(record, row.Cells[label])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %s: %w", row.Date, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Decode reads a wide CSV table. A legacy confidence column is dropped.
func Decode(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return Table{}, nil
	}
	header := rows[0]
	if len(header) == 0 || header[0] != dateColumn {
		return Table{}, fmt.Errorf("unexpected header %v", header)
	}

	var t Table
	keep := make([]int, 0, len(header)-1)
	for i, name := range header[1:] {
		if name == legacyConfidenceColumn {
			continue
		}
		keep = append(keep, i+1)
		t.Quarters = append(t.Quarters, name)
	}
	for _, record := range rows[1:] {
		if len(record) == 0 {
			continue
		}
		row := Row{Date: record[0], Cells: make(map[string]string)}
		for n, idx := range keep {
			if idx < len(record) && record[idx] != "" {
				row.Cells[t.Quarters[n]] = record[idx]
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
