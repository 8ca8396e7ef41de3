package timeseries

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seung-gu/factset-report-analyzer/internal/barfill"
	"github.com/seung-gu/factset-report-analyzer/internal/extract"
	"github.com/seung-gu/factset-report-analyzer/internal/quarter"
)

func rec(t *testing.T, date string, q, year int, eps float64, color barfill.Color) extract.Record {
	t.Helper()
	label, err := quarter.New(q, year)
	require.NoError(t, err)
	return extract.Record{
		ReportDate:    date,
		Quarter:       label,
		EPS:           eps,
		BarColor:      color,
		BarConfidence: barfill.High,
	}
}

func TestFromRecords(t *testing.T) {
	records := []extract.Record{
		rec(t, "2016-12-09", 2, 2017, 30.1, barfill.Light),
		rec(t, "2016-12-09", 1, 2017, 27.85, barfill.Dark),
		rec(t, "2016-12-09", 1, 2017, 99.9, barfill.Dark), // duplicate quarter, first wins
	}

	table := FromRecords(records)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "2016-12-09", table.Rows[0].Date)
	assert.Equal(t, []string{"Q1'17", "Q2'17"}, table.Quarters)
	assert.Equal(t, "27.85", table.Rows[0].Cells["Q1'17"])
	assert.Equal(t, "30.1*", table.Rows[0].Cells["Q2'17"])
}

func TestFromRecords_MultipleDates(t *testing.T) {
	records := []extract.Record{
		rec(t, "2016-12-16", 1, 2017, 28.0, barfill.Dark),
		rec(t, "2016-12-09", 1, 2017, 27.85, barfill.Dark),
		rec(t, "2016-12-09", 2, 2017, 30.1, barfill.Light),
	}

	table := FromRecords(records)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "2016-12-09", table.Rows[0].Date)
	assert.Equal(t, "2016-12-16", table.Rows[1].Date)
	assert.Equal(t, "27.85", table.Rows[0].Cells["Q1'17"])
	assert.Equal(t, "30.1*", table.Rows[0].Cells["Q2'17"])
	assert.Equal(t, "28", table.Rows[1].Cells["Q1'17"])
	_, ok := table.Rows[1].Cells["Q2'17"]
	assert.False(t, ok)
}

func TestFromRecords_Empty(t *testing.T) {
	table := FromRecords(nil)
	assert.Empty(t, table.Rows)
	assert.Empty(t, table.Quarters)
}

func TestMerge(t *testing.T) {
	first := FromRecords([]extract.Record{
		rec(t, "2016-12-09", 1, 2017, 27.85, barfill.Dark),
		rec(t, "2016-12-09", 2, 2017, 30.1, barfill.Light),
	})
	second := FromRecords([]extract.Record{
		rec(t, "2016-12-02", 1, 2017, 27.5, barfill.Dark),
		rec(t, "2016-12-02", 4, 2016, 29.0, barfill.Dark),
	})

	merged := Merge(first, second)
	require.Len(t, merged.Rows, 2)
	assert.Equal(t, "2016-12-02", merged.Rows[0].Date)
	assert.Equal(t, "2016-12-09", merged.Rows[1].Date)
	assert.Equal(t, []string{"Q4'16", "Q1'17", "Q2'17"}, merged.Quarters)
}

func TestMerge_DuplicateDateKeepsLater(t *testing.T) {
	first := FromRecords([]extract.Record{rec(t, "2016-12-09", 1, 2017, 1.0, barfill.Dark)})
	second := FromRecords([]extract.Record{rec(t, "2016-12-09", 1, 2017, 2.0, barfill.Dark)})

	merged := Merge(first, second)
	require.Len(t, merged.Rows, 1)
	v, estimate, ok := merged.Value("2016-12-09", "Q1'17")
	require.True(t, ok)
	assert.False(t, estimate)
	assert.InDelta(t, 2.0, v, 1e-9)
}

func TestMerge_ColumnOrderAcrossCenturies(t *testing.T) {
	a := FromRecords([]extract.Record{rec(t, "2000-01-07", 1, 2000, 10.0, barfill.Dark)})
	b := FromRecords([]extract.Record{rec(t, "2000-01-14", 4, 1999, 9.5, barfill.Dark)})

	merged := Merge(a, b)
	assert.Equal(t, []string{"Q4'99", "Q1'00"}, merged.Quarters)
}

func TestEncodeDecodeRoundtrip(t *testing.T) {
	table := FromRecords([]extract.Record{
		rec(t, "2016-12-09", 1, 2017, 27.85, barfill.Dark),
		rec(t, "2016-12-09", 2, 2017, 30.1, barfill.Light),
	})

	var buf bytes.Buffer
	require.NoError(t, table.Encode(&buf))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, table.Quarters, got.Quarters)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, table.Rows[0].Cells, got.Rows[0].Cells)
}

func TestDecode_DropsLegacyConfidenceColumn(t *testing.T) {
	in := "Report_Date,Q1'17,Confidence,Q2'17\n2016-12-09,27.85,83.5,30.1*\n"

	table, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"Q1'17", "Q2'17"}, table.Quarters)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "27.85", table.Rows[0].Cells["Q1'17"])
	assert.Equal(t, "30.1*", table.Rows[0].Cells["Q2'17"])
	_, ok := table.Rows[0].Cells["Confidence"]
	assert.False(t, ok)
}

func TestDecode_Empty(t *testing.T) {
	table, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, table.Rows)
}

func TestDecode_BadHeader(t *testing.T) {
	_, err := Decode(strings.NewReader("Date,Q1'17\n2016-12-09,1.0\n"))
	require.Error(t, err)
}

func TestValue(t *testing.T) {
	table := FromRecords([]extract.Record{
		rec(t, "2016-12-09", 1, 2017, 27.85, barfill.Dark),
		rec(t, "2016-12-09", 2, 2017, 30.1, barfill.Light),
	})

	v, estimate, ok := table.Value("2016-12-09", "Q2'17")
	require.True(t, ok)
	assert.True(t, estimate)
	assert.InDelta(t, 30.1, v, 1e-9)

	_, _, ok = table.Value("2016-12-09", "Q3'17")
	assert.False(t, ok)
	_, _, ok = table.Value("2099-01-01", "Q1'17")
	assert.False(t, ok)
}

func TestHasDate(t *testing.T) {
	table := FromRecords([]extract.Record{rec(t, "2016-12-09", 1, 2017, 1.0, barfill.Dark)})
	assert.True(t, table.HasDate("2016-12-09"))
	assert.False(t, table.HasDate("2016-12-16"))
}
