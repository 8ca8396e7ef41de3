package quarter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_PatternPriority(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Q1'17", "Q1'17"},
		{"Q2 2018", "Q2'18"},
		{"Q114", "Q1'14"},
		{"0114", "Q1'14"},
		{"Q1i7y", "Q1'17"},
	}
	for _, tt := range tests {
		l, ok := Parse(tt.input)
		require.True(t, ok, "Parse(%q) should match", tt.input)
		assert.Equal(t, tt.want, l.String(), "Parse(%q)", tt.input)
	}
}

func TestParse_MisrecognitionVariants(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"O114", "Q1'14"},   // Q read as letter O
		{"o214", "Q2'14"},   // lowercase o
		{"QI17", "Q1'17"},   // '1 read as I
		{"Ql25", "Q1'25"},   // '1 read as l
		{"Q2i8i", "Q2'18"},  // trailing i instead of y
		{"Q3l6y", "Q3'26"},  // single digit 6 maps to '26
		{" Q4'21 ", "Q4'21"}, // embedded in surrounding text
	}
	for _, tt := range tests {
		l, ok := Parse(tt.input)
		require.True(t, ok, "Parse(%q) should match", tt.input)
		assert.Equal(t, tt.want, l.String(), "Parse(%q)", tt.input)
	}
}

func TestParse_Rejections(t *testing.T) {
	inputs := []string{
		"",
		"27.85",
		"Q513",     // quarter out of range
		"0530",     // zero-prefixed with out-of-range quarter
		"Estimates",
		"2017",
	}
	for _, in := range inputs {
		_, ok := Parse(in)
		assert.False(t, ok, "Parse(%q) should not match", in)
	}
}

func TestParse_Idempotent(t *testing.T) {
	// Parsing the canonical rendering of a parse result must agree with
	// parsing the original text.
	inputs := []string{"Q1'17", "Q2 2018", "Q114", "0114", "Q1i7y"}
	for _, in := range inputs {
		first, ok := Parse(in)
		require.True(t, ok)
		second, ok := Parse(first.String())
		require.True(t, ok)
		assert.Equal(t, first, second, "Parse(%q) not idempotent", in)
	}
}

func TestLabel_YearMapping(t *testing.T) {
	l, ok := Parse("Q1'17")
	require.True(t, ok)
	assert.Equal(t, 2017, l.Year)

	// Two-digit years at or above 50 map to the previous century but must
	// still round-trip through the canonical form.
	l, err := New(3, 1963)
	require.NoError(t, err)
	assert.Equal(t, "Q3'63", l.String())
	back, err := ParseLabel(l.String())
	require.NoError(t, err)
	assert.Equal(t, l, back)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(0, 2017)
	assert.Error(t, err)
	_, err = New(5, 2017)
	assert.Error(t, err)
	_, err = New(1, 123)
	assert.Error(t, err)
	_, err = New(4, 2025)
	assert.NoError(t, err)
}

func TestLabel_Before(t *testing.T) {
	q114 := Label{Year: 2014, Quarter: 1}
	q214 := Label{Year: 2014, Quarter: 2}
	q115 := Label{Year: 2015, Quarter: 1}

	assert.True(t, q114.Before(q214))
	assert.True(t, q214.Before(q115))
	assert.False(t, q115.Before(q114))
	assert.False(t, q114.Before(q114))
}

func TestSortKey(t *testing.T) {
	y, q := SortKey("Q2'15")
	assert.Equal(t, 2015, y)
	assert.Equal(t, 2, q)

	y, q = SortKey("Q315")
	assert.Equal(t, 2015, y)
	assert.Equal(t, 3, q)

	y, q = SortKey("garbage")
	assert.Equal(t, 0, y)
	assert.Equal(t, 0, q)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"27.85", 27.85, true},
		{"1,234.5", 1234.5, true},
		{"-12.3", 12.3, true}, // minus signs are stripped, not honored
		{"$45.67", 45.67, true},
		{"Q1'17", 1, true}, // first digit run wins, label text included
		{"no digits", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.input)
		assert.Equal(t, tt.ok, ok, "ParseNumber(%q) ok", tt.input)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-9, "ParseNumber(%q)", tt.input)
		}
	}
}
