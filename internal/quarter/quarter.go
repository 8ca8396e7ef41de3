package quarter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Label identifies a fiscal quarter in the canonical Q{1-4}'{YY} form used by
// the chart axis, e.g. Q1'17.
type Label struct {
	Year    int // full year, e.g. 2017
	Quarter int // 1..4
}

// New validates and constructs a Label from a quarter number and full year.
func New(q, year int) (Label, error) {
	if q < 1 || q > 4 {
		return Label{}, fmt.Errorf("quarter number out of range: %d", q)
	}
	if year < 1900 || year > 2099 {
		return Label{}, fmt.Errorf("year out of range: %d", year)
	}
	return Label{Year: year, Quarter: q}, nil
}

// String renders the canonical Q{1-4}'{YY} form.
func (l Label) String() string {
	return fmt.Sprintf("Q%d'%02d", l.Quarter, l.Year%100)
}

// Before reports whether l is chronologically earlier than other.
func (l Label) Before(other Label) bool {
	if l.Year != other.Year {
		return l.Year < other.Year
	}
	return l.Quarter < other.Quarter
}

// fullYear maps a two-digit year to its century. Chart data postdates 2014,
// so low values are 20xx; the 19xx branch exists only so labels round-trip.
func fullYear(yy int) int {
	if yy < 50 {
		return 2000 + yy
	}
	return 1900 + yy
}

// The substitutions and patterns below compensate for known OCR confusions on
// the quarter axis labels: Q read as O/0, the apostrophe-digit pair read as
// i/I/l, and a trailing y standing in for a misrendered digit.
var (
	subLeadingZero = regexp.MustCompile(`^[O0o]([1-4])`)
	subQLetterOne  = regexp.MustCompile(`(?i)Q[IL](\d)`)

	patCanonical = regexp.MustCompile(`(?i)Q([1-4])'(\d{2})`)
	patFullYear  = regexp.MustCompile(`(?i)Q([1-4])\s+20(\d{2})`)
	patConcat    = regexp.MustCompile(`(?i)Q([1-4])(\d{2})`)
	patZeroQ     = regexp.MustCompile(`[0Oo]([1-4])(\d{2})`)
	patMangled   = regexp.MustCompile(`(?i)Q([1-4])[iIl1](\d)[yi]`)
)

// Normalize rewrites the two targeted OCR confusions before pattern matching:
// a leading O/0 directly followed by a quarter digit becomes Q, and Q followed
// by I/l and a digit has the missing 1 reinserted.
func Normalize(text string) string {
	text = subLeadingZero.ReplaceAllString(text, "Q$1")
	text = subQLetterOne.ReplaceAllString(text, "Q1$1")
	return text
}

// yearPlausible guards the separator-free patterns against accepting
// implausible years (charts cover 2014 onward).
func yearPlausible(yy int) bool {
	return (yy >= 14 && yy <= 99) || (yy >= 0 && yy <= 25)
}

// Parse extracts a quarter Label from raw OCR text. The patterns are tried in
// priority order and the first match wins. A false return is the common case:
// most OCR fragments are not quarter labels.
func Parse(text string) (Label, bool) {
	s := Normalize(text)

	if m := patCanonical.FindStringSubmatch(s); m != nil {
		return mustLabel(m[1], m[2]), true
	}
	if m := patFullYear.FindStringSubmatch(s); m != nil {
		return mustLabel(m[1], m[2]), true
	}
	if m := patConcat.FindStringSubmatch(s); m != nil {
		if yy, _ := strconv.Atoi(m[2]); yearPlausible(yy) {
			return mustLabel(m[1], m[2]), true
		}
	}
	if m := patZeroQ.FindStringSubmatch(s); m != nil {
		if yy, _ := strconv.Atoi(m[2]); yearPlausible(yy) {
			return mustLabel(m[1], m[2]), true
		}
	}
	if m := patMangled.FindStringSubmatch(s); m != nil {
		// Single trailing digit: 7/8/9 belong to the 2017-2019 charts,
		// anything else to 2020+.
		yy := "2" + m[2]
		if m[2] == "7" || m[2] == "8" || m[2] == "9" {
			yy = "1" + m[2]
		}
		return mustLabel(m[1], yy), true
	}
	return Label{}, false
}

// ParseLabel parses a canonical Q{1-4}'{YY} string, also accepting the
// separator-free Q{1-4}{YY} form found in older persisted tables.
func ParseLabel(s string) (Label, error) {
	if m := patCanonical.FindStringSubmatch(s); m != nil {
		return mustLabel(m[1], m[2]), nil
	}
	if m := patConcat.FindStringSubmatch(s); m != nil {
		return mustLabel(m[1], m[2]), nil
	}
	return Label{}, fmt.Errorf("not a quarter label: %q", s)
}

// SortKey converts a quarter column name into a (year, quarter) pair for
// chronological column ordering. Unparsable names sort first.
func SortKey(s string) (year, q int) {
	l, err := ParseLabel(s)
	if err != nil {
		return 0, 0
	}
	return l.Year, l.Quarter
}

func mustLabel(qStr, yyStr string) Label {
	q, _ := strconv.Atoi(qStr)
	yy, _ := strconv.Atoi(yyStr)
	return Label{Year: fullYear(yy), Quarter: q}
}

var patNumber = regexp.MustCompile(`\d+\.?\d*`)

// ParseNumber extracts the first decimal or integer substring after stripping
// thousands commas and minus signs. Returns false if the text holds no number.
func ParseNumber(text string) (float64, bool) {
	cleaned := strings.NewReplacer(",", "", "-", "").Replace(text)
	m := patNumber.FindString(cleaned)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
