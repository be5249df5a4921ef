// Package timeline groups a flat, date-stamped media sequence into calendar
// months and lays it out for a fixed-column virtualized grid.
package timeline

import (
	"fmt"
	"strconv"
	"strings"
)

// YearMonth is a calendar bucket in canonical "YYYY-MM" form.
// Lexicographic order equals chronological order.
type YearMonth string

// MissingDate marks a record without a date in a dates sequence.
const MissingDate = ""

// NewYearMonth returns the bucket for year and month (1-12).
func NewYearMonth(year, month int) (YearMonth, bool) {
	if year < 0 || year > 9999 || month < 1 || month > 12 {
		return "", false
	}
	return YearMonth(fmt.Sprintf("%04d-%02d", year, month)), true
}

// ParseDate extracts the bucket from a "YYYY-MM-DD" or "YYYY-MM" string.
// Anything after the day (a time part) is ignored.
func ParseDate(s string) (YearMonth, bool) {
	s = strings.TrimSpace(s)
	if s == MissingDate {
		return "", false
	}
	parts := strings.SplitN(s, "-", 3)
	if len(parts) < 2 {
		return "", false
	}
	year, ok := digits(parts[0])
	if !ok {
		return "", false
	}
	month, ok := digits(parts[1])
	if !ok {
		return "", false
	}
	if len(parts) == 3 {
		day := parts[2]
		if i := strings.IndexAny(day, "T "); i >= 0 {
			day = day[:i]
		}
		if _, ok := digits(day); !ok {
			return "", false
		}
	}
	return NewYearMonth(year, month)
}

func digits(s string) (int, bool) {
	if s == "" || len(s) > 4 {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

// Split returns the numeric year and month. Both are zero for a malformed value.
func (ym YearMonth) Split() (int, int) {
	s := string(ym)
	if len(s) != 7 || s[4] != '-' {
		return 0, 0
	}
	y, err := strconv.Atoi(s[:4])
	if err != nil {
		return 0, 0
	}
	m, err := strconv.Atoi(s[5:])
	if err != nil {
		return 0, 0
	}
	return y, m
}

// Year returns the numeric year.
func (ym YearMonth) Year() int {
	y, _ := ym.Split()
	return y
}

// Month returns the numeric month.
func (ym YearMonth) Month() int {
	_, m := ym.Split()
	return m
}

func (ym YearMonth) String() string { return string(ym) }

var monthNames = [...]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// Label renders ym for display, e.g. "March 2023".
func Label(ym YearMonth) string {
	y, m := ym.Split()
	if m < 1 || m > 12 {
		return string(ym)
	}
	return fmt.Sprintf("%s %d", monthNames[m-1], y)
}
