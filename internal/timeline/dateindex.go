package timeline

import (
	"slices"
)

// DateIndex holds the lookup structures derived from one (ids, dates) pair.
// It is never mutated after BuildIndex returns.
type DateIndex struct {
	IDToDate         map[string]string
	YearMonthToIndex map[YearMonth]int
	// Years are distinct, most recent first.
	Years []int
	// MonthsByYear lists distinct months per year in ascending order.
	MonthsByYear map[int][]int
	// Skipped holds original indices whose date was missing or malformed.
	Skipped []int

	ordered []YearMonth
}

// BuildIndex derives a DateIndex from parallel id and date sequences.
// dates shorter than ids leaves the tail undated; extra dates are ignored.
func BuildIndex(ids, dates []string) *DateIndex {
	idx := &DateIndex{
		IDToDate:         make(map[string]string),
		YearMonthToIndex: make(map[YearMonth]int),
		MonthsByYear:     make(map[int][]int),
	}

	months := make(map[int]map[int]struct{})
	for i, id := range ids {
		var date string
		if i < len(dates) {
			date = dates[i]
		}
		ym, ok := ParseDate(date)
		if !ok {
			idx.Skipped = append(idx.Skipped, i)
			continue
		}
		idx.IDToDate[id] = date
		if _, seen := idx.YearMonthToIndex[ym]; !seen {
			idx.YearMonthToIndex[ym] = i
			idx.ordered = append(idx.ordered, ym)
		}
		y, m := ym.Split()
		if months[y] == nil {
			months[y] = make(map[int]struct{})
		}
		months[y][m] = struct{}{}
	}

	for y, set := range months {
		idx.Years = append(idx.Years, y)
		ms := make([]int, 0, len(set))
		for m := range set {
			ms = append(ms, m)
		}
		slices.Sort(ms)
		idx.MonthsByYear[y] = ms
	}
	slices.Sort(idx.Years)
	slices.Reverse(idx.Years)
	slices.Sort(idx.ordered)

	return idx
}

// DateFor returns the raw date string recorded for id.
func (idx *DateIndex) DateFor(id string) (string, bool) {
	d, ok := idx.IDToDate[id]
	return d, ok
}

// YearMonths returns every bucket in ascending chronological order.
func (idx *DateIndex) YearMonths() []YearMonth {
	return slices.Clone(idx.ordered)
}

// Has reports whether ym has at least one dated record.
func (idx *DateIndex) Has(ym YearMonth) bool {
	_, ok := idx.YearMonthToIndex[ym]
	return ok
}

// Latest returns the earliest available month of the most recent year.
func (idx *DateIndex) Latest() (YearMonth, bool) {
	if len(idx.Years) == 0 {
		return "", false
	}
	y := idx.Years[0]
	ms := idx.MonthsByYear[y]
	if len(ms) == 0 {
		return "", false
	}
	return NewYearMonth(y, ms[0])
}

// Len returns the number of dated records.
func (idx *DateIndex) Len() int { return len(idx.IDToDate) }

// Empty reports whether no record carried a usable date.
func (idx *DateIndex) Empty() bool { return len(idx.ordered) == 0 }

// neighbour returns the bucket step positions away from ym in ascending order.
func (idx *DateIndex) neighbour(ym YearMonth, step int) (YearMonth, bool) {
	i, found := slices.BinarySearch(idx.ordered, ym)
	if !found {
		return "", false
	}
	j := i + step
	if j < 0 || j >= len(idx.ordered) {
		return "", false
	}
	return idx.ordered[j], true
}

// Previous returns the bucket chronologically before ym.
func (idx *DateIndex) Previous(ym YearMonth) (YearMonth, bool) { return idx.neighbour(ym, -1) }

// Next returns the bucket chronologically after ym.
func (idx *DateIndex) Next(ym YearMonth) (YearMonth, bool) { return idx.neighbour(ym, 1) }
