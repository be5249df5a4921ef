package timeline

import "math"

// Locate maps each separator's month to its position in items.
func Locate(items []GalleryItem) map[YearMonth]int {
	out := make(map[YearMonth]int)
	for i, it := range items {
		if it.IsSeparator() {
			out[it.YearMonth] = i
		}
	}
	return out
}

// EstimateYearMonth guesses which month is on screen at a scroll offset.
// The row under the offset is converted to an item index and the separator
// nearest to it wins; on a tie the earlier one in items (the more recent
// month) is kept. It returns false when there is nothing to estimate from.
func EstimateYearMonth(offset, rowHeight float64, columns int, items []GalleryItem) (YearMonth, bool) {
	if rowHeight <= 0 || columns < 1 || math.IsNaN(offset) || math.IsNaN(rowHeight) {
		return "", false
	}
	if offset < 0 {
		offset = 0
	}
	row := math.Floor(offset / rowHeight)
	if math.IsInf(row, 0) || row > math.MaxInt32 {
		row = math.MaxInt32
	}
	estimated := int(row) * columns

	var (
		best     YearMonth
		found    bool
		bestDist int
	)
	for _, it := range items {
		if !it.IsSeparator() {
			continue
		}
		d := it.ActualIndex - estimated
		if d < 0 {
			d = -d
		}
		if !found || d < bestDist {
			best, bestDist, found = it.YearMonth, d, true
		}
	}
	return best, found
}
