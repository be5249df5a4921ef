package timeline

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/starford/chronogrid/internal/apperr"
)

// InvalidIndex is the OriginalIndex of synthetic padding items.
const InvalidIndex = -1

// Kind tags a GalleryItem.
type Kind string

const (
	KindMedia     Kind = "media"
	KindSeparator Kind = "separator"
)

// GalleryItem is one cell of the enriched sequence: a media item (real or
// padding) or a month separator that occupies a full grid row.
type GalleryItem struct {
	Kind        Kind `json:"type"`
	ActualIndex int  `json:"actual_index"`

	// Media fields.
	ID            string `json:"id,omitempty"`
	OriginalIndex int    `json:"original_index"`

	// Separator fields.
	YearMonth YearMonth `json:"year_month,omitempty"`
	Label     string    `json:"label,omitempty"`
}

// IsSeparator reports whether the item is a month separator.
func (it GalleryItem) IsSeparator() bool { return it.Kind == KindSeparator }

// IsPadding reports whether the item is a synthetic row filler.
func (it GalleryItem) IsPadding() bool {
	return it.Kind == KindMedia && it.OriginalIndex == InvalidIndex
}

// IsMedia reports whether the item is real, clickable media.
func (it GalleryItem) IsMedia() bool {
	return it.Kind == KindMedia && it.OriginalIndex != InvalidIndex
}

type member struct {
	id    string
	index int
}

// Enrich groups dated records by month, most recent first, and emits a
// separator ahead of each group. Padding items are inserted so that every
// separator starts a new row of a grid with the given column count.
// Undated records are left out.
func Enrich(ids, dates []string, columns int) ([]GalleryItem, error) {
	if columns < 1 {
		return nil, fmt.Errorf("timeline: enrich: column count %d: %w", columns, apperr.ErrInvalidArgument)
	}

	groups := make(map[YearMonth][]member)
	taken := make(map[string]struct{}, len(ids))
	for i, id := range ids {
		taken[id] = struct{}{}
		if i >= len(dates) {
			continue
		}
		ym, ok := ParseDate(dates[i])
		if !ok {
			continue
		}
		groups[ym] = append(groups[ym], member{id: id, index: i})
	}

	order := make([]YearMonth, 0, len(groups))
	for ym := range groups {
		order = append(order, ym)
	}
	slices.Sort(order)
	slices.Reverse(order)

	total := 0
	for _, g := range groups {
		total += len(g) + columns
	}
	items := make([]GalleryItem, 0, total)

	for _, ym := range order {
		for len(items)%columns != 0 {
			n := len(items)
			items = append(items, GalleryItem{
				Kind:          KindMedia,
				ID:            paddingID(n, taken),
				OriginalIndex: InvalidIndex,
				ActualIndex:   n,
			})
		}
		items = append(items, GalleryItem{
			Kind:          KindSeparator,
			YearMonth:     ym,
			Label:         Label(ym),
			OriginalIndex: InvalidIndex,
			ActualIndex:   len(items),
		})
		for _, m := range groups[ym] {
			items = append(items, GalleryItem{
				Kind:          KindMedia,
				ID:            m.id,
				OriginalIndex: m.index,
				ActualIndex:   len(items),
			})
		}
	}
	return items, nil
}

// paddingID returns "empty-<n>", suffixed until it clashes with no real id.
func paddingID(n int, taken map[string]struct{}) string {
	id := "empty-" + strconv.Itoa(n)
	for {
		if _, clash := taken[id]; !clash {
			return id
		}
		id += "~"
	}
}
