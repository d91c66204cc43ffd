package listing

import (
	"cmp"
	"slices"
)

// SortKey selects the order of a listing view.
type SortKey string

// Sort keys.
const (
	SortNewest    SortKey = "newest"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortRating    SortKey = "rating"
)

// SortKeys lists the sort keys in menu order.
var SortKeys = []SortKey{SortNewest, SortPriceLow, SortPriceHigh, SortRating}

// ParseSortKey maps a form value to a SortKey, falling back to SortNewest.
func ParseSortKey(s string) SortKey {
	for _, k := range SortKeys {
		if string(k) == s {
			return k
		}
	}
	return SortNewest
}

// Label returns the menu text for the key.
func (k SortKey) Label() string {
	switch k {
	case SortPriceLow:
		return "Price: Low to High"
	case SortPriceHigh:
		return "Price: High to Low"
	case SortRating:
		return "Highest Rated"
	default:
		return "Newest"
	}
}

// Sort returns a copy of items ordered by key. Equal keys keep their input
// order. SortNewest and unknown keys keep the input order entirely, which is
// expected to be newest first already.
func Sort(items []EnrichedItem, key SortKey) []EnrichedItem {
	out := slices.Clone(items)

	switch key {
	case SortPriceLow:
		slices.SortStableFunc(out, func(a, b EnrichedItem) int {
			return cmp.Compare(a.PricePerDay, b.PricePerDay)
		})
	case SortPriceHigh:
		slices.SortStableFunc(out, func(a, b EnrichedItem) int {
			return cmp.Compare(b.PricePerDay, a.PricePerDay)
		})
	case SortRating:
		slices.SortStableFunc(out, func(a, b EnrichedItem) int {
			return cmp.Compare(b.Rating(), a.Rating())
		})
	}
	return out
}

// Apply filters and then sorts items.
func Apply(items []EnrichedItem, fs FilterState, key SortKey) []EnrichedItem {
	return Sort(Filter(items, fs), key)
}
