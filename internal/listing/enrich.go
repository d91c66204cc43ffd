// Package listing turns raw item, review and request records into the
// enriched, filtered and sorted views shown on browse and listing pages.
// Everything here is a pure function of its inputs.
package listing

import "github.com/erazemk/burrow/internal/model"

// EnrichedItem is an item with its review aggregates. AvgRating and
// ReviewCount are both nil when the item has no reviews.
type EnrichedItem struct {
	model.Item
	AvgRating   *float64 `json:"avg_rating"`
	ReviewCount *int     `json:"review_count"`
}

// Rating returns the average rating, or 0 for unrated items.
func (e *EnrichedItem) Rating() float64 {
	if e.AvgRating == nil {
		return 0
	}
	return *e.AvgRating
}

type ratingTotal struct {
	sum   int
	count int
}

// Enrich joins items with their reviews, returning one EnrichedItem per input
// item in the same order. Reviews of items not in the input are ignored.
func Enrich(items []model.Item, reviews []model.Review) []EnrichedItem {
	totals := make(map[string]*ratingTotal, len(items))
	for _, r := range reviews {
		t := totals[r.ItemID]
		if t == nil {
			t = &ratingTotal{}
			totals[r.ItemID] = t
		}
		t.sum += r.Rating
		t.count++
	}

	out := make([]EnrichedItem, len(items))
	for i, item := range items {
		out[i] = EnrichedItem{Item: item}
		t, ok := totals[item.ID]
		if !ok {
			continue
		}
		avg := float64(t.sum) / float64(t.count)
		count := t.count
		out[i].AvgRating = &avg
		out[i].ReviewCount = &count
	}
	return out
}

// PendingCounts maps item IDs to their number of pending rental requests.
type PendingCounts map[string]int

// For returns the pending count of an item, 0 when it has none.
func (p PendingCounts) For(itemID string) int {
	return p[itemID]
}

// CountPending counts pending requests per item. Requests in any other
// status are skipped.
func CountPending(requests []model.RentalRequest) PendingCounts {
	counts := make(PendingCounts)
	for _, r := range requests {
		if r.Status != model.StatusPending {
			continue
		}
		counts[r.ItemID]++
	}
	return counts
}
