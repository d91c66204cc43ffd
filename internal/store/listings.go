package store

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/erazemk/burrow/internal/db"
	"github.com/erazemk/burrow/internal/listing"
	"github.com/erazemk/burrow/internal/model"
)

func itemIDs(items []model.Item) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

// FetchListings loads the items matching f together with the ratings of those
// items and returns them enriched, newest first.
func FetchListings(ctx context.Context, d *db.DB, f ItemFilter) (_ []listing.EnrichedItem, err error) {
	ctx, span := tracer.Start(ctx, "store.fetch_listings",
		trace.WithAttributes(
			attribute.Bool("available_only", f.AvailableOnly),
			attribute.Int("limit", f.Limit),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	items, err := ListItems(ctx, d, f)
	if err != nil {
		return nil, err
	}
	reviews, err := ListReviewRatings(ctx, d, itemIDs(items))
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("items.loaded", len(items)),
		attribute.Int("reviews.loaded", len(reviews)),
	)
	return listing.Enrich(items, reviews), nil
}

// FetchOwnerListings loads all items of ownerID, enriched, together with the
// number of pending requests per item.
func FetchOwnerListings(ctx context.Context, d *db.DB, ownerID string) (_ []listing.EnrichedItem, _ listing.PendingCounts, err error) {
	ctx, span := tracer.Start(ctx, "store.fetch_owner_listings")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	items, err := ListItems(ctx, d, ItemFilter{OwnerID: ownerID})
	if err != nil {
		return nil, nil, err
	}
	ids := itemIDs(items)

	reviews, err := ListReviewRatings(ctx, d, ids)
	if err != nil {
		return nil, nil, err
	}
	pending, err := ListPendingRequestsForItems(ctx, d, ids)
	if err != nil {
		return nil, nil, err
	}

	span.SetAttributes(
		attribute.Int("items.loaded", len(items)),
		attribute.Int("pending.loaded", len(pending)),
	)
	return listing.Enrich(items, reviews), listing.CountPending(pending), nil
}

// FetchItem loads one item with its reviews. The item is nil if it does not
// exist.
func FetchItem(ctx context.Context, d *db.DB, id string) (_ *listing.EnrichedItem, _ []model.Review, err error) {
	ctx, span := tracer.Start(ctx, "store.fetch_item", trace.WithAttributes(attribute.String("item.id", id)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	item, err := GetItem(ctx, d, id)
	if err != nil || item == nil {
		return nil, nil, err
	}
	reviews, err := ListReviewsForItem(ctx, d, id)
	if err != nil {
		return nil, nil, err
	}

	enriched := listing.Enrich([]model.Item{*item}, reviews)[0]
	return &enriched, reviews, nil
}
