package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/erazemk/burrow/internal/db"
	"github.com/erazemk/burrow/internal/model"
)

// HasBorrowed reports whether userID has an approved or completed request for
// the item.
func HasBorrowed(ctx context.Context, d *db.DB, itemID, userID string) (bool, error) {
	var count int
	err := d.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rental_requests
		 WHERE item_id = ? AND borrower_id = ? AND status IN ('approved', 'completed')`,
		itemID, userID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking borrow history: %w", err)
	}
	return count > 0, nil
}

// HasReviewed reports whether userID has already reviewed the item.
func HasReviewed(ctx context.Context, d *db.DB, itemID, userID string) (bool, error) {
	var count int
	err := d.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews WHERE item_id = ? AND reviewer_id = ?`,
		itemID, userID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking reviews: %w", err)
	}
	return count > 0, nil
}

// CreateReview records a rating of an item. The reviewer must have borrowed
// the item and may review it only once.
func CreateReview(ctx context.Context, d *db.DB, itemID, reviewerID string, rating int, comment string) (*model.Review, error) {
	if err := model.ValidateRating(rating); err != nil {
		return nil, err
	}

	borrowed, err := HasBorrowed(ctx, d, itemID, reviewerID)
	if err != nil {
		return nil, err
	}
	if !borrowed {
		return nil, ErrNotEligible
	}

	reviewed, err := HasReviewed(ctx, d, itemID, reviewerID)
	if err != nil {
		return nil, err
	}
	if reviewed {
		return nil, ErrDuplicateReview
	}

	r := &model.Review{
		ID:         newID(),
		ItemID:     itemID,
		ReviewerID: reviewerID,
		Rating:     rating,
		Comment:    strings.TrimSpace(comment),
		CreatedAt:  now(),
	}
	_, err = d.ExecContext(ctx,
		`INSERT INTO reviews (id, item_id, reviewer_id, rating, comment, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.ItemID, r.ReviewerID, r.Rating, nullString(r.Comment), r.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating review: %w", err)
	}
	return r, nil
}

// ListReviewsForItem returns the reviews of an item newest first, with
// reviewer names.
func ListReviewsForItem(ctx context.Context, d *db.DB, itemID string) ([]model.Review, error) {
	rows, err := d.QueryContext(ctx,
		`SELECT r.id, r.item_id, r.reviewer_id, r.rating, COALESCE(r.comment, ''), r.created_at,
		        COALESCE(p.display_name, '')
		 FROM reviews r
		 LEFT JOIN profiles p ON p.id = r.reviewer_id
		 WHERE r.item_id = ?
		 ORDER BY r.created_at DESC`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		var r model.Review
		if err := rows.Scan(&r.ID, &r.ItemID, &r.ReviewerID, &r.Rating, &r.Comment, &r.CreatedAt, &r.ReviewerName); err != nil {
			return nil, fmt.Errorf("scanning review: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// ListReviewRatings returns the item id and rating of every review of the
// given items. Other fields are left empty.
func ListReviewRatings(ctx context.Context, d *db.DB, itemIDs []string) ([]model.Review, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}

	in, args := placeholders(itemIDs)
	rows, err := d.QueryContext(ctx,
		`SELECT item_id, rating FROM reviews WHERE item_id IN (`+in+`)`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing review ratings: %w", err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		var r model.Review
		if err := rows.Scan(&r.ItemID, &r.Rating); err != nil {
			return nil, fmt.Errorf("scanning review rating: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}
