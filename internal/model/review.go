package model

import (
	"fmt"
	"time"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a borrower's rating of an item.
type Review struct {
	ID         string    `json:"id"`
	ItemID     string    `json:"item_id"`
	ReviewerID string    `json:"reviewer_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`

	// Joined fields (not always populated).
	ReviewerName string `json:"reviewer_name,omitempty"`
}

// ValidateRating checks that a rating is within bounds.
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("rating must be between %d and %d", MinRating, MaxRating)
	}
	return nil
}
