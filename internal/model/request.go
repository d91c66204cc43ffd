package model

import (
	"errors"
	"math"
	"strings"
	"time"
)

// RequestStatus is the lifecycle state of a rental request.
type RequestStatus string

// Request statuses.
const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusCompleted RequestStatus = "completed"
	StatusCancelled RequestStatus = "cancelled"
)

// ErrInvalidTransition is returned when a status change is not allowed.
var ErrInvalidTransition = errors.New("invalid request status transition")

// CanTransitionTo reports whether a request in status s may move to next.
// Only pending requests can be resolved, and only to approved or rejected.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	return s == StatusPending && (next == StatusApproved || next == StatusRejected)
}

// RentalRequest is a borrower's proposal to borrow an item for a date range.
type RentalRequest struct {
	ID            string        `json:"id"`
	ItemID        string        `json:"item_id"`
	BorrowerID    string        `json:"borrower_id"`
	OwnerID       string        `json:"owner_id"`
	StartDate     time.Time     `json:"start_date"`
	EndDate       time.Time     `json:"end_date"`
	Message       string        `json:"message,omitempty"`
	Status        RequestStatus `json:"status"`
	OwnerResponse string        `json:"owner_response,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	// Joined fields (not always populated).
	Item         *ItemSummary `json:"item,omitempty"`
	BorrowerName string       `json:"borrower_name,omitempty"`
}

// ItemSummary is the part of an item shown next to a rental request.
type ItemSummary struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	PricePerDay float64 `json:"price_per_day"`
	Location    string  `json:"location"`
	ImageURL    string  `json:"image_url,omitempty"`
}

// Days returns the number of billable days of the request.
func (r *RentalRequest) Days() int {
	return RentalDays(r.StartDate, r.EndDate)
}

// RentalDays returns the number of billable days between start and end,
// rounding partial days up and never less than one.
func RentalDays(start, end time.Time) int {
	days := int(math.Ceil(end.Sub(start).Hours() / 24))
	if days < 1 {
		return 1
	}
	return days
}

// EstimateTotal returns the price of borrowing for the given range.
func EstimateTotal(pricePerDay float64, start, end time.Time) float64 {
	return float64(RentalDays(start, end)) * pricePerDay
}

// DateLayout is the form and API format of request dates.
const DateLayout = "2006-01-02"

// ErrStartInPast is returned for requests that would start before today.
var ErrStartInPast = errors.New("start date must not be in the past")

// ParseDate parses a request date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}

// CheckStartDate rejects start dates before the UTC day of now.
func CheckStartDate(start, now time.Time) error {
	today := now.UTC().Truncate(24 * time.Hour)
	if start.Before(today) {
		return ErrStartInPast
	}
	return nil
}
