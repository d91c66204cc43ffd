package model

import (
	"fmt"
	"strings"
	"time"
)

// Condition is the coarse quality grade of a listed item.
type Condition string

// Item conditions.
const (
	ConditionLikeNew Condition = "like-new"
	ConditionGood    Condition = "good"
	ConditionFair    Condition = "fair"
	ConditionWorn    Condition = "worn"
)

// Conditions lists all conditions in display order.
var Conditions = []Condition{ConditionLikeNew, ConditionGood, ConditionFair, ConditionWorn}

// ParseCondition returns the condition named by s. The second result is false
// for anything that is not a known condition, including the "all" sentinel.
func ParseCondition(s string) (Condition, bool) {
	for _, c := range Conditions {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Label returns the human-readable name of the condition.
func (c Condition) Label() string {
	switch c {
	case ConditionLikeNew:
		return "Like New"
	case ConditionGood:
		return "Good"
	case ConditionFair:
		return "Fair"
	case ConditionWorn:
		return "Worn"
	default:
		return string(c)
	}
}

// Item is a lendable object listed by a user.
type Item struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	CategoryID  *string   `json:"category_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	PricePerDay float64   `json:"price_per_day"`
	Location    string    `json:"location"`
	Condition   Condition `json:"condition"`
	ImageURL    string    `json:"image_url,omitempty"`
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	Category *CategoryRef `json:"category,omitempty"`
	Owner    *OwnerRef    `json:"owner,omitempty"`
}

// CategorySlug returns the slug of the joined category, or "" if the item has none.
func (i *Item) CategorySlug() string {
	if i.Category == nil {
		return ""
	}
	return i.Category.Slug
}

// CategoryRef is the part of a category carried along with an item.
type CategoryRef struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// OwnerRef is the part of the owner's profile shown on an item page.
type OwnerRef struct {
	DisplayName string `json:"display_name,omitempty"`
	University  string `json:"university,omitempty"`
}

// ItemInput holds the user-editable fields of a listing.
type ItemInput struct {
	Title       string
	Description string
	CategoryID  string
	PricePerDay float64
	Location    string
	Condition   Condition
	ImageURL    string
	IsAvailable bool
}

// Validate checks the input the way the listing form does.
func (in *ItemInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("title required")
	}
	if strings.TrimSpace(in.Location) == "" {
		return fmt.Errorf("location required")
	}
	if in.PricePerDay < 0 {
		return fmt.Errorf("price per day must not be negative")
	}
	if _, ok := ParseCondition(string(in.Condition)); !ok {
		return fmt.Errorf("invalid condition %q", in.Condition)
	}
	return nil
}
