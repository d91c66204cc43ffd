package listing

import (
	"strings"

	"github.com/erazemk/burrow/internal/model"
)

// ConditionAll is the form value meaning "no condition filter".
const ConditionAll = "all"

// FilterState is the set of active browse filters. Nil fields are inactive.
type FilterState struct {
	Search    string
	Category  *string
	Condition *model.Condition
}

// ParseFilterState builds a FilterState from raw form values. An empty
// category and the "all" condition (or any unknown condition) turn the
// corresponding filter off.
func ParseFilterState(search, category, condition string) FilterState {
	fs := FilterState{Search: search}
	if category = strings.TrimSpace(category); category != "" {
		fs.Category = &category
	}
	if c, ok := model.ParseCondition(condition); ok {
		fs.Condition = &c
	}
	return fs
}

// CategoryValue returns the category slug, or "" when unset.
func (fs FilterState) CategoryValue() string {
	if fs.Category == nil {
		return ""
	}
	return *fs.Category
}

// ConditionValue returns the condition form value, "all" when unset.
func (fs FilterState) ConditionValue() string {
	if fs.Condition == nil {
		return ConditionAll
	}
	return string(*fs.Condition)
}

// Filter returns the items that satisfy every active filter, keeping their
// relative order. The input slice is not modified.
func Filter(items []EnrichedItem, fs FilterState) []EnrichedItem {
	needle := strings.ToLower(strings.TrimSpace(fs.Search))

	out := make([]EnrichedItem, 0, len(items))
	for _, item := range items {
		if fs.Condition != nil && item.Condition != *fs.Condition {
			continue
		}
		if fs.Category != nil && (item.Category == nil || item.Category.Slug != *fs.Category) {
			continue
		}
		if needle != "" && !matchesSearch(&item.Item, needle) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// matchesSearch expects needle to be lower-cased already.
func matchesSearch(item *model.Item, needle string) bool {
	return strings.Contains(strings.ToLower(item.Title), needle) ||
		strings.Contains(strings.ToLower(item.Description), needle) ||
		strings.Contains(strings.ToLower(item.Location), needle)
}
