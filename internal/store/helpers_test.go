package store

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/burrow/internal/db"
	"github.com/erazemk/burrow/internal/model"
)

func mustCreateUser(t *testing.T, d *db.DB, email string) *model.User {
	t.Helper()
	u, err := CreateUser(context.Background(), d, email, "hash")
	if err != nil {
		t.Fatalf("CreateUser(%q): %v", email, err)
	}
	return u
}

func mustCreateItem(t *testing.T, d *db.DB, ownerID, title string, price float64) *model.Item {
	t.Helper()
	item, err := CreateItem(context.Background(), d, ownerID, model.ItemInput{
		Title:       title,
		CategoryID:  "tools",
		PricePerDay: price,
		Location:    "Ljubljana",
		Condition:   model.ConditionGood,
		IsAvailable: true,
	})
	if err != nil {
		t.Fatalf("CreateItem(%q): %v", title, err)
	}
	return item
}

func mustCreateRequest(t *testing.T, d *db.DB, itemID, borrowerID string) *model.RentalRequest {
	t.Helper()
	start := time.Now().Add(24 * time.Hour)
	r, err := CreateRentalRequest(context.Background(), d, itemID, borrowerID, start, start.Add(48*time.Hour), "please")
	if err != nil {
		t.Fatalf("CreateRentalRequest: %v", err)
	}
	return r
}
