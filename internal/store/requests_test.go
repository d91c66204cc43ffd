package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erazemk/burrow/internal/db"
	"github.com/erazemk/burrow/internal/model"
)

func TestCreateRentalRequest(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := mustCreateUser(t, database, "owner@example.com")
	borrower := mustCreateUser(t, database, "borrower@example.com")
	item := mustCreateItem(t, database, owner.ID, "Ladder", 4)

	r := mustCreateRequest(t, database, item.ID, borrower.ID)
	if r.Status != model.StatusPending {
		t.Errorf("expected pending, got %q", r.Status)
	}
	if r.OwnerID != owner.ID {
		t.Errorf("expected owner taken from item, got %q", r.OwnerID)
	}
	if r.Item == nil || r.Item.Title != "Ladder" {
		t.Errorf("expected joined item summary, got %+v", r.Item)
	}
	if r.BorrowerName != "borrower" {
		t.Errorf("expected borrower name 'borrower', got %q", r.BorrowerName)
	}
	if r.Days() != 2 {
		t.Errorf("expected 2 days, got %d", r.Days())
	}
}

func TestCreateRentalRequestRules(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := mustCreateUser(t, database, "owner@example.com")
	borrower := mustCreateUser(t, database, "borrower@example.com")
	item := mustCreateItem(t, database, owner.ID, "Ladder", 4)
	start := time.Now().Add(24 * time.Hour)

	tests := []struct {
		name     string
		itemID   string
		borrower string
		end      time.Time
		want     error
	}{
		{"own item", item.ID, owner.ID, start.Add(time.Hour), ErrOwnItem},
		{"missing item", "nope", borrower.ID, start.Add(time.Hour), ErrNotFound},
		{"end before start", item.ID, borrower.ID, start.Add(-time.Hour), ErrInvalidDates},
	}

	for _, tt := range tests {
		_, err := CreateRentalRequest(ctx, database, tt.itemID, tt.borrower, start, tt.end, "")
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}

	in := model.ItemInput{Title: "Ladder", Location: "Ljubljana", Condition: model.ConditionGood, IsAvailable: false}
	if err := UpdateItem(ctx, database, item.ID, owner.ID, in); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if _, err := CreateRentalRequest(ctx, database, item.ID, borrower.ID, start, start, ""); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestListRequestsByRole(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := mustCreateUser(t, database, "owner@example.com")
	borrower := mustCreateUser(t, database, "borrower@example.com")
	item := mustCreateItem(t, database, owner.ID, "Ladder", 4)
	mustCreateRequest(t, database, item.ID, borrower.ID)

	byBorrower, err := ListRequestsByBorrower(ctx, database, borrower.ID)
	if err != nil {
		t.Fatalf("ListRequestsByBorrower: %v", err)
	}
	if len(byBorrower) != 1 {
		t.Errorf("expected 1 request made, got %d", len(byBorrower))
	}

	byOwner, err := ListRequestsByOwner(ctx, database, owner.ID)
	if err != nil {
		t.Fatalf("ListRequestsByOwner: %v", err)
	}
	if len(byOwner) != 1 {
		t.Errorf("expected 1 incoming request, got %d", len(byOwner))
	}

	none, _ := ListRequestsByOwner(ctx, database, borrower.ID)
	if len(none) != 0 {
		t.Errorf("expected no incoming requests for borrower, got %d", len(none))
	}
}

func TestResolveRentalRequest(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := mustCreateUser(t, database, "owner@example.com")
	borrower := mustCreateUser(t, database, "borrower@example.com")
	item := mustCreateItem(t, database, owner.ID, "Ladder", 4)
	r := mustCreateRequest(t, database, item.ID, borrower.ID)

	if err := ResolveRentalRequest(ctx, database, r.ID, owner.ID, model.StatusApproved, " Sure! "); err != nil {
		t.Fatalf("ResolveRentalRequest: %v", err)
	}

	got, _ := GetRentalRequest(ctx, database, r.ID)
	if got.Status != model.StatusApproved {
		t.Errorf("expected approved, got %q", got.Status)
	}
	if got.OwnerResponse != "Sure!" {
		t.Errorf("expected owner response 'Sure!', got %q", got.OwnerResponse)
	}

	// A second resolution loses, whatever it tries.
	err := ResolveRentalRequest(ctx, database, r.ID, owner.ID, model.StatusRejected, "")
	if !errors.Is(err, ErrAlreadyResolved) {
		t.Errorf("expected ErrAlreadyResolved, got %v", err)
	}
	got, _ = GetRentalRequest(ctx, database, r.ID)
	if got.Status != model.StatusApproved {
		t.Errorf("expected status to stay approved, got %q", got.Status)
	}
}

func TestResolveRentalRequestErrors(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := mustCreateUser(t, database, "owner@example.com")
	borrower := mustCreateUser(t, database, "borrower@example.com")
	item := mustCreateItem(t, database, owner.ID, "Ladder", 4)
	r := mustCreateRequest(t, database, item.ID, borrower.ID)

	if err := ResolveRentalRequest(ctx, database, r.ID, borrower.ID, model.StatusApproved, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for non-owner, got %v", err)
	}
	if err := ResolveRentalRequest(ctx, database, "nope", owner.ID, model.StatusApproved, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing request, got %v", err)
	}
	if err := ResolveRentalRequest(ctx, database, r.ID, owner.ID, model.StatusCompleted, ""); !errors.Is(err, model.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}

	got, _ := GetRentalRequest(ctx, database, r.ID)
	if got.Status != model.StatusPending {
		t.Errorf("expected request to stay pending, got %q", got.Status)
	}
}

func TestResolveRentalRequestConcurrent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := mustCreateUser(t, database, "owner@example.com")
	borrower := mustCreateUser(t, database, "borrower@example.com")
	item := mustCreateItem(t, database, owner.ID, "Ladder", 4)
	r := mustCreateRequest(t, database, item.ID, borrower.ID)

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		next := model.StatusApproved
		if i%2 == 1 {
			next = model.StatusRejected
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = ResolveRentalRequest(ctx, database, r.ID, owner.ID, next, "")
		}()
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrAlreadyResolved):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("expected exactly one winner, got %d", wins)
	}
}
