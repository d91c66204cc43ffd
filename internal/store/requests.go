package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/erazemk/burrow/internal/db"
	"github.com/erazemk/burrow/internal/model"
)

var resolvedCounter, _ = meter.Int64Counter("burrow.requests.resolved",
	metric.WithDescription("Attempts to approve or reject rental requests, by outcome."))

const requestSelect = `SELECT r.id, r.item_id, r.borrower_id, r.owner_id, r.start_date, r.end_date,
	COALESCE(r.message, ''), r.status, COALESCE(r.owner_response, ''), r.created_at, r.updated_at,
	i.title, i.price_per_day, i.location, COALESCE(i.image_url, ''), COALESCE(p.display_name, '')
 FROM rental_requests r
 JOIN items i ON i.id = r.item_id
 LEFT JOIN profiles p ON p.id = r.borrower_id`

func scanRequest(row rowScanner) (*model.RentalRequest, error) {
	r := &model.RentalRequest{}
	s := &model.ItemSummary{}
	err := row.Scan(&r.ID, &r.ItemID, &r.BorrowerID, &r.OwnerID, &r.StartDate, &r.EndDate,
		&r.Message, &r.Status, &r.OwnerResponse, &r.CreatedAt, &r.UpdatedAt,
		&s.Title, &s.PricePerDay, &s.Location, &s.ImageURL, &r.BorrowerName)
	if err != nil {
		return nil, err
	}
	s.ID = r.ItemID
	r.Item = s
	return r, nil
}

func listRequests(ctx context.Context, d *db.DB, where string, args ...any) ([]model.RentalRequest, error) {
	rows, err := d.QueryContext(ctx, requestSelect+` WHERE `+where+` ORDER BY r.created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing rental requests: %w", err)
	}
	defer rows.Close()

	var requests []model.RentalRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning rental request: %w", err)
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}

// CreateRentalRequest records a pending request by borrowerID to borrow an
// item between start and end. The owner is taken from the item.
func CreateRentalRequest(ctx context.Context, d *db.DB, itemID, borrowerID string, start, end time.Time, message string) (*model.RentalRequest, error) {
	item, err := GetItem(ctx, d, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}
	if item.OwnerID == borrowerID {
		return nil, ErrOwnItem
	}
	if !item.IsAvailable {
		return nil, ErrUnavailable
	}
	if end.Before(start) {
		return nil, ErrInvalidDates
	}

	id := newID()
	ts := now()
	_, err = d.ExecContext(ctx,
		`INSERT INTO rental_requests (id, item_id, borrower_id, owner_id, start_date, end_date, message, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, itemID, borrowerID, item.OwnerID, start.UTC(), end.UTC(), nullString(strings.TrimSpace(message)),
		string(model.StatusPending), ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("creating rental request: %w", err)
	}

	return GetRentalRequest(ctx, d, id)
}

// GetRentalRequest returns a rental request by ID.
func GetRentalRequest(ctx context.Context, d *db.DB, id string) (*model.RentalRequest, error) {
	r, err := scanRequest(d.QueryRowContext(ctx, requestSelect+` WHERE r.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting rental request: %w", err)
	}
	return r, nil
}

// ListRequestsByBorrower returns the requests a user made, newest first.
func ListRequestsByBorrower(ctx context.Context, d *db.DB, borrowerID string) ([]model.RentalRequest, error) {
	return listRequests(ctx, d, `r.borrower_id = ?`, borrowerID)
}

// ListRequestsByOwner returns the requests for a user's items, newest first.
func ListRequestsByOwner(ctx context.Context, d *db.DB, ownerID string) ([]model.RentalRequest, error) {
	return listRequests(ctx, d, `r.owner_id = ?`, ownerID)
}

// ListPendingRequestsForItems returns the pending requests of the given items.
// Only the id, item id and status are filled in.
func ListPendingRequestsForItems(ctx context.Context, d *db.DB, itemIDs []string) ([]model.RentalRequest, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}

	in, args := placeholders(itemIDs)
	args = append(args, string(model.StatusPending))
	rows, err := d.QueryContext(ctx,
		`SELECT id, item_id, status FROM rental_requests WHERE item_id IN (`+in+`) AND status = ?`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing pending requests: %w", err)
	}
	defer rows.Close()

	var requests []model.RentalRequest
	for rows.Next() {
		var r model.RentalRequest
		if err := rows.Scan(&r.ID, &r.ItemID, &r.Status); err != nil {
			return nil, fmt.Errorf("scanning pending request: %w", err)
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// ResolveRentalRequest moves a pending request to approved or rejected and
// stores the owner's response. The write only succeeds while the request is
// still pending, so of two concurrent resolutions exactly one wins; the other
// gets ErrAlreadyResolved. Requests that do not exist or belong to another
// owner give ErrNotFound.
func ResolveRentalRequest(ctx context.Context, d *db.DB, id, ownerID string, next model.RequestStatus, response string) (err error) {
	defer func() {
		outcome := "ok"
		switch {
		case errors.Is(err, ErrAlreadyResolved):
			outcome = "already_resolved"
		case errors.Is(err, ErrNotFound):
			outcome = "not_found"
		case err != nil:
			outcome = "error"
		}
		resolvedCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("status", string(next)),
			attribute.String("outcome", outcome),
		))
	}()

	if !model.StatusPending.CanTransitionTo(next) {
		return model.ErrInvalidTransition
	}

	res, err := d.ExecContext(ctx,
		`UPDATE rental_requests SET status = ?, owner_response = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ? AND status = ?`,
		string(next), nullString(strings.TrimSpace(response)), now(), id, ownerID, string(model.StatusPending),
	)
	if err != nil {
		return fmt.Errorf("resolving rental request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("resolving rental request: %w", err)
	}
	if n > 0 {
		return nil
	}

	var owner string
	err = d.QueryRowContext(ctx, `SELECT owner_id FROM rental_requests WHERE id = ?`, id).Scan(&owner)
	if err == sql.ErrNoRows || (err == nil && owner != ownerID) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("checking rental request: %w", err)
	}
	return ErrAlreadyResolved
}
