// Package store reads and writes Burrow records. Functions take the database
// handle explicitly; getters for a single row return (nil, nil) when the row
// does not exist.
package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
)

// Sentinel errors returned by store operations.
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyResolved = errors.New("request already resolved")
	ErrOwnItem         = errors.New("cannot request your own item")
	ErrUnavailable     = errors.New("item is not available")
	ErrInvalidDates    = errors.New("end date must not be before start date")
	ErrDuplicateReview = errors.New("item already reviewed")
	ErrNotEligible     = errors.New("only borrowers of an item can review it")
	ErrEmailTaken      = errors.New("email already registered")
)

var (
	tracer = otel.Tracer("burrow/store")
	meter  = otel.Meter("burrow/store")
)

// now returns the current time as stored in the database.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func newID() string {
	return uuid.NewString()
}

// placeholders returns "?, ?, ..." with n placeholders and the ids as args.
func placeholders(ids []string) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", "), args
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
