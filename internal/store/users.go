package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/burrow/internal/db"
	"github.com/erazemk/burrow/internal/model"
)

// CreateUser creates a new user together with an empty profile whose display
// name is derived from the email. Returns ErrEmailTaken if the email is in use.
func CreateUser(ctx context.Context, d *db.DB, email, passwordHash string) (*model.User, error) {
	email = model.NormalizeEmail(email)

	existing, err := GetUserByEmail(ctx, d, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	u := &model.User{ID: newID(), Email: email, PasswordHash: passwordHash, CreatedAt: now()}

	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO profiles (id, display_name, updated_at) VALUES (?, ?, ?)`,
		u.ID, model.DefaultDisplayName(email), u.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing user: %w", err)
	}
	return u, nil
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, d *db.DB, id string) (*model.User, error) {
	u := &model.User{}
	err := d.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns a user by email address.
func GetUserByEmail(ctx context.Context, d *db.DB, email string) (*model.User, error) {
	u := &model.User{}
	err := d.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`,
		model.NormalizeEmail(email),
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}
