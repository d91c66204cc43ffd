package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/burrow/internal/db"
	"github.com/erazemk/burrow/internal/model"
)

// ListCategories returns all categories ordered by name.
func ListCategories(ctx context.Context, d *db.DB) ([]model.Category, error) {
	rows, err := d.QueryContext(ctx,
		`SELECT id, name, slug, COALESCE(icon, '') FROM categories ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Icon); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetCategory returns a category by ID.
func GetCategory(ctx context.Context, d *db.DB, id string) (*model.Category, error) {
	c := &model.Category{}
	err := d.QueryRowContext(ctx,
		`SELECT id, name, slug, COALESCE(icon, '') FROM categories WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Slug, &c.Icon)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting category: %w", err)
	}
	return c, nil
}
