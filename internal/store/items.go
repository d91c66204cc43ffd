package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/burrow/internal/db"
	"github.com/erazemk/burrow/internal/model"
)

const itemSelect = `SELECT i.id, i.owner_id, i.category_id, i.title, COALESCE(i.description, ''),
	i.price_per_day, i.location, i.condition, COALESCE(i.image_url, ''), i.is_available,
	i.created_at, i.updated_at, c.name, c.slug, p.display_name, p.university
 FROM items i
 LEFT JOIN categories c ON c.id = i.category_id
 LEFT JOIN profiles p ON p.id = i.owner_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var categoryID, categoryName, categorySlug, ownerName, ownerUniversity sql.NullString
	err := row.Scan(&item.ID, &item.OwnerID, &categoryID, &item.Title, &item.Description,
		&item.PricePerDay, &item.Location, &item.Condition, &item.ImageURL, &item.IsAvailable,
		&item.CreatedAt, &item.UpdatedAt, &categoryName, &categorySlug, &ownerName, &ownerUniversity)
	if err != nil {
		return nil, err
	}
	if categoryID.Valid {
		item.CategoryID = &categoryID.String
	}
	if categorySlug.Valid {
		item.Category = &model.CategoryRef{Name: categoryName.String, Slug: categorySlug.String}
	}
	if ownerName.Valid || ownerUniversity.Valid {
		item.Owner = &model.OwnerRef{DisplayName: ownerName.String, University: ownerUniversity.String}
	}
	return item, nil
}

// CreateItem lists a new item owned by ownerID.
func CreateItem(ctx context.Context, d *db.DB, ownerID string, in model.ItemInput) (*model.Item, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	id := newID()
	ts := now()
	_, err := d.ExecContext(ctx,
		`INSERT INTO items (id, owner_id, category_id, title, description, price_per_day, location,
		                    condition, image_url, is_available, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, ownerID, nullString(in.CategoryID), strings.TrimSpace(in.Title), nullString(in.Description),
		in.PricePerDay, strings.TrimSpace(in.Location), string(in.Condition), nullString(in.ImageURL),
		in.IsAvailable, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	return GetItem(ctx, d, id)
}

// GetItem returns an item by ID with its category and owner joined.
func GetItem(ctx context.Context, d *db.DB, id string) (*model.Item, error) {
	item, err := scanItem(d.QueryRowContext(ctx, itemSelect+` WHERE i.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ItemFilter narrows ListItems. Zero values disable a condition.
type ItemFilter struct {
	AvailableOnly bool
	OwnerID       string
	Limit         int
}

// ListItems returns items newest first.
func ListItems(ctx context.Context, d *db.DB, f ItemFilter) ([]model.Item, error) {
	var where []string
	var args []any
	if f.AvailableOnly {
		where = append(where, `i.is_available = ?`)
		args = append(args, true)
	}
	if f.OwnerID != "" {
		where = append(where, `i.owner_id = ?`)
		args = append(args, f.OwnerID)
	}

	query := itemSelect
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY i.created_at DESC, i.id`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := d.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItem updates a listing. Only the owner can update it; anyone else
// gets ErrNotFound.
func UpdateItem(ctx context.Context, d *db.DB, id, ownerID string, in model.ItemInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	res, err := d.ExecContext(ctx,
		`UPDATE items SET category_id = ?, title = ?, description = ?, price_per_day = ?, location = ?,
		                  condition = ?, image_url = ?, is_available = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		nullString(in.CategoryID), strings.TrimSpace(in.Title), nullString(in.Description),
		in.PricePerDay, strings.TrimSpace(in.Location), string(in.Condition), nullString(in.ImageURL),
		in.IsAvailable, now(), id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetItemImage stores an uploaded photo for an item and points its image URL
// at url. Only the owner can set it.
func SetItemImage(ctx context.Context, d *db.DB, id, ownerID string, image []byte, mime, url string) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE items SET image_url = ?, updated_at = ? WHERE id = ? AND owner_id = ?`,
		url, now(), id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("setting item image url: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO item_images (item_id, data, mime) VALUES (?, ?, ?)
		 ON CONFLICT (item_id) DO UPDATE SET data = excluded.data, mime = excluded.mime`,
		id, image, mime,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item image: %w", err)
	}
	return nil
}

// GetItemImage returns an item's uploaded photo and MIME type.
func GetItemImage(ctx context.Context, d *db.DB, id string) ([]byte, string, error) {
	var image []byte
	var mime string
	err := d.QueryRowContext(ctx,
		`SELECT data, mime FROM item_images WHERE item_id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime, nil
}
