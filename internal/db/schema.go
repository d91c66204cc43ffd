package db

import (
	"fmt"
)

// sqliteSchema is the full database schema for SQLite.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
    id           TEXT PRIMARY KEY REFERENCES users(id),
    display_name TEXT,
    full_name    TEXT,
    bio          TEXT,
    phone_number TEXT,
    avatar_url   TEXT,
    location     TEXT,
    university   TEXT,
    avatar       BLOB,
    avatar_mime  TEXT,
    updated_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
    id   TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE,
    icon TEXT
);

CREATE TABLE IF NOT EXISTS items (
    id            TEXT PRIMARY KEY,
    owner_id      TEXT NOT NULL REFERENCES users(id),
    category_id   TEXT REFERENCES categories(id),
    title         TEXT NOT NULL,
    description   TEXT,
    price_per_day REAL NOT NULL CHECK (price_per_day >= 0),
    location      TEXT NOT NULL,
    condition     TEXT NOT NULL CHECK (condition IN ('like-new', 'good', 'fair', 'worn')),
    image_url     TEXT,
    is_available  INTEGER NOT NULL DEFAULT 1,
    created_at    DATETIME NOT NULL,
    updated_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_owner ON items(owner_id);
CREATE INDEX IF NOT EXISTS idx_items_created ON items(created_at);

CREATE TABLE IF NOT EXISTS item_images (
    item_id TEXT PRIMARY KEY REFERENCES items(id),
    data    BLOB NOT NULL,
    mime    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS reviews (
    id          TEXT PRIMARY KEY,
    item_id     TEXT NOT NULL REFERENCES items(id),
    reviewer_id TEXT NOT NULL REFERENCES users(id),
    rating      INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
    comment     TEXT,
    created_at  DATETIME NOT NULL,
    UNIQUE (item_id, reviewer_id)
);

CREATE TABLE IF NOT EXISTS rental_requests (
    id             TEXT PRIMARY KEY,
    item_id        TEXT NOT NULL REFERENCES items(id),
    borrower_id    TEXT NOT NULL REFERENCES users(id),
    owner_id       TEXT NOT NULL REFERENCES users(id),
    start_date     DATETIME NOT NULL,
    end_date       DATETIME NOT NULL,
    message        TEXT,
    status         TEXT NOT NULL DEFAULT 'pending'
                   CHECK (status IN ('pending', 'approved', 'rejected', 'completed', 'cancelled')),
    owner_response TEXT,
    created_at     DATETIME NOT NULL,
    updated_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rental_requests_owner ON rental_requests(owner_id);
CREATE INDEX IF NOT EXISTS idx_rental_requests_borrower ON rental_requests(borrower_id);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// postgresSchema is the full database schema for PostgreSQL.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
    id           TEXT PRIMARY KEY REFERENCES users(id),
    display_name TEXT,
    full_name    TEXT,
    bio          TEXT,
    phone_number TEXT,
    avatar_url   TEXT,
    location     TEXT,
    university   TEXT,
    avatar       BYTEA,
    avatar_mime  TEXT,
    updated_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
    id   TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE,
    icon TEXT
);

CREATE TABLE IF NOT EXISTS items (
    id            TEXT PRIMARY KEY,
    owner_id      TEXT NOT NULL REFERENCES users(id),
    category_id   TEXT REFERENCES categories(id),
    title         TEXT NOT NULL,
    description   TEXT,
    price_per_day DOUBLE PRECISION NOT NULL CHECK (price_per_day >= 0),
    location      TEXT NOT NULL,
    condition     TEXT NOT NULL CHECK (condition IN ('like-new', 'good', 'fair', 'worn')),
    image_url     TEXT,
    is_available  BOOLEAN NOT NULL DEFAULT TRUE,
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_owner ON items(owner_id);
CREATE INDEX IF NOT EXISTS idx_items_created ON items(created_at);

CREATE TABLE IF NOT EXISTS item_images (
    item_id TEXT PRIMARY KEY REFERENCES items(id),
    data    BYTEA NOT NULL,
    mime    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS reviews (
    id          TEXT PRIMARY KEY,
    item_id     TEXT NOT NULL REFERENCES items(id),
    reviewer_id TEXT NOT NULL REFERENCES users(id),
    rating      INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
    comment     TEXT,
    created_at  TIMESTAMPTZ NOT NULL,
    UNIQUE (item_id, reviewer_id)
);

CREATE TABLE IF NOT EXISTS rental_requests (
    id             TEXT PRIMARY KEY,
    item_id        TEXT NOT NULL REFERENCES items(id),
    borrower_id    TEXT NOT NULL REFERENCES users(id),
    owner_id       TEXT NOT NULL REFERENCES users(id),
    start_date     TIMESTAMPTZ NOT NULL,
    end_date       TIMESTAMPTZ NOT NULL,
    message        TEXT,
    status         TEXT NOT NULL DEFAULT 'pending'
                   CHECK (status IN ('pending', 'approved', 'rejected', 'completed', 'cancelled')),
    owner_response TEXT,
    created_at     TIMESTAMPTZ NOT NULL,
    updated_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rental_requests_owner ON rental_requests(owner_id);
CREATE INDEX IF NOT EXISTS idx_rental_requests_borrower ON rental_requests(borrower_id);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at TIMESTAMPTZ NOT NULL
);
`

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent and valid in every dialect. Append new
// migrations at the end.
var migrations = []string{
	// Migration 1: default categories.
	`INSERT INTO categories (id, name, slug, icon) VALUES
	     ('tools', 'Tools', 'tools', 'wrench'),
	     ('outdoor', 'Outdoor & Camping', 'outdoor', 'tent'),
	     ('party', 'Party & Events', 'party', 'party-popper'),
	     ('electronics', 'Electronics', 'electronics', 'laptop'),
	     ('kitchen', 'Kitchen', 'kitchen', 'cooking-pot'),
	     ('sports', 'Sports', 'sports', 'bike'),
	     ('music', 'Music', 'music', 'guitar'),
	     ('books', 'Books', 'books', 'book')
	 ON CONFLICT (slug) DO NOTHING`,
}

// EnsureSchema creates all tables and indexes if they don't already exist and
// runs the migrations.
func EnsureSchema(d *DB) error {
	schema := sqliteSchema
	if d.Dialect == Postgres {
		schema = postgresSchema
	}

	if _, err := d.DB.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, m := range migrations {
		if _, err := d.DB.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
