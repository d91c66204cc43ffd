package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/erazemk/burrow/internal/db"
)

const jwtSecretKey = "jwt_secret"

// GetJWTSecret returns the token signing secret, creating it on first use.
func GetJWTSecret(ctx context.Context, d *db.DB) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	return ensureSetting(ctx, d, jwtSecretKey, hex.EncodeToString(buf))
}

// ensureSetting stores candidate under key unless the key already has a value
// and returns whichever value is stored. Concurrent callers on one database
// agree on the first value written.
func ensureSetting(ctx context.Context, d *db.DB, key, candidate string) (string, error) {
	_, err := d.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT (key) DO NOTHING`,
		key, candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing setting %s: %w", key, err)
	}

	var value string
	err = d.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("reading setting %s: %w", key, err)
	}
	return value, nil
}
