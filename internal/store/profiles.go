package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/burrow/internal/db"
	"github.com/erazemk/burrow/internal/model"
)

const profileColumns = `id, COALESCE(display_name, ''), COALESCE(full_name, ''), COALESCE(bio, ''),
	COALESCE(phone_number, ''), COALESCE(avatar_url, ''), COALESCE(location, ''),
	COALESCE(university, ''), updated_at`

// GetProfile returns the profile of a user.
func GetProfile(ctx context.Context, d *db.DB, userID string) (*model.Profile, error) {
	p := &model.Profile{}
	err := d.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, userID,
	).Scan(&p.ID, &p.DisplayName, &p.FullName, &p.Bio, &p.PhoneNumber, &p.AvatarURL,
		&p.Location, &p.University, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	return p, nil
}

// EnsureProfile returns the profile of a user, creating it first if the user
// has none yet.
func EnsureProfile(ctx context.Context, d *db.DB, userID, email string) (*model.Profile, error) {
	p, err := GetProfile(ctx, d, userID)
	if err != nil || p != nil {
		return p, err
	}

	_, err = d.ExecContext(ctx,
		`INSERT INTO profiles (id, display_name, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		userID, model.DefaultDisplayName(email), now(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating profile: %w", err)
	}
	return GetProfile(ctx, d, userID)
}

// UpsertProfile writes all editable fields of a profile.
func UpsertProfile(ctx context.Context, d *db.DB, p *model.Profile) error {
	p.UpdatedAt = now()
	_, err := d.ExecContext(ctx,
		`INSERT INTO profiles (id, display_name, full_name, bio, phone_number, avatar_url, location, university, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		     display_name = excluded.display_name,
		     full_name = excluded.full_name,
		     bio = excluded.bio,
		     phone_number = excluded.phone_number,
		     avatar_url = excluded.avatar_url,
		     location = excluded.location,
		     university = excluded.university,
		     updated_at = excluded.updated_at`,
		p.ID, nullString(p.DisplayName), nullString(p.FullName), nullString(p.Bio),
		nullString(p.PhoneNumber), nullString(p.AvatarURL), nullString(p.Location),
		nullString(p.University), p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

// SetAvatar stores an avatar image and points the profile's avatar URL at it.
func SetAvatar(ctx context.Context, d *db.DB, userID string, image []byte, mime, url string) error {
	res, err := d.ExecContext(ctx,
		`UPDATE profiles SET avatar = ?, avatar_mime = ?, avatar_url = ?, updated_at = ? WHERE id = ?`,
		image, mime, url, now(), userID,
	)
	if err != nil {
		return fmt.Errorf("setting avatar: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetAvatar returns a user's avatar image and MIME type.
func GetAvatar(ctx context.Context, d *db.DB, userID string) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := d.QueryRowContext(ctx,
		`SELECT avatar, avatar_mime FROM profiles WHERE id = ?`, userID,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting avatar: %w", err)
	}
	return image, mime.String, nil
}
