package store

import (
	"context"
	"testing"

	"github.com/erazemk/burrow/internal/db"
)

func TestEnsureProfileCreatesMissing(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := mustCreateUser(t, database, "jan@example.com")
	if _, err := database.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, user.ID); err != nil {
		t.Fatal(err)
	}

	p, err := EnsureProfile(ctx, database, user.ID, user.Email)
	if err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	if p == nil || p.DisplayName != "jan" {
		t.Fatalf("expected created profile with display name 'jan', got %+v", p)
	}

	// A second call returns the existing profile unchanged.
	p.Bio = "hello"
	if err := UpsertProfile(ctx, database, p); err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}
	again, err := EnsureProfile(ctx, database, user.ID, user.Email)
	if err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	if again.Bio != "hello" {
		t.Errorf("expected bio 'hello', got %q", again.Bio)
	}
}

func TestUpsertProfile(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := mustCreateUser(t, database, "mia@example.com")
	p, _ := GetProfile(ctx, database, user.ID)
	p.DisplayName = "Mia"
	p.University = "UL FRI"
	p.PhoneNumber = ""

	if err := UpsertProfile(ctx, database, p); err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}

	got, _ := GetProfile(ctx, database, user.ID)
	if got.DisplayName != "Mia" || got.University != "UL FRI" {
		t.Errorf("unexpected profile after upsert: %+v", got)
	}
}

func TestAvatar(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := mustCreateUser(t, database, "eva@example.com")

	data, _, err := GetAvatar(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetAvatar: %v", err)
	}
	if data != nil {
		t.Error("expected no avatar initially")
	}

	if err := SetAvatar(ctx, database, user.ID, []byte("img"), "image/jpeg", "/profile/"+user.ID+"/avatar"); err != nil {
		t.Fatalf("SetAvatar: %v", err)
	}

	data, mime, err := GetAvatar(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetAvatar: %v", err)
	}
	if string(data) != "img" || mime != "image/jpeg" {
		t.Errorf("unexpected avatar %q %q", data, mime)
	}

	p, _ := GetProfile(ctx, database, user.ID)
	if p.AvatarURL != "/profile/"+user.ID+"/avatar" {
		t.Errorf("unexpected avatar url %q", p.AvatarURL)
	}

	if err := SetAvatar(ctx, database, "nobody", []byte("img"), "image/jpeg", ""); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListCategories(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	categories, err := ListCategories(ctx, database)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(categories) != 8 {
		t.Fatalf("expected 8 seeded categories, got %d", len(categories))
	}
	if categories[0].Name != "Books" {
		t.Errorf("expected categories ordered by name, first is %q", categories[0].Name)
	}

	c, err := GetCategory(ctx, database, "tools")
	if err != nil {
		t.Fatalf("GetCategory: %v", err)
	}
	if c == nil || c.Slug != "tools" {
		t.Errorf("expected tools category, got %+v", c)
	}

	missing, _ := GetCategory(ctx, database, "boats")
	if missing != nil {
		t.Error("expected nil for missing category")
	}
}
