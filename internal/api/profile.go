package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/burrow/internal/db"
	"github.com/erazemk/burrow/internal/store"
)

// ProfileHandler handles the signed-in user's profile.
type ProfileHandler struct {
	DB *db.DB
}

type profileRequest struct {
	DisplayName string `json:"display_name"`
	FullName    string `json:"full_name"`
	Bio         string `json:"bio"`
	PhoneNumber string `json:"phone_number"`
	Location    string `json:"location"`
	University  string `json:"university"`
}

// Get handles GET /api/profile. A profile is created on first access.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	p, err := store.EnsureProfile(r.Context(), h.DB, claims.UserID, claims.Email)
	if err != nil {
		storeError(w, err, "failed to load profile")
		return
	}
	jsonResponse(w, http.StatusOK, p)
}

// Update handles PUT /api/profile.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := store.EnsureProfile(r.Context(), h.DB, claims.UserID, claims.Email)
	if err != nil {
		storeError(w, err, "failed to load profile")
		return
	}
	p.DisplayName = req.DisplayName
	p.FullName = req.FullName
	p.Bio = req.Bio
	p.PhoneNumber = req.PhoneNumber
	p.Location = req.Location
	p.University = req.University

	if err := store.UpsertProfile(r.Context(), h.DB, p); err != nil {
		storeError(w, err, "failed to save profile")
		return
	}

	slog.Info("profile updated", "user", claims.UserID)
	jsonResponse(w, http.StatusOK, p)
}
