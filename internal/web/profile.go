package web

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/burrow/internal/imaging"
	"github.com/erazemk/burrow/internal/model"
	"github.com/erazemk/burrow/internal/store"
)

type profileData struct {
	PageData
	Profile *model.Profile
	Email   string
}

// ProfilePage handles GET /profile. The profile is created on first visit.
func (s *Server) ProfilePage(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	p, err := store.EnsureProfile(r.Context(), s.DB, claims.UserID, claims.Email)
	if err != nil {
		slog.Error("failed to load profile", "error", err)
		s.serverError(w, r)
		return
	}

	s.Templates.Render(w, "profile.html", &profileData{
		PageData: s.page(w, r, "Profile"),
		Profile:  p,
		Email:    claims.Email,
	})
}

// ProfileSubmit handles POST /profile.
func (s *Server) ProfileSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	p, err := store.EnsureProfile(r.Context(), s.DB, claims.UserID, claims.Email)
	if err != nil {
		slog.Error("failed to load profile", "error", err)
		s.serverError(w, r)
		return
	}

	p.DisplayName = strings.TrimSpace(r.FormValue("display_name"))
	p.FullName = strings.TrimSpace(r.FormValue("full_name"))
	p.Bio = strings.TrimSpace(r.FormValue("bio"))
	p.PhoneNumber = strings.TrimSpace(r.FormValue("phone_number"))
	p.Location = strings.TrimSpace(r.FormValue("location"))
	p.University = strings.TrimSpace(r.FormValue("university"))

	if err := store.UpsertProfile(r.Context(), s.DB, p); err != nil {
		slog.Error("failed to save profile", "error", err)
		data := &profileData{PageData: s.page(w, r, "Profile"), Profile: p, Email: claims.Email}
		data.Error = "Could not save your profile. Please try again."
		s.Templates.RenderStatus(w, http.StatusInternalServerError, "profile.html", data)
		return
	}

	slog.Info("profile updated", "user", claims.UserID)
	setFlash(w, true, "Profile saved.")
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

// AvatarSubmit handles POST /profile/avatar.
func (s *Server) AvatarSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	result, msg := readUpload(w, r, imaging.Avatar)
	if msg != "" {
		setFlash(w, false, msg)
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	if _, err := store.EnsureProfile(r.Context(), s.DB, claims.UserID, claims.Email); err != nil {
		slog.Error("failed to load profile", "error", err)
		s.serverError(w, r)
		return
	}
	err := store.SetAvatar(r.Context(), s.DB, claims.UserID, result.Data, result.MIME, "/profile/"+claims.UserID+"/avatar")
	if err != nil {
		slog.Error("failed to save avatar", "error", err)
		setFlash(w, false, "Could not save the photo. Please try again.")
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	slog.Info("avatar uploaded", "user", claims.UserID, "bytes", len(result.Data))
	setFlash(w, true, "Photo updated.")
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

// AvatarGet handles GET /profile/{id}/avatar.
func (s *Server) AvatarGet(w http.ResponseWriter, r *http.Request) {
	data, mime, err := store.GetAvatar(r.Context(), s.DB, r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get avatar", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if data == nil {
		http.NotFound(w, r)
		return
	}
	writeImage(w, data, mime)
}
