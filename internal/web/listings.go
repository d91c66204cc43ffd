package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/burrow/internal/imaging"
	"github.com/erazemk/burrow/internal/listing"
	"github.com/erazemk/burrow/internal/model"
	"github.com/erazemk/burrow/internal/store"
)

type ownerListing struct {
	listing.EnrichedItem
	Pending int
	Price   string
}

// MyListingsPage handles GET /my-listings.
func (s *Server) MyListingsPage(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	items, pending, err := store.FetchOwnerListings(r.Context(), s.DB, claims.UserID)
	if err != nil {
		slog.Error("failed to list own items", "error", err)
	}
	categories, err := store.ListCategories(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list categories", "error", err)
	}

	listings := make([]ownerListing, len(items))
	for i, item := range items {
		listings[i] = ownerListing{
			EnrichedItem: item,
			Pending:      pending.For(item.ID),
			Price:        strconv.FormatFloat(item.PricePerDay, 'f', -1, 64),
		}
	}

	s.Templates.Render(w, "my_listings.html", &struct {
		PageData
		Listings   []ownerListing
		Categories []model.Category
		Conditions []model.Condition
	}{
		PageData:   s.page(w, r, "My listings"),
		Listings:   listings,
		Categories: categories,
		Conditions: model.Conditions,
	})
}

// ListingUpdateSubmit handles POST /my-listings/{id}.
func (s *Server) ListingUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id := r.PathValue("id")

	in, msg := s.input(r, readItemForm(r))
	if msg != "" {
		setFlash(w, false, msg)
		http.Redirect(w, r, "/my-listings", http.StatusSeeOther)
		return
	}

	err := store.UpdateItem(r.Context(), s.DB, id, claims.UserID, in)
	if errors.Is(err, store.ErrNotFound) {
		s.notFound(w, r)
		return
	}
	if err != nil {
		slog.Error("failed to update item", "error", err)
		setFlash(w, false, "Could not save the listing. Please try again.")
		http.Redirect(w, r, "/my-listings", http.StatusSeeOther)
		return
	}

	slog.Info("item updated", "user", claims.UserID, "item", id, "available", in.IsAvailable)
	setFlash(w, true, "Listing saved.")
	http.Redirect(w, r, "/my-listings", http.StatusSeeOther)
}

// ListingImageSubmit handles POST /my-listings/{id}/image.
func (s *Server) ListingImageSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id := r.PathValue("id")

	result, msg := readUpload(w, r, imaging.Listing)
	if msg != "" {
		setFlash(w, false, msg)
		http.Redirect(w, r, "/my-listings", http.StatusSeeOther)
		return
	}

	err := store.SetItemImage(r.Context(), s.DB, id, claims.UserID, result.Data, result.MIME, "/items/"+id+"/image")
	if errors.Is(err, store.ErrNotFound) {
		s.notFound(w, r)
		return
	}
	if err != nil {
		slog.Error("failed to save image", "error", err)
		setFlash(w, false, "Could not save the photo. Please try again.")
		http.Redirect(w, r, "/my-listings", http.StatusSeeOther)
		return
	}

	slog.Info("item image uploaded", "user", claims.UserID, "item", id, "bytes", len(result.Data))
	setFlash(w, true, "Photo updated.")
	http.Redirect(w, r, "/my-listings", http.StatusSeeOther)
}
