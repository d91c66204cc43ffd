package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/burrow/internal/db"
	"github.com/erazemk/burrow/internal/model"
	"github.com/erazemk/burrow/internal/store"
)

// ReviewsHandler handles review endpoints.
type ReviewsHandler struct {
	DB *db.DB
}

type createReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// List handles GET /api/items/{id}/reviews.
func (h *ReviewsHandler) List(w http.ResponseWriter, r *http.Request) {
	reviews, err := store.ListReviewsForItem(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		storeError(w, err, "failed to list reviews")
		return
	}
	if reviews == nil {
		reviews = []model.Review{}
	}
	jsonResponse(w, http.StatusOK, reviews)
}

// Create handles POST /api/items/{id}/reviews.
func (h *ReviewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	itemID := r.PathValue("id")

	var req createReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := model.ValidateRating(req.Rating); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	review, err := store.CreateReview(r.Context(), h.DB, itemID, claims.UserID, req.Rating, req.Comment)
	if err != nil {
		storeError(w, err, "failed to create review")
		return
	}

	slog.Info("review posted", "user", claims.UserID, "item", itemID, "rating", review.Rating)
	jsonResponse(w, http.StatusCreated, review)
}
