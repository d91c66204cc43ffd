package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/burrow/internal/db"
	"github.com/erazemk/burrow/internal/imaging"
	"github.com/erazemk/burrow/internal/listing"
	"github.com/erazemk/burrow/internal/model"
	"github.com/erazemk/burrow/internal/store"
)

// ItemsHandler handles listing endpoints.
type ItemsHandler struct {
	DB *db.DB
}

type itemRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	CategoryID  string  `json:"category_id"`
	PricePerDay float64 `json:"price_per_day"`
	Location    string  `json:"location"`
	Condition   string  `json:"condition"`
	ImageURL    string  `json:"image_url"`
	IsAvailable *bool   `json:"is_available"`
}

// input validates the request and converts it. It returns a user-facing
// message when the request is invalid.
func (h *ItemsHandler) input(r *http.Request, req *itemRequest) (model.ItemInput, string) {
	in := model.ItemInput{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		PricePerDay: req.PricePerDay,
		Location:    req.Location,
		Condition:   model.Condition(req.Condition),
		ImageURL:    req.ImageURL,
		IsAvailable: req.IsAvailable == nil || *req.IsAvailable,
	}
	if err := in.Validate(); err != nil {
		return in, err.Error()
	}
	if in.CategoryID == "" {
		return in, "category required"
	}
	category, err := store.GetCategory(r.Context(), h.DB, in.CategoryID)
	if err != nil {
		return in, "failed to check category"
	}
	if category == nil {
		return in, "unknown category"
	}
	return in, ""
}

// Categories handles GET /api/categories.
func (h *ItemsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := store.ListCategories(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to list categories")
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	jsonResponse(w, http.StatusOK, categories)
}

// List handles GET /api/items. It returns available items, enriched with
// ratings, filtered by q, category and condition and ordered by sort.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fs := listing.ParseFilterState(q.Get("q"), q.Get("category"), q.Get("condition"))
	key := listing.ParseSortKey(q.Get("sort"))

	filter := store.ItemFilter{AvailableOnly: true}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}

	items, err := store.FetchListings(r.Context(), h.DB, filter)
	if err != nil {
		storeError(w, err, "failed to list items")
		return
	}
	jsonResponse(w, http.StatusOK, listing.Apply(items, fs, key))
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, reviews, err := store.FetchItem(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		storeError(w, err, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if reviews == nil {
		reviews = []model.Review{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"item":    item,
		"reviews": reviews,
	})
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in, msg := h.input(r, &req)
	if msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, claims.UserID, in)
	if err != nil {
		storeError(w, err, "failed to create item")
		return
	}

	slog.Info("item listed", "user", claims.UserID, "item", item.ID)
	jsonResponse(w, http.StatusCreated, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id := r.PathValue("id")

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in, msg := h.input(r, &req)
	if msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	if err := store.UpdateItem(r.Context(), h.DB, id, claims.UserID, in); err != nil {
		storeError(w, err, "failed to update item")
		return
	}

	slog.Info("item updated", "user", claims.UserID, "item", id, "available", in.IsAvailable)
	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// UploadImage handles PUT /api/items/{id}/image.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id := r.PathValue("id")

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadSize); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	result, err := imaging.Process(file, imaging.Listing)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	url := "/items/" + id + "/image"
	if err := store.SetItemImage(r.Context(), h.DB, id, claims.UserID, result.Data, result.MIME, url); err != nil {
		storeError(w, err, "failed to save image")
		return
	}

	slog.Info("item image uploaded", "user", claims.UserID, "item", id, "bytes", len(result.Data))
	jsonResponse(w, http.StatusOK, map[string]string{"image_url": url})
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	data, mime, err := store.GetItemImage(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		storeError(w, err, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Write(data)
}

type ownerListing struct {
	listing.EnrichedItem
	PendingCount int `json:"pending_count"`
}

// MyListings handles GET /api/my/listings.
func (h *ItemsHandler) MyListings(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	items, pending, err := store.FetchOwnerListings(r.Context(), h.DB, claims.UserID)
	if err != nil {
		storeError(w, err, "failed to list items")
		return
	}

	out := make([]ownerListing, len(items))
	for i, item := range items {
		out[i] = ownerListing{EnrichedItem: item, PendingCount: pending.For(item.ID)}
	}
	jsonResponse(w, http.StatusOK, out)
}
