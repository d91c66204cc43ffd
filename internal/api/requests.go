package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/burrow/internal/db"
	"github.com/erazemk/burrow/internal/model"
	"github.com/erazemk/burrow/internal/store"
)

// RequestsHandler handles rental request endpoints.
type RequestsHandler struct {
	DB *db.DB
}

type createRequestRequest struct {
	ItemID    string `json:"item_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Message   string `json:"message"`
}

type resolveRequest struct {
	Response string `json:"response"`
}

// List handles GET /api/requests?role=borrower|owner.
func (h *RequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var requests []model.RentalRequest
	var err error
	switch r.URL.Query().Get("role") {
	case "", "borrower":
		requests, err = store.ListRequestsByBorrower(r.Context(), h.DB, claims.UserID)
	case "owner":
		requests, err = store.ListRequestsByOwner(r.Context(), h.DB, claims.UserID)
	default:
		jsonError(w, http.StatusBadRequest, "role must be borrower or owner")
		return
	}
	if err != nil {
		storeError(w, err, "failed to list requests")
		return
	}
	if requests == nil {
		requests = []model.RentalRequest{}
	}
	jsonResponse(w, http.StatusOK, requests)
}

// Create handles POST /api/requests.
func (h *RequestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req createRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ItemID == "" {
		jsonError(w, http.StatusBadRequest, "item_id required")
		return
	}

	start, err := model.ParseDate(req.StartDate)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}
	end, err := model.ParseDate(req.EndDate)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		return
	}
	if err := model.CheckStartDate(start, time.Now()); err != nil {
		storeError(w, err, "invalid dates")
		return
	}

	rr, err := store.CreateRentalRequest(r.Context(), h.DB, req.ItemID, claims.UserID, start, end, req.Message)
	if err != nil {
		storeError(w, err, "failed to create request")
		return
	}

	slog.Info("rental request created", "user", claims.UserID, "item", rr.ItemID, "request", rr.ID, "days", rr.Days())
	jsonResponse(w, http.StatusCreated, rr)
}

// Approve handles POST /api/requests/{id}/approve.
func (h *RequestsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, model.StatusApproved)
}

// Reject handles POST /api/requests/{id}/reject.
func (h *RequestsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, model.StatusRejected)
}

func (h *RequestsHandler) resolve(w http.ResponseWriter, r *http.Request, next model.RequestStatus) {
	claims := GetClaims(r.Context())
	id := r.PathValue("id")

	var req resolveRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.ResolveRentalRequest(r.Context(), h.DB, id, claims.UserID, next, req.Response); err != nil {
		slog.Warn("resolving rental request failed", "user", claims.UserID, "request", id, "status", next, "error", err)
		storeError(w, err, "failed to update request")
		return
	}

	slog.Info("rental request resolved", "user", claims.UserID, "request", id, "status", next)
	rr, err := store.GetRentalRequest(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get request")
		return
	}
	jsonResponse(w, http.StatusOK, rr)
}
