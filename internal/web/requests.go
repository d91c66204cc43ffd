package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/erazemk/burrow/internal/model"
	"github.com/erazemk/burrow/internal/store"
)

const (
	tabBorrowing = "borrowing"
	tabLending   = "lending"
)

// RequestsPage handles GET /requests. The borrowing tab lists the user's own
// requests with the lender's response; the lending tab lists requests for the
// user's items.
func (s *Server) RequestsPage(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	tab := r.URL.Query().Get("tab")
	if tab != tabLending {
		tab = tabBorrowing
	}

	borrowing, err := store.ListRequestsByBorrower(r.Context(), s.DB, claims.UserID)
	if err != nil {
		slog.Error("failed to list own requests", "error", err)
	}
	lending, err := store.ListRequestsByOwner(r.Context(), s.DB, claims.UserID)
	if err != nil {
		slog.Error("failed to list incoming requests", "error", err)
	}

	s.Templates.Render(w, "requests.html", &struct {
		PageData
		Tab       string
		Borrowing []model.RentalRequest
		Lending   []model.RentalRequest
	}{
		PageData:  s.page(w, r, "Requests"),
		Tab:       tab,
		Borrowing: borrowing,
		Lending:   lending,
	})
}

// MyRentalsPage handles GET /my-rentals.
func (s *Server) MyRentalsPage(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	rentals, err := store.ListRequestsByBorrower(r.Context(), s.DB, claims.UserID)
	if err != nil {
		slog.Error("failed to list rentals", "error", err)
	}

	s.Templates.Render(w, "my_rentals.html", &struct {
		PageData
		Rentals []model.RentalRequest
	}{
		PageData: s.page(w, r, "My rentals"),
		Rentals:  rentals,
	})
}

// RequestSubmit handles POST /items/{id}/request.
func (s *Server) RequestSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	itemID := r.PathValue("id")

	startValue := r.FormValue("start_date")
	endValue := r.FormValue("end_date")
	message := strings.TrimSpace(r.FormValue("message"))

	fail := func(status int, msg string) {
		s.renderItemDetail(w, r, status, msg, startValue, endValue, message)
	}

	start, err := model.ParseDate(startValue)
	if err != nil {
		fail(http.StatusBadRequest, "Choose a start date.")
		return
	}
	end, err := model.ParseDate(endValue)
	if err != nil {
		fail(http.StatusBadRequest, "Choose an end date.")
		return
	}
	if err := model.CheckStartDate(start, time.Now()); err != nil {
		fail(http.StatusBadRequest, "The start date cannot be in the past.")
		return
	}

	rr, err := store.CreateRentalRequest(r.Context(), s.DB, itemID, claims.UserID, start, end, message)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		s.notFound(w, r)
		return
	case errors.Is(err, store.ErrOwnItem):
		fail(http.StatusForbidden, "You cannot borrow your own item.")
		return
	case errors.Is(err, store.ErrUnavailable):
		fail(http.StatusConflict, "This item is not available right now.")
		return
	case errors.Is(err, store.ErrInvalidDates):
		fail(http.StatusBadRequest, "The end date must not be before the start date.")
		return
	default:
		slog.Error("failed to create rental request", "error", err)
		fail(http.StatusInternalServerError, "Could not send your request. Please try again.")
		return
	}

	slog.Info("rental request created", "user", claims.UserID, "item", itemID, "request", rr.ID, "days", rr.Days())
	setFlash(w, true, fmt.Sprintf("Request sent for %d day(s). The owner will get back to you.", rr.Days()))
	http.Redirect(w, r, "/my-rentals", http.StatusSeeOther)
}

// RequestApproveSubmit handles POST /requests/{id}/approve.
func (s *Server) RequestApproveSubmit(w http.ResponseWriter, r *http.Request) {
	s.resolveRequest(w, r, model.StatusApproved)
}

// RequestRejectSubmit handles POST /requests/{id}/reject.
func (s *Server) RequestRejectSubmit(w http.ResponseWriter, r *http.Request) {
	s.resolveRequest(w, r, model.StatusRejected)
}

func (s *Server) resolveRequest(w http.ResponseWriter, r *http.Request, next model.RequestStatus) {
	claims := GetWebClaims(r.Context())
	id := r.PathValue("id")
	back := "/requests?tab=" + tabLending

	err := store.ResolveRentalRequest(r.Context(), s.DB, id, claims.UserID, next, strings.TrimSpace(r.FormValue("response")))
	switch {
	case err == nil:
		slog.Info("rental request resolved", "user", claims.UserID, "request", id, "status", next)
		setFlash(w, true, "Request "+string(next)+".")
	case errors.Is(err, store.ErrNotFound):
		s.notFound(w, r)
		return
	case errors.Is(err, store.ErrAlreadyResolved):
		slog.Warn("rental request already resolved", "user", claims.UserID, "request", id, "status", next)
		setFlash(w, false, "This request has already been handled.")
	default:
		slog.Error("failed to resolve rental request", "user", claims.UserID, "request", id, "error", err)
		setFlash(w, false, "Could not update the request. Please try again.")
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}
