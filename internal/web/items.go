package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/burrow/internal/imaging"
	"github.com/erazemk/burrow/internal/listing"
	"github.com/erazemk/burrow/internal/model"
	"github.com/erazemk/burrow/internal/store"
)

// homeLimit is the number of latest listings shown on the home page.
const homeLimit = 4

// Home handles GET /.
func (s *Server) Home(w http.ResponseWriter, r *http.Request) {
	items, err := store.FetchListings(r.Context(), s.DB, store.ItemFilter{AvailableOnly: true, Limit: homeLimit})
	if err != nil {
		slog.Error("failed to list items for home page", "error", err)
	}

	s.Templates.Render(w, "home.html", &struct {
		PageData
		Items []listing.EnrichedItem
	}{
		PageData: s.page(w, r, "Borrow what you need"),
		Items:    items,
	})
}

// BrowsePage handles GET /browse.
func (s *Server) BrowsePage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fs := listing.ParseFilterState(q.Get("q"), q.Get("category"), q.Get("condition"))
	key := listing.ParseSortKey(q.Get("sort"))

	items, err := store.FetchListings(r.Context(), s.DB, store.ItemFilter{AvailableOnly: true})
	if err != nil {
		slog.Error("failed to list items for browse page", "error", err)
	}
	categories, err := store.ListCategories(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list categories", "error", err)
	}

	s.Templates.Render(w, "browse.html", &struct {
		PageData
		Items      []listing.EnrichedItem
		Categories []model.Category
		Conditions []model.Condition
		SortKeys   []listing.SortKey
		Filter     listing.FilterState
		Sort       listing.SortKey
	}{
		PageData:   s.page(w, r, "Browse items"),
		Items:      listing.Apply(items, fs, key),
		Categories: categories,
		Conditions: model.Conditions,
		SortKeys:   listing.SortKeys,
		Filter:     fs,
		Sort:       key,
	})
}

type estimate struct {
	Days  int
	Total float64
}

type itemDetailData struct {
	PageData
	Item      *listing.EnrichedItem
	Reviews   []model.Review
	IsOwner   bool
	CanReview bool
	Today     string
	Start     string
	End       string
	Message   string
	Estimate  *estimate
}

// ItemDetailPage handles GET /items/{id}. When start and end dates are given
// in the query the page shows the rental estimate for them.
func (s *Server) ItemDetailPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.renderItemDetail(w, r, http.StatusOK, "", q.Get("start_date"), q.Get("end_date"), "")
}

func (s *Server) renderItemDetail(w http.ResponseWriter, r *http.Request, status int, errMsg, start, end, message string) {
	id := r.PathValue("id")
	item, reviews, err := store.FetchItem(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get item", "error", err)
		s.serverError(w, r)
		return
	}
	if item == nil {
		s.notFound(w, r)
		return
	}

	data := &itemDetailData{
		PageData: s.page(w, r, item.Title),
		Item:     item,
		Reviews:  reviews,
		Today:    time.Now().UTC().Format(model.DateLayout),
		Start:    start,
		End:      end,
		Message:  message,
	}
	if errMsg != "" {
		data.Error = errMsg
	}

	if claims := data.User; claims != nil {
		data.IsOwner = claims.UserID == item.OwnerID
		if !data.IsOwner {
			data.CanReview = s.canReview(r, item.ID, claims.UserID)
		}
	}

	startDate, errStart := model.ParseDate(start)
	endDate, errEnd := model.ParseDate(end)
	if errStart == nil && errEnd == nil && !endDate.Before(startDate) {
		data.Estimate = &estimate{
			Days:  model.RentalDays(startDate, endDate),
			Total: model.EstimateTotal(item.PricePerDay, startDate, endDate),
		}
	}

	s.Templates.RenderStatus(w, status, "item_detail.html", data)
}

func (s *Server) canReview(r *http.Request, itemID, userID string) bool {
	borrowed, err := store.HasBorrowed(r.Context(), s.DB, itemID, userID)
	if err != nil {
		slog.Error("failed to check borrow history", "error", err)
		return false
	}
	if !borrowed {
		return false
	}
	reviewed, err := store.HasReviewed(r.Context(), s.DB, itemID, userID)
	if err != nil {
		slog.Error("failed to check reviews", "error", err)
		return false
	}
	return !reviewed
}

// ItemImageGet handles GET /items/{id}/image.
func (s *Server) ItemImageGet(w http.ResponseWriter, r *http.Request) {
	data, mime, err := store.GetItemImage(r.Context(), s.DB, r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get image", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if data == nil {
		http.NotFound(w, r)
		return
	}
	writeImage(w, data, mime)
}

func writeImage(w http.ResponseWriter, data []byte, mime string) {
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write image response", "error", err)
	}
}

// itemForm is the listing form as submitted, kept as strings so it can be
// re-rendered unchanged when validation fails.
type itemForm struct {
	Title       string
	Description string
	CategoryID  string
	Price       string
	Location    string
	Condition   string
	ImageURL    string
	IsAvailable bool
}

func readItemForm(r *http.Request) itemForm {
	return itemForm{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
		CategoryID:  r.FormValue("category_id"),
		Price:       strings.TrimSpace(r.FormValue("price_per_day")),
		Location:    strings.TrimSpace(r.FormValue("location")),
		Condition:   r.FormValue("condition"),
		ImageURL:    strings.TrimSpace(r.FormValue("image_url")),
		IsAvailable: r.FormValue("is_available") != "",
	}
}

// input validates the form and converts it. It returns a user-facing message
// when the form is invalid.
func (s *Server) input(r *http.Request, f itemForm) (model.ItemInput, string) {
	price, err := strconv.ParseFloat(f.Price, 64)
	if err != nil {
		return model.ItemInput{}, "Enter a valid price per day."
	}

	in := model.ItemInput{
		Title:       f.Title,
		Description: f.Description,
		CategoryID:  f.CategoryID,
		PricePerDay: price,
		Location:    f.Location,
		Condition:   model.Condition(f.Condition),
		ImageURL:    f.ImageURL,
		IsAvailable: f.IsAvailable,
	}
	if err := in.Validate(); err != nil {
		return in, "Please check the form: " + err.Error() + "."
	}
	if in.CategoryID == "" {
		return in, "Please choose a category."
	}
	category, err := store.GetCategory(r.Context(), s.DB, in.CategoryID)
	if err != nil {
		slog.Error("failed to get category", "error", err)
		return in, "Could not save the listing. Please try again."
	}
	if category == nil {
		return in, "Please choose a category."
	}
	return in, ""
}

type listItemData struct {
	PageData
	Form       itemForm
	Categories []model.Category
	Conditions []model.Condition
}

func (s *Server) renderListItem(w http.ResponseWriter, r *http.Request, status int, form itemForm, errMsg string) {
	categories, err := store.ListCategories(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list categories", "error", err)
	}
	data := &listItemData{
		PageData:   s.page(w, r, "List an item"),
		Form:       form,
		Categories: categories,
		Conditions: model.Conditions,
	}
	if errMsg != "" {
		data.Error = errMsg
	}
	s.Templates.RenderStatus(w, status, "list_item.html", data)
}

// ListItemPage handles GET /list-item.
func (s *Server) ListItemPage(w http.ResponseWriter, r *http.Request) {
	s.renderListItem(w, r, http.StatusOK, itemForm{Condition: string(model.ConditionGood), IsAvailable: true}, "")
}

// ListItemSubmit handles POST /list-item.
func (s *Server) ListItemSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	form := readItemForm(r)
	form.IsAvailable = true
	in, msg := s.input(r, form)
	if msg != "" {
		s.renderListItem(w, r, http.StatusBadRequest, form, msg)
		return
	}

	item, err := store.CreateItem(r.Context(), s.DB, claims.UserID, in)
	if err != nil {
		slog.Error("failed to create item", "error", err)
		s.renderListItem(w, r, http.StatusInternalServerError, form, "Could not save the listing. Please try again.")
		return
	}

	slog.Info("item listed", "user", claims.UserID, "item", item.ID, "title", item.Title)
	setFlash(w, true, fmt.Sprintf("%q is now listed.", item.Title))
	http.Redirect(w, r, "/my-listings", http.StatusSeeOther)
}

// ReviewSubmit handles POST /items/{id}/reviews.
func (s *Server) ReviewSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	itemID := r.PathValue("id")
	back := "/items/" + itemID

	rating, err := strconv.Atoi(r.FormValue("rating"))
	if err != nil || model.ValidateRating(rating) != nil {
		setFlash(w, false, "Choose a rating from 1 to 5.")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	_, err = store.CreateReview(r.Context(), s.DB, itemID, claims.UserID, rating, r.FormValue("comment"))
	switch {
	case err == nil:
		slog.Info("review posted", "user", claims.UserID, "item", itemID, "rating", rating)
		setFlash(w, true, "Thanks for your review.")
	case errors.Is(err, store.ErrNotEligible):
		setFlash(w, false, "You can review an item after borrowing it.")
	case errors.Is(err, store.ErrDuplicateReview):
		setFlash(w, false, "You have already reviewed this item.")
	default:
		slog.Error("failed to create review", "error", err)
		setFlash(w, false, "Could not post your review. Please try again.")
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// maxUploadForm bounds the multipart body, leaving room for form fields.
const maxUploadForm = imaging.MaxUploadSize + 1<<20

// readUpload parses a multipart image upload and processes it with the preset.
// It returns a user-facing message when the upload is unusable.
func readUpload(w http.ResponseWriter, r *http.Request, p imaging.Preset) (*imaging.Result, string) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadForm)
	if err := r.ParseMultipartForm(maxUploadForm); err != nil {
		return nil, "The file is too large."
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, "Choose an image to upload."
	}
	defer file.Close()

	result, err := imaging.Process(file, p)
	if errors.Is(err, imaging.ErrTooLarge) {
		return nil, "The file is too large."
	}
	if err != nil {
		return nil, "Upload a JPEG or PNG image."
	}
	return result, ""
}
