package api

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/justinas/alice"

	"github.com/erazemk/burrow/internal/db"
	"github.com/erazemk/burrow/internal/ratelimit"
)

// NewRouter creates the API router with all endpoints registered. The
// limiter throttles sign-up, login and request submission per client.
func NewRouter(d *db.DB, jwtSecret string, limiter *ratelimit.Limiter) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: d, JWTSecret: jwtSecret}
	itemsHandler := &ItemsHandler{DB: d}
	reviewsHandler := &ReviewsHandler{DB: d}
	requestsHandler := &RequestsHandler{DB: d}
	profileHandler := &ProfileHandler{DB: d}

	standard := alice.New(middleware.NoCache)
	limited := standard.Append(limiter.Middleware(http.HandlerFunc(tooManyRequests)))
	authed := standard.Append(AuthMiddleware(jwtSecret, d))
	authedLimited := authed.Append(limiter.Middleware(http.HandlerFunc(tooManyRequests)))

	// Auth.
	mux.Handle("POST /api/auth/signup", limited.ThenFunc(authHandler.SignUp))
	mux.Handle("POST /api/auth/login", limited.ThenFunc(authHandler.Login))
	mux.Handle("POST /api/auth/logout", authed.ThenFunc(authHandler.Logout))
	mux.Handle("GET /api/auth/me", authed.ThenFunc(authHandler.Me))

	// Public browsing.
	mux.Handle("GET /api/categories", standard.ThenFunc(itemsHandler.Categories))
	mux.Handle("GET /api/items", standard.ThenFunc(itemsHandler.List))
	mux.Handle("GET /api/items/{id}", standard.ThenFunc(itemsHandler.Get))
	mux.Handle("GET /api/items/{id}/image", alice.New().ThenFunc(itemsHandler.GetImage))
	mux.Handle("GET /api/items/{id}/reviews", standard.ThenFunc(reviewsHandler.List))

	// Listings of the signed-in user.
	mux.Handle("POST /api/items", authed.ThenFunc(itemsHandler.Create))
	mux.Handle("PUT /api/items/{id}", authed.ThenFunc(itemsHandler.Update))
	mux.Handle("PUT /api/items/{id}/image", authed.ThenFunc(itemsHandler.UploadImage))
	mux.Handle("GET /api/my/listings", authed.ThenFunc(itemsHandler.MyListings))

	// Reviews.
	mux.Handle("POST /api/items/{id}/reviews", authed.ThenFunc(reviewsHandler.Create))

	// Rental requests.
	mux.Handle("GET /api/requests", authed.ThenFunc(requestsHandler.List))
	mux.Handle("POST /api/requests", authedLimited.ThenFunc(requestsHandler.Create))
	mux.Handle("POST /api/requests/{id}/approve", authed.ThenFunc(requestsHandler.Approve))
	mux.Handle("POST /api/requests/{id}/reject", authed.ThenFunc(requestsHandler.Reject))

	// Profile.
	mux.Handle("GET /api/profile", authed.ThenFunc(profileHandler.Get))
	mux.Handle("PUT /api/profile", authed.ThenFunc(profileHandler.Update))

	mux.Handle("/api/", standard.ThenFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusNotFound, "not found")
	}))

	return mux
}
