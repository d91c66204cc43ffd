package web

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/justinas/alice"

	"github.com/erazemk/burrow/internal/db"
	"github.com/erazemk/burrow/internal/ratelimit"
	webembed "github.com/erazemk/burrow/web"
)

// Options configures the page router.
type Options struct {
	JWTSecret     string
	Limiter       *ratelimit.Limiter
	SecureCookies bool
}

// NewRouter creates the web page router with all page routes registered.
func NewRouter(d *db.DB, opts Options) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.New(20, 5)
	}

	s := &Server{
		DB:            d,
		Templates:     templates,
		JWTSecret:     opts.JWTSecret,
		Limiter:       limiter,
		SecureCookies: opts.SecureCookies,
	}

	mux := http.NewServeMux()

	public := alice.New(s.IdentifyUser)
	limited := public.Append(limiter.Middleware(http.HandlerFunc(s.tooManyRequests)))
	private := public.Append(RequireUser, middleware.NoCache)
	privateLimited := private.Append(limiter.Middleware(http.HandlerFunc(s.tooManyRequests)))

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Browsing.
	mux.Handle("GET /{$}", public.ThenFunc(s.Home))
	mux.Handle("GET /browse", public.ThenFunc(s.BrowsePage))
	mux.Handle("GET /items/{id}", public.ThenFunc(s.ItemDetailPage))
	mux.HandleFunc("GET /items/{id}/image", s.ItemImageGet)
	mux.HandleFunc("GET /profile/{id}/avatar", s.AvatarGet)

	// Borrowing and reviews.
	mux.Handle("POST /items/{id}/request", privateLimited.ThenFunc(s.RequestSubmit))
	mux.Handle("POST /items/{id}/reviews", private.ThenFunc(s.ReviewSubmit))
	mux.Handle("GET /my-rentals", private.ThenFunc(s.MyRentalsPage))

	// Lending.
	mux.Handle("GET /list-item", private.ThenFunc(s.ListItemPage))
	mux.Handle("POST /list-item", private.ThenFunc(s.ListItemSubmit))
	mux.Handle("GET /my-listings", private.ThenFunc(s.MyListingsPage))
	mux.Handle("POST /my-listings/{id}", private.ThenFunc(s.ListingUpdateSubmit))
	mux.Handle("POST /my-listings/{id}/image", private.ThenFunc(s.ListingImageSubmit))

	// Requests.
	mux.Handle("GET /requests", private.ThenFunc(s.RequestsPage))
	mux.Handle("POST /requests/{id}/approve", private.ThenFunc(s.RequestApproveSubmit))
	mux.Handle("POST /requests/{id}/reject", private.ThenFunc(s.RequestRejectSubmit))

	// Profile.
	mux.Handle("GET /profile", private.ThenFunc(s.ProfilePage))
	mux.Handle("POST /profile", private.ThenFunc(s.ProfileSubmit))
	mux.Handle("POST /profile/avatar", private.ThenFunc(s.AvatarSubmit))

	// Auth.
	mux.Handle("GET /auth/login", public.ThenFunc(s.LoginPage))
	mux.Handle("POST /auth/login", limited.ThenFunc(s.LoginSubmit))
	mux.Handle("GET /auth/sign-up", public.ThenFunc(s.SignUpPage))
	mux.Handle("POST /auth/sign-up", limited.ThenFunc(s.SignUpSubmit))
	mux.Handle("GET /auth/sign-up-success", public.ThenFunc(s.SignUpSuccessPage))
	mux.Handle("GET /auth/error", public.ThenFunc(s.AuthErrorPage))
	mux.Handle("POST /auth/sign-out", public.ThenFunc(s.SignOut))

	mux.Handle("/", public.ThenFunc(s.notFound))

	return mux, nil
}
