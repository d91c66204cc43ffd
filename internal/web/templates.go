package web

import (
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/erazemk/burrow/internal/auth"
	"github.com/erazemk/burrow/internal/db"
	"github.com/erazemk/burrow/internal/imaging"
	"github.com/erazemk/burrow/internal/model"
	"github.com/erazemk/burrow/internal/ratelimit"
	webembed "github.com/erazemk/burrow/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"ago": humanize.Time,
		"date": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},
		"formDate": func(t time.Time) string {
			return t.Format("2006-01-02")
		},
		"price": func(f float64) string {
			return "$" + humanize.FormatFloat("#,###.##", f)
		},
		"rating": func(avg *float64) string {
			if avg == nil {
				return "New"
			}
			return fmt.Sprintf("%.1f", *avg)
		},
		"days":     model.RentalDays,
		"estimate": model.EstimateTotal,
		"plural": func(n int, singular string) string {
			return english.Plural(n, singular, "")
		},
		"uploadLimit": func() string {
			return humanize.IBytes(imaging.MaxUploadSize)
		},
		"count": func(n *int) int {
			if n == nil {
				return 0
			}
			return *n
		},
	}
}

// pages lists the page templates. Each is parsed together with the layout,
// which also defines the shared partials.
var pages = []string{
	"home.html",
	"browse.html",
	"item_detail.html",
	"list_item.html",
	"my_listings.html",
	"my_rentals.html",
	"requests.html",
	"profile.html",
	"login.html",
	"sign_up.html",
	"sign_up_success.html",
	"error.html",
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data and a 200 status.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	ts.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders a template with the given status code.
func (ts *Templates) RenderStatus(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	User    *auth.Claims
	Path    string
	Error   string
	Success string
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB            *db.DB
	Templates     *Templates
	JWTSecret     string
	Limiter       *ratelimit.Limiter
	SecureCookies bool
}

// page builds the base page data for a request and consumes any pending
// flash message.
func (s *Server) page(w http.ResponseWriter, r *http.Request, title string) PageData {
	pd := PageData{
		Title: title,
		User:  GetWebClaims(r.Context()),
		Path:  r.URL.Path,
	}
	pd.Success, pd.Error = readFlash(w, r)
	return pd
}

// errorPage renders the generic error page.
func (s *Server) errorPage(w http.ResponseWriter, r *http.Request, status int, title, message string) {
	pd := s.page(w, r, title)
	pd.Error = message
	s.Templates.RenderStatus(w, status, "error.html", &pd)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.errorPage(w, r, http.StatusNotFound, "Not found", "The page you were looking for does not exist.")
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request) {
	s.errorPage(w, r, http.StatusInternalServerError, "Something went wrong", "Please try again in a moment.")
}

func (s *Server) tooManyRequests(w http.ResponseWriter, r *http.Request) {
	s.errorPage(w, r, http.StatusTooManyRequests, "Slow down", "Too many attempts. Please wait a minute and try again.")
}
