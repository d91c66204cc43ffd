package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/erazemk/burrow/internal/auth"
	"github.com/erazemk/burrow/internal/model"
	"github.com/erazemk/burrow/internal/store"
)

type authForm struct {
	PageData
	Email string
	Next  string
}

// safeNext returns next if it is a local path, "/" otherwise.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}

// LoginPage handles GET /auth/login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "login.html", &authForm{
		PageData: s.page(w, r, "Sign in"),
		Next:     r.URL.Query().Get("next"),
	})
}

// LoginSubmit handles POST /auth/login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := model.NormalizeEmail(r.FormValue("email"))
	password := r.FormValue("password")
	next := r.FormValue("next")

	fail := func(status int, message string) {
		form := &authForm{PageData: s.page(w, r, "Sign in"), Email: email, Next: next}
		form.Error = message
		s.Templates.RenderStatus(w, status, "login.html", form)
	}

	if email == "" || password == "" {
		fail(http.StatusBadRequest, "Enter your email and password.")
		return
	}

	user, err := store.GetUserByEmail(r.Context(), s.DB, email)
	if err != nil {
		slog.Error("failed to look up user", "error", err)
		fail(http.StatusInternalServerError, "Sign in failed. Please try again.")
		return
	}
	if user == nil || auth.CheckPassword(user.PasswordHash, password) != nil {
		slog.Warn("login failed", "email", email, "remote", r.RemoteAddr)
		fail(http.StatusUnauthorized, "Invalid email or password.")
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret, user.ID, user.Email)
	if err != nil {
		slog.Error("failed to generate token", "error", err)
		fail(http.StatusInternalServerError, "Sign in failed. Please try again.")
		return
	}

	s.setAuthCookie(w, token)
	slog.Info("user logged in", "user", user.ID)
	http.Redirect(w, r, safeNext(next), http.StatusSeeOther)
}

// SignUpPage handles GET /auth/sign-up.
func (s *Server) SignUpPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "sign_up.html", &authForm{PageData: s.page(w, r, "Sign up")})
}

// SignUpSubmit handles POST /auth/sign-up.
func (s *Server) SignUpSubmit(w http.ResponseWriter, r *http.Request) {
	email := model.NormalizeEmail(r.FormValue("email"))
	password := r.FormValue("password")

	fail := func(status int, message string) {
		form := &authForm{PageData: s.page(w, r, "Sign up"), Email: email}
		form.Error = message
		s.Templates.RenderStatus(w, status, "sign_up.html", form)
	}

	if !strings.Contains(email, "@") {
		fail(http.StatusBadRequest, "Enter a valid email address.")
		return
	}
	if err := model.ValidatePassword(password); err != nil {
		fail(http.StatusBadRequest, "Password must be at least 8 characters.")
		return
	}
	if password != r.FormValue("repeat_password") {
		fail(http.StatusBadRequest, "Passwords do not match.")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		fail(http.StatusInternalServerError, "Sign up failed. Please try again.")
		return
	}

	user, err := store.CreateUser(r.Context(), s.DB, email, hash)
	if errors.Is(err, store.ErrEmailTaken) {
		fail(http.StatusConflict, "An account with this email already exists.")
		return
	}
	if err != nil {
		slog.Error("failed to create user", "error", err)
		fail(http.StatusInternalServerError, "Sign up failed. Please try again.")
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret, user.ID, user.Email)
	if err != nil {
		slog.Error("failed to generate token", "error", err)
		http.Redirect(w, r, "/auth/error?error=session", http.StatusSeeOther)
		return
	}

	s.setAuthCookie(w, token)
	slog.Info("user signed up", "user", user.ID)
	http.Redirect(w, r, "/auth/sign-up-success", http.StatusSeeOther)
}

// SignUpSuccessPage handles GET /auth/sign-up-success.
func (s *Server) SignUpSuccessPage(w http.ResponseWriter, r *http.Request) {
	pd := s.page(w, r, "Welcome to Burrow")
	s.Templates.Render(w, "sign_up_success.html", &pd)
}

// AuthErrorPage handles GET /auth/error.
func (s *Server) AuthErrorPage(w http.ResponseWriter, r *http.Request) {
	message := "Something went wrong while signing you in."
	if code := r.URL.Query().Get("error"); code != "" {
		message += " Error code: " + code
	}
	s.errorPage(w, r, http.StatusOK, "Authentication error", message)
}

// SignOut handles POST /auth/sign-out. The current token is revoked so it
// cannot be replayed after the cookie is cleared.
func (s *Server) SignOut(w http.ResponseWriter, r *http.Request) {
	if claims := GetWebClaims(r.Context()); claims != nil {
		expiresAt := time.Now().Add(auth.TokenExpiry)
		if claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}
		if err := store.RevokeToken(r.Context(), s.DB, claims.ID, expiresAt); err != nil {
			slog.Error("failed to revoke token", "error", err)
		} else {
			slog.Info("user logged out", "user", claims.UserID)
		}
	}

	s.clearAuthCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
