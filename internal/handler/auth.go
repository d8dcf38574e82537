package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/giftwell/accounts/internal/domain"
	"github.com/giftwell/accounts/internal/form"
	"github.com/giftwell/accounts/internal/service"
	"github.com/giftwell/accounts/internal/view"
)

// AuthHandler handles login, logout and the session cookie.
type AuthHandler struct {
	auth         *service.AuthService
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{auth: auth, cookieSecure: cookieSecure}
}

// HandleLoginPage renders the login form.
// GET /accounts/login
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if UserFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/accounts/profile", http.StatusSeeOther)
		return
	}
	view.LoginPage(form.Login{}, nil).Render(r.Context(), w)
}

// HandleLogin processes a login form submission and sets the auth cookie.
// POST /accounts/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	f := form.ParseLogin(r)
	if errs := f.Validate(); errs.Has() {
		w.WriteHeader(http.StatusUnprocessableEntity)
		view.LoginPage(f, errs).Render(r.Context(), w)
		return
	}

	token, err := h.auth.Login(r.Context(), f.Email, f.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			errs := form.Errors{}
			errs.Add("__all__", "Please enter a correct email and password. Note that the password is case-sensitive.")
			w.WriteHeader(http.StatusUnauthorized)
			view.LoginPage(f, errs).Render(r.Context(), w)
			return
		}
		slog.Error("login user", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.setSessionCookie(w, token)
	http.Redirect(w, r, "/accounts/profile", http.StatusSeeOther)
}

// HandleLogout clears the auth cookie.
// POST /accounts/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleMe returns the currently authenticated user as JSON.
// GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": toUserDTO(user),
	})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.auth.SessionTTL().Seconds()),
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
