package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/giftwell/accounts/internal/domain"
	"github.com/giftwell/accounts/internal/form"
	"github.com/giftwell/accounts/internal/service"
	"github.com/giftwell/accounts/internal/view"
)

// AccountHandler handles registration and account activation.
type AccountHandler struct {
	accounts *service.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// HandleRegisterPage renders the registration form.
// GET /accounts/register
func (h *AccountHandler) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if UserFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/accounts/profile", http.StatusSeeOther)
		return
	}
	view.RegisterPage(form.Register{}, nil).Render(r.Context(), w)
}

// HandleRegister processes a registration form submission. The new account
// starts inactive; an activation link goes out by mail.
// POST /accounts/register
func (h *AccountHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	f := form.ParseRegister(r)
	if errs := f.Validate(); errs.Has() {
		w.WriteHeader(http.StatusUnprocessableEntity)
		view.RegisterPage(f, errs).Render(r.Context(), w)
		return
	}

	user, err := h.accounts.Register(r.Context(), service.RegisterInput{
		Email:     f.Email,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Password:  f.Password1,
	}, baseURL(r))
	if err != nil {
		errs := form.Errors{}
		switch {
		case errors.Is(err, domain.ErrDuplicateEmail):
			errs.Add("email", "A user with that email already exists.")
		case errors.Is(err, domain.ErrInvalidInput):
			errs.Add("password1", userMessage(err))
		default:
			slog.Error("register user", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		view.RegisterPage(f, errs).Render(r.Context(), w)
		return
	}

	view.RegisterDonePage(user.Email).Render(r.Context(), w)
}

// HandleActivate consumes an activation link.
// GET /accounts/activate/{uid}/{token}
func (h *AccountHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")
	tok := r.PathValue("token")

	if err := h.accounts.Activate(r.Context(), uid, tok); err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			w.WriteHeader(http.StatusBadRequest)
			view.InvalidLinkPage("This activation link is invalid or has expired. Please register again to receive a fresh one.").Render(r.Context(), w)
			return
		}
		slog.Error("activate account", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	view.ActivationDonePage().Render(r.Context(), w)
}

// userMessage strips the sentinel prefix from wrapped validation errors,
// leaving the human-readable part for the form.
func userMessage(err error) string {
	return strings.TrimPrefix(err.Error(), domain.ErrInvalidInput.Error()+": ")
}
