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

// PasswordHandler handles the authenticated password change and the
// mail-based reset flow.
type PasswordHandler struct {
	accounts *service.AccountService
}

// NewPasswordHandler creates a new PasswordHandler.
func NewPasswordHandler(accounts *service.AccountService) *PasswordHandler {
	return &PasswordHandler{accounts: accounts}
}

// HandleChangePage renders the password change form.
// GET /accounts/password_change
func (h *PasswordHandler) HandleChangePage(w http.ResponseWriter, r *http.Request) {
	view.PasswordChangePage(UserFromContext(r.Context()), nil).Render(r.Context(), w)
}

// HandleChange processes a password change. The current password must
// verify; the new one runs the full policy.
// POST /accounts/password_change
func (h *PasswordHandler) HandleChange(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	f := form.ParsePasswordChange(r)
	if errs := f.Validate(); errs.Has() {
		w.WriteHeader(http.StatusUnprocessableEntity)
		view.PasswordChangePage(user, errs).Render(r.Context(), w)
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), user, f.OldPassword, f.NewPassword1); err != nil {
		errs := form.Errors{}
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			errs.Add("old_password", "Your old password was entered incorrectly. Please enter it again.")
		case errors.Is(err, domain.ErrInvalidInput):
			errs.Add("new_password1", userMessage(err))
		default:
			slog.Error("change password", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		view.PasswordChangePage(user, errs).Render(r.Context(), w)
		return
	}

	view.PasswordChangeDonePage(user).Render(r.Context(), w)
}

// HandleResetPage renders the forgotten-password form.
// GET /accounts/password_reset
func (h *PasswordHandler) HandleResetPage(w http.ResponseWriter, r *http.Request) {
	view.PasswordResetPage(form.PasswordReset{}, nil).Render(r.Context(), w)
}

// HandleReset starts a password reset. The response is identical whether
// or not the address belongs to an account.
// POST /accounts/password_reset
func (h *PasswordHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	f := form.ParsePasswordReset(r)
	if errs := f.Validate(); errs.Has() {
		w.WriteHeader(http.StatusUnprocessableEntity)
		view.PasswordResetPage(f, errs).Render(r.Context(), w)
		return
	}

	if err := h.accounts.StartPasswordReset(r.Context(), f.Email, baseURL(r)); err != nil {
		slog.Error("start password reset", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	view.PasswordResetSentPage().Render(r.Context(), w)
}

// HandleResetConfirmPage checks the reset link and renders the
// new-password form behind it.
// GET /accounts/reset/{uid}/{token}
func (h *PasswordHandler) HandleResetConfirmPage(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")
	tok := r.PathValue("token")

	if _, err := h.accounts.CheckPasswordReset(r.Context(), uid, tok); err != nil {
		h.renderResetError(w, r, err)
		return
	}

	view.PasswordResetConfirmPage(uid, tok, nil).Render(r.Context(), w)
}

// HandleResetConfirm sets the new password behind a valid reset link.
// POST /accounts/reset/{uid}/{token}
func (h *PasswordHandler) HandleResetConfirm(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")
	tok := r.PathValue("token")

	f := form.ParseSetPassword(r)
	if errs := f.Validate(); errs.Has() {
		w.WriteHeader(http.StatusUnprocessableEntity)
		view.PasswordResetConfirmPage(uid, tok, errs).Render(r.Context(), w)
		return
	}

	if err := h.accounts.CompletePasswordReset(r.Context(), uid, tok, f.NewPassword1); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			errs := form.Errors{}
			errs.Add("new_password1", userMessage(err))
			w.WriteHeader(http.StatusUnprocessableEntity)
			view.PasswordResetConfirmPage(uid, tok, errs).Render(r.Context(), w)
			return
		}
		h.renderResetError(w, r, err)
		return
	}

	view.PasswordResetDonePage().Render(r.Context(), w)
}

func (h *PasswordHandler) renderResetError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrInvalidToken) {
		w.WriteHeader(http.StatusBadRequest)
		view.InvalidLinkPage("This reset link is invalid or has already been used. Request a new one from the password reset page.").Render(r.Context(), w)
		return
	}
	slog.Error("password reset", "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
