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

// ProfileHandler handles the signed-in user's own account pages: profile,
// name edits, the two-phase email change, and self-service deletion.
type ProfileHandler struct {
	accounts *service.AccountService
	auth     *AuthHandler
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(accounts *service.AccountService, auth *AuthHandler) *ProfileHandler {
	return &ProfileHandler{accounts: accounts, auth: auth}
}

// HandleProfile renders the profile overview.
// GET /accounts/profile
func (h *ProfileHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	view.ProfilePage(UserFromContext(r.Context())).Render(r.Context(), w)
}

// HandleEditPage renders the profile edit screen.
// GET /accounts/profile/edit
func (h *ProfileHandler) HandleEditPage(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	f := form.Profile{FirstName: user.FirstName, LastName: user.LastName}
	view.ProfileEditPage(user, f, nil).Render(r.Context(), w)
}

// HandleEdit saves name changes.
// POST /accounts/profile/edit
func (h *ProfileHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	f := form.ParseProfile(r)
	if errs := f.Validate(); errs.Has() {
		w.WriteHeader(http.StatusUnprocessableEntity)
		view.ProfileEditPage(user, f, errs).Render(r.Context(), w)
		return
	}

	if err := h.accounts.UpdateProfile(r.Context(), user, f.FirstName, f.LastName); err != nil {
		slog.Error("update profile", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/accounts/profile", http.StatusSeeOther)
}

// HandleUpdateEmail starts the verified email change.
// POST /accounts/profile/edit/update-email
func (h *ProfileHandler) HandleUpdateEmail(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	f := form.ParseEmailChange(r)
	if errs := f.Validate(); errs.Has() {
		w.WriteHeader(http.StatusUnprocessableEntity)
		view.EmailChangePage(user, f, errs).Render(r.Context(), w)
		return
	}

	err := h.accounts.RequestEmailChange(r.Context(), user, f.RequestedEmail, baseURL(r))
	if err != nil {
		errs := form.Errors{}
		switch {
		case errors.Is(err, domain.ErrSameEmail):
			errs.Add("requested_email", "That is already your email address.")
		case errors.Is(err, domain.ErrDuplicateEmail):
			errs.Add("requested_email", "A user with that email already exists.")
		default:
			slog.Error("request email change", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		view.EmailChangePage(user, f, errs).Render(r.Context(), w)
		return
	}

	view.EmailChangeSentPage(user, user.RequestedEmail).Render(r.Context(), w)
}

// HandleVerifyEmail consumes an email verification link. The link works
// with or without a session.
// GET /accounts/verify-email/{uid}/{token}
func (h *ProfileHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")
	tok := r.PathValue("token")

	user, err := h.accounts.VerifyEmailChange(r.Context(), uid, tok)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidToken):
			w.WriteHeader(http.StatusBadRequest)
			view.InvalidLinkPage("This verification link is invalid or has expired. Request the email change again to receive a fresh one.").Render(r.Context(), w)
		case errors.Is(err, domain.ErrDuplicateEmail):
			w.WriteHeader(http.StatusConflict)
			view.InvalidLinkPage("That email address has been claimed by another account since you requested the change.").Render(r.Context(), w)
		default:
			slog.Error("verify email change", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	view.EmailVerifiedPage(user).Render(r.Context(), w)
}

// HandleDeletePage renders the deletion confirmation form.
// GET /accounts/delete
func (h *ProfileHandler) HandleDeletePage(w http.ResponseWriter, r *http.Request) {
	view.DeleteAccountPage(UserFromContext(r.Context()), nil).Render(r.Context(), w)
}

// HandleDelete removes the account after an explicit typed confirmation,
// then ends the session.
// POST /accounts/delete
func (h *ProfileHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	// Anything but the exact confirmation value aborts without deleting.
	if r.PostFormValue("confirm") != "DELETE" {
		http.Redirect(w, r, "/accounts/profile", http.StatusSeeOther)
		return
	}

	if err := h.accounts.DeleteAccount(r.Context(), user.ID); err != nil {
		slog.Error("delete account", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.auth.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
