package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	datastar "github.com/starfederation/datastar-go/datastar"

	"github.com/giftwell/accounts/internal/domain"
	"github.com/giftwell/accounts/internal/service"
	"github.com/giftwell/accounts/internal/view"
)

// AdminHandler handles the tiered admin console.
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// HandleList renders the user list.
// GET /admin/users
func (h *AdminHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	actor := UserFromContext(r.Context())

	users, err := h.admin.ListUsers(r.Context(), actor)
	if err != nil {
		h.renderError(w, r, err, "list users")
		return
	}

	view.AdminUsersPage(actor, users).Render(r.Context(), w)
}

// HandleSearch swaps the user table body over SSE as the operator types.
// GET /admin/users/search?q=...
func (h *AdminHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	actor := UserFromContext(r.Context())
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	users, err := h.admin.SearchUsers(r.Context(), actor, query)
	if err != nil {
		h.renderError(w, r, err, "search users")
		return
	}

	sse := datastar.NewSSE(w, r)
	sse.PatchElementTempl(
		view.AdminUserRowsFragment(users),
		datastar.WithSelectorID("admin-user-rows"),
	)
}

// HandleNewPage renders the create-user form.
// GET /admin/users/new
func (h *AdminHandler) HandleNewPage(w http.ResponseWriter, r *http.Request) {
	view.AdminUserFormPage(UserFromContext(r.Context()), nil, "").Render(r.Context(), w)
}

// HandleCreate creates a user from the console.
// POST /admin/users/new
func (h *AdminHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor := UserFromContext(r.Context())

	created, err := h.admin.CreateUser(r.Context(), actor, parseUserEdit(r))
	if err != nil {
		if msg, ok := editErrorMessage(err); ok {
			w.WriteHeader(http.StatusUnprocessableEntity)
			view.AdminUserFormPage(actor, nil, msg).Render(r.Context(), w)
			return
		}
		h.renderError(w, r, err, "admin create user")
		return
	}

	http.Redirect(w, r, "/admin/users/"+strconv.FormatInt(created.ID, 10), http.StatusSeeOther)
}

// HandleEditPage renders the edit form for one account.
// GET /admin/users/{id}
func (h *AdminHandler) HandleEditPage(w http.ResponseWriter, r *http.Request) {
	actor := UserFromContext(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	target, err := h.admin.GetUser(r.Context(), actor, id)
	if err != nil {
		h.renderError(w, r, err, "admin get user")
		return
	}

	view.AdminUserFormPage(actor, target, "").Render(r.Context(), w)
}

// HandleUpdate applies an edit to one account.
// POST /admin/users/{id}
func (h *AdminHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor := UserFromContext(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	target, err := h.admin.UpdateUser(r.Context(), actor, id, parseUserEdit(r))
	if err != nil {
		if msg, ok := editErrorMessage(err); ok {
			// Re-render against the stored record, not the rejected edit.
			stored, gerr := h.admin.GetUser(r.Context(), actor, id)
			if gerr != nil {
				h.renderError(w, r, gerr, "admin get user")
				return
			}
			w.WriteHeader(http.StatusUnprocessableEntity)
			view.AdminUserFormPage(actor, stored, msg).Render(r.Context(), w)
			return
		}
		h.renderError(w, r, err, "admin update user")
		return
	}

	view.AdminUserFormPage(actor, target, "").Render(r.Context(), w)
}

// HandleDelete removes an account from the console.
// POST /admin/users/{id}/delete
func (h *AdminHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor := UserFromContext(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := h.admin.DeleteUser(r.Context(), actor, id); err != nil {
		h.renderError(w, r, err, "admin delete user")
		return
	}

	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

func parseUserEdit(r *http.Request) service.UserEdit {
	var perms []string
	for _, line := range strings.Split(r.PostFormValue("permissions"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			perms = append(perms, line)
		}
	}

	return service.UserEdit{
		Email:       r.PostFormValue("email"),
		FirstName:   r.PostFormValue("first_name"),
		LastName:    r.PostFormValue("last_name"),
		IsActive:    r.PostFormValue("is_active") == "on",
		IsStaff:     r.PostFormValue("is_staff") == "on",
		IsSuperuser: r.PostFormValue("is_superuser") == "on",
		Permissions: perms,
		NewPassword: r.PostFormValue("new_password"),
	}
}

func editErrorMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, domain.ErrDuplicateEmail):
		return "A user with that email already exists.", true
	case errors.Is(err, domain.ErrInvalidInput):
		return userMessage(err), true
	}
	return "", false
}

func (h *AdminHandler) renderError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		w.WriteHeader(http.StatusForbidden)
		view.ErrorPage(http.StatusForbidden, "Access Denied", "You do not have permission to modify that account.").Render(r.Context(), w)
	case errors.Is(err, domain.ErrNotFound):
		http.NotFound(w, r)
	default:
		slog.Error(op, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
