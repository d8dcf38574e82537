package handler

import (
	"net/http"

	"github.com/giftwell/accounts/internal/view"
)

// HandleHome renders the home page.
func HandleHome(w http.ResponseWriter, r *http.Request) {
	view.HomePage(UserFromContext(r.Context())).Render(r.Context(), w)
}
