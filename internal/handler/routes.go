package handler

import (
	"net/http"

	"github.com/giftwell/accounts/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(
	mux *http.ServeMux,
	auth *service.AuthService,
	accounts *service.AccountService,
	admin *service.AdminService,
	cookieSecure bool,
) {
	authH := NewAuthHandler(auth, cookieSecure)
	accountH := NewAccountHandler(accounts)
	profileH := NewProfileHandler(accounts, authH)
	passwordH := NewPasswordHandler(accounts)
	adminH := NewAdminHandler(admin)

	mux.HandleFunc("GET /healthz", HandleHealthz)
	mux.Handle("GET /static/", http.FileServerFS(staticFS))
	mux.Handle("GET /", OptionalAuth(auth, http.HandlerFunc(HandleHome)))

	// Registration and activation.
	mux.Handle("GET /accounts/register", OptionalAuth(auth, http.HandlerFunc(accountH.HandleRegisterPage)))
	mux.HandleFunc("POST /accounts/register", accountH.HandleRegister)
	mux.HandleFunc("GET /accounts/activate/{uid}/{token}", accountH.HandleActivate)

	// Sessions.
	mux.Handle("GET /accounts/login", OptionalAuth(auth, http.HandlerFunc(authH.HandleLoginPage)))
	mux.HandleFunc("POST /accounts/login", authH.HandleLogin)
	mux.HandleFunc("POST /accounts/logout", authH.HandleLogout)

	// Profile and email change.
	mux.Handle("GET /accounts/profile", RequireAuth(auth, http.HandlerFunc(profileH.HandleProfile)))
	mux.Handle("GET /accounts/profile/edit", RequireAuth(auth, http.HandlerFunc(profileH.HandleEditPage)))
	mux.Handle("POST /accounts/profile/edit", RequireAuth(auth, http.HandlerFunc(profileH.HandleEdit)))
	mux.Handle("POST /accounts/profile/edit/update-email", RequireAuth(auth, http.HandlerFunc(profileH.HandleUpdateEmail)))
	mux.HandleFunc("GET /accounts/verify-email/{uid}/{token}", profileH.HandleVerifyEmail)

	// Passwords.
	mux.Handle("GET /accounts/password_change", RequireAuth(auth, http.HandlerFunc(passwordH.HandleChangePage)))
	mux.Handle("POST /accounts/password_change", RequireAuth(auth, http.HandlerFunc(passwordH.HandleChange)))
	mux.HandleFunc("GET /accounts/password_reset", passwordH.HandleResetPage)
	mux.HandleFunc("POST /accounts/password_reset", passwordH.HandleReset)
	mux.HandleFunc("GET /accounts/reset/{uid}/{token}", passwordH.HandleResetConfirmPage)
	mux.HandleFunc("POST /accounts/reset/{uid}/{token}", passwordH.HandleResetConfirm)

	// Self-service deletion.
	mux.Handle("GET /accounts/delete", RequireAuth(auth, http.HandlerFunc(profileH.HandleDeletePage)))
	mux.Handle("POST /accounts/delete", RequireAuth(auth, http.HandlerFunc(profileH.HandleDelete)))

	// JSON API.
	mux.Handle("GET /api/me", OptionalAuth(auth, http.HandlerFunc(authH.HandleMe)))

	// Admin console.
	mux.Handle("GET /admin/users", RequireStaff(auth, admin, http.HandlerFunc(adminH.HandleList)))
	mux.Handle("GET /admin/users/search", RequireStaff(auth, admin, http.HandlerFunc(adminH.HandleSearch)))
	mux.Handle("GET /admin/users/new", RequireStaff(auth, admin, http.HandlerFunc(adminH.HandleNewPage)))
	mux.Handle("POST /admin/users/new", RequireStaff(auth, admin, http.HandlerFunc(adminH.HandleCreate)))
	mux.Handle("GET /admin/users/{id}", RequireStaff(auth, admin, http.HandlerFunc(adminH.HandleEditPage)))
	mux.Handle("POST /admin/users/{id}", RequireStaff(auth, admin, http.HandlerFunc(adminH.HandleUpdate)))
	mux.Handle("POST /admin/users/{id}/delete", RequireStaff(auth, admin, http.HandlerFunc(adminH.HandleDelete)))
}
