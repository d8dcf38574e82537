package handler_test

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/giftwell/accounts/internal/handler"
	"github.com/giftwell/accounts/internal/service"
)

func newTestServer(t *testing.T) (*httptest.Server, *testServices) {
	t.Helper()
	ts := newTestServices(t)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, ts.auth, ts.accounts, ts.admin, false)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, ts
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("create cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse // don't follow redirects automatically
		},
	}
}

// lastMailPath extracts the URL path of the last mailed link for the
// given action segment ("activate", "verify-email", "reset").
func lastMailPath(t *testing.T, ts *testServices, action string) string {
	t.Helper()
	sent := ts.mailer.Sent()
	if len(sent) == 0 {
		t.Fatal("no mail sent")
	}

	marker := "/accounts/" + action + "/"
	body := sent[len(sent)-1].Body
	idx := strings.Index(body, marker)
	if idx < 0 {
		t.Fatalf("no %s link in mail body:\n%s", action, body)
	}
	rest := body[idx:]
	if end := strings.IndexAny(rest, "\n "); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

func registerForm(email string) url.Values {
	return url.Values{
		"email":      {email},
		"first_name": {"Integration"},
		"last_name":  {"User"},
		"password1":  {"correct-horse-battery"},
		"password2":  {"correct-horse-battery"},
	}
}

func TestIntegration_RegisterActivateLoginLogout(t *testing.T) {
	srv, ts := newTestServer(t)
	client := newClient(t)

	// 1. Register. The page confirms the mail went out.
	resp, err := client.PostForm(srv.URL+"/accounts/register", registerForm("integ@example.com"))
	if err != nil {
		t.Fatalf("POST /accounts/register: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register: expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "integ@example.com") {
		t.Fatal("confirmation page should echo the address")
	}

	// 2. Logging in before activation is refused.
	resp, err = client.PostForm(srv.URL+"/accounts/login", url.Values{
		"email":    {"integ@example.com"},
		"password": {"correct-horse-battery"},
	})
	if err != nil {
		t.Fatalf("POST /accounts/login: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("pre-activation login: expected 401, got %d", resp.StatusCode)
	}

	// 3. Follow the activation link from the mail.
	resp, err = client.Get(srv.URL + lastMailPath(t, ts, "activate"))
	if err != nil {
		t.Fatalf("GET activation link: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("activate: expected 200, got %d", resp.StatusCode)
	}

	// 4. Login succeeds and sets the session cookie.
	resp, err = client.PostForm(srv.URL+"/accounts/login", url.Values{
		"email":    {"integ@example.com"},
		"password": {"correct-horse-battery"},
	})
	if err != nil {
		t.Fatalf("POST /accounts/login: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login: expected 303, got %d", resp.StatusCode)
	}

	srvURL, _ := url.Parse(srv.URL)
	var hasAuthToken bool
	for _, c := range client.Jar.Cookies(srvURL) {
		if c.Name == "auth_token" {
			hasAuthToken = true
		}
	}
	if !hasAuthToken {
		t.Fatal("expected auth_token cookie after login")
	}

	// 5. Profile page renders.
	resp, err = client.Get(srv.URL + "/accounts/profile")
	if err != nil {
		t.Fatalf("GET /accounts/profile: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile: expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "integ@example.com") {
		t.Fatal("profile should show the email address")
	}

	// 6. /api/me returns the user as JSON.
	resp, err = client.Get(srv.URL + "/api/me")
	if err != nil {
		t.Fatalf("GET /api/me: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/api/me: expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `"integ@example.com"`) {
		t.Fatalf("/api/me should include the email, got %s", body)
	}

	// 7. Logout, then protected pages are gone.
	resp, err = client.PostForm(srv.URL+"/accounts/logout", nil)
	if err != nil {
		t.Fatalf("POST /accounts/logout: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("logout: expected 303, got %d", resp.StatusCode)
	}

	resp, err = client.Get(srv.URL + "/accounts/profile")
	if err != nil {
		t.Fatalf("GET /accounts/profile after logout: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("profile after logout: expected 401, got %d", resp.StatusCode)
	}
}

func TestIntegration_RegisterValidationFailures(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newClient(t)

	// Mismatched confirmation.
	f := registerForm("mismatch@example.com")
	f.Set("password2", "different-password")
	resp, err := client.PostForm(srv.URL+"/accounts/register", f)
	if err != nil {
		t.Fatalf("POST /accounts/register: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("mismatch: expected 422, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "Passwords don") {
		t.Fatal("mismatch error should render on the form")
	}

	// Weak password.
	f = registerForm("weak@example.com")
	f.Set("password1", "short")
	f.Set("password2", "short")
	resp, err = client.PostForm(srv.URL+"/accounts/register", f)
	if err != nil {
		t.Fatalf("POST /accounts/register: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("weak password: expected 422, got %d", resp.StatusCode)
	}

	// Duplicate email.
	resp, err = client.PostForm(srv.URL+"/accounts/register", registerForm("dup@example.com"))
	if err != nil {
		t.Fatalf("first register: %v", err)
	}
	resp.Body.Close()
	resp, err = client.PostForm(srv.URL+"/accounts/register", registerForm("DUP@example.com"))
	if err != nil {
		t.Fatalf("second register: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("duplicate: expected 422, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "already exists") {
		t.Fatal("duplicate error should render on the form")
	}
}

func TestIntegration_ActivationLinkTampered(t *testing.T) {
	srv, ts := newTestServer(t)
	client := newClient(t)

	resp, err := client.PostForm(srv.URL+"/accounts/register", registerForm("tampered@example.com"))
	if err != nil {
		t.Fatalf("POST /accounts/register: %v", err)
	}
	resp.Body.Close()

	path := lastMailPath(t, ts, "activate")
	resp, err = client.Get(srv.URL + path + "x")
	if err != nil {
		t.Fatalf("GET tampered link: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("tampered link: expected 400, got %d", resp.StatusCode)
	}
}

func TestIntegration_PasswordResetFlow(t *testing.T) {
	srv, ts := newTestServer(t)
	client := newClient(t)

	createActiveUser(t, ts, "reset@example.com")

	// Request a reset.
	resp, err := client.PostForm(srv.URL+"/accounts/password_reset", url.Values{
		"email": {"reset@example.com"},
	})
	if err != nil {
		t.Fatalf("POST /accounts/password_reset: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset request: expected 200, got %d", resp.StatusCode)
	}

	path := lastMailPath(t, ts, "reset")

	// The link renders the new-password form.
	resp, err = client.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET reset link: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset confirm page: expected 200, got %d", resp.StatusCode)
	}

	// Set the new password.
	resp, err = client.PostForm(srv.URL+path, url.Values{
		"new_password1": {"a-brand-new-password"},
		"new_password2": {"a-brand-new-password"},
	})
	if err != nil {
		t.Fatalf("POST reset confirm: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset confirm: expected 200, got %d", resp.StatusCode)
	}

	// The consumed link is dead.
	resp, err = client.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET consumed reset link: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("consumed link: expected 400, got %d", resp.StatusCode)
	}

	// Only the new password logs in.
	resp, err = client.PostForm(srv.URL+"/accounts/login", url.Values{
		"email":    {"reset@example.com"},
		"password": {"correct-horse-battery"},
	})
	if err != nil {
		t.Fatalf("login old password: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("old password: expected 401, got %d", resp.StatusCode)
	}

	resp, err = client.PostForm(srv.URL+"/accounts/login", url.Values{
		"email":    {"reset@example.com"},
		"password": {"a-brand-new-password"},
	})
	if err != nil {
		t.Fatalf("login new password: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("new password: expected 303, got %d", resp.StatusCode)
	}
}

func TestIntegration_PasswordResetUnknownAddressLooksTheSame(t *testing.T) {
	srv, ts := newTestServer(t)
	client := newClient(t)

	resp, err := client.PostForm(srv.URL+"/accounts/password_reset", url.Values{
		"email": {"nobody@example.com"},
	})
	if err != nil {
		t.Fatalf("POST /accounts/password_reset: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for unknown address, got %d", resp.StatusCode)
	}
	if len(ts.mailer.Sent()) != 0 {
		t.Fatal("no mail should go out for an unknown address")
	}
}

func TestIntegration_EmailChangeFlow(t *testing.T) {
	srv, ts := newTestServer(t)
	client := newClient(t)

	createActiveUser(t, ts, "old@example.com")
	resp, err := client.PostForm(srv.URL+"/accounts/login", url.Values{
		"email":    {"old@example.com"},
		"password": {"correct-horse-battery"},
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	resp.Body.Close()

	// Request the change.
	resp, err = client.PostForm(srv.URL+"/accounts/profile/edit/update-email", url.Values{
		"requested_email": {"new@example.com"},
	})
	if err != nil {
		t.Fatalf("POST update-email: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update-email: expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "new@example.com") {
		t.Fatal("confirmation page should name the new address")
	}

	// The verification link lands without a session too.
	anon := newClient(t)
	resp, err = anon.Get(srv.URL + lastMailPath(t, ts, "verify-email"))
	if err != nil {
		t.Fatalf("GET verify link: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "new@example.com") {
		t.Fatal("verified page should show the new address")
	}

	// The old address no longer logs in; the new one does.
	resp, err = client.PostForm(srv.URL+"/accounts/login", url.Values{
		"email":    {"old@example.com"},
		"password": {"correct-horse-battery"},
	})
	if err != nil {
		t.Fatalf("login old address: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("old address: expected 401, got %d", resp.StatusCode)
	}

	resp, err = client.PostForm(srv.URL+"/accounts/login", url.Values{
		"email":    {"new@example.com"},
		"password": {"correct-horse-battery"},
	})
	if err != nil {
		t.Fatalf("login new address: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("new address: expected 303, got %d", resp.StatusCode)
	}
}

func TestIntegration_DeleteAccountRequiresTypedConfirmation(t *testing.T) {
	srv, ts := newTestServer(t)
	client := newClient(t)

	createActiveUser(t, ts, "gone@example.com")
	resp, err := client.PostForm(srv.URL+"/accounts/login", url.Values{
		"email":    {"gone@example.com"},
		"password": {"correct-horse-battery"},
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	resp.Body.Close()

	// Wrong confirmation value bounces back to the profile, account intact.
	resp, err = client.PostForm(srv.URL+"/accounts/delete", url.Values{
		"confirm": {"delete"},
	})
	if err != nil {
		t.Fatalf("POST /accounts/delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("lowercase confirm: expected 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/accounts/profile" {
		t.Fatalf("expected redirect to profile, got %q", loc)
	}
	resp, err = client.Get(srv.URL + "/accounts/profile")
	if err != nil {
		t.Fatalf("GET /accounts/profile: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("account should survive a wrong confirmation, got %d", resp.StatusCode)
	}

	// Exact confirmation deletes and ends the session.
	resp, err = client.PostForm(srv.URL+"/accounts/delete", url.Values{
		"confirm": {"DELETE"},
	})
	if err != nil {
		t.Fatalf("POST /accounts/delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("delete: expected 303, got %d", resp.StatusCode)
	}

	resp, err = client.PostForm(srv.URL+"/accounts/login", url.Values{
		"email":    {"gone@example.com"},
		"password": {"correct-horse-battery"},
	})
	if err != nil {
		t.Fatalf("login after delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("deleted account login: expected 401, got %d", resp.StatusCode)
	}
}

func TestIntegration_AdminConsoleAccess(t *testing.T) {
	srv, ts := newTestServer(t)

	createActiveUser(t, ts, "member@example.com")
	createActiveUser(t, ts, "staff@example.com", service.WithStaff(true))

	// Anonymous requests get 401.
	resp, err := http.Get(srv.URL + "/admin/users")
	if err != nil {
		t.Fatalf("GET /admin/users: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", resp.StatusCode)
	}

	// Regular members get 403.
	client := newClient(t)
	resp, err = client.PostForm(srv.URL+"/accounts/login", url.Values{
		"email":    {"member@example.com"},
		"password": {"correct-horse-battery"},
	})
	if err != nil {
		t.Fatalf("login member: %v", err)
	}
	resp.Body.Close()
	resp, err = client.Get(srv.URL + "/admin/users")
	if err != nil {
		t.Fatalf("GET /admin/users as member: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("member: expected 403, got %d", resp.StatusCode)
	}

	// Staff see the list.
	staff := newClient(t)
	resp, err = staff.PostForm(srv.URL+"/accounts/login", url.Values{
		"email":    {"staff@example.com"},
		"password": {"correct-horse-battery"},
	})
	if err != nil {
		t.Fatalf("login staff: %v", err)
	}
	resp.Body.Close()
	resp, err = staff.Get(srv.URL + "/admin/users")
	if err != nil {
		t.Fatalf("GET /admin/users as staff: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("staff: expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "member@example.com") {
		t.Fatal("user list should include all accounts")
	}
}

func TestIntegration_AdminEditViewTierGated(t *testing.T) {
	srv, ts := newTestServer(t)

	createActiveUser(t, ts, "staff@example.com", service.WithStaff(true))
	su, err := ts.accounts.CreateUser(context.Background(), "root@example.com", "Root", "User", "correct-horse-battery",
		service.WithStaff(true), service.WithSuperuser(true))
	if err != nil {
		t.Fatalf("CreateUser superuser: %v", err)
	}

	staff := newClient(t)
	resp, err := staff.PostForm(srv.URL+"/accounts/login", url.Values{
		"email":    {"staff@example.com"},
		"password": {"correct-horse-battery"},
	})
	if err != nil {
		t.Fatalf("login staff: %v", err)
	}
	resp.Body.Close()

	// A staff operator never receives the edit form for a superuser.
	resp, err = staff.Get(srv.URL + "/admin/users/" + strconv.FormatInt(su.ID, 10))
	if err != nil {
		t.Fatalf("GET superuser edit view: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("edit view for superuser: expected 403, got %d", resp.StatusCode)
	}
	if strings.Contains(string(body), `<form method="post" action="/admin/users/`) {
		t.Fatal("response must not carry an editable admin form")
	}
}

func TestIntegration_AdminSearchStreamsRows(t *testing.T) {
	srv, ts := newTestServer(t)

	createActiveUser(t, ts, "alice@example.com")
	createActiveUser(t, ts, "bob@example.com")
	createActiveUser(t, ts, "staff@example.com", service.WithStaff(true))

	staff := newClient(t)
	resp, err := staff.PostForm(srv.URL+"/accounts/login", url.Values{
		"email":    {"staff@example.com"},
		"password": {"correct-horse-battery"},
	})
	if err != nil {
		t.Fatalf("login staff: %v", err)
	}
	resp.Body.Close()

	resp, err = staff.Get(srv.URL + "/admin/users/search?q=alice")
	if err != nil {
		t.Fatalf("GET /admin/users/search: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search: expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Fatalf("search should stream SSE, got content type %q", ct)
	}
	if !strings.Contains(string(body), "alice@example.com") {
		t.Fatal("search results should include the match")
	}
	if strings.Contains(string(body), "bob@example.com") {
		t.Fatal("search results should exclude non-matches")
	}
}
