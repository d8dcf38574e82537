package view

import (
	"strings"

	"github.com/a-h/templ"

	"github.com/giftwell/accounts/internal/domain"
	"github.com/giftwell/accounts/internal/form"
)

// LoginPage renders the login form. The email field is re-filled on a
// failed attempt; the password never is.
func LoginPage(f form.Login, errs form.Errors) templ.Component {
	var b strings.Builder
	b.WriteString(`<h1>Log in</h1>`)
	b.WriteString(`<form method="post" action="/accounts/login">`)
	formError(&b, errs)
	textInput(&b, "email", "email", "Email", f.Email, errs)
	passwordInput(&b, "password", "Password", errs)
	b.WriteString(`<button type="submit">Log in</button></form>`)
	b.WriteString(`<p><a href="/accounts/password_reset">Forgot your password?</a></p>`)
	return layout("Log in", nil, b.String())
}

// RegisterPage renders the registration form.
func RegisterPage(f form.Register, errs form.Errors) templ.Component {
	var b strings.Builder
	b.WriteString(`<h1>Create an account</h1>`)
	b.WriteString(`<form method="post" action="/accounts/register">`)
	formError(&b, errs)
	textInput(&b, "email", "email", "Email", f.Email, errs)
	textInput(&b, "text", "first_name", "First name", f.FirstName, errs)
	textInput(&b, "text", "last_name", "Last name", f.LastName, errs)
	passwordInput(&b, "password1", "Password", errs)
	passwordInput(&b, "password2", "Password confirmation", errs)
	b.WriteString(`<button type="submit">Register</button></form>`)
	return layout("Register", nil, b.String())
}

// RegisterDonePage confirms that the activation mail went out.
func RegisterDonePage(email string) templ.Component {
	var b strings.Builder
	b.WriteString(`<h1>Check your inbox</h1>`)
	b.WriteString(`<p>We sent an activation link to <strong>` + templ.EscapeString(email) + `</strong>.`)
	b.WriteString(` Your account stays inactive until you follow it.</p>`)
	return layout("Registration complete", nil, b.String())
}

// ActivationDonePage confirms a successful activation.
func ActivationDonePage() templ.Component {
	var b strings.Builder
	b.WriteString(`<h1>Account activated</h1>`)
	b.WriteString(`<p>Your account is active. <a href="/accounts/login">Log in</a> to get started.</p>`)
	return layout("Account activated", nil, b.String())
}

// InvalidLinkPage is shown for any expired or tampered confirmation link.
func InvalidLinkPage(message string) templ.Component {
	var b strings.Builder
	b.WriteString(`<h1>Invalid link</h1>`)
	b.WriteString(`<p>` + templ.EscapeString(message) + `</p>`)
	b.WriteString(`<p><a href="/">Back to home</a></p>`)
	return layout("Invalid link", nil, b.String())
}

// ProfilePage renders the signed-in user's profile overview.
func ProfilePage(user *domain.User) templ.Component {
	var b strings.Builder
	b.WriteString(`<h1>Your profile</h1><dl class="profile">`)
	b.WriteString(`<dt>Name</dt><dd>` + templ.EscapeString(user.FullName()) + `</dd>`)
	b.WriteString(`<dt>Email</dt><dd>` + templ.EscapeString(user.Email) + `</dd>`)
	if user.RequestedEmail != "" {
		b.WriteString(`<dt>Pending email</dt><dd>` + templ.EscapeString(user.RequestedEmail) + ` (awaiting verification)</dd>`)
	}
	b.WriteString(`<dt>Joined</dt><dd>` + templ.EscapeString(user.DateJoined.Format("January 2, 2006")) + `</dd>`)
	b.WriteString(`</dl><ul class="actions">`)
	b.WriteString(`<li><a href="/accounts/profile/edit">Edit profile</a></li>`)
	b.WriteString(`<li><a href="/accounts/password_change">Change password</a></li>`)
	b.WriteString(`<li><a href="/accounts/delete">Delete account</a></li>`)
	b.WriteString(`</ul>`)
	return layout("Profile", user, b.String())
}

// ProfileEditPage renders the name-editing form together with the
// email-change form, mirroring the profile edit screen.
func ProfileEditPage(user *domain.User, f form.Profile, errs form.Errors) templ.Component {
	var b strings.Builder
	b.WriteString(`<h1>Edit profile</h1>`)
	b.WriteString(`<form method="post" action="/accounts/profile/edit">`)
	formError(&b, errs)
	textInput(&b, "text", "first_name", "First name", f.FirstName, errs)
	textInput(&b, "text", "last_name", "Last name", f.LastName, errs)
	b.WriteString(`<button type="submit">Save</button></form>`)
	b.WriteString(emailChangeSection(user, form.EmailChange{}, nil))
	return layout("Edit profile", user, b.String())
}

// EmailChangePage re-renders the profile edit screen with email-change
// form errors attached.
func EmailChangePage(user *domain.User, f form.EmailChange, errs form.Errors) templ.Component {
	var b strings.Builder
	b.WriteString(`<h1>Edit profile</h1>`)
	b.WriteString(`<form method="post" action="/accounts/profile/edit">`)
	textInput(&b, "text", "first_name", "First name", user.FirstName, nil)
	textInput(&b, "text", "last_name", "Last name", user.LastName, nil)
	b.WriteString(`<button type="submit">Save</button></form>`)
	b.WriteString(emailChangeSection(user, f, errs))
	return layout("Edit profile", user, b.String())
}

func emailChangeSection(user *domain.User, f form.EmailChange, errs form.Errors) string {
	var b strings.Builder
	b.WriteString(`<h2>Change email</h2>`)
	b.WriteString(`<p>Current address: <strong>` + templ.EscapeString(user.Email) + `</strong></p>`)
	if user.RequestedEmail != "" {
		b.WriteString(`<p class="notice">A verification mail is pending for ` + templ.EscapeString(user.RequestedEmail) + `.</p>`)
	}
	b.WriteString(`<form method="post" action="/accounts/profile/edit/update-email">`)
	formError(&b, errs)
	textInput(&b, "email", "requested_email", "New email", f.RequestedEmail, errs)
	b.WriteString(`<button type="submit">Send verification mail</button></form>`)
	return b.String()
}

// EmailChangeSentPage confirms the verification mail went to the new address.
func EmailChangeSentPage(user *domain.User, requested string) templ.Component {
	var b strings.Builder
	b.WriteString(`<h1>Verify your new address</h1>`)
	b.WriteString(`<p>We sent a verification link to <strong>` + templ.EscapeString(requested) + `</strong>.`)
	b.WriteString(` Your address stays <strong>` + templ.EscapeString(user.Email) + `</strong> until you follow it.</p>`)
	b.WriteString(`<p><a href="/accounts/profile">Back to profile</a></p>`)
	return layout("Verification sent", user, b.String())
}

// EmailVerifiedPage confirms a completed email change.
func EmailVerifiedPage(user *domain.User) templ.Component {
	var b strings.Builder
	b.WriteString(`<h1>Email updated</h1>`)
	b.WriteString(`<p>Your sign-in address is now <strong>` + templ.EscapeString(user.Email) + `</strong>.</p>`)
	b.WriteString(`<p><a href="/accounts/profile">Back to profile</a></p>`)
	return layout("Email updated", user, b.String())
}

// DeleteAccountPage renders the deletion confirmation form.
func DeleteAccountPage(user *domain.User, errs form.Errors) templ.Component {
	var b strings.Builder
	b.WriteString(`<h1>Delete account</h1>`)
	b.WriteString(`<p>This permanently removes your account and everything attached to it. There is no undo.</p>`)
	b.WriteString(`<form method="post" action="/accounts/delete">`)
	formError(&b, errs)
	textInput(&b, "text", "confirm", "Type DELETE to confirm", "", errs)
	b.WriteString(`<button type="submit" class="danger">Delete my account</button></form>`)
	b.WriteString(`<p><a href="/accounts/profile">Never mind, back to profile</a></p>`)
	return layout("Delete account", user, b.String())
}
