package view

import (
	"strings"

	"github.com/a-h/templ"

	"github.com/giftwell/accounts/internal/domain"
	"github.com/giftwell/accounts/internal/form"
)

// PasswordChangePage renders the authenticated password change form.
func PasswordChangePage(user *domain.User, errs form.Errors) templ.Component {
	var b strings.Builder
	b.WriteString(`<h1>Change password</h1>`)
	b.WriteString(`<form method="post" action="/accounts/password_change">`)
	formError(&b, errs)
	passwordInput(&b, "old_password", "Current password", errs)
	passwordInput(&b, "new_password1", "New password", errs)
	passwordInput(&b, "new_password2", "New password confirmation", errs)
	b.WriteString(`<button type="submit">Change password</button></form>`)
	return layout("Change password", user, b.String())
}

// PasswordChangeDonePage confirms a completed password change.
func PasswordChangeDonePage(user *domain.User) templ.Component {
	var b strings.Builder
	b.WriteString(`<h1>Password changed</h1>`)
	b.WriteString(`<p>Your password was updated.</p>`)
	b.WriteString(`<p><a href="/accounts/profile">Back to profile</a></p>`)
	return layout("Password changed", user, b.String())
}

// PasswordResetPage renders the forgotten-password request form.
func PasswordResetPage(f form.PasswordReset, errs form.Errors) templ.Component {
	var b strings.Builder
	b.WriteString(`<h1>Reset your password</h1>`)
	b.WriteString(`<p>Enter the address you signed up with and we will mail you a reset link.</p>`)
	b.WriteString(`<form method="post" action="/accounts/password_reset">`)
	formError(&b, errs)
	textInput(&b, "email", "email", "Email", f.Email, errs)
	b.WriteString(`<button type="submit">Send reset link</button></form>`)
	return layout("Password reset", nil, b.String())
}

// PasswordResetSentPage is shown after every reset request, whether or
// not the address exists.
func PasswordResetSentPage() templ.Component {
	var b strings.Builder
	b.WriteString(`<h1>Check your inbox</h1>`)
	b.WriteString(`<p>If an account exists for that address, a reset link is on its way.</p>`)
	return layout("Password reset sent", nil, b.String())
}

// PasswordResetConfirmPage renders the new-password form behind a valid
// reset link. The uid and token ride along in the form action.
func PasswordResetConfirmPage(uid, token string, errs form.Errors) templ.Component {
	var b strings.Builder
	b.WriteString(`<h1>Choose a new password</h1>`)
	action := "/accounts/reset/" + templ.EscapeString(uid) + "/" + templ.EscapeString(token)
	b.WriteString(`<form method="post" action="` + action + `">`)
	formError(&b, errs)
	passwordInput(&b, "new_password1", "New password", errs)
	passwordInput(&b, "new_password2", "New password confirmation", errs)
	b.WriteString(`<button type="submit">Set password</button></form>`)
	return layout("Set new password", nil, b.String())
}

// PasswordResetDonePage confirms a completed reset.
func PasswordResetDonePage() templ.Component {
	var b strings.Builder
	b.WriteString(`<h1>Password reset complete</h1>`)
	b.WriteString(`<p>Your password is set. <a href="/accounts/login">Log in</a> with the new one.</p>`)
	return layout("Password reset complete", nil, b.String())
}
