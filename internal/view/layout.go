package view

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/giftwell/accounts/internal/domain"
	"github.com/giftwell/accounts/internal/form"
)

// layout wraps page body markup in the shared document shell with the
// top navigation. A nil user renders the signed-out navigation.
func layout(title string, user *domain.User, body string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!doctype html><html lang="en"><head><meta charset="utf-8">`)
		b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		b.WriteString(`<title>` + templ.EscapeString(title) + ` | GiftWell</title>`)
		b.WriteString(`<link rel="stylesheet" href="/static/app.css">`)
		b.WriteString(`<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0-RC.3/bundles/datastar.js"></script>`)
		b.WriteString(`</head><body><nav class="topnav"><a class="brand" href="/">GiftWell</a><div class="nav-links">`)
		if user != nil {
			if user.IsStaff {
				b.WriteString(`<a href="/admin/users">Admin</a>`)
			}
			b.WriteString(`<a href="/accounts/profile">` + templ.EscapeString(user.Email) + `</a>`)
			b.WriteString(`<form class="inline" method="post" action="/accounts/logout"><button type="submit">Log out</button></form>`)
		} else {
			b.WriteString(`<a href="/accounts/login">Log in</a>`)
			b.WriteString(`<a href="/accounts/register">Register</a>`)
		}
		b.WriteString(`</div></nav><main class="content">`)
		b.WriteString(body)
		b.WriteString(`</main></body></html>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

// fieldError appends the error paragraph for one form field, if any.
func fieldError(b *strings.Builder, errs form.Errors, field string) {
	if msg, ok := errs[field]; ok {
		b.WriteString(`<p class="field-error">` + templ.EscapeString(msg) + `</p>`)
	}
}

// formError appends the non-field error paragraph, if any.
func formError(b *strings.Builder, errs form.Errors) {
	if msg, ok := errs["__all__"]; ok {
		b.WriteString(`<p class="form-error">` + templ.EscapeString(msg) + `</p>`)
	}
}

func textInput(b *strings.Builder, typ, name, label, value string, errs form.Errors) {
	b.WriteString(`<label for="id_` + name + `">` + templ.EscapeString(label) + `</label>`)
	b.WriteString(`<input type="` + typ + `" id="id_` + name + `" name="` + name + `" value="` + templ.EscapeString(value) + `">`)
	fieldError(b, errs, name)
}

func passwordInput(b *strings.Builder, name, label string, errs form.Errors) {
	b.WriteString(`<label for="id_` + name + `">` + templ.EscapeString(label) + `</label>`)
	b.WriteString(`<input type="password" id="id_` + name + `" name="` + name + `">`)
	fieldError(b, errs, name)
}

// HomePage renders the landing page.
func HomePage(user *domain.User) templ.Component {
	var b strings.Builder
	b.WriteString(`<h1>GiftWell</h1>`)
	if user != nil {
		b.WriteString(`<p>Welcome back, ` + templ.EscapeString(user.ShortName()) + `.</p>`)
		b.WriteString(`<p><a href="/accounts/profile">Go to your profile</a></p>`)
	} else {
		b.WriteString(`<p>Track your gift lists without the spreadsheet.</p>`)
		b.WriteString(`<p><a href="/accounts/register">Create an account</a> or <a href="/accounts/login">log in</a>.</p>`)
	}
	return layout("Home", user, b.String())
}

// ErrorPage renders a standalone error page.
func ErrorPage(status int, title, message string) templ.Component {
	var b strings.Builder
	b.WriteString(`<h1>` + strconv.Itoa(status) + ` ` + templ.EscapeString(title) + `</h1>`)
	b.WriteString(`<p>` + templ.EscapeString(message) + `</p>`)
	b.WriteString(`<p><a href="/">Back to home</a></p>`)
	return layout(title, nil, b.String())
}
