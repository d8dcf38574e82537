package view

import (
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/giftwell/accounts/internal/domain"
)

// AdminUsersPage renders the console user list with the live search box.
// Typing re-queries the server and swaps the table body over SSE.
func AdminUsersPage(actor *domain.User, users []domain.User) templ.Component {
	var b strings.Builder
	b.WriteString(`<h1>Users</h1>`)
	b.WriteString(`<p><a href="/admin/users/new">Add user</a></p>`)
	b.WriteString(`<div data-signals-q="''">`)
	b.WriteString(`<input type="search" placeholder="Search by email or name" data-bind-q ` +
		`data-on-input__debounce.300ms="@get('/admin/users/search?q='+$q)">`)
	b.WriteString(`</div>`)
	b.WriteString(`<table class="user-table"><thead><tr>` +
		`<th>Email</th><th>Name</th><th>Active</th><th>Staff</th><th>Superuser</th><th>Joined</th>` +
		`</tr></thead><tbody id="admin-user-rows">`)
	b.WriteString(userRows(users))
	b.WriteString(`</tbody></table>`)
	return layout("Users", actor, b.String())
}

// AdminUserRowsFragment is the table body swapped in by the live search.
func AdminUserRowsFragment(users []domain.User) templ.Component {
	var b strings.Builder
	b.WriteString(`<tbody id="admin-user-rows">`)
	b.WriteString(userRows(users))
	b.WriteString(`</tbody>`)
	return templ.Raw(b.String())
}

func userRows(users []domain.User) string {
	var b strings.Builder
	if len(users) == 0 {
		b.WriteString(`<tr><td colspan="6">No users found.</td></tr>`)
		return b.String()
	}
	for _, u := range users {
		href := "/admin/users/" + strconv.FormatInt(u.ID, 10)
		b.WriteString(`<tr>`)
		b.WriteString(`<td><a href="` + href + `">` + templ.EscapeString(u.Email) + `</a></td>`)
		b.WriteString(`<td>` + templ.EscapeString(u.FullName()) + `</td>`)
		b.WriteString(`<td>` + boolMark(u.IsActive) + `</td>`)
		b.WriteString(`<td>` + boolMark(u.IsStaff) + `</td>`)
		b.WriteString(`<td>` + boolMark(u.IsSuperuser) + `</td>`)
		b.WriteString(`<td>` + u.DateJoined.Format("2006-01-02") + `</td>`)
		b.WriteString(`</tr>`)
	}
	return b.String()
}

func boolMark(v bool) string {
	if v {
		return `<span class="yes">yes</span>`
	}
	return `<span class="no">no</span>`
}

// AdminUserFormPage renders the create and edit forms. A nil target
// means the create form. Tier fields render disabled for non-superuser
// actors; the server strips them regardless.
func AdminUserFormPage(actor, target *domain.User, errMsg string) templ.Component {
	var b strings.Builder

	action := "/admin/users/new"
	title := "Add user"
	if target != nil {
		action = "/admin/users/" + strconv.FormatInt(target.ID, 10)
		title = "Edit " + target.Email
	}

	b.WriteString(`<h1>` + templ.EscapeString(title) + `</h1>`)
	if errMsg != "" {
		b.WriteString(`<p class="form-error">` + templ.EscapeString(errMsg) + `</p>`)
	}
	b.WriteString(`<form method="post" action="` + templ.EscapeString(action) + `">`)

	var email, first, last, perms string
	var active, staff, superuser bool
	active = true
	if target != nil {
		email, first, last = target.Email, target.FirstName, target.LastName
		active, staff, superuser = target.IsActive, target.IsStaff, target.IsSuperuser
		perms = strings.Join(target.Permissions, "\n")
	}

	textInput(&b, "email", "email", "Email", email, nil)
	textInput(&b, "text", "first_name", "First name", first, nil)
	textInput(&b, "text", "last_name", "Last name", last, nil)
	passwordLabel := "Password"
	if target != nil {
		passwordLabel = "New password (leave blank to keep)"
	}
	passwordInput(&b, "new_password", passwordLabel, nil)

	checkbox(&b, "is_active", "Active", active, false)
	tierDisabled := !actor.IsSuperuser
	checkbox(&b, "is_staff", "Staff", staff, tierDisabled)
	checkbox(&b, "is_superuser", "Superuser", superuser, tierDisabled)

	b.WriteString(`<label for="id_permissions">Permissions (one per line)</label>`)
	b.WriteString(`<textarea id="id_permissions" name="permissions"`)
	if tierDisabled {
		b.WriteString(` disabled`)
	}
	b.WriteString(`>` + templ.EscapeString(perms) + `</textarea>`)

	b.WriteString(`<button type="submit">Save</button></form>`)

	if target != nil {
		b.WriteString(`<form method="post" action="` + templ.EscapeString(action) + `/delete" ` +
			`onsubmit="return confirm('Delete this user?')">`)
		b.WriteString(`<button type="submit" class="danger">Delete user</button></form>`)
	}
	b.WriteString(`<p><a href="/admin/users">Back to user list</a></p>`)
	return layout(title, actor, b.String())
}

func checkbox(b *strings.Builder, name, label string, checked, disabled bool) {
	b.WriteString(`<label class="check"><input type="checkbox" name="` + name + `" value="on"`)
	if checked {
		b.WriteString(` checked`)
	}
	if disabled {
		b.WriteString(` disabled`)
	}
	b.WriteString(`> ` + templ.EscapeString(label) + `</label>`)
}
