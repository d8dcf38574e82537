// Package form parses and validates the account POST forms. Validation
// failures are reported per field so handlers can re-render the form with
// inline errors; nothing here touches persistence.
package form

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Errors maps a field name to its validation message.
type Errors map[string]string

// Has reports whether any field failed validation.
func (e Errors) Has() bool { return len(e) > 0 }

// Add records a message for a field, keeping the first one.
func (e Errors) Add(field, message string) {
	if _, ok := e[field]; !ok {
		e[field] = message
	}
}

// Register is the self-service registration form.
type Register struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
}

func ParseRegister(r *http.Request) Register {
	return Register{
		Email:     r.PostFormValue("email"),
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
		Password1: r.PostFormValue("password1"),
		Password2: r.PostFormValue("password2"),
	}
}

func (f Register) Validate() Errors {
	err := validation.ValidateStruct(&f,
		validation.Field(&f.Email, validation.Required, validation.Length(3, 255), is.Email),
		validation.Field(&f.FirstName, validation.Required, validation.Length(1, 30)),
		validation.Field(&f.LastName, validation.Required, validation.Length(1, 30)),
		validation.Field(&f.Password1, validation.Required),
		validation.Field(&f.Password2,
			validation.Required,
			validation.By(stringEquals(f.Password1, "Passwords don't match")),
		),
	)
	return toErrors(err)
}

// Login is the email-as-identifier login form.
type Login struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func ParseLogin(r *http.Request) Login {
	return Login{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
}

func (f Login) Validate() Errors {
	err := validation.ValidateStruct(&f,
		validation.Field(&f.Email, validation.Required, is.Email),
		validation.Field(&f.Password, validation.Required),
	)
	return toErrors(err)
}

// Profile edits the user's own display fields. Email is never editable here.
type Profile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func ParseProfile(r *http.Request) Profile {
	return Profile{
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
	}
}

func (f Profile) Validate() Errors {
	err := validation.ValidateStruct(&f,
		validation.Field(&f.FirstName, validation.Required, validation.Length(1, 30)),
		validation.Field(&f.LastName, validation.Required, validation.Length(1, 30)),
	)
	return toErrors(err)
}

// EmailChange requests a new address; the swap happens after verification.
type EmailChange struct {
	RequestedEmail string `json:"requested_email"`
}

func ParseEmailChange(r *http.Request) EmailChange {
	return EmailChange{RequestedEmail: r.PostFormValue("requested_email")}
}

func (f EmailChange) Validate() Errors {
	err := validation.ValidateStruct(&f,
		validation.Field(&f.RequestedEmail, validation.Required, validation.Length(3, 255), is.Email),
	)
	return toErrors(err)
}

// PasswordChange changes the password of an authenticated user.
type PasswordChange struct {
	OldPassword  string `json:"old_password"`
	NewPassword1 string `json:"new_password1"`
	NewPassword2 string `json:"new_password2"`
}

func ParsePasswordChange(r *http.Request) PasswordChange {
	return PasswordChange{
		OldPassword:  r.PostFormValue("old_password"),
		NewPassword1: r.PostFormValue("new_password1"),
		NewPassword2: r.PostFormValue("new_password2"),
	}
}

func (f PasswordChange) Validate() Errors {
	err := validation.ValidateStruct(&f,
		validation.Field(&f.OldPassword, validation.Required),
		validation.Field(&f.NewPassword1, validation.Required),
		validation.Field(&f.NewPassword2,
			validation.Required,
			validation.By(stringEquals(f.NewPassword1, "Passwords don't match")),
		),
	)
	return toErrors(err)
}

// PasswordReset requests a reset link by email.
type PasswordReset struct {
	Email string `json:"email"`
}

func ParsePasswordReset(r *http.Request) PasswordReset {
	return PasswordReset{Email: r.PostFormValue("email")}
}

func (f PasswordReset) Validate() Errors {
	err := validation.ValidateStruct(&f,
		validation.Field(&f.Email, validation.Required, is.Email),
	)
	return toErrors(err)
}

// SetPassword sets a new password from a reset link.
type SetPassword struct {
	NewPassword1 string `json:"new_password1"`
	NewPassword2 string `json:"new_password2"`
}

func ParseSetPassword(r *http.Request) SetPassword {
	return SetPassword{
		NewPassword1: r.PostFormValue("new_password1"),
		NewPassword2: r.PostFormValue("new_password2"),
	}
}

func (f SetPassword) Validate() Errors {
	err := validation.ValidateStruct(&f,
		validation.Field(&f.NewPassword1, validation.Required),
		validation.Field(&f.NewPassword2,
			validation.Required,
			validation.By(stringEquals(f.NewPassword1, "Passwords don't match")),
		),
	)
	return toErrors(err)
}

func stringEquals(expected, message string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != expected {
			return errors.New(message)
		}
		return nil
	}
}

func toErrors(err error) Errors {
	if err == nil {
		return Errors{}
	}

	out := Errors{}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		for field, ferr := range fieldErrs {
			out[field] = ferr.Error()
		}
		return out
	}

	out["__all__"] = err.Error()
	return out
}
