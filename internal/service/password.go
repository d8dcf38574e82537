package service

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/giftwell/accounts/internal/domain"
)

// PasswordValidator checks a candidate password, optionally against the
// user it belongs to. Validators are pluggable; the default set mirrors
// the usual minimum-length / numeric / common / similarity checks.
type PasswordValidator interface {
	Validate(password string, user *domain.User) error
}

// PasswordPolicy runs each validator in order and returns the first failure.
type PasswordPolicy []PasswordValidator

func (p PasswordPolicy) Validate(password string, user *domain.User) error {
	for _, v := range p {
		if err := v.Validate(password, user); err != nil {
			return err
		}
	}
	return nil
}

// DefaultPasswordPolicy returns the standard validator set.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinimumLength{Min: 8},
		NotNumeric{},
		NotCommon{},
		NotSimilar{},
	}
}

// MinimumLength rejects passwords shorter than Min characters.
type MinimumLength struct {
	Min int
}

func (v MinimumLength) Validate(password string, _ *domain.User) error {
	if len(password) < v.Min {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, v.Min)
	}
	return nil
}

// NotNumeric rejects passwords made up entirely of digits.
type NotNumeric struct{}

func (NotNumeric) Validate(password string, _ *domain.User) error {
	if password == "" {
		return nil
	}
	for _, r := range password {
		if !unicode.IsDigit(r) {
			return nil
		}
	}
	return fmt.Errorf("%w: password cannot be entirely numeric", domain.ErrInvalidInput)
}

// commonPasswords is a deliberately small embedded list; deployments that
// want a larger corpus can swap in their own NotCommon-style validator.
var commonPasswords = map[string]struct{}{
	"password":   {},
	"password1":  {},
	"12345678":   {},
	"123456789":  {},
	"qwertyuiop": {},
	"iloveyou":   {},
	"letmein":    {},
	"admin123":   {},
	"welcome1":   {},
	"sunshine":   {},
	"princess":   {},
	"dragon123":  {},
}

// NotCommon rejects passwords from the common-password list.
type NotCommon struct{}

func (NotCommon) Validate(password string, _ *domain.User) error {
	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		return fmt.Errorf("%w: password is too common", domain.ErrInvalidInput)
	}
	return nil
}

// NotSimilar rejects passwords that contain, or are contained in, the
// user's email, email local part, or names.
type NotSimilar struct{}

func (NotSimilar) Validate(password string, user *domain.User) error {
	if user == nil || password == "" {
		return nil
	}

	attrs := []string{user.Email, user.FirstName, user.LastName}
	if local, _, ok := strings.Cut(user.Email, "@"); ok {
		attrs = append(attrs, local)
	}

	lower := strings.ToLower(password)
	for _, attr := range attrs {
		attr = strings.ToLower(strings.TrimSpace(attr))
		if len(attr) < 3 {
			continue
		}
		if strings.Contains(lower, attr) || strings.Contains(attr, lower) {
			return fmt.Errorf("%w: password is too similar to your personal information", domain.ErrInvalidInput)
		}
	}
	return nil
}
