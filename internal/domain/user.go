package domain

import (
	"context"
	"strings"
	"time"
)

// User represents a registered account. Email is the login identifier;
// there is no separate username.
type User struct {
	ID             int64
	Email          string
	FirstName      string
	LastName       string
	PasswordHash   string
	RequestedEmail string // in-flight email change; empty when none pending
	IsActive       bool
	IsStaff        bool
	IsSuperuser    bool
	DateJoined     time.Time
	Permissions    []string
}

// FullName returns first and last name separated by a space, trimmed.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// ShortName returns the user's first name.
func (u *User) ShortName() string {
	return u.FirstName
}

// HasPerm reports whether the user holds the given permission.
// Superusers implicitly hold every permission.
func (u *User) HasPerm(perm string) bool {
	if u.IsSuperuser {
		return true
	}
	for _, p := range u.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// HasPermissions reports whether the user holds any permission grant at all.
func (u *User) HasPermissions() bool {
	return len(u.Permissions) > 0
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// EmailTaken reports whether any user owns the email, case-insensitively.
	EmailTaken(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, user *User) error
	ReplacePermissions(ctx context.Context, userID int64, perms []string) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]User, error)
	Search(ctx context.Context, query string) ([]User, error)
}
