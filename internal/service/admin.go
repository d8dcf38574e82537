package service

import (
	"context"

	"github.com/giftwell/accounts/internal/domain"
)

// Privileged field names, as stripped from non-superuser admin edits.
const (
	FieldIsStaff     = "is_staff"
	FieldIsSuperuser = "is_superuser"
	FieldPermissions = "permissions"
)

// AdminService enforces the tiered rules of the admin console. The
// read-only-field list and the change-permission check are deliberately
// independent: either alone blocks a privilege escalation.
type AdminService struct {
	users    domain.UserRepository
	accounts *AccountService
}

// NewAdminService creates a new AdminService.
func NewAdminService(users domain.UserRepository, accounts *AccountService) *AdminService {
	return &AdminService{users: users, accounts: accounts}
}

// CanAccess reports whether the actor may use the admin console at all.
func (s *AdminService) CanAccess(actor *domain.User) bool {
	return actor != nil && actor.IsActive && actor.IsStaff
}

// ReadOnlyFields lists the fields the actor may not edit on any account.
// Non-superusers never touch the authorization tier.
func (s *AdminService) ReadOnlyFields(actor *domain.User) []string {
	if actor.IsSuperuser {
		return nil
	}
	return []string{FieldIsStaff, FieldIsSuperuser, FieldPermissions}
}

// CanChange reports whether the actor may modify the target account.
// A non-superuser may edit their own record and unprivileged accounts,
// but never a superuser or any permission-bearing account.
func (s *AdminService) CanChange(actor, target *domain.User) bool {
	if actor.IsSuperuser {
		return true
	}
	if target.ID == actor.ID {
		return true
	}
	if target.IsSuperuser || target.HasPermissions() {
		return false
	}
	return true
}

// UserEdit carries an admin form submission. Privileged fields are
// discarded for non-superuser actors regardless of what was posted.
type UserEdit struct {
	Email       string
	FirstName   string
	LastName    string
	IsActive    bool
	IsStaff     bool
	IsSuperuser bool
	Permissions []string
	NewPassword string // optional; empty leaves the password untouched
}

// ListUsers returns all accounts for the console list view.
func (s *AdminService) ListUsers(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if !s.CanAccess(actor) {
		return nil, domain.ErrForbidden
	}
	return s.users.List(ctx)
}

// SearchUsers filters accounts by email or name fragment.
func (s *AdminService) SearchUsers(ctx context.Context, actor *domain.User, query string) ([]domain.User, error) {
	if !s.CanAccess(actor) {
		return nil, domain.ErrForbidden
	}
	if query == "" {
		return s.users.List(ctx)
	}
	return s.users.Search(ctx, query)
}

// GetUser loads an account for the edit view. The change permission
// gates the view itself: an operator who may not modify the target does
// not get its form at all.
func (s *AdminService) GetUser(ctx context.Context, actor *domain.User, id int64) (*domain.User, error) {
	if !s.CanAccess(actor) {
		return nil, domain.ErrForbidden
	}
	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.CanChange(actor, target) {
		return nil, domain.ErrForbidden
	}
	return target, nil
}

// CreateUser creates an account from the console. Admin-created accounts
// default to active; tier fields require a superuser actor.
func (s *AdminService) CreateUser(ctx context.Context, actor *domain.User, edit UserEdit) (*domain.User, error) {
	if !s.CanAccess(actor) {
		return nil, domain.ErrForbidden
	}

	opts := []UserOption{WithActive(edit.IsActive)}
	if actor.IsSuperuser {
		opts = append(opts,
			WithStaff(edit.IsStaff),
			WithSuperuser(edit.IsSuperuser),
			WithPermissions(edit.Permissions...),
		)
	}

	return s.accounts.CreateUser(ctx, edit.Email, edit.FirstName, edit.LastName, edit.NewPassword, opts...)
}

// UpdateUser applies an admin edit to the target account. The change
// permission is checked first; privileged fields are then stripped for
// non-superusers even if the earlier gate were bypassed.
func (s *AdminService) UpdateUser(ctx context.Context, actor *domain.User, targetID int64, edit UserEdit) (*domain.User, error) {
	if !s.CanAccess(actor) {
		return nil, domain.ErrForbidden
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if !s.CanChange(actor, target) {
		return nil, domain.ErrForbidden
	}

	target.Email = NormalizeEmail(edit.Email)
	target.FirstName = edit.FirstName
	target.LastName = edit.LastName
	target.IsActive = edit.IsActive

	readOnly := map[string]bool{}
	for _, f := range s.ReadOnlyFields(actor) {
		readOnly[f] = true
	}
	if !readOnly[FieldIsStaff] {
		target.IsStaff = edit.IsStaff
	}
	if !readOnly[FieldIsSuperuser] {
		target.IsSuperuser = edit.IsSuperuser
	}

	if edit.NewPassword != "" {
		hash, err := s.accounts.hashPassword(edit.NewPassword)
		if err != nil {
			return nil, err
		}
		target.PasswordHash = hash
	}

	if err := s.users.Update(ctx, target); err != nil {
		return nil, err
	}

	if !readOnly[FieldPermissions] {
		if err := s.users.ReplacePermissions(ctx, target.ID, edit.Permissions); err != nil {
			return nil, err
		}
		target.Permissions = edit.Permissions
	}

	return target, nil
}

// DeleteUser removes an account from the console, under the same tier
// rules as editing.
func (s *AdminService) DeleteUser(ctx context.Context, actor *domain.User, targetID int64) error {
	if !s.CanAccess(actor) {
		return domain.ErrForbidden
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if !s.CanChange(actor, target) {
		return domain.ErrForbidden
	}

	return s.users.Delete(ctx, targetID)
}
