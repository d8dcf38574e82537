package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/giftwell/accounts/internal/domain"
	"github.com/giftwell/accounts/internal/service"
)

func newSuperuser(t *testing.T, env *testEnv, email string) *domain.User {
	t.Helper()
	su, err := env.accounts.CreateSuperuser(context.Background(), email, "Super", "User", "a-fine-password")
	if err != nil {
		t.Fatalf("CreateSuperuser: %v", err)
	}
	return su
}

func newStaff(t *testing.T, env *testEnv, email string) *domain.User {
	t.Helper()
	staff, err := env.accounts.CreateUser(context.Background(), email, "Staff", "User", "a-fine-password", service.WithStaff(true))
	if err != nil {
		t.Fatalf("CreateUser staff: %v", err)
	}
	return staff
}

func TestAdmin_CanAccess(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		actor *domain.User
		want  bool
	}{
		{"nil", nil, false},
		{"regular", &domain.User{IsActive: true}, false},
		{"inactive staff", &domain.User{IsStaff: true}, false},
		{"staff", &domain.User{IsActive: true, IsStaff: true}, true},
		{"superuser", &domain.User{IsActive: true, IsStaff: true, IsSuperuser: true}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := env.admin.CanAccess(tc.actor); got != tc.want {
				t.Fatalf("CanAccess = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAdmin_ReadOnlyFields(t *testing.T) {
	env := newTestEnv(t)

	su := &domain.User{IsSuperuser: true}
	if fields := env.admin.ReadOnlyFields(su); len(fields) != 0 {
		t.Fatalf("expected no read-only fields for superuser, got %v", fields)
	}

	staff := &domain.User{IsStaff: true}
	fields := env.admin.ReadOnlyFields(staff)
	want := map[string]bool{
		service.FieldIsStaff:     true,
		service.FieldIsSuperuser: true,
		service.FieldPermissions: true,
	}
	if len(fields) != len(want) {
		t.Fatalf("expected %d read-only fields, got %v", len(want), fields)
	}
	for _, f := range fields {
		if !want[f] {
			t.Fatalf("unexpected read-only field %q", f)
		}
	}
}

func TestAdmin_CanChange(t *testing.T) {
	env := newTestEnv(t)

	su := &domain.User{ID: 1, IsStaff: true, IsSuperuser: true}
	staff := &domain.User{ID: 2, IsStaff: true}
	regular := &domain.User{ID: 3}
	granted := &domain.User{ID: 4, Permissions: []string{"accounts.view_user"}}

	tests := []struct {
		name          string
		actor, target *domain.User
		want          bool
	}{
		{"superuser edits superuser", su, &domain.User{ID: 9, IsSuperuser: true}, true},
		{"superuser edits granted", su, granted, true},
		{"staff edits regular", staff, regular, true},
		{"staff edits self", staff, staff, true},
		{"staff edits superuser", staff, su, false},
		{"staff edits granted", staff, granted, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := env.admin.CanChange(tc.actor, tc.target); got != tc.want {
				t.Fatalf("CanChange = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAdmin_GetUser_EditViewIsTierGated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	staff := newStaff(t, env, "operator@example.com")
	su := newSuperuser(t, env, "root@example.com")
	granted, err := env.accounts.CreateUser(ctx, "granted@example.com", "Granted", "User", "a-fine-password",
		service.WithPermissions("accounts.view_user"))
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	regular, err := env.accounts.CreateUser(ctx, "plain@example.com", "Plain", "User", "a-fine-password")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	// A staff operator never sees the form for privileged accounts.
	if _, err := env.admin.GetUser(ctx, staff, su.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden loading superuser edit view, got %v", err)
	}
	if _, err := env.admin.GetUser(ctx, staff, granted.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden loading permission-bearing edit view, got %v", err)
	}

	// Unprivileged targets, their own record, and everything for a
	// superuser actor stay reachable.
	if _, err := env.admin.GetUser(ctx, staff, regular.ID); err != nil {
		t.Fatalf("GetUser regular: %v", err)
	}
	if _, err := env.admin.GetUser(ctx, staff, staff.ID); err != nil {
		t.Fatalf("GetUser self: %v", err)
	}
	if _, err := env.admin.GetUser(ctx, su, granted.ID); err != nil {
		t.Fatalf("GetUser as superuser: %v", err)
	}
}

func TestAdmin_UpdateUser_StripsPrivilegedFieldsForStaff(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	staff := newStaff(t, env, "operator@example.com")
	target, err := env.accounts.CreateUser(ctx, "victim@example.com", "Plain", "User", "a-fine-password")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	updated, err := env.admin.UpdateUser(ctx, staff, target.ID, service.UserEdit{
		Email:       "victim@example.com",
		FirstName:   "Renamed",
		LastName:    "User",
		IsActive:    true,
		IsStaff:     true,
		IsSuperuser: true,
		Permissions: []string{"accounts.delete_user"},
	})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	if updated.FirstName != "Renamed" {
		t.Fatalf("expected rename applied, got %q", updated.FirstName)
	}
	if updated.IsStaff || updated.IsSuperuser {
		t.Fatal("privileged flags must be stripped for a non-superuser actor")
	}
	if len(updated.Permissions) != 0 {
		t.Fatalf("permission grant must be stripped, got %v", updated.Permissions)
	}

	stored, err := env.db.Users().GetByID(ctx, target.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.IsStaff || stored.IsSuperuser || len(stored.Permissions) != 0 {
		t.Fatalf("privilege escalation persisted: %+v", stored)
	}
}

func TestAdmin_UpdateUser_StaffCannotTouchPrivilegedAccounts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	staff := newStaff(t, env, "operator@example.com")
	su := newSuperuser(t, env, "root@example.com")
	granted, err := env.accounts.CreateUser(ctx, "granted@example.com", "Granted", "User", "a-fine-password",
		service.WithPermissions("accounts.view_user"))
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	edit := service.UserEdit{Email: "x@example.com", FirstName: "X", LastName: "Y", IsActive: true}

	if _, err := env.admin.UpdateUser(ctx, staff, su.ID, edit); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden editing superuser, got %v", err)
	}
	if _, err := env.admin.UpdateUser(ctx, staff, granted.ID, edit); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden editing permission-bearing account, got %v", err)
	}
}

func TestAdmin_UpdateUser_StaffMayEditOwnUnprivilegedFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	staff := newStaff(t, env, "self@example.com")

	updated, err := env.admin.UpdateUser(ctx, staff, staff.ID, service.UserEdit{
		Email:       "self@example.com",
		FirstName:   "Changed",
		LastName:    "Name",
		IsActive:    true,
		IsSuperuser: true, // must be ignored
	})
	if err != nil {
		t.Fatalf("UpdateUser self: %v", err)
	}
	if updated.FirstName != "Changed" {
		t.Fatalf("expected own edit applied, got %q", updated.FirstName)
	}
	if updated.IsSuperuser {
		t.Fatal("self-edit must not grant superuser")
	}
	// The staff flag is read-only for non-superusers, so it keeps its value.
	if !updated.IsStaff {
		t.Fatal("read-only is_staff must keep its stored value")
	}
}

func TestAdmin_UpdateUser_SuperuserMayGrantTier(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	su := newSuperuser(t, env, "root@example.com")
	target, err := env.accounts.CreateUser(ctx, "promote@example.com", "Pro", "Mote", "a-fine-password")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	updated, err := env.admin.UpdateUser(ctx, su, target.ID, service.UserEdit{
		Email:       "promote@example.com",
		FirstName:   "Pro",
		LastName:    "Mote",
		IsActive:    true,
		IsStaff:     true,
		Permissions: []string{"accounts.view_user", "accounts.change_user"},
	})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if !updated.IsStaff {
		t.Fatal("expected staff grant applied")
	}
	if len(updated.Permissions) != 2 {
		t.Fatalf("expected permissions applied, got %v", updated.Permissions)
	}
}

func TestAdmin_CreateUser_DefaultsActive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	staff := newStaff(t, env, "operator@example.com")

	created, err := env.admin.CreateUser(ctx, staff, service.UserEdit{
		Email:       "fresh@example.com",
		FirstName:   "Fresh",
		LastName:    "User",
		IsActive:    true,
		IsSuperuser: true, // stripped for staff actor
		NewPassword: "a-fine-password",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if !created.IsActive {
		t.Fatal("expected admin-created account active")
	}
	if created.IsSuperuser {
		t.Fatal("staff actor must not mint superusers")
	}
}

func TestAdmin_DeleteUser_TierRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	staff := newStaff(t, env, "operator@example.com")
	su := newSuperuser(t, env, "root@example.com")
	regular, err := env.accounts.CreateUser(ctx, "plain@example.com", "Plain", "User", "a-fine-password")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if err := env.admin.DeleteUser(ctx, staff, su.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden deleting superuser, got %v", err)
	}

	if err := env.admin.DeleteUser(ctx, staff, regular.ID); err != nil {
		t.Fatalf("DeleteUser regular: %v", err)
	}
	if _, err := env.db.Users().GetByID(ctx, regular.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected regular user gone, got %v", err)
	}

	if err := env.admin.DeleteUser(ctx, regular, su.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-staff actor, got %v", err)
	}
}
