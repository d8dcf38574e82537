package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/giftwell/accounts/internal/domain"
)

const userColumns = `id, email, first_name, last_name, password_hash,
	requested_email, is_active, is_staff, is_superuser, date_joined`

// UserRepository implements domain.UserRepository using SQLite.
type UserRepository struct {
	db *sql.DB
}

var _ domain.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.DateJoined.IsZero() {
		user.DateJoined = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, first_name, last_name, password_hash,
			requested_email, is_active, is_staff, is_superuser, date_joined)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Email, user.FirstName, user.LastName, user.PasswordHash,
		nullable(user.RequestedEmail), user.IsActive, user.IsStaff, user.IsSuperuser,
		user.DateJoined,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	user.ID = id

	if len(user.Permissions) > 0 {
		if err := r.ReplacePermissions(ctx, id, user.Permissions); err != nil {
			return err
		}
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, "id = ?", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "email = ?", email)
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where, arg)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	perms, err := r.permissions(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Permissions = perms
	return user, nil
}

func (r *UserRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var n int
	// The email column is COLLATE NOCASE, so equality here is case-insensitive.
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count users by email: %w", err)
	}
	return n > 0, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET email = ?, first_name = ?, last_name = ?,
			password_hash = ?, requested_email = ?, is_active = ?,
			is_staff = ?, is_superuser = ?
		 WHERE id = ?`,
		user.Email, user.FirstName, user.LastName, user.PasswordHash,
		nullable(user.RequestedEmail), user.IsActive, user.IsStaff, user.IsSuperuser,
		user.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("update user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepository) ReplacePermissions(ctx context.Context, userID int64, perms []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM user_permissions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear permissions: %w", err)
	}
	for _, p := range perms {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_permissions (user_id, permission) VALUES (?, ?)`,
			userID, p); err != nil {
			return fmt.Errorf("insert permission: %w", err)
		}
	}

	return tx.Commit()
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.selectMany(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY email`)
}

func (r *UserRepository) Search(ctx context.Context, query string) ([]domain.User, error) {
	like := "%" + query + "%"
	return r.selectMany(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE email LIKE ? OR first_name LIKE ? OR last_name LIKE ?
		 ORDER BY email`,
		like, like, like)
}

func (r *UserRepository) selectMany(ctx context.Context, query string, args ...any) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range users {
		perms, err := r.permissions(ctx, users[i].ID)
		if err != nil {
			return nil, err
		}
		users[i].Permissions = perms
	}
	return users, nil
}

func (r *UserRepository) permissions(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT permission FROM user_permissions WHERE user_id = ? ORDER BY permission`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("query permissions: %w", err)
	}
	defer rows.Close()

	var perms []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var requested sql.NullString
	err := row.Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.PasswordHash,
		&requested, &user.IsActive, &user.IsStaff, &user.IsSuperuser, &user.DateJoined,
	)
	if err != nil {
		return nil, err
	}
	user.RequestedEmail = requested.String
	return user, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// isUniqueConstraintError checks if the error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
