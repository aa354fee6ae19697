package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mattn/go-sqlite3"
	"github.com/samber/oops"

	"blog/internal/models"
)

// Registry stores and looks up user identities. It is the only component
// that writes the users table.
type Registry struct {
	db *sql.DB
}

// NewRegistry creates a Registry over an open database.
func NewRegistry(db *sql.DB) *Registry {
	return &Registry{db: db}
}

const userColumns = `id, email, name, password_hash, role, created_at`

// Register hashes rawPassword and persists a new identity. The very first
// identity in an empty registry is created with the admin role; everyone
// after that is a reader. Returns ErrDuplicateEmail if the email is taken;
// in that case no new identity is created.
func (r *Registry) Register(ctx context.Context, email, rawPassword, name string) (*models.User, error) {
	hash, err := HashPassword(rawPassword)
	if err != nil {
		return nil, err
	}
	// The role subquery runs inside the INSERT, so two concurrent first
	// registrations cannot both become admin.
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (email, name, password_hash, role)
		VALUES (?, ?, ?, CASE WHEN EXISTS (SELECT 1 FROM users) THEN 'reader' ELSE 'admin' END)`,
		email, name, hash)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, oops.Code("IDENTITY_DUPLICATE_EMAIL").Wrap(ErrDuplicateEmail)
		}
		return nil, oops.Code("IDENTITY_REGISTER_FAILED").With("email", email).Wrap(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, oops.Code("IDENTITY_REGISTER_FAILED").With("email", email).Wrap(err)
	}
	return r.ByID(ctx, id)
}

// ByEmail looks up an identity by exact email. Returns ErrNotFound if no
// identity has it.
func (r *Registry) ByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row, oops.Code("IDENTITY_GET_BY_EMAIL_FAILED").With("email", email))
}

// ByID looks up an identity by id. This is the per-request caller lookup,
// a primary-key fetch. Returns ErrNotFound if the id is unknown.
func (r *Registry) ByID(ctx context.Context, id int64) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row, oops.Code("IDENTITY_GET_BY_ID_FAILED").With("id", id))
}

// SetRole changes the role of the identity with the given email. Returns
// ErrNotFound if no such identity exists.
func (r *Registry) SetRole(ctx context.Context, email string, role models.Role) error {
	if !role.Valid() {
		return oops.Code("IDENTITY_INVALID_ROLE").Errorf("unknown role %q", role)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE users SET role = ? WHERE email = ?`, role, email)
	if err != nil {
		return oops.Code("IDENTITY_SET_ROLE_FAILED").With("email", email).Wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return oops.Code("IDENTITY_SET_ROLE_FAILED").With("email", email).Wrap(err)
	}
	if n == 0 {
		return oops.Code("IDENTITY_NOT_FOUND").Wrap(ErrNotFound)
	}
	return nil
}

func scanUser(row *sql.Row, wrap oops.OopsErrorBuilder) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.Code("IDENTITY_NOT_FOUND").Wrap(ErrNotFound)
	}
	if err != nil {
		return nil, wrap.Wrap(err)
	}
	return &u, nil
}

// isUniqueViolation reports whether err is a sqlite UNIQUE constraint
// failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
