package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/larderapp/larder-server/internal/domain"
	"github.com/larderapp/larder-server/internal/store"
)

// userColumns is the ordered list of columns selected in user queries.
// Must match the scan order in scanUser.
const userColumns = `id, email, name, password_hash, is_active,
	created_at, updated_at, last_login_at`

// scanUser scans a sql.Row (or sql.Rows via its Scan method) into a domain.User.
func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var u domain.User

	var (
		isActive    int
		createdAt   string
		updatedAt   string
		lastLoginAt sql.NullString
	)

	err := scanner.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.PasswordHash,
		&isActive,
		&createdAt,
		&updatedAt,
		&lastLoginAt,
	)
	if err != nil {
		return nil, err
	}

	u.IsActive = isActive != 0

	u.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	u.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	u.LastLoginAt, err = parseNullableTime(lastLoginAt)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// emailKey is the case-insensitive uniqueness key for an address.
func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser inserts a new user into the database.
// Returns store.ErrAlreadyExists if the user ID or email already exists.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (
			id, email, email_lower, name, password_hash, is_active,
			created_at, updated_at, last_login_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		emailKey(user.Email),
		user.Name,
		user.PasswordHash,
		boolToInt(user.IsActive),
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
		nullTime(user.LastLoginAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetUser retrieves a user by ID.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByEmail retrieves a user by email, ignoring case.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email_lower = ?`, emailKey(email))

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateUser writes the mutable user columns. Email and ID are fixed.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET
			name = ?,
			password_hash = ?,
			is_active = ?,
			updated_at = ?,
			last_login_at = ?
		WHERE id = ?`,
		user.Name,
		user.PasswordHash,
		boolToInt(user.IsActive),
		formatTime(user.UpdatedAt),
		nullTime(user.LastLoginAt),
		user.ID,
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
