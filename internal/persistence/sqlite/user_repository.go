package sqlite

import (
	"context"
	"time"

	"github.com/example/lab-reservation/internal/persistence"
)

// CreateUser stores a new account. Returns ErrDuplicate when the user
// name is already taken.
func (s *Storage) CreateUser(ctx context.Context, user persistence.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, user_name, email, password_hash, is_admin, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.UserName,
		user.Email,
		user.PasswordHash,
		boolToInt(user.IsAdmin),
		user.CreatedAt.Format(time.RFC3339),
		user.UpdatedAt.Format(time.RFC3339),
	)
	return mapError(err)
}

// GetUserByName retrieves an account by its unique user name.
func (s *Storage) GetUserByName(ctx context.Context, userName string) (persistence.User, error) {
	return s.getUser(ctx,
		`SELECT id, user_name, email, password_hash, is_admin, created_at, updated_at
		 FROM users WHERE user_name = ?`,
		userName,
	)
}

// GetUserByID retrieves an account by its identifier.
func (s *Storage) GetUserByID(ctx context.Context, id string) (persistence.User, error) {
	return s.getUser(ctx,
		`SELECT id, user_name, email, password_hash, is_admin, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	)
}

func (s *Storage) getUser(ctx context.Context, query string, arg any) (persistence.User, error) {
	row := s.db.QueryRowContext(ctx, query, arg)

	var (
		user                       persistence.User
		isAdmin                    int
		createdAtStr, updatedAtStr string
	)
	err := row.Scan(&user.ID, &user.UserName, &user.Email, &user.PasswordHash, &isAdmin, &createdAtStr, &updatedAtStr)
	if err != nil {
		return persistence.User{}, mapError(err)
	}

	user.IsAdmin = isAdmin != 0
	if user.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTimestamp(updatedAtStr); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}

// ListUsers returns all accounts ordered by user name.
func (s *Storage) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_name, email, password_hash, is_admin, created_at, updated_at
		 FROM users ORDER BY user_name`,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		var (
			user                       persistence.User
			isAdmin                    int
			createdAtStr, updatedAtStr string
		)
		if err := rows.Scan(&user.ID, &user.UserName, &user.Email, &user.PasswordHash, &isAdmin, &createdAtStr, &updatedAtStr); err != nil {
			return nil, mapError(err)
		}
		user.IsAdmin = isAdmin != 0
		if user.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
			return nil, err
		}
		if user.UpdatedAt, err = parseTimestamp(updatedAtStr); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return users, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
