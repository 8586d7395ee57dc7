package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/lab-reservation/internal/persistence"
)

// CreateSession stores a new authentication session.
func (s *Storage) CreateSession(ctx context.Context, session persistence.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, token, expires_at, created_at, revoked_at)
		 VALUES (?, ?, ?, ?, ?, NULL)`,
		session.ID,
		session.UserID,
		session.Token,
		session.ExpiresAt.Format(time.RFC3339),
		session.CreatedAt.Format(time.RFC3339),
	)
	return mapError(err)
}

// GetSession retrieves a session by its token.
func (s *Storage) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, token, expires_at, created_at, revoked_at
		 FROM sessions WHERE token = ?`,
		token,
	)

	var (
		session                    persistence.Session
		expiresAtStr, createdAtStr string
		revokedAtStr               sql.NullString
	)
	err := row.Scan(&session.ID, &session.UserID, &session.Token, &expiresAtStr, &createdAtStr, &revokedAtStr)
	if err != nil {
		return persistence.Session{}, mapError(err)
	}

	if session.ExpiresAt, err = parseTimestamp(expiresAtStr); err != nil {
		return persistence.Session{}, err
	}
	if session.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
		return persistence.Session{}, err
	}
	if revokedAtStr.Valid {
		revokedAt, err := parseTimestamp(revokedAtStr.String)
		if err != nil {
			return persistence.Session{}, err
		}
		session.RevokedAt = &revokedAt
	}
	return session, nil
}

// RevokeSession marks the session revoked. Returns ErrNotFound when no
// active session carries the token.
func (s *Storage) RevokeSession(ctx context.Context, token string, revokedAt time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = ? WHERE token = ? AND revoked_at IS NULL`,
		revokedAt.UTC().Format(time.RFC3339), token,
	)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// DeleteExpiredSessions removes sessions that expired before reference.
func (s *Storage) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < ?`,
		reference.UTC().Format(time.RFC3339),
	)
	return mapError(err)
}
