package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/lab-reservation/internal/persistence"
)

type credentialStoreStub struct {
	user User
	hash string
	err  error
}

func (c *credentialStoreStub) GetUserCredentials(ctx context.Context, userName string) (User, string, error) {
	if c.err != nil {
		return User{}, "", c.err
	}
	return c.user, c.hash, nil
}

type sessionStoreStub struct {
	createErr error
	created   Session

	session Session
	getErr  error

	user       User
	getUserErr error

	revokedToken string
	revokeErr    error

	deletedBefore time.Time
	deleteErr     error
}

func (s *sessionStoreStub) CreateSession(ctx context.Context, session Session) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = session
	return nil
}

func (s *sessionStoreStub) GetSession(ctx context.Context, token string) (Session, error) {
	if s.getErr != nil {
		return Session{}, s.getErr
	}
	return s.session, nil
}

func (s *sessionStoreStub) GetUserByID(ctx context.Context, id string) (User, error) {
	if s.getUserErr != nil {
		return User{}, s.getUserErr
	}
	return s.user, nil
}

func (s *sessionStoreStub) RevokeSession(ctx context.Context, token string, revokedAt time.Time) error {
	if s.revokeErr != nil {
		return s.revokeErr
	}
	s.revokedToken = token
	return nil
}

func (s *sessionStoreStub) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deletedBefore = reference
	return nil
}

func okVerifier(hash, password string) error {
	if hash == "hash:"+password {
		return nil
	}
	return errors.New("mismatch")
}

func TestAuthService_Authenticate(t *testing.T) {
	now := time.Date(2025, time.September, 1, 9, 0, 0, 0, time.UTC)

	newService := func(creds *credentialStoreStub, sessions *sessionStoreStub) *AuthService {
		tokens := 0
		return NewAuthService(creds, sessions, okVerifier, func() string {
			tokens++
			return map[int]string{1: "session-1", 2: "token-1"}[tokens]
		}, func() time.Time { return now }, time.Hour)
	}

	t.Run("rejects blank credentials", func(t *testing.T) {
		svc := newService(&credentialStoreStub{}, &sessionStoreStub{})

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{UserName: " ", Password: ""})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("rejects unknown users with the same failure", func(t *testing.T) {
		creds := &credentialStoreStub{err: persistence.ErrNotFound}
		svc := newService(creds, &sessionStoreStub{})

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{UserName: "ghost", Password: "pw"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("rejects wrong passwords with the same failure", func(t *testing.T) {
		creds := &credentialStoreStub{user: User{ID: "user-1", UserName: "alice"}, hash: "hash:right"}
		svc := newService(creds, &sessionStoreStub{})

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{UserName: "alice", Password: "wrong"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("issues a session on success", func(t *testing.T) {
		creds := &credentialStoreStub{user: User{ID: "user-1", UserName: "alice"}, hash: "hash:pw"}
		sessions := &sessionStoreStub{}
		svc := newService(creds, sessions)

		result, err := svc.Authenticate(context.Background(), AuthenticateParams{UserName: " alice ", Password: "pw"})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}

		if result.Session.Token == "" {
			t.Fatalf("expected a session token")
		}
		if sessions.created.UserID != "user-1" {
			t.Fatalf("expected session for user-1, got %+v", sessions.created)
		}
		if !sessions.created.ExpiresAt.Equal(now.Add(time.Hour)) {
			t.Fatalf("expected one hour TTL, got %v", sessions.created.ExpiresAt)
		}
		if !sessions.deletedBefore.Equal(now) {
			t.Fatalf("expected expired sessions to be purged at login, got %v", sessions.deletedBefore)
		}
	})
}

func TestAuthService_ValidateSession(t *testing.T) {
	now := time.Date(2025, time.September, 1, 9, 0, 0, 0, time.UTC)

	newService := func(sessions *sessionStoreStub) *AuthService {
		return NewAuthService(&credentialStoreStub{}, sessions, okVerifier, nil, func() time.Time { return now }, time.Hour)
	}

	t.Run("rejects blank tokens", func(t *testing.T) {
		svc := newService(&sessionStoreStub{})
		if _, err := svc.ValidateSession(context.Background(), "  "); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("rejects unknown tokens", func(t *testing.T) {
		svc := newService(&sessionStoreStub{getErr: persistence.ErrNotFound})
		if _, err := svc.ValidateSession(context.Background(), "nope"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("rejects revoked sessions", func(t *testing.T) {
		revoked := now.Add(-time.Minute)
		sessions := &sessionStoreStub{session: Session{
			ID: "session-1", UserID: "user-1", Token: "tok",
			ExpiresAt: now.Add(time.Hour), RevokedAt: &revoked,
		}}
		svc := newService(sessions)

		if _, err := svc.ValidateSession(context.Background(), "tok"); !errors.Is(err, ErrSessionRevoked) {
			t.Fatalf("expected ErrSessionRevoked, got %v", err)
		}
	})

	t.Run("rejects expired sessions", func(t *testing.T) {
		sessions := &sessionStoreStub{session: Session{
			ID: "session-1", UserID: "user-1", Token: "tok",
			ExpiresAt: now.Add(-time.Second),
		}}
		svc := newService(sessions)

		if _, err := svc.ValidateSession(context.Background(), "tok"); !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
	})

	t.Run("resolves the acting principal", func(t *testing.T) {
		sessions := &sessionStoreStub{
			session: Session{ID: "session-1", UserID: "user-1", Token: "tok", ExpiresAt: now.Add(time.Hour)},
			user:    User{ID: "user-1", UserName: "admin", IsAdmin: true},
		}
		svc := newService(sessions)

		principal, err := svc.ValidateSession(context.Background(), "tok")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if principal.UserName != "admin" || !principal.IsAdmin {
			t.Fatalf("unexpected principal: %+v", principal)
		}
	})
}

func TestAuthService_RevokeSession(t *testing.T) {
	t.Run("revokes known sessions", func(t *testing.T) {
		sessions := &sessionStoreStub{}
		svc := NewAuthService(&credentialStoreStub{}, sessions, okVerifier, nil, nil, time.Hour)

		if err := svc.RevokeSession(context.Background(), "tok"); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if sessions.revokedToken != "tok" {
			t.Fatalf("expected token to be revoked, got %q", sessions.revokedToken)
		}
	})

	t.Run("treats unknown tokens as already revoked", func(t *testing.T) {
		sessions := &sessionStoreStub{revokeErr: persistence.ErrNotFound}
		svc := NewAuthService(&credentialStoreStub{}, sessions, okVerifier, nil, nil, time.Hour)

		if err := svc.RevokeSession(context.Background(), "gone"); err != nil {
			t.Fatalf("expected unknown token to be ignored, got %v", err)
		}
	})
}
