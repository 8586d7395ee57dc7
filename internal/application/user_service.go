package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/lab-reservation/internal/persistence"
)

// AccountStore captures the persistence operations needed by the user service.
type AccountStore interface {
	CreateUser(ctx context.Context, user User, passwordHash string) (User, error)
	GetUserByName(ctx context.Context, userName string) (User, error)
}

// PasswordHasher derives a storable hash from a plaintext password.
type PasswordHasher func(password string) (string, error)

// UserService owns account registration and startup seeding. Passwords
// are hashed before they reach storage; the plaintext never leaves this
// service.
type UserService struct {
	accounts     AccountStore
	hashPassword PasswordHasher
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewUserService constructs a user service with the provided dependencies.
func NewUserService(accounts AccountStore, hash PasswordHasher, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(accounts, hash, idGenerator, now, nil)
}

// NewUserServiceWithLogger constructs a user service with a specified logger.
func NewUserServiceWithLogger(accounts AccountStore, hash PasswordHasher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if hash == nil {
		hash = func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		}
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		accounts:     accounts,
		hashPassword: hash,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// Register creates a regular account with a hashed credential.
func (s *UserService) Register(ctx context.Context, params RegisterParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Register",
		"user_name", strings.TrimSpace(params.UserName),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to register user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "user registered")
	}()

	vErr := validateRegisterParams(params)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if s.accounts == nil {
		err = fmt.Errorf("account store not configured")
		return
	}

	hash, err := s.hashPassword(params.Password)
	if err != nil {
		return User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user = User{
		ID:        s.idGenerator(),
		UserName:  strings.TrimSpace(params.UserName),
		Email:     strings.TrimSpace(params.Email),
		IsAdmin:   false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	persisted, err := s.accounts.CreateUser(ctx, user, hash)
	if err != nil {
		err = mapAccountRepoError(err)
		return User{}, err
	}
	user = persisted
	return user, nil
}

// EnsureAdmin seeds the administrator account when it does not exist
// yet. Called once at startup; an existing account is left untouched.
func (s *UserService) EnsureAdmin(ctx context.Context, userName, email, password string) (err error) {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if s.accounts == nil {
		return fmt.Errorf("account store not configured")
	}

	logger := s.loggerWith(ctx, "EnsureAdmin", "user_name", userName)

	_, err = s.accounts.GetUserByName(ctx, userName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, persistence.ErrNotFound) && !errors.Is(err, ErrNotFound) {
		logger.ErrorContext(ctx, "failed to look up admin account", "error", err)
		return err
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	now := s.now()
	admin := User{
		ID:        s.idGenerator(),
		UserName:  userName,
		Email:     email,
		IsAdmin:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err = s.accounts.CreateUser(ctx, admin, hash); err != nil {
		err = mapAccountRepoError(err)
		// A concurrent boot may have seeded it first.
		if errors.Is(err, ErrAlreadyExists) {
			return nil
		}
		logger.ErrorContext(ctx, "failed to seed admin account", "error", err)
		return err
	}

	logger.InfoContext(ctx, "admin account seeded")
	return nil
}

func validateRegisterParams(params RegisterParams) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(params.UserName) == "" {
		vErr.add("userName", "user name is required")
	}
	if strings.TrimSpace(params.Email) == "" {
		vErr.add("email", "email is required")
	}
	if params.Password == "" {
		vErr.add("password", "password is required")
	}

	return vErr
}

func mapAccountRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	return err
}
