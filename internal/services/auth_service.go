package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"bilancio/internal/core"
	"bilancio/internal/log"
)

// bcrypt ignores input past 72 bytes; longer passwords are rejected instead.
const maxPasswordBytes = 72

// AuthService registers users and verifies their credentials.
type AuthService struct {
	users  UserStore
	cost   int
	logger *log.Logger
}

// NewAuthService hashes with the given bcrypt cost; values outside bcrypt's
// range fall back to bcrypt.DefaultCost.
func NewAuthService(users UserStore, cost int, logger *log.Logger) *AuthService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:  users,
		cost:   cost,
		logger: componentLogger(logger, log.ComponentAuth),
	}
}

// Register creates an account. Duplicate emails fail with core.ErrEmailTaken.
func (s *AuthService) Register(ctx context.Context, in core.RegistrationInput) (core.User, error) {
	email, err := in.Validate()
	if err != nil {
		return core.User{}, err
	}
	hash, err := s.hash(strings.TrimSpace(in.Password))
	if err != nil {
		return core.User{}, err
	}
	u, err := s.users.CreateUser(ctx, email, hash)
	if err != nil {
		return core.User{}, err
	}
	s.logger.InfoContext(ctx, "User registered", log.FieldUserID, u.ID)
	return u, nil
}

// Authenticate returns the user for a matching email and password. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (core.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return core.User{}, core.ErrInvalidCredentials
	}
	u, err := s.users.UserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, core.ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, fmt.Errorf("load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(strings.TrimSpace(password))) != nil {
		s.logger.WarnContext(ctx, "Failed login", log.FieldUserID, u.ID)
		return core.User{}, core.ErrInvalidCredentials
	}
	return u, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, id core.Identity, in core.PasswordChangeInput) error {
	if !id.Authenticated() {
		return core.ErrUnauthenticated
	}
	if err := in.Validate(); err != nil {
		return err
	}
	u, err := s.users.UserByID(ctx, id.UserID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(strings.TrimSpace(in.Current))) != nil {
		return &core.ValidationError{Field: "current_password", Reason: "is incorrect"}
	}
	hash, err := s.hash(strings.TrimSpace(in.Password))
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, id.UserID, hash); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Password changed", log.FieldUserID, id.UserID)
	return nil
}

func (s *AuthService) hash(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", &core.ValidationError{Field: "password", Reason: "must be at most 72 bytes"}
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}
