package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/notebook-go/apperror"
	"github.com/user/notebook-go/metrics"
	"github.com/user/notebook-go/validation"
)

// AuthService provides the registration and login flows.
type AuthService struct {
	users   UserStore
	hasher  *PasswordHasher
	tokens  *TokenService
	metrics *metrics.Metrics

	// dummyHash is compared against when the email is unknown, so a login
	// for a missing account costs the same bcrypt work as a wrong password.
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, hasher *PasswordHasher, tokens *TokenService, m *metrics.Metrics) (*AuthService, error) {
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}
	return &AuthService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		metrics:   m,
		dummyHash: dummy,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new user and returns a token scoped to it.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validation.Struct(req); err != nil {
		s.metrics.AuthEvent("register", "invalid")
		return nil, err
	}

	_, err := s.users.GetUserByEmail(ctx, req.Email)
	switch {
	case err == nil:
		s.metrics.AuthEvent("register", "conflict")
		return nil, apperror.NewConflictError("email already registered", ErrDuplicateEmail)
	case !errors.Is(err, ErrUserNotFound):
		return nil, apperror.NewDatabaseError("failed to look up user", err)
	}

	hashedPassword, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperror.NewValidationError("invalid input", []apperror.FieldError{
				{Field: "password", Message: "Password must be at most 72 bytes"},
			})
		}
		return nil, apperror.NewInternalError("failed to hash password", err)
	}

	user := &User{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hashedPassword,
	}

	created, err := s.users.CreateUser(ctx, user)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateEmail):
			s.metrics.AuthEvent("register", "conflict")
			return nil, apperror.NewConflictError("email already registered", err)
		case errors.Is(err, ErrDuplicateUsername):
			s.metrics.AuthEvent("register", "conflict")
			return nil, apperror.NewConflictError("username already taken", err)
		}
		return nil, apperror.NewDatabaseError("failed to create user", err)
	}

	token, _, err := s.tokens.Issue(created.ID)
	if err != nil {
		return nil, apperror.NewInternalError("failed to issue token", err)
	}

	s.metrics.AuthEvent("register", "success")
	return &TokenResponse{Message: "User registered successfully", Token: token}, nil
}

// Login verifies credentials and issues a fresh token. An unknown email and
// a wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validation.Struct(req); err != nil {
		s.metrics.AuthEvent("login", "invalid")
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return nil, apperror.NewDatabaseError("failed to get user", err)
		}
		s.hasher.Verify(req.Password, s.dummyHash)
		s.metrics.AuthEvent("login", "invalid_credentials")
		return nil, apperror.NewAuthError(msgInvalidCredentials, ErrInvalidCredentials)
	}

	if !s.hasher.Verify(req.Password, user.HashedPassword) {
		s.metrics.AuthEvent("login", "invalid_credentials")
		return nil, apperror.NewAuthError(msgInvalidCredentials, ErrInvalidCredentials)
	}

	token, _, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperror.NewInternalError("failed to issue token", err)
	}

	s.metrics.AuthEvent("login", "success")
	return &TokenResponse{Message: "User logged in successfully", Token: token}, nil
}
