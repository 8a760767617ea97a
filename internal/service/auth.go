package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/catalogapp/catalog-server/internal/auth"
	"github.com/catalogapp/catalog-server/internal/domain"
	domainerrors "github.com/catalogapp/catalog-server/internal/errors"
	"github.com/catalogapp/catalog-server/internal/store"
	"github.com/catalogapp/catalog-server/internal/validation"
)

// ErrInvalidCredentials is returned by Login for an unknown email or a wrong
// password alike.
var ErrInvalidCredentials = domainerrors.Unauthorized("invalid email or password")

// LoginRequest carries credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CreateUserRequest carries a new account.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
}

// Session is the result of a successful login.
type Session struct {
	User      domain.PublicUser
	Token     string
	ExpiresAt time.Time
}

// AuthService signs users in and resolves access tokens back to users.
type AuthService struct {
	store     store.Store
	tokens    *auth.TokenService
	validator *validation.Validator
	logger    *slog.Logger

	// dummyHash is verified against when the email is unknown so both
	// failure paths cost one Argon2 run.
	dummyHash string
}

// NewAuthService creates an auth service.
func NewAuthService(store store.Store, tokens *auth.TokenService, validator *validation.Validator, logger *slog.Logger) *AuthService {
	dummy, _ := auth.HashPassword("catalog-dummy-password")
	return &AuthService{
		store:     store,
		tokens:    tokens,
		validator: validator,
		logger:    logger,
		dummyHash: dummy,
	}
}

// Login checks credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, store.ErrNotFound) {
		auth.VerifyPassword(s.dummyHash, req.Password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if !auth.VerifyPassword(user.HashedPassword, req.Password) {
		s.logger.Warn("failed login", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	token, expires, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return &Session{User: user.Public(), Token: token, ExpiresAt: expires}, nil
}

// CreateUser registers an account.
func (s *AuthService) CreateUser(ctx context.Context, req CreateUserRequest) (*domain.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{Name: req.Name, Email: req.Email, HashedPassword: hash}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("email already in use")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user created", "user_id", user.ID)
	return user, nil
}

// Authenticate resolves a token to its user. Any failure, including a
// deleted account, is reported as unauthorized.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, domainerrors.Unauthorized("invalid or expired token").WithCause(err)
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.Unauthorized("invalid or expired token")
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// TokenTTL returns how long issued tokens stay valid.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}
