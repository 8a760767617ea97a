package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/catalogapp/catalog-server/internal/auth"
	"github.com/catalogapp/catalog-server/internal/domain"
	domainerrors "github.com/catalogapp/catalog-server/internal/errors"
	"github.com/catalogapp/catalog-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        Prefix + "/auth/login",
		Summary:     "Log in",
		Description: "Checks credentials, returns an access token and sets the session cookies",
		Tags:        []string{"Auth"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        Prefix + "/auth/logout",
		Summary:     "Log out",
		Description: "Clears the session cookies",
		Tags:        []string{"Auth"},
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "currentUser",
		Method:      http.MethodGet,
		Path:        Prefix + "/auth/me",
		Summary:     "Current user",
		Tags:        []string{"Auth"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCurrentUser)
}

// LoginRequest is the login body.
type LoginRequest struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	Email    string `json:"email" format:"email" doc:"Account email"`
	Password string `json:"password" minLength:"1" doc:"Account password"`
}

// LoginInput wraps the login body for Huma.
type LoginInput struct {
	Body LoginRequest
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	User        domain.PublicUser `json:"user"`
	AccessToken string            `json:"accessToken"`
	ExpiresAt   time.Time         `json:"expiresAt"`
}

// LoginOutput sets the session cookies.
type LoginOutput struct {
	SetCookie []http.Cookie `header:"Set-Cookie"`
	Body      LoginResponse
}

// LogoutOutput expires the session cookies.
type LogoutOutput struct {
	SetCookie []http.Cookie `header:"Set-Cookie"`
	Body      SuccessResponse
}

// UserResponse wraps the signed in user.
type UserResponse struct {
	User domain.PublicUser `json:"user"`
}

// UserOutput wraps UserResponse for Huma.
type UserOutput struct {
	Body UserResponse
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	session, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	userData, err := auth.EncodeUserData(session.User)
	if err != nil {
		return nil, err
	}

	return &LoginOutput{
		SetCookie: []http.Cookie{
			s.cookie(auth.SessionCookie, session.Token, session.ExpiresAt, true),
			s.cookie(auth.UserDataCookie, userData, session.ExpiresAt, false),
		},
		Body: LoginResponse{
			User:        session.User,
			AccessToken: session.Token,
			ExpiresAt:   session.ExpiresAt,
		},
	}, nil
}

func (s *Server) handleLogout(_ context.Context, _ *struct{}) (*LogoutOutput, error) {
	expired := func(name string, httpOnly bool) http.Cookie {
		c := s.cookie(name, "", time.Unix(0, 0), httpOnly)
		c.MaxAge = -1
		return c
	}
	return &LogoutOutput{
		SetCookie: []http.Cookie{
			expired(auth.SessionCookie, true),
			expired(auth.UserDataCookie, false),
		},
		Body: SuccessResponse{Success: true},
	}, nil
}

func (s *Server) handleCurrentUser(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	user, ok := auth.UserFromContext(ctx)
	if !ok {
		return nil, domainerrors.Unauthorized("authentication required")
	}
	return &UserOutput{Body: UserResponse{User: user.Public()}}, nil
}

func (s *Server) cookie(name, value string, expires time.Time, httpOnly bool) http.Cookie {
	return http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: httpOnly,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}
