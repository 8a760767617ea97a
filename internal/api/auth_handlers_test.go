package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalogapp/catalog-server/internal/auth"
	"github.com/catalogapp/catalog-server/internal/service"
)

func (ts *testServer) createUser(t *testing.T) {
	t.Helper()
	_, err := ts.services.Auth.CreateUser(context.Background(), service.CreateUserRequest{
		Name: "Ada", Email: "ada@example.com", Password: "password123",
	})
	require.NoError(t, err)
}

func cookieByName(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLogin_SetsCookies(t *testing.T) {
	ts := setupTestServer(t)
	ts.createUser(t)

	resp := ts.api.Post("/api/auth/login", map[string]any{"email": "ada@example.com", "password": "password123"})

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	body := decode[LoginResponse](t, resp)
	assert.NotEmpty(t, body.AccessToken)
	assert.Equal(t, "ada@example.com", body.User.Email)

	session := cookieByName(resp.Result(), auth.SessionCookie)
	require.NotNil(t, session)
	assert.Equal(t, body.AccessToken, session.Value)
	assert.True(t, session.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, session.SameSite)

	userData := cookieByName(resp.Result(), auth.UserDataCookie)
	require.NotNil(t, userData)
	assert.False(t, userData.HttpOnly)
	decoded, err := auth.DecodeUserData(userData.Value)
	require.NoError(t, err)
	assert.Equal(t, body.User, *decoded)
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := setupTestServer(t)
	ts.createUser(t)

	for _, creds := range []map[string]any{
		{"email": "ada@example.com", "password": "wrong-password"},
		{"email": "nobody@example.com", "password": "password123"},
	} {
		resp := ts.api.Post("/api/auth/login", creds)

		require.Equal(t, http.StatusUnauthorized, resp.Code, resp.Body.String())
		body := decode[APIError](t, resp)
		assert.Equal(t, "UNAUTHORIZED", body.Code)
		assert.Equal(t, "invalid email or password", body.Message)
		assert.Empty(t, resp.Result().Cookies())
	}
}

func TestLogin_MalformedEmail(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/auth/login", map[string]any{"email": "not-an-email", "password": "x"})

	assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
}

func TestLogout_ExpiresCookies(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/auth/logout")

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	for _, name := range []string{auth.SessionCookie, auth.UserDataCookie} {
		c := cookieByName(resp.Result(), name)
		require.NotNil(t, c, name)
		assert.Empty(t, c.Value)
		assert.Equal(t, -1, c.MaxAge)
	}
}

func TestCurrentUser_RequiresUser(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/auth/me")

	require.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "UNAUTHORIZED", decode[APIError](t, resp).Code)
}
