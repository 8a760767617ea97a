package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalogapp/catalog-server/internal/domain"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	svc, err := NewTokenService([]byte(strings.Repeat("k", KeySize)), time.Hour)
	require.NoError(t, err)
	return svc
}

var testUser = &domain.User{ID: "usr-1", Name: "Ada", Email: "ada@example.com"}

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc := newTestTokenService(t)

	token, expires, err := svc.Issue(testUser)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "v4.local."))
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "usr-1", claims.UserID)
	assert.Equal(t, "usr-1", claims.Subject)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "Ada", claims.Name)
	assert.Equal(t, tokenIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.TokenID)
}

func TestTokenService_RejectsExpired(t *testing.T) {
	svc := newTestTokenService(t)
	token, _, err := svc.Issue(testUser)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsOtherKey(t *testing.T) {
	token, _, err := newTestTokenService(t).Issue(testUser)
	require.NoError(t, err)

	other, err := NewTokenService([]byte(strings.Repeat("z", KeySize)), time.Hour)
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsGarbage(t *testing.T) {
	_, err := newTestTokenService(t).Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenService_Validates(t *testing.T) {
	_, err := NewTokenService([]byte("short"), time.Hour)
	assert.Error(t, err)

	_, err = NewTokenService([]byte(strings.Repeat("k", KeySize)), 0)
	assert.Error(t, err)
}

func TestLoadOrGenerateKey_PersistsAndReloads(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	first, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, first, KeySize)

	info, err := os.Stat(filepath.Join(dir, KeyFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLoadOrGenerateKey_RejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, KeyFileName), []byte("abc"), 0o600))

	_, err := LoadOrGenerateKey(dir)
	assert.ErrorContains(t, err, "hex characters")
}
