package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/catalogapp/catalog-server/internal/domain"
	"github.com/catalogapp/catalog-server/internal/id"
)

const (
	tokenIssuer   = "catalog-server"
	tokenAudience = "catalog-web"
)

// ErrInvalidToken is returned for tokens that fail decryption or any claim
// rule, including expiry.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the decrypted contents of an access token.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`

	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}

// TokenService issues and verifies v4.local PASETO access tokens.
type TokenService struct {
	key paseto.V4SymmetricKey
	ttl time.Duration
	now func() time.Time
}

// NewTokenService builds a TokenService from a 32 byte key.
func NewTokenService(key []byte, ttl time.Duration) (*TokenService, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("token key must be %d bytes, got %d", KeySize, len(key))
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive, got %s", ttl)
	}
	k, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("load token key: %w", err)
	}
	return &TokenService{key: k, ttl: ttl, now: time.Now}, nil
}

// TTL returns the token lifetime.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue returns an encrypted token for u and its expiry.
func (s *TokenService) Issue(u *domain.User) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.ttl)

	jti, err := id.Generate("tok")
	if err != nil {
		return "", time.Time{}, err
	}

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetAudience(tokenAudience)
	token.SetSubject(u.ID)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(expires)
	token.SetJti(jti)
	token.SetString("user_id", u.ID)
	token.SetString("email", u.Email)
	token.SetString("name", u.Name)

	return token.V4Encrypt(s.key, nil), expires, nil
}

// Verify decrypts token and checks issuer, audience and validity window.
func (s *TokenService) Verify(token string) (*Claims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.ValidAt(s.now()))

	parsed, err := parser.ParseV4Local(s.key, token, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var claims Claims
	if err := json.Unmarshal(parsed.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("%w: parse claims: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user", ErrInvalidToken)
	}
	return &claims, nil
}
