package auth

import (
	"encoding/json"
	"net/url"

	"github.com/catalogapp/catalog-server/internal/domain"
)

// EncodeUserData renders the user-data cookie value: URI-escaped JSON the
// page layout reads without a round trip to the API.
func EncodeUserData(u domain.PublicUser) (string, error) {
	raw, err := json.Marshal(u)
	if err != nil {
		return "", err
	}
	return url.PathEscape(string(raw)), nil
}

// DecodeUserData reverses EncodeUserData.
func DecodeUserData(value string) (*domain.PublicUser, error) {
	raw, err := url.PathUnescape(value)
	if err != nil {
		return nil, err
	}
	var u domain.PublicUser
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, err
	}
	return &u, nil
}
