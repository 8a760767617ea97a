package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// KeySize is the PASETO v4.local symmetric key size in bytes.
const KeySize = 32

// KeyFileName is where LoadOrGenerateKey keeps the token key under the data
// directory.
const KeyFileName = "token.key"

// LoadOrGenerateKey reads the hex encoded token key from dir, creating and
// persisting a fresh random key on first run.
func LoadOrGenerateKey(dir string) ([]byte, error) {
	path := filepath.Join(dir, KeyFileName)

	//#nosec G304 -- path is under the configured data directory
	raw, err := os.ReadFile(path)
	if err == nil {
		return decodeKey(strings.TrimSpace(string(raw)))
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read token key: %w", err)
	}

	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate token key: %w", err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(key)), 0o600); err != nil {
		return nil, fmt.Errorf("write token key: %w", err)
	}
	return key, nil
}

func decodeKey(s string) ([]byte, error) {
	if len(s) != KeySize*2 {
		return nil, fmt.Errorf("token key must be %d hex characters, got %d", KeySize*2, len(s))
	}
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("token key is not valid hex: %w", err)
	}
	return key, nil
}
