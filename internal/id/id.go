// Package id generates the opaque identifiers used for entries, tags, and users.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for each record kind.
const (
	PrefixEntry = "ent"
	PrefixTag   = "tag"
	PrefixUser  = "usr"
)

// Generator produces unique, URL-safe identifiers.
type Generator interface {
	Generate(prefix string) (string, error)
}

// NanoID is the default Generator.
type NanoID struct{}

// Generate implements Generator.
func (NanoID) Generate(prefix string) (string, error) {
	return Generate(prefix)
}

// Generate returns prefix + "-" + a 21 character NanoID,
// e.g. "ent-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	nid, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + nid, nil
}
