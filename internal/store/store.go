// Package store defines the persistence contract for entries, tags, their
// join rows, and users. Implementations live in the sqlite and badger
// subpackages.
package store

import (
	"context"

	"github.com/catalogapp/catalog-server/internal/domain"
)

// EntryFilter narrows ListEntries. Name is a case-insensitive substring
// (see filter.FoldName); empty matches every entry.
type EntryFilter struct {
	Name string
}

// EntryStore persists entries and their tag associations.
type EntryStore interface {
	// CreateEntry inserts e and attaches the named tags in one transaction.
	// Unknown tag names are skipped. e.ID must be set; empty URLs are stored
	// as "".
	CreateEntry(ctx context.Context, e *domain.Entry, tagNames []string) (*domain.EntryWithTags, error)

	// AttachTags links existing tags to the entry, skipping unknown names and
	// links that already exist. It returns the tags newly attached.
	AttachTags(ctx context.Context, entryID string, tagNames []string) ([]domain.Tag, error)

	// ListEntries returns entries in insertion order, each with its tags.
	ListEntries(ctx context.Context, f EntryFilter) ([]*domain.EntryWithTags, error)

	GetEntry(ctx context.Context, id string) (*domain.EntryWithTags, error)

	// UpdateEntry overwrites name and URLs and bumps UpdatedAt. Tags are left
	// alone.
	UpdateEntry(ctx context.Context, id string, fields domain.EntryFields) (*domain.EntryWithTags, error)

	// DeleteEntry removes the entry's join rows and then the entry, in one
	// transaction, and reports how many join rows were removed.
	DeleteEntry(ctx context.Context, id string) (int, error)
}

// TagStore persists tags.
type TagStore interface {
	// CreateOrGetTag atomically returns the tag named name, creating it if
	// needed. created reports whether this call inserted it.
	CreateOrGetTag(ctx context.Context, name string) (tag *domain.Tag, created bool, err error)

	// ListTags returns all tags ordered by name.
	ListTags(ctx context.Context) ([]*domain.Tag, error)

	// GetTagsByName returns the tags that exist among names, ordered by name.
	GetTagsByName(ctx context.Context, names []string) ([]*domain.Tag, error)
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Store is the full persistence contract.
type Store interface {
	EntryStore
	TagStore
	UserStore

	Ping(ctx context.Context) error
	Close() error
}
