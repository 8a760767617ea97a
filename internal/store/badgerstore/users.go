package badgerstore

import (
	"context"
	"errors"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/catalogapp/catalog-server/internal/domain"
	idgen "github.com/catalogapp/catalog-server/internal/id"
	"github.com/catalogapp/catalog-server/internal/store"
)

// storedUser carries the password hash, which domain.User hides from JSON.
type storedUser struct {
	domain.User
	HashedPassword string `json:"hashedPassword"`
}

// CreateUser stores a user and claims its lowercased email.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		newID, err := s.ids.Generate(idgen.PrefixUser)
		if err != nil {
			return err
		}
		u.ID = newID
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

	err := s.update(ctx, func(txn *badger.Txn) error {
		emailKey := []byte(userByEmailKey + u.Email)
		if _, err := txn.Get(emailKey); err == nil {
			return store.ErrEmailTaken
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := setJSON(txn, userPrefix+u.ID, storedUser{User: *u, HashedPassword: u.HashedPassword}); err != nil {
			return err
		}
		return txn.Set(emailKey, []byte(u.ID))
	})
	return wrapErr(err, store.ErrUserNotFound)
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var u *domain.User
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		u, err = loadUser(txn, id)
		return err
	})
	if err != nil {
		return nil, wrapErr(err, store.ErrUserNotFound)
	}
	return u, nil
}

// GetUserByEmail retrieves a user by email, ignoring case.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u *domain.User
	err := s.view(ctx, func(txn *badger.Txn) error {
		userID, err := getString(txn, userByEmailKey+strings.ToLower(strings.TrimSpace(email)))
		if err != nil {
			return err
		}
		u, err = loadUser(txn, userID)
		return err
	})
	if err != nil {
		return nil, wrapErr(err, store.ErrUserNotFound)
	}
	return u, nil
}

func loadUser(txn *badger.Txn, id string) (*domain.User, error) {
	var su storedUser
	if err := getJSON(txn, userPrefix+id, &su); err != nil {
		return nil, err
	}
	u := su.User
	u.HashedPassword = su.HashedPassword
	return &u, nil
}
