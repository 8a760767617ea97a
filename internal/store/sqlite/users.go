package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/catalogapp/catalog-server/internal/domain"
	idgen "github.com/catalogapp/catalog-server/internal/id"
	"github.com/catalogapp/catalog-server/internal/store"
)

// userColumns must match the scan order in scanUser.
const userColumns = `id, name, email, hashed_password, created_at`

func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		u         domain.User
		createdAt string
	)
	if err := scanner.Scan(&u.ID, &u.Name, &u.Email, &u.HashedPassword, &createdAt); err != nil {
		return nil, err
	}

	var err error
	u.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a user. Emails are stored lowercased and must be unique.
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

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, hashed_password, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.HashedPassword, formatTime(u.CreatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrEmailTaken
	}
	if err != nil {
		return store.ErrDatabase.WithCause(err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.getUserWhere(ctx, `id = ?`, id)
}

// GetUserByEmail retrieves a user by email, ignoring case.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getUserWhere(ctx, `email = ?`, strings.ToLower(strings.TrimSpace(email)))
}

func (s *Store) getUserWhere(ctx context.Context, where string, arg any) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, store.ErrDatabase.WithCause(err)
	}
	return u, nil
}
