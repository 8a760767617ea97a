package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/catalogapp/catalog-server/internal/domain"
	idgen "github.com/catalogapp/catalog-server/internal/id"
	"github.com/catalogapp/catalog-server/internal/store"
)

// tagColumns must match the scan order in scanTag.
const tagColumns = `id, name, created_at`

func scanTag(scanner interface{ Scan(dest ...any) error }) (*domain.Tag, error) {
	var (
		t         domain.Tag
		createdAt string
	)
	if err := scanner.Scan(&t.ID, &t.Name, &createdAt); err != nil {
		return nil, err
	}

	var err error
	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateOrGetTag inserts the tag unless the name exists, then reads it back.
// The insert and the unique index make this safe under concurrent callers:
// exactly one of them observes created == true.
func (s *Store) CreateOrGetTag(ctx context.Context, name string) (*domain.Tag, bool, error) {
	if name == "" {
		return nil, false, store.ErrInvalidInput.WithMessage("tag name is required")
	}

	tagID, err := s.ids.Generate(idgen.PrefixTag)
	if err != nil {
		return nil, false, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (id, name, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO NOTHING`,
		tagID, name, formatTime(s.now()),
	)
	if err != nil {
		return nil, false, store.ErrDatabase.WithCause(err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, false, store.ErrDatabase.WithCause(err)
	}

	t, err := scanTag(s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE name = ?`, name))
	if err != nil {
		return nil, false, fmt.Errorf("read tag %q: %w", name, err)
	}

	if inserted == 1 {
		s.logger.Debug("tag created", "tag_id", t.ID, "name", name)
	}
	return t, inserted == 1, nil
}

// ListTags returns all tags ordered by name.
func (s *Store) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags ORDER BY name ASC`)
	if err != nil {
		return nil, store.ErrDatabase.WithCause(err)
	}
	return collectTags(rows)
}

// GetTagsByName returns the tags that exist among names.
func (s *Store) GetTagsByName(ctx context.Context, names []string) ([]*domain.Tag, error) {
	return tagsByName(ctx, s.db, names)
}

func tagsByName(ctx context.Context, q querier, names []string) ([]*domain.Tag, error) {
	names = uniqueNames(names)
	if len(names) == 0 {
		return []*domain.Tag{}, nil
	}

	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}

	rows, err := q.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE name IN (`+placeholders(len(names))+`) ORDER BY name ASC`,
		args...)
	if err != nil {
		return nil, store.ErrDatabase.WithCause(err)
	}
	return collectTags(rows)
}

func collectTags(rows *sql.Rows) ([]*domain.Tag, error) {
	defer rows.Close()

	tags := []*domain.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tags, nil
}

// attachTags links the existing tags among names to entryID. Unknown names
// and existing links are skipped. It returns the tags newly linked.
func attachTags(ctx context.Context, q querier, entryID string, names []string) ([]domain.Tag, error) {
	tags, err := tagsByName(ctx, q, names)
	if err != nil {
		return nil, err
	}

	attached := make([]domain.Tag, 0, len(tags))
	for _, t := range tags {
		res, err := q.ExecContext(ctx, `
			INSERT INTO entries_to_tags (entry_id, tag_id)
			VALUES (?, ?)
			ON CONFLICT DO NOTHING`,
			entryID, t.ID,
		)
		if err != nil {
			return nil, store.ErrDatabase.WithCause(err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 1 {
			attached = append(attached, *t)
		}
	}
	return attached, nil
}

// AttachTags links existing tags to an entry.
func (s *Store) AttachTags(ctx context.Context, entryID string, tagNames []string) ([]domain.Tag, error) {
	var attached []domain.Tag
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM entries WHERE id = ?`, entryID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrEntryNotFound
		}
		if err != nil {
			return store.ErrDatabase.WithCause(err)
		}

		attached, err = attachTags(ctx, tx, entryID, tagNames)
		return err
	})
	if err != nil {
		return nil, err
	}
	return attached, nil
}
