package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/catalogapp/catalog-server/internal/domain"
	"github.com/catalogapp/catalog-server/internal/filter"
	idgen "github.com/catalogapp/catalog-server/internal/id"
	"github.com/catalogapp/catalog-server/internal/store"
)

// entryWithTagsQuery selects entries left-joined to their tags, one row per
// (entry, tag) pair, in entry insertion order. The WHERE clause is appended
// by the caller.
const entryWithTagsQuery = `
	SELECT e.id, e.name, e.website_url, e.github_url, e.created_at, e.updated_at,
	       t.id, t.name, t.created_at
	FROM entries e
	LEFT JOIN entries_to_tags et ON et.entry_id = e.id
	LEFT JOIN tags t ON t.id = et.tag_id
`

// CreateEntry inserts the entry and links its tags in one transaction.
func (s *Store) CreateEntry(ctx context.Context, e *domain.Entry, tagNames []string) (*domain.EntryWithTags, error) {
	if e.ID == "" {
		newID, err := s.ids.Generate(idgen.PrefixEntry)
		if err != nil {
			return nil, err
		}
		e.ID = newID
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}

	var tags []domain.Tag
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO entries (id, name, name_folded, website_url, github_url, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.ID,
			e.Name,
			filter.FoldName(e.Name),
			e.WebsiteURL,
			e.GitHubURL,
			formatTime(e.CreatedAt),
			formatTime(e.UpdatedAt),
		)
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithCause(err)
		}
		if err != nil {
			return store.ErrDatabase.WithCause(err)
		}

		tags, err = attachTags(ctx, tx, e.ID, tagNames)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &domain.EntryWithTags{Entry: *e, Tags: tags}, nil
}

// ListEntries returns entries in insertion order with their tags.
func (s *Store) ListEntries(ctx context.Context, f store.EntryFilter) ([]*domain.EntryWithTags, error) {
	if f.Name == "" {
		return queryEntries(ctx, s.db, `ORDER BY e.rowid, t.name`)
	}
	return queryEntries(ctx, s.db,
		`WHERE instr(e.name_folded, ?) > 0 ORDER BY e.rowid, t.name`,
		filter.FoldName(f.Name))
}

// GetEntry returns one entry with its tags.
func (s *Store) GetEntry(ctx context.Context, id string) (*domain.EntryWithTags, error) {
	return getEntry(ctx, s.db, id)
}

func getEntry(ctx context.Context, q querier, id string) (*domain.EntryWithTags, error) {
	entries, err := queryEntries(ctx, q, `WHERE e.id = ? ORDER BY t.name`, id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, store.ErrEntryNotFound
	}
	return entries[0], nil
}

// UpdateEntry overwrites the editable fields of an entry.
func (s *Store) UpdateEntry(ctx context.Context, id string, fields domain.EntryFields) (*domain.EntryWithTags, error) {
	var updated *domain.EntryWithTags
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE entries
			SET name = ?, name_folded = ?, website_url = ?, github_url = ?, updated_at = ?
			WHERE id = ?`,
			fields.Name,
			filter.FoldName(fields.Name),
			fields.WebsiteURL,
			fields.GitHubURL,
			formatTime(s.now()),
			id,
		)
		if err != nil {
			return store.ErrDatabase.WithCause(err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return store.ErrDatabase.WithCause(err)
		} else if n == 0 {
			return store.ErrEntryNotFound
		}

		updated, err = getEntry(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteEntry removes join rows first and then the entry row. When the entry
// does not exist the transaction is rolled back and nothing changes.
func (s *Store) DeleteEntry(ctx context.Context, id string) (int, error) {
	var removed int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM entries_to_tags WHERE entry_id = ?`, id)
		if err != nil {
			return store.ErrDatabase.WithCause(err)
		}
		if removed, err = res.RowsAffected(); err != nil {
			return store.ErrDatabase.WithCause(err)
		}

		res, err = tx.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
		if err != nil {
			return store.ErrDatabase.WithCause(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return store.ErrDatabase.WithCause(err)
		}
		if n == 0 {
			return store.ErrEntryNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Debug("entry deleted", "entry_id", id, "join_rows", removed)
	return int(removed), nil
}

// queryEntries runs entryWithTagsQuery with the given tail and folds the
// joined rows into one EntryWithTags per entry, keeping row order.
func queryEntries(ctx context.Context, q querier, tail string, args ...any) ([]*domain.EntryWithTags, error) {
	rows, err := q.QueryContext(ctx, entryWithTagsQuery+tail, args...)
	if err != nil {
		return nil, store.ErrDatabase.WithCause(err)
	}
	defer rows.Close()

	entries := []*domain.EntryWithTags{}
	var current *domain.EntryWithTags

	for rows.Next() {
		var (
			e                    domain.Entry
			createdAt, updatedAt string
			tagID, tagName       sql.NullString
			tagCreatedAt         sql.NullString
		)
		if err := rows.Scan(
			&e.ID, &e.Name, &e.WebsiteURL, &e.GitHubURL, &createdAt, &updatedAt,
			&tagID, &tagName, &tagCreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		if current == nil || current.ID != e.ID {
			if e.CreatedAt, err = parseTime(createdAt); err != nil {
				return nil, err
			}
			if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
				return nil, err
			}
			current = &domain.EntryWithTags{Entry: e, Tags: []domain.Tag{}}
			entries = append(entries, current)
		}

		if tagID.Valid {
			t := domain.Tag{ID: tagID.String, Name: tagName.String}
			if t.CreatedAt, err = parseTime(tagCreatedAt.String); err != nil {
				return nil, err
			}
			current.Tags = append(current.Tags, t)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
