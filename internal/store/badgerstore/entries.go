package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/catalogapp/catalog-server/internal/domain"
	"github.com/catalogapp/catalog-server/internal/filter"
	idgen "github.com/catalogapp/catalog-server/internal/id"
	"github.com/catalogapp/catalog-server/internal/store"
)

// entryRecord is the stored form of an entry. Seq fixes insertion order and
// NameFolded mirrors filter.FoldName(Name).
type entryRecord struct {
	domain.Entry
	Seq        uint64 `json:"seq"`
	NameFolded string `json:"nameFolded"`
}

func orderKey(seq uint64) string {
	return fmt.Sprintf("%s%020d", entryOrderPrefix, seq)
}

// CreateEntry stores the entry, its order index, and its tag links in one
// transaction.
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

	seq, err := s.seq.Next()
	if err != nil {
		return nil, store.ErrDatabase.WithCause(err)
	}
	rec := entryRecord{Entry: *e, Seq: seq, NameFolded: filter.FoldName(e.Name)}

	var tags []domain.Tag
	err = s.update(ctx, func(txn *badger.Txn) error {
		key := entryPrefix + e.ID
		if _, err := txn.Get([]byte(key)); err == nil {
			return store.ErrAlreadyExists.WithMessage("entry already exists")
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := setJSON(txn, key, rec); err != nil {
			return err
		}
		if err := txn.Set([]byte(orderKey(seq)), []byte(e.ID)); err != nil {
			return err
		}

		var err error
		tags, err = attachTags(txn, e.ID, tagNames)
		return err
	})
	if err != nil {
		return nil, wrapErr(err, store.ErrEntryNotFound)
	}

	return &domain.EntryWithTags{Entry: *e, Tags: tags}, nil
}

// ListEntries walks the order index and keeps entries whose folded name
// contains the folded filter.
func (s *Store) ListEntries(ctx context.Context, f store.EntryFilter) ([]*domain.EntryWithTags, error) {
	var needle string
	if f.Name != "" {
		needle = filter.FoldName(f.Name)
	}

	entries := []*domain.EntryWithTags{}
	err := s.view(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryOrderPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			entryID, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}

			var rec entryRecord
			if err := getJSON(txn, entryPrefix+string(entryID), &rec); err != nil {
				return err
			}
			if needle != "" && !strings.Contains(rec.NameFolded, needle) {
				continue
			}

			tags, err := entryTags(txn, rec.ID)
			if err != nil {
				return err
			}
			entries = append(entries, &domain.EntryWithTags{Entry: rec.Entry, Tags: tags})
		}
		return nil
	})
	if err != nil {
		return nil, wrapErr(err, store.ErrEntryNotFound)
	}
	return entries, nil
}

// GetEntry returns one entry with its tags.
func (s *Store) GetEntry(ctx context.Context, id string) (*domain.EntryWithTags, error) {
	var out *domain.EntryWithTags
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		out, err = loadEntry(txn, id)
		return err
	})
	if err != nil {
		return nil, wrapErr(err, store.ErrEntryNotFound)
	}
	return out, nil
}

func loadEntry(txn *badger.Txn, id string) (*domain.EntryWithTags, error) {
	var rec entryRecord
	if err := getJSON(txn, entryPrefix+id, &rec); err != nil {
		return nil, err
	}
	tags, err := entryTags(txn, id)
	if err != nil {
		return nil, err
	}
	return &domain.EntryWithTags{Entry: rec.Entry, Tags: tags}, nil
}

// UpdateEntry overwrites the editable fields of an entry.
func (s *Store) UpdateEntry(ctx context.Context, id string, fields domain.EntryFields) (*domain.EntryWithTags, error) {
	var out *domain.EntryWithTags
	err := s.update(ctx, func(txn *badger.Txn) error {
		var rec entryRecord
		if err := getJSON(txn, entryPrefix+id, &rec); err != nil {
			return err
		}

		rec.Apply(fields, s.now())
		rec.NameFolded = filter.FoldName(rec.Name)
		if err := setJSON(txn, entryPrefix+id, rec); err != nil {
			return err
		}

		tags, err := entryTags(txn, id)
		if err != nil {
			return err
		}
		out = &domain.EntryWithTags{Entry: rec.Entry, Tags: tags}
		return nil
	})
	if err != nil {
		return nil, wrapErr(err, store.ErrEntryNotFound)
	}
	return out, nil
}

// DeleteEntry deletes the tag links, then the order index and entry record.
// A missing entry aborts the transaction before anything is written.
func (s *Store) DeleteEntry(ctx context.Context, id string) (int, error) {
	var removed int
	err := s.update(ctx, func(txn *badger.Txn) error {
		var rec entryRecord
		if err := getJSON(txn, entryPrefix+id, &rec); err != nil {
			return err
		}

		links := keysWithPrefix(txn, entryTagsPrefix+id+":")
		for _, k := range links {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		removed = len(links)

		if err := txn.Delete([]byte(orderKey(rec.Seq))); err != nil {
			return err
		}
		return txn.Delete([]byte(entryPrefix + id))
	})
	if err != nil {
		return 0, wrapErr(err, store.ErrEntryNotFound)
	}

	s.logger.Debug("entry deleted", "entry_id", id, "join_rows", removed)
	return removed, nil
}
