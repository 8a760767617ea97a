package badgerstore

import (
	"context"
	"errors"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/catalogapp/catalog-server/internal/domain"
	idgen "github.com/catalogapp/catalog-server/internal/id"
	"github.com/catalogapp/catalog-server/internal/store"
)

// CreateOrGetTag reads the name index and inserts the tag in the same
// transaction. Concurrent creators conflict on the index key; the loser is
// retried and finds the winner's tag.
func (s *Store) CreateOrGetTag(ctx context.Context, name string) (*domain.Tag, bool, error) {
	if name == "" {
		return nil, false, store.ErrInvalidInput.WithMessage("tag name is required")
	}

	var (
		tag     domain.Tag
		created bool
	)
	err := s.update(ctx, func(txn *badger.Txn) error {
		created = false

		existingID, err := getString(txn, tagByNamePrefix+name)
		if err == nil {
			return getJSON(txn, tagPrefix+existingID, &tag)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		tagID, err := s.ids.Generate(idgen.PrefixTag)
		if err != nil {
			return err
		}
		tag = domain.Tag{ID: tagID, Name: name, CreatedAt: s.now()}
		if err := setJSON(txn, tagPrefix+tagID, tag); err != nil {
			return err
		}
		if err := txn.Set([]byte(tagByNamePrefix+name), []byte(tagID)); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, wrapErr(err, store.ErrTagNotFound)
	}

	if created {
		s.logger.Debug("tag created", "tag_id", tag.ID, "name", name)
	}
	return &tag, created, nil
}

// ListTags returns all tags ordered by name.
func (s *Store) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	tags := []*domain.Tag{}
	err := s.view(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(tagByNamePrefix)
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		// The name index iterates in name order.
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			tagID, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var t domain.Tag
			if err := getJSON(txn, tagPrefix+string(tagID), &t); err != nil {
				return err
			}
			tags = append(tags, &t)
		}
		return nil
	})
	if err != nil {
		return nil, wrapErr(err, store.ErrTagNotFound)
	}
	return tags, nil
}

// GetTagsByName returns the tags that exist among names, ordered by name.
func (s *Store) GetTagsByName(ctx context.Context, names []string) ([]*domain.Tag, error) {
	var tags []*domain.Tag
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		tags, err = tagsByName(txn, names)
		return err
	})
	if err != nil {
		return nil, wrapErr(err, store.ErrTagNotFound)
	}
	return tags, nil
}

func tagsByName(txn *badger.Txn, names []string) ([]*domain.Tag, error) {
	tags := []*domain.Tag{}
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup || name == "" {
			continue
		}
		seen[name] = struct{}{}

		tagID, err := getString(txn, tagByNamePrefix+name)
		if errors.Is(err, badger.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var t domain.Tag
		if err := getJSON(txn, tagPrefix+tagID, &t); err != nil {
			return nil, err
		}
		tags = append(tags, &t)
	}

	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

// attachTags links existing tags to entryID inside txn and returns the tags
// newly linked.
func attachTags(txn *badger.Txn, entryID string, names []string) ([]domain.Tag, error) {
	tags, err := tagsByName(txn, names)
	if err != nil {
		return nil, err
	}

	attached := make([]domain.Tag, 0, len(tags))
	for _, t := range tags {
		key := []byte(entryTagsPrefix + entryID + ":" + t.ID)
		_, err := txn.Get(key)
		if err == nil {
			continue
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return nil, err
		}
		if err := txn.Set(key, nil); err != nil {
			return nil, err
		}
		attached = append(attached, *t)
	}
	return attached, nil
}

// AttachTags links existing tags to an entry.
func (s *Store) AttachTags(ctx context.Context, entryID string, tagNames []string) ([]domain.Tag, error) {
	var attached []domain.Tag
	err := s.update(ctx, func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(entryPrefix + entryID)); err != nil {
			return err
		}
		var err error
		attached, err = attachTags(txn, entryID, tagNames)
		return err
	})
	if err != nil {
		return nil, wrapErr(err, store.ErrEntryNotFound)
	}
	return attached, nil
}

// entryTags loads the tags linked to entryID, ordered by name.
func entryTags(txn *badger.Txn, entryID string) ([]domain.Tag, error) {
	prefix := entryTagsPrefix + entryID + ":"
	keys := keysWithPrefix(txn, prefix)

	tags := make([]domain.Tag, 0, len(keys))
	for _, k := range keys {
		tagID := string(k[len(prefix):])
		var t domain.Tag
		if err := getJSON(txn, tagPrefix+tagID, &t); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}

	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}
