// Package badgerstore implements store.Store on an embedded Badger key-value
// database. Writes run in Badger's serializable transactions; conflicting
// writers get badger.ErrConflict and are retried.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/catalogapp/catalog-server/internal/id"
	"github.com/catalogapp/catalog-server/internal/store"
)

// Key layout.
const (
	entryPrefix      = "entry:"             // entry:{id} → entryRecord JSON
	entryOrderPrefix = "idx:entries:order:" // idx:entries:order:{seq} → entryID
	entryTagsPrefix  = "idx:entries:tags:"  // idx:entries:tags:{entryID}:{tagID} → empty
	tagPrefix        = "tag:"               // tag:{id} → Tag JSON
	tagByNamePrefix  = "idx:tags:name:"     // idx:tags:name:{name} → tagID
	userPrefix       = "user:"              // user:{id} → User JSON
	userByEmailKey   = "idx:users:email:"   // idx:users:email:{email} → userID

	entrySeqKey = "seq:entries"
)

// maxConflictRetries bounds retries of a transaction that lost a write race.
const maxConflictRetries = 5

// Store is a Badger-backed store.Store.
type Store struct {
	db     *badger.DB
	seq    *badger.Sequence
	logger *slog.Logger
	ids    id.Generator
	now    func() time.Time
}

var _ store.Store = (*Store)(nil)

// Options configures Open.
type Options struct {
	// Path is the data directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
	Logger   *slog.Logger
}

// Open opens (or creates) the database.
func Open(opts Options) (*Store, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = nil            // badger's own logging is noisy
	bopts.SyncWrites = true       // survive crashes without corruption
	bopts.CompactL0OnClose = true // faster next startup

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	seq, err := db.GetSequence([]byte(entrySeqKey), 100)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("entry sequence: %w", err)
	}

	opts.Logger.Info("badger store opened", "path", opts.Path, "in_memory", opts.InMemory)

	return &Store{
		db:     db,
		seq:    seq,
		logger: opts.Logger,
		ids:    id.NanoID{},
		now:    time.Now,
	}, nil
}

// Close releases the sequence lease and closes the database.
func (s *Store) Close() error {
	if err := s.seq.Release(); err != nil {
		s.logger.Warn("release entry sequence", "error", err)
	}
	return s.db.Close()
}

// Ping reports whether the database is open.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return store.ErrDatabase.WithMessage("badger database is closed")
	}
	return nil
}

// update runs fn in a read-write transaction, retrying on write conflicts.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for range maxConflictRetries {
		if err = ctx.Err(); err != nil {
			return err
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return store.ErrDatabase.WithCause(err)
}

func (s *Store) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(fn)
}

// getJSON loads key into dest, returning badger.ErrKeyNotFound when absent.
func getJSON(txn *badger.Txn, key string, dest any) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dest)
	})
}

func setJSON(txn *badger.Txn, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}

func getString(txn *badger.Txn, key string) (string, error) {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return "", err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", err
	}
	return string(val), nil
}

// keysWithPrefix returns copies of every key under prefix, in key order.
func keysWithPrefix(txn *badger.Txn, prefix string) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}

// wrapErr maps badger errors onto store errors; notFound is used for
// badger.ErrKeyNotFound.
func wrapErr(err error, notFound *store.Error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, badger.ErrKeyNotFound):
		return notFound
	default:
		var se *store.Error
		if errors.As(err, &se) {
			return err
		}
		return store.ErrDatabase.WithCause(err)
	}
}
