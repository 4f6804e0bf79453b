// Package badger implements kvstore.KV on an embedded BadgerDB database.
// One database holds every table; tables are key prefixes. The database
// handle is shared, so table stores do not close it.
package badger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"cob/internal/kvstore"
)

// Open opens a persistent BadgerDB at path, creating the directory if
// needed. The caller owns the returned handle and must Close it. Badger's
// internal logging is routed through logger, or disabled when nil.
func Open(path string, logger *slog.Logger) (*badger.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required for persistent database")
	}
	if err := os.MkdirAll(path, 0750); err != nil {
		return nil, fmt.Errorf("create database directory %s: %w", path, err)
	}
	opts := badger.DefaultOptions(path).WithNumVersionsToKeep(1)
	opts = withLogger(opts, logger)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return db, nil
}

// OpenInMemory opens an in-memory BadgerDB. Data is lost on Close; used
// by tests.
func OpenInMemory() (*badger.DB, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts = withLogger(opts, nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory badger database: %w", err)
	}
	return db, nil
}

func withLogger(opts badger.Options, logger *slog.Logger) badger.Options {
	if logger == nil {
		return opts.WithLogger(nil)
	}
	return opts.WithLogger(&slogAdapter{logger: logger})
}

// slogAdapter adapts slog.Logger to BadgerDB's Logger interface.
type slogAdapter struct {
	logger *slog.Logger
}

func (l *slogAdapter) Errorf(format string, args ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *slogAdapter) Warningf(format string, args ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *slogAdapter) Infof(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *slogAdapter) Debugf(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Store implements kvstore.KV as a key prefix within a shared database.
type Store struct {
	db     *badger.DB
	prefix []byte
}

// New creates a table store over db. The database stays owned by the
// caller; Close on the store is a no-op.
func New(db *badger.DB, table string) (*Store, error) {
	if table == "" {
		return nil, fmt.Errorf("table name cannot be empty")
	}
	if strings.Contains(table, "/") {
		return nil, fmt.Errorf("table name %q contains path separator", table)
	}
	return &Store{db: db, prefix: []byte(table + "/")}, nil
}

// Set stores a value for the given key.
func (s *Store) Set(ctx context.Context, key string, value []byte, opts kvstore.SetOptions) error {
	if err := kvstore.ValidateKey(key); err != nil {
		return err
	}
	k := s.key(key)
	err := s.db.Update(func(txn *badger.Txn) error {
		if opts.FailIfExists {
			if _, err := txn.Get(k); err == nil {
				return fmt.Errorf("key %q: %w", key, kvstore.ErrAlreadyExists)
			} else if err != badger.ErrKeyNotFound {
				return err
			}
		}
		return txn.Set(k, value)
	})
	if err != nil {
		return err
	}
	return nil
}

// Get retrieves the value for the given key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := kvstore.ValidateKey(key); err != nil {
		return nil, err
	}
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(key))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return fmt.Errorf("key %q: %w", key, kvstore.ErrKeyNotFound)
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Delete removes a key and its value.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := kvstore.ValidateKey(key); err != nil {
		return err
	}
	k := s.key(key)
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(k); err != nil {
			if err == badger.ErrKeyNotFound {
				return fmt.Errorf("key %q: %w", key, kvstore.ErrKeyNotFound)
			}
			return err
		}
		return txn.Delete(k)
	})
}

// List returns all keys in the table, sorted ascending.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = s.prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			k := it.Item().Key()
			keys = append(keys, string(k[len(s.prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op; the shared database is closed by its owner.
func (s *Store) Close() error { return nil }

func (s *Store) key(key string) []byte {
	return append(append([]byte(nil), s.prefix...), key...)
}
