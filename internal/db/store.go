package db

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

var ErrKeyNotFound = errors.New("key not found")

// Store is a badger database opened in in-memory mode. Nothing is written to
// disk and the contents disappear with the process.
type Store struct {
	db *badger.DB
}

func NewStore() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(key string) ([]byte, error) {
	var value []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	return value, err
}

// Insert stores value only if key is absent. It reports whether it did.
func (s *Store) Insert(key string, value []byte) (bool, error) {
	var inserted bool
	err := s.update(func(txn *badger.Txn) error {
		inserted = false
		_, err := txn.Get([]byte(key))
		switch {
		case err == nil:
			return nil
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		inserted = true
		return txn.Set([]byte(key), value)
	})
	return inserted, err
}

// Modify replaces the value at key with fn(old) in one transaction. It
// reports false if the key does not exist.
func (s *Store) Modify(key string, fn func(old []byte) ([]byte, error)) (bool, error) {
	var found bool
	err := s.update(func(txn *badger.Txn) error {
		found = false
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		old, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		next, err := fn(old)
		if err != nil {
			return err
		}
		found = true
		return txn.Set([]byte(key), next)
	})
	return found, err
}

// Delete removes key and reports whether it existed.
func (s *Store) Delete(key string) (bool, error) {
	var found bool
	err := s.update(func(txn *badger.Txn) error {
		found = false
		_, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return txn.Delete([]byte(key))
	})
	return found, err
}

// Scan calls fn for every key with the given prefix, in key order, from a
// single read transaction.
func (s *Store) Scan(prefix string, fn func(key string, value []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(string(item.Key()), value); err != nil {
				return err
			}
		}
		return nil
	})
}

// Count returns the number of keys with the given prefix.
func (s *Store) Count(prefix string) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// update runs fn in a read-write transaction, retrying until it commits
// without a conflict. A conflict means another transaction committed, so
// every retry follows progress elsewhere.
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	for {
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
}
