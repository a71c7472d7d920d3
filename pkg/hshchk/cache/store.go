package cache

import (
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned when a cache entry doesn't exist.
var ErrNotFound = errors.New("cache entry not found")

// Store wraps Badger for cache operations.
type Store struct {
	db *badger.DB
}

// OpenStore opens or creates a cache store at the given path.
func OpenStore(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // badger logs to stderr otherwise

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get retrieves the entry for root and relative path.
func (s *Store) Get(root, relPath string) (*Entry, error) {
	var entry Entry

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(MakeKey(root, relPath))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(entry.Decode)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Put stores an entry.
func (s *Store) Put(root, relPath string, entry *Entry) error {
	value, err := entry.Encode()
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(MakeKey(root, relPath), value)
	})
}

// PutBatch stores multiple entries in one write batch.
func (s *Store) PutBatch(root string, entries map[string]*Entry) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for relPath, entry := range entries {
		value, err := entry.Encode()
		if err != nil {
			return err
		}
		if err := wb.Set(MakeKey(root, relPath), value); err != nil {
			return err
		}
	}

	return wb.Flush()
}

// DeletePrefix removes all entries under root. An empty root removes everything.
func (s *Store) DeletePrefix(root string) error {
	prefix := MakeKeyPrefix(root)

	return s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := txn.Delete(it.Item().KeyCopy(nil)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Count returns the number of entries and distinct roots in the store.
func (s *Store) Count() (entries int, roots int, err error) {
	seen := make(map[string]struct{})

	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			root, _ := ParseKey(it.Item().Key())
			seen[root] = struct{}{}
			entries++
		}
		return nil
	})
	return entries, len(seen), err
}
