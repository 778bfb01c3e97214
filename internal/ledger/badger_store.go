package ledger

import (
	"fmt"
	"path/filepath"

	badger "github.com/dgraph-io/badger/v4"
)

// BadgerStore implements Store using BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(filepath.Clean(dir)).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger open: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (b *BadgerStore) Close() error { return b.db.Close() }

func (b *BadgerStore) Has(orderID string) (bool, error) {
	err := b.db.View(func(txn *badger.Txn) error {
		_, e := txn.Get([]byte(orderID))
		return e
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("badger get: %w", err)
	}
	return true, nil
}

func (b *BadgerStore) Get(orderID string) (Entry, bool, error) {
	var entry Entry
	err := b.db.View(func(txn *badger.Txn) error {
		item, e := txn.Get([]byte(orderID))
		if e != nil {
			return e
		}
		v, e := item.ValueCopy(nil)
		if e != nil {
			return e
		}
		entry, e = decodeEntry(v)
		return e
	})
	if err == badger.ErrKeyNotFound {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("badger get: %w", err)
	}
	return entry, true, nil
}

func (b *BadgerStore) Record(orderID string, e Entry) error {
	bytes, err := encodeEntry(e)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(orderID), bytes)
	})
	if err != nil {
		return fmt.Errorf("badger set: %w", err)
	}
	return b.db.Sync()
}

func (b *BadgerStore) Range(fn func(orderID string, e Entry) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			k := item.KeyCopy(nil)
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			e, err := decodeEntry(v)
			if err != nil {
				return err
			}
			if err := fn(string(k), e); err != nil {
				return err
			}
		}
		return nil
	})
}
