package storage

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const badgerKeyPrefix = "labctl:"

// BadgerStorage keeps values in an embedded BadgerDB.
type BadgerStorage struct {
	db  *badger.DB
	dir string
}

// OpenBadger opens (or creates) a BadgerDB at dir. An empty dir opens an
// in-memory database.
func OpenBadger(dir string) (*BadgerStorage, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open badger db: %w", err)
	}
	return &BadgerStorage{db: db, dir: dir}, nil
}

// Dir returns the database directory, empty for in-memory databases.
func (b *BadgerStorage) Dir() string { return b.dir }

func (b *BadgerStorage) Get(key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("storage: get %s: %w", key, err)
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *BadgerStorage) Set(key string, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(badgerKeyPrefix+key), value); err != nil {
			return fmt.Errorf("storage: set %s: %w", key, err)
		}
		return nil
	})
}

func (b *BadgerStorage) Delete(key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(badgerKeyPrefix + key)); err != nil {
			return fmt.Errorf("storage: delete %s: %w", key, err)
		}
		return nil
	})
}

func (b *BadgerStorage) Close() error {
	return b.db.Close()
}
