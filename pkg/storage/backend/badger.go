package backend

import (
	"encoding/json"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// BadgerBackend mirrors row-group layout metadata into a Badger store so
// the catalog survives the process. Tuple data and recovery replay are out
// of scope here; the backend only keeps the layout view current.
type BadgerBackend struct {
	db      *badger.DB
	id      string
	encoder *KeyEncoder
}

// NewBadgerBackend opens (or creates) a Badger store at the given path.
// An empty path opens an in-memory store.
func NewBadgerBackend(path string) (*BadgerBackend, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger backend: %w", err)
	}

	return &BadgerBackend{
		db:      db,
		id:      uuid.NewString(),
		encoder: NewKeyEncoder(),
	}, nil
}

// Name identifies the backend kind.
func (b *BadgerBackend) Name() string {
	return "badger"
}

// ID returns the backend instance id.
func (b *BadgerBackend) ID() string {
	return b.id
}

// SaveGroupMeta persists the metadata under meta:rowgroup:{id}.
func (b *BadgerBackend) SaveGroupMeta(meta *GroupMeta) error {
	meta.BackendID = b.id
	meta.UpdatedAt = time.Now()

	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal group meta: %w", err)
	}

	key := b.encoder.EncodeGroupMetaKey(meta.RowGroupID)
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// DeleteGroupMeta removes the metadata for a row group.
func (b *BadgerBackend) DeleteGroupMeta(rowGroupID uint64) error {
	key := b.encoder.EncodeGroupMetaKey(rowGroupID)
	return b.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(key)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

// GetGroupMeta loads the stored metadata for a row group.
func (b *BadgerBackend) GetGroupMeta(rowGroupID uint64) (*GroupMeta, bool) {
	key := b.encoder.EncodeGroupMetaKey(rowGroupID)

	var meta GroupMeta
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if err != nil {
		return nil, false
	}
	return &meta, true
}

// ListGroupIDs scans all persisted row group ids.
func (b *BadgerBackend) ListGroupIDs() ([]uint64, error) {
	prefix := b.encoder.EncodeGroupMetaPrefix()
	var ids []uint64

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if id, ok := b.encoder.DecodeGroupMetaKey(it.Item().Key()); ok {
				ids = append(ids, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Close closes the underlying store.
func (b *BadgerBackend) Close() error {
	return b.db.Close()
}
