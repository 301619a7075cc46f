package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

const entriesBucket = "journal"

// keyTimeLayout is RFC3339 with a fixed-width fraction so the byte order
// of keys matches time order.
const keyTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// boltStore implements a Store backed by BoltDB. Keys are "timestamp|id"
// so a cursor walks entries in time order.
type boltStore struct {
	db *bolt.DB
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(entriesBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	return &boltStore{db: db}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Append records an entry, stamping id and time when the caller left them
// empty. Entries are never updated or deleted.
func (b *boltStore) Append(e Entry) error {
	if b == nil || b.db == nil {
		return nil
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal journal entry: %w", err)
	}
	key := []byte(e.At.Format(keyTimeLayout) + "|" + e.ID)

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(entriesBucket))
		if bucket == nil {
			return fmt.Errorf("journal bucket missing")
		}
		return bucket.Put(key, value)
	})
}

// Recent returns up to n entries, newest first.
func (b *boltStore) Recent(n int) ([]Entry, error) {
	if b == nil || b.db == nil || n <= 0 {
		return nil, nil
	}

	var out []Entry
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(entriesBucket))
		if bucket == nil {
			return fmt.Errorf("journal bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.Last(); k != nil && len(out) < n; k, v = cursor.Prev() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("decode journal entry %q: %w", string(k), err)
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
