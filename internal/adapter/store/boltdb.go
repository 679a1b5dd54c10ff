package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"semindex/internal/domain"
	"semindex/internal/port"
)

var _ port.SnapshotStore = (*BoltStore)(nil)

var (
	bucketMeta    = []byte("meta")
	bucketEntries = []byte("entries")
	keyMethod     = []byte("method")
)

// BoltStore keeps a snapshot in a bbolt file. Entries are keyed by their
// big-endian position so a cursor walk returns them in insertion order.
type BoltStore struct {
	db *bbolt.DB
}

type storedEntry struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Embedding []float64 `json:"embedding"`
}

func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index dir: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketMeta, bucketEntries} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &BoltStore{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Save replaces the stored snapshot in a single transaction.
func (s *BoltStore) Save(snap domain.Snapshot) error {
	method, err := snap.Method.MarshalText()
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketEntries); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		entries, err := tx.CreateBucket(bucketEntries)
		if err != nil {
			return err
		}

		for i, e := range snap.Entries {
			embedding := e.Embedding
			if embedding == nil {
				embedding = []float64{}
			}
			data, err := json.Marshal(storedEntry{ID: e.ChunkID, Text: e.Text, Embedding: embedding})
			if err != nil {
				return fmt.Errorf("failed to encode chunk %s: %w", e.ChunkID, err)
			}
			if err := entries.Put(seqKey(uint64(i)), data); err != nil {
				return err
			}
		}

		return tx.Bucket(bucketMeta).Put(keyMethod, method)
	})
}

func (s *BoltStore) Load() (domain.Snapshot, error) {
	var snap domain.Snapshot
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketMeta).Get(keyMethod)
		if raw == nil {
			return domain.ErrSnapshotNotFound
		}
		if err := snap.Method.UnmarshalText(raw); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrMalformedSnapshot, err)
		}

		seen := make(map[string]struct{})
		return tx.Bucket(bucketEntries).ForEach(func(k, v []byte) error {
			var e storedEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("%w: entry %x: %v", domain.ErrMalformedSnapshot, k, err)
			}
			if _, dup := seen[e.ID]; dup {
				return fmt.Errorf("%w: duplicate chunk %s", domain.ErrMalformedSnapshot, e.ID)
			}
			seen[e.ID] = struct{}{}
			snap.Entries = append(snap.Entries, domain.SnapshotEntry{
				ChunkID:   e.ID,
				Text:      e.Text,
				Embedding: e.Embedding,
			})
			return nil
		})
	})
	if err != nil {
		return domain.Snapshot{}, err
	}
	return snap, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func seqKey(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}
