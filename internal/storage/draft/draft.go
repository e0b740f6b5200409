// Package draft mirrors the designer state to a local bbolt file so an
// interrupted session can be recovered.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"certdesign/internal/designer"
)

// Key is the fixed namespace the draft is stored under.
const Key = "designer-enterprise-storage-v1"

// DefaultMaxBytes matches the quota of a browser's local storage.
const DefaultMaxBytes = 5 << 20

var (
	ErrNoDraft       = errors.New("no draft stored")
	ErrQuotaExceeded = errors.New("draft exceeds storage quota")
)

var bucketDrafts = []byte("drafts")

var _ designer.DraftSink = (*Storage)(nil)

type Storage struct {
	db       *bbolt.DB
	maxBytes int
}

type Option func(*Storage)

// WithMaxBytes sets the largest encoded draft Save accepts. Zero or less
// disables the check.
func WithMaxBytes(n int) Option {
	return func(s *Storage) { s.maxBytes = n }
}

// New opens or creates the draft database at dbPath.
func New(ctx context.Context, dbPath string, opts ...Option) (*Storage, error) {
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &Storage{db: db, maxBytes: DefaultMaxBytes}
	for _, opt := range opts {
		opt(s)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketDrafts)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create drafts bucket: %w", err)
	}
	return s, nil
}

func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save replaces the stored draft. A draft larger than the quota is refused
// and the previous one is kept.
func (s *Storage) Save(ctx context.Context, d designer.Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	if s.maxBytes > 0 && len(data) > s.maxBytes {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrQuotaExceeded, len(data), s.maxBytes)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDrafts)
		if bucket == nil {
			return fmt.Errorf("drafts bucket not found")
		}
		if err := bucket.Put([]byte(Key), data); err != nil {
			return fmt.Errorf("failed to save draft: %w", err)
		}
		return nil
	})
}

// SaveDraft implements designer.DraftSink.
func (s *Storage) SaveDraft(ctx context.Context, d designer.Draft) error {
	return s.Save(ctx, d)
}

// Load returns the stored draft, or ErrNoDraft.
func (s *Storage) Load(ctx context.Context) (designer.Draft, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDrafts)
		if bucket == nil {
			return fmt.Errorf("drafts bucket not found")
		}
		// The value is only valid inside the transaction.
		if v := bucket.Get([]byte(Key)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return designer.Draft{}, err
	}
	if data == nil {
		return designer.Draft{}, ErrNoDraft
	}

	var d designer.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return designer.Draft{}, fmt.Errorf("failed to decode draft: %w", err)
	}
	return d, nil
}

// Clear removes the stored draft.
func (s *Storage) Clear(ctx context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDrafts)
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(Key))
	})
}
