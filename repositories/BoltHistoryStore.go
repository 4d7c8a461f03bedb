package repositories

import (
	"fmt"

	"github.com/reaandrew/secscanner/core"
	"github.com/reaandrew/secscanner/utils"
	"go.etcd.io/bbolt"
)

const BucketName = "History"

// BoltHistoryStore keeps the serialized history under one key of a bbolt bucket.
type BoltHistoryStore struct {
	db  *bbolt.DB
	key string
}

func NewBoltHistoryStore(path, key string) (*BoltHistoryStore, error) {
	if key == "" {
		key = DefaultHistoryKey
	}
	if err := utils.EnsureParentDir(path); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0666, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database %s: %w", path, err)
	}
	return &BoltHistoryStore{db: db, key: key}, nil
}

func (s *BoltHistoryStore) Load() ([]core.ScanResult, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketName))
		if b == nil {
			return core.ErrHistoryNotFound
		}
		value := b.Get([]byte(s.key))
		if value == nil {
			return core.ErrHistoryNotFound
		}
		// value is only valid for the life of the transaction.
		data = append([]byte(nil), value...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decodeHistory(data)
}

func (s *BoltHistoryStore) Save(history []core.ScanResult) error {
	data, err := encodeHistory(history)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(BucketName))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		return b.Put([]byte(s.key), data)
	})
}

func (s *BoltHistoryStore) Close() error {
	return s.db.Close()
}
