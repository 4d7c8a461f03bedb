package repositories

import (
	"fmt"

	"github.com/reaandrew/secscanner/core"
)

const (
	BackendFile   = "file"
	BackendBolt   = "bolt"
	BackendSqlite = "sqlite"
)

func CreateHistoryStore(backend, path, key string) (core.HistoryStore, error) {
	switch backend {
	case "", BackendFile:
		return NewFileHistoryStore(path), nil
	case BackendBolt:
		store, err := NewBoltHistoryStore(path, key)
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendSqlite:
		store, err := NewSqliteHistoryStore(path, key)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown history backend: %s", backend)
}
