package repositories

import (
	"errors"
	"fmt"
	"os"

	"github.com/reaandrew/secscanner/core"
	"github.com/reaandrew/secscanner/utils"
)

// FileHistoryStore keeps the history as one JSON document on disk.
type FileHistoryStore struct {
	path string
}

func NewFileHistoryStore(path string) *FileHistoryStore {
	return &FileHistoryStore{path: path}
}

func (s *FileHistoryStore) Load() ([]core.ScanResult, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, core.ErrHistoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history file %s: %w", s.path, err)
	}
	return decodeHistory(data)
}

func (s *FileHistoryStore) Save(history []core.ScanResult) error {
	data, err := encodeHistory(history)
	if err != nil {
		return err
	}
	if err := utils.EnsureParentDir(s.path); err != nil {
		return err
	}

	// Write then rename so a crash never leaves a half written history.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write history file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace history file %s: %w", s.path, err)
	}
	return nil
}

func (s *FileHistoryStore) Close() error {
	return nil
}
