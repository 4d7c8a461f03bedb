package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/reaandrew/secscanner/core"
	"github.com/reaandrew/secscanner/utils"
	log "github.com/sirupsen/logrus"
)

// SqliteHistoryStore keeps the serialized history in a key/value table.
type SqliteHistoryStore struct {
	db  *sql.DB
	key string
}

// NewSqliteHistoryStore opens (or creates) the database at dbPath.
func NewSqliteHistoryStore(dbPath, key string) (*SqliteHistoryStore, error) {
	if key == "" {
		key = DefaultHistoryKey
	}
	if err := utils.EnsureParentDir(dbPath); err != nil {
		return nil, err
	}
	db, err := InitializeSQLiteDB(dbPath)
	if err != nil {
		return nil, err
	}
	return &SqliteHistoryStore{db: db, key: key}, nil
}

// InitializeSQLiteDB opens the database and applies the history schema.
func InitializeSQLiteDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		log.Printf("Could not enable WAL for %s: %v", dbPath, err)
	}

	createStmt := `CREATE TABLE IF NOT EXISTS history (
		key TEXT PRIMARY KEY,
		json_data TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := db.Exec(createStmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history table: %w", err)
	}

	return db, nil
}

func (s *SqliteHistoryStore) Load() ([]core.ScanResult, error) {
	row := s.db.QueryRow(`SELECT json_data FROM history WHERE key = ?`, s.key)

	var jsonData string
	if err := row.Scan(&jsonData); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrHistoryNotFound
		}
		return nil, fmt.Errorf("failed to read history row %s: %w", s.key, err)
	}
	return decodeHistory([]byte(jsonData))
}

func (s *SqliteHistoryStore) Save(history []core.ScanResult) error {
	data, err := encodeHistory(history)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO history (key, json_data, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET json_data = excluded.json_data, updated_at = CURRENT_TIMESTAMP
	`, s.key, string(data))
	if err != nil {
		return fmt.Errorf("failed to save history row %s: %w", s.key, err)
	}
	return nil
}

func (s *SqliteHistoryStore) Close() error {
	return s.db.Close()
}
