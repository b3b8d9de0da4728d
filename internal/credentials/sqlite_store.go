package credentials

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/oselz/sellerdash/internal/logger"
)

// SQLiteStore persists records in a single SQLite table, one row per
// integration. The whole record is stored as a JSON blob so a save is a
// single-statement replacement.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS oauth_credentials (
		integration TEXT PRIMARY KEY,
		record TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads the record for integration. A missing row or an unreadable blob
// maps to ErrNotFound.
func (s *SQLiteStore) Load(integration string) (*Record, error) {
	var blob string
	err := s.db.QueryRow(
		`SELECT record FROM oauth_credentials WHERE integration = ?`, integration,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials row: %w", err)
	}

	record := &Record{}
	if err := json.Unmarshal([]byte(blob), record); err != nil {
		logger.Get().Warn().
			Str("integration", integration).
			Err(err).
			Msg("Credentials row is corrupt, treating as missing")
		return nil, ErrNotFound
	}
	return record, nil
}

// Save replaces the row for integration in one UPSERT.
func (s *SQLiteStore) Save(integration string, record *Record) error {
	blob, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO oauth_credentials (integration, record, updated_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(integration) DO UPDATE SET
		   record = excluded.record,
		   updated_at = CURRENT_TIMESTAMP`,
		integration, string(blob),
	)
	if err != nil {
		return fmt.Errorf("failed to save credentials row: %w", err)
	}
	return nil
}
