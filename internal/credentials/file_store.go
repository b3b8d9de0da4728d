package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oselz/sellerdash/internal/logger"
)

// FileStore keeps one JSON file per integration under a single directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (f *FileStore) path(integration string) string {
	return filepath.Join(f.dir, integration+".json")
}

// Load reads the record for integration. Missing and malformed files both map
// to ErrNotFound.
func (f *FileStore) Load(integration string) (*Record, error) {
	data, err := os.ReadFile(f.path(integration))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	record := &Record{}
	if err := json.Unmarshal(data, record); err != nil {
		logger.Get().Warn().
			Str("integration", integration).
			Err(err).
			Msg("Credentials file is corrupt, treating as missing")
		return nil, ErrNotFound
	}
	return record, nil
}

// Save writes the record via a temp file and rename so a concurrent reader
// never observes a half-written record.
func (f *FileStore) Save(integration string, record *Record) error {
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", f.dir, err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, integration+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp credentials file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to set credentials file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp credentials file: %w", err)
	}

	if err := os.Rename(tmpName, f.path(integration)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}
	return nil
}
