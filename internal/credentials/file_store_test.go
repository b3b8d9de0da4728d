package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir())

	record := &Record{
		AccessToken:  "token-a",
		RefreshToken: "refresh-a",
		ExpiresAt:    1700000000,
		TokenType:    "bearer",
	}

	require.NoError(t, store.Save("amazon", record))

	loaded, err := store.Load("amazon")
	require.NoError(t, err)
	assert.Equal(t, record.AccessToken, loaded.AccessToken)
	assert.Equal(t, record.RefreshToken, loaded.RefreshToken)
	assert.Equal(t, record.ExpiresAt, loaded.ExpiresAt)
}

func TestFileStoreMissingRecord(t *testing.T) {
	store := NewFileStore(t.TempDir())

	_, err := store.Load("ebay")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFileStoreCorruptRecordTreatedAsMissing(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "amazon.json"), []byte("{not json"), 0o600))

	_, err := store.Load("amazon")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFileStoreSaveReplacesWholeRecord(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	require.NoError(t, store.Save("amazon", &Record{AccessToken: "old", RefreshToken: "r1", ExpiresAt: 100}))
	require.NoError(t, store.Save("amazon", &Record{AccessToken: "new", ExpiresAt: 200}))

	loaded, err := store.Load("amazon")
	require.NoError(t, err)
	assert.Equal(t, "new", loaded.AccessToken)
	assert.Equal(t, int64(200), loaded.ExpiresAt)
	// Whole-record replacement: the old refresh token is gone, not merged.
	assert.Empty(t, loaded.RefreshToken)
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	require.NoError(t, store.Save("ebay", &Record{AccessToken: "t", ExpiresAt: 1}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasSuffix(entry.Name(), ".tmp"), "temp file left behind: %s", entry.Name())
	}
}

func TestRecordValid(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		nowSec int64
		want   bool
	}{
		{name: "future expiry", record: Record{AccessToken: "t", ExpiresAt: 1000}, nowSec: 999, want: true},
		{name: "at expiry", record: Record{AccessToken: "t", ExpiresAt: 1000}, nowSec: 1000, want: false},
		{name: "past expiry", record: Record{AccessToken: "t", ExpiresAt: 1000}, nowSec: 1001, want: false},
		{name: "no token", record: Record{ExpiresAt: 1000}, nowSec: 1, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.record.Valid(timeUnix(tt.nowSec))
			if got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}
