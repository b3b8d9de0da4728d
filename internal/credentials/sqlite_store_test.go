package credentials

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timeUnix(sec int64) time.Time {
	return time.Unix(sec, 0)
}

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "creds.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)

	record := &Record{
		AccessToken:  "token-a",
		RefreshToken: "refresh-a",
		ExpiresAt:    1700000000,
		Scope:        "sell.inventory",
	}
	require.NoError(t, store.Save("ebay", record))

	loaded, err := store.Load("ebay")
	require.NoError(t, err)
	assert.Equal(t, record.AccessToken, loaded.AccessToken)
	assert.Equal(t, record.Scope, loaded.Scope)
}

func TestSQLiteStoreMissingRecord(t *testing.T) {
	store := newTestSQLiteStore(t)

	_, err := store.Load("amazon")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteStoreUpsertReplaces(t *testing.T) {
	store := newTestSQLiteStore(t)

	require.NoError(t, store.Save("amazon", &Record{AccessToken: "old", RefreshToken: "r1", ExpiresAt: 100}))
	require.NoError(t, store.Save("amazon", &Record{AccessToken: "new", ExpiresAt: 200}))

	loaded, err := store.Load("amazon")
	require.NoError(t, err)
	assert.Equal(t, "new", loaded.AccessToken)
	assert.Empty(t, loaded.RefreshToken)
}

func TestSQLiteStoreCorruptRowTreatedAsMissing(t *testing.T) {
	store := newTestSQLiteStore(t)

	_, err := store.db.Exec(
		`INSERT INTO oauth_credentials (integration, record) VALUES (?, ?)`,
		"amazon", "{not json",
	)
	require.NoError(t, err)

	_, err = store.Load("amazon")
	assert.True(t, errors.Is(err, ErrNotFound))
}
