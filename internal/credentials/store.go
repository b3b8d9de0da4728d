package credentials

import "errors"

// ErrNotFound is returned by a Store when no usable record exists for an
// integration. Corrupt or unreadable records are reported the same way so
// callers fall back to acquiring a fresh credential instead of failing hard.
var ErrNotFound = errors.New("credentials: record not found")

// Store persists one Record per integration. Save replaces the record as a
// whole; implementations must never leave a reader with a partially written
// record.
type Store interface {
	Load(integration string) (*Record, error)
	Save(integration string, record *Record) error
}
