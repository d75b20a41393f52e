package interfaces

import (
	"context"
	"errors"
)

// ErrSnapshotNotFound is returned when a snapshot backend holds no snapshot yet.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrInvalidLocationURI is returned when a storage location URI cannot be parsed.
var ErrInvalidLocationURI = errors.New("invalid storage location URI")

// StorageBackendLocation is a URI identifying a snapshot storage backend,
// e.g. file:///var/lib/accessd or s3://key:secret@bucket/prefix?region=us-east-1.
type StorageBackendLocation string

// SnapshotBackend persists serialized registry state so a restarted daemon
// keeps its issued records.
type SnapshotBackend interface {
	// Save stores the serialized snapshot, replacing any previous one.
	Save(ctx context.Context, snapshot []byte) error

	// Load retrieves the most recent snapshot. Returns ErrSnapshotNotFound
	// when none has been saved.
	Load(ctx context.Context) ([]byte, error)

	// LocationURI returns the URI identifying this backend.
	LocationURI() string
}

// SnapshotBackendFactory creates snapshot backends from location URIs.
type SnapshotBackendFactory interface {
	BackendFor(location StorageBackendLocation) (SnapshotBackend, error)
}
