package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/stacnet/stac-access-backend/interfaces"
)

const snapshotFileName = "registry.json"

// FileBackend persists snapshots on the local file system. Writes go through
// a temp file and rename, so a crashed save never leaves a torn snapshot.
type FileBackend struct {
	baseDir     string
	log         *slog.Logger
	locationURI string
}

// NewFileBackend creates a file snapshot backend rooted at baseDir, creating
// the directory if needed.
func NewFileBackend(baseDir string, log *slog.Logger) (*FileBackend, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	return &FileBackend{
		baseDir:     baseDir,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", baseDir),
	}, nil
}

// Save stores the snapshot, replacing any previous one.
func (b *FileBackend) Save(ctx context.Context, snapshot []byte) error {
	target := filepath.Join(b.baseDir, snapshotFileName)

	tmp, err := os.CreateTemp(b.baseDir, snapshotFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(snapshot); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	b.log.Debug("Saved snapshot",
		slog.String("path", target),
		slog.Int("size", len(snapshot)))
	return nil
}

// Load retrieves the most recent snapshot. Returns
// interfaces.ErrSnapshotNotFound if none was saved yet.
func (b *FileBackend) Load(ctx context.Context) ([]byte, error) {
	target := filepath.Join(b.baseDir, snapshotFileName)

	data, err := os.ReadFile(target)
	if os.IsNotExist(err) {
		return nil, interfaces.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return data, nil
}

// LocationURI returns the URI identifying this backend.
func (b *FileBackend) LocationURI() string {
	return b.locationURI
}
