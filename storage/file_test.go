package storage

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacnet/stac-access-backend/interfaces"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFileBackendRoundTrip(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir(), testLogger())
	require.NoError(t, err)

	ctx := context.Background()

	_, err = backend.Load(ctx)
	require.ErrorIs(t, err, interfaces.ErrSnapshotNotFound)

	snapshot := []byte(`{"code":{"price":"1","pool":"0","records":{}}}`)
	require.NoError(t, backend.Save(ctx, snapshot))

	loaded, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, snapshot, loaded)

	// A second save replaces the first snapshot.
	replacement := []byte(`{"code":{"price":"2","pool":"0","records":{}}}`)
	require.NoError(t, backend.Save(ctx, replacement))

	loaded, err = backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, replacement, loaded)
}

func TestFileBackendLocationURI(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFileBackend(dir, testLogger())
	require.NoError(t, err)

	assert.Equal(t, "file://"+dir, backend.LocationURI())
}

func TestFactorySchemes(t *testing.T) {
	factory := NewSnapshotBackendFactory(testLogger())

	backend, err := factory.BackendFor(interfaces.StorageBackendLocation("file://" + t.TempDir()))
	require.NoError(t, err)
	assert.IsType(t, &FileBackend{}, backend)

	backend, err = factory.BackendFor("s3://key:secret@snapshots/accessd?region=eu-west-1")
	require.NoError(t, err)
	assert.IsType(t, &S3Backend{}, backend)

	_, err = factory.BackendFor("ftp://nope")
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)

	_, err = factory.BackendFor("file://")
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
}
