package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/stacnet/stac-access-backend/interfaces"
)

// SnapshotBackendFactory creates snapshot backends from location URIs.
type SnapshotBackendFactory struct {
	log *slog.Logger
}

// NewSnapshotBackendFactory creates a factory instance.
func NewSnapshotBackendFactory(log *slog.Logger) *SnapshotBackendFactory {
	return &SnapshotBackendFactory{log: log}
}

// BackendFor creates a snapshot backend from a location URI.
//
// Supported schemes:
//   - file://: local filesystem
//   - s3://: Amazon S3 or compatible object storage; credentials go in the
//     userinfo part, region and endpoint in query parameters
func (sf *SnapshotBackendFactory) BackendFor(location interfaces.StorageBackendLocation) (interfaces.SnapshotBackend, error) {
	u, err := url.Parse(string(location))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return sf.createFileBackend(u)
	case "s3":
		return sf.createS3Backend(u)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}

func (sf *SnapshotBackendFactory) createFileBackend(u *url.URL) (interfaces.SnapshotBackend, error) {
	dir := u.Path
	if u.Host != "" {
		// Relative form like file://snapshots/dir.
		dir = u.Host + u.Path
	}
	if dir == "" {
		return nil, fmt.Errorf("%w: missing directory path", interfaces.ErrInvalidLocationURI)
	}
	return NewFileBackend(dir, sf.log)
}

func (sf *SnapshotBackendFactory) createS3Backend(u *url.URL) (interfaces.SnapshotBackend, error) {
	bucket := u.Host
	if bucket == "" {
		return nil, fmt.Errorf("%w: missing bucket name", interfaces.ErrInvalidLocationURI)
	}

	var accessKey, secretKey string
	if u.User != nil {
		accessKey = u.User.Username()
		secretKey, _ = u.User.Password()
	}

	query := u.Query()
	region := query.Get("region")
	if region == "" {
		region = "us-east-1"
	}
	endpoint := query.Get("endpoint")
	prefix := strings.TrimPrefix(u.Path, "/")

	return NewS3Backend(bucket, prefix, region, endpoint, accessKey, secretKey, sf.log)
}
