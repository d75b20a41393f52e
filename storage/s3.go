package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/stacnet/stac-access-backend/interfaces"
)

// S3Backend persists snapshots in Amazon S3 or a compatible object store.
type S3Backend struct {
	client      *s3.S3
	bucketName  string
	prefix      string
	log         *slog.Logger
	locationURI string
}

// NewS3Backend creates an S3 snapshot backend. When accessKey and secretKey
// are empty, the default credential chain is used.
func NewS3Backend(bucketName, prefix, region, endpoint, accessKey, secretKey string, log *slog.Logger) (*S3Backend, error) {
	uri := fmt.Sprintf("s3://%s/%s?region=%s", bucketName, prefix, region)
	if endpoint != "" {
		uri += fmt.Sprintf("&endpoint=%s", endpoint)
	}

	cfg := aws.Config{
		Region: aws.String(region),
	}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
	}
	if accessKey != "" && secretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Backend{
		client:      s3.New(sess),
		bucketName:  bucketName,
		prefix:      strings.TrimSuffix(prefix, "/"),
		log:         log,
		locationURI: uri,
	}, nil
}

// Save stores the snapshot object, replacing any previous one.
func (b *S3Backend) Save(ctx context.Context, snapshot []byte) error {
	key := b.objectKey()

	_, err := b.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(snapshot),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(snapshot))),
	})
	if err != nil {
		return fmt.Errorf("failed to store snapshot in S3: %w", err)
	}

	b.log.Debug("Saved snapshot to S3",
		slog.String("bucket", b.bucketName),
		slog.String("key", key),
		slog.Int("size", len(snapshot)))
	return nil
}

// Load retrieves the most recent snapshot. Returns
// interfaces.ErrSnapshotNotFound if the object does not exist.
func (b *S3Backend) Load(ctx context.Context) ([]byte, error) {
	key := b.objectKey()

	out, err := b.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && (aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound") {
			return nil, interfaces.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to fetch snapshot from S3: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot body: %w", err)
	}
	return data, nil
}

// LocationURI returns the URI identifying this backend.
func (b *S3Backend) LocationURI() string {
	return b.locationURI
}

func (b *S3Backend) objectKey() string {
	if b.prefix == "" {
		return snapshotFileName
	}
	return path.Join(b.prefix, snapshotFileName)
}
