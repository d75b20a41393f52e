// Package storage provides snapshot persistence backends for registry state.
//
// A restarted daemon restores its issued records, prices, and funds pool from
// the most recent snapshot. Backends are created from location URIs by the
// SnapshotBackendFactory:
//
//   - file:///var/lib/accessd: local filesystem
//   - s3://access-key:secret@bucket/prefix?region=us-east-1: S3-compatible
//     object storage
package storage
