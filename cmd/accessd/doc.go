// Package main (cmd/accessd) implements the access registry daemon.
//
// The daemon serves both registry variants over HTTP: the code variant issues
// per-user secrets and stores only their commitments, the key variant issues
// opaque keys stored directly. Purchases settle against an in-memory payment
// ledger seeded from an optional genesis file, and registry state can be
// persisted to a file or S3 snapshot location so it survives restarts.
//
// Example:
//
//	accessd --owner 8626f6940e2eb28930efb4cef49b2d1f2c9c1199 \
//	  --genesis-file genesis.json \
//	  --snapshot-uri file:///var/lib/accessd
package main
