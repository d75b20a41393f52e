// Package cryptoutils provides the commitment schemes and secret generation
// used by the access registries.
//
// A commitment scheme binds an issued secret to a fixed-size digest without
// revealing it; verification re-hashes a presented candidate and compares it
// against the stored digest. Two schemes are provided:
//
//   - Keccak-256, matching EVM-style keccak hashing (the default)
//   - SHA3-256, for deployments without an EVM heritage
//
// Secrets and opaque keys are derived from the purchaser's address, the
// issuance time, and fresh randomness, so two purchases never yield the same
// value. Only the digest of a secret is ever persisted.
package cryptoutils
