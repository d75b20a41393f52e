// Package interfaces defines core interfaces and types for the access
// registry system, separating interface definitions from implementations.
//
// # Registry Interfaces
//
// AccessCodeRegistry: Grants time-bounded access by issuing per-user secrets
// and storing only their commitments. Verification recomputes the commitment
// from a candidate secret and compares against the stored digest.
//
// AccessKeyRegistry: Grants access by issuing opaque keys stored directly per
// user, with a derived validity set for direct key membership checks.
//
// CommitmentScheme: Binds a plaintext secret to a fixed-size digest. The
// registry stores digests only; the plaintext is revealed to the purchaser
// exactly once.
//
// # Settlement and Storage
//
// PaymentLedger: Settles purchases and withdrawals. The registries see only
// this interface; any conforming token ledger can back them.
//
// SnapshotBackend: Persists serialized registry state to a location URI
// (file or S3) so a daemon restart does not lose purchased access.
//
// # Core Types
//
// - UserAddress: 20-byte user identity
// - Digest: 32-byte commitment hash
// - AccessRecord / AccessGrant: per-user stored state for each variant
// - Event: lifecycle notification emitted on every state mutation
//
// The package also defines the failure taxonomy shared by both variants:
// ErrPaymentMismatch, ErrAlreadyHasAccess, ErrUnauthorized and
// ErrTransferFailed.
package interfaces
