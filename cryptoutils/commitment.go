package cryptoutils

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"

	"github.com/stacnet/stac-access-backend/interfaces"
)

// Scheme names accepted by NewCommitmentScheme.
const (
	SchemeKeccak256 = "keccak256"
	SchemeSHA3256   = "sha3-256"
)

// NewCommitmentScheme returns the commitment scheme registered under name.
func NewCommitmentScheme(name string) (interfaces.CommitmentScheme, error) {
	switch name {
	case SchemeKeccak256:
		return KeccakScheme{}, nil
	case SchemeSHA3256:
		return SHA3Scheme{}, nil
	default:
		return nil, fmt.Errorf("unknown commitment scheme: %s", name)
	}
}

// KeccakScheme commits to secrets with legacy Keccak-256, the hash used by
// EVM contracts. It is the default scheme.
type KeccakScheme struct{}

// Commit returns the Keccak-256 digest of the secret.
func (KeccakScheme) Commit(secret string) interfaces.Digest {
	return interfaces.Digest(crypto.Keccak256Hash([]byte(secret)))
}

// Verify re-hashes candidate and compares it against digest. The zero digest
// never verifies, so inactive records always fail.
func (s KeccakScheme) Verify(digest interfaces.Digest, candidate string) bool {
	if digest.IsZero() {
		return false
	}
	return s.Commit(candidate) == digest
}

// SHA3Scheme commits to secrets with standardized SHA3-256.
type SHA3Scheme struct{}

// Commit returns the SHA3-256 digest of the secret.
func (SHA3Scheme) Commit(secret string) interfaces.Digest {
	return interfaces.Digest(sha3.Sum256([]byte(secret)))
}

// Verify re-hashes candidate and compares it against digest.
func (s SHA3Scheme) Verify(digest interfaces.Digest, candidate string) bool {
	if digest.IsZero() {
		return false
	}
	return s.Commit(candidate) == digest
}
