package cryptoutils

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/stacnet/stac-access-backend/interfaces"
)

// NewAccessSecret derives a fresh plaintext access secret for user at issuance
// time now. The secret mixes the caller identity, the issuance timestamp, and
// 16 bytes of fresh randomness, then hashes the whole buffer so the output
// leaks none of its inputs. The caller receives the secret exactly once; only
// its commitment is stored.
func NewAccessSecret(user interfaces.UserAddress, now time.Time) (string, error) {
	buf := make([]byte, 0, 20+8+16)
	buf = append(buf, user.Bytes()...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(now.UnixNano()))

	entropy := make([]byte, 16)
	if _, err := rand.Read(entropy); err != nil {
		return "", fmt.Errorf("gathering entropy: %w", err)
	}
	buf = append(buf, entropy...)

	return hex.EncodeToString(crypto.Keccak256(buf)), nil
}

// NewAccessKey derives a fresh opaque key value for user. The issuance
// sequence number distinguishes re-purchases by the same user within one
// clock tick.
func NewAccessKey(user interfaces.UserAddress, sequence uint64, now time.Time) (string, error) {
	buf := make([]byte, 0, 20+8+8+16)
	buf = append(buf, user.Bytes()...)
	buf = binary.BigEndian.AppendUint64(buf, sequence)
	buf = binary.BigEndian.AppendUint64(buf, uint64(now.UnixNano()))

	entropy := make([]byte, 16)
	if _, err := rand.Read(entropy); err != nil {
		return "", fmt.Errorf("gathering entropy: %w", err)
	}
	buf = append(buf, entropy...)

	return hex.EncodeToString(crypto.Keccak256(buf)), nil
}

// RegistryAccount derives the deterministic ledger account address a registry
// collects payments into, from a stable registry name.
func RegistryAccount(name string) interfaces.UserAddress {
	hash := crypto.Keccak256([]byte("stac-access-registry-account:" + name))

	var addr interfaces.UserAddress
	copy(addr[:], hash[12:32])
	return addr
}
