package interfaces

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

// UserAddress represents an Ethereum-style account address identifying a caller.
type UserAddress [20]byte

// NewUserAddressFromBytes creates a user address from a raw byte slice.
func NewUserAddressFromBytes(addr []byte) (UserAddress, error) {
	if len(addr) != 20 {
		return UserAddress{}, errors.New("invalid address length: must be 20 bytes")
	}

	var res UserAddress
	copy(res[:], addr)
	return res, nil
}

// NewUserAddressFromHex creates a user address from a hex string, with or
// without a 0x prefix.
func NewUserAddressFromHex(addr string) (UserAddress, error) {
	clean := strings.TrimPrefix(addr, "0x")
	if len(clean) != 40 {
		return UserAddress{}, errors.New("invalid address length: hex string must be 40 characters")
	}

	addrBytes, err := hex.DecodeString(clean)
	if err != nil {
		return UserAddress{}, fmt.Errorf("invalid hex format: %w", err)
	}

	return NewUserAddressFromBytes(addrBytes)
}

// String returns the hex string representation of the address.
func (addr UserAddress) String() string {
	return hex.EncodeToString(addr[:])
}

// Bytes returns the raw 20-byte address.
func (addr UserAddress) Bytes() []byte {
	return addr[:]
}

// Equal compares two user addresses for equality.
func (addr UserAddress) Equal(other UserAddress) bool {
	return addr == other
}

// Digest is a 32-byte commitment digest. The zero digest is the inactive
// sentinel for stored access records.
type Digest [32]byte

// NewDigestFromHex creates a digest from a hex string, with or without a 0x prefix.
func NewDigestFromHex(s string) (Digest, error) {
	clean := strings.TrimPrefix(s, "0x")
	if len(clean) != 64 {
		return Digest{}, errors.New("invalid digest length: hex string must be 64 characters")
	}

	raw, err := hex.DecodeString(clean)
	if err != nil {
		return Digest{}, fmt.Errorf("invalid hex format: %w", err)
	}

	var d Digest
	copy(d[:], raw)
	return d, nil
}

// String returns the hex string representation of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether the digest is the zero sentinel.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// Clock abstracts the monotonic time source used for expiry decisions so tests
// can control it.
type Clock interface {
	Now() time.Time
}
