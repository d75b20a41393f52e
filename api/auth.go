package api

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/stacnet/stac-access-backend/interfaces"
)

// ErrBadSignature is returned when a request signature is missing, malformed,
// or does not recover to a public key.
var ErrBadSignature = errors.New("invalid request signature")

// ErrStaleSignature is returned when a signed request's timestamp falls
// outside the acceptance window. Because the timestamp is part of the signed
// digest, a captured request cannot be replayed after the window closes.
var ErrStaleSignature = errors.New("stale request signature")

// SignatureLifetime is how far a request timestamp may deviate from the
// server clock in either direction.
const SignatureLifetime = 5 * time.Minute

// RequestDigest computes the digest a caller signs: the Keccak-256 hash over
// the HTTP method, the request path, the timestamp header value, and the raw
// body. Binding method and path prevents replaying a signed body against a
// different endpoint; binding the timestamp bounds the replay window of the
// whole request.
func RequestDigest(method, path, timestamp string, body []byte) []byte {
	return crypto.Keccak256([]byte(method), []byte(path), []byte(timestamp), body)
}

// SignRequest produces the header values for a request issued at issuedAt:
// the hex-encoded signature for SignatureHeader and the unix-seconds
// timestamp for TimestampHeader.
func SignRequest(key *ecdsa.PrivateKey, method, path string, issuedAt time.Time, body []byte) (sig, timestamp string, err error) {
	timestamp = strconv.FormatInt(issuedAt.Unix(), 10)
	raw, err := crypto.Sign(RequestDigest(method, path, timestamp, body), key)
	if err != nil {
		return "", "", fmt.Errorf("signing request: %w", err)
	}
	return hex.EncodeToString(raw), timestamp, nil
}

// CheckFreshness verifies that a request timestamp parses and lies within
// SignatureLifetime of now.
func CheckFreshness(timestamp string, now time.Time) error {
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrBadSignature
	}

	skew := now.Unix() - ts
	if skew < 0 {
		skew = -skew
	}
	if skew > int64(SignatureLifetime/time.Second) {
		return ErrStaleSignature
	}
	return nil
}

// RecoverCaller recovers the caller address from a hex-encoded signature over
// the request digest. Freshness of the timestamp is checked separately via
// CheckFreshness.
func RecoverCaller(sigHex, method, path, timestamp string, body []byte) (interfaces.UserAddress, error) {
	if sigHex == "" {
		return interfaces.UserAddress{}, ErrBadSignature
	}

	sig, err := hex.DecodeString(sigHex)
	if err != nil || len(sig) != crypto.SignatureLength {
		return interfaces.UserAddress{}, ErrBadSignature
	}

	pubkey, err := crypto.SigToPub(RequestDigest(method, path, timestamp, body), sig)
	if err != nil {
		return interfaces.UserAddress{}, fmt.Errorf("%w: %s", ErrBadSignature, err)
	}

	return interfaces.UserAddress(crypto.PubkeyToAddress(*pubkey)), nil
}
