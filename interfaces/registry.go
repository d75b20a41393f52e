package interfaces

import "math/big"

// AccessRecord is the stored state for the code variant: a commitment over the
// issued secret plus a unix expiry timestamp. A record is active iff Expiry > 0;
// an inactive record has the zero digest and Expiry == 0.
type AccessRecord struct {
	Commitment Digest
	Expiry     uint64
}

// Active reports whether the record is currently issued (not yet revoked).
// Expiry against the clock is checked separately during verification.
func (r AccessRecord) Active() bool {
	return r.Expiry > 0
}

// AccessGrant is the stored state for the key variant: the opaque issued key
// value, stored directly. A grant is active iff IssuedKey is non-empty.
type AccessGrant struct {
	IssuedKey string
}

// Active reports whether the grant currently holds an issued key.
func (g AccessGrant) Active() bool {
	return g.IssuedKey != ""
}

// CommitmentScheme binds a secret to a digest without revealing it, and checks
// a later-presented candidate against a stored digest. Implementations must be
// deterministic so the concrete hash primitive is swappable without touching
// lifecycle logic.
type CommitmentScheme interface {
	Commit(secret string) Digest
	Verify(digest Digest, candidate string) bool
}

// AccessCodeRegistry is the code-variant control surface: payment-gated
// issuance of hashed secrets, boolean verification, and owner-only
// administration.
type AccessCodeRegistry interface {
	// PurchaseCode issues a new access record for caller. The plaintext secret
	// is returned exactly once; only its commitment is stored.
	PurchaseCode(caller UserAddress, paid *big.Int) (secret string, record AccessRecord, err error)

	// VerifyCode reports whether candidate matches user's stored commitment and
	// the record has not expired. It never fails; any mismatch collapses to false.
	VerifyCode(user UserAddress, candidate string) bool

	// Record returns the stored access record for user, inactive sentinel included.
	Record(user UserAddress) AccessRecord

	RevokeAccess(caller, user UserAddress) error
	UpdatePrice(caller UserAddress, newPrice *big.Int) error
	Withdraw(caller UserAddress) (*big.Int, error)

	Owner() UserAddress
	Price() *big.Int
	Pool() *big.Int
}

// AccessKeyRegistry is the key-variant control surface: the issued key is
// stored directly and validity is a membership check on the derived validity
// set rather than a hash comparison.
type AccessKeyRegistry interface {
	// PurchaseKey issues a new opaque key for caller and marks it valid.
	PurchaseKey(caller UserAddress, paid *big.Int) (key string, err error)

	// AccessKey returns user's issued key, or the empty string when inactive.
	AccessKey(user UserAddress) string

	// KeyValid reports whether key is currently valid.
	KeyValid(key string) bool

	RevokeAccess(caller, user UserAddress) error
	UpdatePrice(caller UserAddress, newPrice *big.Int) error
	Withdraw(caller UserAddress) (*big.Int, error)

	Owner() UserAddress
	Price() *big.Int
	Pool() *big.Int
}

// EventKind identifies a registry lifecycle event.
type EventKind string

// Registry event kinds. Issuance events never carry secret material: the code
// event exposes only the user and expiry, the key event only the user.
const (
	EventAccessCodeGenerated EventKind = "AccessCodeGenerated"
	EventAccessKeyIssued     EventKind = "AccessKeyIssued"
	EventAccessRevoked       EventKind = "AccessRevoked"
	EventPriceUpdated        EventKind = "PriceUpdated"
	EventFundsWithdrawn      EventKind = "FundsWithdrawn"
)

// Event is a registry lifecycle notification delivered to subscribers.
type Event struct {
	Kind EventKind
	User UserAddress

	// Expiry is set for AccessCodeGenerated events.
	Expiry uint64

	// Amount is set for PriceUpdated (the new price) and FundsWithdrawn
	// (the withdrawn amount) events.
	Amount *big.Int
}
