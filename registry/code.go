package registry

import (
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/stacnet/stac-access-backend/cryptoutils"
	"github.com/stacnet/stac-access-backend/interfaces"
)

// DefaultAccessDuration is the validity window of a newly issued access code
// when the config does not override it.
const DefaultAccessDuration = 30 * 24 * time.Hour

// CodeRegistryConfig configures a CodeRegistry.
type CodeRegistryConfig struct {
	// Owner is the single privileged identity for administrative operations.
	// Immutable after construction.
	Owner interfaces.UserAddress

	// Account is the ledger account the registry collects payments into.
	// Defaults to a deterministic account derived from the registry name.
	Account interfaces.UserAddress

	// Price is the initial access price in the ledger's smallest unit.
	Price *big.Int

	// AccessDuration is how long an issued code stays valid. Defaults to
	// DefaultAccessDuration.
	AccessDuration time.Duration

	// Ledger settles purchases and withdrawals. Required.
	Ledger interfaces.PaymentLedger

	// Scheme is the commitment scheme. Defaults to Keccak-256.
	Scheme interfaces.CommitmentScheme

	// Clock is the time source for expiry decisions. Defaults to the system clock.
	Clock interfaces.Clock

	// Feed receives lifecycle events. Defaults to a fresh feed.
	Feed *EventFeed

	Log *slog.Logger
}

// CodeRegistry grants time-bounded access by issuing per-user secrets and
// storing only their commitments. It implements interfaces.AccessCodeRegistry.
type CodeRegistry struct {
	mu sync.Mutex
	*authority

	scheme   interfaces.CommitmentScheme
	duration time.Duration
	records  map[interfaces.UserAddress]interfaces.AccessRecord
}

// NewCodeRegistry creates a code-variant registry from cfg.
func NewCodeRegistry(cfg CodeRegistryConfig) (*CodeRegistry, error) {
	account := cfg.Account
	if account == (interfaces.UserAddress{}) {
		account = cryptoutils.RegistryAccount("access-code")
	}

	auth, err := newAuthority(cfg.Owner, account, cfg.Price, cfg.Ledger, cfg.Clock, cfg.Feed, cfg.Log)
	if err != nil {
		return nil, err
	}

	scheme := cfg.Scheme
	if scheme == nil {
		scheme = cryptoutils.KeccakScheme{}
	}
	duration := cfg.AccessDuration
	if duration <= 0 {
		duration = DefaultAccessDuration
	}

	return &CodeRegistry{
		authority: auth,
		scheme:    scheme,
		duration:  duration,
		records:   make(map[interfaces.UserAddress]interfaces.AccessRecord),
	}, nil
}

// PurchaseCode validates the attached payment, settles it, and issues a new
// access record for caller. The plaintext secret is returned exactly once;
// only its commitment and expiry are stored, and the emitted event carries
// only the user and expiry.
//
// Fails with interfaces.ErrPaymentMismatch unless paid equals the current
// price exactly, and with interfaces.ErrAlreadyHasAccess when caller already
// holds an active (unrevoked) record. A failed purchase retains no payment.
func (r *CodeRegistry) PurchaseCode(caller interfaces.UserAddress, paid *big.Int) (string, interfaces.AccessRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkPayment(paid); err != nil {
		return "", interfaces.AccessRecord{}, err
	}
	if r.records[caller].Active() {
		return "", interfaces.AccessRecord{}, interfaces.ErrAlreadyHasAccess
	}

	now := r.clock.Now()
	secret, err := cryptoutils.NewAccessSecret(caller, now)
	if err != nil {
		return "", interfaces.AccessRecord{}, fmt.Errorf("generating access secret: %w", err)
	}

	if err := r.collect(caller, paid); err != nil {
		return "", interfaces.AccessRecord{}, err
	}

	record := interfaces.AccessRecord{
		Commitment: r.scheme.Commit(secret),
		Expiry:     uint64(now.Add(r.duration).Unix()),
	}
	r.records[caller] = record

	r.log.Info("Access code issued", "user", caller.String(), "expiry", record.Expiry)
	r.feed.Publish(interfaces.Event{
		Kind:   interfaces.EventAccessCodeGenerated,
		User:   caller,
		Expiry: record.Expiry,
	})
	return secret, record, nil
}

// VerifyCode reports whether candidate is user's valid, unexpired secret.
// Callable by anyone; a missing record, an expired record, and a commitment
// mismatch all collapse to false. Verification never fails with an error.
func (r *CodeRegistry) VerifyCode(user interfaces.UserAddress, candidate string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[user]
	if !ok || !record.Active() {
		return false
	}
	if record.Expiry <= uint64(r.clock.Now().Unix()) {
		return false
	}
	return r.scheme.Verify(record.Commitment, candidate)
}

// Record returns user's stored access record. Revoked and never-issued users
// read back the zero sentinel record.
func (r *CodeRegistry) Record(user interfaces.UserAddress) interfaces.AccessRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.records[user]
}

// RevokeAccess clears user's record to the inactive sentinel. Owner-only.
// Revoking an inactive user is a no-op, not an error, and no refund is issued.
// A revoked user may purchase again.
func (r *CodeRegistry) RevokeAccess(caller, user interfaces.UserAddress) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireOwner(caller); err != nil {
		return err
	}

	record, ok := r.records[user]
	if !ok || !record.Active() {
		return nil
	}

	// The slot persists with sentinel values rather than being deleted.
	r.records[user] = interfaces.AccessRecord{}

	r.log.Info("Access revoked", "user", user.String())
	r.feed.Publish(interfaces.Event{Kind: interfaces.EventAccessRevoked, User: user})
	return nil
}

// UpdatePrice replaces the access price. Owner-only; affects purchases
// strictly after this call.
func (r *CodeRegistry) UpdatePrice(caller interfaces.UserAddress, newPrice *big.Int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.setPrice(caller, newPrice)
}

// Withdraw drains the collected funds pool to the owner. Owner-only.
func (r *CodeRegistry) Withdraw(caller interfaces.UserAddress) (*big.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.authority.withdraw(caller)
}

// Owner returns the administrative identity.
func (r *CodeRegistry) Owner() interfaces.UserAddress { return r.owner }

// Account returns the ledger account the registry collects payments into.
func (r *CodeRegistry) Account() interfaces.UserAddress { return r.account }

// Price returns the current access price.
func (r *CodeRegistry) Price() *big.Int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.currentPrice()
}

// Pool returns the current funds pool balance.
func (r *CodeRegistry) Pool() *big.Int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.currentPool()
}
