package registry

import (
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/stacnet/stac-access-backend/cryptoutils"
	"github.com/stacnet/stac-access-backend/interfaces"
)

// KeyRegistryConfig configures a KeyRegistry.
type KeyRegistryConfig struct {
	// Owner is the single privileged identity for administrative operations.
	Owner interfaces.UserAddress

	// Account is the ledger account the registry collects payments into.
	// Defaults to a deterministic account derived from the registry name.
	Account interfaces.UserAddress

	// Price is the initial key price in the ledger's smallest unit.
	Price *big.Int

	// Ledger settles purchases and withdrawals. Required.
	Ledger interfaces.PaymentLedger

	// Clock is the time source for key derivation. Defaults to the system clock.
	Clock interfaces.Clock

	// Feed receives lifecycle events. Defaults to a fresh feed.
	Feed *EventFeed

	Log *slog.Logger
}

// KeyRegistry grants access by issuing opaque keys stored directly per user,
// with a derived validity set for direct membership checks. Keys do not
// expire; only revocation invalidates them. It implements
// interfaces.AccessKeyRegistry.
type KeyRegistry struct {
	mu sync.Mutex
	*authority

	grants   map[interfaces.UserAddress]interfaces.AccessGrant
	valid    map[string]bool
	sequence uint64
}

// NewKeyRegistry creates a key-variant registry from cfg.
func NewKeyRegistry(cfg KeyRegistryConfig) (*KeyRegistry, error) {
	account := cfg.Account
	if account == (interfaces.UserAddress{}) {
		account = cryptoutils.RegistryAccount("access-key")
	}

	auth, err := newAuthority(cfg.Owner, account, cfg.Price, cfg.Ledger, cfg.Clock, cfg.Feed, cfg.Log)
	if err != nil {
		return nil, err
	}

	return &KeyRegistry{
		authority: auth,
		grants:    make(map[interfaces.UserAddress]interfaces.AccessGrant),
		valid:     make(map[string]bool),
	}, nil
}

// PurchaseKey validates the attached payment, settles it, and issues a new
// opaque key for caller, marking it valid. The issuance event carries only
// the user; the key itself stays retrievable via AccessKey.
//
// Fails with interfaces.ErrPaymentMismatch unless paid equals the current
// price exactly, and with interfaces.ErrAlreadyHasAccess when caller already
// holds an issued key.
func (r *KeyRegistry) PurchaseKey(caller interfaces.UserAddress, paid *big.Int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkPayment(paid); err != nil {
		return "", err
	}
	if r.grants[caller].Active() {
		return "", interfaces.ErrAlreadyHasAccess
	}

	r.sequence++
	key, err := cryptoutils.NewAccessKey(caller, r.sequence, r.clock.Now())
	if err != nil {
		return "", fmt.Errorf("generating access key: %w", err)
	}

	if err := r.collect(caller, paid); err != nil {
		return "", err
	}

	// Grant and validity set are updated together under the lock so a key is
	// valid exactly while some user's grant holds it.
	r.grants[caller] = interfaces.AccessGrant{IssuedKey: key}
	r.valid[key] = true

	r.log.Info("Access key issued", "user", caller.String())
	r.feed.Publish(interfaces.Event{Kind: interfaces.EventAccessKeyIssued, User: caller})
	return key, nil
}

// AccessKey returns user's issued key, or the empty string when inactive.
func (r *KeyRegistry) AccessKey(user interfaces.UserAddress) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.grants[user].IssuedKey
}

// KeyValid reports whether key is currently valid. Callable by anyone.
func (r *KeyRegistry) KeyValid(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.valid[key]
}

// RevokeAccess clears user's grant and flips its validity entry to false,
// atomically: a stale key never remains independently valid after its owning
// grant is revoked. Owner-only, idempotent, no refund.
func (r *KeyRegistry) RevokeAccess(caller, user interfaces.UserAddress) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireOwner(caller); err != nil {
		return err
	}

	grant, ok := r.grants[user]
	if !ok || !grant.Active() {
		return nil
	}

	r.valid[grant.IssuedKey] = false
	r.grants[user] = interfaces.AccessGrant{}

	r.log.Info("Access revoked", "user", user.String())
	r.feed.Publish(interfaces.Event{Kind: interfaces.EventAccessRevoked, User: user})
	return nil
}

// UpdatePrice replaces the key price. Owner-only; affects purchases strictly
// after this call.
func (r *KeyRegistry) UpdatePrice(caller interfaces.UserAddress, newPrice *big.Int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.setPrice(caller, newPrice)
}

// Withdraw drains the collected funds pool to the owner. Owner-only.
func (r *KeyRegistry) Withdraw(caller interfaces.UserAddress) (*big.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.authority.withdraw(caller)
}

// Owner returns the administrative identity.
func (r *KeyRegistry) Owner() interfaces.UserAddress { return r.owner }

// Account returns the ledger account the registry collects payments into.
func (r *KeyRegistry) Account() interfaces.UserAddress { return r.account }

// Price returns the current key price.
func (r *KeyRegistry) Price() *big.Int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.currentPrice()
}

// Pool returns the current funds pool balance.
func (r *KeyRegistry) Pool() *big.Int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.currentPool()
}
