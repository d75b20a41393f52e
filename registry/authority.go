package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/stacnet/stac-access-backend/interfaces"
)

// ErrInvalidPrice is returned when a price update carries a nil or negative
// amount. Zero is permitted: pricing is owner policy and free access is a
// legitimate choice.
var ErrInvalidPrice = errors.New("invalid price")

// systemClock is the default clock when none is injected.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// authority bundles the control surfaces both registry variants share: the
// owner capability check, the owner-mutable price, and the funds pool settled
// through the payment ledger. It carries no lock of its own; the embedding
// registry's mutex guards every call.
type authority struct {
	owner   interfaces.UserAddress
	account interfaces.UserAddress
	price   *big.Int
	pool    *big.Int
	ledger  interfaces.PaymentLedger
	clock   interfaces.Clock
	feed    *EventFeed
	log     *slog.Logger
}

func newAuthority(owner, account interfaces.UserAddress, price *big.Int, ledger interfaces.PaymentLedger, clock interfaces.Clock, feed *EventFeed, log *slog.Logger) (*authority, error) {
	if price == nil || price.Sign() < 0 {
		return nil, ErrInvalidPrice
	}
	if ledger == nil {
		return nil, errors.New("payment ledger is required")
	}
	if clock == nil {
		clock = systemClock{}
	}
	if feed == nil {
		feed = NewEventFeed()
	}
	if log == nil {
		log = slog.Default()
	}

	return &authority{
		owner:   owner,
		account: account,
		price:   new(big.Int).Set(price),
		pool:    new(big.Int),
		ledger:  ledger,
		clock:   clock,
		feed:    feed,
		log:     log,
	}, nil
}

// requireOwner enforces the owner capability on administrative operations.
func (a *authority) requireOwner(caller interfaces.UserAddress) error {
	if !caller.Equal(a.owner) {
		return interfaces.ErrUnauthorized
	}
	return nil
}

// checkPayment enforces the exact-match payment policy.
func (a *authority) checkPayment(paid *big.Int) error {
	if paid == nil || paid.Cmp(a.price) != 0 {
		return interfaces.ErrPaymentMismatch
	}
	return nil
}

// collect settles an exact-price payment from caller into the registry
// account and adds it to the funds pool. The precondition checks have already
// passed; a settlement failure still leaves the pool untouched.
func (a *authority) collect(caller interfaces.UserAddress, paid *big.Int) error {
	if err := a.ledger.Transfer(caller, a.account, paid); err != nil {
		return fmt.Errorf("%w: settlement: %s", interfaces.ErrPaymentMismatch, err)
	}
	a.pool.Add(a.pool, paid)
	return nil
}

// setPrice replaces the current price. Takes effect for purchases strictly
// after this call; settled purchases are unaffected.
func (a *authority) setPrice(caller interfaces.UserAddress, newPrice *big.Int) error {
	if err := a.requireOwner(caller); err != nil {
		return err
	}
	if newPrice == nil || newPrice.Sign() < 0 {
		return ErrInvalidPrice
	}

	a.price = new(big.Int).Set(newPrice)
	a.log.Info("Access price updated", "price", a.price.String())
	a.feed.Publish(interfaces.Event{
		Kind:   interfaces.EventPriceUpdated,
		User:   a.owner,
		Amount: new(big.Int).Set(a.price),
	})
	return nil
}

// withdraw drains the entire funds pool to the owner in one atomic action.
// An empty pool is a successful zero-amount no-op. The pool is decremented
// only after the ledger confirms the transfer.
func (a *authority) withdraw(caller interfaces.UserAddress) (*big.Int, error) {
	if err := a.requireOwner(caller); err != nil {
		return nil, err
	}

	if a.pool.Sign() == 0 {
		a.log.Debug("Withdrawal requested on empty pool")
		return new(big.Int), nil
	}

	amount := new(big.Int).Set(a.pool)
	if err := a.ledger.Transfer(a.account, a.owner, amount); err != nil {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrTransferFailed, err)
	}
	a.pool.SetInt64(0)

	a.log.Info("Funds withdrawn", "amount", amount.String(), "owner", a.owner.String())
	a.feed.Publish(interfaces.Event{
		Kind:   interfaces.EventFundsWithdrawn,
		User:   a.owner,
		Amount: new(big.Int).Set(amount),
	})
	return amount, nil
}

func (a *authority) currentPrice() *big.Int { return new(big.Int).Set(a.price) }
func (a *authority) currentPool() *big.Int  { return new(big.Int).Set(a.pool) }
