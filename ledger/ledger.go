// Package ledger provides an in-memory implementation of the
// interfaces.PaymentLedger settlement collaborator: a plain balance map with
// ERC20-style allowances. Registry logic never depends on this package
// directly; it is wired in by the daemon and by tests.
package ledger

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/stacnet/stac-access-backend/interfaces"
)

// Ledger errors.
var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInvalidAmount         = errors.New("invalid amount")
)

// InMemoryLedger is a mutex-guarded balance map with allowances. Every
// operation either applies fully or returns an error with no change.
type InMemoryLedger struct {
	mu         sync.Mutex
	balances   map[interfaces.UserAddress]*big.Int
	allowances map[interfaces.UserAddress]map[interfaces.UserAddress]*big.Int
	supply     *big.Int
}

// NewInMemoryLedger creates a ledger seeded with the provided genesis
// balances. The genesis map may be nil for an empty ledger.
func NewInMemoryLedger(genesis map[interfaces.UserAddress]*big.Int) *InMemoryLedger {
	l := &InMemoryLedger{
		balances:   make(map[interfaces.UserAddress]*big.Int),
		allowances: make(map[interfaces.UserAddress]map[interfaces.UserAddress]*big.Int),
		supply:     new(big.Int),
	}

	for addr, amount := range genesis {
		if amount == nil || amount.Sign() <= 0 {
			continue
		}
		l.balances[addr] = new(big.Int).Set(amount)
		l.supply.Add(l.supply, amount)
	}

	return l
}

// Mint credits amount to addr, increasing the total supply. Used to seed
// accounts outside of genesis.
func (l *InMemoryLedger) Mint(addr interfaces.UserAddress, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.credit(addr, amount)
	l.supply.Add(l.supply, amount)
	return nil
}

// Transfer moves amount from one account to another.
func (l *InMemoryLedger) Transfer(from, to interfaces.UserAddress, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.move(from, to, amount)
}

// Approve sets spender's allowance over owner's balance, replacing any
// previous allowance.
func (l *InMemoryLedger) Approve(owner, spender interfaces.UserAddress, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	spenders, ok := l.allowances[owner]
	if !ok {
		spenders = make(map[interfaces.UserAddress]*big.Int)
		l.allowances[owner] = spenders
	}
	spenders[spender] = new(big.Int).Set(amount)
	return nil
}

// TransferFrom moves amount from one account to another on behalf of spender,
// consuming spender's allowance over the source account.
func (l *InMemoryLedger) TransferFrom(spender, from, to interfaces.UserAddress, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	allowance := l.allowances[from][spender]
	if allowance == nil || allowance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: spender %s over account %s", ErrInsufficientAllowance, spender, from)
	}

	if err := l.move(from, to, amount); err != nil {
		return err
	}

	allowance.Sub(allowance, amount)
	return nil
}

// BalanceOf returns the balance held by addr.
func (l *InMemoryLedger) BalanceOf(addr interfaces.UserAddress) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if balance, ok := l.balances[addr]; ok {
		return new(big.Int).Set(balance)
	}
	return new(big.Int)
}

// TotalSupply returns the total amount of value tracked by the ledger.
func (l *InMemoryLedger) TotalSupply() *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return new(big.Int).Set(l.supply)
}

// Allowance returns spender's remaining allowance over owner's balance.
func (l *InMemoryLedger) Allowance(owner, spender interfaces.UserAddress) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if allowance := l.allowances[owner][spender]; allowance != nil {
		return new(big.Int).Set(allowance)
	}
	return new(big.Int)
}

// move debits from and credits to. Caller holds the lock.
func (l *InMemoryLedger) move(from, to interfaces.UserAddress, amount *big.Int) error {
	balance := l.balances[from]
	if balance == nil || balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: account %s", ErrInsufficientBalance, from)
	}

	balance.Sub(balance, amount)
	l.credit(to, amount)
	return nil
}

// credit adds amount to addr's balance. Caller holds the lock.
func (l *InMemoryLedger) credit(to interfaces.UserAddress, amount *big.Int) {
	if balance, ok := l.balances[to]; ok {
		balance.Add(balance, amount)
		return
	}
	l.balances[to] = new(big.Int).Set(amount)
}
