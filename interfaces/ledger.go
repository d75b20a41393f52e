package interfaces

import "math/big"

// PaymentLedger is the external settlement collaborator: a standard
// bearer-token balance ledger. The registry only moves funds through this
// interface; it never inspects or owns the balance accounting itself.
//
// Implementations must apply each call atomically: either the full balance
// mutation happens or an error is returned with no change.
type PaymentLedger interface {
	// Transfer moves amount from one account to another.
	Transfer(from, to UserAddress, amount *big.Int) error

	// Approve sets spender's allowance over owner's balance.
	Approve(owner, spender UserAddress, amount *big.Int) error

	// TransferFrom moves amount from one account to another on behalf of
	// spender, consuming spender's allowance.
	TransferFrom(spender, from, to UserAddress, amount *big.Int) error

	// BalanceOf returns the balance held by addr.
	BalanceOf(addr UserAddress) *big.Int

	// TotalSupply returns the total amount of value tracked by the ledger.
	TotalSupply() *big.Int

	// Allowance returns spender's remaining allowance over owner's balance.
	Allowance(owner, spender UserAddress) *big.Int
}
