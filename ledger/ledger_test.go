package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacnet/stac-access-backend/interfaces"
)

func addr(b byte) interfaces.UserAddress {
	var a interfaces.UserAddress
	a[19] = b
	return a
}

func TestGenesisAndTotalSupply(t *testing.T) {
	l := NewInMemoryLedger(map[interfaces.UserAddress]*big.Int{
		addr(1): big.NewInt(1000),
		addr(2): big.NewInt(500),
	})

	assert.Equal(t, big.NewInt(1000), l.BalanceOf(addr(1)))
	assert.Equal(t, big.NewInt(500), l.BalanceOf(addr(2)))
	assert.Equal(t, big.NewInt(0), l.BalanceOf(addr(3)))
	assert.Equal(t, big.NewInt(1500), l.TotalSupply())
}

func TestTransfer(t *testing.T) {
	l := NewInMemoryLedger(map[interfaces.UserAddress]*big.Int{addr(1): big.NewInt(100)})

	require.NoError(t, l.Transfer(addr(1), addr(2), big.NewInt(60)))
	assert.Equal(t, big.NewInt(40), l.BalanceOf(addr(1)))
	assert.Equal(t, big.NewInt(60), l.BalanceOf(addr(2)))

	// Transfers never change supply.
	assert.Equal(t, big.NewInt(100), l.TotalSupply())
}

func TestTransferInsufficientBalance(t *testing.T) {
	l := NewInMemoryLedger(map[interfaces.UserAddress]*big.Int{addr(1): big.NewInt(10)})

	err := l.Transfer(addr(1), addr(2), big.NewInt(11))
	require.ErrorIs(t, err, ErrInsufficientBalance)

	// Failed transfers leave both balances untouched.
	assert.Equal(t, big.NewInt(10), l.BalanceOf(addr(1)))
	assert.Equal(t, big.NewInt(0), l.BalanceOf(addr(2)))
}

func TestTransferInvalidAmount(t *testing.T) {
	l := NewInMemoryLedger(nil)

	assert.ErrorIs(t, l.Transfer(addr(1), addr(2), nil), ErrInvalidAmount)
	assert.ErrorIs(t, l.Transfer(addr(1), addr(2), big.NewInt(-1)), ErrInvalidAmount)
}

func TestApproveAndTransferFrom(t *testing.T) {
	l := NewInMemoryLedger(map[interfaces.UserAddress]*big.Int{addr(1): big.NewInt(100)})

	require.NoError(t, l.Approve(addr(1), addr(9), big.NewInt(70)))
	assert.Equal(t, big.NewInt(70), l.Allowance(addr(1), addr(9)))

	require.NoError(t, l.TransferFrom(addr(9), addr(1), addr(2), big.NewInt(50)))
	assert.Equal(t, big.NewInt(50), l.BalanceOf(addr(1)))
	assert.Equal(t, big.NewInt(50), l.BalanceOf(addr(2)))
	assert.Equal(t, big.NewInt(20), l.Allowance(addr(1), addr(9)))

	err := l.TransferFrom(addr(9), addr(1), addr(2), big.NewInt(30))
	assert.ErrorIs(t, err, ErrInsufficientAllowance)
}

func TestTransferFromWithoutApproval(t *testing.T) {
	l := NewInMemoryLedger(map[interfaces.UserAddress]*big.Int{addr(1): big.NewInt(100)})

	err := l.TransferFrom(addr(9), addr(1), addr(2), big.NewInt(1))
	assert.ErrorIs(t, err, ErrInsufficientAllowance)
	assert.Equal(t, big.NewInt(100), l.BalanceOf(addr(1)))
}

func TestMint(t *testing.T) {
	l := NewInMemoryLedger(nil)

	require.NoError(t, l.Mint(addr(5), big.NewInt(42)))
	assert.Equal(t, big.NewInt(42), l.BalanceOf(addr(5)))
	assert.Equal(t, big.NewInt(42), l.TotalSupply())
}
