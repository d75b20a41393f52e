package registry

import (
	"math/big"

	"github.com/stretchr/testify/mock"

	"github.com/stacnet/stac-access-backend/interfaces"
)

// MockLedger mocks the interfaces.PaymentLedger collaborator.
type MockLedger struct {
	mock.Mock
}

// Transfer mocks the Transfer method
func (m *MockLedger) Transfer(from, to interfaces.UserAddress, amount *big.Int) error {
	args := m.Called(from, to, amount)
	return args.Error(0)
}

// Approve mocks the Approve method
func (m *MockLedger) Approve(owner, spender interfaces.UserAddress, amount *big.Int) error {
	args := m.Called(owner, spender, amount)
	return args.Error(0)
}

// TransferFrom mocks the TransferFrom method
func (m *MockLedger) TransferFrom(spender, from, to interfaces.UserAddress, amount *big.Int) error {
	args := m.Called(spender, from, to, amount)
	return args.Error(0)
}

// BalanceOf mocks the BalanceOf method
func (m *MockLedger) BalanceOf(addr interfaces.UserAddress) *big.Int {
	args := m.Called(addr)
	return args.Get(0).(*big.Int)
}

// TotalSupply mocks the TotalSupply method
func (m *MockLedger) TotalSupply() *big.Int {
	args := m.Called()
	return args.Get(0).(*big.Int)
}

// Allowance mocks the Allowance method
func (m *MockLedger) Allowance(owner, spender interfaces.UserAddress) *big.Int {
	args := m.Called(owner, spender)
	return args.Get(0).(*big.Int)
}
