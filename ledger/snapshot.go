package ledger

import (
	"fmt"
	"math/big"

	"github.com/stacnet/stac-access-backend/interfaces"
)

// Snapshot is the serialized ledger state: balances and allowances keyed by
// hex addresses, amounts as decimal strings. It is persisted alongside the
// registry snapshots so a restarted daemon's funds pools stay matched by the
// collection accounts' balances.
type Snapshot struct {
	Balances   map[string]string            `json:"balances"`
	Allowances map[string]map[string]string `json:"allowances,omitempty"`
	Supply     string                       `json:"supply"`
}

// Snapshot captures the full ledger state.
func (l *InMemoryLedger) Snapshot() *Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := &Snapshot{
		Balances: make(map[string]string, len(l.balances)),
		Supply:   l.supply.String(),
	}
	for holder, amount := range l.balances {
		s.Balances[holder.String()] = amount.String()
	}
	if len(l.allowances) > 0 {
		s.Allowances = make(map[string]map[string]string, len(l.allowances))
		for owner, spenders := range l.allowances {
			entry := make(map[string]string, len(spenders))
			for spender, amount := range spenders {
				entry[spender.String()] = amount.String()
			}
			s.Allowances[owner.String()] = entry
		}
	}
	return s
}

// Restore replaces the ledger state with s. Genesis-seeded balances are
// discarded: the snapshot is the authoritative record of who holds what.
func (l *InMemoryLedger) Restore(s *Snapshot) error {
	balances := make(map[interfaces.UserAddress]*big.Int, len(s.Balances))
	for holderHex, amountStr := range s.Balances {
		holder, amount, err := parseSnapshotEntry(holderHex, amountStr)
		if err != nil {
			return fmt.Errorf("ledger balance: %w", err)
		}
		balances[holder] = amount
	}

	allowances := make(map[interfaces.UserAddress]map[interfaces.UserAddress]*big.Int, len(s.Allowances))
	for ownerHex, spenders := range s.Allowances {
		owner, err := interfaces.NewUserAddressFromHex(ownerHex)
		if err != nil {
			return fmt.Errorf("ledger allowance owner %s: %w", ownerHex, err)
		}
		entry := make(map[interfaces.UserAddress]*big.Int, len(spenders))
		for spenderHex, amountStr := range spenders {
			spender, amount, err := parseSnapshotEntry(spenderHex, amountStr)
			if err != nil {
				return fmt.Errorf("ledger allowance: %w", err)
			}
			entry[spender] = amount
		}
		allowances[owner] = entry
	}

	supply, ok := new(big.Int).SetString(s.Supply, 10)
	if !ok || supply.Sign() < 0 {
		return fmt.Errorf("ledger supply: invalid amount %q", s.Supply)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances = balances
	l.allowances = allowances
	l.supply = supply
	return nil
}

func parseSnapshotEntry(addrHex, amountStr string) (interfaces.UserAddress, *big.Int, error) {
	holder, err := interfaces.NewUserAddressFromHex(addrHex)
	if err != nil {
		return interfaces.UserAddress{}, nil, fmt.Errorf("address %s: %w", addrHex, err)
	}
	amount, ok := new(big.Int).SetString(amountStr, 10)
	if !ok || amount.Sign() < 0 {
		return interfaces.UserAddress{}, nil, fmt.Errorf("invalid amount %q for %s", amountStr, addrHex)
	}
	return holder, amount, nil
}
