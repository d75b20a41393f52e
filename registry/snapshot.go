package registry

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/stacnet/stac-access-backend/interfaces"
)

// CodeRecordSnapshot is the serialized form of one stored access record.
type CodeRecordSnapshot struct {
	Commitment string `json:"commitment"`
	Expiry     uint64 `json:"expiry"`
}

// CodeSnapshot is the serialized state of a CodeRegistry.
type CodeSnapshot struct {
	Price   string                        `json:"price"`
	Pool    string                        `json:"pool"`
	Records map[string]CodeRecordSnapshot `json:"records"`
}

// KeySnapshot is the serialized state of a KeyRegistry. The validity set is
// not serialized: it is rebuilt from the grants on restore, which also
// re-establishes the grant/validity invariant. Revoked keys therefore read
// back as invalid rather than explicitly-false, which is equivalent.
type KeySnapshot struct {
	Price    string            `json:"price"`
	Pool     string            `json:"pool"`
	Keys     map[string]string `json:"keys"`
	Sequence uint64            `json:"sequence"`
}

// Snapshot is the combined serialized state of both registry variants.
type Snapshot struct {
	Code *CodeSnapshot `json:"code,omitempty"`
	Key  *KeySnapshot  `json:"key,omitempty"`
}

// Encode serializes the snapshot to JSON.
func (s *Snapshot) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeSnapshot parses a snapshot previously produced by Encode.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &s, nil
}

// Snapshot captures the registry's price, pool, and records.
func (r *CodeRegistry) Snapshot() *CodeSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := make(map[string]CodeRecordSnapshot, len(r.records))
	for user, record := range r.records {
		records[user.String()] = CodeRecordSnapshot{
			Commitment: record.Commitment.String(),
			Expiry:     record.Expiry,
		}
	}

	return &CodeSnapshot{
		Price:   r.price.String(),
		Pool:    r.pool.String(),
		Records: records,
	}
}

// Restore replaces the registry's price, pool, and records with the snapshot's.
func (r *CodeRegistry) Restore(s *CodeSnapshot) error {
	price, ok := new(big.Int).SetString(s.Price, 10)
	if !ok || price.Sign() < 0 {
		return fmt.Errorf("restoring code registry: invalid price %q", s.Price)
	}
	pool, ok := new(big.Int).SetString(s.Pool, 10)
	if !ok || pool.Sign() < 0 {
		return fmt.Errorf("restoring code registry: invalid pool %q", s.Pool)
	}

	records := make(map[interfaces.UserAddress]interfaces.AccessRecord, len(s.Records))
	for userHex, rec := range s.Records {
		user, err := interfaces.NewUserAddressFromHex(userHex)
		if err != nil {
			return fmt.Errorf("restoring code registry: user %q: %w", userHex, err)
		}
		commitment, err := interfaces.NewDigestFromHex(rec.Commitment)
		if err != nil {
			return fmt.Errorf("restoring code registry: commitment for %q: %w", userHex, err)
		}
		records[user] = interfaces.AccessRecord{Commitment: commitment, Expiry: rec.Expiry}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.price = price
	r.pool = pool
	r.records = records
	return nil
}

// Snapshot captures the registry's price, pool, grants, and issuance sequence.
func (r *KeyRegistry) Snapshot() *KeySnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make(map[string]string, len(r.grants))
	for user, grant := range r.grants {
		if grant.Active() {
			keys[user.String()] = grant.IssuedKey
		}
	}

	return &KeySnapshot{
		Price:    r.price.String(),
		Pool:     r.pool.String(),
		Keys:     keys,
		Sequence: r.sequence,
	}
}

// Restore replaces the registry's state with the snapshot's, rebuilding the
// validity set from the stored grants.
func (r *KeyRegistry) Restore(s *KeySnapshot) error {
	price, ok := new(big.Int).SetString(s.Price, 10)
	if !ok || price.Sign() < 0 {
		return fmt.Errorf("restoring key registry: invalid price %q", s.Price)
	}
	pool, ok := new(big.Int).SetString(s.Pool, 10)
	if !ok || pool.Sign() < 0 {
		return fmt.Errorf("restoring key registry: invalid pool %q", s.Pool)
	}

	grants := make(map[interfaces.UserAddress]interfaces.AccessGrant, len(s.Keys))
	valid := make(map[string]bool, len(s.Keys))
	for userHex, key := range s.Keys {
		user, err := interfaces.NewUserAddressFromHex(userHex)
		if err != nil {
			return fmt.Errorf("restoring key registry: user %q: %w", userHex, err)
		}
		if key == "" {
			continue
		}
		grants[user] = interfaces.AccessGrant{IssuedKey: key}
		valid[key] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.price = price
	r.pool = pool
	r.grants = grants
	r.valid = valid
	r.sequence = s.Sequence
	return nil
}
