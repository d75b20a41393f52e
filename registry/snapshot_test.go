package registry

import (
	"io"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacnet/stac-access-backend/interfaces"
	"github.com/stacnet/stac-access-backend/ledger"
)

func TestSnapshotRoundTrip(t *testing.T) {
	code := newCodeFixture(t)
	key := newKeyFixture(t)

	secret, _, err := code.registry.PurchaseCode(testUser1, testPrice)
	require.NoError(t, err)
	issuedKey, err := key.registry.PurchaseKey(testUser2, testPrice)
	require.NoError(t, err)

	encoded, err := (&Snapshot{Code: code.registry.Snapshot(), Key: key.registry.Snapshot()}).Encode()
	require.NoError(t, err)

	decoded, err := DecodeSnapshot(encoded)
	require.NoError(t, err)
	require.NotNil(t, decoded.Code)
	require.NotNil(t, decoded.Key)

	// Restore into fresh registries, each backed by a ledger restored from
	// its original's snapshot so pools stay matched by account balances.
	codeBank := ledger.NewInMemoryLedger(nil)
	require.NoError(t, codeBank.Restore(code.ledger.Snapshot()))
	keyBank := ledger.NewInMemoryLedger(nil)
	require.NoError(t, keyBank.Restore(key.ledger.Snapshot()))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := &fixedClock{now: time.Unix(1_700_000_000, 0)}

	restoredCode, err := NewCodeRegistry(CodeRegistryConfig{
		Owner: testOwner, Price: big.NewInt(1), Ledger: codeBank, Clock: clock, Log: logger,
	})
	require.NoError(t, err)
	require.NoError(t, restoredCode.Restore(decoded.Code))

	restoredKey, err := NewKeyRegistry(KeyRegistryConfig{
		Owner: testOwner, Price: big.NewInt(1), Ledger: keyBank, Clock: clock, Log: logger,
	})
	require.NoError(t, err)
	require.NoError(t, restoredKey.Restore(decoded.Key))

	// Issued secrets and keys survive the round trip.
	assert.True(t, restoredCode.VerifyCode(testUser1, secret))
	assert.Equal(t, testPrice, restoredCode.Price())
	assert.Equal(t, testPrice, restoredCode.Pool())

	assert.Equal(t, issuedKey, restoredKey.AccessKey(testUser2))
	assert.True(t, restoredKey.KeyValid(issuedKey))
}

func TestSnapshotRestoreThenWithdraw(t *testing.T) {
	code := newCodeFixture(t)

	_, _, err := code.registry.PurchaseCode(testUser1, testPrice)
	require.NoError(t, err)

	regSnap := code.registry.Snapshot()
	bankSnap := code.ledger.Snapshot()

	bank := ledger.NewInMemoryLedger(nil)
	require.NoError(t, bank.Restore(bankSnap))

	restored, err := NewCodeRegistry(CodeRegistryConfig{
		Owner:  testOwner,
		Price:  big.NewInt(1),
		Ledger: bank,
		Log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	require.NoError(t, restored.Restore(regSnap))

	// The restored pool is backed by the collection account's balance, so a
	// withdrawal after restart drains it the same as before the restart.
	assert.Equal(t, restored.Pool(), bank.BalanceOf(restored.Account()))

	amount, err := restored.Withdraw(testOwner)
	require.NoError(t, err)
	assert.Equal(t, testPrice, amount)
	assert.Equal(t, testPrice, bank.BalanceOf(testOwner))
	assert.Zero(t, restored.Pool().Sign())
}

func TestSnapshotOmitsRevokedGrants(t *testing.T) {
	key := newKeyFixture(t)

	issued, err := key.registry.PurchaseKey(testUser1, testPrice)
	require.NoError(t, err)
	require.NoError(t, key.registry.RevokeAccess(testOwner, testUser1))

	snap := key.registry.Snapshot()
	assert.Empty(t, snap.Keys)

	restored, err := NewKeyRegistry(KeyRegistryConfig{
		Owner:  testOwner,
		Price:  big.NewInt(1),
		Ledger: ledger.NewInMemoryLedger(nil),
		Log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	require.NoError(t, restored.Restore(snap))

	assert.False(t, restored.KeyValid(issued))
	assert.Empty(t, restored.AccessKey(testUser1))
}

func TestRestoreRejectsMalformedSnapshot(t *testing.T) {
	code := newCodeFixture(t)

	err := code.registry.Restore(&CodeSnapshot{Price: "not-a-number", Pool: "0"})
	assert.Error(t, err)

	err = code.registry.Restore(&CodeSnapshot{
		Price:   "1",
		Pool:    "0",
		Records: map[string]CodeRecordSnapshot{"zz": {Commitment: "00", Expiry: 1}},
	})
	assert.Error(t, err)

	_, err = DecodeSnapshot([]byte("{not json"))
	assert.Error(t, err)
}

var _ interfaces.AccessCodeRegistry = (*CodeRegistry)(nil)
var _ interfaces.AccessKeyRegistry = (*KeyRegistry)(nil)
