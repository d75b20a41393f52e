package httpserver

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacnet/stac-access-backend/api"
	"github.com/stacnet/stac-access-backend/interfaces"
	"github.com/stacnet/stac-access-backend/ledger"
	"github.com/stacnet/stac-access-backend/registry"
)

// 0.01 ether in wei.
var testPrice = big.NewInt(10_000_000_000_000_000)

type testEnv struct {
	router   http.Handler
	code     *registry.CodeRegistry
	key      *registry.KeyRegistry
	ledger   *ledger.InMemoryLedger
	ownerKey *ecdsa.PrivateKey
	userKey  *ecdsa.PrivateKey
	owner    interfaces.UserAddress
	user     interfaces.UserAddress
	persists *int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ownerKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	userKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	owner := interfaces.UserAddress(crypto.PubkeyToAddress(ownerKey.PublicKey))
	user := interfaces.UserAddress(crypto.PubkeyToAddress(userKey.PublicKey))

	bank := ledger.NewInMemoryLedger(map[interfaces.UserAddress]*big.Int{
		user: new(big.Int).Mul(testPrice, big.NewInt(10)),
	})

	code, err := registry.NewCodeRegistry(registry.CodeRegistryConfig{
		Owner: owner, Price: testPrice, Ledger: bank, Log: logger,
	})
	require.NoError(t, err)
	key, err := registry.NewKeyRegistry(registry.KeyRegistryConfig{
		Owner: owner, Price: testPrice, Ledger: bank, Log: logger,
	})
	require.NoError(t, err)

	persists := 0
	handler := NewHandler(code, key, func() { persists++ }, logger)

	srv, err := New(&HTTPServerConfig{
		Log:                      logger,
		DrainDuration:            time.Millisecond,
		GracefulShutdownDuration: time.Second,
	}, handler)
	require.NoError(t, err)

	return &testEnv{
		router:   srv.getRouter(),
		code:     code,
		key:      key,
		ledger:   bank,
		ownerKey: ownerKey,
		userKey:  userKey,
		owner:    owner,
		user:     user,
		persists: &persists,
	}
}

// signedRequest builds a POST with a fresh valid signature and optional
// payment.
func signedRequest(t *testing.T, key *ecdsa.PrivateKey, path string, body []byte, payment *big.Int) *http.Request {
	t.Helper()
	return signedRequestAt(t, key, path, body, payment, time.Now())
}

func signedRequestAt(t *testing.T, key *ecdsa.PrivateKey, path string, body []byte, payment *big.Int, issuedAt time.Time) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	sig, timestamp, err := api.SignRequest(key, http.MethodPost, path, issuedAt, body)
	require.NoError(t, err)
	req.Header.Set(api.SignatureHeader, sig)
	req.Header.Set(api.TimestampHeader, timestamp)
	if payment != nil {
		req.Header.Set(api.PaymentHeader, payment.String())
	}
	return req
}

func (env *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestHandlePurchaseCode(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(signedRequest(t, env.userKey, "/api/access/code/purchase", nil, testPrice))
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.PurchaseCodeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Secret, 64)
	assert.NotZero(t, resp.Expiry)

	// The purchase is attributed to the recovered signer.
	assert.True(t, env.code.VerifyCode(env.user, resp.Secret))
	assert.Equal(t, 1, *env.persists)
}

func TestHandlePurchaseCodePaymentMismatch(t *testing.T) {
	env := newTestEnv(t)

	half := new(big.Int).Div(testPrice, big.NewInt(2))
	w := env.do(signedRequest(t, env.userKey, "/api/access/code/purchase", nil, half))
	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	// Missing payment header counts as paying zero.
	w = env.do(signedRequest(t, env.userKey, "/api/access/code/purchase", nil, nil))
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Equal(t, 0, *env.persists)
}

func TestHandlePurchaseCodeTwice(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(signedRequest(t, env.userKey, "/api/access/code/purchase", nil, testPrice))
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(signedRequest(t, env.userKey, "/api/access/code/purchase", nil, testPrice))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandlePurchaseCodeUnsigned(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/access/code/purchase", nil)
	req.Header.Set(api.PaymentHeader, testPrice.String())
	w := env.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleReplayedRequestRejected(t *testing.T) {
	env := newTestEnv(t)
	path := "/api/access/code/purchase"

	// A request signed outside the freshness window is refused outright.
	stale := signedRequestAt(t, env.userKey, path, nil, testPrice,
		time.Now().Add(-api.SignatureLifetime-time.Minute))
	w := env.do(stale)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Refreshing the timestamp header without re-signing changes the digest,
	// so the replay never authenticates as the original signer.
	replay := signedRequestAt(t, env.userKey, path, nil, testPrice,
		time.Now().Add(-api.SignatureLifetime-time.Minute))
	replay.Header.Set(api.TimestampHeader, strconv.FormatInt(time.Now().Unix(), 10))
	w = env.do(replay)
	assert.NotEqual(t, http.StatusOK, w.Code)
	assert.False(t, env.code.Record(env.user).Active())
	assert.Equal(t, 0, *env.persists)
}

func TestHandleVerifyCode(t *testing.T) {
	env := newTestEnv(t)

	secret, _, err := env.code.PurchaseCode(env.user, testPrice)
	require.NoError(t, err)

	verify := func(user, secret string) *httptest.ResponseRecorder {
		body, err := json.Marshal(api.VerifyCodeRequest{User: user, Secret: secret})
		require.NoError(t, err)
		return env.do(httptest.NewRequest(http.MethodPost, "/api/public/code/verify", bytes.NewReader(body)))
	}

	// Verification is public and never errors: wrong secrets yield 200/false.
	w := verify(env.user.String(), secret)
	require.Equal(t, http.StatusOK, w.Code)
	var resp api.VerifyCodeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)

	w = verify(env.user.String(), "wrong")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)

	w = verify("not-an-address", secret)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleCodeRecord(t *testing.T) {
	env := newTestEnv(t)

	_, record, err := env.code.PurchaseCode(env.user, testPrice)
	require.NoError(t, err)

	w := env.do(httptest.NewRequest(http.MethodGet, "/api/public/code/record/"+env.user.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.RecordResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Active)
	assert.Equal(t, record.Expiry, resp.Expiry)
	assert.Equal(t, record.Commitment.String(), resp.Commitment)
}

func TestHandlePurchaseAndRevokeKey(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(signedRequest(t, env.userKey, "/api/access/key/purchase", nil, testPrice))
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.PurchaseKeyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Key)

	w = env.do(httptest.NewRequest(http.MethodGet, "/api/public/key/valid/"+resp.Key, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var valid api.KeyValidResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &valid))
	assert.True(t, valid.Valid)

	w = env.do(httptest.NewRequest(http.MethodGet, "/api/public/key/"+env.user.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	var keyResp api.AccessKeyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &keyResp))
	assert.Equal(t, resp.Key, keyResp.Key)

	// Owner revokes; the key flips invalid and the grant reads empty.
	w = env.do(signedRequest(t, env.ownerKey, "/api/admin/key/revoke/"+env.user.String(), nil, nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.False(t, env.key.KeyValid(resp.Key))
	assert.Empty(t, env.key.AccessKey(env.user))
}

func TestHandleRevokeUnauthorized(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.code.PurchaseCode(env.user, testPrice)
	require.NoError(t, err)

	// Signed, but not by the owner.
	w := env.do(signedRequest(t, env.userKey, "/api/admin/code/revoke/"+env.user.String(), nil, nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.True(t, env.code.Record(env.user).Active())
}

func TestHandleUpdatePrice(t *testing.T) {
	env := newTestEnv(t)
	newPrice := new(big.Int).Mul(testPrice, big.NewInt(2))

	body, err := json.Marshal(api.UpdatePriceRequest{Variant: api.VariantCode, Price: newPrice.String()})
	require.NoError(t, err)

	w := env.do(signedRequest(t, env.ownerKey, "/api/admin/price", body, nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, newPrice, env.code.Price())

	// The old price no longer buys access.
	w = env.do(signedRequest(t, env.userKey, "/api/access/code/purchase", nil, testPrice))
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	w = env.do(signedRequest(t, env.userKey, "/api/access/code/purchase", nil, newPrice))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleUpdatePriceRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)

	body, err := json.Marshal(api.UpdatePriceRequest{Variant: "bond", Price: "1"})
	require.NoError(t, err)
	w := env.do(signedRequest(t, env.ownerKey, "/api/admin/price", body, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, err = json.Marshal(api.UpdatePriceRequest{Variant: api.VariantCode, Price: "many"})
	require.NoError(t, err)
	w = env.do(signedRequest(t, env.ownerKey, "/api/admin/price", body, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleWithdraw(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(signedRequest(t, env.userKey, "/api/access/code/purchase", nil, testPrice))
	require.Equal(t, http.StatusOK, w.Code)

	body, err := json.Marshal(api.WithdrawRequest{Variant: api.VariantCode})
	require.NoError(t, err)

	w = env.do(signedRequest(t, env.ownerKey, "/api/admin/withdraw", body, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.WithdrawResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, testPrice.String(), resp.Amount)
	assert.Equal(t, testPrice, env.ledger.BalanceOf(env.owner))

	// A second withdrawal is a zero-amount no-op.
	w = env.do(signedRequest(t, env.ownerKey, "/api/admin/withdraw", body, nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "0", resp.Amount)
}

func TestHandleInfo(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/api/public/info", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.InfoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, env.owner.String(), resp.Owner)
	assert.Equal(t, testPrice.String(), resp.AccessPrice)
	assert.Equal(t, testPrice.String(), resp.KeyPrice)
	assert.Equal(t, "0", resp.AccessPool)
	assert.Equal(t, "0", resp.KeyPool)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
