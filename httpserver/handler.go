package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stacnet/stac-access-backend/api"
	"github.com/stacnet/stac-access-backend/interfaces"
	"github.com/stacnet/stac-access-backend/metrics"
	"github.com/stacnet/stac-access-backend/registry"
)

// maxBodySize is the maximum allowed request body size (64KB). Registry
// requests are tiny; anything larger is hostile.
const maxBodySize = 64 * 1024

// PersistFunc is called after every successful state mutation so the daemon
// can save a snapshot. May be nil.
type PersistFunc func()

// Handler processes HTTP requests for both access registry variants.
type Handler struct {
	code    *registry.CodeRegistry
	key     *registry.KeyRegistry
	persist PersistFunc
	log     *slog.Logger
}

// NewHandler creates a handler around the two registry variants.
func NewHandler(code *registry.CodeRegistry, key *registry.KeyRegistry, persist PersistFunc, log *slog.Logger) *Handler {
	return &Handler{
		code:    code,
		key:     key,
		persist: persist,
		log:     log,
	}
}

// HandlePurchaseCode processes a signed access-code purchase.
//
// URL format: POST /api/access/code/purchase
// Required headers:
//   - X-Stac-Signature: caller's signature over the request digest
//   - X-Stac-Payment: attached payment, decimal string in smallest units
//
// Response: JSON with the plaintext secret (revealed exactly once) and the
// record's expiry timestamp.
func (h *Handler) HandlePurchaseCode(w http.ResponseWriter, r *http.Request) {
	caller, payment, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	secret, record, err := h.code.PurchaseCode(caller, payment)
	if err != nil {
		h.log.Error("Code purchase failed", "err", err, "user", caller.String())
		writeError(w, err)
		return
	}

	metrics.IncCounter(`stac_access_purchases_total{variant="code"}`)
	h.persisted()
	writeJSON(w, api.PurchaseCodeResponse{Secret: secret, Expiry: record.Expiry})
}

// HandlePurchaseKey processes a signed access-key purchase.
//
// URL format: POST /api/access/key/purchase
// Same headers as HandlePurchaseCode; responds with the issued key.
func (h *Handler) HandlePurchaseKey(w http.ResponseWriter, r *http.Request) {
	caller, payment, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	key, err := h.key.PurchaseKey(caller, payment)
	if err != nil {
		h.log.Error("Key purchase failed", "err", err, "user", caller.String())
		writeError(w, err)
		return
	}

	metrics.IncCounter(`stac_access_purchases_total{variant="key"}`)
	h.persisted()
	writeJSON(w, api.PurchaseKeyResponse{Key: key})
}

// HandleVerifyCode checks a candidate secret for a user. Unauthenticated by
// design: an external system validates on the user's behalf. The response is
// always 200 with a boolean; denial is not an error.
func (h *Handler) HandleVerifyCode(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req api.VerifyCodeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid verify request", http.StatusBadRequest)
		return
	}

	user, err := interfaces.NewUserAddressFromHex(req.User)
	if err != nil {
		http.Error(w, "Invalid user address", http.StatusBadRequest)
		return
	}

	metrics.IncCounter(`stac_access_verifications_total`)
	writeJSON(w, api.VerifyCodeResponse{Valid: h.code.VerifyCode(user, req.Secret)})
}

// HandleCodeRecord returns the stored access record for a user, sentinel
// values included.
func (h *Handler) HandleCodeRecord(w http.ResponseWriter, r *http.Request) {
	user, err := interfaces.NewUserAddressFromHex(chi.URLParam(r, "user"))
	if err != nil {
		http.Error(w, "Invalid user address", http.StatusBadRequest)
		return
	}

	record := h.code.Record(user)
	writeJSON(w, api.RecordResponse{
		Commitment: record.Commitment.String(),
		Expiry:     record.Expiry,
		Active:     record.Active(),
	})
}

// HandleAccessKey returns a user's issued key, empty when inactive.
func (h *Handler) HandleAccessKey(w http.ResponseWriter, r *http.Request) {
	user, err := interfaces.NewUserAddressFromHex(chi.URLParam(r, "user"))
	if err != nil {
		http.Error(w, "Invalid user address", http.StatusBadRequest)
		return
	}

	writeJSON(w, api.AccessKeyResponse{Key: h.key.AccessKey(user)})
}

// HandleKeyValid reports whether a key value is currently valid.
func (h *Handler) HandleKeyValid(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, api.KeyValidResponse{Valid: h.key.KeyValid(chi.URLParam(r, "key"))})
}

// HandleInfo returns the public registry state surface.
func (h *Handler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, api.InfoResponse{
		Owner:       h.code.Owner().String(),
		AccessPrice: h.code.Price().String(),
		KeyPrice:    h.key.Price().String(),
		AccessPool:  h.code.Pool().String(),
		KeyPool:     h.key.Pool().String(),
	})
}

// HandleRevoke clears a user's record or grant. The registry rejects callers
// other than the owner.
//
// URL format: POST /api/admin/{variant}/revoke/{user}
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	caller, _, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	user, err := interfaces.NewUserAddressFromHex(chi.URLParam(r, "user"))
	if err != nil {
		http.Error(w, "Invalid user address", http.StatusBadRequest)
		return
	}

	switch chi.URLParam(r, "variant") {
	case api.VariantCode:
		err = h.code.RevokeAccess(caller, user)
	case api.VariantKey:
		err = h.key.RevokeAccess(caller, user)
	default:
		http.Error(w, "Unknown registry variant", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.log.Error("Revocation failed", "err", err, "user", user.String())
		writeError(w, err)
		return
	}

	metrics.IncCounter(`stac_access_revocations_total`)
	h.persisted()
	w.WriteHeader(http.StatusNoContent)
}

// HandleUpdatePrice sets a new purchase price for one variant.
//
// URL format: POST /api/admin/price
// Request body: {"variant":"code"|"key","price":"<decimal wei>"}
func (h *Handler) HandleUpdatePrice(w http.ResponseWriter, r *http.Request) {
	caller, body, ok := h.authenticateRaw(w, r)
	if !ok {
		return
	}

	var req api.UpdatePriceRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid price update request", http.StatusBadRequest)
		return
	}

	price, numOK := api.ParseAmount(req.Price)
	if !numOK {
		http.Error(w, "Invalid price", http.StatusBadRequest)
		return
	}

	var err error
	switch req.Variant {
	case api.VariantCode:
		err = h.code.UpdatePrice(caller, price)
	case api.VariantKey:
		err = h.key.UpdatePrice(caller, price)
	default:
		http.Error(w, "Unknown registry variant", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.log.Error("Price update failed", "err", err)
		writeError(w, err)
		return
	}

	h.persisted()
	w.WriteHeader(http.StatusNoContent)
}

// HandleWithdraw drains one variant's funds pool to the owner.
//
// URL format: POST /api/admin/withdraw
// Request body: {"variant":"code"|"key"}
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	caller, body, ok := h.authenticateRaw(w, r)
	if !ok {
		return
	}

	var req api.WithdrawRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid withdraw request", http.StatusBadRequest)
		return
	}

	var amount *big.Int
	var err error
	switch req.Variant {
	case api.VariantCode:
		amount, err = h.code.Withdraw(caller)
	case api.VariantKey:
		amount, err = h.key.Withdraw(caller)
	default:
		http.Error(w, "Unknown registry variant", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.log.Error("Withdrawal failed", "err", err)
		writeError(w, err)
		return
	}

	metrics.IncCounter(`stac_access_withdrawals_total`)
	h.persisted()
	writeJSON(w, api.WithdrawResponse{Amount: amount.String()})
}

// authenticate recovers the caller from the request signature and parses the
// attached payment header. Writes the error response itself on failure.
func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (interfaces.UserAddress, *big.Int, bool) {
	caller, _, ok := h.authenticateRaw(w, r)
	if !ok {
		return interfaces.UserAddress{}, nil, false
	}

	payment := new(big.Int)
	if raw := r.Header.Get(api.PaymentHeader); raw != "" {
		parsed, numOK := api.ParseAmount(raw)
		if !numOK {
			http.Error(w, "Invalid payment header", http.StatusBadRequest)
			return interfaces.UserAddress{}, nil, false
		}
		payment = parsed
	}

	return caller, payment, true
}

// authenticateRaw reads the body, checks the signing timestamp is fresh, and
// recovers the caller address from the signature header. The body is returned
// for handlers that parse it.
func (h *Handler) authenticateRaw(w http.ResponseWriter, r *http.Request) (interfaces.UserAddress, []byte, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return interfaces.UserAddress{}, nil, false
	}

	timestamp := r.Header.Get(api.TimestampHeader)
	if err := api.CheckFreshness(timestamp, time.Now()); err != nil {
		h.log.Debug("Request timestamp rejected", "err", err, "path", r.URL.Path)
		writeError(w, err)
		return interfaces.UserAddress{}, nil, false
	}

	caller, err := api.RecoverCaller(r.Header.Get(api.SignatureHeader), r.Method, r.URL.Path, timestamp, body)
	if err != nil {
		h.log.Debug("Signature recovery failed", "err", err, "path", r.URL.Path)
		writeError(w, err)
		return interfaces.UserAddress{}, nil, false
	}

	return caller, body, true
}

func (h *Handler) persisted() {
	if h.persist != nil {
		h.persist()
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// writeError maps the registry failure taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, api.ErrBadSignature), errors.Is(err, api.ErrStaleSignature):
		status = http.StatusUnauthorized
	case errors.Is(err, interfaces.ErrPaymentMismatch):
		status = http.StatusPaymentRequired
	case errors.Is(err, interfaces.ErrAlreadyHasAccess):
		status = http.StatusConflict
	case errors.Is(err, interfaces.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, interfaces.ErrTransferFailed):
		status = http.StatusBadGateway
	case errors.Is(err, registry.ErrInvalidPrice):
		status = http.StatusBadRequest
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q}`, err.Error())
}
