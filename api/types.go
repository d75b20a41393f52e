package api

import "math/big"

// Header constants used in HTTP requests.
const (
	// SignatureHeader carries the caller's hex-encoded secp256k1 signature
	// over the request digest. The caller address is recovered from it.
	SignatureHeader = "X-Stac-Signature"

	// TimestampHeader carries the signing time as unix seconds. It is part
	// of the signed digest and must be within SignatureLifetime of the
	// server clock.
	TimestampHeader = "X-Stac-Timestamp"

	// PaymentHeader carries the attached payment as a decimal string in the
	// ledger's smallest unit.
	PaymentHeader = "X-Stac-Payment"
)

// Registry variant names used on the admin surface.
const (
	VariantCode = "code"
	VariantKey  = "key"
)

// PurchaseCodeResponse is returned by the code purchase endpoint. Secret is
// the plaintext access code, revealed exactly once.
type PurchaseCodeResponse struct {
	Secret string `json:"secret"`
	Expiry uint64 `json:"expiry"`
}

// PurchaseKeyResponse is returned by the key purchase endpoint.
type PurchaseKeyResponse struct {
	Key string `json:"key"`
}

// VerifyCodeRequest asks whether a candidate secret grants user access.
type VerifyCodeRequest struct {
	User   string `json:"user"`
	Secret string `json:"secret"`
}

// VerifyCodeResponse carries the boolean verification result. Verification
// has no failure mode; denial is always expressed as Valid == false.
type VerifyCodeResponse struct {
	Valid bool `json:"valid"`
}

// RecordResponse is the public view of a stored access record.
type RecordResponse struct {
	Commitment string `json:"commitment"`
	Expiry     uint64 `json:"expiry"`
	Active     bool   `json:"active"`
}

// AccessKeyResponse is the public view of a user's issued key.
type AccessKeyResponse struct {
	Key string `json:"key"`
}

// KeyValidResponse reports membership of a key in the validity set.
type KeyValidResponse struct {
	Valid bool `json:"valid"`
}

// InfoResponse is the public registry state surface.
type InfoResponse struct {
	Owner       string `json:"owner"`
	AccessPrice string `json:"access_price"`
	KeyPrice    string `json:"key_price"`
	AccessPool  string `json:"access_pool"`
	KeyPool     string `json:"key_pool"`
}

// UpdatePriceRequest sets a new price for one registry variant.
type UpdatePriceRequest struct {
	Variant string `json:"variant"`
	Price   string `json:"price"`
}

// WithdrawRequest drains one registry variant's funds pool to the owner.
type WithdrawRequest struct {
	Variant string `json:"variant"`
}

// WithdrawResponse reports the withdrawn amount as a decimal string.
type WithdrawResponse struct {
	Amount string `json:"amount"`
}

// ParseAmount parses a decimal amount string into a non-negative big integer.
func ParseAmount(s string) (*big.Int, bool) {
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok || amount.Sign() < 0 {
		return nil, false
	}
	return amount, true
}
