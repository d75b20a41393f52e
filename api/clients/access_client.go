package clients

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/stacnet/stac-access-backend/api"
	"github.com/stacnet/stac-access-backend/interfaces"
)

// AccessClient interacts with the purchase and verification endpoints. It
// signs mutating requests with the purchaser's private key; the server
// recovers the caller address from the signature.
type AccessClient struct {
	baseURL    string
	privateKey *ecdsa.PrivateKey
	httpClient *http.Client
}

// NewAccessClient creates an access client for the service at baseURL.
// The private key may be nil for a read-only client.
func NewAccessClient(baseURL string, privateKey *ecdsa.PrivateKey, timeout ...time.Duration) *AccessClient {
	clientTimeout := 30 * time.Second
	if len(timeout) > 0 {
		clientTimeout = timeout[0]
	}

	return &AccessClient{
		baseURL:    baseURL,
		privateKey: privateKey,
		httpClient: &http.Client{Timeout: clientTimeout},
	}
}

// PurchaseCode buys an access code, attaching payment (the current price).
// Returns the plaintext secret, revealed by the service exactly once, and the
// record expiry timestamp.
func (c *AccessClient) PurchaseCode(payment *big.Int) (string, uint64, error) {
	var resp api.PurchaseCodeResponse
	if err := c.signedPost("/api/access/code/purchase", nil, payment, &resp); err != nil {
		return "", 0, err
	}
	return resp.Secret, resp.Expiry, nil
}

// PurchaseKey buys an access key, attaching payment (the current price).
func (c *AccessClient) PurchaseKey(payment *big.Int) (string, error) {
	var resp api.PurchaseKeyResponse
	if err := c.signedPost("/api/access/key/purchase", nil, payment, &resp); err != nil {
		return "", err
	}
	return resp.Key, nil
}

// VerifyCode asks whether secret grants user access. Callable without a key.
func (c *AccessClient) VerifyCode(user interfaces.UserAddress, secret string) (bool, error) {
	body, err := json.Marshal(api.VerifyCodeRequest{User: user.String(), Secret: secret})
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Post(c.baseURL+"/api/public/code/verify", "application/json", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("verify request failed: %w", err)
	}
	defer resp.Body.Close()

	var result api.VerifyCodeResponse
	if err := decodeResponse(resp, &result); err != nil {
		return false, err
	}
	return result.Valid, nil
}

// KeyValid asks whether key is currently in the validity set.
func (c *AccessClient) KeyValid(key string) (bool, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/api/public/key/valid/" + key)
	if err != nil {
		return false, fmt.Errorf("key validity request failed: %w", err)
	}
	defer resp.Body.Close()

	var result api.KeyValidResponse
	if err := decodeResponse(resp, &result); err != nil {
		return false, err
	}
	return result.Valid, nil
}

// AccessKey fetches user's issued key; empty when the user holds no grant.
func (c *AccessClient) AccessKey(user interfaces.UserAddress) (string, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/api/public/key/" + user.String())
	if err != nil {
		return "", fmt.Errorf("access key request failed: %w", err)
	}
	defer resp.Body.Close()

	var result api.AccessKeyResponse
	if err := decodeResponse(resp, &result); err != nil {
		return "", err
	}
	return result.Key, nil
}

// Info fetches the public registry state: owner, prices, and pools.
func (c *AccessClient) Info() (*api.InfoResponse, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/api/public/info")
	if err != nil {
		return nil, fmt.Errorf("info request failed: %w", err)
	}
	defer resp.Body.Close()

	var result api.InfoResponse
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// signedPost sends a signed POST with an optional attached payment and
// decodes the JSON response into out.
func (c *AccessClient) signedPost(path string, payload any, payment *big.Int, out any) error {
	if c.privateKey == nil {
		return fmt.Errorf("no private key configured for signed request to %s", path)
	}

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return err
		}
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	sig, timestamp, err := api.SignRequest(c.privateKey, http.MethodPost, path, time.Now(), body)
	if err != nil {
		return err
	}
	req.Header.Set(api.SignatureHeader, sig)
	req.Header.Set(api.TimestampHeader, timestamp)
	if payment != nil {
		req.Header.Set(api.PaymentHeader, payment.String())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

// decodeResponse parses a JSON response body, folding non-2xx statuses into
// an error carrying the response text.
func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed with code %d: %s", resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
