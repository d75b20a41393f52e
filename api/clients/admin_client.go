package clients

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/stacnet/stac-access-backend/api"
	"github.com/stacnet/stac-access-backend/interfaces"
)

// AdminClient provides the owner-only operations: revocation, repricing, and
// withdrawal. Every request is signed with the owner's private key; the
// service rejects calls whose recovered address is not the registry owner.
type AdminClient struct {
	baseURL    string
	privateKey *ecdsa.PrivateKey
	httpClient *http.Client
}

// NewAdminClient creates an admin client for the service at baseURL.
func NewAdminClient(baseURL string, privateKey *ecdsa.PrivateKey, timeout ...time.Duration) *AdminClient {
	clientTimeout := 30 * time.Second
	if len(timeout) > 0 {
		clientTimeout = timeout[0]
	}

	return &AdminClient{
		baseURL:    baseURL,
		privateKey: privateKey,
		httpClient: &http.Client{Timeout: clientTimeout},
	}
}

// RevokeAccess clears user's record or grant in the given variant.
func (c *AdminClient) RevokeAccess(variant string, user interfaces.UserAddress) error {
	path := fmt.Sprintf("/api/admin/%s/revoke/%s", variant, user.String())
	return c.signedPost(path, nil, nil)
}

// UpdatePrice sets a new purchase price for the given variant.
func (c *AdminClient) UpdatePrice(variant string, price *big.Int) error {
	return c.signedPost("/api/admin/price", api.UpdatePriceRequest{
		Variant: variant,
		Price:   price.String(),
	}, nil)
}

// Withdraw drains the variant's funds pool to the owner and returns the
// withdrawn amount.
func (c *AdminClient) Withdraw(variant string) (*big.Int, error) {
	var resp api.WithdrawResponse
	if err := c.signedPost("/api/admin/withdraw", api.WithdrawRequest{Variant: variant}, &resp); err != nil {
		return nil, err
	}

	amount, ok := api.ParseAmount(resp.Amount)
	if !ok {
		return nil, fmt.Errorf("service returned invalid amount %q", resp.Amount)
	}
	return amount, nil
}

func (c *AdminClient) signedPost(path string, payload any, out any) error {
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

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}
