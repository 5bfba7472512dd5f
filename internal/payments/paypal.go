package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hoopthreads/storefront/internal/pricing"
)

// PayPalClient verifies captured orders against the PayPal Orders API.
type PayPalClient struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	secret     string
}

// NewPayPalClient returns a client for the given API base
// (e.g. https://api-m.sandbox.paypal.com).
func NewPayPalClient(baseURL, clientID, secret string) *PayPalClient {
	return &PayPalClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		clientID:   clientID,
		secret:     secret,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type orderResponse struct {
	Status        string `json:"status"`
	PurchaseUnits []struct {
		Amount struct {
			Value string `json:"value"`
		} `json:"amount"`
	} `json:"purchase_units"`
	Payer struct {
		EmailAddress string `json:"email_address"`
	} `json:"payer"`
}

func (c *PayPalClient) accessToken(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request: unexpected status %d", res.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(res.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	return tr.AccessToken, nil
}

// Verify fetches the transaction and checks completion and amount.
func (c *PayPalClient) Verify(ctx context.Context, transactionID string, expectedAmount float64) (Verification, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return Verification{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/checkout/orders/"+transactionID, nil)
	if err != nil {
		return Verification{}, fmt.Errorf("build order request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return Verification{}, fmt.Errorf("order request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return Verification{}, ErrNotVerified
	}
	if res.StatusCode != http.StatusOK {
		return Verification{}, fmt.Errorf("order request: unexpected status %d", res.StatusCode)
	}

	var or orderResponse
	if err := json.NewDecoder(res.Body).Decode(&or); err != nil {
		return Verification{}, fmt.Errorf("decode order response: %w", err)
	}

	v := Verification{
		TransactionID: transactionID,
		Verified:      or.Status == "COMPLETED",
		PayerEmail:    or.Payer.EmailAddress,
	}
	if len(or.PurchaseUnits) > 0 {
		amount, err := strconv.ParseFloat(or.PurchaseUnits[0].Amount.Value, 64)
		if err != nil {
			return Verification{}, fmt.Errorf("parse captured amount: %w", err)
		}
		v.Amount = amount
	}

	if !v.Verified {
		return v, ErrNotVerified
	}
	// compare in cents to dodge float noise
	if pricing.Cents(v.Amount) != pricing.Cents(expectedAmount) {
		return v, ErrAmountMismatch
	}
	return v, nil
}
