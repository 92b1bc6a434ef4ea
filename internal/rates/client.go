// Package rates looks up BTC/fiat exchange rates for display conversion.
// Conversions are best-effort: callers fall back to USD-denominated values
// when a lookup fails, and nothing here ever affects a topup.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const satsPerBTC = 100_000_000

// Client fetches BTC/fiat rates from a rate service exposing
// GET {base}/rates/{currency}.json.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type rateResponse struct {
	RateFloat float64 `json:"rate_float"`
}

// NewClient creates a rate client rooted at the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// BtcRate returns the price of one BTC in the given currency.
func (c *Client) BtcRate(ctx context.Context, currency string) (float64, error) {
	path := fmt.Sprintf("/rates/%s.json", strings.ToLower(currency))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return 0, fmt.Errorf("rates api %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var rate rateResponse
	if err := json.Unmarshal(data, &rate); err != nil {
		return 0, fmt.Errorf("unmarshal rate: %w", err)
	}
	if rate.RateFloat <= 0 {
		return 0, fmt.Errorf("rates api returned no rate for %s", currency)
	}
	return rate.RateFloat, nil
}

// FiatValue converts a satoshi amount into the given currency.
func (c *Client) FiatValue(ctx context.Context, satoshi int64, currency string) (float64, error) {
	rate, err := c.BtcRate(ctx, currency)
	if err != nil {
		return 0, err
	}
	return float64(satoshi) / satsPerBTC * rate, nil
}

// ConvertUSD re-denominates a USD amount into the given currency using the
// BTC cross rate (usd → btc → target).
func (c *Client) ConvertUSD(ctx context.Context, amountUSD float64, currency string) (float64, error) {
	usdRate, err := c.BtcRate(ctx, "USD")
	if err != nil {
		return 0, err
	}
	targetRate, err := c.BtcRate(ctx, currency)
	if err != nil {
		return 0, err
	}
	return amountUSD / usdRate * targetRate, nil
}
