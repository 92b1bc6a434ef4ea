package invoice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Status is the resolved payment destination for a top-up order. Address is
// a BOLT11 payment request when the invoice is ready; the upstream may omit
// it if the invoice has not materialized yet.
type Status struct {
	Address string `json:"address"`
}

// Client looks up invoice statuses through the relay service.
type Client struct {
	relayURL   string
	httpClient *http.Client
}

// NewClient creates an invoice status client pointed at the relay.
func NewClient(relayURL string) *Client {
	return &Client{
		relayURL: strings.TrimSuffix(relayURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Status resolves the invoice status for an order id. Each order id is looked
// up exactly once per top-up attempt; there is no retry here.
func (c *Client) Status(ctx context.Context, invoiceID string) (Status, error) {
	q := url.Values{}
	q.Set("invoiceId", invoiceID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.relayURL+"/status?"+q.Encode(), nil)
	if err != nil {
		return Status{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Status{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Status{}, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return Status{}, fmt.Errorf("relay %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var status Status
	if err := json.Unmarshal(data, &status); err != nil {
		return Status{}, fmt.Errorf("unmarshal invoice status: %w", err)
	}
	return status, nil
}
