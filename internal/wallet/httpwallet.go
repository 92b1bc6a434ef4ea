package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPProvider talks to an LNDHub-style wallet REST API: a bearer-token
// protected backend exposing a balance query and a pay-invoice operation.
type HTTPProvider struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type balanceResponse struct {
	Balance int64 `json:"balance"`
}

type payInvoiceRequest struct {
	PayRequest string `json:"pay_req"`
}

// NewHTTPProvider creates a wallet provider backed by a REST wallet API.
func NewHTTPProvider(baseURL, token string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Info identifies the wallet backend by its host.
func (p *HTTPProvider) Info() string {
	return p.baseURL
}

// Balance fetches the wallet balance in satoshis.
func (p *HTTPProvider) Balance(ctx context.Context) (int64, error) {
	data, err := p.doRequest(ctx, http.MethodGet, "/balance", nil)
	if err != nil {
		return 0, err
	}

	var resp balanceResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, fmt.Errorf("unmarshal balance: %w", err)
	}
	return resp.Balance, nil
}

// SendPayment pays the given BOLT11 payment request.
func (p *HTTPProvider) SendPayment(ctx context.Context, paymentRequest string) (Payment, error) {
	data, err := p.doRequest(ctx, http.MethodPost, "/payinvoice", payInvoiceRequest{PayRequest: paymentRequest})
	if err != nil {
		return Payment{}, fmt.Errorf("%w: %s", ErrPaymentRejected, err)
	}

	var payment Payment
	if err := json.Unmarshal(data, &payment); err != nil {
		return Payment{}, fmt.Errorf("unmarshal payment: %w", err)
	}
	return payment, nil
}

func (p *HTTPProvider) doRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("wallet api %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return data, nil
}
