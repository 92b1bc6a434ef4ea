package card

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// topupMethod is the only payment method this integration supports.
const topupMethod = "BTC-LN"

// ErrInvalidCardURL indicates a pasted card URL that does not contain both a
// user token and a card identifier.
var ErrInvalidCardURL = errors.New("invalid card url")

// Reference identifies a prepaid card together with the bearer token needed
// to act on it. Both values are opaque; they come straight out of the card
// URL the user pastes.
type Reference struct {
	UserToken string
	CardID    string
}

// Details is the card API's view of a prepaid card. The balance is a
// USD-denominated decimal string, returned as-is.
type Details struct {
	CardBal string `json:"cardBal"`
}

// TopupOrder is the card API's record of a requested top-up.
type TopupOrder struct {
	ID string `json:"id"`
}

// ParseReference extracts the user token and card id from a card URL of the
// form https://2fiat.com/wallet/<token>/card-details/<cardId>?provider=VCC.
func ParseReference(cardURL string) (Reference, error) {
	trimmed := strings.TrimSpace(cardURL)
	if trimmed == "" {
		return Reference{}, ErrInvalidCardURL
	}

	parts := strings.Split(trimmed, "/")
	ref := Reference{
		UserToken: segmentAfter(parts, "wallet"),
		CardID:    segmentAfter(parts, "card-details"),
	}
	if i := strings.IndexByte(ref.CardID, '?'); i >= 0 {
		ref.CardID = ref.CardID[:i]
	}
	if ref.UserToken == "" || ref.CardID == "" {
		return Reference{}, ErrInvalidCardURL
	}
	return ref, nil
}

func segmentAfter(parts []string, marker string) string {
	for i, p := range parts {
		if p == marker && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

// Client is an HTTP client for the external prepaid card API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a card API client rooted at the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Details fetches the card's current balance.
func (c *Client) Details(ctx context.Context, ref Reference) (Details, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/api/v1/prepaid-cards/details/"+ref.CardID, ref.UserToken, nil)
	if err != nil {
		return Details{}, err
	}

	var details Details
	if err := json.Unmarshal(data, &details); err != nil {
		return Details{}, fmt.Errorf("unmarshal card details: %w", err)
	}
	return details, nil
}

// CreateTopup asks the card API to create a top-up order for the given USD
// amount. The amount is passed through as the user entered it; the card API
// owns validation of minimums and format.
func (c *Client) CreateTopup(ctx context.Context, ref Reference, amountUSD string) (TopupOrder, error) {
	body := map[string]string{
		"topupValue":     amountUSD,
		"selectedMethod": topupMethod,
	}
	data, err := c.doRequest(ctx, http.MethodPost, "/api/v1/prepaid-cards/topup/"+ref.CardID, ref.UserToken, body)
	if err != nil {
		return TopupOrder{}, err
	}

	var order TopupOrder
	if err := json.Unmarshal(data, &order); err != nil {
		return TopupOrder{}, fmt.Errorf("unmarshal topup order: %w", err)
	}
	return order, nil
}

func (c *Client) doRequest(ctx context.Context, method, path, token string, body any) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("card api %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return data, nil
}
