package wallet

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/rolznz/2fiat-topup/internal/prefs"
	"github.com/rolznz/2fiat-topup/internal/rates"
)

// Handler exposes wallet connection endpoints.
type Handler struct {
	connector *Connector
	store     prefs.Store
	rates     *rates.Client
	logger    *slog.Logger
}

// NewHandler constructs a wallet handler.
func NewHandler(connector *Connector, store prefs.Store, ratesClient *rates.Client, logger *slog.Logger) *Handler {
	return &Handler{connector: connector, store: store, rates: ratesClient, logger: logger}
}

// ConnectRequest carries the wallet backend coordinates.
type ConnectRequest struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

// StatusResponse describes the wallet connection. Fiat values are best-effort
// display conversions and are omitted when the rate lookup fails.
type StatusResponse struct {
	State       State    `json:"state"`
	Provider    string   `json:"provider,omitempty"`
	BalanceSats *int64   `json:"balance_sats,omitempty"`
	Currency    string   `json:"currency"`
	FiatValue   *float64 `json:"fiat_value,omitempty"`
	USDValue    *float64 `json:"usd_value,omitempty"`
}

// Connect attaches an HTTP wallet provider.
func (h *Handler) Connect(c *fiber.Ctx) error {
	var req ConnectRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.URL) == "" {
		return fiber.NewError(http.StatusBadRequest, "wallet url is required")
	}

	provider := NewHTTPProvider(req.URL, req.Token)
	if err := h.connector.Connect(c.UserContext(), provider); err != nil {
		return fiber.NewError(http.StatusBadGateway, err.Error())
	}

	return h.Status(c)
}

// Disconnect drops the wallet connection.
func (h *Handler) Disconnect(c *fiber.Ctx) error {
	h.connector.Disconnect()
	return c.SendStatus(http.StatusNoContent)
}

// Status reports the connection state, balance and display conversions.
func (h *Handler) Status(c *fiber.Ctx) error {
	state, balance, info := h.connector.Snapshot()

	resp := StatusResponse{
		State:       state,
		Provider:    info,
		BalanceSats: balance,
		Currency:    h.displayCurrency(c),
	}

	if balance != nil {
		if usd, err := h.rates.FiatValue(c.UserContext(), *balance, "USD"); err == nil {
			resp.USDValue = &usd
		} else {
			h.logger.Warn("wallet usd conversion failed", "error", err)
		}
		if fiat, err := h.rates.FiatValue(c.UserContext(), *balance, resp.Currency); err == nil {
			resp.FiatValue = &fiat
		} else {
			h.logger.Warn("wallet fiat conversion failed", "currency", resp.Currency, "error", err)
			resp.Currency = "USD"
			resp.FiatValue = resp.USDValue
		}
	}

	return c.JSON(resp)
}

func (h *Handler) displayCurrency(c *fiber.Ctx) string {
	currency, err := h.store.Get(c.UserContext(), prefs.KeyCurrency)
	if err != nil || len(currency) != 3 {
		return "USD"
	}
	return strings.ToUpper(currency)
}
