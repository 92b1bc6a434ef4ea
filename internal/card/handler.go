package card

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/rolznz/2fiat-topup/internal/prefs"
	"github.com/rolznz/2fiat-topup/internal/rates"
)

// Handler exposes card connection and balance endpoints.
type Handler struct {
	client *Client
	store  prefs.Store
	rates  *rates.Client
	logger *slog.Logger
}

// NewHandler constructs a card handler.
func NewHandler(client *Client, store prefs.Store, ratesClient *rates.Client, logger *slog.Logger) *Handler {
	return &Handler{client: client, store: store, rates: ratesClient, logger: logger}
}

// ConnectRequest carries the pasted card URL.
type ConnectRequest struct {
	CardURL string `json:"card_url"`
}

// CurrencyRequest carries the selected display currency.
type CurrencyRequest struct {
	Currency string `json:"currency"`
}

// CardResponse describes the connected card and its balance. Converted values
// are best-effort: when the rate lookup fails only the USD figures are set.
type CardResponse struct {
	Connected        bool     `json:"connected"`
	CardID           string   `json:"card_id,omitempty"`
	BalanceUSD       string   `json:"balance_usd,omitempty"`
	Currency         string   `json:"currency"`
	BalanceConverted *float64 `json:"balance_converted,omitempty"`
}

// Connect saves the pasted card URL and returns the card's details.
func (h *Handler) Connect(c *fiber.Ctx) error {
	var req ConnectRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	ref, err := ParseReference(req.CardURL)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	if err := h.store.Set(c.UserContext(), prefs.KeyCardURL, strings.TrimSpace(req.CardURL)); err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return h.respondWithDetails(c, ref)
}

// Details returns the saved card's balance, converted to the selected
// currency when one is set.
func (h *Handler) Details(c *fiber.Ctx) error {
	ref, ok, err := h.savedReference(c)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return c.JSON(CardResponse{Connected: false, Currency: "USD"})
	}

	return h.respondWithDetails(c, ref)
}

// Disconnect forgets the saved card URL.
func (h *Handler) Disconnect(c *fiber.Ctx) error {
	if err := h.store.Delete(c.UserContext(), prefs.KeyCardURL); err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(http.StatusNoContent)
}

// SetCurrency saves the display currency preference.
func (h *Handler) SetCurrency(c *fiber.Ctx) error {
	var req CurrencyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if len(currency) != 3 {
		return fiber.NewError(http.StatusBadRequest, "currency must be a three-letter code")
	}

	if err := h.store.Set(c.UserContext(), prefs.KeyCurrency, currency); err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *Handler) respondWithDetails(c *fiber.Ctx, ref Reference) error {
	details, err := h.client.Details(c.UserContext(), ref)
	if err != nil {
		// Distinct from "still loading": a fetch failure is reported, not
		// rendered as an indefinite pending state.
		return fiber.NewError(http.StatusBadGateway, err.Error())
	}

	resp := CardResponse{
		Connected:  true,
		CardID:     ref.CardID,
		BalanceUSD: details.CardBal,
		Currency:   h.displayCurrency(c),
	}

	if resp.Currency != "USD" {
		if amount, err := strconv.ParseFloat(details.CardBal, 64); err == nil {
			converted, err := h.rates.ConvertUSD(c.UserContext(), amount, resp.Currency)
			if err != nil {
				h.logger.Warn("card balance conversion failed", "currency", resp.Currency, "error", err)
				resp.Currency = "USD"
			} else {
				resp.BalanceConverted = &converted
			}
		}
	}

	return c.JSON(resp)
}

func (h *Handler) savedReference(c *fiber.Ctx) (Reference, bool, error) {
	cardURL, err := h.store.Get(c.UserContext(), prefs.KeyCardURL)
	if err != nil {
		return Reference{}, false, err
	}
	if cardURL == "" {
		return Reference{}, false, nil
	}
	ref, err := ParseReference(cardURL)
	if err != nil {
		if errors.Is(err, ErrInvalidCardURL) {
			return Reference{}, false, nil
		}
		return Reference{}, false, err
	}
	return ref, true, nil
}

// displayCurrency returns the saved currency when it is a valid three-letter
// code, falling back to USD otherwise.
func (h *Handler) displayCurrency(c *fiber.Ctx) string {
	currency, err := h.store.Get(c.UserContext(), prefs.KeyCurrency)
	if err != nil || len(currency) != 3 {
		return "USD"
	}
	return strings.ToUpper(currency)
}
