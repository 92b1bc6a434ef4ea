package topup

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/rolznz/2fiat-topup/internal/wallet"
)

// Handler exposes the topup sequence over HTTP.
type Handler struct {
	service *Service
}

// NewHandler constructs a topup handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// TopupRequest carries the user-entered USD amount.
type TopupRequest struct {
	AmountUSD string `json:"amount_usd"`
}

// Create runs a full topup sequence.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req TopupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	attempt, err := h.service.Topup(c.UserContext(), req.AmountUSD)
	if err != nil {
		return topupError(c, attempt, err)
	}

	return c.Status(http.StatusCreated).JSON(attempt)
}

// Resume continues a failed attempt from its recorded state.
func (h *Handler) Resume(c *fiber.Ctx) error {
	attempt, err := h.service.Resume(c.UserContext(), c.Params("id"))
	if err != nil {
		return topupError(c, attempt, err)
	}

	return c.Status(http.StatusOK).JSON(attempt)
}

// Get returns one attempt record.
func (h *Handler) Get(c *fiber.Ctx) error {
	attempt, err := h.service.Attempt(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, ErrAttemptNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(attempt)
}

// List returns attempt records, newest first.
func (h *Handler) List(c *fiber.Ctx) error {
	attempts, err := h.service.Attempts(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	if attempts == nil {
		attempts = []Attempt{}
	}
	return c.JSON(attempts)
}

// topupError maps sequence failures onto HTTP statuses. Failures that leave
// an attempt record include it in the body so the client can resume.
func topupError(c *fiber.Ctx, attempt Attempt, err error) error {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, ErrAmountRequired),
		errors.Is(err, ErrNoCard),
		errors.Is(err, ErrPaymentUnsupported),
		errors.Is(err, wallet.ErrNotConnected):
		status = http.StatusBadRequest
	case errors.Is(err, ErrTopupInFlight),
		errors.Is(err, ErrAttemptNotResumable):
		status = http.StatusConflict
	case errors.Is(err, ErrAttemptNotFound):
		status = http.StatusNotFound
	}

	body := fiber.Map{"error": err.Error()}
	if attempt.ID != "" {
		body["attempt"] = attempt
	}
	return c.Status(status).JSON(body)
}
