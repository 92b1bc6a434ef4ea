package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rolznz/2fiat-topup/internal/card"
)

// RegisterCardRoutes wires card connection and preference endpoints.
func RegisterCardRoutes(r fiber.Router, h *card.Handler) {
	r.Post("/card", h.Connect)
	r.Get("/card", h.Details)
	r.Delete("/card", h.Disconnect)
	r.Put("/currency", h.SetCurrency)
}
