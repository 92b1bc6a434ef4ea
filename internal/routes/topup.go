package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rolznz/2fiat-topup/internal/topup"
)

// RegisterTopupRoutes wires the topup sequence endpoints.
func RegisterTopupRoutes(r fiber.Router, h *topup.Handler) {
	r.Post("/topups", h.Create)
	r.Get("/topups", h.List)
	r.Get("/topups/:id", h.Get)
	r.Post("/topups/:id/resume", h.Resume)
}
