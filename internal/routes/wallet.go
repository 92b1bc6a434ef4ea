package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rolznz/2fiat-topup/internal/wallet"
)

// RegisterWalletRoutes wires wallet connection endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Get("/wallet", h.Status)
	r.Post("/wallet/connect", h.Connect)
	r.Post("/wallet/disconnect", h.Disconnect)
}
