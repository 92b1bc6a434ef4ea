package relay

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	// paymentMethodID is the fixed payment method tag the upstream expects on
	// every invoice status lookup.
	paymentMethodID = "BTC-LN"

	statusPath  = "/invoice/status"
	refererPath = "/pay/i/"
)

// Handler forwards invoice status lookups to the upstream card API. It exists
// solely because the browser cannot call the upstream endpoint directly: the
// upstream sends no CORS headers, so the lookup has to happen server-side.
type Handler struct {
	upstreamURL string
	client      *http.Client
	logger      *slog.Logger
}

// NewHandler builds a relay handler targeting the given upstream base URL.
// The zero-value http.Client is used deliberately: the relay imposes no
// timeout of its own beyond the client's defaults.
func NewHandler(upstreamURL string, logger *slog.Logger) *Handler {
	return &Handler{
		upstreamURL: strings.TrimSuffix(upstreamURL, "/"),
		client:      &http.Client{},
		logger:      logger,
	}
}

// Status handles GET /status?invoiceId=<id>. It forwards the lookup to the
// upstream with the Referer header the upstream requires, and echoes the
// upstream body back verbatim with permissive CORS headers.
func (h *Handler) Status(c *fiber.Ctx) error {
	invoiceID := c.Query("invoiceId")
	if invoiceID == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Missing invoiceId")
	}

	req, err := http.NewRequestWithContext(c.UserContext(), http.MethodGet, h.statusURL(invoiceID), nil)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).SendString("Bad Gateway")
	}
	// The upstream rejects lookups that do not appear to originate from its
	// own payment modal.
	req.Header.Set("Referer", h.refererURL(invoiceID))

	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Warn("upstream call failed", "invoice_id", invoiceID, "error", err)
		return c.Status(fiber.StatusBadGateway).SendString("Bad Gateway")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Best effort: a failed body read still produces a useful 502.
		errText, _ := io.ReadAll(resp.Body)
		return c.Status(fiber.StatusBadGateway).
			SendString(fmt.Sprintf("Upstream %d %s\n%s", resp.StatusCode, statusText(resp), errText))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		h.logger.Warn("upstream body read failed", "invoice_id", invoiceID, "error", err)
		return c.Status(fiber.StatusBadGateway).SendString("Bad Gateway")
	}

	c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
	c.Set(fiber.HeaderAccessControlAllowMethods, "GET, OPTIONS")
	c.Set(fiber.HeaderAccessControlAllowHeaders, "Content-Type")
	return c.Status(fiber.StatusOK).Send(body)
}

func (h *Handler) statusURL(invoiceID string) string {
	q := url.Values{}
	q.Set("invoiceId", invoiceID)
	q.Set("paymentMethodId", paymentMethodID)
	return h.upstreamURL + statusPath + "?" + q.Encode()
}

func (h *Handler) refererURL(invoiceID string) string {
	return h.upstreamURL + refererPath + url.PathEscape(invoiceID) + "?view=modal"
}

// statusText extracts the reason phrase from a response status line, falling
// back to the canonical text for the code.
func statusText(resp *http.Response) string {
	prefix := fmt.Sprintf("%d ", resp.StatusCode)
	if strings.HasPrefix(resp.Status, prefix) {
		return strings.TrimPrefix(resp.Status, prefix)
	}
	return http.StatusText(resp.StatusCode)
}
