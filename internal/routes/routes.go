package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/rolznz/2fiat-topup/internal/card"
	"github.com/rolznz/2fiat-topup/internal/config"
	"github.com/rolznz/2fiat-topup/internal/invoice"
	"github.com/rolznz/2fiat-topup/internal/middleware"
	"github.com/rolznz/2fiat-topup/internal/notification"
	"github.com/rolznz/2fiat-topup/internal/prefs"
	"github.com/rolznz/2fiat-topup/internal/rates"
	"github.com/rolznz/2fiat-topup/internal/topup"
	"github.com/rolznz/2fiat-topup/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce durable stores outside of dev, even though main also checks.
	if !isDev(d.Cfg.AppEnv) {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		// Only the topup sequence creates anything upstream, so only it gets
		// idempotency protection.
		app.Use("/api/v1/topups", middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Stores
	var store prefs.Store
	if d.Cache != nil {
		store = prefs.NewRedisStore(d.Cache)
	} else {
		store = prefs.NewMemoryStore()
	}

	var attempts topup.Repository
	if d.DB != nil {
		pgRepo := topup.NewPostgresRepository(d.DB)
		if err := pgRepo.EnsureSchema(context.Background()); err != nil {
			return fmt.Errorf("ensure topup schema: %w", err)
		}
		attempts = pgRepo
	} else {
		attempts = topup.NewMemoryRepository()
	}

	// External collaborators
	cardClient := card.NewClient(d.Cfg.UpstreamURL)
	invoiceClient := invoice.NewClient(d.Cfg.RelayURL)
	ratesClient := rates.NewClient(d.Cfg.RatesURL)
	connector := wallet.NewConnector(d.Logger)
	notifier := notification.NewLoggerNotifier(d.Logger)

	// Services and handlers
	topupSvc := topup.NewService(cardClient, invoiceClient, connector, attempts, store, notifier, d.Logger)
	topupHandler := topup.NewHandler(topupSvc)
	cardHandler := card.NewHandler(cardClient, store, ratesClient, d.Logger)
	walletHandler := wallet.NewHandler(connector, store, ratesClient, d.Logger)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterCardRoutes(api, cardHandler)
	RegisterWalletRoutes(api, walletHandler)
	RegisterTopupRoutes(api, topupHandler)

	return nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
