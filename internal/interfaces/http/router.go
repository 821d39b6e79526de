package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Inventario-sync/internal/application/sync"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Orders       *sync.OrderUseCase
	Validator    *WebhookValidator
	ServiceName  string
	Version      string
	Environment  string
	IsProduction bool
	Log          *logger.Logger
}

// Router registra las rutas del servicio.
func Router(app *fiber.App, deps RouterDeps) {
	// Banner del servicio
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": deps.ServiceName,
			"version": deps.Version,
			"status":  "running",
		})
	})

	// Sonda de salud para la plataforma
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":      "healthy",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"environment": deps.Environment,
		})
	})

	// Webhooks de Shopify
	webhookHandler := NewWebhookHandler(deps.Orders, deps.Validator, deps.IsProduction, deps.Log)
	webhooks := app.Group("/webhooks/shopify")
	webhooks.Post("/orders", webhookHandler.HandleOrder)
	webhooks.Post("/test", webhookHandler.HandleTest)
}
