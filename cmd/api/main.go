package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	appsync "github.com/jhoicas/Inventario-sync/internal/application/sync"
	"github.com/jhoicas/Inventario-sync/internal/domain/entity"
	"github.com/jhoicas/Inventario-sync/internal/infrastructure/filemaker"
	"github.com/jhoicas/Inventario-sync/internal/infrastructure/shopify"
	httpRouter "github.com/jhoicas/Inventario-sync/internal/interfaces/http"
	"github.com/jhoicas/Inventario-sync/internal/interfaces/scheduler"
	"github.com/jhoicas/Inventario-sync/pkg/config"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("version", version).
		Msg("iniciando aplicación")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("configuración inválida")
	}

	// Adaptadores hacia los sistemas externos
	ledger := filemaker.NewClient(cfg.FileMaker, cfg.API, log)
	storefront := shopify.NewClient(cfg.Shopify, cfg.API, log)

	// Casos de uso
	propagator := appsync.NewStockPropagator(ledger, storefront, cfg.Sync, log)
	reconcileUC := appsync.NewReconcileUseCase(ledger, storefront, propagator, cfg.Sync, log)
	orderUC := appsync.NewOrderUseCase(ledger, propagator, log)

	validator := httpRouter.NewWebhookValidator(cfg.Shopify.WebhookSecret, cfg.Webhook.ValidateSignature, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				code = fiberErr.Code
			}
			return c.Status(code).JSON(httpRouter.ErrorResponse{
				Code:    "INTERNAL_ERROR",
				Message: err.Error(),
			})
		},
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		Orders:       orderUC,
		Validator:    validator,
		ServiceName:  cfg.App.Name,
		Version:      version,
		Environment:  cfg.App.Env,
		IsProduction: cfg.App.IsProduction(),
		Log:          log,
	})

	// Worker nocturno de reconciliación
	nightly := scheduler.NewNightly(func(ctx context.Context) *entity.SyncResult {
		return reconcileUC.Run(ctx, false)
	}, cfg.Scheduler, log)
	nightly.Start()

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	nightly.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	// Liberar la sesión de FileMaker antes de salir
	logoutCtx, cancelLogout := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelLogout()
	if err := ledger.Logout(logoutCtx); err != nil {
		log.Warn().Err(err).Msg("cierre de sesión de FileMaker")
	}

	log.Info().Msg("aplicación detenida")
}
