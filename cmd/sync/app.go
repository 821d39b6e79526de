package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	appsync "github.com/jhoicas/Inventario-sync/internal/application/sync"
	"github.com/jhoicas/Inventario-sync/internal/domain/entity"
	"github.com/jhoicas/Inventario-sync/internal/infrastructure/filemaker"
	"github.com/jhoicas/Inventario-sync/internal/infrastructure/shopify"
	"github.com/jhoicas/Inventario-sync/pkg/config"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
)

// maxErroresMostrados limita cuántos errores se listan en consola;
// el detalle completo queda en los logs.
const maxErroresMostrados = 10

// app agrupa la configuración y los casos de uso ya cableados que los
// subcomandos comparten.
type app struct {
	cfg          *config.Config
	log          *logger.Logger
	ledger       *filemaker.Client
	reconcile    *appsync.ReconcileUseCase
	connectivity *appsync.ConnectivityUseCase
}

// buildApp carga y valida la configuración y construye los adaptadores.
func buildApp(opts *RootOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("cargar configuración: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := cfg.App.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: level})

	ledger := filemaker.NewClient(cfg.FileMaker, cfg.API, log)
	storefront := shopify.NewClient(cfg.Shopify, cfg.API, log)
	propagator := appsync.NewStockPropagator(ledger, storefront, cfg.Sync, log)

	return &app{
		cfg:          cfg,
		log:          log,
		ledger:       ledger,
		reconcile:    appsync.NewReconcileUseCase(ledger, storefront, propagator, cfg.Sync, log),
		connectivity: appsync.NewConnectivityUseCase(ledger, storefront, log),
	}, nil
}

// close libera la sesión de FileMaker. Mejor esfuerzo: el comando ya terminó.
func (a *app) close(ctx context.Context) {
	_ = a.ledger.Logout(ctx)
}

// printResult imprime el resumen de una corrida de sincronización.
func printResult(out io.Writer, result *entity.SyncResult) {
	fmt.Fprintln(out, strings.Repeat("─", 60))

	if result.Success {
		fmt.Fprintln(out, "✓ Sincronización completada")
	} else {
		fmt.Fprintln(out, "✗ Sincronización terminada con errores")
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Corrida:        %s\n", result.RunID)
	fmt.Fprintf(out, "Total:          %d\n", result.TotalItems)
	fmt.Fprintf(out, "Actualizados:   %d\n", result.UpdatedCount)
	fmt.Fprintf(out, "Fallidos:       %d\n", result.FailedCount)
	fmt.Fprintf(out, "Omitidos:       %d\n", result.SkippedCount)
	fmt.Fprintf(out, "Duración:       %.2fs\n", result.Duration.Seconds())
	fmt.Fprintf(out, "Tasa de éxito:  %.2f%%\n", result.SuccessRate())

	if len(result.Errors) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Errores (%d):\n", len(result.Errors))
		for i, e := range result.Errors {
			if i == maxErroresMostrados {
				fmt.Fprintf(out, "  ... y %d errores más (ver logs)\n", len(result.Errors)-maxErroresMostrados)
				break
			}
			fmt.Fprintf(out, "  %d. %s: %s\n", i+1, e.SKU, e.Message)
		}
	}

	fmt.Fprintln(out, strings.Repeat("─", 60))
}
