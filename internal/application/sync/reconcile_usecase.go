package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Inventario-sync/internal/application/ports"
	"github.com/jhoicas/Inventario-sync/internal/domain/entity"
	"github.com/jhoicas/Inventario-sync/pkg/config"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
)

// Pausa fija entre lotes de escritura hacia la tienda.
const batchPause = 500 * time.Millisecond

// ReconcileUseCase ejecuta la reconciliación nocturna completa: el inventario
// maestro manda y la tienda se ajusta. Cuatro fases ordenadas; ninguna
// comienza hasta que la anterior terminó por completo.
type ReconcileUseCase struct {
	ledger     ports.LedgerService
	storefront ports.StorefrontService
	propagator *StockPropagator
	cfg        config.SyncConfig
	log        *logger.Logger
}

// NewReconcileUseCase construye el motor de reconciliación.
func NewReconcileUseCase(
	ledger ports.LedgerService,
	storefront ports.StorefrontService,
	propagator *StockPropagator,
	cfg config.SyncConfig,
	log *logger.Logger,
) *ReconcileUseCase {
	return &ReconcileUseCase{
		ledger:     ledger,
		storefront: storefront,
		propagator: propagator,
		cfg:        cfg,
		log:        log.Componente("sync"),
	}
}

// Run ejecuta la reconciliación completa. Nunca entra en pánico: siempre
// devuelve un resultado estructurado que el llamador puede presentar.
// Con dry-run las fases de lectura se ejecutan normalmente y solo se
// suprimen las escrituras, contando las pendientes como actualizadas.
func (uc *ReconcileUseCase) Run(ctx context.Context, dryRun bool) *entity.SyncResult {
	result := entity.NewSyncResult()
	uc.log.Info().
		Str("corrida", result.RunID).
		Bool("dry_run", dryRun).
		Msg("iniciando reconciliación FileMaker → Shopify")

	// ── Fase 1: listar productos elegibles ────────────────────────────────
	products, err := uc.ledger.ListEligibleProducts(ctx)
	if err != nil {
		uc.log.Error().Err(err).Msg("fallo crítico al listar productos, se aborta la corrida")
		result.AddError(entity.SystemSKU, fmt.Sprintf("listado de productos falló: %v", err))
		result.Finalize()
		return result
	}
	result.TotalItems = len(products)
	uc.log.Info().Int("total", len(products)).Msg("productos elegibles en el inventario maestro")

	// ── Fase 2: recalcular existencias por producto ───────────────────────
	recalcErrors := make(map[string]string)
	for i, product := range products {
		if err := uc.ledger.Recalculate(ctx, product.SKU); err != nil {
			uc.log.Error().Str("sku", product.SKU).Err(err).Msg("recálculo fallido")
			recalcErrors[product.SKU] = fmt.Sprintf("recálculo falló: %v", err)
		}
		// Ritmo entre llamadas para no saturar el inventario maestro
		if i < len(products)-1 {
			waitFor(ctx, uc.cfg.PacingDelay)
		}
	}
	uc.log.Info().Int("fallidos", len(recalcErrors)).Msg("fase de recálculo completada")

	// ── Fase 3: releer cantidades ─────────────────────────────────────────
	// Los productos con recálculo fallido también se releen: son dominios de
	// fallo independientes.
	quantities := make(map[string]int64, len(products))
	rereadErrors := make(map[string]string)
	for _, product := range products {
		qty, err := uc.ledger.GetQuantity(ctx, product.SKU)
		if err != nil {
			uc.log.Error().Str("sku", product.SKU).Err(err).Msg("relectura fallida")
			rereadErrors[product.SKU] = fmt.Sprintf("relectura falló: %v", err)
			continue
		}
		quantities[product.SKU] = qty
	}
	uc.log.Info().Int("fallidos", len(rereadErrors)).Msg("fase de relectura completada")

	// ── Fase 4: aplicar diferencias en la tienda ──────────────────────────
	uc.storefront.InvalidateCache()

	applyErrors := make(map[string]string)
	skipped := make(map[string]bool)
	var updates []ports.QuantityUpdate

	for _, product := range products {
		qty, ok := quantities[product.SKU]
		if !ok {
			continue
		}

		level, err := uc.storefront.GetInventoryBySKU(ctx, product.SKU)
		if err != nil {
			uc.log.Warn().Str("sku", product.SKU).Err(err).Msg("producto no consultable en la tienda")
			applyErrors[product.SKU] = fmt.Sprintf("consulta en la tienda falló: %v", err)
			continue
		}

		if uc.cfg.EnableDiffCheck && level.Available == qty {
			uc.log.Debug().Str("sku", product.SKU).Int64("cantidad", qty).Msg("sin cambios")
			skipped[product.SKU] = true
			continue
		}

		uc.log.Info().
			Str("sku", product.SKU).
			Str("nombre", product.Name).
			Int64("tienda", level.Available).
			Int64("maestro", qty).
			Msg("requiere actualización")
		updates = append(updates, ports.QuantityUpdate{SKU: product.SKU, Quantity: qty})
	}

	updated := make(map[string]bool, len(updates))
	if len(updates) > 0 {
		uc.log.Info().Int("pendientes", len(updates)).Msg("aplicando actualizaciones en la tienda")

		if dryRun {
			uc.log.Info().Msg("dry-run: no se escriben cambios")
			for _, update := range updates {
				updated[update.SKU] = true
			}
		} else {
			uc.applyInBatches(ctx, updates, updated, applyErrors)
		}
	} else {
		uc.log.Info().Msg("sin actualizaciones pendientes, todo el stock coincide")
	}

	// ── Consolidar el resultado (un contador por producto) ────────────────
	for _, product := range products {
		if msg, ok := recalcErrors[product.SKU]; ok {
			result.AddError(product.SKU, msg)
			continue
		}
		if msg, ok := rereadErrors[product.SKU]; ok {
			result.AddError(product.SKU, msg)
			continue
		}
		if msg, ok := applyErrors[product.SKU]; ok {
			result.AddError(product.SKU, msg)
			continue
		}
		switch {
		case updated[product.SKU]:
			result.AddUpdated()
		case skipped[product.SKU]:
			result.AddSkipped()
		}
	}

	result.Finalize()
	uc.logSummary(result)
	return result
}

// applyInBatches escribe las actualizaciones por lotes, con aislamiento por
// ítem y una pausa fija entre lotes.
func (uc *ReconcileUseCase) applyInBatches(ctx context.Context, updates []ports.QuantityUpdate, updated map[string]bool, applyErrors map[string]string) {
	batchSize := uc.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	totalBatches := (len(updates) + batchSize - 1) / batchSize

	for start := 0; start < len(updates); start += batchSize {
		end := start + batchSize
		if end > len(updates) {
			end = len(updates)
		}
		batch := updates[start:end]

		uc.log.Info().
			Int("lote", start/batchSize+1).
			Int("total_lotes", totalBatches).
			Int("items", len(batch)).
			Msg("aplicando lote")

		outcome := uc.storefront.BulkSet(ctx, batch)

		failedInBatch := make(map[string]bool, outcome.ErrorCount)
		for _, itemErr := range outcome.Errors {
			failedInBatch[itemErr.SKU] = true
			applyErrors[itemErr.SKU] = itemErr.Message
		}
		for _, update := range batch {
			if !failedInBatch[update.SKU] {
				updated[update.SKU] = true
			}
		}

		if end < len(updates) {
			waitFor(ctx, batchPause)
		}
	}
}

// RunSingle reconcilia un único SKU mediante la tríada compartida con un
// movimiento neutro: recalcular, releer y publicar la diferencia. Un SKU
// ausente en cualquiera de los dos sistemas hace fallar la corrida.
func (uc *ReconcileUseCase) RunSingle(ctx context.Context, sku string, dryRun bool) *entity.SyncResult {
	result := entity.NewSyncResult()
	result.TotalItems = 1
	uc.log.Info().
		Str("corrida", result.RunID).
		Str("sku", sku).
		Bool("dry_run", dryRun).
		Msg("reconciliando un solo SKU")

	outcome, err := uc.propagator.Propagate(ctx, entity.ZeroMovement(sku), dryRun)
	switch {
	case err != nil:
		uc.log.Error().Str("sku", sku).Err(err).Msg("reconciliación del SKU fallida")
		result.AddError(sku, err.Error())
	case outcome.Skipped:
		result.AddSkipped()
	default:
		result.AddUpdated()
	}

	result.Finalize()
	uc.logSummary(result)
	return result
}

func (uc *ReconcileUseCase) logSummary(result *entity.SyncResult) {
	event := uc.log.Info()
	if !result.Success {
		event = uc.log.Warn()
	}
	event.
		Str("corrida", result.RunID).
		Bool("exito", result.Success).
		Int("total", result.TotalItems).
		Int("actualizados", result.UpdatedCount).
		Int("omitidos", result.SkippedCount).
		Int("fallidos", result.FailedCount).
		Dur("duracion", result.Duration).
		Msg("resumen de la reconciliación")

	for _, itemErr := range result.Errors {
		uc.log.Warn().Str("sku", itemErr.SKU).Str("detalle", itemErr.Message).Msg("error de ítem")
	}
}

// waitFor espera la duración indicada respetando la cancelación del contexto.
func waitFor(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
