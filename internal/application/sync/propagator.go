// Package sync contiene los motores de sincronización de inventario:
// la reconciliación nocturna completa, el descuento en tiempo real por
// pedido y la tríada compartida que ambos ejecutan por producto.
package sync

import (
	"context"

	"github.com/jhoicas/Inventario-sync/internal/application/ports"
	"github.com/jhoicas/Inventario-sync/internal/domain/entity"
	"github.com/jhoicas/Inventario-sync/pkg/config"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
)

// PropagateOutcome describe el resultado de propagar un movimiento.
type PropagateOutcome struct {
	Quantity int64 // cantidad autoritativa del inventario maestro tras el recálculo
	Previous int64 // cantidad que tenía la tienda antes de publicar
	Updated  bool  // la tienda fue actualizada (o lo sería, en dry-run)
	Skipped  bool  // escritura omitida porque la tienda ya coincidía
}

// StockPropagator ejecuta la tríada movimiento → recálculo → relectura y
// publica el resultado en la tienda. El inventario maestro no actualiza su
// cantidad derivada hasta que se le pide recalcular, por eso el orden de los
// pasos es fijo: un paso no comienza si el anterior falló.
type StockPropagator struct {
	ledger     ports.LedgerService
	storefront ports.StorefrontService
	cfg        config.SyncConfig
	log        *logger.Logger
}

// NewStockPropagator construye la tríada compartida.
func NewStockPropagator(
	ledger ports.LedgerService,
	storefront ports.StorefrontService,
	cfg config.SyncConfig,
	log *logger.Logger,
) *StockPropagator {
	return &StockPropagator{
		ledger:     ledger,
		storefront: storefront,
		cfg:        cfg,
		log:        log.Componente("sync"),
	}
}

// Propagate ejecuta la tríada para el SKU del movimiento. Un movimiento
// neutro (cero salidas y entradas) solo fuerza el recálculo, sin crear
// registro. Con dry-run las lecturas se ejecutan igual pero la escritura en
// la tienda se suprime, reportándose como actualización pendiente.
func (p *StockPropagator) Propagate(ctx context.Context, movement entity.StockMovement, dryRun bool) (PropagateOutcome, error) {
	sku := movement.SKU

	// 1. Registrar el movimiento en el inventario maestro
	if !movement.IsZero() {
		if err := p.ledger.AppendMovement(ctx, movement); err != nil {
			return PropagateOutcome{}, err
		}
	}

	// 2. Recalcular existencias en el servidor
	if err := p.ledger.Recalculate(ctx, sku); err != nil {
		return PropagateOutcome{}, err
	}

	// 3. Releer la cantidad derivada (la única autoritativa)
	quantity, err := p.ledger.GetQuantity(ctx, sku)
	if err != nil {
		return PropagateOutcome{}, err
	}

	// 4. Publicar en la tienda
	level, err := p.storefront.GetInventoryBySKU(ctx, sku)
	if err != nil {
		return PropagateOutcome{}, err
	}

	outcome := PropagateOutcome{Quantity: quantity, Previous: level.Available}

	if p.cfg.EnableDiffCheck && level.Available == quantity {
		p.log.Info().
			Str("sku", sku).
			Int64("cantidad", quantity).
			Msg("sin cambios, la tienda ya coincide")
		outcome.Skipped = true
		return outcome, nil
	}

	if dryRun {
		p.log.Info().
			Str("sku", sku).
			Int64("anterior", level.Available).
			Int64("nueva", quantity).
			Msg("dry-run: actualización pendiente, no se escribe")
		outcome.Updated = true
		return outcome, nil
	}

	if err := p.storefront.SetQuantity(ctx, sku, quantity); err != nil {
		return PropagateOutcome{}, err
	}

	p.log.Info().
		Str("sku", sku).
		Int64("anterior", level.Available).
		Int64("nueva", quantity).
		Msg("cantidad propagada a la tienda")
	outcome.Updated = true
	return outcome, nil
}
