package sync

import (
	"context"
	"fmt"

	"github.com/jhoicas/Inventario-sync/internal/application/ports"
	"github.com/jhoicas/Inventario-sync/internal/domain/entity"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
)

// OrderUseCase procesa pedidos de la tienda en tiempo real: por cada línea
// vendida registra la salida en el inventario maestro y propaga la nueva
// existencia de vuelta a la tienda mediante la tríada compartida.
type OrderUseCase struct {
	ledger     ports.LedgerService
	propagator *StockPropagator
	log        *logger.Logger
}

// NewOrderUseCase construye el motor de descuento por pedido.
func NewOrderUseCase(ledger ports.LedgerService, propagator *StockPropagator, log *logger.Logger) *OrderUseCase {
	return &OrderUseCase{
		ledger:     ledger,
		propagator: propagator,
		log:        log.Componente("webhook"),
	}
}

// ProcessOrder descuenta el stock de cada línea del pedido. La sesión del
// inventario maestro se abre una sola vez y se reutiliza en todas las líneas.
// El fallo de una línea no detiene a las demás; el pedido es exitoso solo si
// ninguna línea falló. Nunca entra en pánico: siempre devuelve un resultado.
func (uc *OrderUseCase) ProcessOrder(ctx context.Context, order entity.Order) *entity.SyncResult {
	result := entity.NewSyncResult()
	ref := order.Reference()

	uc.log.Info().
		Str("corrida", result.RunID).
		Str("pedido", ref).
		Int("lineas", len(order.LineItems)).
		Msg("procesando pedido")

	if len(order.LineItems) == 0 {
		uc.log.Warn().Str("pedido", ref).Msg("pedido sin líneas, nada que procesar")
		result.Finalize()
		return result
	}

	// Autenticar una sola vez para todo el pedido; las líneas reutilizan la
	// sesión (con renovación automática si expira a mitad de camino).
	if _, err := uc.ledger.Authenticate(ctx, false); err != nil {
		uc.log.Error().Str("pedido", ref).Err(err).Msg("autenticación con el inventario maestro fallida")
		result.AddError(entity.SystemSKU, fmt.Sprintf("autenticación falló: %v", err))
		result.Finalize()
		return result
	}

	for _, item := range order.LineItems {
		if item.SKU == "" {
			uc.log.Warn().
				Str("pedido", ref).
				Str("titulo", item.Title).
				Msg("línea sin SKU, se omite")
			continue
		}
		if item.Quantity <= 0 {
			uc.log.Warn().
				Str("pedido", ref).
				Str("sku", item.SKU).
				Int64("cantidad", item.Quantity).
				Msg("línea con cantidad inválida, se omite")
			continue
		}

		result.TotalItems++
		uc.log.Info().
			Str("pedido", ref).
			Str("sku", item.SKU).
			Str("titulo", item.Title).
			Int64("vendidas", item.Quantity).
			Msg("descontando línea del pedido")

		outcome, err := uc.propagator.Propagate(ctx, entity.NewOutMovement(item.SKU, item.Quantity), false)
		if err != nil {
			uc.log.Error().
				Str("pedido", ref).
				Str("sku", item.SKU).
				Err(err).
				Msg("línea fallida")
			result.AddError(item.SKU, err.Error())
			continue
		}

		if outcome.Skipped {
			result.AddSkipped()
		} else {
			result.AddUpdated()
		}
	}

	result.Finalize()

	if result.Success {
		uc.log.Info().
			Str("pedido", ref).
			Int("procesadas", result.UpdatedCount+result.SkippedCount).
			Msg("pedido procesado por completo")
	} else {
		uc.log.Warn().
			Str("pedido", ref).
			Int("fallidas", result.FailedCount).
			Msg("pedido procesado con errores")
	}

	return result
}
