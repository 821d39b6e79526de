package ports

import (
	"context"

	"github.com/jhoicas/Inventario-sync/internal/domain/entity"
)

// LedgerService define el puerto de salida hacia el inventario maestro
// (FileMaker Data API). Cualquier adaptador (cliente real, mock) debe
// implementar esta interfaz: la capa de aplicación solo conoce este contrato.
type LedgerService interface {
	// Authenticate garantiza una sesión válida y devuelve el token.
	// Con forceRefresh se descarta el token en caché y se abre sesión nueva.
	Authenticate(ctx context.Context, forceRefresh bool) (string, error)

	// ListEligibleProducts devuelve todos los productos habilitados para la
	// tienda (paginando hasta agotar los registros).
	ListEligibleProducts(ctx context.Context) ([]entity.ProductRef, error)

	// GetStockRecord busca un producto por SKU con sus existencias actuales.
	// Devuelve domain.ErrNotFound si el SKU no existe.
	GetStockRecord(ctx context.Context, sku string) (*entity.StockRecord, error)

	// GetQuantity devuelve la existencia normalizada de un SKU.
	// Devuelve domain.ErrNotFound si el SKU no existe.
	GetQuantity(ctx context.Context, sku string) (int64, error)

	// AppendMovement registra un movimiento de inventario. No recalcula:
	// las existencias quedan desactualizadas hasta llamar a Recalculate.
	AppendMovement(ctx context.Context, movement entity.StockMovement) error

	// Recalculate ejecuta el script del servidor que recalcula las
	// existencias de un SKU a partir de sus movimientos.
	Recalculate(ctx context.Context, sku string) error

	// Logout cierra la sesión activa, si la hay. Best-effort.
	Logout(ctx context.Context) error
}
