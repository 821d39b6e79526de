package ports

import (
	"context"

	"github.com/jhoicas/Inventario-sync/internal/domain/entity"
)

// BulkSetOutcome resume una actualización masiva de inventario en la tienda.
// Cada ítem se procesa de forma aislada: un fallo no detiene a los demás.
type BulkSetOutcome struct {
	SuccessCount int
	ErrorCount   int
	Errors       []entity.SyncError
}

// QuantityUpdate es una actualización pendiente de cantidad para un SKU.
type QuantityUpdate struct {
	SKU      string
	Quantity int64
}

// StorefrontService define el puerto de salida hacia la tienda en línea
// (Shopify Admin API).
type StorefrontService interface {
	// GetInventoryBySKU resuelve la variante y su nivel de inventario en la
	// ubicación configurada. Devuelve domain.ErrNotFound si el SKU no existe
	// en la tienda.
	GetInventoryBySKU(ctx context.Context, sku string) (*entity.InventoryLevel, error)

	// SetQuantity fija la cantidad disponible de un SKU en la ubicación
	// configurada (escritura absoluta, no incremental).
	SetQuantity(ctx context.Context, sku string, quantity int64) error

	// BulkSet aplica varias actualizaciones con aislamiento por ítem.
	BulkSet(ctx context.Context, updates []QuantityUpdate) BulkSetOutcome

	// GetOrder recupera un pedido por su ID numérico.
	GetOrder(ctx context.Context, orderID int64) (*entity.Order, error)

	// InvalidateCache descarta las referencias SKU→variante en caché.
	InvalidateCache()
}
