package sync_test

// Dobles de prueba en memoria para los puertos de salida. Ambos comparten una
// bitácora ordenada de llamadas, lo que permite verificar no solo qué se llamó
// sino en qué orden: la tríada de propagación depende de ese orden.

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jhoicas/Inventario-sync/internal/application/ports"
	appsync "github.com/jhoicas/Inventario-sync/internal/application/sync"
	"github.com/jhoicas/Inventario-sync/internal/domain"
	"github.com/jhoicas/Inventario-sync/internal/domain/entity"
	"github.com/jhoicas/Inventario-sync/pkg/config"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
)

// Verificación en compilación de que los dobles cumplen los puertos
var (
	_ ports.LedgerService     = (*fakeLedger)(nil)
	_ ports.StorefrontService = (*fakeStorefront)(nil)
)

// ── Bitácora compartida ───────────────────────────────────────────────────

// callLog acumula las llamadas a ambos puertos en orden de ejecución.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func (l *callLog) countPrefix(prefix string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, call := range l.calls {
		if strings.HasPrefix(call, prefix) {
			n++
		}
	}
	return n
}

// ── Inventario maestro falso ──────────────────────────────────────────────

// fakeLedger simula el inventario maestro. Igual que el sistema real, las
// existencias no reflejan los movimientos registrados hasta que se llama a
// Recalculate: una prueba detecta así si la tríada lee antes de recalcular.
type fakeLedger struct {
	log *callLog

	mu         sync.Mutex
	quantities map[string]int64
	pending    map[string][]entity.StockMovement
	movements  []entity.StockMovement
	authCalls  int

	products []entity.ProductRef
	listErr  error
	authErr  error

	appendErr map[string]error
	recalcErr map[string]error
	readErr   map[string]error
}

func (f *fakeLedger) Authenticate(ctx context.Context, forceRefresh bool) (string, error) {
	f.log.add("authenticate")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authCalls++
	if f.authErr != nil {
		return "", f.authErr
	}
	return "tok-prueba", nil
}

func (f *fakeLedger) ListEligibleProducts(ctx context.Context) ([]entity.ProductRef, error) {
	f.log.add("list_products")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]entity.ProductRef(nil), f.products...), nil
}

func (f *fakeLedger) GetStockRecord(ctx context.Context, sku string) (*entity.StockRecord, error) {
	f.log.add("get_record:%s", sku)
	f.mu.Lock()
	defer f.mu.Unlock()
	qty, ok := f.quantities[sku]
	if !ok {
		return nil, fmt.Errorf("SKU %s: %w", sku, domain.ErrNotFound)
	}
	return &entity.StockRecord{SKU: sku, Quantity: qty}, nil
}

func (f *fakeLedger) GetQuantity(ctx context.Context, sku string) (int64, error) {
	f.log.add("get_quantity:%s", sku)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.readErr[sku]; err != nil {
		return 0, err
	}
	qty, ok := f.quantities[sku]
	if !ok {
		return 0, fmt.Errorf("SKU %s: %w", sku, domain.ErrNotFound)
	}
	return qty, nil
}

func (f *fakeLedger) AppendMovement(ctx context.Context, movement entity.StockMovement) error {
	f.log.add("append:%s", movement.SKU)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.appendErr[movement.SKU]; err != nil {
		return err
	}
	f.movements = append(f.movements, movement)
	f.pending[movement.SKU] = append(f.pending[movement.SKU], movement)
	return nil
}

func (f *fakeLedger) Recalculate(ctx context.Context, sku string) error {
	f.log.add("recalculate:%s", sku)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.recalcErr[sku]; err != nil {
		return err
	}
	qty, ok := f.quantities[sku]
	if !ok {
		return fmt.Errorf("SKU %s: %w", sku, domain.ErrNotFound)
	}
	for _, m := range f.pending[sku] {
		qty += m.QuantityIn - m.QuantityOut
	}
	if qty < 0 {
		qty = 0
	}
	f.quantities[sku] = qty
	delete(f.pending, sku)
	return nil
}

func (f *fakeLedger) Logout(ctx context.Context) error {
	f.log.add("logout")
	return nil
}

func (f *fakeLedger) recordedMovements() []entity.StockMovement {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.StockMovement(nil), f.movements...)
}

func (f *fakeLedger) authCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authCalls
}

// ── Tienda falsa ──────────────────────────────────────────────────────────

// fakeStorefront simula la tienda en línea con cantidades por SKU.
type fakeStorefront struct {
	log *callLog

	mu          sync.Mutex
	available   map[string]int64
	orders      map[int64]*entity.Order
	bulkBatches [][]ports.QuantityUpdate
	invalidated int

	getAllErr error
	getErr    map[string]error
	setErr    map[string]error
}

func (f *fakeStorefront) GetInventoryBySKU(ctx context.Context, sku string) (*entity.InventoryLevel, error) {
	f.log.add("storefront_get:%s", sku)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getAllErr != nil {
		return nil, f.getAllErr
	}
	if err := f.getErr[sku]; err != nil {
		return nil, err
	}
	avail, ok := f.available[sku]
	if !ok {
		return nil, fmt.Errorf("variante con SKU %s: %w", sku, domain.ErrNotFound)
	}
	return &entity.InventoryLevel{
		SKU:             sku,
		VariantID:       "gid://shopify/ProductVariant/v-" + sku,
		InventoryItemID: "gid://shopify/InventoryItem/i-" + sku,
		LocationID:      "gid://shopify/Location/123",
		Available:       avail,
	}, nil
}

func (f *fakeStorefront) SetQuantity(ctx context.Context, sku string, quantity int64) error {
	f.log.add("set:%s=%d", sku, quantity)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.setErr[sku]; err != nil {
		return err
	}
	f.available[sku] = quantity
	return nil
}

func (f *fakeStorefront) BulkSet(ctx context.Context, updates []ports.QuantityUpdate) ports.BulkSetOutcome {
	f.log.add("bulk_set:%d", len(updates))
	f.mu.Lock()
	f.bulkBatches = append(f.bulkBatches, append([]ports.QuantityUpdate(nil), updates...))
	f.mu.Unlock()

	var outcome ports.BulkSetOutcome
	for _, update := range updates {
		if err := f.SetQuantity(ctx, update.SKU, update.Quantity); err != nil {
			outcome.ErrorCount++
			outcome.Errors = append(outcome.Errors, entity.SyncError{SKU: update.SKU, Message: err.Error()})
			continue
		}
		outcome.SuccessCount++
	}
	return outcome
}

func (f *fakeStorefront) GetOrder(ctx context.Context, orderID int64) (*entity.Order, error) {
	f.log.add("get_order:%d", orderID)
	f.mu.Lock()
	defer f.mu.Unlock()
	if order, ok := f.orders[orderID]; ok {
		return order, nil
	}
	return nil, fmt.Errorf("pedido %d: %w", orderID, domain.ErrNotFound)
}

func (f *fakeStorefront) InvalidateCache() {
	f.log.add("invalidate_cache")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated++
}

func (f *fakeStorefront) stockOf(sku string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available[sku]
}

func (f *fakeStorefront) recordedBatches() [][]ports.QuantityUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]ports.QuantityUpdate(nil), f.bulkBatches...)
}

// ── Constructores ─────────────────────────────────────────────────────────

// newFakePorts construye ambos dobles compartiendo la misma bitácora.
func newFakePorts() (*fakeLedger, *fakeStorefront, *callLog) {
	log := &callLog{}
	ledger := &fakeLedger{
		log:        log,
		quantities: make(map[string]int64),
		pending:    make(map[string][]entity.StockMovement),
		appendErr:  make(map[string]error),
		recalcErr:  make(map[string]error),
		readErr:    make(map[string]error),
	}
	storefront := &fakeStorefront{
		log:       log,
		available: make(map[string]int64),
		orders:    make(map[int64]*entity.Order),
		getErr:    make(map[string]error),
		setErr:    make(map[string]error),
	}
	return ledger, storefront, log
}

// testSyncConfig es la configuración estándar de las pruebas: lotes amplios,
// diff check activo y sin pausas para que la suite corra sin esperas.
func testSyncConfig() config.SyncConfig {
	return config.SyncConfig{BatchSize: 100, EnableDiffCheck: true, PacingDelay: 0}
}

func buildPropagator(ledger *fakeLedger, storefront *fakeStorefront, cfg config.SyncConfig) *appsync.StockPropagator {
	return appsync.NewStockPropagator(ledger, storefront, cfg, logger.Nop())
}
