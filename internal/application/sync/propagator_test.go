package sync_test

// Pruebas de la tríada de propagación. El orden de los pasos es el corazón
// del diseño (movimiento → recálculo → relectura → publicación) y ningún
// paso debe ejecutarse si el anterior falló.

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-sync/internal/domain"
	"github.com/jhoicas/Inventario-sync/internal/domain/entity"
)

// ── Camino feliz ──────────────────────────────────────────────────────────

func TestPropagate_EjecutaLaTriadaEnOrden(t *testing.T) {
	// El maestro arranca en 10 y la venta de 2 unidades solo se refleja tras
	// el recálculo: si la tríada leyera antes de recalcular vería 10, igual
	// que la tienda, y omitiría la escritura por error.
	ledger, storefront, log := newFakePorts()
	ledger.quantities["1001"] = 10
	storefront.available["1001"] = 10
	propagator := buildPropagator(ledger, storefront, testSyncConfig())

	outcome, err := propagator.Propagate(context.Background(), entity.NewOutMovement("1001", 2), false)

	require.NoError(t, err, "la propagación no debe fallar")
	assert.Equal(t, int64(8), outcome.Quantity, "la cantidad autoritativa es la releída tras el recálculo")
	assert.Equal(t, int64(10), outcome.Previous, "la cantidad previa es la que tenía la tienda")
	assert.True(t, outcome.Updated, "la tienda debió actualizarse")
	assert.False(t, outcome.Skipped)
	assert.Equal(t, int64(8), storefront.stockOf("1001"), "la tienda queda con la cantidad del maestro")

	esperado := []string{
		"append:1001",
		"recalculate:1001",
		"get_quantity:1001",
		"storefront_get:1001",
		"set:1001=8",
	}
	assert.Equal(t, esperado, log.snapshot(), "los pasos deben ejecutarse exactamente en este orden")
}

func TestPropagate_MovimientoNeutroNoCreaRegistro(t *testing.T) {
	ledger, storefront, log := newFakePorts()
	ledger.quantities["1001"] = 7
	storefront.available["1001"] = 3
	propagator := buildPropagator(ledger, storefront, testSyncConfig())

	outcome, err := propagator.Propagate(context.Background(), entity.ZeroMovement("1001"), false)

	require.NoError(t, err)
	assert.True(t, outcome.Updated)
	assert.Empty(t, ledger.recordedMovements(), "un movimiento neutro no debe registrarse")
	assert.Zero(t, log.countPrefix("append:"), "AppendMovement no debe llamarse")
	assert.Equal(t, int64(7), storefront.stockOf("1001"))
}

// ── Diff check y dry-run ──────────────────────────────────────────────────

func TestPropagate_SinDiferenciaOmiteLaEscritura(t *testing.T) {
	ledger, storefront, log := newFakePorts()
	ledger.quantities["1001"] = 5
	storefront.available["1001"] = 5
	propagator := buildPropagator(ledger, storefront, testSyncConfig())

	outcome, err := propagator.Propagate(context.Background(), entity.ZeroMovement("1001"), false)

	require.NoError(t, err)
	assert.True(t, outcome.Skipped, "cantidades iguales deben omitir la escritura")
	assert.False(t, outcome.Updated)
	assert.Zero(t, log.countPrefix("set:"), "no debe haber escrituras en la tienda")
}

func TestPropagate_DiffCheckApagadoEscribeSiempre(t *testing.T) {
	ledger, storefront, log := newFakePorts()
	ledger.quantities["1001"] = 5
	storefront.available["1001"] = 5
	cfg := testSyncConfig()
	cfg.EnableDiffCheck = false
	propagator := buildPropagator(ledger, storefront, cfg)

	outcome, err := propagator.Propagate(context.Background(), entity.ZeroMovement("1001"), false)

	require.NoError(t, err)
	assert.True(t, outcome.Updated)
	assert.Equal(t, 1, log.countPrefix("set:"), "sin diff check la escritura ocurre aunque coincidan")
}

func TestPropagate_DryRunSuprimeLaEscritura(t *testing.T) {
	ledger, storefront, log := newFakePorts()
	ledger.quantities["1001"] = 9
	storefront.available["1001"] = 4
	propagator := buildPropagator(ledger, storefront, testSyncConfig())

	outcome, err := propagator.Propagate(context.Background(), entity.ZeroMovement("1001"), true)

	require.NoError(t, err)
	assert.True(t, outcome.Updated, "en dry-run la actualización pendiente se reporta igual")
	assert.Equal(t, int64(9), outcome.Quantity)
	assert.Equal(t, int64(4), outcome.Previous)
	assert.Zero(t, log.countPrefix("set:"), "dry-run nunca escribe en la tienda")
	assert.Equal(t, int64(4), storefront.stockOf("1001"), "la tienda conserva su cantidad")
}

// ── Fallos por paso ───────────────────────────────────────────────────────

func TestPropagate_FalloAlRegistrarDetieneLaTriada(t *testing.T) {
	ledger, storefront, log := newFakePorts()
	ledger.quantities["1001"] = 10
	storefront.available["1001"] = 10
	ledger.appendErr["1001"] = errors.New("sesión caducada")
	propagator := buildPropagator(ledger, storefront, testSyncConfig())

	_, err := propagator.Propagate(context.Background(), entity.NewOutMovement("1001", 1), false)

	require.Error(t, err)
	assert.Equal(t, []string{"append:1001"}, log.snapshot(), "ningún paso posterior debe ejecutarse")
}

func TestPropagate_FalloDelRecalculoDetieneLaTriada(t *testing.T) {
	ledger, storefront, log := newFakePorts()
	ledger.quantities["1001"] = 10
	storefront.available["1001"] = 10
	ledger.recalcErr["1001"] = errors.New("script no disponible")
	propagator := buildPropagator(ledger, storefront, testSyncConfig())

	_, err := propagator.Propagate(context.Background(), entity.ZeroMovement("1001"), false)

	require.Error(t, err)
	assert.Equal(t, []string{"recalculate:1001"}, log.snapshot(), "ni la relectura ni la tienda deben tocarse")
}

func TestPropagate_FalloDeRelecturaDetieneLaTriada(t *testing.T) {
	ledger, storefront, log := newFakePorts()
	ledger.quantities["1001"] = 10
	storefront.available["1001"] = 4
	ledger.readErr["1001"] = errors.New("registro bloqueado")
	propagator := buildPropagator(ledger, storefront, testSyncConfig())

	_, err := propagator.Propagate(context.Background(), entity.ZeroMovement("1001"), false)

	require.Error(t, err)
	assert.Equal(t, []string{"recalculate:1001", "get_quantity:1001"}, log.snapshot())
	assert.Equal(t, int64(4), storefront.stockOf("1001"), "la tienda no debe tocarse")
}

func TestPropagate_SKUAusenteEnLaTiendaFalla(t *testing.T) {
	ledger, storefront, log := newFakePorts()
	ledger.quantities["1001"] = 10
	propagator := buildPropagator(ledger, storefront, testSyncConfig())

	_, err := propagator.Propagate(context.Background(), entity.ZeroMovement("1001"), false)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound, "el error debe conservar la causa no-encontrado")
	assert.Zero(t, log.countPrefix("set:"))
}

func TestPropagate_FalloDeEscrituraEnLaTienda(t *testing.T) {
	ledger, storefront, _ := newFakePorts()
	ledger.quantities["1001"] = 10
	storefront.available["1001"] = 2
	storefront.setErr["1001"] = errors.New("la ubicación no admite inventario")
	propagator := buildPropagator(ledger, storefront, testSyncConfig())

	_, err := propagator.Propagate(context.Background(), entity.ZeroMovement("1001"), false)

	require.Error(t, err)
	assert.Equal(t, int64(2), storefront.stockOf("1001"), "la cantidad de la tienda no debe cambiar")
}
