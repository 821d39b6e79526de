package sync_test

// Pruebas de la verificación de conectividad: cada sistema se prueba por
// separado y el fallo de uno no impide probar el otro.

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	appsync "github.com/jhoicas/Inventario-sync/internal/application/sync"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
)

func buildConnectivity(ledger *fakeLedger, storefront *fakeStorefront) *appsync.ConnectivityUseCase {
	return appsync.NewConnectivityUseCase(ledger, storefront, logger.Nop())
}

func TestCheck_AmbosSistemasResponden(t *testing.T) {
	// La tienda está vacía: la sonda devuelve no-encontrado, lo que igual
	// demuestra que la API responde y autentica.
	ledger, storefront, _ := newFakePorts()
	uc := buildConnectivity(ledger, storefront)

	report := uc.Check(context.Background())

	assert.True(t, report.Ledger.OK)
	assert.True(t, report.Storefront.OK, "un SKU ausente no es un fallo de conexión")
	assert.True(t, report.Healthy())
	assert.Empty(t, report.Ledger.Error)
	assert.Empty(t, report.Storefront.Error)
}

func TestCheck_FalloDelMaestroNoImpideProbarLaTienda(t *testing.T) {
	ledger, storefront, log := newFakePorts()
	ledger.authErr = errors.New("host inalcanzable")
	uc := buildConnectivity(ledger, storefront)

	report := uc.Check(context.Background())

	assert.False(t, report.Ledger.OK)
	assert.Contains(t, report.Ledger.Error, "host inalcanzable")
	assert.True(t, report.Storefront.OK, "la tienda se prueba aunque FileMaker falle")
	assert.False(t, report.Healthy())
	assert.Equal(t, 1, log.countPrefix("storefront_get:"), "la sonda contra la tienda debe ejecutarse")
}

func TestCheck_FalloDeLaTienda(t *testing.T) {
	ledger, storefront, _ := newFakePorts()
	storefront.getAllErr = errors.New("HTTP 401 de la tienda")
	uc := buildConnectivity(ledger, storefront)

	report := uc.Check(context.Background())

	assert.True(t, report.Ledger.OK)
	assert.False(t, report.Storefront.OK)
	assert.Contains(t, report.Storefront.Error, "HTTP 401")
	assert.False(t, report.Healthy())
}
