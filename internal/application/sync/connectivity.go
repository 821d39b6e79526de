package sync

import (
	"context"
	"errors"

	"github.com/jhoicas/Inventario-sync/internal/application/ports"
	"github.com/jhoicas/Inventario-sync/internal/domain"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
)

// SKU centinela para la sonda de conectividad contra la tienda. No necesita
// existir: un "no encontrado" también demuestra que la API responde.
const probeSKU = "TEST-CONNECTION-SKU"

// SystemStatus es el estado de conexión de un sistema externo.
type SystemStatus struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ConnectivityReport agrupa el resultado de probar ambos sistemas.
type ConnectivityReport struct {
	Ledger     SystemStatus `json:"filemaker"`
	Storefront SystemStatus `json:"shopify"`
}

// Healthy indica si ambos sistemas respondieron.
func (r ConnectivityReport) Healthy() bool {
	return r.Ledger.OK && r.Storefront.OK
}

// ConnectivityUseCase verifica el acceso a FileMaker y Shopify.
type ConnectivityUseCase struct {
	ledger     ports.LedgerService
	storefront ports.StorefrontService
	log        *logger.Logger
}

// NewConnectivityUseCase construye la verificación de conectividad.
func NewConnectivityUseCase(ledger ports.LedgerService, storefront ports.StorefrontService, log *logger.Logger) *ConnectivityUseCase {
	return &ConnectivityUseCase{
		ledger:     ledger,
		storefront: storefront,
		log:        log.Componente("sync"),
	}
}

// Check prueba ambos sistemas y devuelve el reporte. Un fallo de conexión no
// interrumpe la prueba del otro sistema.
func (uc *ConnectivityUseCase) Check(ctx context.Context) ConnectivityReport {
	var report ConnectivityReport
	uc.log.Info().Msg("probando conexiones a los sistemas externos")

	if _, err := uc.ledger.Authenticate(ctx, false); err != nil {
		report.Ledger.Error = err.Error()
		uc.log.Error().Err(err).Msg("conexión con FileMaker fallida")
	} else {
		report.Ledger.OK = true
		uc.log.Info().Msg("conexión con FileMaker exitosa")
	}

	// Para Shopify basta cualquier respuesta bien formada: un SKU ausente
	// sigue demostrando que la autenticación y el transporte funcionan.
	if _, err := uc.storefront.GetInventoryBySKU(ctx, probeSKU); err != nil && !errors.Is(err, domain.ErrNotFound) {
		report.Storefront.Error = err.Error()
		uc.log.Error().Err(err).Msg("conexión con Shopify fallida")
	} else {
		report.Storefront.OK = true
		uc.log.Info().Msg("conexión con Shopify exitosa")
	}

	return report
}
