package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-sync/pkg/config"
)

// configCompleta devuelve una configuración con todas las credenciales.
func configCompleta() *config.Config {
	cfg := &config.Config{}
	cfg.FileMaker.Host = "fm.ejemplo.com"
	cfg.FileMaker.Database = "inventario"
	cfg.FileMaker.Username = "sync"
	cfg.FileMaker.Password = "secreto"
	cfg.Shopify.ShopURL = "joyeria.myshopify.com"
	cfg.Shopify.AccessToken = "shpat_token"
	cfg.Shopify.LocationID = "123"
	return cfg
}

// ── Load ──────────────────────────────────────────────────────────────────

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "inventario-sync", cfg.App.Name)
	assert.Equal(t, 14*time.Minute, cfg.FileMaker.SessionTTL)
	assert.Equal(t, "2024-01", cfg.Shopify.APIVersion)
	assert.Equal(t, 500*time.Millisecond, cfg.Shopify.RateLimitDelay)
	assert.Equal(t, 100, cfg.Sync.BatchSize)
	assert.True(t, cfg.Sync.EnableDiffCheck)
	assert.Equal(t, 200*time.Millisecond, cfg.Sync.PacingDelay)
	assert.Equal(t, "America/Santiago", cfg.Scheduler.Timezone)
	assert.Equal(t, 22, cfg.Scheduler.Hour)
	assert.Zero(t, cfg.Scheduler.Minute)
	assert.True(t, cfg.Scheduler.RunOnStart)
	assert.True(t, cfg.Webhook.ValidateSignature)
}

func TestLoad_TomaLasVariablesDeEntorno(t *testing.T) {
	t.Setenv("FILEMAKER_HOST", "fm.ejemplo.com")
	t.Setenv("FILEMAKER_DATABASE", "inventario")
	t.Setenv("FILEMAKER_USERNAME", "sync")
	t.Setenv("FILEMAKER_PASSWORD", "secreto")
	t.Setenv("SHOPIFY_SHOP_URL", "joyeria.myshopify.com")
	t.Setenv("SHOPIFY_ACCESS_TOKEN", "shpat_token")
	t.Setenv("SHOPIFY_LOCATION_ID", "123")
	t.Setenv("PORT", "9000")
	t.Setenv("SYNC_BATCH_SIZE", "25")
	t.Setenv("SYNC_ENABLE_DIFF_CHECK", "false")
	t.Setenv("SCHEDULER_HOUR", "3")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "fm.ejemplo.com", cfg.FileMaker.Host)
	assert.Equal(t, "inventario", cfg.FileMaker.Database)
	assert.Equal(t, "joyeria.myshopify.com", cfg.Shopify.ShopURL)
	assert.Equal(t, 9000, cfg.HTTP.Port)
	assert.Equal(t, 25, cfg.Sync.BatchSize)
	assert.False(t, cfg.Sync.EnableDiffCheck)
	assert.Equal(t, 3, cfg.Scheduler.Hour)
	assert.NoError(t, cfg.Validate(), "con todas las credenciales la validación pasa")
}

func TestLoad_DuracionesEnSegundosOFormatoGo(t *testing.T) {
	t.Setenv("API_TIMEOUT", "45")
	t.Setenv("FILEMAKER_SESSION_TTL", "10m")
	t.Setenv("SHOPIFY_RATE_LIMIT_DELAY", "250ms")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, cfg.API.Timeout, "un entero pelado se interpreta como segundos")
	assert.Equal(t, 10*time.Minute, cfg.FileMaker.SessionTTL)
	assert.Equal(t, 250*time.Millisecond, cfg.Shopify.RateLimitDelay)
}

// ── Validate ──────────────────────────────────────────────────────────────

func TestValidate_NombraCadaVariableFaltante(t *testing.T) {
	cfg := configCompleta()
	cfg.FileMaker.Database = ""
	cfg.Shopify.AccessToken = ""

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "FILEMAKER_DATABASE")
	assert.Contains(t, err.Error(), "SHOPIFY_ACCESS_TOKEN")
	assert.NotContains(t, err.Error(), "FILEMAKER_HOST", "las presentes no deben aparecer")
}

func TestValidate_ConfiguracionCompleta(t *testing.T) {
	assert.NoError(t, configCompleta().Validate())
}

// ── Derivados ─────────────────────────────────────────────────────────────

func TestBaseURL_AgregaElEsquemaSoloSiFalta(t *testing.T) {
	casos := []struct {
		nombre   string
		host     string
		esperado string
	}{
		{"sin esquema", "fm.ejemplo.com", "https://fm.ejemplo.com"},
		{"con https", "https://fm.ejemplo.com", "https://fm.ejemplo.com"},
		{"con barra final", "https://fm.ejemplo.com/", "https://fm.ejemplo.com"},
		{"http para entornos locales", "http://localhost:8080", "http://localhost:8080"},
	}

	for _, caso := range casos {
		t.Run(caso.nombre, func(t *testing.T) {
			fm := config.FileMakerConfig{Host: caso.host}
			assert.Equal(t, caso.esperado, fm.BaseURL())

			shop := config.ShopifyConfig{ShopURL: caso.host}
			assert.Equal(t, caso.esperado, shop.BaseURL())
		})
	}
}

func TestAddr_CombinaHostYPuerto(t *testing.T) {
	http := config.HTTPConfig{Host: "0.0.0.0", Port: 8000}
	assert.Equal(t, "0.0.0.0:8000", http.Addr())
}

func TestIsProduction_IgnoraMayusculas(t *testing.T) {
	assert.True(t, config.AppConfig{Env: "production"}.IsProduction())
	assert.True(t, config.AppConfig{Env: "Production"}.IsProduction())
	assert.False(t, config.AppConfig{Env: "development"}.IsProduction())
}
