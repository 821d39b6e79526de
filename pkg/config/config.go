package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App       AppConfig
	HTTP      HTTPConfig
	API       APIConfig
	FileMaker FileMakerConfig
	Shopify   ShopifyConfig
	Sync      SyncConfig
	Scheduler SchedulerConfig
	Webhook   WebhookConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// IsProduction indica si el entorno es production.
func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// APIConfig parámetros del transporte HTTP hacia los dos sistemas externos.
type APIConfig struct {
	Timeout    time.Duration // timeout por petición
	MaxRetries int           // reintentos ante fallos de red/timeout
	RetryDelay time.Duration // espera base; se duplica en cada reintento
}

// FileMakerConfig acceso al Data API de FileMaker.
type FileMakerConfig struct {
	Host       string
	Database   string
	Username   string
	Password   string
	SessionTTL time.Duration // vida del token en caché; el servidor expira sesiones a los 15 min
}

// BaseURL devuelve el host con esquema https si no viene incluido.
func (c FileMakerConfig) BaseURL() string {
	if strings.HasPrefix(c.Host, "https://") || strings.HasPrefix(c.Host, "http://") {
		return strings.TrimRight(c.Host, "/")
	}
	return "https://" + strings.TrimRight(c.Host, "/")
}

// ShopifyConfig acceso al Admin API de Shopify.
type ShopifyConfig struct {
	ShopURL        string
	AccessToken    string
	LocationID     string // ID numérico o GID completo; el cliente lo normaliza
	WebhookSecret  string
	APIVersion     string
	RateLimitDelay time.Duration // pausa tras cada llamada GraphQL
}

// BaseURL devuelve la URL de la tienda con esquema https si no viene incluido.
func (c ShopifyConfig) BaseURL() string {
	if strings.HasPrefix(c.ShopURL, "https://") || strings.HasPrefix(c.ShopURL, "http://") {
		return strings.TrimRight(c.ShopURL, "/")
	}
	return "https://" + strings.TrimRight(c.ShopURL, "/")
}

// SyncConfig parámetros de la reconciliación.
type SyncConfig struct {
	BatchSize       int           // actualizaciones por lote en la fase de aplicación
	EnableDiffCheck bool          // omitir escrituras cuando las cantidades coinciden
	PacingDelay     time.Duration // pausa entre recálculos para no saturar FileMaker
}

// SchedulerConfig programación de la reconciliación nocturna.
type SchedulerConfig struct {
	Timezone   string
	Hour       int
	Minute     int
	RunOnStart bool
}

// WebhookConfig validación de webhooks entrantes.
type WebhookConfig struct {
	ValidateSignature bool
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: FILEMAKER_HOST, SHOPIFY_ACCESS_TOKEN, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	// Bind de variables de entorno (Viper las lee automáticamente si AutomaticEnv está activo)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "ENVIRONMENT", "development"),
			Name:     getString(v, "APP_NAME", "inventario-sync"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "PORT", 8000),
		},
		API: APIConfig{
			Timeout:    getDuration(v, "API_TIMEOUT", 30*time.Second),
			MaxRetries: getInt(v, "API_MAX_RETRIES", 3),
			RetryDelay: getDuration(v, "API_RETRY_DELAY", time.Second),
		},
		FileMaker: FileMakerConfig{
			Host:       getString(v, "FILEMAKER_HOST", ""),
			Database:   getString(v, "FILEMAKER_DATABASE", ""),
			Username:   getString(v, "FILEMAKER_USERNAME", ""),
			Password:   getString(v, "FILEMAKER_PASSWORD", ""),
			SessionTTL: getDuration(v, "FILEMAKER_SESSION_TTL", 14*time.Minute),
		},
		Shopify: ShopifyConfig{
			ShopURL:        getString(v, "SHOPIFY_SHOP_URL", ""),
			AccessToken:    getString(v, "SHOPIFY_ACCESS_TOKEN", ""),
			LocationID:     getString(v, "SHOPIFY_LOCATION_ID", ""),
			WebhookSecret:  getString(v, "SHOPIFY_WEBHOOK_SECRET", ""),
			APIVersion:     getString(v, "SHOPIFY_API_VERSION", "2024-01"),
			RateLimitDelay: getDuration(v, "SHOPIFY_RATE_LIMIT_DELAY", 500*time.Millisecond),
		},
		Sync: SyncConfig{
			BatchSize:       getInt(v, "SYNC_BATCH_SIZE", 100),
			EnableDiffCheck: getBool(v, "SYNC_ENABLE_DIFF_CHECK", true),
			PacingDelay:     getDuration(v, "SYNC_PACING_DELAY", 200*time.Millisecond),
		},
		Scheduler: SchedulerConfig{
			Timezone:   getString(v, "SCHEDULER_TIMEZONE", "America/Santiago"),
			Hour:       getInt(v, "SCHEDULER_HOUR", 22),
			Minute:     getInt(v, "SCHEDULER_MINUTE", 0),
			RunOnStart: getBool(v, "SCHEDULER_RUN_ON_START", true),
		},
		Webhook: WebhookConfig{
			ValidateSignature: getBool(v, "WEBHOOK_VALIDATE_SIGNATURE", true),
		},
	}

	return cfg, nil
}

// Validate verifica que las credenciales obligatorias estén presentes.
// Devuelve un error que nombra cada variable faltante.
func (c *Config) Validate() error {
	var faltan []string

	if c.FileMaker.Host == "" {
		faltan = append(faltan, "FILEMAKER_HOST")
	}
	if c.FileMaker.Database == "" {
		faltan = append(faltan, "FILEMAKER_DATABASE")
	}
	if c.FileMaker.Username == "" {
		faltan = append(faltan, "FILEMAKER_USERNAME")
	}
	if c.FileMaker.Password == "" {
		faltan = append(faltan, "FILEMAKER_PASSWORD")
	}
	if c.Shopify.ShopURL == "" {
		faltan = append(faltan, "SHOPIFY_SHOP_URL")
	}
	if c.Shopify.AccessToken == "" {
		faltan = append(faltan, "SHOPIFY_ACCESS_TOKEN")
	}
	if c.Shopify.LocationID == "" {
		faltan = append(faltan, "SHOPIFY_LOCATION_ID")
	}

	if len(faltan) > 0 {
		return fmt.Errorf("configuración incompleta: faltan %s", strings.Join(faltan, ", "))
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}

// getDuration acepta duraciones Go ("30s", "1m") o enteros en segundos ("30").
func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if !v.IsSet(key) {
		return def
	}
	s := v.GetString(key)
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
