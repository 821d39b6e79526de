package filemaker

import (
	"sync"
	"time"
)

// TokenCache guarda en memoria el token de sesión del Data API con su TTL.
// Las sesiones de FileMaker expiran a los 15 minutos de inactividad; el TTL
// local (14 minutos por defecto) renueva antes de ese límite para evitar
// fallos a mitad de petición. Es seguro para uso concurrente.
type TokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time // inyectable en tests
}

// NewTokenCache crea la caché con el TTL indicado (14 minutos si ttl <= 0).
func NewTokenCache(ttl time.Duration) *TokenCache {
	if ttl <= 0 {
		ttl = 14 * time.Minute
	}
	return &TokenCache{ttl: ttl, now: time.Now}
}

// Get devuelve el token vigente, o "" si no hay token o ya expiró.
func (c *TokenCache) Get() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Before(c.expiresAt) {
		return c.token
	}
	return ""
}

// Set guarda un token recién emitido y reinicia su vencimiento.
func (c *TokenCache) Set(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.expiresAt = c.now().Add(c.ttl)
}

// Invalidate descarta el token en caché.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.expiresAt = time.Time{}
}
