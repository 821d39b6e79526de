package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound      = errors.New("recurso no encontrado")
	ErrInvalidInput  = errors.New("entrada inválida")
	ErrUnauthorized  = errors.New("no autorizado")
	ErrRateLimited   = errors.New("límite de peticiones alcanzado")
	ErrNotConfigured = errors.New("configuración incompleta")
)

// AuthenticationError indica un fallo al autenticar contra un sistema externo.
type AuthenticationError struct {
	System     string // "filemaker" o "shopify"
	StatusCode int
	Message    string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("autenticación fallida en %s (HTTP %d): %s", e.System, e.StatusCode, e.Message)
}

func (e *AuthenticationError) Unwrap() error { return ErrUnauthorized }

// LedgerError representa un error reportado por el Data API de FileMaker.
// Code es el código de mensaje propio de FileMaker ("0" es éxito, "401" sin registros).
type LedgerError struct {
	Op      string // operación que falló: "find", "create_record", "script", ...
	Code    string
	Message string
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("filemaker %s: código %s: %s", e.Op, e.Code, e.Message)
}

// StorefrontError representa un error del Admin API de Shopify, incluidos
// los userErrors devueltos por mutaciones GraphQL.
type StorefrontError struct {
	Op         string
	StatusCode int
	Message    string
	Fields     []string // campos señalados en userErrors, si los hay
}

func (e *StorefrontError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("shopify %s: %s (campos: %s)", e.Op, e.Message, strings.Join(e.Fields, ", "))
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("shopify %s (HTTP %d): %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("shopify %s: %s", e.Op, e.Message)
}

// RateLimitError indica que Shopify respondió 429. RetryAfter es la espera
// sugerida por el servidor antes del siguiente intento.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("límite de peticiones alcanzado, reintentar en %s", e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// WebhookValidationError indica que un webhook entrante no superó la validación.
type WebhookValidationError struct {
	Reason string
}

func (e *WebhookValidationError) Error() string {
	return fmt.Sprintf("webhook inválido: %s", e.Reason)
}
