package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"github.com/jhoicas/Inventario-sync/internal/domain"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
)

// WebhookValidator verifica la autenticidad de los webhooks de Shopify:
// firma HMAC-SHA256 sobre el cuerpo crudo y dominio de origen.
type WebhookValidator struct {
	secret  string
	enabled bool
	log     *logger.Logger
}

// NewWebhookValidator construye el validador. Con enabled en false la firma
// no se verifica (solo para desarrollo local; se advierte en cada petición).
func NewWebhookValidator(secret string, enabled bool, log *logger.Logger) *WebhookValidator {
	return &WebhookValidator{
		secret:  secret,
		enabled: enabled,
		log:     log.Componente("webhook"),
	}
}

// ValidateSignature compara la firma del header X-Shopify-Hmac-SHA256 contra
// el HMAC-SHA256 (en base64) del cuerpo crudo, en tiempo constante.
func (v *WebhookValidator) ValidateSignature(body []byte, signatureHeader string) error {
	if !v.enabled {
		v.log.Warn().Msg("la validación de firma de webhooks está deshabilitada")
		return nil
	}

	if signatureHeader == "" {
		return &domain.WebhookValidationError{Reason: "falta el header X-Shopify-Hmac-SHA256"}
	}

	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signatureHeader)) {
		return &domain.WebhookValidationError{Reason: "firma del webhook inválida"}
	}

	v.log.Debug().Msg("firma del webhook validada")
	return nil
}

// ValidateDomain verifica que el dominio de origen sea una tienda Shopify.
func (v *WebhookValidator) ValidateDomain(shopDomain string) error {
	if shopDomain == "" {
		return &domain.WebhookValidationError{Reason: "falta el header X-Shopify-Shop-Domain"}
	}
	if !strings.HasSuffix(shopDomain, ".myshopify.com") {
		return &domain.WebhookValidationError{Reason: "dominio de origen inválido: " + shopDomain}
	}

	v.log.Debug().Str("dominio", shopDomain).Msg("dominio de origen validado")
	return nil
}
