package http

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jhoicas/Inventario-sync/internal/application/sync"
	"github.com/jhoicas/Inventario-sync/internal/domain/entity"
	"github.com/jhoicas/Inventario-sync/pkg/logger"
)

// Temas de webhook que sí descuentan stock. Los demás (orders/cancelled,
// orders/updated, ...) se reconocen con 200 pero no se procesan, para no
// alterar el inventario por eventos que no son ventas.
var allowedOrderTopics = map[string]bool{
	"orders/create": true,
	"orders/paid":   true,
}

// WebhookHandler recibe los webhooks de pedidos de Shopify.
type WebhookHandler struct {
	orders       *sync.OrderUseCase
	validator    *WebhookValidator
	isProduction bool
	log          *logger.Logger
}

// NewWebhookHandler construye el handler de webhooks.
func NewWebhookHandler(orders *sync.OrderUseCase, validator *WebhookValidator, isProduction bool, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		orders:       orders,
		validator:    validator,
		isProduction: isProduction,
		log:          log.Componente("webhook"),
	}
}

// HandleOrder procesa un webhook de pedido: valida firma y dominio sobre el
// cuerpo crudo, filtra por tema, y encola el procesamiento en segundo plano
// respondiendo de inmediato.
func (h *WebhookHandler) HandleOrder(c *fiber.Ctx) error {
	body := c.Body()

	signature := c.Get("X-Shopify-Hmac-SHA256")
	shopDomain := c.Get("X-Shopify-Shop-Domain")
	topic := c.Get("X-Shopify-Topic")

	correlationID := c.Get("X-Shopify-Webhook-Id")
	if correlationID == "" {
		correlationID = uuid.New().String()
	}

	h.log.Info().
		Str("tema", topic).
		Str("dominio", shopDomain).
		Str("correlacion", correlationID).
		Msg("webhook recibido")

	// Validación de autenticidad antes de tocar el contenido
	if err := h.validator.ValidateSignature(body, signature); err != nil {
		h.log.Error().Err(err).Str("correlacion", correlationID).Msg("validación del webhook fallida")
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Code: "WEBHOOK_INVALID", Message: err.Error()})
	}
	if err := h.validator.ValidateDomain(shopDomain); err != nil {
		h.log.Error().Err(err).Str("correlacion", correlationID).Msg("validación del webhook fallida")
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Code: "WEBHOOK_INVALID", Message: err.Error()})
	}

	// Filtro por tema
	if !allowedOrderTopics[topic] {
		h.log.Info().Str("tema", topic).Msg("tema de webhook ignorado")
		return c.JSON(WebhookAck{
			Status:  "ignored",
			Topic:   topic,
			Message: "tema no procesado",
		})
	}

	var order entity.Order
	if err := json.Unmarshal(body, &order); err != nil {
		h.log.Error().Err(err).Str("correlacion", correlationID).Msg("JSON del webhook inválido")
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "payload JSON inválido"})
	}

	h.log.Info().
		Str("pedido", order.Reference()).
		Int64("id", order.ID).
		Str("correlacion", correlationID).
		Msg("pedido encolado para procesamiento")

	// Procesar en segundo plano; la respuesta al webhook no espera el resultado.
	go h.processInBackground(order, correlationID)

	return c.JSON(WebhookAck{
		Status:    "accepted",
		OrderID:   order.ID,
		OrderName: order.Name,
		Message:   "webhook recibido y encolado",
	})
}

// processInBackground ejecuta el descuento de stock fuera del ciclo de la
// petición. El contexto es independiente: la respuesta HTTP ya se envió.
func (h *WebhookHandler) processInBackground(order entity.Order, correlationID string) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error().
				Str("correlacion", correlationID).
				Interface("panico", r).
				Msg("pánico procesando el pedido en segundo plano")
		}
	}()

	result := h.orders.ProcessOrder(context.Background(), order)

	if result.Success {
		h.log.Info().
			Str("pedido", order.Reference()).
			Str("correlacion", correlationID).
			Int("actualizados", result.UpdatedCount).
			Msg("procesamiento en segundo plano completado")
	} else {
		h.log.Warn().
			Str("pedido", order.Reference()).
			Str("correlacion", correlationID).
			Int("fallidos", result.FailedCount).
			Msg("procesamiento en segundo plano terminó con errores")
	}
}

// HandleTest eco de pruebas, disponible solo fuera de producción.
func (h *WebhookHandler) HandleTest(c *fiber.Ctx) error {
	if h.isProduction {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	}

	var payload map[string]any
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "payload JSON inválido"})
	}

	h.log.Info().Interface("payload", payload).Msg("webhook de prueba recibido")

	return c.JSON(fiber.Map{
		"status":  "test_success",
		"message": "webhook de prueba recibido",
		"data":    payload,
	})
}
