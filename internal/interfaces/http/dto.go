package http

// ErrorResponse respuesta de error estándar de la API.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WebhookAck respuesta de recepción de un webhook.
type WebhookAck struct {
	Status    string `json:"status"`
	Topic     string `json:"topic,omitempty"`
	OrderID   int64  `json:"order_id,omitempty"`
	OrderName string `json:"order_name,omitempty"`
	Message   string `json:"message"`
}
