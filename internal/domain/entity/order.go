package entity

import "strconv"

// Order es el pedido recibido por webhook de Shopify. Solo se mapean los
// campos que la sincronización necesita; el resto del payload se ignora.
type Order struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	OrderNumber     int64      `json:"order_number"`
	FinancialStatus string     `json:"financial_status"`
	CreatedAt       string     `json:"created_at"`
	LineItems       []LineItem `json:"line_items"`
}

// LineItem es una línea del pedido.
type LineItem struct {
	ID       int64  `json:"id"`
	SKU      string `json:"sku"`
	Title    string `json:"title"`
	Quantity int64  `json:"quantity"`
}

// Reference devuelve un identificador legible del pedido para trazas.
func (o Order) Reference() string {
	if o.Name != "" {
		return o.Name
	}
	return strconv.FormatInt(o.ID, 10)
}
