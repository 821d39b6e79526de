package entity

// InventoryLevel representa el inventario de una variante en la tienda
// (Shopify), resuelto por SKU. Los identificadores son GIDs de GraphQL.
type InventoryLevel struct {
	SKU             string
	VariantID       string
	InventoryItemID string
	LocationID      string
	Available       int64
}
