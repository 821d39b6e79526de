package entity

// StockMovement representa un movimiento de inventario a registrar en el
// inventario maestro. Las cantidades son siempre no negativas: una venta es
// una salida, una devolución una entrada. Un movimiento con ambas cantidades
// en cero sirve para forzar el recálculo de existencias sin alterarlas.
type StockMovement struct {
	SKU         string
	QuantityOut int64
	QuantityIn  int64
}

// NewOutMovement crea un movimiento de salida (venta, descuento de stock).
func NewOutMovement(sku string, qty int64) StockMovement {
	return StockMovement{SKU: sku, QuantityOut: qty}
}

// NewInMovement crea un movimiento de entrada (devolución, reposición).
func NewInMovement(sku string, qty int64) StockMovement {
	return StockMovement{SKU: sku, QuantityIn: qty}
}

// ZeroMovement crea un movimiento neutro que solo dispara el recálculo.
func ZeroMovement(sku string) StockMovement {
	return StockMovement{SKU: sku}
}

// IsZero indica si el movimiento no altera existencias.
func (m StockMovement) IsZero() bool {
	return m.QuantityOut == 0 && m.QuantityIn == 0
}
