package entity

import (
	"strings"

	"github.com/shopspring/decimal"
)

// StockRecord representa un producto del inventario maestro (FileMaker).
// Quantity es la existencia calculada a partir de los movimientos.
type StockRecord struct {
	SKU            string
	Name           string
	Quantity       int64
	Price          decimal.Decimal
	Classification string
	RecordID       string // recordId interno del Data API, útil para trazas
}

// ProductRef identifica un producto elegible para sincronización.
type ProductRef struct {
	SKU  string
	Name string
}

// NormalizeQuantity convierte un valor crudo del inventario maestro en una
// cantidad entera no negativa. Campos ausentes, vacíos o no numéricos valen 0;
// los decimales se truncan hacia cero y los negativos se llevan a 0.
func NormalizeQuantity(raw any) int64 {
	var d decimal.Decimal

	switch v := raw.(type) {
	case nil:
		return 0
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0
		}
		parsed, err := decimal.NewFromString(s)
		if err != nil {
			return 0
		}
		d = parsed
	case float64:
		d = decimal.NewFromFloat(v)
	case int:
		d = decimal.NewFromInt(int64(v))
	case int64:
		d = decimal.NewFromInt(v)
	case decimal.Decimal:
		d = v
	default:
		return 0
	}

	n := d.IntPart()
	if n < 0 {
		return 0
	}
	return n
}
