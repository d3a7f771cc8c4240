package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Valores por defecto del catálogo.
const (
	DefaultUnitOfMeasure = "unidad"
	DefaultCategory      = "Sin categoría"
)

// Product representa un insumo agrícola del inventario (multi-almacén).
// Quantity es la suma de WarehouseStock; se recalcula en cada movimiento del libro de stock.
type Product struct {
	ID             string
	Name           string
	Category       string
	Quantity       decimal.Decimal
	MinStock       decimal.Decimal
	UnitOfMeasure  string
	LotNumber      string
	ExpiryDate     *time.Time
	Notes          string
	WarehouseStock map[string]decimal.Decimal // warehouseID -> cantidad
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsLowStock indica si la cantidad total no supera el stock mínimo.
func (p *Product) IsLowStock() bool {
	return p.Quantity.LessThanOrEqual(p.MinStock)
}

// ExpiresWithin indica si el producto vence entre now y now+d.
func (p *Product) ExpiresWithin(now time.Time, d time.Duration) bool {
	if p.ExpiryDate == nil {
		return false
	}
	return p.ExpiryDate.After(now) && p.ExpiryDate.Before(now.Add(d))
}

// StockTotal suma las cantidades por almacén.
func (p *Product) StockTotal() decimal.Decimal {
	total := decimal.Zero
	for _, q := range p.WarehouseStock {
		total = total.Add(q)
	}
	return total
}
