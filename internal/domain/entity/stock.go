package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockCell es la cantidad de un producto en un almacén (clave compuesta producto+almacén).
// Nunca es negativa: el libro de stock la acota en cero.
type StockCell struct {
	ProductID   string
	WarehouseID string
	Quantity    decimal.Decimal
	UpdatedAt   time.Time
}
