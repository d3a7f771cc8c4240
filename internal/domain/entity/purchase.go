package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de compra (y de cada línea).
const (
	PurchasePending   = "pending"
	PurchasePartial   = "partial"
	PurchaseCompleted = "completed"
)

// Tipos del historial de compras.
const (
	PurchaseHistoryCreate  = "create"
	PurchaseHistoryReceive = "receive"
)

// PurchaseItem línea de compra. Received <= Quantity siempre.
type PurchaseItem struct {
	ProductID     string          `json:"productId"`
	Name          string          `json:"name,omitempty"`
	Category      string          `json:"category,omitempty"`
	UnitOfMeasure string          `json:"unitOfMeasure,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	Received      decimal.Decimal `json:"received"`
	Status        string          `json:"status"`
}

// Pending devuelve la cantidad aún no recibida.
func (i PurchaseItem) Pending() decimal.Decimal {
	return i.Quantity.Sub(i.Received)
}

// Purchase compra a proveedor con recepción incremental.
type Purchase struct {
	ID           string
	Supplier     string
	Items        []PurchaseItem
	Invoice      string
	ShippingCost decimal.Decimal
	TotalCost    decimal.Decimal
	Status       string
	Notes        string
	CreatedBy    string
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ReceivedLine resumen de una línea recibida en una recepción.
type ReceivedLine struct {
	ProductID string          `json:"productId"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// PurchaseHistoryEntry log propio de compras (distinto del historial de stock).
type PurchaseHistoryEntry struct {
	ID          string
	PurchaseID  string
	Type        string
	WarehouseID string
	Lines       []ReceivedLine
	Status      string
	Notes       string
	UserID      string
	Timestamp   time.Time
}
