package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de transferencia.
const (
	TransferPending   = "pending"
	TransferCompleted = "completed"
	TransferCancelled = "cancelled"
)

// TransferItem línea de una transferencia.
type TransferItem struct {
	ProductID string          `json:"productId"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// Transfer mueve una lista de productos de un almacén origen a uno destino.
// completed y cancelled son terminales.
type Transfer struct {
	ID                string
	SourceWarehouseID string
	TargetWarehouseID string
	Items             []TransferItem
	Status            string
	Notes             string
	CreatedBy         string
	CompletedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsTerminal indica si la transferencia ya no admite cambios de estado.
func (t *Transfer) IsTerminal() bool {
	return t.Status == TransferCompleted || t.Status == TransferCancelled
}

// ValidTransferStatus indica si s es un estado conocido.
func ValidTransferStatus(s string) bool {
	return s == TransferPending || s == TransferCompleted || s == TransferCancelled
}
