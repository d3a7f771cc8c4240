package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de entrada del historial de stock.
const (
	HistoryCreate            = "create"
	HistoryUpdate            = "update"
	HistoryDelete            = "delete"
	HistoryTransfer          = "transfer"
	HistoryTransferCompleted = "transfer_completed"
	HistoryTransferCancelled = "transfer_cancelled"
	HistoryPurchaseReceive   = "purchase_receive"
	HistoryFumigation        = "fumigation"
)

// StockHistoryEntry registro de auditoría append-only. Previous/New son cantidades
// totales del producto (no de la celda).
type StockHistoryEntry struct {
	ID                string
	ProductID         string
	Type              string
	PreviousQuantity  decimal.Decimal
	NewQuantity       decimal.Decimal
	Quantity          decimal.Decimal // cantidad movida (opcional)
	WarehouseID       string
	SourceWarehouseID string
	TargetWarehouseID string
	TransferID        string
	PurchaseID        string
	FumigationID      string
	UserID            string
	Notes             string
	Timestamp         time.Time
}
