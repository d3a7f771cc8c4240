package dto

import "github.com/shopspring/decimal"

// TransferItemDTO línea {productId, quantity}.
type TransferItemDTO struct {
	ProductID string          `json:"productId" validate:"required,uuid"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// CreateTransferRequest entrada para crear una transferencia (status por defecto pending).
type CreateTransferRequest struct {
	SourceWarehouseID string            `json:"sourceWarehouseId" validate:"required,uuid"`
	TargetWarehouseID string            `json:"targetWarehouseId" validate:"required,uuid"`
	Products          []TransferItemDTO `json:"products" validate:"required,min=1,dive"`
	Status            string            `json:"status" validate:"omitempty,oneof=pending completed"`
	Notes             string            `json:"notes"`
}

// UpdateTransferStatusRequest cambio de estado de una transferencia.
type UpdateTransferStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending completed cancelled"`
	Notes  string `json:"notes"`
}

// TransferResponse salida de una transferencia.
type TransferResponse struct {
	ID                string            `json:"id"`
	SourceWarehouseID string            `json:"sourceWarehouseId"`
	TargetWarehouseID string            `json:"targetWarehouseId"`
	Products          []TransferItemDTO `json:"products"`
	Status            string            `json:"status"`
	Notes             string            `json:"notes"`
	CreatedBy         string            `json:"createdBy,omitempty"`
	CompletedAt       *Timestamp        `json:"completedAt"`
	CreatedAt         *Timestamp        `json:"createdAt"`
	UpdatedAt         *Timestamp        `json:"updatedAt"`
}
