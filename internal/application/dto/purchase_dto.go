package dto

import "github.com/shopspring/decimal"

// PurchaseItemRequest línea de compra solicitada.
type PurchaseItemRequest struct {
	ProductID     string          `json:"productId" validate:"required,uuid"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	UnitOfMeasure string          `json:"unitOfMeasure"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
}

// CreatePurchaseRequest entrada para registrar una compra.
type CreatePurchaseRequest struct {
	Supplier     string                `json:"supplier"`
	Products     []PurchaseItemRequest `json:"products" validate:"required,min=1,dive"`
	Invoice      string                `json:"invoice" validate:"required"`
	ShippingCost decimal.Decimal       `json:"shippingCost"`
	Notes        string                `json:"notes"`
}

// ReceiveLineRequest cantidad recibida de un producto; name/category/unit se usan si el
// producto aún no existe en el catálogo.
type ReceiveLineRequest struct {
	ProductID     string          `json:"productId" validate:"required,uuid"`
	Quantity      decimal.Decimal `json:"quantity"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	UnitOfMeasure string          `json:"unitOfMeasure"`
}

// ReceivePurchaseRequest recepción (parcial o total) de una compra en un almacén.
type ReceivePurchaseRequest struct {
	WarehouseID string               `json:"warehouseId" validate:"required,uuid"`
	Products    []ReceiveLineRequest `json:"products" validate:"required,min=1,dive"`
	Notes       string               `json:"notes"`
}

// PurchaseItemResponse línea de compra con lo recibido.
type PurchaseItemResponse struct {
	ProductID     string          `json:"productId"`
	Name          string          `json:"name,omitempty"`
	Category      string          `json:"category,omitempty"`
	UnitOfMeasure string          `json:"unitOfMeasure,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	Received      decimal.Decimal `json:"received"`
	Status        string          `json:"status"`
}

// PurchaseResponse salida de una compra.
type PurchaseResponse struct {
	ID           string                 `json:"id"`
	Supplier     string                 `json:"supplier"`
	Products     []PurchaseItemResponse `json:"products"`
	Invoice      string                 `json:"invoice"`
	ShippingCost decimal.Decimal        `json:"shippingCost"`
	TotalCost    decimal.Decimal        `json:"totalCost"`
	Status       string                 `json:"status"`
	Notes        string                 `json:"notes"`
	CompletedAt  *Timestamp             `json:"completedAt"`
	CreatedAt    *Timestamp             `json:"createdAt"`
	UpdatedAt    *Timestamp             `json:"updatedAt"`
}

// PurchaseHistoryResponse entrada del log de compras.
type PurchaseHistoryResponse struct {
	ID          string            `json:"id"`
	PurchaseID  string            `json:"purchaseId"`
	Type        string            `json:"type"`
	WarehouseID string            `json:"warehouseId,omitempty"`
	Products    []TransferItemDTO `json:"products,omitempty"`
	Status      string            `json:"status"`
	Notes       string            `json:"notes"`
	Timestamp   *Timestamp        `json:"timestamp"`
}
