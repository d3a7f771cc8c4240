package dto

import "github.com/shopspring/decimal"

// CreateProductRequest entrada para crear un producto con su asignación inicial por almacén.
type CreateProductRequest struct {
	ID             string                     `json:"id" validate:"omitempty,uuid"`
	Name           string                     `json:"name" validate:"required,min=1,max=200"`
	Category       string                     `json:"category" validate:"max=100"`
	MinStock       decimal.Decimal            `json:"minStock"`
	UnitOfMeasure  string                     `json:"unitOfMeasure" validate:"max=50"`
	LotNumber      string                     `json:"lotNumber" validate:"max=100"`
	ExpiryDate     *Timestamp                 `json:"expiryDate"`
	Notes          string                     `json:"notes"`
	WarehouseStock map[string]decimal.Decimal `json:"warehouseStock"`
}

// UpdateProductRequest entrada para actualizar un producto.
// WarehouseStock nil deja el stock intacto; un mapa reemplaza la asignación completa.
type UpdateProductRequest struct {
	Name           *string                    `json:"name" validate:"omitempty,min=1,max=200"`
	Category       *string                    `json:"category" validate:"omitempty,max=100"`
	MinStock       *decimal.Decimal           `json:"minStock"`
	UnitOfMeasure  *string                    `json:"unitOfMeasure" validate:"omitempty,max=50"`
	LotNumber      *string                    `json:"lotNumber"`
	ExpiryDate     *Timestamp                 `json:"expiryDate"`
	Notes          *string                    `json:"notes"`
	WarehouseStock map[string]decimal.Decimal `json:"warehouseStock"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID             string                     `json:"id"`
	Name           string                     `json:"name"`
	Category       string                     `json:"category"`
	Quantity       decimal.Decimal            `json:"quantity"`
	MinStock       decimal.Decimal            `json:"minStock"`
	UnitOfMeasure  string                     `json:"unitOfMeasure"`
	LotNumber      string                     `json:"lotNumber"`
	ExpiryDate     *Timestamp                 `json:"expiryDate"`
	Notes          string                     `json:"notes"`
	WarehouseStock map[string]decimal.Decimal `json:"warehouseStock"`
	CreatedAt      *Timestamp                 `json:"createdAt"`
	UpdatedAt      *Timestamp                 `json:"updatedAt"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// StockHistoryResponse entrada del historial de stock.
type StockHistoryResponse struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"productId"`
	Type              string          `json:"type"`
	PreviousQuantity  decimal.Decimal `json:"previousQuantity"`
	NewQuantity       decimal.Decimal `json:"newQuantity"`
	Quantity          decimal.Decimal `json:"quantity"`
	WarehouseID       string          `json:"warehouseId,omitempty"`
	SourceWarehouseID string          `json:"sourceWarehouseId,omitempty"`
	TargetWarehouseID string          `json:"targetWarehouseId,omitempty"`
	TransferID        string          `json:"transferId,omitempty"`
	PurchaseID        string          `json:"purchaseId,omitempty"`
	FumigationID      string          `json:"fumigationId,omitempty"`
	UserID            string          `json:"userId,omitempty"`
	Notes             string          `json:"notes"`
	Timestamp         *Timestamp      `json:"timestamp"`
}
