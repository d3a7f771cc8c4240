package dto

import "github.com/shopspring/decimal"

// FumigationProductRequest línea de aplicación; el total se calcula en el servidor.
type FumigationProductRequest struct {
	ProductID   string          `json:"productId" validate:"required,uuid"`
	WarehouseID string          `json:"warehouseId" validate:"required,uuid"`
	DosePerHa   decimal.Decimal `json:"dosePerHa"`
	DoseUnit    string          `json:"doseUnit" validate:"required"`
}

// CreateFumigationRequest entrada para crear una orden de aplicación.
type CreateFumigationRequest struct {
	Date          *Timestamp                 `json:"date"`
	FieldID       string                     `json:"fieldId" validate:"omitempty,uuid"`
	Establishment string                     `json:"establishment" validate:"required"`
	Applicator    string                     `json:"applicator" validate:"required"`
	Crop          string                     `json:"crop" validate:"required"`
	Lot           string                     `json:"lot" validate:"required"`
	Surface       *decimal.Decimal           `json:"surface" validate:"required"`
	Products      []FumigationProductRequest `json:"products" validate:"required,min=1,dive"`
	Observations  string                     `json:"observations"`
}

// UpdateFumigationRequest edición de una orden no terminal. Products reemplaza las líneas.
type UpdateFumigationRequest struct {
	Date          *Timestamp                 `json:"date"`
	FieldID       *string                    `json:"fieldId"`
	Establishment *string                    `json:"establishment"`
	Applicator    *string                    `json:"applicator"`
	Crop          *string                    `json:"crop"`
	Lot           *string                    `json:"lot"`
	Surface       *decimal.Decimal           `json:"surface"`
	Products      []FumigationProductRequest `json:"products" validate:"omitempty,dive"`
	Observations  *string                    `json:"observations"`
}

// UpdateFumigationStatusRequest cambio de estado.
type UpdateFumigationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress completed cancelled"`
}

// FumigationProductResponse línea de aplicación.
type FumigationProductResponse struct {
	ProductID     string          `json:"productId"`
	ProductName   string          `json:"productName,omitempty"`
	WarehouseID   string          `json:"warehouseId"`
	DosePerHa     decimal.Decimal `json:"dosePerHa"`
	DoseUnit      string          `json:"doseUnit"`
	TotalQuantity decimal.Decimal `json:"totalQuantity"`
	TotalUnit     string          `json:"totalUnit"`
}

// FumigationResponse salida de una orden de aplicación.
type FumigationResponse struct {
	ID            string                      `json:"id"`
	OrderNumber   int                         `json:"orderNumber"`
	Date          *Timestamp                  `json:"date"`
	FieldID       string                      `json:"fieldId,omitempty"`
	Establishment string                      `json:"establishment"`
	Applicator    string                      `json:"applicator"`
	Crop          string                      `json:"crop"`
	Lot           string                      `json:"lot"`
	Surface       decimal.Decimal             `json:"surface"`
	Products      []FumigationProductResponse `json:"products"`
	Observations  string                      `json:"observations"`
	ImagePath     string                      `json:"imagePath,omitempty"`
	Status        string                      `json:"status"`
	StartDatetime *Timestamp                  `json:"startDatetime"`
	EndDatetime   *Timestamp                  `json:"endDatetime"`
	CreatedAt     *Timestamp                  `json:"createdAt"`
	UpdatedAt     *Timestamp                  `json:"updatedAt"`
}

// ExportResponse ubicación de un archivo exportado al almacenamiento.
type ExportResponse struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// ImageURLResponse URL de lectura de la imagen adjunta.
type ImageURLResponse struct {
	URL string `json:"url"`
}
