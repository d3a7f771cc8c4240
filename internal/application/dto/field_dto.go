package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// LotRequest datos de un lote. Boundary es una geometría GeoJSON (Polygon) opcional.
type LotRequest struct {
	Name     string           `json:"name" validate:"required,max=200"`
	Area     *decimal.Decimal `json:"area"`
	AreaUnit string           `json:"areaUnit"`
	Crop     string           `json:"crop"`
	Notes    string           `json:"notes"`
	Boundary json.RawMessage  `json:"boundary" swaggertype:"object"`
}

// UpdateLotRequest edición parcial de un lote.
type UpdateLotRequest struct {
	Name     *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Area     *decimal.Decimal `json:"area"`
	AreaUnit *string          `json:"areaUnit"`
	Crop     *string          `json:"crop"`
	Notes    *string          `json:"notes"`
	Boundary json.RawMessage  `json:"boundary" swaggertype:"object"`
}

// FieldRequest alta o modificación completa de un campo.
type FieldRequest struct {
	Name     string           `json:"name" validate:"required,max=200"`
	Location string           `json:"location"`
	Area     *decimal.Decimal `json:"area"`
	AreaUnit string           `json:"areaUnit"`
	Owner    string           `json:"owner"`
	Notes    string           `json:"notes"`
	Boundary json.RawMessage  `json:"boundary" swaggertype:"object"`
	Lots     []LotRequest     `json:"lots" validate:"omitempty,dive"`
}

// LotResponse salida de un lote.
type LotResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Area      decimal.Decimal `json:"area"`
	AreaUnit  string          `json:"areaUnit"`
	Crop      string          `json:"crop,omitempty"`
	Notes     string          `json:"notes,omitempty"`
	Boundary  json.RawMessage `json:"boundary,omitempty" swaggertype:"object"`
	CreatedAt *Timestamp      `json:"createdAt"`
	UpdatedAt *Timestamp      `json:"updatedAt"`
}

// FieldResponse salida de un campo con sus lotes.
type FieldResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Location  string          `json:"location"`
	Area      decimal.Decimal `json:"area"`
	AreaUnit  string          `json:"areaUnit"`
	Owner     string          `json:"owner"`
	Notes     string          `json:"notes"`
	Boundary  json.RawMessage `json:"boundary,omitempty" swaggertype:"object"`
	Lots      []LotResponse   `json:"lots"`
	CreatedAt *Timestamp      `json:"createdAt"`
	UpdatedAt *Timestamp      `json:"updatedAt"`
}
