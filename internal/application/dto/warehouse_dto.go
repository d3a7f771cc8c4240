package dto

import "github.com/shopspring/decimal"

// CreateWarehouseRequest entrada para crear un almacén.
type CreateWarehouseRequest struct {
	Name             string          `json:"name" validate:"required,min=1,max=200"`
	Location         string          `json:"location"`
	Type             string          `json:"type" validate:"max=50"`
	FieldID          string          `json:"fieldId" validate:"omitempty,uuid"`
	StorageCondition string          `json:"storageCondition"`
	Capacity         decimal.Decimal `json:"capacity"`
	CapacityUnit     string          `json:"capacityUnit"`
	Supervisor       string          `json:"supervisor"`
	Notes            string          `json:"notes"`
	Status           string          `json:"status" validate:"omitempty,oneof=active inactive"`
}

// UpdateWarehouseRequest entrada para actualizar un almacén.
type UpdateWarehouseRequest struct {
	Name             *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Location         *string          `json:"location"`
	Type             *string          `json:"type"`
	FieldID          *string          `json:"fieldId"`
	StorageCondition *string          `json:"storageCondition"`
	Capacity         *decimal.Decimal `json:"capacity"`
	CapacityUnit     *string          `json:"capacityUnit"`
	Supervisor       *string          `json:"supervisor"`
	Notes            *string          `json:"notes"`
	Status           *string          `json:"status" validate:"omitempty,oneof=active inactive"`
}

// WarehouseResponse salida de un almacén.
type WarehouseResponse struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Location         string          `json:"location"`
	Type             string          `json:"type"`
	FieldID          string          `json:"fieldId,omitempty"`
	StorageCondition string          `json:"storageCondition"`
	Capacity         decimal.Decimal `json:"capacity"`
	CapacityUnit     string          `json:"capacityUnit"`
	Supervisor       string          `json:"supervisor"`
	Notes            string          `json:"notes"`
	Status           string          `json:"status"`
	CreatedAt        *Timestamp      `json:"createdAt"`
	UpdatedAt        *Timestamp      `json:"updatedAt"`
}
