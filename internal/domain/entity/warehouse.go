package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de almacén.
const (
	WarehouseActive   = "active"
	WarehouseInactive = "inactive"
)

// Warehouse representa un almacén o depósito donde se guardan insumos.
// FieldID opcional lo asocia a un campo.
type Warehouse struct {
	ID               string
	Name             string
	Location         string
	Type             string
	FieldID          string
	StorageCondition string
	Capacity         decimal.Decimal
	CapacityUnit     string
	Supervisor       string
	Notes            string
	Status           string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
