package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden de fumigación.
const (
	FumigationPending    = "pending"
	FumigationInProgress = "in_progress"
	FumigationCompleted  = "completed"
	FumigationCancelled  = "cancelled"
)

var fumigationTransitions = map[string][]string{
	FumigationPending:    {FumigationInProgress, FumigationCancelled},
	FumigationInProgress: {FumigationCompleted, FumigationCancelled},
	FumigationCompleted:  {},
	FumigationCancelled:  {},
}

// CanFumigationTransition indica si from -> to es una transición legal.
func CanFumigationTransition(from, to string) bool {
	for _, s := range fumigationTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// FumigationProduct línea de aplicación: producto, almacén de origen, dosis y total.
type FumigationProduct struct {
	ProductID     string
	ProductName   string
	WarehouseID   string
	DosePerHa     decimal.Decimal
	DoseUnit      string
	TotalQuantity decimal.Decimal
	TotalUnit     string
}

// Fumigation orden de aplicación sobre un lote.
type Fumigation struct {
	ID            string
	OrderNumber   int
	Date          time.Time
	FieldID       string
	Establishment string
	Applicator    string
	Crop          string
	Lot           string
	Surface       decimal.Decimal // hectáreas
	Products      []FumigationProduct
	Observations  string
	ImagePath     string
	Status        string
	StartDatetime *time.Time
	EndDatetime   *time.Time
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsTerminal indica si la orden ya está completada o cancelada.
func (f *Fumigation) IsTerminal() bool {
	return f.Status == FumigationCompleted || f.Status == FumigationCancelled
}
