package entity

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/shopspring/decimal"
)

// DefaultAreaUnit unidad de superficie por defecto.
const DefaultAreaUnit = "ha"

// Lot sub-registro embebido en un Field, direccionable por (fieldID, lotID).
type Lot struct {
	ID        string
	Name      string
	Area      decimal.Decimal
	AreaUnit  string
	Crop      string
	Notes     string
	Boundary  orb.Polygon
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Field campo o establecimiento con su lista ordenada de lotes.
type Field struct {
	ID        string
	Name      string
	Location  string
	Area      decimal.Decimal
	AreaUnit  string
	Owner     string
	Notes     string
	Boundary  orb.Polygon
	Lots      []Lot
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LotIndex devuelve la posición del lote o -1.
func (f *Field) LotIndex(lotID string) int {
	for i := range f.Lots {
		if f.Lots[i].ID == lotID {
			return i
		}
	}
	return -1
}
