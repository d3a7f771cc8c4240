package fumigation

import (
	"strings"

	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/shopspring/decimal"
)

var thousand = decimal.NewFromInt(1000)

// doseConversions unidad de dosis -> unidad del total (divisor 1000).
var doseConversions = map[string]string{
	"cc/ha": "Lts",
	"g/ha":  "Kg",
}

// ComputeTotal calcula surface × dosePerHa convertido a la unidad del total, con 2 decimales.
// cc/ha se expresa en Lts y g/ha en Kg; el resto conserva la unidad de la dosis.
func ComputeTotal(surface, dosePerHa decimal.Decimal, doseUnit string) (decimal.Decimal, string) {
	total := surface.Mul(dosePerHa)
	unit := strings.TrimSpace(doseUnit)
	if target, ok := doseConversions[strings.ToLower(unit)]; ok {
		return total.Div(thousand).Round(2), target
	}
	return total.Round(2), unit
}

// recomputeTotals recalcula los totales de las líneas tras un cambio de superficie.
// Con reconvert=false solo multiplica superficie por dosis y conserva la unidad del total.
func recomputeTotals(products []entity.FumigationProduct, surface decimal.Decimal, reconvert bool) {
	for i := range products {
		p := &products[i]
		if reconvert {
			p.TotalQuantity, p.TotalUnit = ComputeTotal(surface, p.DosePerHa, p.DoseUnit)
			continue
		}
		p.TotalQuantity = surface.Mul(p.DosePerHa).Round(2)
	}
}
