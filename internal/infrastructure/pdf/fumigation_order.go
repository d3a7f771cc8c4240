// Package pdf implementa el PDF de la Orden de Aplicación (fumigación) con Maroto v2.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│              ORDEN DE APLICACIÓN  N° n                      │
//	│  FECHA | ESTABLECIMIENTO | APLICADOR                        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CULTIVO | LOTE | SUPERFICIE | PRODUCTO | DOSIS/HA | TOTAL  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  INICIO | FIN                                               │
//	│  OBSERVACIONES                                              │
//	│  IMAGEN (opcional)                                          │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/jhoicas/agro-inventario/internal/application/report"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorBlack    = &props.Color{Red: 0, Green: 0, Blue: 0}
	colorGray     = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorHeaderBg = &props.Color{Red: 240, Green: 240, Blue: 240}
	colorBorder   = &props.Color{Red: 180, Green: 180, Blue: 180}
)

const dateTimeLayout = "02/01/2006 15:04"

// ── Generator ─────────────────────────────────────────────────────────────────

// FumigationOrderRenderer implementa report.FumigationRenderer usando Maroto v2.
type FumigationOrderRenderer struct {
	author  string
	printer *message.Printer
	upper   cases.Caser
	loc     *time.Location
}

var _ report.FumigationRenderer = (*FumigationOrderRenderer)(nil)

// NewFumigationOrderRenderer construye el generador. loc es la zona para fechas (nil = UTC).
func NewFumigationOrderRenderer(author string, loc *time.Location) *FumigationOrderRenderer {
	if loc == nil {
		loc = time.UTC
	}
	return &FumigationOrderRenderer{
		author:  author,
		printer: message.NewPrinter(language.Spanish),
		upper:   cases.Upper(language.Spanish),
		loc:     loc,
	}
}

// RenderFumigationOrder genera el PDF y devuelve sus bytes.
func (g *FumigationOrderRenderer) RenderFumigationOrder(_ context.Context, doc report.FumigationOrderDocument) ([]byte, error) {
	f := doc.Fumigation
	if f == nil {
		return nil, fmt.Errorf("pdf: orden vacía")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 10}).
		WithTitle(fmt.Sprintf("Orden de aplicación N° %d", f.OrderNumber), true).
		WithAuthor(g.author, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.titleRows(f)...)
	m.AddRows(g.headerTable(f, doc.FieldName)...)
	m.AddRows(line.NewRow(4))
	m.AddRows(g.productsTable(f)...)
	m.AddRows(line.NewRow(4))
	m.AddRows(g.datesTable(f)...)
	if f.Observations != "" {
		m.AddRows(line.NewRow(3))
		m.AddRows(g.observationRows(f.Observations)...)
	}
	if len(doc.Image) > 0 {
		m.AddRows(line.NewRow(5))
		m.AddRows(imageRow(doc.Image, doc.ImageType))
	}

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return out.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func (g *FumigationOrderRenderer) titleRows(f *entity.Fumigation) []core.Row {
	return []core.Row{
		row.New(8).Add(col.New(12).Add(text.New("ORDEN DE APLICACIÓN", props.Text{
			Style: fontstyle.Bold, Size: 16, Align: align.Center,
		}))),
		row.New(10).Add(col.New(12).Add(text.New(fmt.Sprintf("N° %d", f.OrderNumber), props.Text{
			Style: fontstyle.Bold, Size: 16, Align: align.Center, Top: 1,
		}))),
	}
}

// headerTable: fecha, establecimiento y aplicador (y campo si la orden lo tiene).
func (g *FumigationOrderRenderer) headerTable(f *entity.Fumigation, fieldName string) []core.Row {
	establishment := g.upper.String(f.Establishment)
	if fieldName != "" {
		establishment = fmt.Sprintf("%s (%s)", establishment, fieldName)
	}
	return []core.Row{
		headRow([]cell{{"FECHA:", 3}, {"ESTABLECIMIENTO:", 5}, {"APLICADOR:", 4}}),
		bodyRow([]cell{
			{g.formatDate(f.Date, "02/01/2006"), 3},
			{establishment, 5},
			{f.Applicator, 4},
		}),
	}
}

// productsTable: una fila por línea de aplicación.
func (g *FumigationOrderRenderer) productsTable(f *entity.Fumigation) []core.Row {
	rows := []core.Row{headRow([]cell{
		{"CULTIVO", 2}, {"LOTE", 1}, {"SUPERFICIE", 2}, {"PRODUCTO", 3}, {"DOSIS / HA", 2}, {"TOTAL PRODUCTO", 2},
	})}
	for _, p := range f.Products {
		name := p.ProductName
		if name == "" {
			name = p.ProductID
		}
		rows = append(rows, bodyRow([]cell{
			{f.Crop, 2},
			{f.Lot, 1},
			{g.formatNumber(f.Surface) + " ha", 2},
			{name, 3},
			{g.formatNumber(p.DosePerHa) + " " + p.DoseUnit, 2},
			{g.formatNumber(p.TotalQuantity) + " " + p.TotalUnit, 2},
		}))
	}
	return rows
}

func (g *FumigationOrderRenderer) datesTable(f *entity.Fumigation) []core.Row {
	start, end := "", ""
	if f.StartDatetime != nil {
		start = g.formatDate(*f.StartDatetime, dateTimeLayout)
	}
	if f.EndDatetime != nil {
		end = g.formatDate(*f.EndDatetime, dateTimeLayout)
	}
	return []core.Row{
		headRow([]cell{{"FECHA Y HORA DE INICIO", 6}, {"FECHA Y HORA DE FIN", 6}}),
		bodyRow([]cell{{start, 6}, {end, 6}}),
	}
}

func (g *FumigationOrderRenderer) observationRows(obs string) []core.Row {
	return []core.Row{
		headRow([]cell{{"OBSERVACIONES:", 12}}),
		row.New(16).Add(col.New(12).Add(text.New(obs, props.Text{
			Size: 9, Top: 2, Left: 2, Right: 2,
		})).WithStyle(bordered())),
	}
}

func imageRow(data []byte, kind string) core.Row {
	ext := extension.Jpg
	if kind == report.ImagePNG {
		ext = extension.Png
	}
	return row.New(90).Add(
		col.New(2),
		col.New(8).Add(image.NewFromBytes(data, ext, props.Rect{Center: true, Percent: 95})),
		col.New(2),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

type cell struct {
	value string
	size  int
}

func headRow(cells []cell) core.Row {
	cols := make([]core.Col, 0, len(cells))
	for _, c := range cells {
		cols = append(cols, col.New(c.size).Add(text.New(c.value, props.Text{
			Style: fontstyle.Bold, Size: 9, Color: colorBlack, Top: 2, Left: 2,
		})).WithStyle(&props.Cell{
			BackgroundColor: colorHeaderBg,
			BorderColor:     colorBorder,
			BorderType:      border.Full,
			BorderThickness: 0.1,
		}))
	}
	return row.New(8).Add(cols...)
}

func bodyRow(cells []cell) core.Row {
	cols := make([]core.Col, 0, len(cells))
	for _, c := range cells {
		cols = append(cols, col.New(c.size).Add(text.New(c.value, props.Text{
			Size: 9, Color: colorGray, Top: 2, Left: 2, Right: 1,
		})).WithStyle(bordered()))
	}
	return row.New(9).Add(cols...)
}

func bordered() *props.Cell {
	return &props.Cell{BorderColor: colorBorder, BorderType: border.Full, BorderThickness: 0.1}
}

func (g *FumigationOrderRenderer) formatDate(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.In(g.loc).Format(layout)
}

// formatNumber separa miles con punto y usa coma decimal, hasta 2 decimales. Ej: 12345.5 → "12.345,5".
func (g *FumigationOrderRenderer) formatNumber(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return g.printer.Sprint(number.Decimal(f, number.MaxFractionDigits(2)))
}
