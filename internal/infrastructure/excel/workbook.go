// Package excel exporta los reportes de stock y movimientos a .xlsx con excelize.
package excel

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/application/mapper"
	"github.com/jhoicas/agro-inventario/internal/application/report"
)

const (
	numFmtDecimal  = 4  // #,##0.00
	numFmtDateTime = 22 // m/d/yy h:mm
	headerRow      = 4
	defaultSheet   = "Sheet1"
)

// Exporter implementa report.WorkbookExporter.
type Exporter struct {
	loc *time.Location
}

var _ report.WorkbookExporter = (*Exporter)(nil)

// NewExporter construye el exportador. loc es la zona de las fechas (nil = UTC).
func NewExporter(loc *time.Location) *Exporter {
	if loc == nil {
		loc = time.UTC
	}
	return &Exporter{loc: loc}
}

// styles estilos compartidos de un libro.
type styles struct {
	title, header, data, number, date int
}

func newStyles(f *excelize.File) (styles, error) {
	var s styles
	var err error
	border := []excelize.Border{
		{Type: "left", Color: "CCCCCC", Style: 1},
		{Type: "right", Color: "CCCCCC", Style: 1},
		{Type: "top", Color: "CCCCCC", Style: 1},
		{Type: "bottom", Color: "CCCCCC", Style: 1},
	}
	if s.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	}); err != nil {
		return s, err
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#2E7D32"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	}); err != nil {
		return s, err
	}
	if s.data, err = f.NewStyle(&excelize.Style{Border: border}); err != nil {
		return s, err
	}
	if s.number, err = f.NewStyle(&excelize.Style{Border: border, NumFmt: numFmtDecimal}); err != nil {
		return s, err
	}
	if s.date, err = f.NewStyle(&excelize.Style{Border: border, NumFmt: numFmtDateTime}); err != nil {
		return s, err
	}
	return s, nil
}

// sheetWriter escribe filas secuenciales en una hoja.
type sheetWriter struct {
	f     *excelize.File
	name  string
	st    styles
	loc   *time.Location
	err   error
	nextR int
}

func (w *sheetWriter) set(col, row int, value any, style int) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = err
		return
	}
	if w.err = w.f.SetCellValue(w.name, cell, value); w.err != nil {
		return
	}
	w.err = w.f.SetCellStyle(w.name, cell, cell, style)
}

func (w *sheetWriter) title(text string, generated time.Time) {
	w.set(1, 1, text, w.st.title)
	if w.err == nil {
		w.err = w.f.SetRowHeight(w.name, 1, 30)
	}
	w.set(1, 2, fmt.Sprintf("Generado: %s", generated.In(w.loc).Format("02/01/2006 15:04")), w.st.data)
}

func (w *sheetWriter) headers(labels []string, width float64) {
	for i, label := range labels {
		w.set(i+1, headerRow, label, w.st.header)
		if w.err != nil {
			return
		}
		colName, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			w.err = err
			return
		}
		w.err = w.f.SetColWidth(w.name, colName, colName, width)
	}
	w.nextR = headerRow + 1
}

// row escribe una fila: decimal.Decimal como número, *dto.Timestamp como fecha.
func (w *sheetWriter) row(values ...any) {
	for i, v := range values {
		switch x := v.(type) {
		case decimal.Decimal:
			w.set(i+1, w.nextR, x.InexactFloat64(), w.st.number)
		case *dto.Timestamp:
			if t := mapper.FromTimestamp(x); t != nil {
				w.set(i+1, w.nextR, t.In(w.loc), w.st.date)
			} else {
				w.set(i+1, w.nextR, "", w.st.data)
			}
		default:
			w.set(i+1, w.nextR, v, w.st.data)
		}
	}
	w.nextR++
}

func newWorkbook(first string) (*excelize.File, styles, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(defaultSheet, first); err != nil {
		_ = f.Close()
		return nil, styles{}, err
	}
	st, err := newStyles(f)
	if err != nil {
		_ = f.Close()
		return nil, styles{}, err
	}
	return f, st, nil
}

func (e *Exporter) sheet(f *excelize.File, st styles, name string) (*sheetWriter, error) {
	if name != "" {
		if idx, _ := f.GetSheetIndex(name); idx < 0 {
			if _, err := f.NewSheet(name); err != nil {
				return nil, err
			}
		}
	}
	return &sheetWriter{f: f, name: name, st: st, loc: e.loc}, nil
}

func finish(f *excelize.File, writers ...*sheetWriter) ([]byte, error) {
	defer f.Close()
	for _, w := range writers {
		if w.err != nil {
			return nil, fmt.Errorf("excel: hoja %s: %w", w.name, w.err)
		}
	}
	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("excel: escribir libro: %w", err)
	}
	return buf.Bytes(), nil
}

// ── Stock ─────────────────────────────────────────────────────────────────────

// StockWorkbook hoja "Stock" con una columna por almacén y hoja "Resumen" por categoría.
func (e *Exporter) StockWorkbook(_ context.Context, r *dto.StockReportDTO) ([]byte, error) {
	f, st, err := newWorkbook("Stock")
	if err != nil {
		return nil, fmt.Errorf("excel: %w", err)
	}
	stock, err := e.sheet(f, st, "Stock")
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	summary, err := e.sheet(f, st, "Resumen")
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	warehouseIDs := stockWarehouses(r)
	labels := []string{"ID", "Producto", "Categoría", "Unidad", "Lote", "Vencimiento"}
	for _, id := range warehouseIDs {
		labels = append(labels, nameOr(r.WarehouseNames, id))
	}
	labels = append(labels, "Total", "Stock mínimo")

	stock.title("Reporte de stock", timeOf(r.Timestamp))
	stock.headers(labels, 18)
	for _, p := range r.Products {
		values := []any{p.ID, p.Name, p.Category, p.UnitOfMeasure, p.LotNumber, p.ExpiryDate}
		for _, id := range warehouseIDs {
			values = append(values, p.WarehouseStock[id])
		}
		qty := p.Quantity
		if r.WarehouseID != "" {
			qty = p.WarehouseStock[r.WarehouseID]
		}
		values = append(values, qty, p.MinStock)
		stock.row(values...)
	}

	summary.title("Resumen por categoría", timeOf(r.Timestamp))
	summary.headers([]string{"Categoría", "Productos", "Stock total", "Con stock bajo"}, 20)
	categories := make([]string, 0, len(r.CategorySummary))
	for c := range r.CategorySummary {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		s := r.CategorySummary[c]
		summary.row(c, s.TotalProducts, s.TotalStock, s.LowStockCount)
	}

	return finish(f, stock, summary)
}

// stockWarehouses almacenes a mostrar como columnas: el filtrado, o todos los que aparecen.
func stockWarehouses(r *dto.StockReportDTO) []string {
	if r.WarehouseID != "" {
		return []string{r.WarehouseID}
	}
	seen := map[string]bool{}
	for _, p := range r.Products {
		for id := range p.WarehouseStock {
			seen[id] = true
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return nameOr(r.WarehouseNames, ids[i]) < nameOr(r.WarehouseNames, ids[j])
	})
	return ids
}

// ── Movimientos ───────────────────────────────────────────────────────────────

// MovementsWorkbook hoja "Movimientos" con el detalle y hoja "Por tipo" con los conteos.
func (e *Exporter) MovementsWorkbook(_ context.Context, r *dto.MovementsReportDTO) ([]byte, error) {
	f, st, err := newWorkbook("Movimientos")
	if err != nil {
		return nil, fmt.Errorf("excel: %w", err)
	}
	detail, err := e.sheet(f, st, "Movimientos")
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	byType, err := e.sheet(f, st, "Por tipo")
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	detail.title("Reporte de movimientos", timeOf(r.Timestamp))
	detail.headers([]string{
		"Fecha", "Tipo", "Producto", "Almacén", "Origen", "Destino",
		"Cantidad", "Total anterior", "Total nuevo", "Notas",
	}, 18)
	for _, m := range r.Movements {
		detail.row(m.Timestamp, m.Type, m.ProductName, m.WarehouseName, m.SourceWarehouseName,
			m.TargetWarehouseName, m.Quantity, m.PreviousQuantity, m.NewQuantity, m.Notes)
	}

	byType.title("Movimientos por tipo", timeOf(r.Timestamp))
	byType.headers([]string{"Tipo", "Movimientos", "Cantidad neta"}, 20)
	types := make([]string, 0, len(r.MovementsByType))
	for t := range r.MovementsByType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		net := decimal.Zero
		for _, m := range r.MovementsByType[t] {
			net = net.Add(m.Quantity)
		}
		byType.row(t, len(r.MovementsByType[t]), net)
	}

	return finish(f, detail, byType)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nameOr(names map[string]string, id string) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return id
}

func timeOf(ts *dto.Timestamp) time.Time {
	if t := mapper.FromTimestamp(ts); t != nil {
		return *t
	}
	return time.Now().UTC()
}
