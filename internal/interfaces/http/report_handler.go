package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/agro-inventario/internal/application/report"
)

// ReportHandler reportes de stock y movimientos (JSON y .xlsx).
type ReportHandler struct {
	uc *report.UseCase
}

// NewReportHandler construye el handler.
func NewReportHandler(uc *report.UseCase) *ReportHandler {
	return &ReportHandler{uc: uc}
}

func stockQuery(c *fiber.Ctx) report.StockQuery {
	return report.StockQuery{WarehouseID: c.Query("almacen"), Category: c.Query("categoria")}
}

func movementsQuery(c *fiber.Ctx) (report.MovementsQuery, error) {
	from, to, err := dateRange(c, "desde", "hasta")
	if err != nil {
		return report.MovementsQuery{}, err
	}
	return report.MovementsQuery{
		From:        from,
		To:          to,
		ProductID:   c.Query("producto"),
		WarehouseID: c.Query("almacen"),
		Type:        c.Query("tipo"),
	}, nil
}

// Stock godoc
// @Summary      Reporte de stock
// @Tags         reportes
// @Security     Bearer
// @Produce      json
// @Param        almacen    query  string  false  "ID del almacén"
// @Param        categoria  query  string  false  "Categoría"
// @Success      200  {object}  dto.StockReportDTO
// @Router       /api/reportes/stock [get]
func (h *ReportHandler) Stock(c *fiber.Ctx) error {
	out, err := h.uc.StockReport(c.UserContext(), stockQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// StockXLSX godoc
// @Summary      Reporte de stock en Excel
// @Tags         reportes
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        almacen    query  string  false  "ID del almacén"
// @Param        categoria  query  string  false  "Categoría"
// @Success      200  {file}  binary
// @Router       /api/reportes/stock.xlsx [get]
func (h *ReportHandler) StockXLSX(c *fiber.Ctx) error {
	data, filename, err := h.uc.StockWorkbook(c.UserContext(), stockQuery(c))
	if err != nil {
		return err
	}
	return sendFile(c, data, filename, report.ContentTypeXLSX)
}

// Movements godoc
// @Summary      Reporte de movimientos
// @Tags         reportes
// @Security     Bearer
// @Produce      json
// @Param        desde     query  string  false  "Fecha inicial"
// @Param        hasta     query  string  false  "Fecha final"
// @Param        producto  query  string  false  "ID del producto"
// @Param        almacen   query  string  false  "ID del almacén"
// @Param        tipo      query  string  false  "Tipo de movimiento"
// @Success      200  {object}  dto.MovementsReportDTO
// @Router       /api/reportes/movimientos [get]
func (h *ReportHandler) Movements(c *fiber.Ctx) error {
	q, err := movementsQuery(c)
	if err != nil {
		return err
	}
	out, err := h.uc.MovementsReport(c.UserContext(), q)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// MovementsXLSX godoc
// @Summary      Reporte de movimientos en Excel
// @Tags         reportes
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200  {file}  binary
// @Router       /api/reportes/movimientos.xlsx [get]
func (h *ReportHandler) MovementsXLSX(c *fiber.Ctx) error {
	q, err := movementsQuery(c)
	if err != nil {
		return err
	}
	data, filename, err := h.uc.MovementsWorkbook(c.UserContext(), q)
	if err != nil {
		return err
	}
	return sendFile(c, data, filename, report.ContentTypeXLSX)
}
