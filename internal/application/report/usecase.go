// Package report arma los reportes de stock y movimientos, el PDF de las órdenes de
// aplicación y sus exportaciones (.xlsx y almacenamiento de archivos).
package report

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/application/inventory"
	"github.com/jhoicas/agro-inventario/internal/application/mapper"
	"github.com/jhoicas/agro-inventario/internal/application/ports"
	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
	"github.com/jhoicas/agro-inventario/pkg/logger"
)

const (
	unknownProduct   = "Producto desconocido"
	unknownWarehouse = "Almacén desconocido"
	exportPrefix     = "reportes"
)

// Content types de los archivos generados.
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// UseCase casos de uso de reportes.
type UseCase struct {
	repos inventory.Repos
	pdf   FumigationRenderer
	xlsx  WorkbookExporter
	blobs ports.BlobStore
	log   *logger.Logger
	now   func() time.Time
}

// NewUseCase construye el caso de uso. blobs puede ser nil: el PDF se genera sin imagen y
// la exportación queda deshabilitada.
func NewUseCase(repos inventory.Repos, pdf FumigationRenderer, xlsx WorkbookExporter, blobs ports.BlobStore, log *logger.Logger) *UseCase {
	return &UseCase{
		repos: repos,
		pdf:   pdf,
		xlsx:  xlsx,
		blobs: blobs,
		log:   log.Named("report"),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// ── Stock ─────────────────────────────────────────────────────────────────────

// StockQuery filtros del reporte de stock.
type StockQuery struct {
	WarehouseID string
	Category    string
}

// StockReport lista productos con su stock por almacén y el resumen por categoría.
// Con WarehouseID solo entran productos con stock positivo en ese almacén y los totales
// del resumen se calculan sobre ese almacén.
func (uc *UseCase) StockReport(ctx context.Context, q StockQuery) (*dto.StockReportDTO, error) {
	products, err := uc.repos.Products.List(ctx, repository.ProductFilter{Category: q.Category})
	if err != nil {
		return nil, fmt.Errorf("report: productos: %w", err)
	}
	names, err := uc.warehouseNames(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]*entity.Product, 0, len(products))
	summary := map[string]dto.CategorySummaryDTO{}
	for _, p := range products {
		stock := p.StockTotal()
		if q.WarehouseID != "" {
			qty, ok := p.WarehouseStock[q.WarehouseID]
			if !ok || !qty.IsPositive() {
				continue
			}
			stock = qty
		}
		filtered = append(filtered, p)

		category := p.Category
		if strings.TrimSpace(category) == "" {
			category = entity.DefaultCategory
		}
		s := summary[category]
		s.TotalProducts++
		s.TotalStock = s.TotalStock.Add(stock)
		if stock.LessThanOrEqual(p.MinStock) {
			s.LowStockCount++
		}
		summary[category] = s
	}

	return &dto.StockReportDTO{
		Timestamp:       mapper.ToTimestamp(uc.now()),
		TotalProducts:   len(filtered),
		WarehouseID:     q.WarehouseID,
		CategoryFilter:  q.Category,
		Products:        mapper.ToProductResponses(filtered),
		CategorySummary: summary,
		WarehouseNames:  names,
	}, nil
}

// StockWorkbook genera el reporte de stock como .xlsx.
func (uc *UseCase) StockWorkbook(ctx context.Context, q StockQuery) ([]byte, string, error) {
	r, err := uc.StockReport(ctx, q)
	if err != nil {
		return nil, "", err
	}
	data, err := uc.xlsx.StockWorkbook(ctx, r)
	if err != nil {
		return nil, "", fmt.Errorf("report: xlsx stock: %w", err)
	}
	return data, fmt.Sprintf("reporte_stock_%s.xlsx", uc.now().Format("20060102")), nil
}

// ── Movimientos ───────────────────────────────────────────────────────────────

// MovementsQuery filtros del reporte de movimientos.
type MovementsQuery struct {
	From        *time.Time
	To          *time.Time
	ProductID   string
	WarehouseID string
	Type        string
}

// MovementsReport devuelve el historial filtrado con nombres de producto y almacén,
// agrupado por tipo de movimiento.
func (uc *UseCase) MovementsReport(ctx context.Context, q MovementsQuery) (*dto.MovementsReportDTO, error) {
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return nil, domain.Invalid("la fecha hasta es anterior a la fecha desde")
	}
	history, err := uc.repos.History.List(ctx, repository.HistoryFilter{
		ProductID:   q.ProductID,
		WarehouseID: q.WarehouseID,
		Type:        q.Type,
		From:        q.From,
		To:          q.To,
	})
	if err != nil {
		return nil, fmt.Errorf("report: historial: %w", err)
	}
	products, err := uc.repos.Products.List(ctx, repository.ProductFilter{})
	if err != nil {
		return nil, fmt.Errorf("report: productos: %w", err)
	}
	productNames := make(map[string]string, len(products))
	for _, p := range products {
		productNames[p.ID] = p.Name
	}
	warehouseNames, err := uc.warehouseNames(ctx)
	if err != nil {
		return nil, err
	}

	movements := make([]dto.MovementDTO, 0, len(history))
	byType := map[string][]dto.MovementDTO{}
	for _, h := range history {
		m := dto.MovementDTO{
			StockHistoryResponse: mapper.ToStockHistoryResponse(h),
			ProductName:          lookup(productNames, h.ProductID, unknownProduct),
			WarehouseName:        lookup(warehouseNames, h.WarehouseID, unknownWarehouse),
		}
		if h.SourceWarehouseID != "" {
			m.SourceWarehouseName = lookup(warehouseNames, h.SourceWarehouseID, unknownWarehouse)
		}
		if h.TargetWarehouseID != "" {
			m.TargetWarehouseName = lookup(warehouseNames, h.TargetWarehouseID, unknownWarehouse)
		}
		movements = append(movements, m)
		t := h.Type
		if t == "" {
			t = "unknown"
		}
		byType[t] = append(byType[t], m)
	}

	return &dto.MovementsReportDTO{
		Timestamp:       mapper.ToTimestamp(uc.now()),
		FromDate:        mapper.ToTimestampPtr(q.From),
		ToDate:          mapper.ToTimestampPtr(q.To),
		ProductID:       q.ProductID,
		WarehouseID:     q.WarehouseID,
		Type:            q.Type,
		TotalMovements:  len(movements),
		Movements:       movements,
		MovementsByType: byType,
	}, nil
}

// MovementsWorkbook genera el reporte de movimientos como .xlsx.
func (uc *UseCase) MovementsWorkbook(ctx context.Context, q MovementsQuery) ([]byte, string, error) {
	r, err := uc.MovementsReport(ctx, q)
	if err != nil {
		return nil, "", err
	}
	data, err := uc.xlsx.MovementsWorkbook(ctx, r)
	if err != nil {
		return nil, "", fmt.Errorf("report: xlsx movimientos: %w", err)
	}
	return data, fmt.Sprintf("reporte_movimientos_%s.xlsx", uc.now().Format("20060102")), nil
}

// ── Fumigación ────────────────────────────────────────────────────────────────

// FumigationFilename nombre del PDF de una orden.
func FumigationFilename(orderNumber int) string {
	return fmt.Sprintf("Fumigacion_%d.pdf", orderNumber)
}

// FumigationPDF genera el PDF de la orden de aplicación.
// La imagen asociada se incluye si se puede descargar; si no, el PDF sale sin ella.
func (uc *UseCase) FumigationPDF(ctx context.Context, fumigationID string) ([]byte, string, error) {
	f, err := uc.repos.Fumigations.GetByID(ctx, fumigationID)
	if err != nil {
		return nil, "", fmt.Errorf("report: obtener fumigación: %w", err)
	}
	if f == nil {
		return nil, "", domain.ErrNotFound
	}
	doc := FumigationOrderDocument{Fumigation: f}
	if f.FieldID != "" {
		if field, fErr := uc.repos.Fields.GetByID(ctx, f.FieldID); fErr == nil && field != nil {
			doc.FieldName = field.Name
		}
	}
	if f.ImagePath != "" && uc.blobs != nil {
		if kind := imageType(f.ImagePath); kind != "" {
			img, dErr := uc.blobs.Download(ctx, f.ImagePath)
			if dErr != nil {
				uc.log.Warn().Err(dErr).Str("path", f.ImagePath).Msg("PDF sin imagen: no se pudo descargar")
			} else {
				doc.Image, doc.ImageType = img, kind
			}
		}
	}
	data, err := uc.pdf.RenderFumigationOrder(ctx, doc)
	if err != nil {
		return nil, "", fmt.Errorf("report: generar pdf: %w", err)
	}
	return data, FumigationFilename(f.OrderNumber), nil
}

// ExportFumigationPDF genera el PDF y lo sube al almacenamiento; devuelve ruta y URL pública.
func (uc *UseCase) ExportFumigationPDF(ctx context.Context, fumigationID string) (*dto.ExportResponse, error) {
	if uc.blobs == nil {
		return nil, fmt.Errorf("%w: almacenamiento de archivos no configurado", domain.ErrConflict)
	}
	data, filename, err := uc.FumigationPDF(ctx, fumigationID)
	if err != nil {
		return nil, err
	}
	key := path.Join(exportPrefix, "fumigaciones", filename)
	if err := uc.blobs.Upload(ctx, key, ContentTypePDF, data); err != nil {
		return nil, fmt.Errorf("report: subir pdf: %w", err)
	}
	url, err := uc.blobs.PublicURL(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("report: url pública: %w", err)
	}
	uc.log.Info().Str("fumigation_id", fumigationID).Str("path", key).Msg("PDF exportado")
	return &dto.ExportResponse{Path: key, URL: url}, nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (uc *UseCase) warehouseNames(ctx context.Context) (map[string]string, error) {
	warehouses, err := uc.repos.Warehouses.List(ctx, repository.WarehouseFilter{})
	if err != nil {
		return nil, fmt.Errorf("report: almacenes: %w", err)
	}
	names := make(map[string]string, len(warehouses))
	for _, w := range warehouses {
		names[w.ID] = w.Name
	}
	return names, nil
}

func lookup(m map[string]string, id, fallback string) string {
	if id == "" {
		return ""
	}
	if v, ok := m[id]; ok {
		return v
	}
	return fallback
}

func imageType(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".png":
		return ImagePNG
	case ".jpg", ".jpeg":
		return ImageJPG
	}
	return ""
}
