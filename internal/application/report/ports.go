package report

import (
	"context"

	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
)

// Formatos de imagen admitidos en el PDF.
const (
	ImagePNG = "png"
	ImageJPG = "jpg"
)

// FumigationOrderDocument datos de entrada del PDF de una orden de aplicación.
// Image es opcional; ImageType indica su formato (png|jpg).
type FumigationOrderDocument struct {
	Fumigation *entity.Fumigation
	FieldName  string
	Image      []byte
	ImageType  string
}

// FumigationRenderer genera el PDF de la orden. Función pura de datos a bytes.
type FumigationRenderer interface {
	RenderFumigationOrder(ctx context.Context, doc FumigationOrderDocument) ([]byte, error)
}

// WorkbookExporter genera los libros .xlsx de los reportes.
type WorkbookExporter interface {
	StockWorkbook(ctx context.Context, report *dto.StockReportDTO) ([]byte, error)
	MovementsWorkbook(ctx context.Context, report *dto.MovementsReportDTO) ([]byte, error)
}
