package report_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/application/inventory"
	"github.com/jhoicas/agro-inventario/internal/application/report"
	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/memory"
	"github.com/jhoicas/agro-inventario/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── Fakes ────────────────────────────────────────────────────────────────────

type fakeRenderer struct {
	last report.FumigationOrderDocument
}

func (r *fakeRenderer) RenderFumigationOrder(_ context.Context, doc report.FumigationOrderDocument) ([]byte, error) {
	r.last = doc
	return []byte("%PDF-fake"), nil
}

type fakeExporter struct {
	stock     *dto.StockReportDTO
	movements *dto.MovementsReportDTO
}

func (e *fakeExporter) StockWorkbook(_ context.Context, r *dto.StockReportDTO) ([]byte, error) {
	e.stock = r
	return []byte("xlsx"), nil
}

func (e *fakeExporter) MovementsWorkbook(_ context.Context, r *dto.MovementsReportDTO) ([]byte, error) {
	e.movements = r
	return []byte("xlsx"), nil
}

type memBlobs struct {
	objects map[string][]byte
}

func (b *memBlobs) Upload(_ context.Context, p, _ string, data []byte) error {
	b.objects[p] = data
	return nil
}

func (b *memBlobs) Download(_ context.Context, p string) ([]byte, error) {
	data, ok := b.objects[p]
	if !ok {
		return nil, errors.New("no existe")
	}
	return data, nil
}

func (b *memBlobs) Remove(_ context.Context, paths ...string) error {
	for _, p := range paths {
		delete(b.objects, p)
	}
	return nil
}

func (b *memBlobs) PublicURL(_ context.Context, p string) (string, error) {
	return "https://files.test/" + p, nil
}

// ─── Fixture ──────────────────────────────────────────────────────────────────

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

type fixture struct {
	store    *memory.Store
	renderer *fakeRenderer
	exporter *fakeExporter
	blobs    *memBlobs
	uc       *report.UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	repos := store.Repos()
	require.NoError(t, repos.Warehouses.Create(ctx, &entity.Warehouse{ID: "A", Name: "Galpón A", Status: entity.WarehouseActive}))
	require.NoError(t, repos.Warehouses.Create(ctx, &entity.Warehouse{ID: "B", Name: "Galpón B", Status: entity.WarehouseActive}))

	seed := func(id, name, category string, minStock int64, cells map[string]int64) {
		total := decimal.Zero
		for w, q := range cells {
			require.NoError(t, repos.Stock.Insert(ctx, &entity.StockCell{ProductID: id, WarehouseID: w, Quantity: d(q)}))
			total = total.Add(d(q))
		}
		require.NoError(t, repos.Products.Create(ctx, &entity.Product{ID: id, Name: name, Category: category, MinStock: d(minStock), Quantity: total}))
	}
	seed("p1", "Glifosato", "Herbicida", 5, map[string]int64{"A": 10, "B": 2})
	seed("p2", "Atrazina", "Herbicida", 1, map[string]int64{"B": 4})
	seed("p3", "Urea", "", 0, map[string]int64{"A": 0})

	f := &fixture{
		store:    store,
		renderer: &fakeRenderer{},
		exporter: &fakeExporter{},
		blobs:    &memBlobs{objects: map[string][]byte{}},
	}
	f.uc = report.NewUseCase(repos, f.renderer, f.exporter, f.blobs, logger.Nop())
	return f
}

// ─── Stock ────────────────────────────────────────────────────────────────────

func TestStockReport_CategorySummary(t *testing.T) {
	f := newFixture(t)

	r, err := f.uc.StockReport(context.Background(), report.StockQuery{})
	require.NoError(t, err)
	assert.Equal(t, 3, r.TotalProducts)
	herb := r.CategorySummary["Herbicida"]
	assert.Equal(t, 2, herb.TotalProducts)
	assert.True(t, herb.TotalStock.Equal(d(16)))
	assert.Equal(t, 0, herb.LowStockCount)
	other := r.CategorySummary[entity.DefaultCategory]
	assert.Equal(t, 1, other.TotalProducts)
	assert.Equal(t, 1, other.LowStockCount, "0 <= 0 cuenta como stock bajo")
	assert.Equal(t, "Galpón A", r.WarehouseNames["A"])
}

func TestStockReport_WarehouseFilter(t *testing.T) {
	f := newFixture(t)

	r, err := f.uc.StockReport(context.Background(), report.StockQuery{WarehouseID: "B"})
	require.NoError(t, err)
	assert.Equal(t, 2, r.TotalProducts)
	herb := r.CategorySummary["Herbicida"]
	assert.True(t, herb.TotalStock.Equal(d(6)), "los totales son del almacén filtrado")
	assert.Equal(t, 1, herb.LowStockCount, "Glifosato tiene 2 en B con mínimo 5")

	data, name, err := f.uc.StockWorkbook(context.Background(), report.StockQuery{Category: "Herbicida"})
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Contains(t, name, "reporte_stock_")
	assert.Equal(t, "Herbicida", f.exporter.stock.CategoryFilter)
}

// ─── Movimientos ──────────────────────────────────────────────────────────────

func TestMovementsReport_EnrichedAndGrouped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ledger := inventory.NewLedger()
	require.NoError(t, f.store.Run(ctx, func(r inventory.Repos) error {
		if _, err := ledger.ApplyDelta(ctx, r, "p1", "A", d(-3), inventory.HistoryMeta{
			Type: entity.HistoryTransferCompleted, SourceWarehouseID: "A", TargetWarehouseID: "B", TransferID: "t1",
		}); err != nil {
			return err
		}
		_, err := ledger.ApplyDelta(ctx, r, "p2", "B", d(5), inventory.HistoryMeta{Type: entity.HistoryPurchaseReceive, PurchaseID: "c1"})
		return err
	}))

	r, err := f.uc.MovementsReport(ctx, report.MovementsQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, r.TotalMovements)
	require.Len(t, r.MovementsByType[entity.HistoryTransferCompleted], 1)
	m := r.MovementsByType[entity.HistoryTransferCompleted][0]
	assert.Equal(t, "Glifosato", m.ProductName)
	assert.Equal(t, "Galpón A", m.SourceWarehouseName)
	assert.Equal(t, "Galpón B", m.TargetWarehouseName)

	only, err := f.uc.MovementsReport(ctx, report.MovementsQuery{Type: entity.HistoryPurchaseReceive})
	require.NoError(t, err)
	require.Equal(t, 1, only.TotalMovements)
	assert.Equal(t, "Atrazina", only.Movements[0].ProductName)

	from := time.Now().Add(time.Hour)
	to := time.Now()
	_, err = f.uc.MovementsReport(ctx, report.MovementsQuery{From: &from, To: &to})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ─── Fumigación ───────────────────────────────────────────────────────────────

func TestFumigationPDF_AndExport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.blobs.objects["fumigaciones/f1/img.png"] = []byte("png-bytes")
	require.NoError(t, f.store.Repos().Fumigations.Create(ctx, &entity.Fumigation{
		ID: "f1", OrderNumber: 7, Crop: "Soja", Lot: "L-2", Surface: d(10),
		ImagePath: "fumigaciones/f1/img.png", Status: entity.FumigationPending,
	}))

	data, name, err := f.uc.FumigationPDF(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "Fumigacion_7.pdf", name)
	assert.Equal(t, []byte("%PDF-fake"), data)
	assert.Equal(t, report.ImagePNG, f.renderer.last.ImageType)
	assert.Equal(t, []byte("png-bytes"), f.renderer.last.Image)

	exported, err := f.uc.ExportFumigationPDF(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "reportes/fumigaciones/Fumigacion_7.pdf", exported.Path)
	assert.Equal(t, "https://files.test/reportes/fumigaciones/Fumigacion_7.pdf", exported.URL)
	assert.Contains(t, f.blobs.objects, exported.Path)

	_, _, err = f.uc.FumigationPDF(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFumigationPDF_MissingImageIsSkipped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.Repos().Fumigations.Create(ctx, &entity.Fumigation{
		ID: "f2", OrderNumber: 1, ImagePath: "fumigaciones/f2/perdida.jpg", Status: entity.FumigationPending,
	}))

	_, _, err := f.uc.FumigationPDF(ctx, "f2")
	require.NoError(t, err)
	assert.Nil(t, f.renderer.last.Image)
}
