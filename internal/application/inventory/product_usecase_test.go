package inventory_test

import (
	"context"
	"testing"

	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/application/inventory"
	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/memory"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/realtime"
	"github.com/jhoicas/agro-inventario/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProductUseCase(t *testing.T, warehouses ...string) (*inventory.ProductUseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	for _, w := range warehouses {
		require.NoError(t, store.Repos().Warehouses.Create(context.Background(), &entity.Warehouse{ID: w, Name: w, Status: entity.WarehouseActive}))
	}
	events := inventory.NewPublisher(realtime.NewLocalNotifier(), logger.Nop())
	return inventory.NewProductUseCase(store, store.Repos(), events), store
}

func TestProductCreate_WritesPositiveCellsAndHistory(t *testing.T) {
	ctx := context.Background()
	uc, store := newProductUseCase(t, "A", "B")

	resp, err := uc.Create(ctx, "u1", dto.CreateProductRequest{
		Name:           "Urea",
		WarehouseStock: map[string]decimal.Decimal{"A": d(10), "B": d(0)},
	})
	require.NoError(t, err)
	assert.True(t, resp.Quantity.Equal(d(10)))
	assert.Equal(t, entity.DefaultUnitOfMeasure, resp.UnitOfMeasure)
	assert.Equal(t, entity.DefaultCategory, resp.Category)
	_, hasB := resp.WarehouseStock["B"]
	assert.False(t, hasB, "las celdas en cero no se crean")

	hist, err := uc.History(ctx, inventory.HistoryQuery{ProductID: resp.ID})
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, entity.HistoryCreate, hist[0].Type)
	assert.True(t, hist[0].PreviousQuantity.IsZero())
	assertAggregate(t, store, resp.ID)
}

func TestProductCreate_Validation(t *testing.T) {
	ctx := context.Background()
	uc, _ := newProductUseCase(t, "A")

	_, err := uc.Create(ctx, "u1", dto.CreateProductRequest{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(ctx, "u1", dto.CreateProductRequest{Name: "X", WarehouseStock: map[string]decimal.Decimal{"A": d(-1)}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(ctx, "u1", dto.CreateProductRequest{Name: "X", WarehouseStock: map[string]decimal.Decimal{"nope": d(1)}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductUpdate_DiffSyncsCells(t *testing.T) {
	ctx := context.Background()
	uc, store := newProductUseCase(t, "A", "B", "C")
	created, err := uc.Create(ctx, "u1", dto.CreateProductRequest{
		ID:             "P1",
		Name:           "Urea",
		WarehouseStock: map[string]decimal.Decimal{"A": d(10), "B": d(5)},
	})
	require.NoError(t, err)

	updated, err := uc.Update(ctx, "u1", created.ID, dto.UpdateProductRequest{
		WarehouseStock: map[string]decimal.Decimal{"A": d(7), "C": d(2)},
	})
	require.NoError(t, err)
	assert.True(t, updated.WarehouseStock["A"].Equal(d(7)))
	assert.True(t, updated.WarehouseStock["C"].Equal(d(2)))
	_, hasB := updated.WarehouseStock["B"]
	assert.False(t, hasB, "la celda ausente del mapa se elimina")
	assert.True(t, updated.Quantity.Equal(d(9)))
	assertAggregate(t, store, "P1")

	hist, err := uc.History(ctx, inventory.HistoryQuery{ProductID: "P1", Type: entity.HistoryUpdate})
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.True(t, hist[0].PreviousQuantity.Equal(d(15)))
	assert.True(t, hist[0].NewQuantity.Equal(d(9)))
}

func TestProductUpdate_NilStockLeavesCellsAndNoHistory(t *testing.T) {
	ctx := context.Background()
	uc, _ := newProductUseCase(t, "A")
	created, err := uc.Create(ctx, "u1", dto.CreateProductRequest{Name: "Urea", WarehouseStock: map[string]decimal.Decimal{"A": d(4)}})
	require.NoError(t, err)

	name := "Urea granulada"
	updated, err := uc.Update(ctx, "u1", created.ID, dto.UpdateProductRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.True(t, updated.Quantity.Equal(d(4)))

	hist, err := uc.History(ctx, inventory.HistoryQuery{ProductID: created.ID, Type: entity.HistoryUpdate})
	require.NoError(t, err)
	assert.Empty(t, hist, "sin cambio de total no hay entrada update")
}

func TestProductDelete_ClearsCellsAndWritesHistory(t *testing.T) {
	ctx := context.Background()
	uc, store := newProductUseCase(t, "A")
	created, err := uc.Create(ctx, "u1", dto.CreateProductRequest{Name: "Urea", WarehouseStock: map[string]decimal.Decimal{"A": d(4)}})
	require.NoError(t, err)

	require.NoError(t, uc.Delete(ctx, "u1", created.ID))

	_, err = uc.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	cell, err := store.Repos().Stock.Get(ctx, created.ID, "A")
	require.NoError(t, err)
	assert.Nil(t, cell)

	hist, err := uc.History(ctx, inventory.HistoryQuery{ProductID: created.ID})
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, entity.HistoryDelete, hist[0].Type, "la más reciente primero")
	assert.True(t, hist[0].PreviousQuantity.Equal(d(4)))

	assert.ErrorIs(t, uc.Delete(ctx, "u1", created.ID), domain.ErrNotFound)
}

func TestProductList_Filters(t *testing.T) {
	ctx := context.Background()
	uc, _ := newProductUseCase(t, "A")
	_, err := uc.Create(ctx, "u1", dto.CreateProductRequest{Name: "Urea", Category: "Fertilizante", MinStock: d(5), WarehouseStock: map[string]decimal.Decimal{"A": d(3)}})
	require.NoError(t, err)
	_, err = uc.Create(ctx, "u1", dto.CreateProductRequest{Name: "Glifosato", Category: "Herbicida", MinStock: d(1), LotNumber: "L-77", WarehouseStock: map[string]decimal.Decimal{"A": d(30)}})
	require.NoError(t, err)

	low, err := uc.List(ctx, inventory.ProductListQuery{LowStockOnly: true})
	require.NoError(t, err)
	require.Len(t, low.Items, 1)
	assert.Equal(t, "Urea", low.Items[0].Name)

	byCat, err := uc.List(ctx, inventory.ProductListQuery{Category: "herbicida"})
	require.NoError(t, err)
	require.Len(t, byCat.Items, 1)

	byLot, err := uc.List(ctx, inventory.ProductListQuery{Search: "l-77"})
	require.NoError(t, err)
	require.Len(t, byLot.Items, 1)
	assert.Equal(t, "Glifosato", byLot.Items[0].Name)
}
