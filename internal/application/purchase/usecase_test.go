package purchase_test

import (
	"context"
	"testing"

	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/application/inventory"
	"github.com/jhoicas/agro-inventario/internal/application/purchase"
	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/memory"
	"github.com/jhoicas/agro-inventario/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func newUseCase(t *testing.T) (*purchase.UseCase, *memory.Store) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	repos := store.Repos()
	require.NoError(t, repos.Warehouses.Create(ctx, &entity.Warehouse{ID: "W", Name: "Central", Status: entity.WarehouseActive}))
	require.NoError(t, repos.Products.Create(ctx, &entity.Product{ID: "P", Name: "Urea", Quantity: decimal.Zero}))
	log := logger.Nop()
	return purchase.NewUseCase(store, repos, inventory.NewLedger(), inventory.NewPublisher(nil, log), log), store
}

func createPurchase(t *testing.T, uc *purchase.UseCase, qty int64) *dto.PurchaseResponse {
	t.Helper()
	resp, err := uc.Create(context.Background(), "u1", dto.CreatePurchaseRequest{
		Supplier:     "Agro SA",
		Invoice:      "F-001",
		ShippingCost: d(50),
		Products:     []dto.PurchaseItemRequest{{ProductID: "P", Quantity: d(qty), UnitPrice: d(2)}},
	})
	require.NoError(t, err)
	return resp
}

func receive(uc *purchase.UseCase, id string, lines ...dto.ReceiveLineRequest) (*dto.PurchaseResponse, error) {
	return uc.Receive(context.Background(), "u1", id, dto.ReceivePurchaseRequest{WarehouseID: "W", Products: lines})
}

func stockAt(t *testing.T, store *memory.Store, productID string) decimal.Decimal {
	t.Helper()
	p, err := store.Repos().Products.GetByID(context.Background(), productID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.Quantity.Equal(p.StockTotal()))
	return p.WarehouseStock["W"]
}

func TestPurchaseCreate_TotalsAndHistory(t *testing.T) {
	uc, _ := newUseCase(t)
	resp := createPurchase(t, uc, 100)

	assert.True(t, resp.TotalCost.Equal(d(250)), "100×2 + 50 de envío")
	assert.Equal(t, entity.PurchasePending, resp.Status)
	require.Len(t, resp.Products, 1)
	assert.True(t, resp.Products[0].Received.IsZero())
	assert.Equal(t, entity.PurchasePending, resp.Products[0].Status)

	hist, err := uc.History(context.Background(), resp.ID)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, entity.PurchaseHistoryCreate, hist[0].Type)
}

func TestPurchaseCreate_Validation(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, "u1", dto.CreatePurchaseRequest{Invoice: "F-1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin productos")

	_, err = uc.Create(ctx, "u1", dto.CreatePurchaseRequest{Products: []dto.PurchaseItemRequest{{ProductID: "P", Quantity: d(1)}}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin factura")
}

func TestPurchaseReceive_PartialThenComplete(t *testing.T) {
	uc, store := newUseCase(t)
	p := createPurchase(t, uc, 100)

	resp, err := receive(uc, p.ID, dto.ReceiveLineRequest{ProductID: "P", Quantity: d(40)})
	require.NoError(t, err)
	assert.True(t, resp.Products[0].Received.Equal(d(40)))
	assert.Equal(t, entity.PurchasePartial, resp.Products[0].Status)
	assert.Equal(t, entity.PurchasePartial, resp.Status)
	assert.Nil(t, resp.CompletedAt)
	assert.True(t, stockAt(t, store, "P").Equal(d(40)))

	resp, err = receive(uc, p.ID, dto.ReceiveLineRequest{ProductID: "P", Quantity: d(60)})
	require.NoError(t, err)
	assert.True(t, resp.Products[0].Received.Equal(d(100)))
	assert.Equal(t, entity.PurchaseCompleted, resp.Products[0].Status)
	assert.Equal(t, entity.PurchaseCompleted, resp.Status)
	assert.NotNil(t, resp.CompletedAt)
	assert.True(t, stockAt(t, store, "P").Equal(d(100)))

	hist, err := uc.History(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Len(t, hist, 3, "create + 2 receive")
}

func TestPurchaseReceive_OverReceiptRejected(t *testing.T) {
	uc, store := newUseCase(t)
	p := createPurchase(t, uc, 100)
	_, err := receive(uc, p.ID, dto.ReceiveLineRequest{ProductID: "P", Quantity: d(90)})
	require.NoError(t, err)

	_, err = receive(uc, p.ID, dto.ReceiveLineRequest{ProductID: "P", Quantity: d(20)})
	assert.ErrorIs(t, err, domain.ErrOverReceipt)

	got, err := uc.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, got.Products[0].Received.Equal(d(90)), "la línea no cambia")
	assert.True(t, stockAt(t, store, "P").Equal(d(90)), "no hay movimiento de stock")
}

func TestPurchaseReceive_ProductNotInPurchase(t *testing.T) {
	uc, _ := newUseCase(t)
	p := createPurchase(t, uc, 10)
	_, err := receive(uc, p.ID, dto.ReceiveLineRequest{ProductID: "OTRO", Quantity: d(1)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPurchaseReceive_AutoCreatesUnknownProduct(t *testing.T) {
	uc, store := newUseCase(t)
	ctx := context.Background()
	p, err := uc.Create(ctx, "u1", dto.CreatePurchaseRequest{
		Invoice:  "F-9",
		Products: []dto.PurchaseItemRequest{{ProductID: "NUEVO", Quantity: d(5), UnitPrice: d(1)}},
	})
	require.NoError(t, err)

	_, err = receive(uc, p.ID, dto.ReceiveLineRequest{ProductID: "NUEVO", Quantity: d(5), Name: "Fungicida X", UnitOfMeasure: "Lts"})
	require.NoError(t, err)

	created, err := store.Repos().Products.GetByID(ctx, "NUEVO")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "Fungicida X", created.Name)
	assert.Equal(t, "Lts", created.UnitOfMeasure)
	assert.Equal(t, entity.DefaultCategory, created.Category)
	assert.True(t, created.MinStock.IsZero())
	assert.True(t, created.WarehouseStock["W"].Equal(d(5)))
}

func TestPurchaseReceive_BatchIsAtomic(t *testing.T) {
	uc, store := newUseCase(t)
	ctx := context.Background()
	p, err := uc.Create(ctx, "u1", dto.CreatePurchaseRequest{
		Invoice: "F-2",
		Products: []dto.PurchaseItemRequest{
			{ProductID: "P", Quantity: d(10), UnitPrice: d(1)},
			{ProductID: "Q", Quantity: d(1), UnitPrice: d(1), Name: "Q"},
		},
	})
	require.NoError(t, err)

	_, err = receive(uc, p.ID,
		dto.ReceiveLineRequest{ProductID: "P", Quantity: d(10)},
		dto.ReceiveLineRequest{ProductID: "Q", Quantity: d(2)},
	)
	assert.ErrorIs(t, err, domain.ErrOverReceipt)
	assert.True(t, stockAt(t, store, "P").IsZero(), "la primera línea se revierte")
}
