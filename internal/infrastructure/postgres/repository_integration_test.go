package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agro-inventario/internal/application/inventory"
	"github.com/jhoicas/agro-inventario/internal/application/usecase"
	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
	"github.com/jhoicas/agro-inventario/pkg/config"
	"github.com/jhoicas/agro-inventario/pkg/logger"
)

// Pruebas contra una base real: se omiten si TEST_DATABASE_URL no está definido.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()

	m, err := NewMigrator(dsn, "../../../migrations", logger.Nop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	pool, err := NewPool(ctx, config.DBConfig{DatabaseURL: dsn})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedWarehouse(t *testing.T, repos inventory.Repos, name string) *entity.Warehouse {
	t.Helper()
	now := time.Now().UTC()
	w := &entity.Warehouse{ID: uuid.NewString(), Name: name, Status: entity.WarehouseActive, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repos.Warehouses.Create(context.Background(), w))
	return w
}

func seedProduct(t *testing.T, repos inventory.Repos, name string) *entity.Product {
	t.Helper()
	now := time.Now().UTC()
	p := &entity.Product{
		ID: uuid.NewString(), Name: name, Category: "Herbicidas", UnitOfMeasure: "Lts",
		MinStock: dec("5"), CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repos.Products.Create(context.Background(), p))
	return p
}

func TestLedger_Postgres(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repos := NewRepos(pool)
	tx := NewTxRunner(pool)
	ledger := inventory.NewLedger()

	w := seedWarehouse(t, repos, "Galpón "+uuid.NewString()[:8])
	p := seedProduct(t, repos, "Glifosato "+uuid.NewString()[:8])

	err := tx.Run(ctx, func(r inventory.Repos) error {
		_, err := ledger.ApplyDelta(ctx, r, p.ID, w.ID, dec("10"), inventory.HistoryMeta{Type: entity.HistoryPurchaseReceive})
		return err
	})
	require.NoError(t, err)

	err = tx.Run(ctx, func(r inventory.Repos) error {
		_, err := ledger.ApplyDelta(ctx, r, p.ID, w.ID, dec("-25"), inventory.HistoryMeta{Type: entity.HistoryFumigation})
		return err
	})
	require.NoError(t, err)

	got, err := repos.Products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Quantity.IsZero(), "el libro acota en cero")
	assert.True(t, got.WarehouseStock[w.ID].IsZero())

	hist, err := repos.History.List(ctx, repository.HistoryFilter{ProductID: p.ID})
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, entity.HistoryFumigation, hist[0].Type)
	assert.True(t, hist[0].PreviousQuantity.Equal(dec("10")))
	assert.True(t, hist[0].NewQuantity.IsZero())
}

func TestTxRunner_RollbackOnError(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repos := NewRepos(pool)
	w := seedWarehouse(t, repos, "Depósito "+uuid.NewString()[:8])

	err := NewTxRunner(pool).Run(ctx, func(r inventory.Repos) error {
		w.Name = "Cambiado"
		w.UpdatedAt = time.Now().UTC()
		require.NoError(t, r.Warehouses.Update(ctx, w))
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	got, err := repos.Warehouses.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "Cambiado", got.Name)
}

func TestFumigation_OrderNumbersAreUniqueUnderConcurrency(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	tx := NewTxRunner(pool)

	const n = 8
	numbers := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := tx.Run(ctx, func(r inventory.Repos) error {
				next, err := r.Fumigations.NextOrderNumber(ctx)
				if err != nil {
					return err
				}
				now := time.Now().UTC()
				f := &entity.Fumigation{
					ID: uuid.NewString(), OrderNumber: next, Date: now, Crop: "Soja", Lot: "L1",
					Surface: dec("1"), Status: entity.FumigationPending, CreatedAt: now, UpdatedAt: now,
				}
				if err := r.Fumigations.Create(ctx, f); err != nil {
					return err
				}
				numbers <- next
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[int]bool{}
	for num := range numbers {
		assert.False(t, seen[num], "número repetido %d", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
}

func TestField_LotsRoundTrip(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repos := NewRepos(pool)
	now := time.Now().UTC().Truncate(time.Microsecond)

	f := &entity.Field{
		ID: uuid.NewString(), Name: "La Esperanza", Area: dec("120"), AreaUnit: entity.DefaultAreaUnit,
		Lots:      []entity.Lot{{ID: uuid.NewString(), Name: "Lote 1", Area: dec("40"), AreaUnit: "ha", Crop: "Maíz", CreatedAt: now, UpdatedAt: now}},
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repos.Fields.Create(ctx, f))

	got, err := repos.Fields.GetByID(ctx, f.ID)
	require.NoError(t, err)
	require.Len(t, got.Lots, 1)
	assert.Equal(t, "Lote 1", got.Lots[0].Name)
	assert.True(t, got.Lots[0].Area.Equal(dec("40")))
	assert.Nil(t, got.Boundary)
}

func TestMalformedIDs_AreNotFoundAndKeepTxUsable(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	tx := NewTxRunner(pool)

	err := tx.Run(ctx, func(r inventory.Repos) error {
		p, err := r.Products.GetForUpdate(ctx, "abc")
		require.NoError(t, err)
		assert.Nil(t, p)

		cell, err := r.Stock.GetForUpdate(ctx, "abc", "def")
		require.NoError(t, err)
		assert.Nil(t, cell)

		// La transacción sigue viva después de las búsquedas.
		seedWarehouse(t, r, "Galpón "+uuid.NewString()[:8])
		return nil
	})
	require.NoError(t, err)

	err = NewRepos(pool).Products.Create(ctx, &entity.Product{ID: "no-uuid", Name: "Urea"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestWarehouse_DeleteWithPastTransfers(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repos := NewRepos(pool)
	log := logger.Nop()
	uc := usecase.NewWarehouseUseCase(NewTxRunner(pool), repos, inventory.NewPublisher(nil, log), log)

	a := seedWarehouse(t, repos, "Galpón "+uuid.NewString()[:8])
	b := seedWarehouse(t, repos, "Galpón "+uuid.NewString()[:8])
	p := seedProduct(t, repos, "Urea "+uuid.NewString()[:8])
	now := time.Now().UTC()
	tr := &entity.Transfer{
		ID: uuid.NewString(), SourceWarehouseID: a.ID, TargetWarehouseID: b.ID,
		Items:  []entity.TransferItem{{ProductID: p.ID, Quantity: dec("2")}},
		Status: entity.TransferCompleted, CompletedAt: &now, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repos.Transfers.Create(ctx, tr))

	// Sin stock el almacén se elimina; la transferencia conserva sus ids.
	require.NoError(t, uc.Delete(ctx, a.ID))
	got, err := repos.Transfers.GetByID(ctx, tr.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, a.ID, got.SourceWarehouseID)
}
