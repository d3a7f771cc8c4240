package transfer_test

import (
	"context"
	"sync"
	"testing"

	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/application/inventory"
	"github.com/jhoicas/agro-inventario/internal/application/ports"
	"github.com/jhoicas/agro-inventario/internal/application/transfer"
	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/memory"
	"github.com/jhoicas/agro-inventario/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── Fixture ──────────────────────────────────────────────────────────────────

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

type fixture struct {
	store  *memory.Store
	uc     *transfer.UseCase
	events *recorder
}

// recorder guarda los eventos publicados.
type recorder struct {
	mu     sync.Mutex
	events []ports.ChangeEvent
}

func (r *recorder) Publish(_ context.Context, evt ports.ChangeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *recorder) Subscribe(ctx context.Context, _ []string, _ func(ports.ChangeEvent)) error {
	<-ctx.Done()
	return nil
}

func (r *recorder) take() []ports.ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	return out
}

func newFixture(t *testing.T, stock map[string]int64) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	repos := store.Repos()
	for _, w := range []string{"A", "B"} {
		require.NoError(t, repos.Warehouses.Create(ctx, &entity.Warehouse{ID: w, Name: "Almacén " + w, Status: entity.WarehouseActive}))
	}
	total := decimal.Zero
	for w, q := range stock {
		require.NoError(t, repos.Stock.Insert(ctx, &entity.StockCell{ProductID: "P", WarehouseID: w, Quantity: d(q)}))
		total = total.Add(d(q))
	}
	require.NoError(t, repos.Products.Create(ctx, &entity.Product{ID: "P", Name: "Glifosato", Quantity: total}))

	log := logger.Nop()
	events := &recorder{}
	uc := transfer.NewUseCase(store, repos, inventory.NewLedger(), inventory.NewPublisher(events, log), log)
	return &fixture{store: store, uc: uc, events: events}
}

func (f *fixture) product(t *testing.T) *entity.Product {
	t.Helper()
	p, err := f.store.Repos().Products.GetByID(context.Background(), "P")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.Quantity.Equal(p.StockTotal()), "quantity debe coincidir con la suma de celdas")
	return p
}

func (f *fixture) history(t *testing.T) []*entity.StockHistoryEntry {
	t.Helper()
	h, err := f.store.Repos().History.List(context.Background(), repository.HistoryFilter{ProductID: "P"})
	require.NoError(t, err)
	return h
}

func request(qty int64, status string) dto.CreateTransferRequest {
	return dto.CreateTransferRequest{
		SourceWarehouseID: "A",
		TargetWarehouseID: "B",
		Products:          []dto.TransferItemDTO{{ProductID: "P", Quantity: d(qty)}},
		Status:            status,
	}
}

// ─── Escenarios ───────────────────────────────────────────────────────────────

func TestTransfer_HappyPath(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]int64{"A": 10, "B": 0})

	created, err := f.uc.Create(ctx, "u1", request(4, entity.TransferPending))
	require.NoError(t, err)
	assert.Equal(t, entity.TransferPending, created.Status)
	assert.Empty(t, f.history(t), "pending no mueve stock")

	done, err := f.uc.UpdateStatus(ctx, "u1", created.ID, entity.TransferCompleted)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferCompleted, done.Status)
	assert.NotNil(t, done.CompletedAt)

	p := f.product(t)
	assert.True(t, p.WarehouseStock["A"].Equal(d(6)))
	assert.True(t, p.WarehouseStock["B"].Equal(d(4)))
	assert.True(t, p.Quantity.Equal(d(10)), "el total no cambia en una transferencia")

	hist := f.history(t)
	require.Len(t, hist, 2)
	for _, h := range hist {
		assert.Equal(t, entity.HistoryTransferCompleted, h.Type)
		assert.Equal(t, created.ID, h.TransferID)
		assert.Equal(t, "A", h.SourceWarehouseID)
		assert.Equal(t, "B", h.TargetWarehouseID)
	}
}

func TestTransfer_InsufficientStockAtCreation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]int64{"A": 3})

	_, err := f.uc.Create(ctx, "u1", request(5, ""))
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "P", insufficient.ProductID)
	assert.Contains(t, err.Error(), "Glifosato")

	list, err := f.uc.List(ctx, "", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list, "no se escribe ninguna transferencia")
	assert.True(t, f.product(t).WarehouseStock["A"].Equal(d(3)))
}

func TestTransfer_CreatedCompletedMovesImmediately(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]int64{"A": 10})

	created, err := f.uc.Create(ctx, "u1", request(10, entity.TransferCompleted))
	require.NoError(t, err)
	assert.Equal(t, entity.TransferCompleted, created.Status)
	p := f.product(t)
	assert.True(t, p.WarehouseStock["A"].IsZero())
	assert.True(t, p.WarehouseStock["B"].Equal(d(10)))
}

func TestTransfer_RevalidatesOnCompletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]int64{"A": 5})

	created, err := f.uc.Create(ctx, "u1", request(5, ""))
	require.NoError(t, err)

	// El stock de origen baja entre la creación y la confirmación.
	err = f.store.Run(ctx, func(r inventory.Repos) error {
		_, err := inventory.NewLedger().ApplyDelta(ctx, r, "P", "A", d(-2), inventory.HistoryMeta{Type: entity.HistoryFumigation})
		return err
	})
	require.NoError(t, err)

	_, err = f.uc.UpdateStatus(ctx, "u1", created.ID, entity.TransferCompleted)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	got, err := f.uc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferPending, got.Status, "el rechazo deja la transferencia intacta")
	assert.True(t, f.product(t).WarehouseStock["A"].Equal(d(3)))
}

func TestTransfer_Cancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]int64{"A": 10})
	created, err := f.uc.Create(ctx, "u1", request(4, ""))
	require.NoError(t, err)

	_, err = f.uc.UpdateStatus(ctx, "u1", created.ID, entity.TransferCancelled)
	require.NoError(t, err)

	hist := f.history(t)
	require.Len(t, hist, 1)
	assert.Equal(t, entity.HistoryTransferCancelled, hist[0].Type)
	assert.True(t, hist[0].PreviousQuantity.Equal(hist[0].NewQuantity))
	assert.True(t, f.product(t).WarehouseStock["A"].Equal(d(10)), "cancelar no mueve stock")
}

func TestTransfer_TerminalStatesRejectChanges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]int64{"A": 10})
	created, err := f.uc.Create(ctx, "u1", request(4, entity.TransferCompleted))
	require.NoError(t, err)

	for _, status := range []string{entity.TransferPending, entity.TransferCancelled} {
		_, err := f.uc.UpdateStatus(ctx, "u1", created.ID, status)
		var invalid *domain.InvalidTransitionError
		require.ErrorAs(t, err, &invalid, "completed -> %s debe rechazarse", status)
		assert.Equal(t, entity.TransferCompleted, invalid.From)
	}
}

func TestTransfer_SameStatusIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]int64{"A": 10})
	created, err := f.uc.Create(ctx, "u1", request(4, entity.TransferCompleted))
	require.NoError(t, err)
	before := len(f.history(t))

	_, err = f.uc.UpdateStatus(ctx, "u1", created.ID, entity.TransferCompleted)
	require.NoError(t, err)
	assert.Len(t, f.history(t), before, "sin nuevas entradas de historial")
	assert.True(t, f.product(t).WarehouseStock["B"].Equal(d(4)))
}

func TestTransfer_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]int64{"A": 10})

	same := request(1, "")
	same.TargetWarehouseID = "A"
	_, err := f.uc.Create(ctx, "u1", same)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	empty := request(1, "")
	empty.Products = nil
	_, err = f.uc.Create(ctx, "u1", empty)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.Create(ctx, "u1", request(0, ""))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.UpdateStatus(ctx, "u1", "nope", entity.TransferCompleted)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransfer_CancelledAtCreationIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]int64{"A": 1})

	_, err := f.uc.Create(ctx, "u1", request(5, entity.TransferCancelled))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.NotErrorIs(t, err, domain.ErrInsufficientStock, "se rechaza antes de mirar el stock")

	list, err := f.uc.List(ctx, "", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, f.history(t))
	assert.Empty(t, f.events.take())
}

func TestTransfer_PublishesOnlyCommittedChanges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]int64{"A": 5})

	created, err := f.uc.Create(ctx, "u1", request(5, ""))
	require.NoError(t, err)
	events := f.events.take()
	require.Len(t, events, 1)
	assert.Equal(t, ports.TableTransfers, events[0].Table)
	assert.Equal(t, ports.ActionInsert, events[0].Action)
	assert.Equal(t, created.ID, events[0].ID)
	assert.NotZero(t, events[0].Timestamp)

	// Creación rechazada: nada que publicar.
	_, err = f.uc.Create(ctx, "u1", request(50, ""))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Empty(t, f.events.take())

	// Confirmación revertida dentro de la transacción: tampoco.
	err = f.store.Run(ctx, func(r inventory.Repos) error {
		_, err := inventory.NewLedger().ApplyDelta(ctx, r, "P", "A", d(-1), inventory.HistoryMeta{Type: entity.HistoryFumigation})
		return err
	})
	require.NoError(t, err)
	_, err = f.uc.UpdateStatus(ctx, "u1", created.ID, entity.TransferCompleted)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Empty(t, f.events.take())

	// Confirmación válida: transferencia, celdas, producto e historial.
	_, err = f.uc.Create(ctx, "u1", request(4, entity.TransferCompleted))
	require.NoError(t, err)
	tables := map[string]bool{}
	for _, e := range f.events.take() {
		tables[e.Table] = true
	}
	for _, table := range []string{ports.TableTransfers, ports.TableWarehouseStock, ports.TableProducts, ports.TableStockHistory} {
		assert.True(t, tables[table], "falta evento de %s", table)
	}
}
