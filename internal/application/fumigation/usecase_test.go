package fumigation_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/application/fumigation"
	"github.com/jhoicas/agro-inventario/internal/application/inventory"
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

type fakeBlobs struct {
	mu        sync.Mutex
	objects   map[string][]byte
	failWrite bool
}

func newFakeBlobs() *fakeBlobs { return &fakeBlobs{objects: map[string][]byte{}} }

func (b *fakeBlobs) Upload(_ context.Context, path, _ string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWrite {
		return errors.New("bucket no disponible")
	}
	b.objects[path] = data
	return nil
}

func (b *fakeBlobs) Download(_ context.Context, path string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func (b *fakeBlobs) Remove(_ context.Context, paths ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range paths {
		delete(b.objects, p)
	}
	return nil
}

func (b *fakeBlobs) PublicURL(_ context.Context, path string) (string, error) {
	return "https://files.test/" + path, nil
}

type fixture struct {
	store *memory.Store
	blobs *fakeBlobs
	uc    *fumigation.UseCase
}

func newFixture(t *testing.T, stockW int64, policy fumigation.Policy) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	repos := store.Repos()
	require.NoError(t, repos.Warehouses.Create(ctx, &entity.Warehouse{ID: "W", Name: "Galpón", Status: entity.WarehouseActive}))
	require.NoError(t, repos.Stock.Insert(ctx, &entity.StockCell{ProductID: "P", WarehouseID: "W", Quantity: d(stockW)}))
	require.NoError(t, repos.Products.Create(ctx, &entity.Product{ID: "P", Name: "Clorpirifos", Quantity: d(stockW)}))

	log := logger.Nop()
	blobs := newFakeBlobs()
	uc := fumigation.NewUseCase(store, repos, inventory.NewLedger(), blobs, inventory.NewPublisher(nil, log), policy, log)
	return &fixture{store: store, blobs: blobs, uc: uc}
}

func request(surface int64, dose int64, unit string) dto.CreateFumigationRequest {
	s := d(surface)
	return dto.CreateFumigationRequest{
		Establishment: "La Esperanza",
		Applicator:    "J. Pérez",
		Crop:          "Soja",
		Lot:           "L-3",
		Surface:       &s,
		Products:      []dto.FumigationProductRequest{{ProductID: "P", WarehouseID: "W", DosePerHa: d(dose), DoseUnit: unit}},
	}
}

func (f *fixture) product(t *testing.T) *entity.Product {
	t.Helper()
	p, err := f.store.Repos().Products.GetByID(context.Background(), "P")
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

// ─── Escenarios ───────────────────────────────────────────────────────────────

func TestFumigation_CompletionClampsAtZero(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2, fumigation.Policy{})

	created, err := f.uc.Create(ctx, "u1", request(1, 5, "l/ha"), nil)
	require.NoError(t, err)
	require.Len(t, created.Products, 1)
	assert.True(t, created.Products[0].TotalQuantity.Equal(d(5)))
	assert.Equal(t, "Clorpirifos", created.Products[0].ProductName)

	started, err := f.uc.UpdateStatus(ctx, "u1", created.ID, entity.FumigationInProgress)
	require.NoError(t, err)
	assert.NotNil(t, started.StartDatetime)

	done, err := f.uc.UpdateStatus(ctx, "u1", created.ID, entity.FumigationCompleted)
	require.NoError(t, err)
	assert.NotNil(t, done.EndDatetime)

	p := f.product(t)
	assert.True(t, p.WarehouseStock["W"].IsZero())
	assert.True(t, p.Quantity.IsZero())

	hist, err := f.store.Repos().History.List(ctx, repository.HistoryFilter{ProductID: "P"})
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, entity.HistoryFumigation, hist[0].Type)
	assert.Equal(t, created.ID, hist[0].FumigationID)
	assert.True(t, hist[0].PreviousQuantity.Equal(d(2)))
	assert.True(t, hist[0].NewQuantity.IsZero())
}

func TestFumigation_RequireStockPolicy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2, fumigation.Policy{RequireStock: true})

	created, err := f.uc.Create(ctx, "u1", request(1, 5, "l/ha"), nil)
	require.NoError(t, err)
	_, err = f.uc.UpdateStatus(ctx, "u1", created.ID, entity.FumigationInProgress)
	require.NoError(t, err)

	_, err = f.uc.UpdateStatus(ctx, "u1", created.ID, entity.FumigationCompleted)
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)

	got, err := f.uc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.FumigationInProgress, got.Status, "el estado no cambia si falla la validación")
	assert.True(t, f.product(t).WarehouseStock["W"].Equal(d(2)))
}

func TestFumigation_OrderNumberSequence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 100, fumigation.Policy{})

	for want := 1; want <= 3; want++ {
		created, err := f.uc.Create(ctx, "u1", request(1, 1, "l/ha"), nil)
		require.NoError(t, err)
		assert.Equal(t, want, created.OrderNumber)
	}
	fourth, err := f.uc.Create(ctx, "u1", request(1, 1, "l/ha"), nil)
	require.NoError(t, err)
	assert.Equal(t, 4, fourth.OrderNumber)
}

func TestFumigation_IllegalTransitions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10, fumigation.Policy{})

	created, err := f.uc.Create(ctx, "u1", request(1, 1, "l/ha"), nil)
	require.NoError(t, err)

	_, err = f.uc.UpdateStatus(ctx, "u1", created.ID, entity.FumigationCompleted)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "pending no puede pasar directo a completed")

	_, err = f.uc.UpdateStatus(ctx, "u1", created.ID, entity.FumigationCancelled)
	require.NoError(t, err)

	for _, to := range []string{entity.FumigationPending, entity.FumigationInProgress, entity.FumigationCompleted} {
		_, err = f.uc.UpdateStatus(ctx, "u1", created.ID, to)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	}
	assert.True(t, f.product(t).WarehouseStock["W"].Equal(d(10)), "cancelar no mueve stock")

	_, err = f.uc.Update(ctx, created.ID, dto.UpdateFumigationRequest{}, nil)
	assert.ErrorIs(t, err, domain.ErrConflict, "una orden terminal no se edita")
}

func TestFumigation_CreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10, fumigation.Policy{})

	req := request(1, 1, "l/ha")
	req.Crop = " "
	_, err := f.uc.Create(ctx, "u1", req, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	req = request(1, 1, "l/ha")
	req.Surface = nil
	_, err = f.uc.Create(ctx, "u1", req, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	req = request(1, 1, "l/ha")
	req.Products = nil
	_, err = f.uc.Create(ctx, "u1", req, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	req = request(1, 1, "l/ha")
	req.Products[0].ProductID = "X"
	_, err = f.uc.Create(ctx, "u1", req, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := f.uc.List(ctx, fumigation.ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFumigation_SurfaceChangeRecompute(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10, fumigation.Policy{})

	created, err := f.uc.Create(ctx, "u1", request(10, 500, "cc/ha"), nil)
	require.NoError(t, err)
	assert.True(t, created.Products[0].TotalQuantity.Equal(d(5)))
	assert.Equal(t, "Lts", created.Products[0].TotalUnit)

	surface := d(4)
	updated, err := f.uc.Update(ctx, created.ID, dto.UpdateFumigationRequest{Surface: &surface}, nil)
	require.NoError(t, err)
	assert.True(t, updated.Products[0].TotalQuantity.Equal(d(2000)), "sin reconversión el total es superficie × dosis")
	assert.Equal(t, "Lts", updated.Products[0].TotalUnit)

	updated, err = f.uc.Update(ctx, created.ID, dto.UpdateFumigationRequest{
		Products: []dto.FumigationProductRequest{{ProductID: "P", WarehouseID: "W", DosePerHa: d(500), DoseUnit: "cc/ha"}},
	}, nil)
	require.NoError(t, err)
	assert.True(t, updated.Products[0].TotalQuantity.Equal(d(2)), "reemplazar líneas recalcula con conversión")
}

func TestFumigation_ImageBestEffort(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10, fumigation.Policy{})

	f.blobs.failWrite = true
	created, err := f.uc.Create(ctx, "u1", request(1, 1, "l/ha"), &fumigation.Image{Filename: "a.png", Data: []byte("x")})
	require.NoError(t, err, "el fallo de la imagen no impide guardar la orden")
	assert.Empty(t, created.ImagePath)

	_, err = f.uc.AttachImage(ctx, created.ID, fumigation.Image{Filename: "a.png", Data: []byte("x")})
	assert.Error(t, err, "la subida explícita sí informa el error")

	f.blobs.failWrite = false
	first, err := f.uc.AttachImage(ctx, created.ID, fumigation.Image{Filename: "a.png", Data: []byte("x")})
	require.NoError(t, err)
	require.NotEmpty(t, first.ImagePath)

	second, err := f.uc.AttachImage(ctx, created.ID, fumigation.Image{Filename: "b.jpg", Data: []byte("y")})
	require.NoError(t, err)
	assert.NotEqual(t, first.ImagePath, second.ImagePath)
	_, err = f.blobs.Download(ctx, first.ImagePath)
	assert.ErrorIs(t, err, domain.ErrNotFound, "la imagen anterior se borra")

	url, err := f.uc.ImageURL(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://files.test/"+second.ImagePath, url)

	require.NoError(t, f.uc.Delete(ctx, created.ID))
	_, err = f.blobs.Download(ctx, second.ImagePath)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.uc.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
