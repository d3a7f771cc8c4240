package usecase_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/application/inventory"
	"github.com/jhoicas/agro-inventario/internal/application/usecase"
	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/memory"
	"github.com/jhoicas/agro-inventario/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Cuadrado de ~100 m de lado cerca del ecuador (≈1 ha).
const squareBoundary = `{"type":"Polygon","coordinates":[[[0,0],[0.0009,0],[0.0009,0.0009],[0,0.0009],[0,0]]]}`

func newFieldUseCase() *usecase.FieldUseCase {
	store := memory.NewStore()
	return usecase.NewFieldUseCase(store, store.Repos(), inventory.NewPublisher(nil, logger.Nop()))
}

func TestField_CreateDefaultsAndComputedArea(t *testing.T) {
	ctx := context.Background()
	uc := newFieldUseCase()

	f, err := uc.Create(ctx, dto.FieldRequest{
		Name:     "El Ombú",
		Boundary: json.RawMessage(squareBoundary),
		Lots:     []dto.LotRequest{{Name: "L-1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ha", f.AreaUnit)
	assert.True(t, f.Area.GreaterThan(decimal.NewFromFloat(0.9)) && f.Area.LessThan(decimal.NewFromFloat(1.1)), "área calculada %s", f.Area)
	require.Len(t, f.Lots, 1)
	assert.Equal(t, "ha", f.Lots[0].AreaUnit)
	assert.True(t, f.Lots[0].Area.IsZero())

	explicit := decimal.NewFromInt(40)
	f, err = uc.Update(ctx, f.ID, dto.FieldRequest{Name: "El Ombú", Area: &explicit, AreaUnit: "ac"})
	require.NoError(t, err)
	assert.True(t, f.Area.Equal(explicit))
	assert.Equal(t, "ac", f.AreaUnit)
	assert.Len(t, f.Lots, 1, "sin lots en la petición se conservan los existentes")

	_, err = uc.Create(ctx, dto.FieldRequest{Name: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(ctx, dto.FieldRequest{Name: "X", Boundary: json.RawMessage(`{"type":"Point","coordinates":[0,0]}`)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestField_LotLifecycle(t *testing.T) {
	ctx := context.Background()
	uc := newFieldUseCase()

	f, err := uc.Create(ctx, dto.FieldRequest{Name: "La Loma"})
	require.NoError(t, err)

	a, err := uc.AddLot(ctx, f.ID, dto.LotRequest{Name: "A", Crop: "Maíz"})
	require.NoError(t, err)
	b, err := uc.AddLot(ctx, f.ID, dto.LotRequest{Name: "B"})
	require.NoError(t, err)

	crop := "Soja"
	updated, err := uc.UpdateLot(ctx, f.ID, a.ID, dto.UpdateLotRequest{Crop: &crop})
	require.NoError(t, err)
	assert.Equal(t, "Soja", updated.Crop)
	assert.Equal(t, "A", updated.Name)

	require.NoError(t, uc.RemoveLot(ctx, f.ID, a.ID))
	got, err := uc.GetByID(ctx, f.ID)
	require.NoError(t, err)
	require.Len(t, got.Lots, 1)
	assert.Equal(t, b.ID, got.Lots[0].ID)

	assert.ErrorIs(t, uc.RemoveLot(ctx, f.ID, a.ID), domain.ErrNotFound)
	_, err = uc.AddLot(ctx, "no-existe", dto.LotRequest{Name: "C"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, uc.Delete(ctx, f.ID))
	_, err = uc.GetByID(ctx, f.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
