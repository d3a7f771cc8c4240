package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/application/inventory"
	"github.com/jhoicas/agro-inventario/internal/application/mapper"
	"github.com/jhoicas/agro-inventario/internal/application/ports"
	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/pkg/geo"
	"github.com/paulmach/orb"
	"github.com/shopspring/decimal"
)

// FieldUseCase campos y sus lotes embebidos. Los lotes se modifican reescribiendo la lista completa.
type FieldUseCase struct {
	tx     inventory.TxRunner
	repos  inventory.Repos
	events *inventory.Publisher
	now    func() time.Time
}

// NewFieldUseCase construye el caso de uso.
func NewFieldUseCase(tx inventory.TxRunner, repos inventory.Repos, events *inventory.Publisher) *FieldUseCase {
	return &FieldUseCase{
		tx:     tx,
		repos:  repos,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// List lista todos los campos.
func (uc *FieldUseCase) List(ctx context.Context) ([]dto.FieldResponse, error) {
	list, err := uc.repos.Fields.List(ctx)
	if err != nil {
		return nil, err
	}
	return mapper.ToFieldResponses(list), nil
}

// GetByID obtiene un campo con sus lotes.
func (uc *FieldUseCase) GetByID(ctx context.Context, id string) (*dto.FieldResponse, error) {
	f, err := uc.repos.Fields.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, domain.ErrNotFound
	}
	return mapper.ToFieldResponse(f), nil
}

// Create da de alta un campo y los lotes que traiga.
func (uc *FieldUseCase) Create(ctx context.Context, in dto.FieldRequest) (*dto.FieldResponse, error) {
	now := uc.now()
	f := &entity.Field{ID: uuid.New().String(), CreatedAt: now}
	if err := uc.applyField(f, in, now); err != nil {
		return nil, err
	}
	if err := uc.repos.Fields.Create(ctx, f); err != nil {
		return nil, err
	}
	uc.events.Publish(ctx, inventory.Changes{{Table: ports.TableFields, Action: ports.ActionInsert, ID: f.ID}})
	return mapper.ToFieldResponse(f), nil
}

// Update reemplaza los datos del campo. Si in.Lots es nil los lotes existentes se conservan.
func (uc *FieldUseCase) Update(ctx context.Context, id string, in dto.FieldRequest) (*dto.FieldResponse, error) {
	return uc.mutate(ctx, id, func(f *entity.Field, now time.Time) error {
		keep := f.Lots
		if err := uc.applyField(f, in, now); err != nil {
			return err
		}
		if in.Lots == nil {
			f.Lots = keep
		}
		return nil
	})
}

// Delete elimina un campo.
func (uc *FieldUseCase) Delete(ctx context.Context, id string) error {
	f, err := uc.repos.Fields.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if f == nil {
		return domain.ErrNotFound
	}
	if err := uc.repos.Fields.Delete(ctx, id); err != nil {
		return err
	}
	uc.events.Publish(ctx, inventory.Changes{{Table: ports.TableFields, Action: ports.ActionDelete, ID: id}})
	return nil
}

// AddLot agrega un lote al final de la lista.
func (uc *FieldUseCase) AddLot(ctx context.Context, fieldID string, in dto.LotRequest) (*dto.LotResponse, error) {
	var created entity.Lot
	_, err := uc.mutate(ctx, fieldID, func(f *entity.Field, now time.Time) error {
		lot, err := buildLot(in, now)
		if err != nil {
			return err
		}
		f.Lots = append(f.Lots, lot)
		created = lot
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := mapper.ToLotResponse(created)
	return &out, nil
}

// UpdateLot edita el lote (fieldID, lotID).
func (uc *FieldUseCase) UpdateLot(ctx context.Context, fieldID, lotID string, in dto.UpdateLotRequest) (*dto.LotResponse, error) {
	var updated entity.Lot
	_, err := uc.mutate(ctx, fieldID, func(f *entity.Field, now time.Time) error {
		i := f.LotIndex(lotID)
		if i < 0 {
			return fmt.Errorf("%w: lote %s", domain.ErrNotFound, lotID)
		}
		lot := f.Lots[i]
		if in.Name != nil {
			if strings.TrimSpace(*in.Name) == "" {
				return domain.Invalid("el nombre del lote es obligatorio")
			}
			lot.Name = strings.TrimSpace(*in.Name)
		}
		if in.AreaUnit != nil {
			lot.AreaUnit = areaUnit(*in.AreaUnit)
		}
		setIf(&lot.Crop, in.Crop)
		setIf(&lot.Notes, in.Notes)
		if in.Boundary != nil {
			poly, err := parseBoundary(in.Boundary)
			if err != nil {
				return err
			}
			lot.Boundary = poly
			if in.Area == nil && poly != nil {
				lot.Area = geo.AreaHectares(poly)
			}
		}
		if in.Area != nil {
			if in.Area.IsNegative() {
				return domain.Invalid("la superficie no puede ser negativa")
			}
			lot.Area = *in.Area
		}
		lot.UpdatedAt = now
		f.Lots[i] = lot
		updated = lot
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := mapper.ToLotResponse(updated)
	return &out, nil
}

// RemoveLot quita el lote (fieldID, lotID) conservando el orden del resto.
func (uc *FieldUseCase) RemoveLot(ctx context.Context, fieldID, lotID string) error {
	_, err := uc.mutate(ctx, fieldID, func(f *entity.Field, _ time.Time) error {
		i := f.LotIndex(lotID)
		if i < 0 {
			return fmt.Errorf("%w: lote %s", domain.ErrNotFound, lotID)
		}
		f.Lots = append(f.Lots[:i], f.Lots[i+1:]...)
		return nil
	})
	return err
}

// mutate lee el campo con bloqueo, aplica fn y reescribe la fila completa.
func (uc *FieldUseCase) mutate(ctx context.Context, id string, fn func(f *entity.Field, now time.Time) error) (*dto.FieldResponse, error) {
	var result *entity.Field
	err := uc.tx.Run(ctx, func(r inventory.Repos) error {
		f, err := r.Fields.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if f == nil {
			return domain.ErrNotFound
		}
		now := uc.now()
		if err := fn(f, now); err != nil {
			return err
		}
		f.UpdatedAt = now
		result = f
		return r.Fields.Update(ctx, f)
	})
	if err != nil {
		return nil, err
	}
	uc.events.Publish(ctx, inventory.Changes{{Table: ports.TableFields, Action: ports.ActionUpdate, ID: id}})
	return mapper.ToFieldResponse(result), nil
}

func (uc *FieldUseCase) applyField(f *entity.Field, in dto.FieldRequest, now time.Time) error {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Invalid("el nombre del campo es obligatorio")
	}
	poly, err := parseBoundary(in.Boundary)
	if err != nil {
		return err
	}
	area, err := resolveArea(in.Area, poly)
	if err != nil {
		return err
	}
	lots := make([]entity.Lot, 0, len(in.Lots))
	for _, l := range in.Lots {
		lot, err := buildLot(l, now)
		if err != nil {
			return err
		}
		lots = append(lots, lot)
	}
	f.Name = strings.TrimSpace(in.Name)
	f.Location = in.Location
	f.Area = area
	f.AreaUnit = areaUnit(in.AreaUnit)
	f.Owner = in.Owner
	f.Notes = in.Notes
	f.Boundary = poly
	f.Lots = lots
	f.UpdatedAt = now
	return nil
}

func buildLot(in dto.LotRequest, now time.Time) (entity.Lot, error) {
	if strings.TrimSpace(in.Name) == "" {
		return entity.Lot{}, domain.Invalid("el nombre del lote es obligatorio")
	}
	poly, err := parseBoundary(in.Boundary)
	if err != nil {
		return entity.Lot{}, err
	}
	area, err := resolveArea(in.Area, poly)
	if err != nil {
		return entity.Lot{}, err
	}
	return entity.Lot{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(in.Name),
		Area:      area,
		AreaUnit:  areaUnit(in.AreaUnit),
		Crop:      in.Crop,
		Notes:     in.Notes,
		Boundary:  poly,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func parseBoundary(raw json.RawMessage) (orb.Polygon, error) {
	poly, err := geo.ParsePolygon(raw)
	if err != nil {
		return nil, domain.Invalid("límite GeoJSON inválido: %v", err)
	}
	return poly, nil
}

// resolveArea: el área explícita manda; si falta se calcula desde el polígono.
func resolveArea(explicit *decimal.Decimal, poly orb.Polygon) (decimal.Decimal, error) {
	if explicit != nil {
		if explicit.IsNegative() {
			return decimal.Zero, domain.Invalid("la superficie no puede ser negativa")
		}
		return *explicit, nil
	}
	if poly != nil {
		return geo.AreaHectares(poly), nil
	}
	return decimal.Zero, nil
}

func areaUnit(u string) string {
	if strings.TrimSpace(u) == "" {
		return entity.DefaultAreaUnit
	}
	return strings.TrimSpace(u)
}
