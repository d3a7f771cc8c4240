package usecase

import (
	"context"
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
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
	"github.com/jhoicas/agro-inventario/pkg/logger"
)

// WarehouseUseCase casos de uso CRUD para almacenes.
type WarehouseUseCase struct {
	tx     inventory.TxRunner
	repos  inventory.Repos
	events *inventory.Publisher
	log    *logger.Logger
	now    func() time.Time
}

// NewWarehouseUseCase construye el caso de uso.
func NewWarehouseUseCase(tx inventory.TxRunner, repos inventory.Repos, events *inventory.Publisher, log *logger.Logger) *WarehouseUseCase {
	return &WarehouseUseCase{
		tx:     tx,
		repos:  repos,
		events: events,
		log:    log.Named("warehouse"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create crea un nuevo almacén (status por defecto active).
func (uc *WarehouseUseCase) Create(ctx context.Context, in dto.CreateWarehouseRequest) (*dto.WarehouseResponse, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.Invalid("el nombre del almacén es obligatorio")
	}
	if in.Capacity.IsNegative() {
		return nil, domain.Invalid("la capacidad no puede ser negativa")
	}
	status := in.Status
	if status == "" {
		status = entity.WarehouseActive
	}
	if err := validateWarehouseStatus(status); err != nil {
		return nil, err
	}
	if err := uc.ensureField(ctx, in.FieldID); err != nil {
		return nil, err
	}
	now := uc.now()
	w := &entity.Warehouse{
		ID:               uuid.New().String(),
		Name:             strings.TrimSpace(in.Name),
		Location:         in.Location,
		Type:             in.Type,
		FieldID:          in.FieldID,
		StorageCondition: in.StorageCondition,
		Capacity:         in.Capacity,
		CapacityUnit:     in.CapacityUnit,
		Supervisor:       in.Supervisor,
		Notes:            in.Notes,
		Status:           status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := uc.repos.Warehouses.Create(ctx, w); err != nil {
		return nil, err
	}
	uc.events.Publish(ctx, inventory.Changes{{Table: ports.TableWarehouses, Action: ports.ActionInsert, ID: w.ID}})
	return mapper.ToWarehouseResponse(w), nil
}

// GetByID obtiene un almacén por ID.
func (uc *WarehouseUseCase) GetByID(ctx context.Context, id string) (*dto.WarehouseResponse, error) {
	w, err := uc.repos.Warehouses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, domain.ErrNotFound
	}
	return mapper.ToWarehouseResponse(w), nil
}

// Update actualiza un almacén.
func (uc *WarehouseUseCase) Update(ctx context.Context, id string, in dto.UpdateWarehouseRequest) (*dto.WarehouseResponse, error) {
	w, err := uc.repos.Warehouses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, domain.ErrNotFound
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, domain.Invalid("el nombre del almacén es obligatorio")
		}
		w.Name = strings.TrimSpace(*in.Name)
	}
	if in.FieldID != nil {
		if err := uc.ensureField(ctx, *in.FieldID); err != nil {
			return nil, err
		}
		w.FieldID = *in.FieldID
	}
	if in.Capacity != nil {
		if in.Capacity.IsNegative() {
			return nil, domain.Invalid("la capacidad no puede ser negativa")
		}
		w.Capacity = *in.Capacity
	}
	if in.Status != nil {
		if err := validateWarehouseStatus(*in.Status); err != nil {
			return nil, err
		}
		w.Status = *in.Status
	}
	setIf(&w.Location, in.Location)
	setIf(&w.Type, in.Type)
	setIf(&w.StorageCondition, in.StorageCondition)
	setIf(&w.CapacityUnit, in.CapacityUnit)
	setIf(&w.Supervisor, in.Supervisor)
	setIf(&w.Notes, in.Notes)
	w.UpdatedAt = uc.now()
	if err := uc.repos.Warehouses.Update(ctx, w); err != nil {
		return nil, err
	}
	uc.events.Publish(ctx, inventory.Changes{{Table: ports.TableWarehouses, Action: ports.ActionUpdate, ID: w.ID}})
	return mapper.ToWarehouseResponse(w), nil
}

// List lista almacenes, opcionalmente filtrados por estado.
func (uc *WarehouseUseCase) List(ctx context.Context, status string) ([]dto.WarehouseResponse, error) {
	list, err := uc.repos.Warehouses.List(ctx, repository.WarehouseFilter{Status: status})
	if err != nil {
		return nil, err
	}
	return mapper.ToWarehouseResponses(list), nil
}

// Delete elimina un almacén. Se rechaza con ErrWarehouseHasStock mientras alguna celda tenga
// cantidad positiva; las celdas en cero se borran junto con el almacén.
func (uc *WarehouseUseCase) Delete(ctx context.Context, id string) error {
	var changes inventory.Changes
	err := uc.tx.Run(ctx, func(r inventory.Repos) error {
		w, err := r.Warehouses.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if w == nil {
			return domain.ErrNotFound
		}
		n, err := r.Stock.CountPositiveByWarehouse(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %s guarda stock de %d producto(s)", domain.ErrWarehouseHasStock, w.Name, n)
		}
		cells, err := r.Stock.ListByWarehouse(ctx, id)
		if err != nil {
			return err
		}
		for _, c := range cells {
			changes.Add(ports.TableWarehouseStock, ports.ActionDelete, c.ProductID)
		}
		if err := r.Stock.DeleteByWarehouse(ctx, id); err != nil {
			return err
		}
		changes.Add(ports.TableWarehouses, ports.ActionDelete, id)
		return r.Warehouses.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	uc.events.Publish(ctx, changes)
	uc.log.Info().Str("warehouse_id", id).Msg("almacén eliminado")
	return nil
}

func (uc *WarehouseUseCase) ensureField(ctx context.Context, fieldID string) error {
	if fieldID == "" {
		return nil
	}
	f, err := uc.repos.Fields.GetByID(ctx, fieldID)
	if err != nil {
		return err
	}
	if f == nil {
		return fmt.Errorf("%w: campo %s", domain.ErrNotFound, fieldID)
	}
	return nil
}

func validateWarehouseStatus(status string) error {
	if status != entity.WarehouseActive && status != entity.WarehouseInactive {
		return domain.Invalid("estado de almacén inválido: %s", status)
	}
	return nil
}

func setIf(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
