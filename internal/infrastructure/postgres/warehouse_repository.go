package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
)

var _ repository.WarehouseRepository = (*WarehouseRepo)(nil)

var warehouseColumns = []string{
	"id", "name", "location", "type", "field_id", "storage_condition", "capacity",
	"capacity_unit", "supervisor", "notes", "status", "created_at", "updated_at",
}

type warehouseRow struct {
	ID               string          `db:"id"`
	Name             string          `db:"name"`
	Location         string          `db:"location"`
	Type             string          `db:"type"`
	FieldID          *string         `db:"field_id"`
	StorageCondition string          `db:"storage_condition"`
	Capacity         decimal.Decimal `db:"capacity"`
	CapacityUnit     string          `db:"capacity_unit"`
	Supervisor       string          `db:"supervisor"`
	Notes            string          `db:"notes"`
	Status           string          `db:"status"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

func (r warehouseRow) toEntity() *entity.Warehouse {
	return &entity.Warehouse{
		ID:               r.ID,
		Name:             r.Name,
		Location:         r.Location,
		Type:             r.Type,
		FieldID:          deref(r.FieldID),
		StorageCondition: r.StorageCondition,
		Capacity:         r.Capacity,
		CapacityUnit:     r.CapacityUnit,
		Supervisor:       r.Supervisor,
		Notes:            r.Notes,
		Status:           r.Status,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// WarehouseRepo implementación del puerto WarehouseRepository sobre PostgreSQL.
type WarehouseRepo struct {
	q Querier
}

// NewWarehouseRepository construye el adaptador. Acepta pool o tx (Querier).
func NewWarehouseRepository(q Querier) *WarehouseRepo {
	return &WarehouseRepo{q: q}
}

func (r *WarehouseRepo) Create(ctx context.Context, w *entity.Warehouse) error {
	_, err := exec(ctx, r.q, psql.Insert("warehouses").Columns(warehouseColumns...).Values(
		w.ID, w.Name, w.Location, w.Type, nullable(w.FieldID), w.StorageCondition, w.Capacity,
		w.CapacityUnit, w.Supervisor, w.Notes, w.Status, w.CreatedAt, w.UpdatedAt,
	))
	if err != nil {
		return writeError("insert warehouse", err)
	}
	return nil
}

func (r *WarehouseRepo) GetByID(ctx context.Context, id string) (*entity.Warehouse, error) {
	if !validIDs(id) {
		return nil, nil
	}
	var row warehouseRow
	found, err := getOne(ctx, r.q, &row, psql.Select(warehouseColumns...).From("warehouses").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return nil, fmt.Errorf("get warehouse: %w", err)
	}
	if !found {
		return nil, nil
	}
	return row.toEntity(), nil
}

func (r *WarehouseRepo) Update(ctx context.Context, w *entity.Warehouse) error {
	n, err := exec(ctx, r.q, psql.Update("warehouses").SetMap(map[string]any{
		"name":              w.Name,
		"location":          w.Location,
		"type":              w.Type,
		"field_id":          nullable(w.FieldID),
		"storage_condition": w.StorageCondition,
		"capacity":          w.Capacity,
		"capacity_unit":     w.CapacityUnit,
		"supervisor":        w.Supervisor,
		"notes":             w.Notes,
		"status":            w.Status,
		"updated_at":        w.UpdatedAt,
	}).Where(squirrel.Eq{"id": w.ID}))
	if err != nil {
		return writeError("update warehouse", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List ordenado por nombre.
func (r *WarehouseRepo) List(ctx context.Context, f repository.WarehouseFilter) ([]*entity.Warehouse, error) {
	b := psql.Select(warehouseColumns...).From("warehouses").OrderBy("name")
	if f.Status != "" {
		b = b.Where(squirrel.Eq{"status": f.Status})
	}
	var rows []warehouseRow
	if err := selectAll(ctx, r.q, &rows, b); err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	out := make([]*entity.Warehouse, len(rows))
	for i, row := range rows {
		out[i] = row.toEntity()
	}
	return out, nil
}

func (r *WarehouseRepo) Delete(ctx context.Context, id string) error {
	n, err := exec(ctx, r.q, psql.Delete("warehouses").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return writeError("delete warehouse", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
