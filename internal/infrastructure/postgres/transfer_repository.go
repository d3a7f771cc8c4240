package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

var transferColumns = []string{
	"id", "source_warehouse_id", "target_warehouse_id", "items", "status", "notes",
	"created_by", "completed_at", "created_at", "updated_at",
}

type transferRow struct {
	ID                string                `db:"id"`
	SourceWarehouseID string                `db:"source_warehouse_id"`
	TargetWarehouseID string                `db:"target_warehouse_id"`
	Items             []entity.TransferItem `db:"items"`
	Status            string                `db:"status"`
	Notes             string                `db:"notes"`
	CreatedBy         *string               `db:"created_by"`
	CompletedAt       *time.Time            `db:"completed_at"`
	CreatedAt         time.Time             `db:"created_at"`
	UpdatedAt         time.Time             `db:"updated_at"`
}

func (r transferRow) toEntity() *entity.Transfer {
	return &entity.Transfer{
		ID:                r.ID,
		SourceWarehouseID: r.SourceWarehouseID,
		TargetWarehouseID: r.TargetWarehouseID,
		Items:             r.Items,
		Status:            r.Status,
		Notes:             r.Notes,
		CreatedBy:         deref(r.CreatedBy),
		CompletedAt:       r.CompletedAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

// TransferRepo transferencias con sus líneas en JSONB.
type TransferRepo struct {
	q Querier
}

func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

func (r *TransferRepo) Create(ctx context.Context, t *entity.Transfer) error {
	_, err := exec(ctx, r.q, psql.Insert("transfers").Columns(transferColumns...).Values(
		t.ID, t.SourceWarehouseID, t.TargetWarehouseID, nonNilItems(t.Items), t.Status, t.Notes,
		nullable(t.CreatedBy), t.CompletedAt, t.CreatedAt, t.UpdatedAt,
	))
	if err != nil {
		return writeError("insert transfer", err)
	}
	return nil
}

func (r *TransferRepo) GetByID(ctx context.Context, id string) (*entity.Transfer, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate bloquea la transferencia para el cambio de estado.
func (r *TransferRepo) GetForUpdate(ctx context.Context, id string) (*entity.Transfer, error) {
	return r.get(ctx, id, "FOR UPDATE")
}

func (r *TransferRepo) get(ctx context.Context, id, suffix string) (*entity.Transfer, error) {
	if !validIDs(id) {
		return nil, nil
	}
	b := psql.Select(transferColumns...).From("transfers").Where(squirrel.Eq{"id": id})
	if suffix != "" {
		b = b.Suffix(suffix)
	}
	var row transferRow
	found, err := getOne(ctx, r.q, &row, b)
	if err != nil {
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	if !found {
		return nil, nil
	}
	return row.toEntity(), nil
}

func (r *TransferRepo) Update(ctx context.Context, t *entity.Transfer) error {
	n, err := exec(ctx, r.q, psql.Update("transfers").SetMap(map[string]any{
		"items":        nonNilItems(t.Items),
		"status":       t.Status,
		"notes":        t.Notes,
		"completed_at": t.CompletedAt,
		"updated_at":   t.UpdatedAt,
	}).Where(squirrel.Eq{"id": t.ID}))
	if err != nil {
		return writeError("update transfer", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List más reciente primero.
func (r *TransferRepo) List(ctx context.Context, f repository.TransferFilter) ([]*entity.Transfer, error) {
	b := psql.Select(transferColumns...).From("transfers")
	if f.Status != "" {
		b = b.Where(squirrel.Eq{"status": f.Status})
	}
	b = paginate(b.OrderBy("created_at DESC"), f.Limit, f.Offset)
	var rows []transferRow
	if err := selectAll(ctx, r.q, &rows, b); err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	out := make([]*entity.Transfer, len(rows))
	for i, row := range rows {
		out[i] = row.toEntity()
	}
	return out, nil
}

func nonNilItems(items []entity.TransferItem) []entity.TransferItem {
	if items == nil {
		return []entity.TransferItem{}
	}
	return items
}
