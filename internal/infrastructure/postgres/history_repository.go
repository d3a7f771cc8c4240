package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
)

// ── Historial de stock ──────────────────────────────────────────────────────

var _ repository.StockHistoryRepository = (*StockHistoryRepo)(nil)

var historyColumns = []string{
	"id", "product_id", "type", "previous_quantity", "new_quantity", "quantity",
	"warehouse_id", "source_warehouse_id", "target_warehouse_id",
	"transfer_id", "purchase_id", "fumigation_id", "user_id", "notes", "timestamp",
}

type historyRow struct {
	ID                string          `db:"id"`
	ProductID         string          `db:"product_id"`
	Type              string          `db:"type"`
	PreviousQuantity  decimal.Decimal `db:"previous_quantity"`
	NewQuantity       decimal.Decimal `db:"new_quantity"`
	Quantity          decimal.Decimal `db:"quantity"`
	WarehouseID       *string         `db:"warehouse_id"`
	SourceWarehouseID *string         `db:"source_warehouse_id"`
	TargetWarehouseID *string         `db:"target_warehouse_id"`
	TransferID        *string         `db:"transfer_id"`
	PurchaseID        *string         `db:"purchase_id"`
	FumigationID      *string         `db:"fumigation_id"`
	UserID            *string         `db:"user_id"`
	Notes             string          `db:"notes"`
	Timestamp         time.Time       `db:"timestamp"`
}

func (r historyRow) toEntity() *entity.StockHistoryEntry {
	return &entity.StockHistoryEntry{
		ID:                r.ID,
		ProductID:         r.ProductID,
		Type:              r.Type,
		PreviousQuantity:  r.PreviousQuantity,
		NewQuantity:       r.NewQuantity,
		Quantity:          r.Quantity,
		WarehouseID:       deref(r.WarehouseID),
		SourceWarehouseID: deref(r.SourceWarehouseID),
		TargetWarehouseID: deref(r.TargetWarehouseID),
		TransferID:        deref(r.TransferID),
		PurchaseID:        deref(r.PurchaseID),
		FumigationID:      deref(r.FumigationID),
		UserID:            deref(r.UserID),
		Notes:             r.Notes,
		Timestamp:         r.Timestamp,
	}
}

// StockHistoryRepo historial append-only.
type StockHistoryRepo struct {
	q Querier
}

func NewStockHistoryRepository(q Querier) *StockHistoryRepo {
	return &StockHistoryRepo{q: q}
}

func (r *StockHistoryRepo) Append(ctx context.Context, e *entity.StockHistoryEntry) error {
	_, err := exec(ctx, r.q, psql.Insert("stock_history").Columns(historyColumns...).Values(
		e.ID, e.ProductID, e.Type, e.PreviousQuantity, e.NewQuantity, e.Quantity,
		nullable(e.WarehouseID), nullable(e.SourceWarehouseID), nullable(e.TargetWarehouseID),
		nullable(e.TransferID), nullable(e.PurchaseID), nullable(e.FumigationID), nullable(e.UserID),
		e.Notes, e.Timestamp,
	))
	if err != nil {
		return writeError("append stock history", err)
	}
	return nil
}

// List más reciente primero; el filtro de almacén también casa con origen y destino.
func (r *StockHistoryRepo) List(ctx context.Context, f repository.HistoryFilter) ([]*entity.StockHistoryEntry, error) {
	b := psql.Select(historyColumns...).From("stock_history")
	if f.ProductID != "" {
		b = b.Where(squirrel.Eq{"product_id": f.ProductID})
	}
	if f.WarehouseID != "" {
		b = b.Where(squirrel.Or{
			squirrel.Eq{"warehouse_id": f.WarehouseID},
			squirrel.Eq{"source_warehouse_id": f.WarehouseID},
			squirrel.Eq{"target_warehouse_id": f.WarehouseID},
		})
	}
	if f.Type != "" {
		b = b.Where(squirrel.Eq{"type": f.Type})
	}
	if f.From != nil {
		b = b.Where(squirrel.GtOrEq{"timestamp": *f.From})
	}
	if f.To != nil {
		b = b.Where(squirrel.LtOrEq{"timestamp": *f.To})
	}
	b = paginate(b.OrderBy("timestamp DESC", "seq DESC"), f.Limit, f.Offset)

	var rows []historyRow
	if err := selectAll(ctx, r.q, &rows, b); err != nil {
		return nil, fmt.Errorf("list stock history: %w", err)
	}
	out := make([]*entity.StockHistoryEntry, len(rows))
	for i, row := range rows {
		out[i] = row.toEntity()
	}
	return out, nil
}

// ── Historial de compras ────────────────────────────────────────────────────

var _ repository.PurchaseHistoryRepository = (*PurchaseHistoryRepo)(nil)

var purchaseHistoryColumns = []string{
	"id", "purchase_id", "type", "warehouse_id", "lines", "status", "notes", "user_id", "timestamp",
}

type purchaseHistoryRow struct {
	ID          string                `db:"id"`
	PurchaseID  string                `db:"purchase_id"`
	Type        string                `db:"type"`
	WarehouseID *string               `db:"warehouse_id"`
	Lines       []entity.ReceivedLine `db:"lines"`
	Status      string                `db:"status"`
	Notes       string                `db:"notes"`
	UserID      *string               `db:"user_id"`
	Timestamp   time.Time             `db:"timestamp"`
}

type PurchaseHistoryRepo struct {
	q Querier
}

func NewPurchaseHistoryRepository(q Querier) *PurchaseHistoryRepo {
	return &PurchaseHistoryRepo{q: q}
}

func (r *PurchaseHistoryRepo) Append(ctx context.Context, e *entity.PurchaseHistoryEntry) error {
	lines := e.Lines
	if lines == nil {
		lines = []entity.ReceivedLine{}
	}
	_, err := exec(ctx, r.q, psql.Insert("purchase_history").Columns(purchaseHistoryColumns...).Values(
		e.ID, e.PurchaseID, e.Type, nullable(e.WarehouseID), lines, e.Status, e.Notes, nullable(e.UserID), e.Timestamp,
	))
	if err != nil {
		return writeError("append purchase history", err)
	}
	return nil
}

// ListByPurchase en orden de escritura.
func (r *PurchaseHistoryRepo) ListByPurchase(ctx context.Context, purchaseID string) ([]*entity.PurchaseHistoryEntry, error) {
	var rows []purchaseHistoryRow
	b := psql.Select(purchaseHistoryColumns...).From("purchase_history").
		Where(squirrel.Eq{"purchase_id": purchaseID}).OrderBy("seq")
	if err := selectAll(ctx, r.q, &rows, b); err != nil {
		return nil, fmt.Errorf("list purchase history: %w", err)
	}
	out := make([]*entity.PurchaseHistoryEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, &entity.PurchaseHistoryEntry{
			ID:          row.ID,
			PurchaseID:  row.PurchaseID,
			Type:        row.Type,
			WarehouseID: deref(row.WarehouseID),
			Lines:       row.Lines,
			Status:      row.Status,
			Notes:       row.Notes,
			UserID:      deref(row.UserID),
			Timestamp:   row.Timestamp,
		})
	}
	return out, nil
}
