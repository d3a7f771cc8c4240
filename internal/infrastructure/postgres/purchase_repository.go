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

var _ repository.PurchaseRepository = (*PurchaseRepo)(nil)

var purchaseColumns = []string{
	"id", "supplier", "items", "invoice", "shipping_cost", "total_cost", "status", "notes",
	"created_by", "completed_at", "created_at", "updated_at",
}

type purchaseRow struct {
	ID           string                `db:"id"`
	Supplier     string                `db:"supplier"`
	Items        []entity.PurchaseItem `db:"items"`
	Invoice      string                `db:"invoice"`
	ShippingCost decimal.Decimal       `db:"shipping_cost"`
	TotalCost    decimal.Decimal       `db:"total_cost"`
	Status       string                `db:"status"`
	Notes        string                `db:"notes"`
	CreatedBy    *string               `db:"created_by"`
	CompletedAt  *time.Time            `db:"completed_at"`
	CreatedAt    time.Time             `db:"created_at"`
	UpdatedAt    time.Time             `db:"updated_at"`
}

func (r purchaseRow) toEntity() *entity.Purchase {
	return &entity.Purchase{
		ID:           r.ID,
		Supplier:     r.Supplier,
		Items:        r.Items,
		Invoice:      r.Invoice,
		ShippingCost: r.ShippingCost,
		TotalCost:    r.TotalCost,
		Status:       r.Status,
		Notes:        r.Notes,
		CreatedBy:    deref(r.CreatedBy),
		CompletedAt:  r.CompletedAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// PurchaseRepo compras con líneas (y su avance de recepción) en JSONB.
type PurchaseRepo struct {
	q Querier
}

func NewPurchaseRepository(q Querier) *PurchaseRepo {
	return &PurchaseRepo{q: q}
}

func (r *PurchaseRepo) Create(ctx context.Context, p *entity.Purchase) error {
	_, err := exec(ctx, r.q, psql.Insert("purchases").Columns(purchaseColumns...).Values(
		p.ID, p.Supplier, purchaseItems(p.Items), p.Invoice, p.ShippingCost, p.TotalCost, p.Status, p.Notes,
		nullable(p.CreatedBy), p.CompletedAt, p.CreatedAt, p.UpdatedAt,
	))
	if err != nil {
		return writeError("insert purchase", err)
	}
	return nil
}

func (r *PurchaseRepo) GetByID(ctx context.Context, id string) (*entity.Purchase, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate bloquea la compra durante una recepción.
func (r *PurchaseRepo) GetForUpdate(ctx context.Context, id string) (*entity.Purchase, error) {
	return r.get(ctx, id, "FOR UPDATE")
}

func (r *PurchaseRepo) get(ctx context.Context, id, suffix string) (*entity.Purchase, error) {
	if !validIDs(id) {
		return nil, nil
	}
	b := psql.Select(purchaseColumns...).From("purchases").Where(squirrel.Eq{"id": id})
	if suffix != "" {
		b = b.Suffix(suffix)
	}
	var row purchaseRow
	found, err := getOne(ctx, r.q, &row, b)
	if err != nil {
		return nil, fmt.Errorf("get purchase: %w", err)
	}
	if !found {
		return nil, nil
	}
	return row.toEntity(), nil
}

func (r *PurchaseRepo) Update(ctx context.Context, p *entity.Purchase) error {
	n, err := exec(ctx, r.q, psql.Update("purchases").SetMap(map[string]any{
		"supplier":      p.Supplier,
		"items":         purchaseItems(p.Items),
		"invoice":       p.Invoice,
		"shipping_cost": p.ShippingCost,
		"total_cost":    p.TotalCost,
		"status":        p.Status,
		"notes":         p.Notes,
		"completed_at":  p.CompletedAt,
		"updated_at":    p.UpdatedAt,
	}).Where(squirrel.Eq{"id": p.ID}))
	if err != nil {
		return writeError("update purchase", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List más reciente primero; Supplier busca por subcadena sin distinguir mayúsculas.
func (r *PurchaseRepo) List(ctx context.Context, f repository.PurchaseFilter) ([]*entity.Purchase, error) {
	b := psql.Select(purchaseColumns...).From("purchases")
	if len(f.Statuses) > 0 {
		b = b.Where(squirrel.Eq{"status": f.Statuses})
	}
	if f.Supplier != "" {
		b = b.Where(squirrel.ILike{"supplier": "%" + f.Supplier + "%"})
	}
	b = paginate(b.OrderBy("created_at DESC"), f.Limit, f.Offset)
	var rows []purchaseRow
	if err := selectAll(ctx, r.q, &rows, b); err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	out := make([]*entity.Purchase, len(rows))
	for i, row := range rows {
		out[i] = row.toEntity()
	}
	return out, nil
}

func purchaseItems(items []entity.PurchaseItem) []entity.PurchaseItem {
	if items == nil {
		return []entity.PurchaseItem{}
	}
	return items
}
