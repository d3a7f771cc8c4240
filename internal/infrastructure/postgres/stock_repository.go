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

var _ repository.StockRepository = (*StockRepo)(nil)

var stockColumns = []string{"product_id", "warehouse_id", "quantity", "updated_at"}

type stockRow struct {
	ProductID   string          `db:"product_id"`
	WarehouseID string          `db:"warehouse_id"`
	Quantity    decimal.Decimal `db:"quantity"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func (r stockRow) toEntity() entity.StockCell {
	return entity.StockCell{
		ProductID:   r.ProductID,
		WarehouseID: r.WarehouseID,
		Quantity:    r.Quantity,
		UpdatedAt:   r.UpdatedAt,
	}
}

// StockRepo celdas de stock (tabla warehouse_stock).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador. Acepta pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

func cellKey(productID, warehouseID string) squirrel.Eq {
	return squirrel.Eq{"product_id": productID, "warehouse_id": warehouseID}
}

// Get devuelve la celda o nil, nil.
func (r *StockRepo) Get(ctx context.Context, productID, warehouseID string) (*entity.StockCell, error) {
	if !validIDs(productID, warehouseID) {
		return nil, nil
	}
	return r.get(ctx, psql.Select(stockColumns...).From("warehouse_stock").Where(cellKey(productID, warehouseID)))
}

// GetForUpdate bloquea la celda hasta el fin de la transacción.
func (r *StockRepo) GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.StockCell, error) {
	if !validIDs(productID, warehouseID) {
		return nil, nil
	}
	return r.get(ctx, psql.Select(stockColumns...).From("warehouse_stock").
		Where(cellKey(productID, warehouseID)).Suffix("FOR UPDATE"))
}

func (r *StockRepo) get(ctx context.Context, b squirrel.SelectBuilder) (*entity.StockCell, error) {
	var row stockRow
	found, err := getOne(ctx, r.q, &row, b)
	if err != nil {
		return nil, fmt.Errorf("get stock: %w", err)
	}
	if !found {
		return nil, nil
	}
	c := row.toEntity()
	return &c, nil
}

// Insert crea la celda; ErrDuplicate si ya existe.
func (r *StockRepo) Insert(ctx context.Context, c *entity.StockCell) error {
	_, err := exec(ctx, r.q, psql.Insert("warehouse_stock").Columns(stockColumns...).
		Values(c.ProductID, c.WarehouseID, c.Quantity, c.UpdatedAt))
	if err != nil {
		return writeError("insert stock", err)
	}
	return nil
}

func (r *StockRepo) Update(ctx context.Context, c *entity.StockCell) error {
	n, err := exec(ctx, r.q, psql.Update("warehouse_stock").
		Set("quantity", c.Quantity).
		Set("updated_at", c.UpdatedAt).
		Where(cellKey(c.ProductID, c.WarehouseID)))
	if err != nil {
		return writeError("update stock", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *StockRepo) Delete(ctx context.Context, productID, warehouseID string) error {
	if _, err := exec(ctx, r.q, psql.Delete("warehouse_stock").Where(cellKey(productID, warehouseID))); err != nil {
		return writeError("delete stock", err)
	}
	return nil
}

func (r *StockRepo) DeleteByProduct(ctx context.Context, productID string) error {
	if _, err := exec(ctx, r.q, psql.Delete("warehouse_stock").Where(squirrel.Eq{"product_id": productID})); err != nil {
		return writeError("delete product stock", err)
	}
	return nil
}

func (r *StockRepo) DeleteByWarehouse(ctx context.Context, warehouseID string) error {
	if _, err := exec(ctx, r.q, psql.Delete("warehouse_stock").Where(squirrel.Eq{"warehouse_id": warehouseID})); err != nil {
		return writeError("delete warehouse stock", err)
	}
	return nil
}

// SumByProduct suma las celdas del producto (0 si no tiene).
func (r *StockRepo) SumByProduct(ctx context.Context, productID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM warehouse_stock WHERE product_id = $1`, productID,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum stock: %w", err)
	}
	return total, nil
}

func (r *StockRepo) list(ctx context.Context, where squirrel.Eq) ([]entity.StockCell, error) {
	var rows []stockRow
	b := psql.Select(stockColumns...).From("warehouse_stock").Where(where).OrderBy("product_id", "warehouse_id")
	if err := selectAll(ctx, r.q, &rows, b); err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	out := make([]entity.StockCell, len(rows))
	for i, row := range rows {
		out[i] = row.toEntity()
	}
	return out, nil
}

func (r *StockRepo) ListByProduct(ctx context.Context, productID string) ([]entity.StockCell, error) {
	return r.list(ctx, squirrel.Eq{"product_id": productID})
}

func (r *StockRepo) ListByWarehouse(ctx context.Context, warehouseID string) ([]entity.StockCell, error) {
	return r.list(ctx, squirrel.Eq{"warehouse_id": warehouseID})
}

// CountPositiveByWarehouse cuenta las celdas con cantidad > 0 (bloquea el borrado del almacén).
func (r *StockRepo) CountPositiveByWarehouse(ctx context.Context, warehouseID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM warehouse_stock WHERE warehouse_id = $1 AND quantity > 0`, warehouseID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count stock: %w", err)
	}
	return n, nil
}
