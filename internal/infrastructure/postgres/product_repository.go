package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

var productColumns = []string{
	"id", "name", "category", "quantity", "min_stock", "unit_of_measure",
	"lot_number", "expiry_date", "notes", "created_at", "updated_at",
}

type productRow struct {
	ID            string          `db:"id"`
	Name          string          `db:"name"`
	Category      string          `db:"category"`
	Quantity      decimal.Decimal `db:"quantity"`
	MinStock      decimal.Decimal `db:"min_stock"`
	UnitOfMeasure string          `db:"unit_of_measure"`
	LotNumber     string          `db:"lot_number"`
	ExpiryDate    *time.Time      `db:"expiry_date"`
	Notes         string          `db:"notes"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func (r productRow) toEntity() *entity.Product {
	return &entity.Product{
		ID:             r.ID,
		Name:           r.Name,
		Category:       r.Category,
		Quantity:       r.Quantity,
		MinStock:       r.MinStock,
		UnitOfMeasure:  r.UnitOfMeasure,
		LotNumber:      r.LotNumber,
		ExpiryDate:     r.ExpiryDate,
		Notes:          r.Notes,
		WarehouseStock: map[string]decimal.Decimal{},
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto. Las celdas de stock se escriben aparte.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	_, err := exec(ctx, r.q, psql.Insert("products").Columns(productColumns...).Values(
		p.ID, p.Name, p.Category, p.Quantity, p.MinStock, p.UnitOfMeasure,
		p.LotNumber, p.ExpiryDate, p.Notes, p.CreatedAt, p.UpdatedAt,
	))
	if err != nil {
		return writeError("insert product", err)
	}
	return nil
}

// GetByID obtiene el producto con su mapa warehouseStock.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	p, err := r.get(ctx, id, "")
	if err != nil || p == nil {
		return p, err
	}
	cells, err := NewStockRepository(r.q).ListByProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, c := range cells {
		p.WarehouseStock[c.WarehouseID] = c.Quantity
	}
	return p, nil
}

// GetForUpdate bloquea la fila del producto (sin warehouseStock).
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	p, err := r.get(ctx, id, "FOR UPDATE")
	if err != nil || p == nil {
		return p, err
	}
	p.WarehouseStock = nil
	return p, nil
}

func (r *ProductRepo) get(ctx context.Context, id, suffix string) (*entity.Product, error) {
	if !validIDs(id) {
		return nil, nil
	}
	var row productRow
	b := psql.Select(productColumns...).From("products").Where(squirrel.Eq{"id": id})
	if suffix != "" {
		b = b.Suffix(suffix)
	}
	found, err := getOne(ctx, r.q, &row, b)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if !found {
		return nil, nil
	}
	return row.toEntity(), nil
}

// Update reescribe los datos de catálogo y la cantidad total.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	n, err := exec(ctx, r.q, psql.Update("products").SetMap(map[string]any{
		"name":            p.Name,
		"category":        p.Category,
		"quantity":        p.Quantity,
		"min_stock":       p.MinStock,
		"unit_of_measure": p.UnitOfMeasure,
		"lot_number":      p.LotNumber,
		"expiry_date":     p.ExpiryDate,
		"notes":           p.Notes,
		"updated_at":      p.UpdatedAt,
	}).Where(squirrel.Eq{"id": p.ID}))
	if err != nil {
		return writeError("update product", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateQuantity actualiza solo el agregado (lo usa el libro de stock).
func (r *ProductRepo) UpdateQuantity(ctx context.Context, id string, quantity decimal.Decimal) error {
	n, err := exec(ctx, r.q, psql.Update("products").
		Set("quantity", quantity).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}))
	if err != nil {
		return writeError("update product quantity", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List filtra el catálogo y completa warehouseStock con una sola consulta adicional.
func (r *ProductRepo) List(ctx context.Context, f repository.ProductFilter) ([]*entity.Product, error) {
	b := psql.Select(productColumns...).From("products")
	if len(f.IDs) > 0 {
		b = b.Where(squirrel.Eq{"id": f.IDs})
	}
	if f.Category != "" {
		b = b.Where("LOWER(category) = LOWER(?)", f.Category)
	}
	if f.LowStockOnly {
		b = b.Where("quantity <= min_stock")
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		b = b.Where(squirrel.Or{
			squirrel.ILike{"name": like},
			squirrel.Expr("id::text ILIKE ?", like),
			squirrel.ILike{"lot_number": like},
		})
	}
	b = paginate(b.OrderBy("name", "id"), f.Limit, f.Offset)

	var rows []productRow
	if err := selectAll(ctx, r.q, &rows, b); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]*entity.Product, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]string, len(rows))
	byID := make(map[string]*entity.Product, len(rows))
	for i, row := range rows {
		p := row.toEntity()
		ids[i] = p.ID
		byID[p.ID] = p
		out = append(out, p)
	}

	var cells []stockRow
	cb := psql.Select(stockColumns...).From("warehouse_stock").Where(squirrel.Eq{"product_id": ids})
	if err := selectAll(ctx, r.q, &cells, cb); err != nil {
		return nil, fmt.Errorf("list product stock: %w", err)
	}
	for _, c := range cells {
		if p := byID[c.ProductID]; p != nil {
			p.WarehouseStock[c.WarehouseID] = c.Quantity
		}
	}
	return out, nil
}

// Delete elimina el producto. Las celdas deben borrarse antes (DeleteByProduct).
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	n, err := exec(ctx, r.q, psql.Delete("products").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return writeError("delete product", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
