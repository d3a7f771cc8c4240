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

var _ repository.FumigationRepository = (*FumigationRepo)(nil)

// orderNumberLockKey clave del advisory lock que serializa la numeración de órdenes.
const orderNumberLockKey int64 = 0x46554d49 // "FUMI"

var fumigationColumns = []string{
	"id", "order_number", "date", "field_id", "establishment", "applicator", "crop", "lot",
	"surface", "observations", "image_path", "status", "start_datetime", "end_datetime",
	"created_by", "created_at", "updated_at",
}

var fumigationProductColumns = []string{
	"fumigation_id", "position", "product_id", "product_name", "warehouse_id",
	"dose_per_ha", "dose_unit", "total_quantity", "total_unit",
}

type fumigationRow struct {
	ID            string          `db:"id"`
	OrderNumber   int             `db:"order_number"`
	Date          time.Time       `db:"date"`
	FieldID       *string         `db:"field_id"`
	Establishment string          `db:"establishment"`
	Applicator    string          `db:"applicator"`
	Crop          string          `db:"crop"`
	Lot           string          `db:"lot"`
	Surface       decimal.Decimal `db:"surface"`
	Observations  string          `db:"observations"`
	ImagePath     string          `db:"image_path"`
	Status        string          `db:"status"`
	StartDatetime *time.Time      `db:"start_datetime"`
	EndDatetime   *time.Time      `db:"end_datetime"`
	CreatedBy     *string         `db:"created_by"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func (r fumigationRow) toEntity() *entity.Fumigation {
	return &entity.Fumigation{
		ID:            r.ID,
		OrderNumber:   r.OrderNumber,
		Date:          r.Date,
		FieldID:       deref(r.FieldID),
		Establishment: r.Establishment,
		Applicator:    r.Applicator,
		Crop:          r.Crop,
		Lot:           r.Lot,
		Surface:       r.Surface,
		Observations:  r.Observations,
		ImagePath:     r.ImagePath,
		Status:        r.Status,
		StartDatetime: r.StartDatetime,
		EndDatetime:   r.EndDatetime,
		CreatedBy:     deref(r.CreatedBy),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type fumigationProductRow struct {
	FumigationID  string          `db:"fumigation_id"`
	Position      int             `db:"position"`
	ProductID     string          `db:"product_id"`
	ProductName   string          `db:"product_name"`
	WarehouseID   string          `db:"warehouse_id"`
	DosePerHa     decimal.Decimal `db:"dose_per_ha"`
	DoseUnit      string          `db:"dose_unit"`
	TotalQuantity decimal.Decimal `db:"total_quantity"`
	TotalUnit     string          `db:"total_unit"`
}

// FumigationRepo órdenes de aplicación; las líneas viven en fumigation_products.
type FumigationRepo struct {
	q Querier
}

func NewFumigationRepository(q Querier) *FumigationRepo {
	return &FumigationRepo{q: q}
}

func (r *FumigationRepo) Create(ctx context.Context, f *entity.Fumigation) error {
	_, err := exec(ctx, r.q, psql.Insert("fumigations").Columns(fumigationColumns...).Values(
		f.ID, f.OrderNumber, f.Date, nullable(f.FieldID), f.Establishment, f.Applicator, f.Crop, f.Lot,
		f.Surface, f.Observations, f.ImagePath, f.Status, f.StartDatetime, f.EndDatetime,
		nullable(f.CreatedBy), f.CreatedAt, f.UpdatedAt,
	))
	if err != nil {
		return writeError("insert fumigation", err)
	}
	return r.insertProducts(ctx, f)
}

func (r *FumigationRepo) insertProducts(ctx context.Context, f *entity.Fumigation) error {
	if len(f.Products) == 0 {
		return nil
	}
	b := psql.Insert("fumigation_products").Columns(fumigationProductColumns...)
	for i, p := range f.Products {
		b = b.Values(f.ID, i, p.ProductID, p.ProductName, p.WarehouseID,
			p.DosePerHa, p.DoseUnit, p.TotalQuantity, p.TotalUnit)
	}
	if _, err := exec(ctx, r.q, b); err != nil {
		return writeError("insert fumigation products", err)
	}
	return nil
}

func (r *FumigationRepo) GetByID(ctx context.Context, id string) (*entity.Fumigation, error) {
	return r.get(ctx, id, "")
}

func (r *FumigationRepo) GetForUpdate(ctx context.Context, id string) (*entity.Fumigation, error) {
	return r.get(ctx, id, "FOR UPDATE")
}

func (r *FumigationRepo) get(ctx context.Context, id, suffix string) (*entity.Fumigation, error) {
	if !validIDs(id) {
		return nil, nil
	}
	b := psql.Select(fumigationColumns...).From("fumigations").Where(squirrel.Eq{"id": id})
	if suffix != "" {
		b = b.Suffix(suffix)
	}
	var row fumigationRow
	found, err := getOne(ctx, r.q, &row, b)
	if err != nil {
		return nil, fmt.Errorf("get fumigation: %w", err)
	}
	if !found {
		return nil, nil
	}
	f := row.toEntity()
	if err := r.loadProducts(ctx, map[string]*entity.Fumigation{f.ID: f}); err != nil {
		return nil, err
	}
	return f, nil
}

// loadProducts completa las líneas de varias órdenes en una sola consulta.
func (r *FumigationRepo) loadProducts(ctx context.Context, byID map[string]*entity.Fumigation) error {
	if len(byID) == 0 {
		return nil
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	var rows []fumigationProductRow
	b := psql.Select(fumigationProductColumns...).From("fumigation_products").
		Where(squirrel.Eq{"fumigation_id": ids}).OrderBy("fumigation_id", "position")
	if err := selectAll(ctx, r.q, &rows, b); err != nil {
		return fmt.Errorf("list fumigation products: %w", err)
	}
	for _, row := range rows {
		f := byID[row.FumigationID]
		if f == nil {
			continue
		}
		f.Products = append(f.Products, entity.FumigationProduct{
			ProductID:     row.ProductID,
			ProductName:   row.ProductName,
			WarehouseID:   row.WarehouseID,
			DosePerHa:     row.DosePerHa,
			DoseUnit:      row.DoseUnit,
			TotalQuantity: row.TotalQuantity,
			TotalUnit:     row.TotalUnit,
		})
	}
	return nil
}

// Update reescribe la cabecera y reemplaza todas las líneas.
func (r *FumigationRepo) Update(ctx context.Context, f *entity.Fumigation) error {
	n, err := exec(ctx, r.q, psql.Update("fumigations").SetMap(map[string]any{
		"date":           f.Date,
		"field_id":       nullable(f.FieldID),
		"establishment":  f.Establishment,
		"applicator":     f.Applicator,
		"crop":           f.Crop,
		"lot":            f.Lot,
		"surface":        f.Surface,
		"observations":   f.Observations,
		"image_path":     f.ImagePath,
		"status":         f.Status,
		"start_datetime": f.StartDatetime,
		"end_datetime":   f.EndDatetime,
		"updated_at":     f.UpdatedAt,
	}).Where(squirrel.Eq{"id": f.ID}))
	if err != nil {
		return writeError("update fumigation", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	if _, err := exec(ctx, r.q, psql.Delete("fumigation_products").Where(squirrel.Eq{"fumigation_id": f.ID})); err != nil {
		return writeError("delete fumigation products", err)
	}
	return r.insertProducts(ctx, f)
}

// List por número de orden descendente.
func (r *FumigationRepo) List(ctx context.Context, f repository.FumigationFilter) ([]*entity.Fumigation, error) {
	b := psql.Select(fumigationColumns...).From("fumigations")
	if f.Status != "" {
		b = b.Where(squirrel.Eq{"status": f.Status})
	}
	if f.FieldID != "" {
		b = b.Where(squirrel.Eq{"field_id": f.FieldID})
	}
	if f.Crop != "" {
		b = b.Where("LOWER(crop) = LOWER(?)", f.Crop)
	}
	if f.From != nil {
		b = b.Where(squirrel.GtOrEq{"date": *f.From})
	}
	if f.To != nil {
		b = b.Where(squirrel.LtOrEq{"date": *f.To})
	}
	b = paginate(b.OrderBy("order_number DESC"), f.Limit, f.Offset)

	var rows []fumigationRow
	if err := selectAll(ctx, r.q, &rows, b); err != nil {
		return nil, fmt.Errorf("list fumigations: %w", err)
	}
	out := make([]*entity.Fumigation, len(rows))
	byID := make(map[string]*entity.Fumigation, len(rows))
	for i, row := range rows {
		out[i] = row.toEntity()
		byID[out[i].ID] = out[i]
	}
	if err := r.loadProducts(ctx, byID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *FumigationRepo) Delete(ctx context.Context, id string) error {
	n, err := exec(ctx, r.q, psql.Delete("fumigations").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return writeError("delete fumigation", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// NextOrderNumber devuelve max+1 bajo un advisory lock de transacción. Debe llamarse dentro de una tx.
func (r *FumigationRepo) NextOrderNumber(ctx context.Context) (int, error) {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, orderNumberLockKey); err != nil {
		return 0, fmt.Errorf("lock order number: %w", err)
	}
	var next int
	if err := r.q.QueryRow(ctx, `SELECT COALESCE(MAX(order_number), 0) + 1 FROM fumigations`).Scan(&next); err != nil {
		return 0, fmt.Errorf("next order number: %w", err)
	}
	return next, nil
}
