package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
	"github.com/jhoicas/agro-inventario/pkg/geo"
)

var _ repository.FieldRepository = (*FieldRepo)(nil)

var fieldColumns = []string{
	"id", "name", "location", "area", "area_unit", "owner", "notes", "boundary", "lots", "created_at", "updated_at",
}

type fieldRow struct {
	ID        string          `db:"id"`
	Name      string          `db:"name"`
	Location  string          `db:"location"`
	Area      decimal.Decimal `db:"area"`
	AreaUnit  string          `db:"area_unit"`
	Owner     string          `db:"owner"`
	Notes     string          `db:"notes"`
	Boundary  []byte          `db:"boundary"`
	Lots      []lotDoc        `db:"lots"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// lotDoc forma JSONB de un lote embebido; el contorno va como geometría GeoJSON.
type lotDoc struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Area      decimal.Decimal `json:"area"`
	AreaUnit  string          `json:"areaUnit"`
	Crop      string          `json:"crop,omitempty"`
	Notes     string          `json:"notes,omitempty"`
	Boundary  json.RawMessage `json:"boundary,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func toLotDocs(lots []entity.Lot) []lotDoc {
	out := make([]lotDoc, len(lots))
	for i, l := range lots {
		out[i] = lotDoc{
			ID: l.ID, Name: l.Name, Area: l.Area, AreaUnit: l.AreaUnit, Crop: l.Crop, Notes: l.Notes,
			Boundary: geo.MarshalPolygon(l.Boundary), CreatedAt: l.CreatedAt, UpdatedAt: l.UpdatedAt,
		}
	}
	return out
}

func (r fieldRow) toEntity() (*entity.Field, error) {
	boundary, err := geo.ParsePolygon(r.Boundary)
	if err != nil {
		return nil, fmt.Errorf("decode field boundary: %w", err)
	}
	f := &entity.Field{
		ID:        r.ID,
		Name:      r.Name,
		Location:  r.Location,
		Area:      r.Area,
		AreaUnit:  r.AreaUnit,
		Owner:     r.Owner,
		Notes:     r.Notes,
		Boundary:  boundary,
		Lots:      make([]entity.Lot, 0, len(r.Lots)),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	for _, d := range r.Lots {
		lb, err := geo.ParsePolygon(d.Boundary)
		if err != nil {
			return nil, fmt.Errorf("decode lot boundary: %w", err)
		}
		f.Lots = append(f.Lots, entity.Lot{
			ID: d.ID, Name: d.Name, Area: d.Area, AreaUnit: d.AreaUnit, Crop: d.Crop, Notes: d.Notes,
			Boundary: lb, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
		})
	}
	return f, nil
}

// boundaryValue NULL cuando no hay contorno.
func boundaryValue(f *entity.Field) any {
	raw := geo.MarshalPolygon(f.Boundary)
	if raw == nil {
		return nil
	}
	return raw
}

// FieldRepo campos con los lotes embebidos en JSONB.
type FieldRepo struct {
	q Querier
}

func NewFieldRepository(q Querier) *FieldRepo {
	return &FieldRepo{q: q}
}

func (r *FieldRepo) Create(ctx context.Context, f *entity.Field) error {
	_, err := exec(ctx, r.q, psql.Insert("fields").Columns(fieldColumns...).Values(
		f.ID, f.Name, f.Location, f.Area, f.AreaUnit, f.Owner, f.Notes,
		boundaryValue(f), toLotDocs(f.Lots), f.CreatedAt, f.UpdatedAt,
	))
	if err != nil {
		return writeError("insert field", err)
	}
	return nil
}

func (r *FieldRepo) GetByID(ctx context.Context, id string) (*entity.Field, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate bloquea el campo mientras se reescribe la lista de lotes.
func (r *FieldRepo) GetForUpdate(ctx context.Context, id string) (*entity.Field, error) {
	return r.get(ctx, id, "FOR UPDATE")
}

func (r *FieldRepo) get(ctx context.Context, id, suffix string) (*entity.Field, error) {
	if !validIDs(id) {
		return nil, nil
	}
	b := psql.Select(fieldColumns...).From("fields").Where(squirrel.Eq{"id": id})
	if suffix != "" {
		b = b.Suffix(suffix)
	}
	var row fieldRow
	found, err := getOne(ctx, r.q, &row, b)
	if err != nil {
		return nil, fmt.Errorf("get field: %w", err)
	}
	if !found {
		return nil, nil
	}
	return row.toEntity()
}

func (r *FieldRepo) Update(ctx context.Context, f *entity.Field) error {
	n, err := exec(ctx, r.q, psql.Update("fields").SetMap(map[string]any{
		"name":       f.Name,
		"location":   f.Location,
		"area":       f.Area,
		"area_unit":  f.AreaUnit,
		"owner":      f.Owner,
		"notes":      f.Notes,
		"boundary":   boundaryValue(f),
		"lots":       toLotDocs(f.Lots),
		"updated_at": f.UpdatedAt,
	}).Where(squirrel.Eq{"id": f.ID}))
	if err != nil {
		return writeError("update field", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *FieldRepo) List(ctx context.Context) ([]*entity.Field, error) {
	var rows []fieldRow
	if err := selectAll(ctx, r.q, &rows, psql.Select(fieldColumns...).From("fields").OrderBy("name")); err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}
	out := make([]*entity.Field, 0, len(rows))
	for _, row := range rows {
		f, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func (r *FieldRepo) Delete(ctx context.Context, id string) error {
	n, err := exec(ctx, r.q, psql.Delete("fields").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return writeError("delete field", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
