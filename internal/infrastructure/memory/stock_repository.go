package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
	"github.com/shopspring/decimal"
)

type stockRepo struct{ x session }

var _ repository.StockRepository = (*stockRepo)(nil)

func (r *stockRepo) Get(_ context.Context, productID, warehouseID string) (*entity.StockCell, error) {
	defer r.x.guard()()
	c, ok := r.x.state().cells[cellKey{productID, warehouseID}]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// GetForUpdate equivale a Get: el lock del store ya serializa la transacción.
func (r *stockRepo) GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.StockCell, error) {
	return r.Get(ctx, productID, warehouseID)
}

func (r *stockRepo) Insert(_ context.Context, c *entity.StockCell) error {
	defer r.x.guard()()
	st := r.x.state()
	k := cellKey{c.ProductID, c.WarehouseID}
	if _, ok := st.cells[k]; ok {
		return domain.ErrDuplicate
	}
	st.cells[k] = *c
	return nil
}

func (r *stockRepo) Update(_ context.Context, c *entity.StockCell) error {
	defer r.x.guard()()
	st := r.x.state()
	k := cellKey{c.ProductID, c.WarehouseID}
	if _, ok := st.cells[k]; !ok {
		return domain.ErrNotFound
	}
	st.cells[k] = *c
	return nil
}

func (r *stockRepo) Delete(_ context.Context, productID, warehouseID string) error {
	defer r.x.guard()()
	delete(r.x.state().cells, cellKey{productID, warehouseID})
	return nil
}

func (r *stockRepo) DeleteByProduct(_ context.Context, productID string) error {
	defer r.x.guard()()
	st := r.x.state()
	for k := range st.cells {
		if k.productID == productID {
			delete(st.cells, k)
		}
	}
	return nil
}

func (r *stockRepo) DeleteByWarehouse(_ context.Context, warehouseID string) error {
	defer r.x.guard()()
	st := r.x.state()
	for k := range st.cells {
		if k.warehouseID == warehouseID {
			delete(st.cells, k)
		}
	}
	return nil
}

func (r *stockRepo) SumByProduct(_ context.Context, productID string) (decimal.Decimal, error) {
	defer r.x.guard()()
	total := decimal.Zero
	for k, c := range r.x.state().cells {
		if k.productID == productID {
			total = total.Add(c.Quantity)
		}
	}
	return total, nil
}

func (r *stockRepo) list(match func(cellKey) bool) []entity.StockCell {
	defer r.x.guard()()
	out := []entity.StockCell{}
	for k, c := range r.x.state().cells {
		if match(k) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID == out[j].ProductID {
			return out[i].WarehouseID < out[j].WarehouseID
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out
}

func (r *stockRepo) ListByProduct(_ context.Context, productID string) ([]entity.StockCell, error) {
	return r.list(func(k cellKey) bool { return k.productID == productID }), nil
}

func (r *stockRepo) ListByWarehouse(_ context.Context, warehouseID string) ([]entity.StockCell, error) {
	return r.list(func(k cellKey) bool { return k.warehouseID == warehouseID }), nil
}

func (r *stockRepo) CountPositiveByWarehouse(_ context.Context, warehouseID string) (int, error) {
	defer r.x.guard()()
	n := 0
	for k, c := range r.x.state().cells {
		if k.warehouseID == warehouseID && c.Quantity.IsPositive() {
			n++
		}
	}
	return n, nil
}
