package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
	"github.com/shopspring/decimal"
)

type productRepo struct{ x session }

var _ repository.ProductRepository = (*productRepo)(nil)

func (r *productRepo) Create(_ context.Context, p *entity.Product) error {
	defer r.x.guard()()
	st := r.x.state()
	if _, ok := st.products[p.ID]; ok {
		return domain.ErrDuplicate
	}
	row := cloneProduct(*p)
	row.WarehouseStock = nil
	st.products[p.ID] = row
	return nil
}

func (r *productRepo) withStock(st *state, p entity.Product) *entity.Product {
	out := cloneProduct(p)
	out.WarehouseStock = map[string]decimal.Decimal{}
	for k, c := range st.cells {
		if k.productID == p.ID {
			out.WarehouseStock[k.warehouseID] = c.Quantity
		}
	}
	return &out
}

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	defer r.x.guard()()
	st := r.x.state()
	p, ok := st.products[id]
	if !ok {
		return nil, nil
	}
	return r.withStock(st, p), nil
}

func (r *productRepo) GetForUpdate(_ context.Context, id string) (*entity.Product, error) {
	defer r.x.guard()()
	p, ok := r.x.state().products[id]
	if !ok {
		return nil, nil
	}
	out := cloneProduct(p)
	return &out, nil
}

func (r *productRepo) Update(_ context.Context, p *entity.Product) error {
	defer r.x.guard()()
	st := r.x.state()
	if _, ok := st.products[p.ID]; !ok {
		return domain.ErrNotFound
	}
	row := cloneProduct(*p)
	row.WarehouseStock = nil
	st.products[p.ID] = row
	return nil
}

func (r *productRepo) UpdateQuantity(_ context.Context, id string, quantity decimal.Decimal) error {
	defer r.x.guard()()
	st := r.x.state()
	p, ok := st.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Quantity = quantity
	p.UpdatedAt = time.Now().UTC()
	st.products[id] = p
	return nil
}

func (r *productRepo) List(_ context.Context, f repository.ProductFilter) ([]*entity.Product, error) {
	defer r.x.guard()()
	st := r.x.state()
	var ids map[string]bool
	if len(f.IDs) > 0 {
		ids = make(map[string]bool, len(f.IDs))
		for _, id := range f.IDs {
			ids[id] = true
		}
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]*entity.Product, 0, len(st.products))
	for _, p := range st.products {
		if ids != nil && !ids[p.ID] {
			continue
		}
		if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
			continue
		}
		if f.LowStockOnly && !p.IsLowStock() {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.ID), search) &&
			!strings.Contains(strings.ToLower(p.LotNumber), search) {
			continue
		}
		out = append(out, r.withStock(st, p))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return page(out, f.Limit, f.Offset), nil
}

func (r *productRepo) Delete(_ context.Context, id string) error {
	defer r.x.guard()()
	st := r.x.state()
	if _, ok := st.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(st.products, id)
	return nil
}
