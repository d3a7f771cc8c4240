package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
)

type warehouseRepo struct{ x session }

var _ repository.WarehouseRepository = (*warehouseRepo)(nil)

func (r *warehouseRepo) Create(_ context.Context, w *entity.Warehouse) error {
	defer r.x.guard()()
	st := r.x.state()
	if _, ok := st.warehouses[w.ID]; ok {
		return domain.ErrDuplicate
	}
	st.warehouses[w.ID] = *w
	return nil
}

func (r *warehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	defer r.x.guard()()
	w, ok := r.x.state().warehouses[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *warehouseRepo) Update(_ context.Context, w *entity.Warehouse) error {
	defer r.x.guard()()
	st := r.x.state()
	if _, ok := st.warehouses[w.ID]; !ok {
		return domain.ErrNotFound
	}
	st.warehouses[w.ID] = *w
	return nil
}

func (r *warehouseRepo) List(_ context.Context, f repository.WarehouseFilter) ([]*entity.Warehouse, error) {
	defer r.x.guard()()
	out := make([]*entity.Warehouse, 0)
	for _, w := range r.x.state().warehouses {
		if f.Status != "" && w.Status != f.Status {
			continue
		}
		w := w
		out = append(out, &w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *warehouseRepo) Delete(_ context.Context, id string) error {
	defer r.x.guard()()
	st := r.x.state()
	if _, ok := st.warehouses[id]; !ok {
		return domain.ErrNotFound
	}
	delete(st.warehouses, id)
	return nil
}
