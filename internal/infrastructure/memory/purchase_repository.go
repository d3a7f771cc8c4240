package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
)

type purchaseRepo struct{ x session }

var _ repository.PurchaseRepository = (*purchaseRepo)(nil)

func (r *purchaseRepo) Create(_ context.Context, p *entity.Purchase) error {
	defer r.x.guard()()
	st := r.x.state()
	if _, ok := st.purchases[p.ID]; ok {
		return domain.ErrDuplicate
	}
	st.purchases[p.ID] = clonePurchase(*p)
	return nil
}

func (r *purchaseRepo) GetByID(_ context.Context, id string) (*entity.Purchase, error) {
	defer r.x.guard()()
	p, ok := r.x.state().purchases[id]
	if !ok {
		return nil, nil
	}
	out := clonePurchase(p)
	return &out, nil
}

func (r *purchaseRepo) GetForUpdate(ctx context.Context, id string) (*entity.Purchase, error) {
	return r.GetByID(ctx, id)
}

func (r *purchaseRepo) Update(_ context.Context, p *entity.Purchase) error {
	defer r.x.guard()()
	st := r.x.state()
	if _, ok := st.purchases[p.ID]; !ok {
		return domain.ErrNotFound
	}
	st.purchases[p.ID] = clonePurchase(*p)
	return nil
}

func (r *purchaseRepo) List(_ context.Context, f repository.PurchaseFilter) ([]*entity.Purchase, error) {
	defer r.x.guard()()
	statuses := map[string]bool{}
	for _, s := range f.Statuses {
		statuses[s] = true
	}
	supplier := strings.ToLower(f.Supplier)
	out := make([]*entity.Purchase, 0)
	for _, p := range r.x.state().purchases {
		if len(statuses) > 0 && !statuses[p.Status] {
			continue
		}
		if supplier != "" && !strings.Contains(strings.ToLower(p.Supplier), supplier) {
			continue
		}
		c := clonePurchase(p)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, f.Limit, f.Offset), nil
}
