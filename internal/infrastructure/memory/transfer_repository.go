package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
)

type transferRepo struct{ x session }

var _ repository.TransferRepository = (*transferRepo)(nil)

func (r *transferRepo) Create(_ context.Context, t *entity.Transfer) error {
	defer r.x.guard()()
	st := r.x.state()
	if _, ok := st.transfers[t.ID]; ok {
		return domain.ErrDuplicate
	}
	st.transfers[t.ID] = cloneTransfer(*t)
	return nil
}

func (r *transferRepo) GetByID(_ context.Context, id string) (*entity.Transfer, error) {
	defer r.x.guard()()
	t, ok := r.x.state().transfers[id]
	if !ok {
		return nil, nil
	}
	out := cloneTransfer(t)
	return &out, nil
}

func (r *transferRepo) GetForUpdate(ctx context.Context, id string) (*entity.Transfer, error) {
	return r.GetByID(ctx, id)
}

func (r *transferRepo) Update(_ context.Context, t *entity.Transfer) error {
	defer r.x.guard()()
	st := r.x.state()
	if _, ok := st.transfers[t.ID]; !ok {
		return domain.ErrNotFound
	}
	st.transfers[t.ID] = cloneTransfer(*t)
	return nil
}

func (r *transferRepo) List(_ context.Context, f repository.TransferFilter) ([]*entity.Transfer, error) {
	defer r.x.guard()()
	out := make([]*entity.Transfer, 0)
	for _, t := range r.x.state().transfers {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		c := cloneTransfer(t)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, f.Limit, f.Offset), nil
}
