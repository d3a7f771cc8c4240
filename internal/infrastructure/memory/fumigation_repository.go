package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
)

type fumigationRepo struct{ x session }

var _ repository.FumigationRepository = (*fumigationRepo)(nil)

func (r *fumigationRepo) Create(_ context.Context, f *entity.Fumigation) error {
	defer r.x.guard()()
	st := r.x.state()
	if _, ok := st.fumigations[f.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, other := range st.fumigations {
		if other.OrderNumber == f.OrderNumber {
			return domain.ErrDuplicate
		}
	}
	st.fumigations[f.ID] = cloneFumigation(*f)
	return nil
}

func (r *fumigationRepo) GetByID(_ context.Context, id string) (*entity.Fumigation, error) {
	defer r.x.guard()()
	f, ok := r.x.state().fumigations[id]
	if !ok {
		return nil, nil
	}
	out := cloneFumigation(f)
	return &out, nil
}

func (r *fumigationRepo) GetForUpdate(ctx context.Context, id string) (*entity.Fumigation, error) {
	return r.GetByID(ctx, id)
}

func (r *fumigationRepo) Update(_ context.Context, f *entity.Fumigation) error {
	defer r.x.guard()()
	st := r.x.state()
	if _, ok := st.fumigations[f.ID]; !ok {
		return domain.ErrNotFound
	}
	st.fumigations[f.ID] = cloneFumigation(*f)
	return nil
}

func (r *fumigationRepo) List(_ context.Context, f repository.FumigationFilter) ([]*entity.Fumigation, error) {
	defer r.x.guard()()
	out := make([]*entity.Fumigation, 0)
	for _, fu := range r.x.state().fumigations {
		if f.Status != "" && fu.Status != f.Status {
			continue
		}
		if f.FieldID != "" && fu.FieldID != f.FieldID {
			continue
		}
		if f.Crop != "" && !strings.EqualFold(fu.Crop, f.Crop) {
			continue
		}
		if f.From != nil && fu.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && fu.Date.After(*f.To) {
			continue
		}
		c := cloneFumigation(fu)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber > out[j].OrderNumber })
	return page(out, f.Limit, f.Offset), nil
}

func (r *fumigationRepo) Delete(_ context.Context, id string) error {
	defer r.x.guard()()
	st := r.x.state()
	if _, ok := st.fumigations[id]; !ok {
		return domain.ErrNotFound
	}
	delete(st.fumigations, id)
	return nil
}

func (r *fumigationRepo) NextOrderNumber(_ context.Context) (int, error) {
	defer r.x.guard()()
	last := 0
	for _, f := range r.x.state().fumigations {
		if f.OrderNumber > last {
			last = f.OrderNumber
		}
	}
	return last + 1, nil
}
