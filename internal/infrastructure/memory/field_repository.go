package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
)

type fieldRepo struct{ x session }

var _ repository.FieldRepository = (*fieldRepo)(nil)

func (r *fieldRepo) Create(_ context.Context, f *entity.Field) error {
	defer r.x.guard()()
	st := r.x.state()
	if _, ok := st.fields[f.ID]; ok {
		return domain.ErrDuplicate
	}
	st.fields[f.ID] = cloneField(*f)
	return nil
}

func (r *fieldRepo) GetByID(_ context.Context, id string) (*entity.Field, error) {
	defer r.x.guard()()
	f, ok := r.x.state().fields[id]
	if !ok {
		return nil, nil
	}
	out := cloneField(f)
	return &out, nil
}

func (r *fieldRepo) GetForUpdate(ctx context.Context, id string) (*entity.Field, error) {
	return r.GetByID(ctx, id)
}

func (r *fieldRepo) Update(_ context.Context, f *entity.Field) error {
	defer r.x.guard()()
	st := r.x.state()
	if _, ok := st.fields[f.ID]; !ok {
		return domain.ErrNotFound
	}
	st.fields[f.ID] = cloneField(*f)
	return nil
}

func (r *fieldRepo) List(_ context.Context) ([]*entity.Field, error) {
	defer r.x.guard()()
	out := make([]*entity.Field, 0)
	for _, f := range r.x.state().fields {
		c := cloneField(f)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fieldRepo) Delete(_ context.Context, id string) error {
	defer r.x.guard()()
	st := r.x.state()
	if _, ok := st.fields[id]; !ok {
		return domain.ErrNotFound
	}
	delete(st.fields, id)
	return nil
}
