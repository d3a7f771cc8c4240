package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
)

type userRepo struct{ x session }

var _ repository.UserRepository = (*userRepo)(nil)

func (r *userRepo) Create(_ context.Context, u *entity.User) error {
	defer r.x.guard()()
	st := r.x.state()
	for _, other := range st.users {
		if strings.EqualFold(other.Email, u.Email) {
			return domain.ErrEmailAlreadyExists
		}
	}
	st.users[u.ID] = cloneUser(*u)
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	defer r.x.guard()()
	u, ok := r.x.state().users[id]
	if !ok {
		return nil, nil
	}
	out := cloneUser(u)
	return &out, nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	defer r.x.guard()()
	for _, u := range r.x.state().users {
		if strings.EqualFold(u.Email, email) {
			out := cloneUser(u)
			return &out, nil
		}
	}
	return nil, nil
}

func (r *userRepo) Update(_ context.Context, u *entity.User) error {
	defer r.x.guard()()
	st := r.x.state()
	if _, ok := st.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	st.users[u.ID] = cloneUser(*u)
	return nil
}

func (r *userRepo) List(_ context.Context) ([]*entity.User, error) {
	defer r.x.guard()()
	out := make([]*entity.User, 0)
	for _, u := range r.x.state().users {
		c := cloneUser(u)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}
