package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

var userColumns = []string{
	"id", "email", "password_hash", "display_name", "role", "permissions", "status", "created_at", "updated_at",
}

type userRow struct {
	ID           string          `db:"id"`
	Email        string          `db:"email"`
	PasswordHash string          `db:"password_hash"`
	DisplayName  string          `db:"display_name"`
	Role         string          `db:"role"`
	Permissions  map[string]bool `db:"permissions"`
	Status       string          `db:"status"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

func (r userRow) toEntity() *entity.User {
	perms := r.Permissions
	if perms == nil {
		perms = map[string]bool{}
	}
	return &entity.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		DisplayName:  r.DisplayName,
		Role:         r.Role,
		Permissions:  perms,
		Status:       r.Status,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

// Create persiste un nuevo usuario; email repetido devuelve ErrEmailAlreadyExists.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	_, err := exec(ctx, r.q, psql.Insert("users").Columns(userColumns...).Values(
		u.ID, strings.ToLower(u.Email), u.PasswordHash, u.DisplayName, u.Role, permissions(u.Permissions),
		u.Status, u.CreatedAt, u.UpdatedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID obtiene un usuario por ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if !validIDs(id) {
		return nil, nil
	}
	return r.findOne(ctx, squirrel.Eq{"id": id})
}

// FindByEmail busca sin distinguir mayúsculas.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, squirrel.Eq{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (r *UserRepo) findOne(ctx context.Context, where squirrel.Eq) (*entity.User, error) {
	var row userRow
	found, err := getOne(ctx, r.q, &row, psql.Select(userColumns...).From("users").Where(where))
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !found {
		return nil, nil
	}
	return row.toEntity(), nil
}

// Update reescribe perfil, rol, permisos, estado y hash de contraseña.
func (r *UserRepo) Update(ctx context.Context, u *entity.User) error {
	n, err := exec(ctx, r.q, psql.Update("users").SetMap(map[string]any{
		"password_hash": u.PasswordHash,
		"display_name":  u.DisplayName,
		"role":          u.Role,
		"permissions":   permissions(u.Permissions),
		"status":        u.Status,
		"updated_at":    u.UpdatedAt,
	}).Where(squirrel.Eq{"id": u.ID}))
	if err != nil {
		return writeError("update user", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// List ordenado por email.
func (r *UserRepo) List(ctx context.Context) ([]*entity.User, error) {
	var rows []userRow
	if err := selectAll(ctx, r.q, &rows, psql.Select(userColumns...).From("users").OrderBy("email")); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]*entity.User, len(rows))
	for i, row := range rows {
		out[i] = row.toEntity()
	}
	return out, nil
}

func permissions(p map[string]bool) map[string]bool {
	if p == nil {
		return map[string]bool{}
	}
	return p
}
