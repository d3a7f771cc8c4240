package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/application/inventory"
	"github.com/jhoicas/agro-inventario/internal/application/mapper"
	"github.com/jhoicas/agro-inventario/internal/application/ports"
	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
	"golang.org/x/crypto/bcrypt"
)

// UserUseCase aplica reglas de negocio para usuarios.
type UserUseCase struct {
	repo   repository.UserRepository
	events *inventory.Publisher
	now    func() time.Time
}

// NewUserUseCase construye el caso de uso con el puerto de persistencia.
func NewUserUseCase(repo repository.UserRepository, events *inventory.Publisher) *UserUseCase {
	return &UserUseCase{repo: repo, events: events, now: func() time.Time { return time.Now().UTC() }}
}

// List lista los usuarios.
func (uc *UserUseCase) List(ctx context.Context) ([]dto.UserResponse, error) {
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return mapper.ToUserResponses(list), nil
}

// GetByID obtiene un usuario por ID.
func (uc *UserUseCase) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapper.ToUserResponse(user), nil
}

// Create registra un usuario: rol por defecto user, permisos por defecto {dashboard: true}.
func (uc *UserUseCase) Create(ctx context.Context, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, domain.Invalid("email y contraseña son obligatorios")
	}
	existing, err := uc.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	role := in.Role
	if role == "" {
		role = entity.RoleUser
	}
	if err := validateRole(role); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	perms := in.Permissions
	if len(perms) == 0 {
		perms = entity.DefaultPermissions()
	}
	now := uc.now()
	user := &entity.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(in.DisplayName),
		Role:         role,
		Permissions:  perms,
		Status:       entity.UserActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	uc.events.Publish(ctx, inventory.Changes{{Table: ports.TableUsers, Action: ports.ActionInsert, ID: user.ID}})
	return mapper.ToUserResponse(user), nil
}

// EnsureAdmin crea el administrador inicial si el email no existe. Devuelve true si lo creó.
func (uc *UserUseCase) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	existing, err := uc.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	_, err = uc.Create(ctx, dto.CreateUserRequest{
		Email:       email,
		Password:    password,
		DisplayName: "Administrador",
		Role:        entity.RoleAdmin,
		Permissions: map[string]bool{entity.PermAdmin: true},
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Update modifica nombre, rol, estado y permisos (si vienen).
func (uc *UserUseCase) Update(ctx context.Context, id string, in dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*in.DisplayName)
	}
	if in.Role != nil {
		if err := validateRole(*in.Role); err != nil {
			return nil, err
		}
		user.Role = *in.Role
	}
	if in.Status != nil {
		if *in.Status != entity.UserActive && *in.Status != entity.UserInactive {
			return nil, domain.Invalid("estado de usuario inválido: %s", *in.Status)
		}
		user.Status = *in.Status
	}
	if in.Permissions != nil {
		user.Permissions = in.Permissions
	}
	return uc.save(ctx, user)
}

// UpdatePermissions reemplaza el mapa de permisos.
func (uc *UserUseCase) UpdatePermissions(ctx context.Context, id string, perms map[string]bool) (*dto.UserResponse, error) {
	if perms == nil {
		return nil, domain.Invalid("permisos obligatorios")
	}
	user, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Permissions = perms
	return uc.save(ctx, user)
}

func (uc *UserUseCase) get(ctx context.Context, id string) (*entity.User, error) {
	user, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (uc *UserUseCase) save(ctx context.Context, user *entity.User) (*dto.UserResponse, error) {
	user.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, user); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	uc.events.Publish(ctx, inventory.Changes{{Table: ports.TableUsers, Action: ports.ActionUpdate, ID: user.ID}})
	return mapper.ToUserResponse(user), nil
}

func validateRole(role string) error {
	if role != entity.RoleAdmin && role != entity.RoleUser {
		return domain.Invalid("rol inválido: %s", role)
	}
	return nil
}
