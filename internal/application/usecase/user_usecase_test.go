package usecase_test

import (
	"context"
	"testing"

	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/application/inventory"
	"github.com/jhoicas/agro-inventario/internal/application/usecase"
	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/memory"
	"github.com/jhoicas/agro-inventario/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUser_CreateDefaultsAndUniqueEmail(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	uc := usecase.NewUserUseCase(store.Users(), inventory.NewPublisher(nil, logger.Nop()))

	u, err := uc.Create(ctx, dto.CreateUserRequest{Email: "Ana@Campo.com", Password: "secreto123"})
	require.NoError(t, err)
	assert.Equal(t, "ana@campo.com", u.Email)
	assert.Equal(t, entity.RoleUser, u.Role)
	assert.Equal(t, map[string]bool{entity.PermDashboard: true}, u.Permissions)

	stored, err := store.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secreto123")))

	_, err = uc.Create(ctx, dto.CreateUserRequest{Email: "ana@campo.com", Password: "otro12345"})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	_, err = uc.Create(ctx, dto.CreateUserRequest{Email: "x@y.z", Password: "otro12345", Role: "root"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUser_UpdateAndPermissions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	uc := usecase.NewUserUseCase(store.Users(), inventory.NewPublisher(nil, logger.Nop()))

	u, err := uc.Create(ctx, dto.CreateUserRequest{Email: "luis@campo.com", Password: "secreto123"})
	require.NoError(t, err)

	admin := entity.RoleAdmin
	name := "Luis"
	u, err = uc.Update(ctx, u.ID, dto.UpdateUserRequest{Role: &admin, DisplayName: &name})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, u.Role)
	assert.Equal(t, "Luis", u.DisplayName)

	u, err = uc.UpdatePermissions(ctx, u.ID, map[string]bool{entity.PermFumigations: true})
	require.NoError(t, err)
	assert.True(t, u.Permissions[entity.PermFumigations])
	assert.False(t, u.Permissions[entity.PermDashboard])

	_, err = uc.GetByID(ctx, "nadie")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	list, err := uc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUser_EnsureAdminIdempotente(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	uc := usecase.NewUserUseCase(store.Users(), inventory.NewPublisher(nil, logger.Nop()))

	created, err := uc.EnsureAdmin(ctx, "Admin@Campo.com", "clave-inicial")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = uc.EnsureAdmin(ctx, "admin@campo.com", "otra-clave")
	require.NoError(t, err)
	assert.False(t, created)

	list, err := uc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entity.RoleAdmin, list[0].Role)
	assert.True(t, entity.HasPermission(list[0].Role, list[0].Permissions, entity.PermReports))
}
