package repository

import (
	"context"

	"github.com/jhoicas/agro-inventario/internal/domain/entity"
)

// FieldRepository define el puerto de persistencia para Field (los lotes viajan embebidos).
type FieldRepository interface {
	Create(ctx context.Context, field *entity.Field) error
	GetByID(ctx context.Context, id string) (*entity.Field, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Field, error)
	Update(ctx context.Context, field *entity.Field) error
	List(ctx context.Context) ([]*entity.Field, error)
	Delete(ctx context.Context, id string) error
}
