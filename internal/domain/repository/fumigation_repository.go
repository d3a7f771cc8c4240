package repository

import (
	"context"

	"github.com/jhoicas/agro-inventario/internal/domain/entity"
)

// FumigationRepository define el puerto de persistencia para Fumigation y sus líneas.
type FumigationRepository interface {
	Create(ctx context.Context, fumigation *entity.Fumigation) error
	GetByID(ctx context.Context, id string) (*entity.Fumigation, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Fumigation, error)
	// Update reescribe la cabecera y reemplaza las líneas.
	Update(ctx context.Context, fumigation *entity.Fumigation) error
	List(ctx context.Context, filter FumigationFilter) ([]*entity.Fumigation, error)
	Delete(ctx context.Context, id string) error
	// NextOrderNumber reserva max(order_number)+1 (o 1) de forma atómica dentro de la tx.
	NextOrderNumber(ctx context.Context) (int, error)
}
