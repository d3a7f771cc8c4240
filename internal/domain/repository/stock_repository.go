package repository

import (
	"context"

	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// StockRepository define el puerto para las celdas de stock (producto+almacén).
// Get y GetForUpdate devuelven nil, nil si la celda no existe.
type StockRepository interface {
	Get(ctx context.Context, productID, warehouseID string) (*entity.StockCell, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.StockCell, error)
	Insert(ctx context.Context, cell *entity.StockCell) error
	Update(ctx context.Context, cell *entity.StockCell) error
	Delete(ctx context.Context, productID, warehouseID string) error
	DeleteByProduct(ctx context.Context, productID string) error
	DeleteByWarehouse(ctx context.Context, warehouseID string) error
	SumByProduct(ctx context.Context, productID string) (decimal.Decimal, error)
	ListByProduct(ctx context.Context, productID string) ([]entity.StockCell, error)
	ListByWarehouse(ctx context.Context, warehouseID string) ([]entity.StockCell, error)
	CountPositiveByWarehouse(ctx context.Context, warehouseID string) (int, error)
}
