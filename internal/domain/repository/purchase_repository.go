package repository

import (
	"context"

	"github.com/jhoicas/agro-inventario/internal/domain/entity"
)

// PurchaseRepository define el puerto de persistencia para Purchase.
type PurchaseRepository interface {
	Create(ctx context.Context, purchase *entity.Purchase) error
	GetByID(ctx context.Context, id string) (*entity.Purchase, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Purchase, error)
	Update(ctx context.Context, purchase *entity.Purchase) error
	List(ctx context.Context, filter PurchaseFilter) ([]*entity.Purchase, error)
}

// PurchaseHistoryRepository log de compras (create / receive).
type PurchaseHistoryRepository interface {
	Append(ctx context.Context, entry *entity.PurchaseHistoryEntry) error
	ListByPurchase(ctx context.Context, purchaseID string) ([]*entity.PurchaseHistoryEntry, error)
}
