package inventory

import (
	"context"

	"github.com/jhoicas/agro-inventario/internal/domain/repository"
)

// Repos agrupa los repositorios atados a una misma transacción.
type Repos struct {
	Products        repository.ProductRepository
	Stock           repository.StockRepository
	History         repository.StockHistoryRepository
	Warehouses      repository.WarehouseRepository
	Transfers       repository.TransferRepository
	Purchases       repository.PurchaseRepository
	PurchaseHistory repository.PurchaseHistoryRepository
	Fumigations     repository.FumigationRepository
	Fields          repository.FieldRepository
}

// TxRunner ejecuta fn dentro de una transacción de BD pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback; ninguna escritura parcial queda confirmada.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos Repos) error) error
}
