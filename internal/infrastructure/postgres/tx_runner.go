package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/agro-inventario/internal/application/inventory"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// NewRepos construye el juego completo de repositorios sobre q (pool para lecturas, tx dentro de Run).
func NewRepos(q Querier) inventory.Repos {
	return inventory.Repos{
		Products:        NewProductRepository(q),
		Stock:           NewStockRepository(q),
		History:         NewStockHistoryRepository(q),
		Warehouses:      NewWarehouseRepository(q),
		Transfers:       NewTransferRepository(q),
		Purchases:       NewPurchaseRepository(q),
		PurchaseHistory: NewPurchaseHistoryRepository(q),
		Fumigations:     NewFumigationRepository(q),
		Fields:          NewFieldRepository(q),
	}
}

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(repos inventory.Repos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
