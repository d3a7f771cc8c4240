package repository

import (
	"context"

	"github.com/jhoicas/agro-inventario/internal/domain/entity"
)

// StockHistoryRepository historial append-only: no hay Update ni Delete.
type StockHistoryRepository interface {
	Append(ctx context.Context, entry *entity.StockHistoryEntry) error
	List(ctx context.Context, filter HistoryFilter) ([]*entity.StockHistoryEntry, error)
}
