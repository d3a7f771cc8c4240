package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
)

type historyRepo struct{ x session }

var _ repository.StockHistoryRepository = (*historyRepo)(nil)

func (r *historyRepo) Append(_ context.Context, e *entity.StockHistoryEntry) error {
	defer r.x.guard()()
	st := r.x.state()
	st.history = append(st.history, *e)
	return nil
}

func (r *historyRepo) List(_ context.Context, f repository.HistoryFilter) ([]*entity.StockHistoryEntry, error) {
	defer r.x.guard()()
	st := r.x.state()
	out := make([]*entity.StockHistoryEntry, 0)
	// Recorrido inverso: a igual timestamp, la última escrita primero.
	for i := len(st.history) - 1; i >= 0; i-- {
		e := st.history[i]
		if f.ProductID != "" && e.ProductID != f.ProductID {
			continue
		}
		if f.WarehouseID != "" && e.WarehouseID != f.WarehouseID &&
			e.SourceWarehouseID != f.WarehouseID && e.TargetWarehouseID != f.WarehouseID {
			continue
		}
		if f.Type != "" && e.Type != f.Type {
			continue
		}
		if f.From != nil && e.Timestamp.Before(*f.From) {
			continue
		}
		if f.To != nil && e.Timestamp.After(*f.To) {
			continue
		}
		entry := e
		out = append(out, &entry)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return page(out, f.Limit, f.Offset), nil
}

type purchaseHistoryRepo struct{ x session }

var _ repository.PurchaseHistoryRepository = (*purchaseHistoryRepo)(nil)

func (r *purchaseHistoryRepo) Append(_ context.Context, e *entity.PurchaseHistoryEntry) error {
	defer r.x.guard()()
	st := r.x.state()
	st.purchaseHistory = append(st.purchaseHistory, clonePurchaseHistory(*e))
	return nil
}

func (r *purchaseHistoryRepo) ListByPurchase(_ context.Context, purchaseID string) ([]*entity.PurchaseHistoryEntry, error) {
	defer r.x.guard()()
	out := make([]*entity.PurchaseHistoryEntry, 0)
	for _, e := range r.x.state().purchaseHistory {
		if e.PurchaseID == purchaseID {
			entry := clonePurchaseHistory(e)
			out = append(out, &entry)
		}
	}
	return out, nil
}
