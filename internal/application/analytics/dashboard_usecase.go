// Package analytics arma el resumen del dashboard: alertas de stock, pendientes y actividad reciente.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/application/inventory"
	"github.com/jhoicas/agro-inventario/internal/application/mapper"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
)

const (
	dashboardTopItems    = 5  // elementos por widget
	recentActivityLimit  = 10 // actividades recientes
	expiringWindowInDays = 30
)

// Tipos de actividad reciente.
const (
	ActivityTransfer   = "transfer"
	ActivityPurchase   = "purchase"
	ActivityFumigation = "fumigation"
)

// DashboardUseCase genera el resumen del dashboard.
// Fuente de datos: repositorios de solo lectura; no abre transacciones.
type DashboardUseCase struct {
	repos inventory.Repos
	now   func() time.Time
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(repos inventory.Repos) *DashboardUseCase {
	return &DashboardUseCase{repos: repos, now: func() time.Time { return time.Now().UTC() }}
}

type result[T any] struct {
	val T
	err error
}

// async ejecuta fn en una goroutine y entrega el resultado por un canal con buffer.
func async[T any](fn func() (T, error)) <-chan result[T] {
	ch := make(chan result[T], 1)
	go func() {
		v, err := fn()
		ch <- result[T]{v, err}
	}()
	return ch
}

// GetSummary construye el DashboardSummaryDTO.
//
// Seis consultas en paralelo:
//  1. productos (stock bajo + vencimientos próximos + contador)
//  2. almacenes (contador)
//  3. transferencias pendientes
//  4. compras pending/partial
//  5. fumigaciones en curso
//  6. actividad reciente de transferencias, compras y fumigaciones
func (uc *DashboardUseCase) GetSummary(ctx context.Context) (*dto.DashboardSummaryDTO, error) {
	now := uc.now()

	productsCh := async(func() ([]*entity.Product, error) {
		return uc.repos.Products.List(ctx, repository.ProductFilter{})
	})
	warehousesCh := async(func() ([]*entity.Warehouse, error) {
		return uc.repos.Warehouses.List(ctx, repository.WarehouseFilter{})
	})
	transfersCh := async(func() ([]*entity.Transfer, error) {
		return uc.repos.Transfers.List(ctx, repository.TransferFilter{Status: entity.TransferPending})
	})
	purchasesCh := async(func() ([]*entity.Purchase, error) {
		return uc.repos.Purchases.List(ctx, repository.PurchaseFilter{
			Statuses: []string{entity.PurchasePending, entity.PurchasePartial},
		})
	})
	activeCh := async(func() ([]*entity.Fumigation, error) {
		return uc.repos.Fumigations.List(ctx, repository.FumigationFilter{Status: entity.FumigationInProgress})
	})
	activityCh := async(func() ([]dto.ActivityDTO, error) {
		return uc.recentActivities(ctx)
	})

	products := <-productsCh
	warehouses := <-warehousesCh
	transfers := <-transfersCh
	purchases := <-purchasesCh
	active := <-activeCh
	activity := <-activityCh

	if products.err != nil {
		return nil, fmt.Errorf("dashboard: productos: %w", products.err)
	}
	if warehouses.err != nil {
		return nil, fmt.Errorf("dashboard: almacenes: %w", warehouses.err)
	}
	if transfers.err != nil {
		return nil, fmt.Errorf("dashboard: transferencias: %w", transfers.err)
	}
	if purchases.err != nil {
		return nil, fmt.Errorf("dashboard: compras: %w", purchases.err)
	}
	if active.err != nil {
		return nil, fmt.Errorf("dashboard: fumigaciones en curso: %w", active.err)
	}
	if activity.err != nil {
		return nil, fmt.Errorf("dashboard: actividad reciente: %w", activity.err)
	}

	// ── Alertas de productos ──────────────────────────────────────────────────
	var lowStock, expiring []dto.ProductAlertDTO
	window := expiringWindowInDays * 24 * time.Hour
	for _, p := range products.val {
		if p.IsLowStock() {
			lowStock = append(lowStock, toAlert(p))
		}
		if p.ExpiresWithin(now, window) {
			expiring = append(expiring, toAlert(p))
		}
	}
	sort.SliceStable(expiring, func(i, j int) bool {
		return expiring[i].ExpiryDate.Seconds < expiring[j].ExpiryDate.Seconds
	})

	return &dto.DashboardSummaryDTO{
		LowStock:         top(lowStock, dashboardTopItems),
		ExpiringSoon:     top(expiring, dashboardTopItems),
		PendingTransfers: top(mapper.ToTransferResponses(transfers.val), dashboardTopItems),
		PendingPurchases: top(mapper.ToPurchaseResponses(purchases.val), dashboardTopItems),
		RecentActivities: activity.val,
		Counters: dto.DashboardCounters{
			Products:          len(products.val),
			Warehouses:        len(warehouses.val),
			LowStock:          len(lowStock),
			ExpiringSoon:      len(expiring),
			PendingTransfers:  len(transfers.val),
			PendingPurchases:  len(purchases.val),
			ActiveFumigations: len(active.val),
		},
	}, nil
}

// recentActivities mezcla las últimas transferencias, compras y fumigaciones por fecha de alta.
func (uc *DashboardUseCase) recentActivities(ctx context.Context) ([]dto.ActivityDTO, error) {
	type dated struct {
		at  time.Time
		act dto.ActivityDTO
	}
	var all []dated

	transfers, err := uc.repos.Transfers.List(ctx, repository.TransferFilter{Limit: recentActivityLimit})
	if err != nil {
		return nil, err
	}
	for _, t := range transfers {
		all = append(all, dated{t.CreatedAt, dto.ActivityDTO{
			Type:        ActivityTransfer,
			ID:          t.ID,
			Date:        mapper.ToTimestamp(t.CreatedAt),
			Description: fmt.Sprintf("Transferencia de %d producto(s)", len(t.Items)),
			Status:      t.Status,
		}})
	}

	purchases, err := uc.repos.Purchases.List(ctx, repository.PurchaseFilter{Limit: recentActivityLimit})
	if err != nil {
		return nil, err
	}
	for _, p := range purchases {
		all = append(all, dated{p.CreatedAt, dto.ActivityDTO{
			Type:        ActivityPurchase,
			ID:          p.ID,
			Date:        mapper.ToTimestamp(p.CreatedAt),
			Description: fmt.Sprintf("Compra a %s", p.Supplier),
			Status:      p.Status,
		}})
	}

	fumigations, err := uc.repos.Fumigations.List(ctx, repository.FumigationFilter{Limit: recentActivityLimit})
	if err != nil {
		return nil, err
	}
	for _, f := range fumigations {
		all = append(all, dated{f.CreatedAt, dto.ActivityDTO{
			Type:        ActivityFumigation,
			ID:          f.ID,
			Date:        mapper.ToTimestamp(f.CreatedAt),
			Description: fmt.Sprintf("Orden de aplicación N° %d - %s (%s)", f.OrderNumber, f.Crop, f.Lot),
			Status:      f.Status,
		}})
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].at.After(all[j].at) })
	out := make([]dto.ActivityDTO, 0, recentActivityLimit)
	for i := 0; i < len(all) && i < recentActivityLimit; i++ {
		out = append(out, all[i].act)
	}
	return out, nil
}

func toAlert(p *entity.Product) dto.ProductAlertDTO {
	return dto.ProductAlertDTO{
		ID:            p.ID,
		Name:          p.Name,
		Category:      p.Category,
		Quantity:      p.Quantity,
		MinStock:      p.MinStock,
		UnitOfMeasure: p.UnitOfMeasure,
		ExpiryDate:    mapper.ToTimestampPtr(p.ExpiryDate),
	}
}

func top[T any](list []T, n int) []T {
	if len(list) > n {
		list = list[:n]
	}
	if list == nil {
		return []T{}
	}
	return list
}
