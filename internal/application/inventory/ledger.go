package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// HistoryMeta datos de correlación que acompañan a un movimiento del libro de stock.
type HistoryMeta struct {
	Type              string
	SourceWarehouseID string
	TargetWarehouseID string
	TransferID        string
	PurchaseID        string
	FumigationID      string
	UserID            string
	Notes             string
}

// Ledger libro de stock: aplica deltas a una celda (producto, almacén), recalcula el
// total del producto y deja una entrada de historial. Siempre opera con los repositorios
// de la transacción del llamador.
type Ledger struct {
	now func() time.Time
}

// NewLedger construye el libro de stock.
func NewLedger() *Ledger {
	return &Ledger{now: func() time.Time { return time.Now().UTC() }}
}

// ApplyDelta suma delta (positivo o negativo) a la celda. El resultado nunca baja de cero:
// newValue = max(0, actual + delta). No valida suficiencia; eso es responsabilidad del llamador
// (ver EnsureAvailable). Previous/New del historial son totales del producto.
func (l *Ledger) ApplyDelta(
	ctx context.Context,
	repos Repos,
	productID, warehouseID string,
	delta decimal.Decimal,
	meta HistoryMeta,
) (*entity.StockHistoryEntry, error) {
	product, err := repos.Products.GetForUpdate(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
	}
	warehouse, err := repos.Warehouses.GetByID(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, fmt.Errorf("%w: almacén %s", domain.ErrNotFound, warehouseID)
	}

	previousTotal, err := repos.Stock.SumByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	now := l.now()
	cell, err := repos.Stock.GetForUpdate(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	current := decimal.Zero
	if cell != nil {
		current = cell.Quantity
	}
	newValue := current.Add(delta)
	if newValue.IsNegative() {
		newValue = decimal.Zero
	}

	switch {
	case cell == nil && newValue.IsPositive():
		if err := repos.Stock.Insert(ctx, &entity.StockCell{
			ProductID:   productID,
			WarehouseID: warehouseID,
			Quantity:    newValue,
			UpdatedAt:   now,
		}); err != nil {
			return nil, err
		}
	case cell != nil:
		cell.Quantity = newValue
		cell.UpdatedAt = now
		if err := repos.Stock.Update(ctx, cell); err != nil {
			return nil, err
		}
	}

	newTotal, err := repos.Stock.SumByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := repos.Products.UpdateQuantity(ctx, productID, newTotal); err != nil {
		return nil, err
	}

	entry := &entity.StockHistoryEntry{
		ID:                uuid.New().String(),
		ProductID:         productID,
		Type:              meta.Type,
		PreviousQuantity:  previousTotal,
		NewQuantity:       newTotal,
		Quantity:          newValue.Sub(current),
		WarehouseID:       warehouseID,
		SourceWarehouseID: meta.SourceWarehouseID,
		TargetWarehouseID: meta.TargetWarehouseID,
		TransferID:        meta.TransferID,
		PurchaseID:        meta.PurchaseID,
		FumigationID:      meta.FumigationID,
		UserID:            meta.UserID,
		Notes:             meta.Notes,
		Timestamp:         now,
	}
	if err := repos.History.Append(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// EnsureAvailable lee la celda (con bloqueo) y falla con InsufficientStockError si
// requested supera lo disponible. productName solo se usa en el mensaje.
func (l *Ledger) EnsureAvailable(
	ctx context.Context,
	repos Repos,
	productID, productName, warehouseID string,
	requested decimal.Decimal,
) error {
	cell, err := repos.Stock.GetForUpdate(ctx, productID, warehouseID)
	if err != nil {
		return err
	}
	available := decimal.Zero
	if cell != nil {
		available = cell.Quantity
	}
	if requested.GreaterThan(available) {
		return &domain.InsufficientStockError{
			ProductID:   productID,
			ProductName: productName,
			WarehouseID: warehouseID,
			Available:   available,
			Requested:   requested,
		}
	}
	return nil
}
