// Package transfer mueve líneas de producto entre almacenes con validación de suficiencia en origen.
package transfer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/application/inventory"
	"github.com/jhoicas/agro-inventario/internal/application/mapper"
	"github.com/jhoicas/agro-inventario/internal/application/ports"
	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
	"github.com/jhoicas/agro-inventario/pkg/logger"
)

// UseCase controlador de transferencias (pending -> completed | cancelled).
type UseCase struct {
	tx     inventory.TxRunner
	repos  inventory.Repos
	ledger *inventory.Ledger
	events *inventory.Publisher
	log    *logger.Logger
	now    func() time.Time
}

// NewUseCase construye el controlador.
func NewUseCase(tx inventory.TxRunner, repos inventory.Repos, ledger *inventory.Ledger, events *inventory.Publisher, log *logger.Logger) *UseCase {
	return &UseCase{
		tx:     tx,
		repos:  repos,
		ledger: ledger,
		events: events,
		log:    log.Named("transfer"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// List lista transferencias (más recientes primero).
func (uc *UseCase) List(ctx context.Context, status string, limit, offset int) ([]dto.TransferResponse, error) {
	list, err := uc.repos.Transfers.List(ctx, repository.TransferFilter{Status: status, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return mapper.ToTransferResponses(list), nil
}

// GetByID obtiene una transferencia.
func (uc *UseCase) GetByID(ctx context.Context, id string) (*dto.TransferResponse, error) {
	t, err := uc.repos.Transfers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	return mapper.ToTransferResponse(t), nil
}

func validateCreate(in dto.CreateTransferRequest) error {
	if strings.TrimSpace(in.SourceWarehouseID) == "" || strings.TrimSpace(in.TargetWarehouseID) == "" {
		return domain.Invalid("almacén origen y destino son obligatorios")
	}
	if in.SourceWarehouseID == in.TargetWarehouseID {
		return domain.Invalid("el almacén origen y destino deben ser distintos")
	}
	if len(in.Products) == 0 {
		return domain.Invalid("la transferencia necesita al menos un producto")
	}
	for i, it := range in.Products {
		if strings.TrimSpace(it.ProductID) == "" {
			return domain.Invalid("línea %d: producto obligatorio", i+1)
		}
		if !it.Quantity.IsPositive() {
			return domain.Invalid("línea %d: la cantidad debe ser mayor que cero", i+1)
		}
	}
	switch in.Status {
	case "", entity.TransferPending, entity.TransferCompleted:
	case entity.TransferCancelled:
		return domain.Invalid("una transferencia se crea como pending o completed")
	default:
		return domain.Invalid("estado desconocido: %s", in.Status)
	}
	return nil
}

// Create valida suficiencia en origen para cada línea antes de escribir nada y guarda la
// transferencia. Si llega con status=completed, ejecuta el movimiento en la misma transacción.
func (uc *UseCase) Create(ctx context.Context, userID string, in dto.CreateTransferRequest) (*dto.TransferResponse, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = entity.TransferPending
	}
	now := uc.now()
	items := make([]entity.TransferItem, 0, len(in.Products))
	for _, it := range in.Products {
		items = append(items, entity.TransferItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	t := &entity.Transfer{
		ID:                uuid.New().String(),
		SourceWarehouseID: in.SourceWarehouseID,
		TargetWarehouseID: in.TargetWarehouseID,
		Items:             items,
		Status:            entity.TransferPending,
		Notes:             in.Notes,
		CreatedBy:         userID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	var changes inventory.Changes
	err := uc.tx.Run(ctx, func(r inventory.Repos) error {
		if err := uc.ensureWarehouses(ctx, r, t); err != nil {
			return err
		}
		if err := uc.checkSufficiency(ctx, r, t); err != nil {
			return err
		}
		if err := r.Transfers.Create(ctx, t); err != nil {
			return err
		}
		changes.Add(ports.TableTransfers, ports.ActionInsert, t.ID)
		if status == entity.TransferCompleted {
			return uc.complete(ctx, r, t, userID, &changes)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.events.Publish(ctx, changes)
	uc.log.Info().Str("transfer_id", t.ID).Str("status", t.Status).Int("lines", len(t.Items)).Msg("transferencia creada")
	return mapper.ToTransferResponse(t), nil
}

// UpdateStatus aplica el cambio de estado. Mismo estado: no-op. Desde un estado terminal:
// InvalidTransitionError. A completed revalida suficiencia y mueve stock; a cancelled solo
// registra historial.
func (uc *UseCase) UpdateStatus(ctx context.Context, userID, id, newStatus string) (*dto.TransferResponse, error) {
	if !entity.ValidTransferStatus(newStatus) {
		return nil, domain.Invalid("estado desconocido: %s", newStatus)
	}
	var (
		result  *entity.Transfer
		changes inventory.Changes
	)
	err := uc.tx.Run(ctx, func(r inventory.Repos) error {
		t, err := r.Transfers.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.ErrNotFound
		}
		result = t
		if t.Status == newStatus {
			return nil
		}
		if t.IsTerminal() || newStatus == entity.TransferPending {
			return &domain.InvalidTransitionError{Entity: "transferencia", From: t.Status, To: newStatus}
		}
		switch newStatus {
		case entity.TransferCompleted:
			if err := uc.checkSufficiency(ctx, r, t); err != nil {
				return err
			}
			return uc.complete(ctx, r, t, userID, &changes)
		case entity.TransferCancelled:
			return uc.cancel(ctx, r, t, userID, &changes)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.events.Publish(ctx, changes)
	return mapper.ToTransferResponse(result), nil
}

func (uc *UseCase) ensureWarehouses(ctx context.Context, r inventory.Repos, t *entity.Transfer) error {
	for _, id := range []string{t.SourceWarehouseID, t.TargetWarehouseID} {
		w, err := r.Warehouses.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if w == nil {
			return fmt.Errorf("%w: almacén %s", domain.ErrNotFound, id)
		}
	}
	return nil
}

// checkSufficiency suma las cantidades por producto (una transferencia puede repetir
// producto en varias líneas) y compara contra la celda de origen.
func (uc *UseCase) checkSufficiency(ctx context.Context, r inventory.Repos, t *entity.Transfer) error {
	requested := map[string]entity.TransferItem{}
	order := []string{}
	for _, it := range t.Items {
		acc, ok := requested[it.ProductID]
		if !ok {
			order = append(order, it.ProductID)
			acc = entity.TransferItem{ProductID: it.ProductID, Quantity: it.Quantity}
		} else {
			acc.Quantity = acc.Quantity.Add(it.Quantity)
		}
		requested[it.ProductID] = acc
	}
	for _, productID := range order {
		p, err := r.Products.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
		}
		if err := uc.ledger.EnsureAvailable(ctx, r, productID, p.Name, t.SourceWarehouseID, requested[productID].Quantity); err != nil {
			return err
		}
	}
	return nil
}

// complete mueve cada línea: -q en origen y +q en destino. Las dos entradas del libro
// quedan tipadas transfer_completed con origen, destino y transferId.
func (uc *UseCase) complete(ctx context.Context, r inventory.Repos, t *entity.Transfer, userID string, changes *inventory.Changes) error {
	for _, it := range t.Items {
		meta := inventory.HistoryMeta{
			Type:              entity.HistoryTransferCompleted,
			SourceWarehouseID: t.SourceWarehouseID,
			TargetWarehouseID: t.TargetWarehouseID,
			TransferID:        t.ID,
			UserID:            userID,
			Notes:             t.Notes,
		}
		if _, err := uc.ledger.ApplyDelta(ctx, r, it.ProductID, t.SourceWarehouseID, it.Quantity.Neg(), meta); err != nil {
			return err
		}
		if _, err := uc.ledger.ApplyDelta(ctx, r, it.ProductID, t.TargetWarehouseID, it.Quantity, meta); err != nil {
			return err
		}
		changes.AddStock(it.ProductID)
	}
	now := uc.now()
	t.Status = entity.TransferCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
	changes.Add(ports.TableTransfers, ports.ActionUpdate, t.ID)
	return r.Transfers.Update(ctx, t)
}

// cancel registra una entrada transfer_cancelled por línea sin mover stock.
func (uc *UseCase) cancel(ctx context.Context, r inventory.Repos, t *entity.Transfer, userID string, changes *inventory.Changes) error {
	now := uc.now()
	for _, it := range t.Items {
		total, err := r.Stock.SumByProduct(ctx, it.ProductID)
		if err != nil {
			return err
		}
		if err := r.History.Append(ctx, &entity.StockHistoryEntry{
			ID:                uuid.New().String(),
			ProductID:         it.ProductID,
			Type:              entity.HistoryTransferCancelled,
			PreviousQuantity:  total,
			NewQuantity:       total,
			Quantity:          it.Quantity,
			SourceWarehouseID: t.SourceWarehouseID,
			TargetWarehouseID: t.TargetWarehouseID,
			TransferID:        t.ID,
			UserID:            userID,
			Notes:             t.Notes,
			Timestamp:         now,
		}); err != nil {
			return err
		}
		changes.Add(ports.TableStockHistory, ports.ActionInsert, it.ProductID)
	}
	t.Status = entity.TransferCancelled
	t.UpdatedAt = now
	changes.Add(ports.TableTransfers, ports.ActionUpdate, t.ID)
	return r.Transfers.Update(ctx, t)
}
