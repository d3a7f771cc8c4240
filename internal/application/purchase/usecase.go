// Package purchase registra compras a proveedor y su recepción incremental en almacén.
package purchase

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
	"github.com/shopspring/decimal"
)

// Nombre por defecto de un producto creado desde una recepción sin metadatos.
const defaultReceivedProductName = "Producto sin nombre"

// UseCase controlador de compras.
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
		log:    log.Named("purchase"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ListQuery filtros del listado de compras.
type ListQuery struct {
	Statuses []string
	Supplier string
	Limit    int
	Offset   int
}

// List lista compras.
func (uc *UseCase) List(ctx context.Context, q ListQuery) ([]dto.PurchaseResponse, error) {
	list, err := uc.repos.Purchases.List(ctx, repository.PurchaseFilter{
		Statuses: q.Statuses,
		Supplier: q.Supplier,
		Limit:    q.Limit,
		Offset:   q.Offset,
	})
	if err != nil {
		return nil, err
	}
	return mapper.ToPurchaseResponses(list), nil
}

// GetByID obtiene una compra.
func (uc *UseCase) GetByID(ctx context.Context, id string) (*dto.PurchaseResponse, error) {
	p, err := uc.repos.Purchases.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return mapper.ToPurchaseResponse(p), nil
}

// History log de la compra (create / receive).
func (uc *UseCase) History(ctx context.Context, id string) ([]dto.PurchaseHistoryResponse, error) {
	p, err := uc.repos.Purchases.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	list, err := uc.repos.PurchaseHistory.ListByPurchase(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapper.ToPurchaseHistoryResponses(list), nil
}

// Create registra la compra: totalCost = Σ(quantity × unitPrice) + shippingCost, líneas en
// pending con received 0, y una entrada "create" en el log de compras.
func (uc *UseCase) Create(ctx context.Context, userID string, in dto.CreatePurchaseRequest) (*dto.PurchaseResponse, error) {
	if len(in.Products) == 0 {
		return nil, domain.Invalid("la compra necesita al menos un producto")
	}
	if strings.TrimSpace(in.Invoice) == "" {
		return nil, domain.Invalid("el número de factura es obligatorio")
	}
	if in.ShippingCost.IsNegative() {
		return nil, domain.Invalid("el costo de envío no puede ser negativo")
	}
	seen := map[string]bool{}
	items := make([]entity.PurchaseItem, 0, len(in.Products))
	total := in.ShippingCost
	for i, it := range in.Products {
		productID := strings.TrimSpace(it.ProductID)
		if productID == "" {
			return nil, domain.Invalid("línea %d: producto obligatorio", i+1)
		}
		if seen[productID] {
			return nil, domain.Invalid("línea %d: producto %s repetido", i+1, productID)
		}
		seen[productID] = true
		if !it.Quantity.IsPositive() {
			return nil, domain.Invalid("línea %d: la cantidad debe ser mayor que cero", i+1)
		}
		if it.UnitPrice.IsNegative() {
			return nil, domain.Invalid("línea %d: el precio unitario no puede ser negativo", i+1)
		}
		total = total.Add(it.Quantity.Mul(it.UnitPrice))
		items = append(items, entity.PurchaseItem{
			ProductID:     productID,
			Name:          strings.TrimSpace(it.Name),
			Category:      strings.TrimSpace(it.Category),
			UnitOfMeasure: strings.TrimSpace(it.UnitOfMeasure),
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			Received:      decimal.Zero,
			Status:        entity.PurchasePending,
		})
	}

	now := uc.now()
	p := &entity.Purchase{
		ID:           uuid.New().String(),
		Supplier:     strings.TrimSpace(in.Supplier),
		Items:        items,
		Invoice:      strings.TrimSpace(in.Invoice),
		ShippingCost: in.ShippingCost,
		TotalCost:    total,
		Status:       entity.PurchasePending,
		Notes:        in.Notes,
		CreatedBy:    userID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := uc.tx.Run(ctx, func(r inventory.Repos) error {
		if err := r.Purchases.Create(ctx, p); err != nil {
			return err
		}
		return r.PurchaseHistory.Append(ctx, &entity.PurchaseHistoryEntry{
			ID:         uuid.New().String(),
			PurchaseID: p.ID,
			Type:       entity.PurchaseHistoryCreate,
			Status:     p.Status,
			Notes:      fmt.Sprintf("Compra registrada (factura %s)", p.Invoice),
			UserID:     userID,
			Timestamp:  now,
		})
	})
	if err != nil {
		return nil, err
	}
	uc.events.Publish(ctx, inventory.Changes{{Table: ports.TablePurchases, Action: ports.ActionInsert, ID: p.ID}})
	return mapper.ToPurchaseResponse(p), nil
}

// Receive aplica una recepción. Todas las líneas se validan (producto de la compra, no exceder
// lo pendiente) antes de mover stock; cualquier error revierte la recepción completa.
func (uc *UseCase) Receive(ctx context.Context, userID, purchaseID string, in dto.ReceivePurchaseRequest) (*dto.PurchaseResponse, error) {
	if strings.TrimSpace(in.WarehouseID) == "" {
		return nil, domain.Invalid("el almacén de recepción es obligatorio")
	}
	if len(in.Products) == 0 {
		return nil, domain.Invalid("la recepción necesita al menos un producto")
	}
	for i, l := range in.Products {
		if strings.TrimSpace(l.ProductID) == "" {
			return nil, domain.Invalid("línea %d: producto obligatorio", i+1)
		}
		if !l.Quantity.IsPositive() {
			return nil, domain.Invalid("línea %d: la cantidad debe ser mayor que cero", i+1)
		}
	}

	var (
		result  *entity.Purchase
		changes inventory.Changes
	)
	err := uc.tx.Run(ctx, func(r inventory.Repos) error {
		p, err := r.Purchases.GetForUpdate(ctx, purchaseID)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrNotFound
		}
		wh, err := r.Warehouses.GetByID(ctx, in.WarehouseID)
		if err != nil {
			return err
		}
		if wh == nil {
			return fmt.Errorf("%w: almacén %s", domain.ErrNotFound, in.WarehouseID)
		}

		now := uc.now()
		received := make([]entity.ReceivedLine, 0, len(in.Products))
		for _, l := range in.Products {
			idx := itemIndex(p.Items, l.ProductID)
			if idx < 0 {
				return fmt.Errorf("%w: el producto %s no forma parte de la compra", domain.ErrNotFound, l.ProductID)
			}
			item := &p.Items[idx]
			pending := item.Pending()
			if l.Quantity.GreaterThan(pending) {
				return fmt.Errorf("%w: producto %s, pendiente %s, recibido %s",
					domain.ErrOverReceipt, l.ProductID, pending.String(), l.Quantity.String())
			}
			item.Received = item.Received.Add(l.Quantity)
			if item.Received.Equal(item.Quantity) {
				item.Status = entity.PurchaseCompleted
			} else {
				item.Status = entity.PurchasePartial
			}

			if err := uc.ensureProduct(ctx, r, *item, l, now, &changes); err != nil {
				return err
			}
			if _, err := uc.ledger.ApplyDelta(ctx, r, l.ProductID, in.WarehouseID, l.Quantity, inventory.HistoryMeta{
				Type:       entity.HistoryPurchaseReceive,
				PurchaseID: p.ID,
				UserID:     userID,
				Notes:      in.Notes,
			}); err != nil {
				return err
			}
			changes.AddStock(l.ProductID)
			received = append(received, entity.ReceivedLine{ProductID: l.ProductID, Quantity: l.Quantity})
		}

		p.Status = overallStatus(p.Items)
		if p.Status == entity.PurchaseCompleted && p.CompletedAt == nil {
			p.CompletedAt = &now
		}
		p.UpdatedAt = now
		if err := r.Purchases.Update(ctx, p); err != nil {
			return err
		}
		changes.Add(ports.TablePurchases, ports.ActionUpdate, p.ID)
		result = p
		return r.PurchaseHistory.Append(ctx, &entity.PurchaseHistoryEntry{
			ID:          uuid.New().String(),
			PurchaseID:  p.ID,
			Type:        entity.PurchaseHistoryReceive,
			WarehouseID: in.WarehouseID,
			Lines:       received,
			Status:      p.Status,
			Notes:       in.Notes,
			UserID:      userID,
			Timestamp:   now,
		})
	})
	if err != nil {
		return nil, err
	}
	uc.events.Publish(ctx, changes)
	uc.log.Info().Str("purchase_id", purchaseID).Str("status", result.Status).Msg("recepción registrada")
	return mapper.ToPurchaseResponse(result), nil
}

// ensureProduct crea el producto si aún no existe en el catálogo, con los datos de la
// recepción o de la línea de compra.
func (uc *UseCase) ensureProduct(
	ctx context.Context,
	r inventory.Repos,
	item entity.PurchaseItem,
	line dto.ReceiveLineRequest,
	now time.Time,
	changes *inventory.Changes,
) error {
	existing, err := r.Products.GetForUpdate(ctx, line.ProductID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	product := &entity.Product{
		ID:            line.ProductID,
		Name:          firstNonEmpty(line.Name, item.Name, defaultReceivedProductName),
		Category:      firstNonEmpty(line.Category, item.Category, entity.DefaultCategory),
		Quantity:      decimal.Zero,
		MinStock:      decimal.Zero,
		UnitOfMeasure: firstNonEmpty(line.UnitOfMeasure, item.UnitOfMeasure, entity.DefaultUnitOfMeasure),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := r.Products.Create(ctx, product); err != nil {
		return err
	}
	changes.Add(ports.TableProducts, ports.ActionInsert, product.ID)
	uc.log.Info().Str("product_id", product.ID).Msg("producto creado desde recepción de compra")
	return nil
}

func itemIndex(items []entity.PurchaseItem, productID string) int {
	for i := range items {
		if items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// overallStatus: completed si todas las líneas lo están, si no partial.
func overallStatus(items []entity.PurchaseItem) string {
	for _, it := range items {
		if it.Status != entity.PurchaseCompleted {
			return entity.PurchasePartial
		}
	}
	return entity.PurchaseCompleted
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
