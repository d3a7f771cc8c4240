package inventory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/application/mapper"
	"github.com/jhoicas/agro-inventario/internal/application/ports"
	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// ProductUseCase catálogo de productos. Toda escritura que toca stock pasa por una transacción
// y deja el total del producto igual a la suma de sus celdas.
type ProductUseCase struct {
	tx     TxRunner
	repos  Repos
	events *Publisher
	now    func() time.Time
}

// NewProductUseCase construye el caso de uso. repos son los repositorios fuera de transacción (lecturas).
func NewProductUseCase(tx TxRunner, repos Repos, events *Publisher) *ProductUseCase {
	return &ProductUseCase{tx: tx, repos: repos, events: events, now: func() time.Time { return time.Now().UTC() }}
}

// ProductListQuery filtros del listado.
type ProductListQuery struct {
	Category     string
	LowStockOnly bool
	Search       string
	Limit        int
	Offset       int
}

// List lista productos con filtros y paginación.
func (uc *ProductUseCase) List(ctx context.Context, q ProductListQuery) (*dto.ProductListResponse, error) {
	list, err := uc.repos.Products.List(ctx, repository.ProductFilter{
		Category:     strings.TrimSpace(q.Category),
		LowStockOnly: q.LowStockOnly,
		Search:       q.Search,
		Limit:        q.Limit,
		Offset:       q.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &dto.ProductListResponse{
		Items: mapper.ToProductResponses(list),
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset},
	}, nil
}

// GetByID obtiene un producto con su stock por almacén.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	p, err := uc.repos.Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return mapper.ToProductResponse(p), nil
}

func validateStockMap(stock map[string]decimal.Decimal) error {
	for w, q := range stock {
		if strings.TrimSpace(w) == "" {
			return domain.Invalid("almacén vacío en warehouseStock")
		}
		if q.IsNegative() {
			return domain.Invalid("cantidad negativa para el almacén %s", w)
		}
	}
	return nil
}

func ensureWarehouses(ctx context.Context, repos Repos, stock map[string]decimal.Decimal) error {
	for w := range stock {
		wh, err := repos.Warehouses.GetByID(ctx, w)
		if err != nil {
			return err
		}
		if wh == nil {
			return fmt.Errorf("%w: almacén %s", domain.ErrNotFound, w)
		}
	}
	return nil
}

// Create crea el producto con su asignación inicial; escribe solo las celdas > 0
// y una entrada "create" con cantidad previa 0.
func (uc *ProductUseCase) Create(ctx context.Context, userID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalid("el nombre es obligatorio")
	}
	if in.MinStock.IsNegative() {
		return nil, domain.Invalid("minStock no puede ser negativo")
	}
	if err := validateStockMap(in.WarehouseStock); err != nil {
		return nil, err
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.New().String()
	}
	unit := strings.TrimSpace(in.UnitOfMeasure)
	if unit == "" {
		unit = entity.DefaultUnitOfMeasure
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = entity.DefaultCategory
	}

	now := uc.now()
	product := &entity.Product{
		ID:            id,
		Name:          name,
		Category:      category,
		MinStock:      in.MinStock,
		UnitOfMeasure: unit,
		LotNumber:     strings.TrimSpace(in.LotNumber),
		ExpiryDate:    mapper.FromTimestamp(in.ExpiryDate),
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var changes Changes
	err := uc.tx.Run(ctx, func(r Repos) error {
		existing, err := r.Products.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicate
		}
		if err := ensureWarehouses(ctx, r, in.WarehouseStock); err != nil {
			return err
		}
		total := decimal.Zero
		for _, q := range in.WarehouseStock {
			total = total.Add(q)
		}
		product.Quantity = total
		if err := r.Products.Create(ctx, product); err != nil {
			return err
		}
		for _, w := range sortedKeys(in.WarehouseStock) {
			q := in.WarehouseStock[w]
			if !q.IsPositive() {
				continue
			}
			if err := r.Stock.Insert(ctx, &entity.StockCell{ProductID: id, WarehouseID: w, Quantity: q, UpdatedAt: now}); err != nil {
				return err
			}
		}
		changes.Add(ports.TableProducts, ports.ActionInsert, id)
		changes.Add(ports.TableWarehouseStock, ports.ActionInsert, id)
		changes.Add(ports.TableStockHistory, ports.ActionInsert, id)
		return r.History.Append(ctx, &entity.StockHistoryEntry{
			ID:               uuid.New().String(),
			ProductID:        id,
			Type:             entity.HistoryCreate,
			PreviousQuantity: decimal.Zero,
			NewQuantity:      total,
			Quantity:         total,
			UserID:           userID,
			Notes:            "Producto creado",
			Timestamp:        now,
		})
	})
	if err != nil {
		return nil, err
	}
	uc.events.Publish(ctx, changes)
	return uc.GetByID(ctx, id)
}

// Update edita los datos del producto. Si WarehouseStock viene informado, sincroniza las celdas:
// cambia las existentes, inserta las nuevas > 0 y borra las que ya no figuran. Escribe una
// entrada "update" solo si el total cambió.
func (uc *ProductUseCase) Update(ctx context.Context, userID, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, domain.Invalid("el nombre no puede quedar vacío")
	}
	if in.MinStock != nil && in.MinStock.IsNegative() {
		return nil, domain.Invalid("minStock no puede ser negativo")
	}
	if err := validateStockMap(in.WarehouseStock); err != nil {
		return nil, err
	}

	var changes Changes
	err := uc.tx.Run(ctx, func(r Repos) error {
		product, err := r.Products.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		applyProductPatch(product, in)
		now := uc.now()
		product.UpdatedAt = now

		previous, err := r.Stock.SumByProduct(ctx, id)
		if err != nil {
			return err
		}
		if in.WarehouseStock != nil {
			if err := ensureWarehouses(ctx, r, in.WarehouseStock); err != nil {
				return err
			}
			if err := syncCells(ctx, r, id, in.WarehouseStock, now); err != nil {
				return err
			}
			changes.Add(ports.TableWarehouseStock, ports.ActionUpdate, id)
		}
		total, err := r.Stock.SumByProduct(ctx, id)
		if err != nil {
			return err
		}
		product.Quantity = total
		if err := r.Products.Update(ctx, product); err != nil {
			return err
		}
		changes.Add(ports.TableProducts, ports.ActionUpdate, id)
		if total.Equal(previous) {
			return nil
		}
		changes.Add(ports.TableStockHistory, ports.ActionInsert, id)
		return r.History.Append(ctx, &entity.StockHistoryEntry{
			ID:               uuid.New().String(),
			ProductID:        id,
			Type:             entity.HistoryUpdate,
			PreviousQuantity: previous,
			NewQuantity:      total,
			Quantity:         total.Sub(previous),
			UserID:           userID,
			Notes:            "Stock actualizado manualmente",
			Timestamp:        now,
		})
	})
	if err != nil {
		return nil, err
	}
	uc.events.Publish(ctx, changes)
	return uc.GetByID(ctx, id)
}

func applyProductPatch(p *entity.Product, in dto.UpdateProductRequest) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
		if p.Category == "" {
			p.Category = entity.DefaultCategory
		}
	}
	if in.MinStock != nil {
		p.MinStock = *in.MinStock
	}
	if in.UnitOfMeasure != nil {
		p.UnitOfMeasure = strings.TrimSpace(*in.UnitOfMeasure)
		if p.UnitOfMeasure == "" {
			p.UnitOfMeasure = entity.DefaultUnitOfMeasure
		}
	}
	if in.LotNumber != nil {
		p.LotNumber = strings.TrimSpace(*in.LotNumber)
	}
	if in.ExpiryDate != nil {
		p.ExpiryDate = mapper.FromTimestamp(in.ExpiryDate)
	}
	if in.Notes != nil {
		p.Notes = *in.Notes
	}
}

// syncCells deja las celdas del producto iguales a target.
func syncCells(ctx context.Context, r Repos, productID string, target map[string]decimal.Decimal, now time.Time) error {
	cells, err := r.Stock.ListByProduct(ctx, productID)
	if err != nil {
		return err
	}
	existing := make(map[string]entity.StockCell, len(cells))
	for _, c := range cells {
		existing[c.WarehouseID] = c
	}
	for _, w := range sortedKeys(target) {
		q := target[w]
		cell, ok := existing[w]
		switch {
		case ok && !cell.Quantity.Equal(q):
			cell.Quantity = q
			cell.UpdatedAt = now
			if err := r.Stock.Update(ctx, &cell); err != nil {
				return err
			}
		case !ok && q.IsPositive():
			if err := r.Stock.Insert(ctx, &entity.StockCell{ProductID: productID, WarehouseID: w, Quantity: q, UpdatedAt: now}); err != nil {
				return err
			}
		}
	}
	for w := range existing {
		if _, keep := target[w]; keep {
			continue
		}
		if err := r.Stock.Delete(ctx, productID, w); err != nil {
			return err
		}
	}
	return nil
}

// Delete limpia las celdas, registra la entrada "delete" y elimina el producto.
func (uc *ProductUseCase) Delete(ctx context.Context, userID, id string) error {
	var changes Changes
	err := uc.tx.Run(ctx, func(r Repos) error {
		product, err := r.Products.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		previous, err := r.Stock.SumByProduct(ctx, id)
		if err != nil {
			return err
		}
		if err := r.Stock.DeleteByProduct(ctx, id); err != nil {
			return err
		}
		if err := r.History.Append(ctx, &entity.StockHistoryEntry{
			ID:               uuid.New().String(),
			ProductID:        id,
			Type:             entity.HistoryDelete,
			PreviousQuantity: previous,
			NewQuantity:      decimal.Zero,
			Quantity:         previous.Neg(),
			UserID:           userID,
			Notes:            fmt.Sprintf("Producto eliminado: %s", product.Name),
			Timestamp:        uc.now(),
		}); err != nil {
			return err
		}
		changes.Add(ports.TableWarehouseStock, ports.ActionDelete, id)
		changes.Add(ports.TableStockHistory, ports.ActionInsert, id)
		changes.Add(ports.TableProducts, ports.ActionDelete, id)
		return r.Products.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	uc.events.Publish(ctx, changes)
	return nil
}

// HistoryQuery filtros del historial de stock.
type HistoryQuery struct {
	ProductID   string
	WarehouseID string
	Type        string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// History devuelve el historial de stock, más reciente primero.
func (uc *ProductUseCase) History(ctx context.Context, q HistoryQuery) ([]dto.StockHistoryResponse, error) {
	list, err := uc.repos.History.List(ctx, repository.HistoryFilter{
		ProductID:   q.ProductID,
		WarehouseID: q.WarehouseID,
		Type:        q.Type,
		From:        q.From,
		To:          q.To,
		Limit:       q.Limit,
		Offset:      q.Offset,
	})
	if err != nil {
		return nil, err
	}
	return mapper.ToStockHistoryResponses(list), nil
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
