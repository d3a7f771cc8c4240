package mapper

import (
	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/pkg/geo"
	"github.com/shopspring/decimal"
)

// ── Catálogo ──────────────────────────────────────────────────────────────────

func ToProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	stock := make(map[string]decimal.Decimal, len(p.WarehouseStock))
	for w, q := range p.WarehouseStock {
		stock[w] = q
	}
	return &dto.ProductResponse{
		ID:             p.ID,
		Name:           p.Name,
		Category:       p.Category,
		Quantity:       p.Quantity,
		MinStock:       p.MinStock,
		UnitOfMeasure:  p.UnitOfMeasure,
		LotNumber:      p.LotNumber,
		ExpiryDate:     ToTimestampPtr(p.ExpiryDate),
		Notes:          p.Notes,
		WarehouseStock: stock,
		CreatedAt:      ToTimestamp(p.CreatedAt),
		UpdatedAt:      ToTimestamp(p.UpdatedAt),
	}
}

func ToProductResponses(list []*entity.Product) []dto.ProductResponse {
	out := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		out = append(out, *ToProductResponse(p))
	}
	return out
}

func ToStockHistoryResponse(h *entity.StockHistoryEntry) dto.StockHistoryResponse {
	return dto.StockHistoryResponse{
		ID:                h.ID,
		ProductID:         h.ProductID,
		Type:              h.Type,
		PreviousQuantity:  h.PreviousQuantity,
		NewQuantity:       h.NewQuantity,
		Quantity:          h.Quantity,
		WarehouseID:       h.WarehouseID,
		SourceWarehouseID: h.SourceWarehouseID,
		TargetWarehouseID: h.TargetWarehouseID,
		TransferID:        h.TransferID,
		PurchaseID:        h.PurchaseID,
		FumigationID:      h.FumigationID,
		UserID:            h.UserID,
		Notes:             h.Notes,
		Timestamp:         ToTimestamp(h.Timestamp),
	}
}

func ToStockHistoryResponses(list []*entity.StockHistoryEntry) []dto.StockHistoryResponse {
	out := make([]dto.StockHistoryResponse, 0, len(list))
	for _, h := range list {
		out = append(out, ToStockHistoryResponse(h))
	}
	return out
}

// ── Almacenes ─────────────────────────────────────────────────────────────────

func ToWarehouseResponse(w *entity.Warehouse) *dto.WarehouseResponse {
	if w == nil {
		return nil
	}
	return &dto.WarehouseResponse{
		ID:               w.ID,
		Name:             w.Name,
		Location:         w.Location,
		Type:             w.Type,
		FieldID:          w.FieldID,
		StorageCondition: w.StorageCondition,
		Capacity:         w.Capacity,
		CapacityUnit:     w.CapacityUnit,
		Supervisor:       w.Supervisor,
		Notes:            w.Notes,
		Status:           w.Status,
		CreatedAt:        ToTimestamp(w.CreatedAt),
		UpdatedAt:        ToTimestamp(w.UpdatedAt),
	}
}

func ToWarehouseResponses(list []*entity.Warehouse) []dto.WarehouseResponse {
	out := make([]dto.WarehouseResponse, 0, len(list))
	for _, w := range list {
		out = append(out, *ToWarehouseResponse(w))
	}
	return out
}

// ── Transferencias ────────────────────────────────────────────────────────────

func ToTransferResponse(t *entity.Transfer) *dto.TransferResponse {
	if t == nil {
		return nil
	}
	items := make([]dto.TransferItemDTO, 0, len(t.Items))
	for _, it := range t.Items {
		items = append(items, dto.TransferItemDTO{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return &dto.TransferResponse{
		ID:                t.ID,
		SourceWarehouseID: t.SourceWarehouseID,
		TargetWarehouseID: t.TargetWarehouseID,
		Products:          items,
		Status:            t.Status,
		Notes:             t.Notes,
		CreatedBy:         t.CreatedBy,
		CompletedAt:       ToTimestampPtr(t.CompletedAt),
		CreatedAt:         ToTimestamp(t.CreatedAt),
		UpdatedAt:         ToTimestamp(t.UpdatedAt),
	}
}

func ToTransferResponses(list []*entity.Transfer) []dto.TransferResponse {
	out := make([]dto.TransferResponse, 0, len(list))
	for _, t := range list {
		out = append(out, *ToTransferResponse(t))
	}
	return out
}

// ── Compras ───────────────────────────────────────────────────────────────────

func ToPurchaseResponse(p *entity.Purchase) *dto.PurchaseResponse {
	if p == nil {
		return nil
	}
	items := make([]dto.PurchaseItemResponse, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, dto.PurchaseItemResponse{
			ProductID:     it.ProductID,
			Name:          it.Name,
			Category:      it.Category,
			UnitOfMeasure: it.UnitOfMeasure,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			Received:      it.Received,
			Status:        it.Status,
		})
	}
	return &dto.PurchaseResponse{
		ID:           p.ID,
		Supplier:     p.Supplier,
		Products:     items,
		Invoice:      p.Invoice,
		ShippingCost: p.ShippingCost,
		TotalCost:    p.TotalCost,
		Status:       p.Status,
		Notes:        p.Notes,
		CompletedAt:  ToTimestampPtr(p.CompletedAt),
		CreatedAt:    ToTimestamp(p.CreatedAt),
		UpdatedAt:    ToTimestamp(p.UpdatedAt),
	}
}

func ToPurchaseResponses(list []*entity.Purchase) []dto.PurchaseResponse {
	out := make([]dto.PurchaseResponse, 0, len(list))
	for _, p := range list {
		out = append(out, *ToPurchaseResponse(p))
	}
	return out
}

func ToPurchaseHistoryResponses(list []*entity.PurchaseHistoryEntry) []dto.PurchaseHistoryResponse {
	out := make([]dto.PurchaseHistoryResponse, 0, len(list))
	for _, h := range list {
		lines := make([]dto.TransferItemDTO, 0, len(h.Lines))
		for _, l := range h.Lines {
			lines = append(lines, dto.TransferItemDTO{ProductID: l.ProductID, Quantity: l.Quantity})
		}
		out = append(out, dto.PurchaseHistoryResponse{
			ID:          h.ID,
			PurchaseID:  h.PurchaseID,
			Type:        h.Type,
			WarehouseID: h.WarehouseID,
			Products:    lines,
			Status:      h.Status,
			Notes:       h.Notes,
			Timestamp:   ToTimestamp(h.Timestamp),
		})
	}
	return out
}

// ── Fumigaciones ──────────────────────────────────────────────────────────────

func ToFumigationResponse(f *entity.Fumigation) *dto.FumigationResponse {
	if f == nil {
		return nil
	}
	products := make([]dto.FumigationProductResponse, 0, len(f.Products))
	for _, p := range f.Products {
		products = append(products, dto.FumigationProductResponse{
			ProductID:     p.ProductID,
			ProductName:   p.ProductName,
			WarehouseID:   p.WarehouseID,
			DosePerHa:     p.DosePerHa,
			DoseUnit:      p.DoseUnit,
			TotalQuantity: p.TotalQuantity,
			TotalUnit:     p.TotalUnit,
		})
	}
	return &dto.FumigationResponse{
		ID:            f.ID,
		OrderNumber:   f.OrderNumber,
		Date:          ToTimestamp(f.Date),
		FieldID:       f.FieldID,
		Establishment: f.Establishment,
		Applicator:    f.Applicator,
		Crop:          f.Crop,
		Lot:           f.Lot,
		Surface:       f.Surface,
		Products:      products,
		Observations:  f.Observations,
		ImagePath:     f.ImagePath,
		Status:        f.Status,
		StartDatetime: ToTimestampPtr(f.StartDatetime),
		EndDatetime:   ToTimestampPtr(f.EndDatetime),
		CreatedAt:     ToTimestamp(f.CreatedAt),
		UpdatedAt:     ToTimestamp(f.UpdatedAt),
	}
}

func ToFumigationResponses(list []*entity.Fumigation) []dto.FumigationResponse {
	out := make([]dto.FumigationResponse, 0, len(list))
	for _, f := range list {
		out = append(out, *ToFumigationResponse(f))
	}
	return out
}

// ── Campos ────────────────────────────────────────────────────────────────────

func ToLotResponse(l entity.Lot) dto.LotResponse {
	return dto.LotResponse{
		ID:        l.ID,
		Name:      l.Name,
		Area:      l.Area,
		AreaUnit:  l.AreaUnit,
		Crop:      l.Crop,
		Notes:     l.Notes,
		Boundary:  geo.MarshalPolygon(l.Boundary),
		CreatedAt: ToTimestamp(l.CreatedAt),
		UpdatedAt: ToTimestamp(l.UpdatedAt),
	}
}

func ToFieldResponse(f *entity.Field) *dto.FieldResponse {
	if f == nil {
		return nil
	}
	lots := make([]dto.LotResponse, 0, len(f.Lots))
	for _, l := range f.Lots {
		lots = append(lots, ToLotResponse(l))
	}
	return &dto.FieldResponse{
		ID:        f.ID,
		Name:      f.Name,
		Location:  f.Location,
		Area:      f.Area,
		AreaUnit:  f.AreaUnit,
		Owner:     f.Owner,
		Notes:     f.Notes,
		Boundary:  geo.MarshalPolygon(f.Boundary),
		Lots:      lots,
		CreatedAt: ToTimestamp(f.CreatedAt),
		UpdatedAt: ToTimestamp(f.UpdatedAt),
	}
}

func ToFieldResponses(list []*entity.Field) []dto.FieldResponse {
	out := make([]dto.FieldResponse, 0, len(list))
	for _, f := range list {
		out = append(out, *ToFieldResponse(f))
	}
	return out
}

// ── Usuarios ──────────────────────────────────────────────────────────────────

func ToUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	perms := make(map[string]bool, len(u.Permissions))
	for k, v := range u.Permissions {
		perms[k] = v
	}
	return &dto.UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		Permissions: perms,
		Status:      u.Status,
		CreatedAt:   ToTimestamp(u.CreatedAt),
		UpdatedAt:   ToTimestamp(u.UpdatedAt),
	}
}

func ToUserResponses(list []*entity.User) []dto.UserResponse {
	out := make([]dto.UserResponse, 0, len(list))
	for _, u := range list {
		out = append(out, *ToUserResponse(u))
	}
	return out
}
