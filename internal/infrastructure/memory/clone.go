package memory

import (
	"time"

	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/paulmach/orb"
	"github.com/shopspring/decimal"
)

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneProduct(p entity.Product) entity.Product {
	p.ExpiryDate = cloneTime(p.ExpiryDate)
	if p.WarehouseStock != nil {
		m := make(map[string]decimal.Decimal, len(p.WarehouseStock))
		for k, v := range p.WarehouseStock {
			m[k] = v
		}
		p.WarehouseStock = m
	}
	return p
}

func cloneTransfer(t entity.Transfer) entity.Transfer {
	t.Items = append([]entity.TransferItem(nil), t.Items...)
	t.CompletedAt = cloneTime(t.CompletedAt)
	return t
}

func clonePurchase(p entity.Purchase) entity.Purchase {
	p.Items = append([]entity.PurchaseItem(nil), p.Items...)
	p.CompletedAt = cloneTime(p.CompletedAt)
	return p
}

func clonePurchaseHistory(h entity.PurchaseHistoryEntry) entity.PurchaseHistoryEntry {
	h.Lines = append([]entity.ReceivedLine(nil), h.Lines...)
	return h
}

func cloneFumigation(f entity.Fumigation) entity.Fumigation {
	f.Products = append([]entity.FumigationProduct(nil), f.Products...)
	f.StartDatetime = cloneTime(f.StartDatetime)
	f.EndDatetime = cloneTime(f.EndDatetime)
	return f
}

func clonePolygon(p orb.Polygon) orb.Polygon {
	if p == nil {
		return nil
	}
	return p.Clone()
}

func cloneField(f entity.Field) entity.Field {
	f.Boundary = clonePolygon(f.Boundary)
	lots := make([]entity.Lot, len(f.Lots))
	for i, l := range f.Lots {
		l.Boundary = clonePolygon(l.Boundary)
		lots[i] = l
	}
	f.Lots = lots
	return f
}

func cloneUser(u entity.User) entity.User {
	if u.Permissions != nil {
		m := make(map[string]bool, len(u.Permissions))
		for k, v := range u.Permissions {
			m[k] = v
		}
		u.Permissions = m
	}
	return u
}

func page[T any](list []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(list) {
			return list[:0]
		}
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
