package repository

import "time"

// ProductFilter filtros del catálogo. LowStockOnly: quantity <= min_stock.
// Search busca en nombre, id y número de lote (sin distinguir mayúsculas).
type ProductFilter struct {
	Category     string
	LowStockOnly bool
	Search       string
	IDs          []string
	Limit        int
	Offset       int
}

// HistoryFilter filtros del historial de stock (orden: más reciente primero).
type HistoryFilter struct {
	ProductID   string
	WarehouseID string
	Type        string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// WarehouseFilter filtros de almacenes.
type WarehouseFilter struct {
	Status string
}

// TransferFilter filtros de transferencias (orden: más reciente primero).
type TransferFilter struct {
	Status string
	Limit  int
	Offset int
}

// PurchaseFilter filtros de compras. Statuses vacío = todos.
type PurchaseFilter struct {
	Statuses []string
	Supplier string
	Limit    int
	Offset   int
}

// FumigationFilter filtros de fumigaciones; From/To aplican sobre la fecha de la orden.
type FumigationFilter struct {
	Status  string
	FieldID string
	Crop    string
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}
