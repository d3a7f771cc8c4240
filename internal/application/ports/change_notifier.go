package ports

import "context"

// Tablas observables por el feed de cambios.
const (
	TableProducts       = "products"
	TableWarehouses     = "warehouses"
	TableWarehouseStock = "warehouse_stock"
	TableStockHistory   = "stock_history"
	TableTransfers      = "transfers"
	TablePurchases      = "purchases"
	TableFumigations    = "fumigations"
	TableFields         = "fields"
	TableUsers          = "users"
)

// Acciones del evento de cambio.
const (
	ActionInsert = "insert"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// ChangeEvent señal de invalidación: el suscriptor relee la lista completa.
// No lleva el contenido de la fila ni garantiza orden respecto a otras escrituras.
type ChangeEvent struct {
	Table     string `json:"table"`
	Action    string `json:"action"`
	ID        string `json:"id,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// ChangeNotifier publica y entrega eventos de cambio por tabla.
type ChangeNotifier interface {
	Publish(ctx context.Context, evt ChangeEvent) error
	// Subscribe bloquea hasta que ctx termine; fn se invoca por cada evento de las tablas pedidas.
	Subscribe(ctx context.Context, tables []string, fn func(ChangeEvent)) error
}
