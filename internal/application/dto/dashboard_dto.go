package dto

import "github.com/shopspring/decimal"

// DashboardSummaryDTO respuesta de GET /api/dashboard.
type DashboardSummaryDTO struct {
	LowStock         []ProductAlertDTO  `json:"lowStockProducts"`
	ExpiringSoon     []ProductAlertDTO  `json:"expiringSoonProducts"`
	PendingTransfers []TransferResponse `json:"pendingTransfers"`
	PendingPurchases []PurchaseResponse `json:"pendingPurchases"`
	RecentActivities []ActivityDTO      `json:"recentActivities"`
	Counters         DashboardCounters  `json:"counters"`
}

// DashboardCounters totales para las tarjetas del dashboard.
type DashboardCounters struct {
	Products          int `json:"products"`
	Warehouses        int `json:"warehouses"`
	LowStock          int `json:"lowStock"`
	ExpiringSoon      int `json:"expiringSoon"`
	PendingTransfers  int `json:"pendingTransfers"`
	PendingPurchases  int `json:"pendingPurchases"`
	ActiveFumigations int `json:"activeFumigations"`
}

// ProductAlertDTO producto con stock bajo o próximo a vencer.
type ProductAlertDTO struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Quantity      decimal.Decimal `json:"quantity"`
	MinStock      decimal.Decimal `json:"minStock"`
	UnitOfMeasure string          `json:"unitOfMeasure"`
	ExpiryDate    *Timestamp      `json:"expiryDate,omitempty"`
}

// ActivityDTO actividad reciente (transferencia, compra o fumigación).
type ActivityDTO struct {
	Type        string     `json:"type"`
	ID          string     `json:"id"`
	Date        *Timestamp `json:"date"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
}
