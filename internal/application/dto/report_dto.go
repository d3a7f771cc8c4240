package dto

import "github.com/shopspring/decimal"

// CategorySummaryDTO totales por categoría del reporte de stock.
type CategorySummaryDTO struct {
	TotalProducts int             `json:"totalProducts"`
	TotalStock    decimal.Decimal `json:"totalStock"`
	LowStockCount int             `json:"lowStockCount"`
}

// StockReportDTO reporte de stock por almacén/categoría.
type StockReportDTO struct {
	Timestamp       *Timestamp                    `json:"timestamp"`
	TotalProducts   int                           `json:"totalProducts"`
	WarehouseID     string                        `json:"warehouseId,omitempty"`
	CategoryFilter  string                        `json:"categoryFilter,omitempty"`
	Products        []ProductResponse             `json:"products"`
	CategorySummary map[string]CategorySummaryDTO `json:"categorySummary"`
	WarehouseNames  map[string]string             `json:"warehouseNames"`
}

// MovementDTO entrada del historial enriquecida con nombres.
type MovementDTO struct {
	StockHistoryResponse
	ProductName         string `json:"productName"`
	WarehouseName       string `json:"warehouseName"`
	SourceWarehouseName string `json:"sourceWarehouseName,omitempty"`
	TargetWarehouseName string `json:"targetWarehouseName,omitempty"`
}

// MovementsReportDTO reporte de movimientos agrupado por tipo.
type MovementsReportDTO struct {
	Timestamp       *Timestamp               `json:"timestamp"`
	FromDate        *Timestamp               `json:"fromDate,omitempty"`
	ToDate          *Timestamp               `json:"toDate,omitempty"`
	ProductID       string                   `json:"productId,omitempty"`
	WarehouseID     string                   `json:"warehouseId,omitempty"`
	Type            string                   `json:"type,omitempty"`
	TotalMovements  int                      `json:"totalMovements"`
	Movements       []MovementDTO            `json:"movements"`
	MovementsByType map[string][]MovementDTO `json:"movementsByType"`
}
