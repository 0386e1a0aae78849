package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// StockMetricsResult métricas generales de stock para el dashboard.
type StockMetricsResult struct {
	DistinctItems int             // artículos distintos registrados
	TotalUnits    decimal.Decimal // suma de QtyOnHand de todos los artículos
	ZeroedItems   int             // artículos con QtyOnHand == 0
}

// MovementTypeCount movimientos agrupados por tipo.
type MovementTypeCount struct {
	Type  string
	Count int
}

// DailyFlowResult entradas y salidas sumadas por día calendario.
type DailyFlowResult struct {
	Day      time.Time
	Inbound  decimal.Decimal
	Outbound decimal.Decimal
}

// AnalyticsRepository define las consultas de lectura para el dashboard.
// Las implementaciones son read-only (no modifican datos).
type AnalyticsRepository interface {
	// GetStockMetrics devuelve los KPIs generales de stock.
	GetStockMetrics(ctx context.Context) (*StockMetricsResult, error)

	// CountMovementsByType agrupa movimientos por tipo en el rango dado.
	CountMovementsByType(ctx context.Context, from, to time.Time) ([]MovementTypeCount, error)

	// GetDailyFlow devuelve entradas/salidas por día de los últimos `days`
	// días, agrupando por la fecha del propio movimiento.
	GetDailyFlow(ctx context.Context, days int) ([]DailyFlowResult, error)

	// TopStockedItems / LowStockedItems para las listas Top del dashboard.
	TopStockedItems(ctx context.Context, limit int) ([]ItemQty, error)
	LowStockedItems(ctx context.Context, limit int) ([]ItemQty, error)
}

// ItemQty par artículo/cantidad para rankings del dashboard.
type ItemQty struct {
	ItemID      string
	Code        string
	Description string
	QtyOnHand   decimal.Decimal
	MinQty      decimal.Decimal
}
