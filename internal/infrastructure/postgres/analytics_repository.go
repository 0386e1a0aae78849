package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.AnalyticsRepository = (*AnalyticsRepo)(nil)

// AnalyticsRepo consultas de lectura para el dashboard sobre PostgreSQL.
type AnalyticsRepo struct {
	q Querier
}

// NewAnalyticsRepository construye el adaptador de métricas del dashboard.
func NewAnalyticsRepository(q Querier) *AnalyticsRepo {
	return &AnalyticsRepo{q: q}
}

// GetStockMetrics devuelve los KPIs generales de stock.
func (r *AnalyticsRepo) GetStockMetrics(ctx context.Context) (*repository.StockMetricsResult, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(qty_on_hand), 0),
		       COUNT(*) FILTER (WHERE qty_on_hand = 0)
		FROM items`
	var res repository.StockMetricsResult
	err := r.q.QueryRow(ctx, query).Scan(&res.DistinctItems, &res.TotalUnits, &res.ZeroedItems)
	if err != nil {
		return nil, fmt.Errorf("stock metrics: %w", err)
	}
	return &res, nil
}

// CountMovementsByType agrupa movimientos por tipo en el rango dado.
func (r *AnalyticsRepo) CountMovementsByType(ctx context.Context, from, to time.Time) ([]repository.MovementTypeCount, error) {
	query := `
		SELECT type, COUNT(*) FROM stock_movements
		WHERE created_at >= $1 AND created_at <= $2
		GROUP BY type ORDER BY type`
	rows, err := r.q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("count movements by type: %w", err)
	}
	defer rows.Close()
	var list []repository.MovementTypeCount
	for rows.Next() {
		var c repository.MovementTypeCount
		if err := rows.Scan(&c.Type, &c.Count); err != nil {
			return nil, fmt.Errorf("scan type count: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// GetDailyFlow devuelve entradas y salidas sumadas por día calendario de los
// últimos `days` días, agrupando por la fecha del propio movimiento.
func (r *AnalyticsRepo) GetDailyFlow(ctx context.Context, days int) ([]repository.DailyFlowResult, error) {
	query := `
		SELECT date_trunc('day', created_at) AS day,
		       COALESCE(SUM(quantity) FILTER (WHERE type IN ('ENTRADA', 'AJUSTE_ENTRADA')), 0),
		       COALESCE(SUM(quantity) FILTER (WHERE type IN ('SALIDA', 'AJUSTE_SALIDA')), 0)
		FROM stock_movements
		WHERE created_at >= CURRENT_DATE - $1 * INTERVAL '1 day'
		GROUP BY day ORDER BY day ASC`
	rows, err := r.q.Query(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("daily flow: %w", err)
	}
	defer rows.Close()
	var list []repository.DailyFlowResult
	for rows.Next() {
		var d repository.DailyFlowResult
		if err := rows.Scan(&d.Day, &d.Inbound, &d.Outbound); err != nil {
			return nil, fmt.Errorf("scan daily flow: %w", err)
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// TopStockedItems lista los artículos con más existencia.
func (r *AnalyticsRepo) TopStockedItems(ctx context.Context, limit int) ([]repository.ItemQty, error) {
	return r.rankedItems(ctx, "DESC", false, limit)
}

// LowStockedItems lista artículos con existencia positiva por debajo o cerca
// del punto de reorden, menor existencia primero.
func (r *AnalyticsRepo) LowStockedItems(ctx context.Context, limit int) ([]repository.ItemQty, error) {
	return r.rankedItems(ctx, "ASC", true, limit)
}

func (r *AnalyticsRepo) rankedItems(ctx context.Context, order string, onlyPositive bool, limit int) ([]repository.ItemQty, error) {
	query := `SELECT id, code, description, qty_on_hand, min_qty FROM items`
	if onlyPositive {
		query += ` WHERE qty_on_hand > 0`
	}
	query += ` ORDER BY qty_on_hand ` + order + ` LIMIT $1`
	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ranked items: %w", err)
	}
	defer rows.Close()
	var list []repository.ItemQty
	for rows.Next() {
		var iq repository.ItemQty
		if err := rows.Scan(&iq.ItemID, &iq.Code, &iq.Description, &iq.QtyOnHand, &iq.MinQty); err != nil {
			return nil, fmt.Errorf("scan ranked item: %w", err)
		}
		list = append(list, iq)
	}
	return list, rows.Err()
}
