package supabase

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.AnalyticsRepository = (*AnalyticsRepo)(nil)

// AnalyticsRepo métricas del dashboard sobre la API de tablas. PostgREST no
// expresa estas agregaciones en un solo filtro, así que el repositorio trae
// las filas necesarias y agrega en memoria.
type AnalyticsRepo struct {
	c *Client
}

// NewAnalyticsRepository construye el adaptador de métricas del dashboard.
func NewAnalyticsRepository(c *Client) *AnalyticsRepo {
	return &AnalyticsRepo{c: c}
}

// GetStockMetrics devuelve los KPIs generales de stock.
func (r *AnalyticsRepo) GetStockMetrics(ctx context.Context) (*repository.StockMetricsResult, error) {
	q := url.Values{}
	q.Set("select", "qty_on_hand")
	var rows []struct {
		QtyOnHand decimal.Decimal `json:"qty_on_hand"`
	}
	if err := r.c.selectRows(ctx, itemsTable, q, &rows); err != nil {
		return nil, fmt.Errorf("stock metrics: %w", err)
	}
	res := &repository.StockMetricsResult{DistinctItems: len(rows)}
	for _, row := range rows {
		res.TotalUnits = res.TotalUnits.Add(row.QtyOnHand)
		if row.QtyOnHand.IsZero() {
			res.ZeroedItems++
		}
	}
	return res, nil
}

// CountMovementsByType agrupa movimientos por tipo en el rango dado.
func (r *AnalyticsRepo) CountMovementsByType(ctx context.Context, from, to time.Time) ([]repository.MovementTypeCount, error) {
	q := url.Values{}
	q.Set("select", "type,created_at")
	q.Set("and", fmt.Sprintf("(created_at.gte.%s,created_at.lte.%s)",
		formatTimestamp(from), formatTimestamp(to)))
	var rows []struct {
		Type string `json:"type"`
	}
	if err := r.c.selectRows(ctx, movementsTable, q, &rows); err != nil {
		return nil, fmt.Errorf("count movements by type: %w", err)
	}
	counts := map[string]int{}
	for _, row := range rows {
		counts[row.Type]++
	}
	list := make([]repository.MovementTypeCount, 0, len(counts))
	for typ, n := range counts {
		list = append(list, repository.MovementTypeCount{Type: typ, Count: n})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Type < list[j].Type })
	return list, nil
}

// GetDailyFlow devuelve entradas y salidas por día de los últimos `days` días.
func (r *AnalyticsRepo) GetDailyFlow(ctx context.Context, days int) ([]repository.DailyFlowResult, error) {
	since := time.Now().UTC().AddDate(0, 0, -days)
	q := url.Values{}
	q.Set("select", "type,quantity,created_at")
	q.Set("created_at", "gte."+formatTimestamp(since))
	var rows []struct {
		Type      string          `json:"type"`
		Quantity  decimal.Decimal `json:"quantity"`
		CreatedAt string          `json:"created_at"`
	}
	if err := r.c.selectRows(ctx, movementsTable, q, &rows); err != nil {
		return nil, fmt.Errorf("daily flow: %w", err)
	}
	byDay := map[time.Time]*repository.DailyFlowResult{}
	for _, row := range rows {
		t := parseTimestamp(row.CreatedAt).UTC()
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		agg, ok := byDay[day]
		if !ok {
			agg = &repository.DailyFlowResult{Day: day}
			byDay[day] = agg
		}
		if entity.IsInbound(row.Type) {
			agg.Inbound = agg.Inbound.Add(row.Quantity)
		} else if entity.IsOutbound(row.Type) {
			agg.Outbound = agg.Outbound.Add(row.Quantity)
		}
	}
	list := make([]repository.DailyFlowResult, 0, len(byDay))
	for _, agg := range byDay {
		list = append(list, *agg)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Day.Before(list[j].Day) })
	return list, nil
}

// TopStockedItems lista los artículos con más existencia.
func (r *AnalyticsRepo) TopStockedItems(ctx context.Context, limit int) ([]repository.ItemQty, error) {
	q := url.Values{}
	q.Set("order", "qty_on_hand.desc")
	return r.rankedItems(ctx, q, limit)
}

// LowStockedItems lista artículos con existencia positiva, menor existencia primero.
func (r *AnalyticsRepo) LowStockedItems(ctx context.Context, limit int) ([]repository.ItemQty, error) {
	q := url.Values{}
	q.Set("qty_on_hand", "gt.0")
	q.Set("order", "qty_on_hand.asc")
	return r.rankedItems(ctx, q, limit)
}

func (r *AnalyticsRepo) rankedItems(ctx context.Context, q url.Values, limit int) ([]repository.ItemQty, error) {
	q.Set("select", "id,code,description,qty_on_hand,min_qty")
	q.Set("limit", strconv.Itoa(limit))
	var rows []struct {
		ID          string          `json:"id"`
		Code        string          `json:"code"`
		Description string          `json:"description"`
		QtyOnHand   decimal.Decimal `json:"qty_on_hand"`
		MinQty      decimal.Decimal `json:"min_qty"`
	}
	if err := r.c.selectRows(ctx, itemsTable, q, &rows); err != nil {
		return nil, fmt.Errorf("ranked items: %w", err)
	}
	list := make([]repository.ItemQty, 0, len(rows))
	for _, row := range rows {
		list = append(list, repository.ItemQty{
			ItemID: row.ID, Code: row.Code, Description: row.Description,
			QtyOnHand: row.QtyOnHand, MinQty: row.MinQty,
		})
	}
	return list, nil
}
