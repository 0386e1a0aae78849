package forecast

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// Ventana histórica por defecto para series y giro de stock.
const DefaultWindowDays = 90

// Advisor construye series diarias de consumo, ajusta la tendencia lineal y
// genera sugerencias de compra cuando el stock proyectado cae bajo el punto
// de reorden. Modelo deliberadamente simple y explicable: una recta, no
// estacionalidad ni suavización.
type Advisor struct {
	items repository.ItemRepository
	movs  repository.MovementRepository
	now   func() time.Time
}

// NewAdvisor construye el asesor de reposición.
func NewAdvisor(items repository.ItemRepository, movs repository.MovementRepository) *Advisor {
	return &Advisor{items: items, movs: movs, now: time.Now}
}

// DailyPoint un día calendario de la serie con su cantidad total.
type DailyPoint struct {
	Day time.Time
	Qty float64
}

// BuildDailySeries agrupa los movimientos del tipo dado por día calendario
// (fecha del propio movimiento, no de procesamiento) dentro de la ventana, y
// reindexa a una serie diaria contigua del primer al último día observado,
// rellenando con 0 los días sin movimientos. Menos de 2 puntos observados es
// señal insuficiente (ErrInsufficientData).
func (a *Advisor) BuildDailySeries(ctx context.Context, itemID string, windowDays int, kind string) ([]DailyPoint, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	since := a.now().AddDate(0, 0, -windowDays)
	movs, err := a.movs.ListByItemKindSince(ctx, itemID, kind, since)
	if err != nil {
		return nil, err
	}
	if len(movs) == 0 {
		return nil, domain.ErrInsufficientData
	}

	byDay := make(map[time.Time]float64)
	var first, last time.Time
	for _, m := range movs {
		day := truncateDay(m.CreatedAt)
		byDay[day] += m.Quantity.InexactFloat64()
		if first.IsZero() || day.Before(first) {
			first = day
		}
		if day.After(last) {
			last = day
		}
	}

	series := make([]DailyPoint, 0, int(last.Sub(first).Hours()/24)+1)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		series = append(series, DailyPoint{Day: d, Qty: byDay[d]})
	}
	if len(series) < 2 {
		return nil, domain.ErrInsufficientData
	}
	return series, nil
}

// ForecastPoint un día futuro con su cantidad proyectada (≥ 0, 2 decimales).
type ForecastPoint struct {
	Day time.Time
	Qty float64
}

// ForecastConsumption ajusta la recta sobre la serie diaria de salidas del
// artículo y proyecta `horizonDays` hacia adelante desde el último día
// observado.
func (a *Advisor) ForecastConsumption(ctx context.Context, itemID string, horizonDays int) ([]ForecastPoint, error) {
	series, err := a.BuildDailySeries(ctx, itemID, DefaultWindowDays, entity.MovementSalida)
	if err != nil {
		return nil, err
	}
	ys := make([]float64, len(series))
	for i, p := range series {
		ys[i] = p.Qty
	}
	m, b, err := FitLine(ys)
	if err != nil {
		return nil, err
	}
	values := Project(m, b, len(ys), horizonDays)
	lastDay := series[len(series)-1].Day

	out := make([]ForecastPoint, 0, len(values))
	for i, v := range values {
		out = append(out, ForecastPoint{Day: lastDay.AddDate(0, 0, i+1), Qty: v})
	}
	return out, nil
}

// Suggestion sugerencia de compra. OrderBy es nil cuando el consumo proyectado
// es cero: hay faltante pero sin urgencia calculable, no hay fecha límite.
type Suggestion struct {
	ItemID       string
	Code         string
	Description  string
	SuggestedQty decimal.Decimal
	OrderBy      *time.Time
}

// SuggestPurchases recorre los artículos con stock, proyecta el consumo sobre
// su lead time y sugiere compra cuando el stock proyectado cae bajo el mínimo.
// Artículos sin señal histórica se omiten en silencio: la ausencia de
// sugerencia es la respuesta correcta cuando no hay datos. El resultado se
// ordena por fecha límite ascendente, sin fecha al final.
func (a *Advisor) SuggestPurchases(ctx context.Context) ([]Suggestion, error) {
	items, err := a.items.ListWithStock(ctx, 100)
	if err != nil {
		return nil, err
	}

	today := truncateDay(a.now())
	suggestions := make([]Suggestion, 0)

	for _, item := range items {
		leadDays := item.LeadTimeDays
		if leadDays <= 0 {
			leadDays = entity.DefaultLeadTimeDays
		}

		points, err := a.ForecastConsumption(ctx, item.ID, leadDays)
		if err != nil {
			continue // sin señal: se omite, no es un fallo
		}

		var projected float64
		for _, p := range points {
			projected += p.Qty
		}

		onHand := item.QtyOnHand.InexactFloat64()
		minQty := item.MinQty.InexactFloat64()
		projectedStock := onHand - projected
		if projectedStock >= minQty {
			continue
		}

		var qty decimal.Decimal
		if item.IdealBuyQty.IsPositive() {
			qty = item.IdealBuyQty
		} else {
			qty = decimal.NewFromFloat(round2(2*minQty - projectedStock))
		}

		s := Suggestion{
			ItemID:       item.ID,
			Code:         item.Code,
			Description:  item.Description,
			SuggestedQty: qty,
		}
		if projected > 0 {
			days := (onHand - minQty) / (projected / float64(leadDays))
			if days < 0 {
				days = 0
			}
			d := today.AddDate(0, 0, int(days))
			s.OrderBy = &d
		}
		suggestions = append(suggestions, s)
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i].OrderBy, suggestions[j].OrderBy
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	return suggestions, nil
}

// TurnoverEntry giro de stock de un artículo: salidas del período sobre stock
// actual. Giro bajo = inventario estancado.
type TurnoverEntry struct {
	ItemID      string
	Code        string
	Description string
	QtyOnHand   decimal.Decimal
	TotalIssued decimal.Decimal
	Turnover    float64
}

// StockTurnover calcula el giro de los artículos con stock y devuelve los
// `limit` más estancados (giro ascendente).
func (a *Advisor) StockTurnover(ctx context.Context, windowDays, limit int) ([]TurnoverEntry, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	if limit <= 0 {
		limit = 10
	}
	items, err := a.items.ListWithStock(ctx, 200)
	if err != nil {
		return nil, err
	}

	since := a.now().AddDate(0, 0, -windowDays)
	out := make([]TurnoverEntry, 0, len(items))
	for _, item := range items {
		movs, err := a.movs.ListByItemKindSince(ctx, item.ID, entity.MovementSalida, since)
		if err != nil {
			return nil, err
		}
		total := decimal.Zero
		for _, m := range movs {
			total = total.Add(m.Quantity)
		}
		turnover := 0.0
		if item.QtyOnHand.IsPositive() { // evita división por cero
			turnover = round2(total.InexactFloat64() / item.QtyOnHand.InexactFloat64())
		}
		out = append(out, TurnoverEntry{
			ItemID:      item.ID,
			Code:        item.Code,
			Description: item.Description,
			QtyOnHand:   item.QtyOnHand,
			TotalIssued: total,
			Turnover:    turnover,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Turnover < out[j].Turnover })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
