package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// DashboardUseCase arma los rollups de solo lectura que consumen el dashboard
// y los endpoints JSON: conteos, sumas, agrupaciones por tipo y período.
type DashboardUseCase struct {
	analytics   repository.AnalyticsRepository
	lots        repository.LotRepository
	movs        repository.MovementRepository
	consumables repository.ConsumableRepository
	consMovs    repository.ConsumableMovementRepository
	now         func() time.Time
}

// NewDashboardUseCase construye el agregador del dashboard.
func NewDashboardUseCase(
	analytics repository.AnalyticsRepository,
	lots repository.LotRepository,
	movs repository.MovementRepository,
	consumables repository.ConsumableRepository,
	consMovs repository.ConsumableMovementRepository,
) *DashboardUseCase {
	return &DashboardUseCase{
		analytics:   analytics,
		lots:        lots,
		movs:        movs,
		consumables: consumables,
		consMovs:    consMovs,
		now:         time.Now,
	}
}

// Data todo lo que el dashboard muestra, en una sola consulta compuesta.
type Data struct {
	Metrics       *repository.StockMetricsResult
	TypeCounts    []repository.MovementTypeCount
	DailyFlow     []repository.DailyFlowResult
	TopStocked    []repository.ItemQty
	LowStocked    []repository.ItemQty
	Recent        []*entity.Movement
	ExpiringToday []*entity.Lot
	ExpiringSoon  []*entity.Lot

	ConsumableTotal    int
	ConsumableZeroed   int
	ConsumableLowStock int
	LowConsumables     []*entity.Consumable
	RecentConsumable   []*entity.ConsumableMovement
}

// Build arma el snapshot del dashboard. Las consultas son independientes y de
// solo lectura; un fallo en cualquiera aborta (no hay snapshot parcial).
func (uc *DashboardUseCase) Build(ctx context.Context) (*Data, error) {
	metrics, err := uc.analytics.GetStockMetrics(ctx)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	typeCounts, err := uc.analytics.CountMovementsByType(ctx, now.AddDate(0, 0, -30), now)
	if err != nil {
		return nil, err
	}
	flow, err := uc.analytics.GetDailyFlow(ctx, 15)
	if err != nil {
		return nil, err
	}
	top, err := uc.analytics.TopStockedItems(ctx, 5)
	if err != nil {
		return nil, err
	}
	low, err := uc.analytics.LowStockedItems(ctx, 5)
	if err != nil {
		return nil, err
	}
	recent, err := uc.movs.Recent(ctx, 5)
	if err != nil {
		return nil, err
	}
	expToday, err := uc.lots.ListExpiring(ctx, 0, false)
	if err != nil {
		return nil, err
	}
	expSoon, err := uc.lots.ListExpiring(ctx, 40, false)
	if err != nil {
		return nil, err
	}

	all, err := uc.consumables.Search(ctx, "", 1000)
	if err != nil {
		return nil, err
	}
	zeroed, lowStock := 0, 0
	for _, c := range all {
		switch {
		case c.Quantity.IsZero():
			zeroed++
		case c.Quantity.LessThanOrEqual(c.MinQty):
			lowStock++
		}
	}
	sorted := append([]*entity.Consumable(nil), all...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Quantity.LessThan(sorted[j].Quantity)
	})
	if len(sorted) > 5 {
		sorted = sorted[:5]
	}
	recentCons, err := uc.consMovs.Recent(ctx, 5)
	if err != nil {
		return nil, err
	}

	return &Data{
		Metrics:            metrics,
		TypeCounts:         typeCounts,
		DailyFlow:          flow,
		TopStocked:         top,
		LowStocked:         low,
		Recent:             recent,
		ExpiringToday:      expToday,
		ExpiringSoon:       expSoon,
		ConsumableTotal:    len(all),
		ConsumableZeroed:   zeroed,
		ConsumableLowStock: lowStock,
		LowConsumables:     sorted,
		RecentConsumable:   recentCons,
	}, nil
}

// MovementReport informe de movimientos con filtros de fecha y texto libre.
func (uc *DashboardUseCase) MovementReport(ctx context.Context, from, to *time.Time, search string, limit, offset int) ([]*entity.Movement, error) {
	if limit <= 0 {
		limit = 200
	}
	return uc.movs.Report(ctx, from, to, search, limit, offset)
}
