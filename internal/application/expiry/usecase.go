package expiry

import (
	"context"
	"time"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// Ventana por defecto del control de vencimiento (días).
const DefaultWindowDays = 40

// UseCase control de vencimiento ("etiqueta roja"): lotes con cantidad > 0
// que vencen pronto, marcables como atendidos y reabribles.
type UseCase struct {
	lots repository.LotRepository
	now  func() time.Time
}

// NewUseCase construye el caso de uso de control de vencimiento.
func NewUseCase(lots repository.LotRepository) *UseCase {
	return &UseCase{lots: lots, now: time.Now}
}

// PendingCritical lista los lotes pendientes que vencen dentro de `days` días.
func (uc *UseCase) PendingCritical(ctx context.Context, days int) ([]*entity.Lot, error) {
	if days <= 0 {
		days = DefaultWindowDays
	}
	return uc.lots.ListExpiring(ctx, days, true)
}

// MarkDone marca la etiqueta del lote como atendida, registrando quién y cuándo.
func (uc *UseCase) MarkDone(ctx context.Context, lotID, actor string) error {
	lot, err := uc.lots.GetByID(ctx, lotID)
	if err != nil {
		return err
	}
	if lot == nil {
		return domain.ErrNotFound
	}
	at := uc.now()
	return uc.lots.UpdateLabel(ctx, lotID, entity.LabelDone, &at, actor)
}

// Reopen devuelve el lote a la lista de pendientes.
func (uc *UseCase) Reopen(ctx context.Context, lotID string) error {
	lot, err := uc.lots.GetByID(ctx, lotID)
	if err != nil {
		return err
	}
	if lot == nil {
		return domain.ErrNotFound
	}
	return uc.lots.UpdateLabel(ctx, lotID, entity.LabelPending, nil, "")
}

// History lotes ya atendidos, más recientes primero.
func (uc *UseCase) History(ctx context.Context, limit int) ([]*entity.Lot, error) {
	if limit <= 0 {
		limit = 500
	}
	return uc.lots.ListLabelHistory(ctx, limit)
}
