package consumables

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// Notifier puerto local de notificación (mismo contrato que el motor de stock).
type Notifier interface {
	Notify(event string, payload map[string]any)
}

// UseCase libro paralelo de consumibles: entradas y salidas contra una única
// cantidad corriente, sin dimensión de lote ni vencimiento.
type UseCase struct {
	consumables repository.ConsumableRepository
	movs        repository.ConsumableMovementRepository
	notifier    Notifier
	locks       *consumableLocks
	now         func() time.Time
}

// NewUseCase construye el caso de uso de consumibles.
func NewUseCase(
	consumables repository.ConsumableRepository,
	movs repository.ConsumableMovementRepository,
	notifier Notifier,
) *UseCase {
	return &UseCase{
		consumables: consumables,
		movs:        movs,
		notifier:    notifier,
		locks:       newConsumableLocks(),
		now:         time.Now,
	}
}

// MovementInput entrada o salida de un consumible.
type MovementInput struct {
	ConsumableID string
	Type         string // ENTRADA | SALIDA
	Quantity     decimal.Decimal
	Sector       string
	Note         string
	Actor        string
}

// RegisterMovement aplica el movimiento sobre la cantidad corriente y lo
// registra en el libro. Para salidas valida disponibilidad reportando la
// cantidad disponible.
func (uc *UseCase) RegisterMovement(ctx context.Context, in MovementInput) (*entity.Consumable, error) {
	if in.Type != entity.MovementEntrada && in.Type != entity.MovementSalida {
		return nil, domain.ErrInvalidInput
	}
	if !in.Quantity.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}

	// El lock cubre desde la lectura hasta la escritura: el chequeo de
	// disponibilidad debe decidir sobre la cantidad vigente.
	unlock := uc.locks.Lock(in.ConsumableID)
	defer unlock()

	c, err := uc.consumables.GetByID(ctx, in.ConsumableID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}

	sector := in.Sector
	switch in.Type {
	case entity.MovementEntrada:
		if sector == "" {
			sector = entity.DefaultStation
		}
		c.Quantity = c.Quantity.Add(in.Quantity)
	case entity.MovementSalida:
		if c.Quantity.LessThan(in.Quantity) {
			return nil, &domain.InsufficientStockError{Available: c.Quantity, Requested: in.Quantity}
		}
		c.Quantity = c.Quantity.Sub(in.Quantity)
	}

	if err := uc.consumables.UpdateQuantity(ctx, c.ID, c.Quantity); err != nil {
		return nil, err
	}

	mov := &entity.ConsumableMovement{
		ID:           uuid.New().String(),
		ConsumableID: c.ID,
		Type:         in.Type,
		Quantity:     in.Quantity,
		Sector:       sector,
		Note:         in.Note,
		Actor:        in.Actor,
		CreatedAt:    uc.now(),
	}
	if _, err := uc.movs.Create(ctx, mov); err != nil {
		return nil, err
	}

	if uc.notifier != nil {
		uc.notifier.Notify("dashboard_update", map[string]any{"message": "Movimiento de consumible", "consumable_id": c.ID})
	}
	return c, nil
}

// Search lista consumibles filtrando por código o descripción.
func (uc *UseCase) Search(ctx context.Context, term string, limit int) ([]*entity.Consumable, error) {
	if limit <= 0 {
		limit = 100
	}
	return uc.consumables.Search(ctx, term, limit)
}

// Get devuelve un consumible por ID.
func (uc *UseCase) Get(ctx context.Context, id string) (*entity.Consumable, error) {
	c, err := uc.consumables.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

// Update edita los metadatos y la cantidad de un consumible.
func (uc *UseCase) Update(ctx context.Context, c *entity.Consumable) error {
	existing, err := uc.consumables.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.ErrNotFound
	}
	return uc.consumables.Update(ctx, c)
}

// Upsert crea o actualiza por código (importación desde planilla).
func (uc *UseCase) Upsert(ctx context.Context, c *entity.Consumable) error {
	if c.Code == "" || c.Description == "" {
		return domain.ErrMissingField
	}
	existing, err := uc.consumables.GetByCode(ctx, c.Code)
	if err != nil {
		return err
	}
	if existing != nil {
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
		return uc.consumables.Update(ctx, c)
	}
	c.ID = uuid.New().String()
	c.CreatedAt = uc.now()
	_, err = uc.consumables.Create(ctx, c)
	return err
}

// RecentMovements últimos movimientos de consumibles.
func (uc *UseCase) RecentMovements(ctx context.Context, limit int) ([]*entity.ConsumableMovement, error) {
	if limit <= 0 {
		limit = 50
	}
	return uc.movs.Recent(ctx, limit)
}
