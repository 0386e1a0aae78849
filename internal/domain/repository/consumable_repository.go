package repository

import (
	"context"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ConsumableRepository define el puerto de persistencia para consumibles.
type ConsumableRepository interface {
	Create(ctx context.Context, c *entity.Consumable) (*entity.Consumable, error)
	GetByID(ctx context.Context, id string) (*entity.Consumable, error)
	GetByCode(ctx context.Context, code string) (*entity.Consumable, error)
	Update(ctx context.Context, c *entity.Consumable) error
	UpdateQuantity(ctx context.Context, id string, qty decimal.Decimal) error
	// Search filtra por substring case-insensitive en código o descripción;
	// term vacío lista todo.
	Search(ctx context.Context, term string, limit int) ([]*entity.Consumable, error)
	Delete(ctx context.Context, id string) error
}

// ConsumableMovementRepository define el puerto para el libro de consumibles.
type ConsumableMovementRepository interface {
	Create(ctx context.Context, mov *entity.ConsumableMovement) (*entity.ConsumableMovement, error)
	Recent(ctx context.Context, limit int) ([]*entity.ConsumableMovement, error)
	ListByConsumable(ctx context.Context, consumableID string, limit, offset int) ([]*entity.ConsumableMovement, error)
}
