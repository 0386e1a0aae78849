package repository

import (
	"context"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ItemRepository define el puerto de persistencia para Item (DIP).
// Las implementaciones (PostgreSQL local o API de tablas remota) retornan
// (nil, nil) cuando el registro no existe; el caso de uso decide si eso es
// ErrNotFound.
type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) (*entity.Item, error)
	GetByID(ctx context.Context, id string) (*entity.Item, error)
	GetByCode(ctx context.Context, code string) (*entity.Item, error)
	Update(ctx context.Context, item *entity.Item) error
	UpdateQuantity(ctx context.Context, id string, qty decimal.Decimal) error
	// Search busca por substring case-insensitive en código o descripción
	// (autocompletado), limitado a `limit` resultados.
	Search(ctx context.Context, term string, limit int) ([]*entity.Item, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Item, error)
	// ListWithStock lista artículos con QtyOnHand > 0 (insumo del forecast).
	ListWithStock(ctx context.Context, limit int) ([]*entity.Item, error)
	Delete(ctx context.Context, id string) error
}
