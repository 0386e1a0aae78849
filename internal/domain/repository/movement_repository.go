package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// MovementRepository define el puerto de persistencia para el libro de
// movimientos de stock.
type MovementRepository interface {
	Create(ctx context.Context, mov *entity.Movement) (*entity.Movement, error)
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	ListByItem(ctx context.Context, itemID string, limit, offset int) ([]*entity.Movement, error)
	// ListByItemKindSince devuelve movimientos de un tipo desde una fecha
	// (insumo de la serie diaria del forecast).
	ListByItemKindSince(ctx context.Context, itemID, kind string, since time.Time) ([]*entity.Movement, error)
	// Report filtra por rango de fechas y texto libre (código/descripción/lote).
	Report(ctx context.Context, from, to *time.Time, search string, limit, offset int) ([]*entity.Movement, error)
	Recent(ctx context.Context, limit int) ([]*entity.Movement, error)
	// DeleteByLotRef borra todos los movimientos cuyos campos desnormalizados
	// coinciden con el lote (se usa al eliminar un lote).
	DeleteByLotRef(ctx context.Context, itemID, lotCode, invoiceNumber string) error
	Delete(ctx context.Context, id string) error
	// DeleteByItem borra todo el historial de un artículo (cascada al
	// eliminar el artículo completo).
	DeleteByItem(ctx context.Context, itemID string) error
}
