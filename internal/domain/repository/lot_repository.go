package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// LotRepository define el puerto de persistencia para Lot.
type LotRepository interface {
	Create(ctx context.Context, lot *entity.Lot) (*entity.Lot, error)
	GetByID(ctx context.Context, id string) (*entity.Lot, error)
	// GetByKey busca el lote por su tupla identificadora
	// (artículo, lote, ítem de factura, número de factura).
	GetByKey(ctx context.Context, itemID string, key entity.LotKey) (*entity.Lot, error)
	// FindByMovementRef localiza el lote que corresponde a los campos
	// desnormalizados de un movimiento (artículo, lote, número de factura).
	// Puede no existir: la reversión lo tolera.
	FindByMovementRef(ctx context.Context, itemID, lotCode, invoiceNumber string) (*entity.Lot, error)
	// LastEntered devuelve el lote de entrada más reciente del artículo
	// (para heredar la estación en recepciones nuevas).
	LastEntered(ctx context.Context, itemID string) (*entity.Lot, error)
	ListByItem(ctx context.Context, itemID string) ([]*entity.Lot, error)
	Update(ctx context.Context, lot *entity.Lot) error
	UpdateQuantity(ctx context.Context, id string, qty decimal.Decimal) error
	UpdateLabel(ctx context.Context, id, status string, at *time.Time, by string) error
	// ListExpiring lista lotes con cantidad > 0 que vencen dentro de `days`
	// días. Con pendingOnly solo devuelve etiquetas pendientes (o sin estado).
	ListExpiring(ctx context.Context, days int, pendingOnly bool) ([]*entity.Lot, error)
	// ListLabelHistory lista lotes ya etiquetados CONCLUIDO, más recientes primero.
	ListLabelHistory(ctx context.Context, limit int) ([]*entity.Lot, error)
	Delete(ctx context.Context, id string) error
	// DeleteByItem borra todos los lotes de un artículo (cascada al
	// eliminar el artículo completo).
	DeleteByItem(ctx context.Context, itemID string) error
}
