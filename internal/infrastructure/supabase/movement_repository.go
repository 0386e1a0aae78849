package supabase

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementsTable = "stock_movements"

// MovementRepo implementación del libro de movimientos sobre la API de tablas.
type MovementRepo struct {
	c *Client
}

// NewMovementRepository construye el adaptador del libro de movimientos.
func NewMovementRepository(c *Client) *MovementRepo {
	return &MovementRepo{c: c}
}

// Create persiste un movimiento de stock.
func (r *MovementRepo) Create(ctx context.Context, mov *entity.Movement) (*entity.Movement, error) {
	if mov.ID == "" {
		mov.ID = uuid.New().String()
	}
	if mov.CreatedAt.IsZero() {
		mov.CreatedAt = time.Now().UTC()
	}
	var rows []movementRow
	if err := r.c.insertRow(ctx, movementsTable, movementToRow(mov), &rows); err != nil {
		return nil, fmt.Errorf("insert movement: %w", err)
	}
	if len(rows) > 0 {
		return rows[0].toEntity(), nil
	}
	return mov, nil
}

// GetByID obtiene un movimiento por ID. Retorna (nil, nil) si no existe.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	q := eq(nil, "id", id)
	q.Set("limit", "1")
	var rows []movementRow
	if err := r.c.selectRows(ctx, movementsTable, q, &rows); err != nil {
		return nil, fmt.Errorf("get movement: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toEntity(), nil
}

// ListByItem lista los movimientos de un artículo, más recientes primero.
func (r *MovementRepo) ListByItem(ctx context.Context, itemID string, limit, offset int) ([]*entity.Movement, error) {
	q := eq(nil, "item_id", itemID)
	q.Set("order", "created_at.desc")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return r.list(ctx, q, "list movements")
}

// ListByItemKindSince devuelve movimientos de un tipo desde una fecha en
// orden cronológico.
func (r *MovementRepo) ListByItemKindSince(ctx context.Context, itemID, kind string, since time.Time) ([]*entity.Movement, error) {
	q := eq(nil, "item_id", itemID)
	eq(q, "type", kind)
	q.Set("created_at", "gte."+formatTimestamp(since))
	q.Set("order", "created_at.asc")
	return r.list(ctx, q, "list movements since")
}

// Report filtra por rango de fechas y texto libre sobre los campos
// desnormalizados del lote. La búsqueda por código/descripción del artículo
// no es expresable en un solo filtro de la API de tablas, así que el texto se
// aplica sobre lot_code/invoice_number/note.
func (r *MovementRepo) Report(ctx context.Context, from, to *time.Time, search string, limit, offset int) ([]*entity.Movement, error) {
	q := url.Values{}
	if from != nil {
		q.Set("created_at", "gte."+formatTimestamp(*from))
	}
	if to != nil {
		// PostgREST solo admite un filtro por columna en Values; combinamos con and=().
		if from != nil {
			q.Del("created_at")
			q.Set("and", fmt.Sprintf("(created_at.gte.%s,created_at.lte.%s)",
				formatTimestamp(*from), formatTimestamp(*to)))
		} else {
			q.Set("created_at", "lte."+formatTimestamp(*to))
		}
	}
	if search != "" {
		term := strings.ReplaceAll(search, ",", "")
		q.Set("or", fmt.Sprintf("(lot_code.ilike.*%s*,invoice_number.ilike.*%s*,note.ilike.*%s*)",
			term, term, term))
	}
	q.Set("order", "created_at.desc")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return r.list(ctx, q, "report movements")
}

// Recent lista los movimientos más recientes.
func (r *MovementRepo) Recent(ctx context.Context, limit int) ([]*entity.Movement, error) {
	q := url.Values{}
	q.Set("order", "created_at.desc")
	q.Set("limit", strconv.Itoa(limit))
	return r.list(ctx, q, "recent movements")
}

// DeleteByLotRef borra los movimientos cuyos campos coinciden con el lote.
func (r *MovementRepo) DeleteByLotRef(ctx context.Context, itemID, lotCode, invoiceNumber string) error {
	q := eq(nil, "item_id", itemID)
	eq(q, "lot_code", lotCode)
	eq(q, "invoice_number", invoiceNumber)
	if err := r.c.deleteRows(ctx, movementsTable, q); err != nil {
		return fmt.Errorf("delete movements by lot ref: %w", err)
	}
	return nil
}

// Delete elimina un movimiento por ID.
func (r *MovementRepo) Delete(ctx context.Context, id string) error {
	if err := r.c.deleteRows(ctx, movementsTable, eq(nil, "id", id)); err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	return nil
}

// DeleteByItem borra todo el historial de movimientos del artículo.
func (r *MovementRepo) DeleteByItem(ctx context.Context, itemID string) error {
	if err := r.c.deleteRows(ctx, movementsTable, eq(nil, "item_id", itemID)); err != nil {
		return fmt.Errorf("delete movements by item: %w", err)
	}
	return nil
}

func (r *MovementRepo) list(ctx context.Context, q url.Values, op string) ([]*entity.Movement, error) {
	var rows []movementRow
	if err := r.c.selectRows(ctx, movementsTable, q, &rows); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	list := make([]*entity.Movement, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.toEntity())
	}
	return list, nil
}
