package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, item_id, type, quantity, lot_code, invoice_item, invoice_number, stage, note, actor, created_at`

// MovementRepo implementación del puerto MovementRepository sobre PostgreSQL.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador del libro de movimientos.
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create persiste un movimiento de stock.
func (r *MovementRepo) Create(ctx context.Context, mov *entity.Movement) (*entity.Movement, error) {
	if mov.ID == "" {
		mov.ID = uuid.New().String()
	}
	if mov.CreatedAt.IsZero() {
		mov.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		mov.ID, mov.ItemID, mov.Type, mov.Quantity,
		mov.LotCode, mov.InvoiceItem, mov.InvoiceNumber,
		mov.Stage, mov.Note, mov.Actor, mov.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert movement: %w", err)
	}
	return mov, nil
}

// GetByID obtiene un movimiento por ID. Retorna (nil, nil) si no existe.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	row := r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE id = $1`, id)
	return scanMovement(row, "get movement")
}

// ListByItem lista los movimientos de un artículo, más recientes primero.
func (r *MovementRepo) ListByItem(ctx context.Context, itemID string, limit, offset int) ([]*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + ` FROM stock_movements
		WHERE item_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, itemID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return collectMovements(rows)
}

// ListByItemKindSince devuelve movimientos de un tipo desde una fecha, en
// orden cronológico (insumo de la serie diaria del forecast).
func (r *MovementRepo) ListByItemKindSince(ctx context.Context, itemID, kind string, since time.Time) ([]*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + ` FROM stock_movements
		WHERE item_id = $1 AND type = $2 AND created_at >= $3
		ORDER BY created_at ASC`
	rows, err := r.q.Query(ctx, query, itemID, kind, since)
	if err != nil {
		return nil, fmt.Errorf("list movements since: %w", err)
	}
	return collectMovements(rows)
}

// Report filtra movimientos por rango de fechas y texto libre sobre los
// campos desnormalizados del lote y el código/descripción del artículo.
func (r *MovementRepo) Report(ctx context.Context, from, to *time.Time, search string, limit, offset int) ([]*entity.Movement, error) {
	query := `
		SELECT m.id, m.item_id, m.type, m.quantity, m.lot_code, m.invoice_item,
		       m.invoice_number, m.stage, m.note, m.actor, m.created_at
		FROM stock_movements m
		JOIN items i ON i.id = m.item_id
		WHERE 1=1`
	args := []any{}
	n := 0
	if from != nil {
		n++
		query += fmt.Sprintf(" AND m.created_at >= $%d", n)
		args = append(args, *from)
	}
	if to != nil {
		n++
		query += fmt.Sprintf(" AND m.created_at <= $%d", n)
		args = append(args, *to)
	}
	if search != "" {
		n++
		query += fmt.Sprintf(
			" AND (i.code ILIKE $%d OR i.description ILIKE $%d OR m.lot_code ILIKE $%d OR m.invoice_number ILIKE $%d)",
			n, n, n, n)
		args = append(args, "%"+search+"%")
	}
	query += fmt.Sprintf(" ORDER BY m.created_at DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("report movements: %w", err)
	}
	return collectMovements(rows)
}

// Recent lista los movimientos más recientes de todos los artículos.
func (r *MovementRepo) Recent(ctx context.Context, limit int) ([]*entity.Movement, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+movementColumns+` FROM stock_movements ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent movements: %w", err)
	}
	return collectMovements(rows)
}

// DeleteByLotRef borra los movimientos cuyos campos desnormalizados coinciden
// con el lote (se usa al eliminar un lote completo).
func (r *MovementRepo) DeleteByLotRef(ctx context.Context, itemID, lotCode, invoiceNumber string) error {
	_, err := r.q.Exec(ctx,
		`DELETE FROM stock_movements WHERE item_id = $1 AND lot_code = $2 AND invoice_number = $3`,
		itemID, lotCode, invoiceNumber,
	)
	if err != nil {
		return fmt.Errorf("delete movements by lot ref: %w", err)
	}
	return nil
}

// Delete elimina un movimiento por ID.
func (r *MovementRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM stock_movements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	return nil
}

// DeleteByItem borra todo el historial de movimientos del artículo.
func (r *MovementRepo) DeleteByItem(ctx context.Context, itemID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM stock_movements WHERE item_id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("delete movements by item: %w", err)
	}
	return nil
}

func scanMovement(row pgx.Row, op string) (*entity.Movement, error) {
	var m entity.Movement
	err := row.Scan(
		&m.ID, &m.ItemID, &m.Type, &m.Quantity,
		&m.LotCode, &m.InvoiceItem, &m.InvoiceNumber,
		&m.Stage, &m.Note, &m.Actor, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &m, nil
}

func collectMovements(rows pgx.Rows) ([]*entity.Movement, error) {
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		var m entity.Movement
		if err := rows.Scan(
			&m.ID, &m.ItemID, &m.Type, &m.Quantity,
			&m.LotCode, &m.InvoiceItem, &m.InvoiceNumber,
			&m.Stage, &m.Note, &m.Actor, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
