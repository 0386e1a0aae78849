package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.LotRepository = (*LotRepo)(nil)

const lotColumns = `id, item_id, lot_code, invoice_item, invoice_number, expiry, station, quantity, entered_at, label_status, label_at, label_by`

// LotRepo implementación del puerto LotRepository sobre PostgreSQL.
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador de persistencia para lotes.
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

// Create persiste un nuevo lote.
func (r *LotRepo) Create(ctx context.Context, lot *entity.Lot) (*entity.Lot, error) {
	if lot.ID == "" {
		lot.ID = uuid.New().String()
	}
	if lot.EnteredAt.IsZero() {
		lot.EnteredAt = time.Now().UTC()
	}
	query := `
		INSERT INTO lots (` + lotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		lot.ID, lot.ItemID, lot.LotCode, lot.InvoiceItem, lot.InvoiceNumber,
		lot.Expiry, lot.Station, lot.Quantity, lot.EnteredAt,
		lot.LabelStatus, lot.LabelAt, lot.LabelBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert lot: %w", err)
	}
	return lot, nil
}

// GetByID obtiene un lote por ID. Retorna (nil, nil) si no existe.
func (r *LotRepo) GetByID(ctx context.Context, id string) (*entity.Lot, error) {
	row := r.q.QueryRow(ctx, `SELECT `+lotColumns+` FROM lots WHERE id = $1`, id)
	return scanLot(row, "get lot")
}

// GetByKey busca el lote por su tupla identificadora dentro del artículo.
func (r *LotRepo) GetByKey(ctx context.Context, itemID string, key entity.LotKey) (*entity.Lot, error) {
	query := `
		SELECT ` + lotColumns + ` FROM lots
		WHERE item_id = $1 AND lot_code = $2 AND invoice_item = $3 AND invoice_number = $4`
	row := r.q.QueryRow(ctx, query, itemID, key.LotCode, key.InvoiceItem, key.InvoiceNumber)
	return scanLot(row, "get lot by key")
}

// FindByMovementRef localiza el lote por los campos desnormalizados de un
// movimiento. Si hay varios, devuelve el de entrada más reciente.
func (r *LotRepo) FindByMovementRef(ctx context.Context, itemID, lotCode, invoiceNumber string) (*entity.Lot, error) {
	query := `
		SELECT ` + lotColumns + ` FROM lots
		WHERE item_id = $1 AND lot_code = $2 AND invoice_number = $3
		ORDER BY entered_at DESC LIMIT 1`
	row := r.q.QueryRow(ctx, query, itemID, lotCode, invoiceNumber)
	return scanLot(row, "find lot by movement ref")
}

// LastEntered devuelve el lote de entrada más reciente del artículo.
func (r *LotRepo) LastEntered(ctx context.Context, itemID string) (*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE item_id = $1 ORDER BY entered_at DESC LIMIT 1`
	row := r.q.QueryRow(ctx, query, itemID)
	return scanLot(row, "last entered lot")
}

// ListByItem lista los lotes del artículo ordenados por fecha de entrada.
func (r *LotRepo) ListByItem(ctx context.Context, itemID string) ([]*entity.Lot, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+lotColumns+` FROM lots WHERE item_id = $1 ORDER BY entered_at ASC`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	return collectLots(rows)
}

// Update actualiza los campos descriptivos y la cantidad de un lote.
func (r *LotRepo) Update(ctx context.Context, lot *entity.Lot) error {
	query := `
		UPDATE lots SET lot_code = $2, invoice_item = $3, invoice_number = $4, expiry = $5,
			station = $6, quantity = $7, label_status = $8, label_at = $9, label_by = $10
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		lot.ID, lot.LotCode, lot.InvoiceItem, lot.InvoiceNumber, lot.Expiry,
		lot.Station, lot.Quantity, lot.LabelStatus, lot.LabelAt, lot.LabelBy,
	)
	if err != nil {
		return fmt.Errorf("update lot: %w", err)
	}
	return nil
}

// UpdateQuantity actualiza solo la cantidad del lote (usado por el motor de stock).
func (r *LotRepo) UpdateQuantity(ctx context.Context, id string, qty decimal.Decimal) error {
	_, err := r.q.Exec(ctx, `UPDATE lots SET quantity = $2 WHERE id = $1`, id, qty)
	if err != nil {
		return fmt.Errorf("update lot quantity: %w", err)
	}
	return nil
}

// UpdateLabel actualiza el estado de etiqueta de control de vencimiento.
func (r *LotRepo) UpdateLabel(ctx context.Context, id, status string, at *time.Time, by string) error {
	_, err := r.q.Exec(ctx,
		`UPDATE lots SET label_status = $2, label_at = $3, label_by = $4 WHERE id = $1`,
		id, status, at, by,
	)
	if err != nil {
		return fmt.Errorf("update lot label: %w", err)
	}
	return nil
}

// ListExpiring lista lotes con cantidad positiva que vencen dentro de `days` días.
func (r *LotRepo) ListExpiring(ctx context.Context, days int, pendingOnly bool) ([]*entity.Lot, error) {
	query := `
		SELECT ` + lotColumns + ` FROM lots
		WHERE quantity > 0 AND expiry IS NOT NULL
		  AND expiry <= (CURRENT_DATE + $1 * INTERVAL '1 day')`
	args := []any{days}
	if pendingOnly {
		query += ` AND (label_status = $2 OR label_status = '')`
		args = append(args, entity.LabelPending)
	}
	query += ` ORDER BY expiry ASC, entered_at ASC`
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expiring lots: %w", err)
	}
	return collectLots(rows)
}

// ListLabelHistory lista lotes ya etiquetados CONCLUIDO, más recientes primero.
func (r *LotRepo) ListLabelHistory(ctx context.Context, limit int) ([]*entity.Lot, error) {
	query := `
		SELECT ` + lotColumns + ` FROM lots
		WHERE label_status = $1
		ORDER BY label_at DESC NULLS LAST LIMIT $2`
	rows, err := r.q.Query(ctx, query, entity.LabelDone, limit)
	if err != nil {
		return nil, fmt.Errorf("list label history: %w", err)
	}
	return collectLots(rows)
}

// Delete elimina un lote por ID.
func (r *LotRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM lots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lot: %w", err)
	}
	return nil
}

// DeleteByItem borra todos los lotes del artículo.
func (r *LotRepo) DeleteByItem(ctx context.Context, itemID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM lots WHERE item_id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("delete lots by item: %w", err)
	}
	return nil
}

func scanLot(row pgx.Row, op string) (*entity.Lot, error) {
	var l entity.Lot
	err := row.Scan(
		&l.ID, &l.ItemID, &l.LotCode, &l.InvoiceItem, &l.InvoiceNumber,
		&l.Expiry, &l.Station, &l.Quantity, &l.EnteredAt,
		&l.LabelStatus, &l.LabelAt, &l.LabelBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &l, nil
}

func collectLots(rows pgx.Rows) ([]*entity.Lot, error) {
	defer rows.Close()
	var list []*entity.Lot
	for rows.Next() {
		var l entity.Lot
		if err := rows.Scan(
			&l.ID, &l.ItemID, &l.LotCode, &l.InvoiceItem, &l.InvoiceNumber,
			&l.Expiry, &l.Station, &l.Quantity, &l.EnteredAt,
			&l.LabelStatus, &l.LabelAt, &l.LabelBy,
		); err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}
