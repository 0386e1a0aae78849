package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var (
	_ repository.ConsumableRepository         = (*ConsumableRepo)(nil)
	_ repository.ConsumableMovementRepository = (*ConsumableMovementRepo)(nil)
)

const consumableColumns = `id, product_no, code, description, unit, stock_status, usage_status, category, supplier, supplier2, unit_value, lead_time, safety_stock, min_qty, quantity, created_at`

// ConsumableRepo implementación del puerto ConsumableRepository sobre PostgreSQL.
type ConsumableRepo struct {
	q Querier
}

// NewConsumableRepository construye el adaptador de persistencia para consumibles.
func NewConsumableRepository(q Querier) *ConsumableRepo {
	return &ConsumableRepo{q: q}
}

// Create persiste un nuevo consumible.
func (r *ConsumableRepo) Create(ctx context.Context, c *entity.Consumable) (*entity.Consumable, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO consumables (` + consumableColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.ProductNo, c.Code, c.Description, c.Unit,
		c.StockStatus, c.UsageStatus, c.Category, c.Supplier, c.Supplier2,
		c.UnitValue, c.LeadTime, c.SafetyStock, c.MinQty, c.Quantity, c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateCode
		}
		return nil, fmt.Errorf("insert consumable: %w", err)
	}
	return c, nil
}

// GetByID obtiene un consumible por ID. Retorna (nil, nil) si no existe.
func (r *ConsumableRepo) GetByID(ctx context.Context, id string) (*entity.Consumable, error) {
	row := r.q.QueryRow(ctx, `SELECT `+consumableColumns+` FROM consumables WHERE id = $1`, id)
	return scanConsumable(row, "get consumable")
}

// GetByCode obtiene un consumible por código. Retorna (nil, nil) si no existe.
func (r *ConsumableRepo) GetByCode(ctx context.Context, code string) (*entity.Consumable, error) {
	row := r.q.QueryRow(ctx, `SELECT `+consumableColumns+` FROM consumables WHERE code = $1`, code)
	return scanConsumable(row, "get consumable by code")
}

// Update actualiza un consumible existente (incluida la cantidad).
func (r *ConsumableRepo) Update(ctx context.Context, c *entity.Consumable) error {
	query := `
		UPDATE consumables SET product_no = $2, description = $3, unit = $4,
			stock_status = $5, usage_status = $6, category = $7, supplier = $8,
			supplier2 = $9, unit_value = $10, lead_time = $11, safety_stock = $12,
			min_qty = $13, quantity = $14
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.ProductNo, c.Description, c.Unit,
		c.StockStatus, c.UsageStatus, c.Category, c.Supplier, c.Supplier2,
		c.UnitValue, c.LeadTime, c.SafetyStock, c.MinQty, c.Quantity,
	)
	if err != nil {
		return fmt.Errorf("update consumable: %w", err)
	}
	return nil
}

// UpdateQuantity actualiza solo la cantidad corriente.
func (r *ConsumableRepo) UpdateQuantity(ctx context.Context, id string, qty decimal.Decimal) error {
	_, err := r.q.Exec(ctx, `UPDATE consumables SET quantity = $2 WHERE id = $1`, id, qty)
	if err != nil {
		return fmt.Errorf("update consumable quantity: %w", err)
	}
	return nil
}

// Search filtra por substring case-insensitive en código o descripción.
func (r *ConsumableRepo) Search(ctx context.Context, term string, limit int) ([]*entity.Consumable, error) {
	query := `
		SELECT ` + consumableColumns + ` FROM consumables
		WHERE code ILIKE $1 OR description ILIKE $1
		ORDER BY code ASC LIMIT $2`
	rows, err := r.q.Query(ctx, query, "%"+term+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search consumables: %w", err)
	}
	return collectConsumables(rows)
}

// Delete elimina un consumible por ID.
func (r *ConsumableRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM consumables WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete consumable: %w", err)
	}
	return nil
}

func scanConsumable(row pgx.Row, op string) (*entity.Consumable, error) {
	var c entity.Consumable
	err := row.Scan(
		&c.ID, &c.ProductNo, &c.Code, &c.Description, &c.Unit,
		&c.StockStatus, &c.UsageStatus, &c.Category, &c.Supplier, &c.Supplier2,
		&c.UnitValue, &c.LeadTime, &c.SafetyStock, &c.MinQty, &c.Quantity, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &c, nil
}

func collectConsumables(rows pgx.Rows) ([]*entity.Consumable, error) {
	defer rows.Close()
	var list []*entity.Consumable
	for rows.Next() {
		var c entity.Consumable
		if err := rows.Scan(
			&c.ID, &c.ProductNo, &c.Code, &c.Description, &c.Unit,
			&c.StockStatus, &c.UsageStatus, &c.Category, &c.Supplier, &c.Supplier2,
			&c.UnitValue, &c.LeadTime, &c.SafetyStock, &c.MinQty, &c.Quantity, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan consumable: %w", err)
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}

// ConsumableMovementRepo implementación del libro de consumibles sobre PostgreSQL.
type ConsumableMovementRepo struct {
	q Querier
}

// NewConsumableMovementRepository construye el adaptador del libro de consumibles.
func NewConsumableMovementRepository(q Querier) *ConsumableMovementRepo {
	return &ConsumableMovementRepo{q: q}
}

const consumableMovementColumns = `id, consumable_id, type, quantity, sector, note, actor, created_at`

// Create persiste un movimiento de consumible.
func (r *ConsumableMovementRepo) Create(ctx context.Context, mov *entity.ConsumableMovement) (*entity.ConsumableMovement, error) {
	if mov.ID == "" {
		mov.ID = uuid.New().String()
	}
	if mov.CreatedAt.IsZero() {
		mov.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO consumable_movements (` + consumableMovementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		mov.ID, mov.ConsumableID, mov.Type, mov.Quantity,
		mov.Sector, mov.Note, mov.Actor, mov.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert consumable movement: %w", err)
	}
	return mov, nil
}

// Recent lista los últimos movimientos de consumibles.
func (r *ConsumableMovementRepo) Recent(ctx context.Context, limit int) ([]*entity.ConsumableMovement, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+consumableMovementColumns+` FROM consumable_movements ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent consumable movements: %w", err)
	}
	return collectConsumableMovements(rows)
}

// ListByConsumable lista movimientos de un consumible con paginación.
func (r *ConsumableMovementRepo) ListByConsumable(ctx context.Context, consumableID string, limit, offset int) ([]*entity.ConsumableMovement, error) {
	query := `
		SELECT ` + consumableMovementColumns + ` FROM consumable_movements
		WHERE consumable_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, consumableID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list consumable movements: %w", err)
	}
	return collectConsumableMovements(rows)
}

func collectConsumableMovements(rows pgx.Rows) ([]*entity.ConsumableMovement, error) {
	defer rows.Close()
	var list []*entity.ConsumableMovement
	for rows.Next() {
		var m entity.ConsumableMovement
		if err := rows.Scan(
			&m.ID, &m.ConsumableID, &m.Type, &m.Quantity,
			&m.Sector, &m.Note, &m.Actor, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan consumable movement: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
