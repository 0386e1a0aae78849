package supabase

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var (
	_ repository.ConsumableRepository         = (*ConsumableRepo)(nil)
	_ repository.ConsumableMovementRepository = (*ConsumableMovementRepo)(nil)
)

const (
	consumablesTable         = "consumables"
	consumableMovementsTable = "consumable_movements"
)

// ConsumableRepo implementación del puerto ConsumableRepository sobre la API de tablas.
type ConsumableRepo struct {
	c *Client
}

// NewConsumableRepository construye el adaptador de consumibles.
func NewConsumableRepository(c *Client) *ConsumableRepo {
	return &ConsumableRepo{c: c}
}

// Create persiste un nuevo consumible.
func (r *ConsumableRepo) Create(ctx context.Context, con *entity.Consumable) (*entity.Consumable, error) {
	if con.ID == "" {
		con.ID = uuid.New().String()
	}
	if con.CreatedAt.IsZero() {
		con.CreatedAt = time.Now().UTC()
	}
	var rows []consumableRow
	if err := r.c.insertRow(ctx, consumablesTable, consumableToRow(con), &rows); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateCode
		}
		return nil, fmt.Errorf("insert consumable: %w", err)
	}
	if len(rows) > 0 {
		return rows[0].toEntity(), nil
	}
	return con, nil
}

// GetByID obtiene un consumible por ID. Retorna (nil, nil) si no existe.
func (r *ConsumableRepo) GetByID(ctx context.Context, id string) (*entity.Consumable, error) {
	return r.getOne(ctx, eq(nil, "id", id), "get consumable")
}

// GetByCode obtiene un consumible por código. Retorna (nil, nil) si no existe.
func (r *ConsumableRepo) GetByCode(ctx context.Context, code string) (*entity.Consumable, error) {
	return r.getOne(ctx, eq(nil, "code", code), "get consumable by code")
}

func (r *ConsumableRepo) getOne(ctx context.Context, q url.Values, op string) (*entity.Consumable, error) {
	q.Set("limit", "1")
	var rows []consumableRow
	if err := r.c.selectRows(ctx, consumablesTable, q, &rows); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toEntity(), nil
}

// Update actualiza un consumible existente (incluida la cantidad).
func (r *ConsumableRepo) Update(ctx context.Context, con *entity.Consumable) error {
	patch := map[string]any{
		"product_no":   con.ProductNo,
		"description":  con.Description,
		"unit":         con.Unit,
		"stock_status": con.StockStatus,
		"usage_status": con.UsageStatus,
		"category":     con.Category,
		"supplier":     con.Supplier,
		"supplier2":    con.Supplier2,
		"unit_value":   con.UnitValue,
		"lead_time":    con.LeadTime,
		"safety_stock": con.SafetyStock,
		"min_qty":      con.MinQty,
		"quantity":     con.Quantity,
	}
	if err := r.c.updateRows(ctx, consumablesTable, eq(nil, "id", con.ID), patch); err != nil {
		return fmt.Errorf("update consumable: %w", err)
	}
	return nil
}

// UpdateQuantity actualiza solo la cantidad corriente.
func (r *ConsumableRepo) UpdateQuantity(ctx context.Context, id string, qty decimal.Decimal) error {
	patch := map[string]any{"quantity": qty}
	if err := r.c.updateRows(ctx, consumablesTable, eq(nil, "id", id), patch); err != nil {
		return fmt.Errorf("update consumable quantity: %w", err)
	}
	return nil
}

// Search filtra por substring case-insensitive en código o descripción.
func (r *ConsumableRepo) Search(ctx context.Context, term string, limit int) ([]*entity.Consumable, error) {
	q := url.Values{}
	q.Set("or", fmt.Sprintf("(code.ilike.*%s*,description.ilike.*%s*)", term, term))
	q.Set("order", "code.asc")
	q.Set("limit", strconv.Itoa(limit))
	var rows []consumableRow
	if err := r.c.selectRows(ctx, consumablesTable, q, &rows); err != nil {
		return nil, fmt.Errorf("search consumables: %w", err)
	}
	list := make([]*entity.Consumable, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.toEntity())
	}
	return list, nil
}

// Delete elimina un consumible por ID.
func (r *ConsumableRepo) Delete(ctx context.Context, id string) error {
	if err := r.c.deleteRows(ctx, consumablesTable, eq(nil, "id", id)); err != nil {
		return fmt.Errorf("delete consumable: %w", err)
	}
	return nil
}

// ConsumableMovementRepo libro de consumibles sobre la API de tablas.
type ConsumableMovementRepo struct {
	c *Client
}

// NewConsumableMovementRepository construye el adaptador del libro de consumibles.
func NewConsumableMovementRepository(c *Client) *ConsumableMovementRepo {
	return &ConsumableMovementRepo{c: c}
}

// Create persiste un movimiento de consumible.
func (r *ConsumableMovementRepo) Create(ctx context.Context, mov *entity.ConsumableMovement) (*entity.ConsumableMovement, error) {
	if mov.ID == "" {
		mov.ID = uuid.New().String()
	}
	if mov.CreatedAt.IsZero() {
		mov.CreatedAt = time.Now().UTC()
	}
	var rows []consumableMovementRow
	if err := r.c.insertRow(ctx, consumableMovementsTable, consumableMovementToRow(mov), &rows); err != nil {
		return nil, fmt.Errorf("insert consumable movement: %w", err)
	}
	if len(rows) > 0 {
		return rows[0].toEntity(), nil
	}
	return mov, nil
}

// Recent lista los últimos movimientos de consumibles.
func (r *ConsumableMovementRepo) Recent(ctx context.Context, limit int) ([]*entity.ConsumableMovement, error) {
	q := url.Values{}
	q.Set("order", "created_at.desc")
	q.Set("limit", strconv.Itoa(limit))
	return r.list(ctx, q, "recent consumable movements")
}

// ListByConsumable lista movimientos de un consumible con paginación.
func (r *ConsumableMovementRepo) ListByConsumable(ctx context.Context, consumableID string, limit, offset int) ([]*entity.ConsumableMovement, error) {
	q := eq(nil, "consumable_id", consumableID)
	q.Set("order", "created_at.desc")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return r.list(ctx, q, "list consumable movements")
}

func (r *ConsumableMovementRepo) list(ctx context.Context, q url.Values, op string) ([]*entity.ConsumableMovement, error) {
	var rows []consumableMovementRow
	if err := r.c.selectRows(ctx, consumableMovementsTable, q, &rows); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	list := make([]*entity.ConsumableMovement, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.toEntity())
	}
	return list, nil
}
