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

var _ repository.ItemRepository = (*ItemRepo)(nil)

const itemColumns = `id, code, optional_code, description, type, unit, dimension, client, address, qty_on_hand, min_qty, ideal_buy_qty, lead_time_days, created_at`

// ItemRepo implementación del puerto ItemRepository sobre PostgreSQL.
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador de persistencia para artículos.
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

// Create persiste un nuevo artículo.
func (r *ItemRepo) Create(ctx context.Context, item *entity.Item) (*entity.Item, error) {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		item.ID, item.Code, item.OptionalCode, item.Description, item.Type,
		item.Unit, item.Dimension, item.Client, item.Address,
		item.QtyOnHand, item.MinQty, item.IdealBuyQty, item.LeadTimeDays, item.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateCode
		}
		return nil, fmt.Errorf("insert item: %w", err)
	}
	return item, nil
}

// GetByID obtiene un artículo por ID. Retorna (nil, nil) si no existe.
func (r *ItemRepo) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	row := r.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
	return scanItem(row, "get item")
}

// GetByCode obtiene un artículo por código único. Retorna (nil, nil) si no existe.
func (r *ItemRepo) GetByCode(ctx context.Context, code string) (*entity.Item, error) {
	row := r.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE code = $1`, code)
	return scanItem(row, "get item by code")
}

// Update actualiza un artículo existente. No toca qty_on_hand (eso se maneja
// vía UpdateQuantity desde el motor de stock).
func (r *ItemRepo) Update(ctx context.Context, item *entity.Item) error {
	query := `
		UPDATE items SET code = $2, optional_code = $3, description = $4, type = $5,
			unit = $6, dimension = $7, client = $8, address = $9, min_qty = $10,
			ideal_buy_qty = $11, lead_time_days = $12
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		item.ID, item.Code, item.OptionalCode, item.Description, item.Type, item.Unit,
		item.Dimension, item.Client, item.Address, item.MinQty, item.IdealBuyQty,
		item.LeadTimeDays,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// UpdateQuantity actualiza solo el total del artículo (usado por el motor de stock).
func (r *ItemRepo) UpdateQuantity(ctx context.Context, id string, qty decimal.Decimal) error {
	_, err := r.q.Exec(ctx, `UPDATE items SET qty_on_hand = $2 WHERE id = $1`, id, qty)
	if err != nil {
		return fmt.Errorf("update item quantity: %w", err)
	}
	return nil
}

// Search busca por substring case-insensitive en código o descripción.
func (r *ItemRepo) Search(ctx context.Context, term string, limit int) ([]*entity.Item, error) {
	query := `
		SELECT ` + itemColumns + ` FROM items
		WHERE code ILIKE $1 OR description ILIKE $1
		ORDER BY code ASC LIMIT $2`
	rows, err := r.q.Query(ctx, query, "%"+term+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	return collectItems(rows)
}

// List lista artículos con paginación.
func (r *ItemRepo) List(ctx context.Context, limit, offset int) ([]*entity.Item, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+itemColumns+` FROM items ORDER BY code ASC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return collectItems(rows)
}

// ListWithStock lista artículos con existencia positiva (insumo del forecast).
func (r *ItemRepo) ListWithStock(ctx context.Context, limit int) ([]*entity.Item, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+itemColumns+` FROM items WHERE qty_on_hand > 0 ORDER BY code ASC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list items with stock: %w", err)
	}
	return collectItems(rows)
}

// Delete elimina un artículo por ID.
func (r *ItemRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

func scanItem(row pgx.Row, op string) (*entity.Item, error) {
	var it entity.Item
	err := row.Scan(
		&it.ID, &it.Code, &it.OptionalCode, &it.Description, &it.Type,
		&it.Unit, &it.Dimension, &it.Client, &it.Address,
		&it.QtyOnHand, &it.MinQty, &it.IdealBuyQty, &it.LeadTimeDays, &it.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &it, nil
}

func collectItems(rows pgx.Rows) ([]*entity.Item, error) {
	defer rows.Close()
	var list []*entity.Item
	for rows.Next() {
		var it entity.Item
		if err := rows.Scan(
			&it.ID, &it.Code, &it.OptionalCode, &it.Description, &it.Type,
			&it.Unit, &it.Dimension, &it.Client, &it.Address,
			&it.QtyOnHand, &it.MinQty, &it.IdealBuyQty, &it.LeadTimeDays, &it.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}
