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

var _ repository.ItemRepository = (*ItemRepo)(nil)

const itemsTable = "items"

// ItemRepo implementación del puerto ItemRepository sobre la API de tablas.
type ItemRepo struct {
	c *Client
}

// NewItemRepository construye el adaptador de artículos.
func NewItemRepository(c *Client) *ItemRepo {
	return &ItemRepo{c: c}
}

// Create persiste un nuevo artículo.
func (r *ItemRepo) Create(ctx context.Context, item *entity.Item) (*entity.Item, error) {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	var rows []itemRow
	if err := r.c.insertRow(ctx, itemsTable, itemToRow(item), &rows); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateCode
		}
		return nil, fmt.Errorf("insert item: %w", err)
	}
	if len(rows) > 0 {
		return rows[0].toEntity(), nil
	}
	return item, nil
}

// GetByID obtiene un artículo por ID. Retorna (nil, nil) si no existe.
func (r *ItemRepo) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	return r.getOne(ctx, eq(nil, "id", id), "get item")
}

// GetByCode obtiene un artículo por código. Retorna (nil, nil) si no existe.
func (r *ItemRepo) GetByCode(ctx context.Context, code string) (*entity.Item, error) {
	return r.getOne(ctx, eq(nil, "code", code), "get item by code")
}

func (r *ItemRepo) getOne(ctx context.Context, q url.Values, op string) (*entity.Item, error) {
	q.Set("limit", "1")
	var rows []itemRow
	if err := r.c.selectRows(ctx, itemsTable, q, &rows); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toEntity(), nil
}

// Update actualiza un artículo existente sin tocar qty_on_hand.
func (r *ItemRepo) Update(ctx context.Context, item *entity.Item) error {
	patch := map[string]any{
		"code":           item.Code,
		"optional_code":  item.OptionalCode,
		"description":    item.Description,
		"type":           item.Type,
		"unit":           item.Unit,
		"dimension":      item.Dimension,
		"client":         item.Client,
		"address":        item.Address,
		"min_qty":        item.MinQty,
		"ideal_buy_qty":  item.IdealBuyQty,
		"lead_time_days": item.LeadTimeDays,
	}
	if err := r.c.updateRows(ctx, itemsTable, eq(nil, "id", item.ID), patch); err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// UpdateQuantity actualiza solo el total del artículo.
func (r *ItemRepo) UpdateQuantity(ctx context.Context, id string, qty decimal.Decimal) error {
	patch := map[string]any{"qty_on_hand": qty}
	if err := r.c.updateRows(ctx, itemsTable, eq(nil, "id", id), patch); err != nil {
		return fmt.Errorf("update item quantity: %w", err)
	}
	return nil
}

// Search busca por substring case-insensitive en código o descripción.
func (r *ItemRepo) Search(ctx context.Context, term string, limit int) ([]*entity.Item, error) {
	q := url.Values{}
	q.Set("or", fmt.Sprintf("(code.ilike.*%s*,description.ilike.*%s*)", term, term))
	q.Set("order", "code.asc")
	q.Set("limit", strconv.Itoa(limit))
	return r.list(ctx, q, "search items")
}

// List lista artículos con paginación.
func (r *ItemRepo) List(ctx context.Context, limit, offset int) ([]*entity.Item, error) {
	q := url.Values{}
	q.Set("order", "code.asc")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return r.list(ctx, q, "list items")
}

// ListWithStock lista artículos con existencia positiva.
func (r *ItemRepo) ListWithStock(ctx context.Context, limit int) ([]*entity.Item, error) {
	q := url.Values{}
	q.Set("qty_on_hand", "gt.0")
	q.Set("order", "code.asc")
	q.Set("limit", strconv.Itoa(limit))
	return r.list(ctx, q, "list items with stock")
}

func (r *ItemRepo) list(ctx context.Context, q url.Values, op string) ([]*entity.Item, error) {
	var rows []itemRow
	if err := r.c.selectRows(ctx, itemsTable, q, &rows); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	list := make([]*entity.Item, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.toEntity())
	}
	return list, nil
}

// Delete elimina un artículo por ID.
func (r *ItemRepo) Delete(ctx context.Context, id string) error {
	if err := r.c.deleteRows(ctx, itemsTable, eq(nil, "id", id)); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}
