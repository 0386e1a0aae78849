package supabase

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.LotRepository = (*LotRepo)(nil)

const lotsTable = "lots"

// LotRepo implementación del puerto LotRepository sobre la API de tablas.
type LotRepo struct {
	c *Client
}

// NewLotRepository construye el adaptador de lotes.
func NewLotRepository(c *Client) *LotRepo {
	return &LotRepo{c: c}
}

// Create persiste un nuevo lote.
func (r *LotRepo) Create(ctx context.Context, lot *entity.Lot) (*entity.Lot, error) {
	if lot.ID == "" {
		lot.ID = uuid.New().String()
	}
	if lot.EnteredAt.IsZero() {
		lot.EnteredAt = time.Now().UTC()
	}
	var rows []lotRow
	if err := r.c.insertRow(ctx, lotsTable, lotToRow(lot), &rows); err != nil {
		return nil, fmt.Errorf("insert lot: %w", err)
	}
	if len(rows) > 0 {
		return rows[0].toEntity(), nil
	}
	return lot, nil
}

// GetByID obtiene un lote por ID. Retorna (nil, nil) si no existe.
func (r *LotRepo) GetByID(ctx context.Context, id string) (*entity.Lot, error) {
	return r.getOne(ctx, eq(nil, "id", id), "get lot")
}

// GetByKey busca el lote por su tupla identificadora dentro del artículo.
func (r *LotRepo) GetByKey(ctx context.Context, itemID string, key entity.LotKey) (*entity.Lot, error) {
	q := eq(nil, "item_id", itemID)
	eq(q, "lot_code", key.LotCode)
	eq(q, "invoice_item", key.InvoiceItem)
	eq(q, "invoice_number", key.InvoiceNumber)
	return r.getOne(ctx, q, "get lot by key")
}

// FindByMovementRef localiza el lote por los campos desnormalizados de un
// movimiento; el de entrada más reciente si hay varios.
func (r *LotRepo) FindByMovementRef(ctx context.Context, itemID, lotCode, invoiceNumber string) (*entity.Lot, error) {
	q := eq(nil, "item_id", itemID)
	eq(q, "lot_code", lotCode)
	eq(q, "invoice_number", invoiceNumber)
	q.Set("order", "entered_at.desc")
	return r.getOne(ctx, q, "find lot by movement ref")
}

// LastEntered devuelve el lote de entrada más reciente del artículo.
func (r *LotRepo) LastEntered(ctx context.Context, itemID string) (*entity.Lot, error) {
	q := eq(nil, "item_id", itemID)
	q.Set("order", "entered_at.desc")
	return r.getOne(ctx, q, "last entered lot")
}

func (r *LotRepo) getOne(ctx context.Context, q url.Values, op string) (*entity.Lot, error) {
	q.Set("limit", "1")
	var rows []lotRow
	if err := r.c.selectRows(ctx, lotsTable, q, &rows); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toEntity(), nil
}

// ListByItem lista los lotes del artículo por fecha de entrada.
func (r *LotRepo) ListByItem(ctx context.Context, itemID string) ([]*entity.Lot, error) {
	q := eq(nil, "item_id", itemID)
	q.Set("order", "entered_at.asc")
	return r.list(ctx, q, "list lots")
}

// Update actualiza los campos descriptivos y la cantidad de un lote.
func (r *LotRepo) Update(ctx context.Context, lot *entity.Lot) error {
	patch := map[string]any{
		"lot_code":       lot.LotCode,
		"invoice_item":   lot.InvoiceItem,
		"invoice_number": lot.InvoiceNumber,
		"expiry":         formatDate(lot.Expiry),
		"station":        lot.Station,
		"quantity":       lot.Quantity,
		"label_status":   lot.LabelStatus,
		"label_at":       formatTimestampPtr(lot.LabelAt),
		"label_by":       lot.LabelBy,
	}
	if err := r.c.updateRows(ctx, lotsTable, eq(nil, "id", lot.ID), patch); err != nil {
		return fmt.Errorf("update lot: %w", err)
	}
	return nil
}

// UpdateQuantity actualiza solo la cantidad del lote.
func (r *LotRepo) UpdateQuantity(ctx context.Context, id string, qty decimal.Decimal) error {
	patch := map[string]any{"quantity": qty}
	if err := r.c.updateRows(ctx, lotsTable, eq(nil, "id", id), patch); err != nil {
		return fmt.Errorf("update lot quantity: %w", err)
	}
	return nil
}

// UpdateLabel actualiza el estado de etiqueta del lote.
func (r *LotRepo) UpdateLabel(ctx context.Context, id, status string, at *time.Time, by string) error {
	patch := map[string]any{
		"label_status": status,
		"label_at":     formatTimestampPtr(at),
		"label_by":     by,
	}
	if err := r.c.updateRows(ctx, lotsTable, eq(nil, "id", id), patch); err != nil {
		return fmt.Errorf("update lot label: %w", err)
	}
	return nil
}

// ListExpiring lista lotes con cantidad positiva que vencen dentro de `days` días.
func (r *LotRepo) ListExpiring(ctx context.Context, days int, pendingOnly bool) ([]*entity.Lot, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, days).Format(dateLayout)
	q := url.Values{}
	q.Set("quantity", "gt.0")
	q.Set("expiry", "lte."+cutoff)
	if pendingOnly {
		q.Set("or", fmt.Sprintf("(label_status.eq.%s,label_status.eq.)", entity.LabelPending))
	}
	q.Set("order", "expiry.asc,entered_at.asc")
	return r.list(ctx, q, "list expiring lots")
}

// ListLabelHistory lista lotes ya etiquetados CONCLUIDO, más recientes primero.
func (r *LotRepo) ListLabelHistory(ctx context.Context, limit int) ([]*entity.Lot, error) {
	q := eq(nil, "label_status", entity.LabelDone)
	q.Set("order", "label_at.desc.nullslast")
	q.Set("limit", strconv.Itoa(limit))
	return r.list(ctx, q, "list label history")
}

func (r *LotRepo) list(ctx context.Context, q url.Values, op string) ([]*entity.Lot, error) {
	var rows []lotRow
	if err := r.c.selectRows(ctx, lotsTable, q, &rows); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	list := make([]*entity.Lot, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.toEntity())
	}
	return list, nil
}

// Delete elimina un lote por ID.
func (r *LotRepo) Delete(ctx context.Context, id string) error {
	if err := r.c.deleteRows(ctx, lotsTable, eq(nil, "id", id)); err != nil {
		return fmt.Errorf("delete lot: %w", err)
	}
	return nil
}

// DeleteByItem borra todos los lotes del artículo.
func (r *LotRepo) DeleteByItem(ctx context.Context, itemID string) error {
	if err := r.c.deleteRows(ctx, lotsTable, eq(nil, "item_id", itemID)); err != nil {
		return fmt.Errorf("delete lots by item: %w", err)
	}
	return nil
}
