package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
	domstock "github.com/jhoicas/Almacen-api/internal/domain/stock"
)

// Engine es el motor de asignación de lotes: crea/fusiona lotes en recepción,
// selecciona y agota lotes en salida (FIFO/FEFO), calcula deltas de ajuste y
// revierte movimientos manteniendo consistentes los tres agregados
// (total del artículo, cantidad del lote y libro de movimientos).
//
// No asume transacciones entre stores: escrituras ordenadas + compensación
// (undoStack) y serialización por artículo (itemLocks).
type Engine struct {
	items    repository.ItemRepository
	lots     repository.LotRepository
	movs     repository.MovementRepository
	notifier Notifier
	locks    *itemLocks
	now      func() time.Time
}

// NewEngine construye el motor de stock.
func NewEngine(
	items repository.ItemRepository,
	lots repository.LotRepository,
	movs repository.MovementRepository,
	notifier Notifier,
) *Engine {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Engine{
		items:    items,
		lots:     lots,
		movs:     movs,
		notifier: notifier,
		locks:    newItemLocks(),
		now:      time.Now,
	}
}

// ── Registro de artículo ──────────────────────────────────────────────────────

// RegisterItemInput datos para registrar un artículo con su primer lote.
type RegisterItemInput struct {
	Code         string
	OptionalCode string
	Description  string
	Type         string
	Unit         string
	Dimension    string
	Client       string
	Address      string
	MinQty       decimal.Decimal
	IdealBuyQty  decimal.Decimal
	LeadTimeDays int

	LotKey   entity.LotKey
	Expiry   *time.Time
	Quantity decimal.Decimal

	Actor string
}

// RegisterItemResult artículo y lote creados.
type RegisterItemResult struct {
	Item *entity.Item
	Lot  *entity.Lot
}

// RegisterItem crea el artículo con QtyOnHand igual a la entrada inicial, un
// lote y un movimiento ENTRADA. Si un paso posterior a la creación del
// artículo falla, compensa borrando el huérfano y reporta PartialFailureError.
func (e *Engine) RegisterItem(ctx context.Context, in RegisterItemInput) (*RegisterItemResult, error) {
	if in.Code == "" || in.Description == "" {
		return nil, fmt.Errorf("%w: código y descripción", domain.ErrMissingField)
	}
	if in.LotKey.LotCode == "" || in.LotKey.InvoiceItem == "" {
		return nil, fmt.Errorf("%w: lote e ítem de factura", domain.ErrMissingField)
	}
	if !in.Quantity.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}

	existing, err := e.items.GetByCode(ctx, in.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateCode, in.Code)
	}

	now := e.now()
	minQty := in.MinQty
	if minQty.IsZero() {
		minQty = decimal.NewFromInt(entity.DefaultMinQty)
	}
	leadTime := in.LeadTimeDays
	if leadTime <= 0 {
		leadTime = entity.DefaultLeadTimeDays
	}

	item := &entity.Item{
		ID:           uuid.New().String(),
		Code:         in.Code,
		OptionalCode: in.OptionalCode,
		Description:  in.Description,
		Type:         in.Type,
		Unit:         in.Unit,
		Dimension:    in.Dimension,
		Client:       in.Client,
		Address:      in.Address,
		QtyOnHand:    in.Quantity,
		MinQty:       minQty,
		IdealBuyQty:  in.IdealBuyQty,
		LeadTimeDays: leadTime,
		CreatedAt:    now,
	}

	var undo undoStack

	if _, err := e.items.Create(ctx, item); err != nil {
		return nil, err
	}
	undo.push(func(ctx context.Context) error { return e.items.Delete(ctx, item.ID) })

	lot := &entity.Lot{
		ID:            uuid.New().String(),
		ItemID:        item.ID,
		LotCode:       in.LotKey.LotCode,
		InvoiceItem:   in.LotKey.InvoiceItem,
		InvoiceNumber: in.LotKey.InvoiceNumber,
		Expiry:        in.Expiry,
		Station:       entity.DefaultStation,
		Quantity:      in.Quantity,
		EnteredAt:     now,
		LabelStatus:   entity.LabelPending,
	}
	if _, err := e.lots.Create(ctx, lot); err != nil {
		return nil, e.compensate(ctx, &undo, err)
	}
	undo.push(func(ctx context.Context) error { return e.lots.Delete(ctx, lot.ID) })

	mov := &entity.Movement{
		ID:            uuid.New().String(),
		ItemID:        item.ID,
		Type:          entity.MovementEntrada,
		Quantity:      in.Quantity,
		LotCode:       lot.LotCode,
		InvoiceItem:   lot.InvoiceItem,
		InvoiceNumber: lot.InvoiceNumber,
		Stage:         "REGISTRO",
		Note:          "Entrada inicial por registro de artículo nuevo.",
		Actor:         in.Actor,
		CreatedAt:     now,
	}
	if _, err := e.movs.Create(ctx, mov); err != nil {
		return nil, e.compensate(ctx, &undo, err)
	}

	e.notifier.Notify("dashboard_update", map[string]any{"message": "Artículo registrado", "item_id": item.ID})
	return &RegisterItemResult{Item: item, Lot: lot}, nil
}

// ── Edición y eliminación de artículo ─────────────────────────────────────────

// UpdateItemInput campos editables de un artículo. La cantidad en stock no se
// edita por aquí: solo cambia vía recepciones, salidas y ajustes de lote.
type UpdateItemInput struct {
	ItemID       string
	Code         string
	OptionalCode string
	Description  string
	Type         string
	Unit         string
	Dimension    string
	Client       string
	Address      string
	MinQty       decimal.Decimal
	IdealBuyQty  decimal.Decimal
	LeadTimeDays int
}

// UpdateItem edita los datos maestros del artículo: descripción, código
// (verificando duplicados), dirección y los parámetros de reposición que
// alimentan las sugerencias de compra (mínimo, ideal, tiempo de reposición).
func (e *Engine) UpdateItem(ctx context.Context, in UpdateItemInput) (*entity.Item, error) {
	if in.Code == "" || in.Description == "" {
		return nil, fmt.Errorf("%w: código y descripción", domain.ErrMissingField)
	}

	unlock := e.locks.Lock(in.ItemID)
	defer unlock()

	item, err := e.items.GetByID(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	if in.Code != item.Code {
		existing, err := e.items.GetByCode(ctx, in.Code)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != item.ID {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateCode, in.Code)
		}
	}

	minQty := in.MinQty
	if minQty.IsZero() {
		minQty = decimal.NewFromInt(entity.DefaultMinQty)
	}
	leadTime := in.LeadTimeDays
	if leadTime <= 0 {
		leadTime = entity.DefaultLeadTimeDays
	}

	item.Code = in.Code
	item.OptionalCode = in.OptionalCode
	item.Description = in.Description
	item.Type = in.Type
	item.Unit = in.Unit
	item.Dimension = in.Dimension
	item.Client = in.Client
	item.Address = in.Address
	item.MinQty = minQty
	item.IdealBuyQty = in.IdealBuyQty
	item.LeadTimeDays = leadTime

	if err := e.items.Update(ctx, item); err != nil {
		return nil, err
	}

	e.notifier.Notify("dashboard_update", map[string]any{"message": "Artículo actualizado", "item_id": item.ID})
	return item, nil
}

// DeleteItem elimina el artículo en cascada: primero su historial de
// movimientos, luego sus lotes y por último el artículo.
func (e *Engine) DeleteItem(ctx context.Context, itemID string) error {
	unlock := e.locks.Lock(itemID)
	defer unlock()

	item, err := e.items.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrNotFound
	}

	if err := e.movs.DeleteByItem(ctx, itemID); err != nil {
		return err
	}
	if err := e.lots.DeleteByItem(ctx, itemID); err != nil {
		return err
	}
	if err := e.items.Delete(ctx, itemID); err != nil {
		return err
	}

	e.notifier.Notify("dashboard_update", map[string]any{"message": "Artículo eliminado", "item_id": itemID})
	return nil
}

// ── Recepción ─────────────────────────────────────────────────────────────────

// ReceiveInput datos de una recepción.
type ReceiveInput struct {
	ItemID   string
	LotKey   entity.LotKey
	Quantity decimal.Decimal
	Expiry   *time.Time
	Note     string
	Stage    string
	// Station fija la estación del lote nuevo; vacío hereda la del lote más
	// reciente del artículo (o la estación por defecto).
	Station string
	Actor   string
}

// ReceiveResult artículo y lote actualizados. Merged indica que la recepción
// se fusionó en un lote existente con la misma clave.
type ReceiveResult struct {
	Item   *entity.Item
	Lot    *entity.Lot
	Merged bool
}

// Receive suma stock: fusiona en el lote con la misma clave
// (lote, ítem de factura, número de factura) o crea uno nuevo heredando la
// estación del lote más reciente del artículo.
func (e *Engine) Receive(ctx context.Context, in ReceiveInput) (*ReceiveResult, error) {
	if !in.Quantity.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}
	if in.LotKey.LotCode == "" || in.LotKey.InvoiceItem == "" {
		return nil, fmt.Errorf("%w: lote e ítem de factura", domain.ErrMissingField)
	}
	if in.Stage == "" {
		return nil, fmt.Errorf("%w: etapa de destino", domain.ErrMissingField)
	}

	unlock := e.locks.Lock(in.ItemID)
	defer unlock()

	item, err := e.items.GetByID(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	now := e.now()
	var undo undoStack

	lot, err := e.lots.GetByKey(ctx, item.ID, in.LotKey)
	if err != nil {
		return nil, err
	}
	merged := lot != nil

	if merged {
		prev := lot.Quantity
		lot.Quantity = lot.Quantity.Add(in.Quantity)
		if err := e.lots.UpdateQuantity(ctx, lot.ID, lot.Quantity); err != nil {
			return nil, err
		}
		undo.push(func(ctx context.Context) error { return e.lots.UpdateQuantity(ctx, lot.ID, prev) })
	} else {
		station := in.Station
		if station == "" {
			station = entity.DefaultStation
			if last, err := e.lots.LastEntered(ctx, item.ID); err == nil && last != nil && last.Station != "" {
				station = last.Station
			}
		}
		lot = &entity.Lot{
			ID:            uuid.New().String(),
			ItemID:        item.ID,
			LotCode:       in.LotKey.LotCode,
			InvoiceItem:   in.LotKey.InvoiceItem,
			InvoiceNumber: in.LotKey.InvoiceNumber,
			Expiry:        in.Expiry,
			Station:       station,
			Quantity:      in.Quantity,
			EnteredAt:     now,
			LabelStatus:   entity.LabelPending,
		}
		if _, err := e.lots.Create(ctx, lot); err != nil {
			return nil, err
		}
		undo.push(func(ctx context.Context) error { return e.lots.Delete(ctx, lot.ID) })
	}

	prevTotal := item.QtyOnHand
	item.QtyOnHand = item.QtyOnHand.Add(in.Quantity)
	if err := e.items.UpdateQuantity(ctx, item.ID, item.QtyOnHand); err != nil {
		return nil, e.compensate(ctx, &undo, err)
	}
	undo.push(func(ctx context.Context) error { return e.items.UpdateQuantity(ctx, item.ID, prevTotal) })

	mov := &entity.Movement{
		ID:            uuid.New().String(),
		ItemID:        item.ID,
		Type:          entity.MovementEntrada,
		Quantity:      in.Quantity,
		LotCode:       in.LotKey.LotCode,
		InvoiceItem:   in.LotKey.InvoiceItem,
		InvoiceNumber: in.LotKey.InvoiceNumber,
		Stage:         in.Stage,
		Note:          in.Note,
		Actor:         in.Actor,
		CreatedAt:     now,
	}
	if _, err := e.movs.Create(ctx, mov); err != nil {
		return nil, e.compensate(ctx, &undo, err)
	}

	e.notifier.Notify("dashboard_update", map[string]any{"message": "Nueva entrada registrada", "item_id": item.ID})
	return &ReceiveResult{Item: item, Lot: lot, Merged: merged}, nil
}

// ── Salida ────────────────────────────────────────────────────────────────────

// IssueInput datos de una salida contra un lote concreto.
type IssueInput struct {
	ItemID   string
	LotID    string
	Quantity decimal.Decimal
	Stage    string
	Note     string
	Actor    string
}

// IssueResult artículo y lote actualizados.
type IssueResult struct {
	Item *entity.Item
	Lot  *entity.Lot
}

// Issue resta stock de un lote elegido por el caller. Valida pertenencia del
// lote (LotMismatch) y disponibilidad (InsufficientStock con la cantidad
// disponible). Los campos de lote del movimiento se copian del propio lote,
// nunca del caller, para garantizar exactitud del libro.
func (e *Engine) Issue(ctx context.Context, in IssueInput) (*IssueResult, error) {
	if !in.Quantity.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}
	if in.Stage == "" {
		return nil, fmt.Errorf("%w: etapa de destino", domain.ErrMissingField)
	}

	unlock := e.locks.Lock(in.ItemID)
	defer unlock()

	item, err := e.items.GetByID(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	lot, err := e.lots.GetByID(ctx, in.LotID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, domain.ErrNotFound
	}
	if lot.ItemID != item.ID {
		return nil, &domain.LotMismatchError{LotID: lot.ID, LotItemID: lot.ItemID, WantItemID: item.ID}
	}
	if lot.Quantity.LessThan(in.Quantity) {
		return nil, &domain.InsufficientStockError{Available: lot.Quantity, Requested: in.Quantity}
	}

	now := e.now()
	var undo undoStack

	prevLotQty := lot.Quantity
	lot.Quantity = lot.Quantity.Sub(in.Quantity)
	if err := e.lots.UpdateQuantity(ctx, lot.ID, lot.Quantity); err != nil {
		return nil, err
	}
	undo.push(func(ctx context.Context) error { return e.lots.UpdateQuantity(ctx, lot.ID, prevLotQty) })

	prevTotal := item.QtyOnHand
	item.QtyOnHand = item.QtyOnHand.Sub(in.Quantity)
	if err := e.items.UpdateQuantity(ctx, item.ID, item.QtyOnHand); err != nil {
		return nil, e.compensate(ctx, &undo, err)
	}
	undo.push(func(ctx context.Context) error { return e.items.UpdateQuantity(ctx, item.ID, prevTotal) })

	mov := &entity.Movement{
		ID:            uuid.New().String(),
		ItemID:        item.ID,
		Type:          entity.MovementSalida,
		Quantity:      in.Quantity,
		LotCode:       lot.LotCode,
		InvoiceItem:   lot.InvoiceItem,
		InvoiceNumber: lot.InvoiceNumber,
		Stage:         in.Stage,
		Note:          in.Note,
		Actor:         in.Actor,
		CreatedAt:     now,
	}
	if _, err := e.movs.Create(ctx, mov); err != nil {
		return nil, e.compensate(ctx, &undo, err)
	}

	e.notifier.Notify("dashboard_update", map[string]any{"message": "Nueva salida registrada", "item_id": item.ID})
	return &IssueResult{Item: item, Lot: lot}, nil
}

// ── Ajuste de lote ────────────────────────────────────────────────────────────

// AdjustLotInput edición de un lote: nueva cantidad, campos identificadores y
// motivo obligatorio. NewItemAddress actualiza además la dirección del artículo.
type AdjustLotInput struct {
	LotID          string
	NewQuantity    decimal.Decimal
	LotCode        string
	InvoiceItem    string
	InvoiceNumber  string
	Expiry         *time.Time
	Station        string
	Reason         string
	Actor          string
	NewItemAddress *string
}

// AdjustLotResult artículo y lote tras el ajuste, con el delta aplicado.
type AdjustLotResult struct {
	Item  *entity.Item
	Lot   *entity.Lot
	Delta decimal.Decimal
}

// AdjustLot actualiza cantidad y campos del lote, propaga el delta al total
// del artículo y registra AJUSTE_ENTRADA/AJUSTE_SALIDA con el motivo y los
// valores antes/después. Si nada cambió devuelve ErrNoChanges para que el
// caller muestre "nada que hacer" en vez de éxito.
func (e *Engine) AdjustLot(ctx context.Context, in AdjustLotInput) (*AdjustLotResult, error) {
	if in.NewQuantity.IsNegative() {
		return nil, domain.ErrInvalidQuantity
	}
	if in.Reason == "" {
		return nil, fmt.Errorf("%w: motivo del ajuste", domain.ErrMissingField)
	}

	lot, err := e.lots.GetByID(ctx, in.LotID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, domain.ErrNotFound
	}

	unlock := e.locks.Lock(lot.ItemID)
	defer unlock()

	// Releer el lote ya bajo el lock: entre el primer fetch y la adquisición
	// pudo colarse una salida y el delta saldría de una cantidad vieja.
	lot, err = e.lots.GetByID(ctx, in.LotID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, domain.ErrNotFound
	}

	item, err := e.items.GetByID(ctx, lot.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	oldQty := lot.Quantity
	delta := in.NewQuantity.Sub(oldQty)

	fieldsChanged := lot.LotCode != in.LotCode ||
		lot.InvoiceItem != in.InvoiceItem ||
		lot.InvoiceNumber != in.InvoiceNumber ||
		lot.Station != in.Station ||
		!sameExpiry(lot.Expiry, in.Expiry) ||
		(in.NewItemAddress != nil && item.Address != *in.NewItemAddress)

	if delta.IsZero() && !fieldsChanged {
		return nil, domain.ErrNoChanges
	}

	var undo undoStack

	prev := *lot
	lot.LotCode = in.LotCode
	lot.InvoiceItem = in.InvoiceItem
	lot.InvoiceNumber = in.InvoiceNumber
	lot.Expiry = in.Expiry
	lot.Station = in.Station
	lot.Quantity = in.NewQuantity
	if err := e.lots.Update(ctx, lot); err != nil {
		return nil, err
	}
	undo.push(func(ctx context.Context) error { return e.lots.Update(ctx, &prev) })

	prevTotal := item.QtyOnHand
	item.QtyOnHand = item.QtyOnHand.Add(delta)
	if in.NewItemAddress != nil {
		item.Address = *in.NewItemAddress
	}
	if err := e.items.Update(ctx, item); err != nil {
		return nil, e.compensate(ctx, &undo, err)
	}
	undo.push(func(ctx context.Context) error { return e.items.UpdateQuantity(ctx, item.ID, prevTotal) })

	if !delta.IsZero() {
		kind := entity.MovementAjusteEntrada
		if delta.IsNegative() {
			kind = entity.MovementAjusteSalida
		}
		mov := &entity.Movement{
			ID:            uuid.New().String(),
			ItemID:        item.ID,
			Type:          kind,
			Quantity:      delta.Abs(),
			LotCode:       lot.LotCode,
			InvoiceItem:   lot.InvoiceItem,
			InvoiceNumber: lot.InvoiceNumber,
			Stage:         "AJUSTE",
			Note: fmt.Sprintf("Ajuste manual. Motivo: %s. Cantidad anterior: %s, cantidad nueva: %s.",
				in.Reason, oldQty.String(), in.NewQuantity.String()),
			Actor:     in.Actor,
			CreatedAt: e.now(),
		}
		if _, err := e.movs.Create(ctx, mov); err != nil {
			return nil, e.compensate(ctx, &undo, err)
		}
	}

	e.notifier.Notify("dashboard_update", map[string]any{"message": "Lote ajustado", "item_id": item.ID})
	return &AdjustLotResult{Item: item, Lot: lot, Delta: delta}, nil
}

// ── Eliminación de lote ───────────────────────────────────────────────────────

// DeleteLot elimina un lote: resta su cantidad del total del artículo (con
// piso en 0, aunque el estado previo ya estuviera inconsistente), borra los
// movimientos históricos que coinciden con sus campos desnormalizados y
// finalmente borra el lote.
func (e *Engine) DeleteLot(ctx context.Context, lotID string) error {
	lot, err := e.lots.GetByID(ctx, lotID)
	if err != nil {
		return err
	}
	if lot == nil {
		return domain.ErrNotFound
	}

	unlock := e.locks.Lock(lot.ItemID)
	defer unlock()

	// Misma relectura bajo el lock que en AdjustLot: la cantidad a restar del
	// total debe ser la vigente, no la del snapshot previo al lock.
	lot, err = e.lots.GetByID(ctx, lotID)
	if err != nil {
		return err
	}
	if lot == nil {
		return domain.ErrNotFound
	}

	item, err := e.items.GetByID(ctx, lot.ItemID)
	if err != nil {
		return err
	}
	if item != nil {
		newTotal := item.QtyOnHand.Sub(lot.Quantity)
		if newTotal.IsNegative() {
			newTotal = decimal.Zero
		}
		if err := e.items.UpdateQuantity(ctx, item.ID, newTotal); err != nil {
			return err
		}
	}

	if err := e.movs.DeleteByLotRef(ctx, lot.ItemID, lot.LotCode, lot.InvoiceNumber); err != nil {
		return err
	}
	if err := e.lots.Delete(ctx, lot.ID); err != nil {
		return err
	}

	e.notifier.Notify("dashboard_update", map[string]any{"message": "Lote eliminado", "item_id": lot.ItemID})
	return nil
}

// ── Reversión y borrado de movimientos ───────────────────────────────────────

// ReverseResult resultado de una reversión. Cuando el lote original ya no
// existe la operación degrada: solo se ajusta el total del artículo y Warning
// lo reporta (DataIntegrityWarning, no es un error).
type ReverseResult struct {
	Movement    *entity.Movement
	LotAdjusted bool
	Warning     string
}

// ReverseMovement deshace el efecto de un movimiento sobre el artículo y, si
// todavía existe, sobre el lote; luego borra la línea del libro. Nunca falla
// por lote ausente.
func (e *Engine) ReverseMovement(ctx context.Context, movementID string) (*ReverseResult, error) {
	mov, err := e.movs.GetByID(ctx, movementID)
	if err != nil {
		return nil, err
	}
	if mov == nil {
		return nil, domain.ErrNotFound
	}

	unlock := e.locks.Lock(mov.ItemID)
	defer unlock()

	// Confirmar bajo el lock que el movimiento sigue en el libro: dos
	// reversiones simultáneas del mismo ID no deben aplicarse dos veces.
	mov, err = e.movs.GetByID(ctx, movementID)
	if err != nil {
		return nil, err
	}
	if mov == nil {
		return nil, domain.ErrNotFound
	}

	item, err := e.items.GetByID(ctx, mov.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	lot, err := e.lots.FindByMovementRef(ctx, mov.ItemID, mov.LotCode, mov.InvoiceNumber)
	if err != nil {
		return nil, err
	}

	res := &ReverseResult{Movement: mov}

	switch {
	case entity.IsInbound(mov.Type):
		// Revertir entrada: restar
		newTotal := item.QtyOnHand.Sub(mov.Quantity)
		if newTotal.IsNegative() {
			newTotal = decimal.Zero
		}
		if err := e.items.UpdateQuantity(ctx, item.ID, newTotal); err != nil {
			return nil, err
		}
		if lot != nil {
			newLotQty := lot.Quantity.Sub(mov.Quantity)
			if newLotQty.IsNegative() {
				newLotQty = decimal.Zero
			}
			if err := e.lots.UpdateQuantity(ctx, lot.ID, newLotQty); err != nil {
				return nil, err
			}
			res.LotAdjusted = true
		}
	case entity.IsOutbound(mov.Type):
		// Revertir salida: sumar
		if err := e.items.UpdateQuantity(ctx, item.ID, item.QtyOnHand.Add(mov.Quantity)); err != nil {
			return nil, err
		}
		if lot != nil {
			if err := e.lots.UpdateQuantity(ctx, lot.ID, lot.Quantity.Add(mov.Quantity)); err != nil {
				return nil, err
			}
			res.LotAdjusted = true
		} else {
			res.Warning = "el lote original no fue encontrado; solo se ajustó el total del artículo"
		}
	default:
		return nil, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, mov.Type)
	}

	if err := e.movs.Delete(ctx, mov.ID); err != nil {
		return nil, err
	}

	e.notifier.Notify("dashboard_update", map[string]any{"message": "Movimiento revertido", "item_id": mov.ItemID})
	return res, nil
}

// EraseMovement borra la línea del libro SIN tocar saldos: para limpiar ruido
// erróneo del historial sin alterar la verdad del stock.
func (e *Engine) EraseMovement(ctx context.Context, movementID string) error {
	mov, err := e.movs.GetByID(ctx, movementID)
	if err != nil {
		return err
	}
	if mov == nil {
		return domain.ErrNotFound
	}
	return e.movs.Delete(ctx, mov.ID)
}

// ── Consultas ─────────────────────────────────────────────────────────────────

// SelectLotsForIssue devuelve los lotes con cantidad > 0 del artículo en el
// orden de consumo sugerido (FIFO para hardware/painel, FEFO para el resto).
func (e *Engine) SelectLotsForIssue(ctx context.Context, itemID string) (*entity.Item, []*entity.Lot, error) {
	item, err := e.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	if item == nil {
		return nil, nil, domain.ErrNotFound
	}
	lots, err := e.lots.ListByItem(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	return item, domstock.OrderLotsForIssue(item, lots), nil
}

// MovementsForItem historial de movimientos de un artículo (paginado).
func (e *Engine) MovementsForItem(ctx context.Context, itemID string, limit, offset int) ([]*entity.Movement, error) {
	item, err := e.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return e.movs.ListByItem(ctx, itemID, limit, offset)
}

// SearchItems autocompletado por código o descripción (substring,
// case-insensitive, acotado).
func (e *Engine) SearchItems(ctx context.Context, term string, limit int) ([]*entity.Item, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return e.items.Search(ctx, term, limit)
}

// ListItems listado paginado de artículos.
func (e *Engine) ListItems(ctx context.Context, limit, offset int) ([]*entity.Item, error) {
	return e.items.List(ctx, limit, offset)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// compensate ejecuta la pila de compensación y envuelve la causa.
func (e *Engine) compensate(ctx context.Context, undo *undoStack, cause error) error {
	ok := undo.run(ctx)
	if !ok {
		log.Error().Err(cause).Msg("compensación incompleta tras fallo multi-paso")
	}
	return &domain.PartialFailureError{Cause: cause, Compensated: ok}
}

func sameExpiry(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
