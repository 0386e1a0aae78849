package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/application/stock"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// StockHandler expone el motor de stock: registro de artículos, recepciones,
// salidas, ajustes, reversión y consulta de lotes/movimientos.
type StockHandler struct {
	engine *stock.Engine
}

// NewStockHandler construye el handler.
func NewStockHandler(engine *stock.Engine) *StockHandler {
	return &StockHandler{engine: engine}
}

// parseExpiry interpreta el campo expiry (YYYY-MM-DD, vacío = sin vencimiento).
func parseExpiry(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, domain.ErrInvalidInput
	}
	return &t, nil
}

// RegisterItem godoc
// @Summary      Registrar artículo con su primer lote
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterItemRequest  true  "artículo + lote inicial"
// @Success      201   {object}  map[string]any
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/items [post]
func (h *StockHandler) RegisterItem(c *fiber.Ctx) error {
	var in dto.RegisterItemRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	expiry, err := parseExpiry(in.Expiry)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "expiry debe ser YYYY-MM-DD"})
	}
	res, err := h.engine.RegisterItem(c.Context(), stock.RegisterItemInput{
		Code:         in.Code,
		OptionalCode: in.OptionalCode,
		Description:  in.Description,
		Type:         in.Type,
		Unit:         in.Unit,
		Dimension:    in.Dimension,
		Client:       in.Client,
		Address:      in.Address,
		MinQty:       in.MinQty,
		IdealBuyQty:  in.IdealBuyQty,
		LeadTimeDays: in.LeadTimeDays,
		LotKey: entity.LotKey{
			LotCode:       in.LotCode,
			InvoiceItem:   in.InvoiceItem,
			InvoiceNumber: in.InvoiceNumber,
		},
		Expiry:   expiry,
		Quantity: in.Quantity,
		Actor:    GetUsername(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"item": dto.ToItemResponse(res.Item),
		"lot":  dto.ToLotResponse(res.Lot),
	})
}

// UpdateItem godoc
// @Summary      Editar datos maestros de un artículo (admin)
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.UpdateItemRequest  true  "campos editables"
// @Success      200   {object}  dto.ItemResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/items/{id} [put]
func (h *StockHandler) UpdateItem(c *fiber.Ctx) error {
	var in dto.UpdateItemRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	item, err := h.engine.UpdateItem(c.Context(), stock.UpdateItemInput{
		ItemID:       c.Params("id"),
		Code:         in.Code,
		OptionalCode: in.OptionalCode,
		Description:  in.Description,
		Type:         in.Type,
		Unit:         in.Unit,
		Dimension:    in.Dimension,
		Client:       in.Client,
		Address:      in.Address,
		MinQty:       in.MinQty,
		IdealBuyQty:  in.IdealBuyQty,
		LeadTimeDays: in.LeadTimeDays,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToItemResponse(item))
}

// DeleteItem elimina un artículo con todos sus lotes y movimientos (admin).
func (h *StockHandler) DeleteItem(c *fiber.Ctx) error {
	if err := h.engine.DeleteItem(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "artículo eliminado"})
}

// SearchItems busca artículos por código o descripción (autocompletado).
func (h *StockHandler) SearchItems(c *fiber.Ctx) error {
	term := c.Query("q")
	limit := c.QueryInt("limit", 10)
	items, err := h.engine.SearchItems(c.Context(), term, limit)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, dto.ToItemResponse(it))
	}
	return c.JSON(out)
}

// ListItems listado paginado de artículos.
func (h *StockHandler) ListItems(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	items, err := h.engine.ListItems(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, dto.ToItemResponse(it))
	}
	return c.JSON(out)
}

// GetItem devuelve el artículo con sus lotes ordenados para salida.
func (h *StockHandler) GetItem(c *fiber.Ctx) error {
	item, lots, err := h.engine.SelectLotsForIssue(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	outLots := make([]dto.LotResponse, 0, len(lots))
	for _, l := range lots {
		outLots = append(outLots, dto.ToLotResponse(l))
	}
	return c.JSON(fiber.Map{"item": dto.ToItemResponse(item), "lots": outLots})
}

// Receive godoc
// @Summary      Registrar recepción (fusiona lote con misma clave)
// @Tags         stock
// @Security     Bearer
// @Router       /api/stock/receipts [post]
func (h *StockHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	expiry, err := parseExpiry(in.Expiry)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "expiry debe ser YYYY-MM-DD"})
	}
	res, err := h.engine.Receive(c.Context(), stock.ReceiveInput{
		ItemID: in.ItemID,
		LotKey: entity.LotKey{
			LotCode:       in.LotCode,
			InvoiceItem:   in.InvoiceItem,
			InvoiceNumber: in.InvoiceNumber,
		},
		Quantity: in.Quantity,
		Expiry:   expiry,
		Stage:    in.Stage,
		Note:     in.Note,
		Actor:    GetUsername(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"item":   dto.ToItemResponse(res.Item),
		"lot":    dto.ToLotResponse(res.Lot),
		"merged": res.Merged,
	})
}

// Issue godoc
// @Summary      Registrar salida contra un lote
// @Tags         stock
// @Security     Bearer
// @Router       /api/stock/issues [post]
func (h *StockHandler) Issue(c *fiber.Ctx) error {
	var in dto.IssueRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.engine.Issue(c.Context(), stock.IssueInput{
		ItemID:   in.ItemID,
		LotID:    in.LotID,
		Quantity: in.Quantity,
		Stage:    in.Stage,
		Note:     in.Note,
		Actor:    GetUsername(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"item": dto.ToItemResponse(res.Item),
		"lot":  dto.ToLotResponse(res.Lot),
	})
}

// AdjustLot actualiza cantidad y campos de un lote (ajuste manual con motivo).
func (h *StockHandler) AdjustLot(c *fiber.Ctx) error {
	var in dto.AdjustLotRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	expiry, err := parseExpiry(in.Expiry)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "expiry debe ser YYYY-MM-DD"})
	}
	res, err := h.engine.AdjustLot(c.Context(), stock.AdjustLotInput{
		LotID:          c.Params("id"),
		NewQuantity:    in.Quantity,
		LotCode:        in.LotCode,
		InvoiceItem:    in.InvoiceItem,
		InvoiceNumber:  in.InvoiceNumber,
		Expiry:         expiry,
		Station:        in.Station,
		Reason:         in.Reason,
		Actor:          GetUsername(c),
		NewItemAddress: in.ItemAddress,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"item":  dto.ToItemResponse(res.Item),
		"lot":   dto.ToLotResponse(res.Lot),
		"delta": res.Delta,
	})
}

// DeleteLot elimina un lote completo con sus movimientos asociados (admin).
func (h *StockHandler) DeleteLot(c *fiber.Ctx) error {
	if err := h.engine.DeleteLot(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "lote eliminado"})
}

// ItemMovements lista el historial de movimientos de un artículo.
func (h *StockHandler) ItemMovements(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	movs, err := h.engine.MovementsForItem(c.Context(), c.Params("id"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, dto.ToMovementResponse(m))
	}
	return c.JSON(out)
}

// ReverseMovement godoc
// @Summary      Revertir un movimiento (deshace su efecto y borra la línea)
// @Tags         stock
// @Security     Bearer
// @Router       /api/movements/{id}/reverse [post]
func (h *StockHandler) ReverseMovement(c *fiber.Ctx) error {
	res, err := h.engine.ReverseMovement(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	resp := fiber.Map{
		"movement":     dto.ToMovementResponse(res.Movement),
		"lot_adjusted": res.LotAdjusted,
	}
	if res.Warning != "" {
		resp["warning"] = res.Warning
	}
	return c.JSON(resp)
}

// EraseMovement borra solo la línea del libro, sin tocar cantidades (admin).
func (h *StockHandler) EraseMovement(c *fiber.Ctx) error {
	if err := h.engine.EraseMovement(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "movimiento borrado"})
}
