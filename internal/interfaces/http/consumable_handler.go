package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Almacen-api/internal/application/consumables"
	"github.com/jhoicas/Almacen-api/internal/application/dto"
)

// ConsumableHandler libro paralelo de consumibles.
type ConsumableHandler struct {
	uc *consumables.UseCase
}

// NewConsumableHandler construye el handler.
func NewConsumableHandler(uc *consumables.UseCase) *ConsumableHandler {
	return &ConsumableHandler{uc: uc}
}

// Search lista consumibles filtrando por código o descripción.
func (h *ConsumableHandler) Search(c *fiber.Ctx) error {
	list, err := h.uc.Search(c.Context(), c.Query("q"), c.QueryInt("limit", 100))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.ConsumableResponse, 0, len(list))
	for _, con := range list {
		out = append(out, dto.ToConsumableResponse(con))
	}
	return c.JSON(out)
}

// Get devuelve un consumible por ID.
func (h *ConsumableHandler) Get(c *fiber.Ctx) error {
	con, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToConsumableResponse(con))
}

// RegisterMovement godoc
// @Summary      Entrada o salida de un consumible
// @Tags         consumables
// @Security     Bearer
// @Router       /api/consumables/movements [post]
func (h *ConsumableHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.ConsumableMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	con, err := h.uc.RegisterMovement(c.Context(), consumables.MovementInput{
		ConsumableID: in.ConsumableID,
		Type:         in.Type,
		Quantity:     in.Quantity,
		Sector:       in.Sector,
		Note:         in.Note,
		Actor:        GetUsername(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToConsumableResponse(con))
}

// RecentMovements últimos movimientos del libro de consumibles.
func (h *ConsumableHandler) RecentMovements(c *fiber.Ctx) error {
	movs, err := h.uc.RecentMovements(c.Context(), c.QueryInt("limit", 50))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(movs)
}
