package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Almacen-api/internal/application/forecast"
)

// ForecastHandler pronóstico de consumo y sugerencias de compra.
type ForecastHandler struct {
	advisor *forecast.Advisor
}

// NewForecastHandler construye el handler.
func NewForecastHandler(advisor *forecast.Advisor) *ForecastHandler {
	return &ForecastHandler{advisor: advisor}
}

// Forecast godoc
// @Summary      Proyección diaria de consumo de un artículo
// @Tags         forecast
// @Security     Bearer
// @Param        id       path   string  true   "ID del artículo"
// @Param        horizon  query  int     false  "días hacia adelante (default 30)"
// @Router       /api/items/{id}/forecast [get]
func (h *ForecastHandler) Forecast(c *fiber.Ctx) error {
	horizon := c.QueryInt("horizon", 30)
	if horizon <= 0 || horizon > 365 {
		horizon = 30
	}
	points, err := h.advisor.ForecastConsumption(c.Context(), c.Params("id"), horizon)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]fiber.Map, 0, len(points))
	for _, p := range points {
		out = append(out, fiber.Map{"day": p.Day.Format("2006-01-02"), "qty": p.Qty})
	}
	return c.JSON(out)
}

// Suggestions lista de compra sugerida para los artículos bajo mínimo.
func (h *ForecastHandler) Suggestions(c *fiber.Ctx) error {
	list, err := h.advisor.SuggestPurchases(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	out := make([]fiber.Map, 0, len(list))
	for _, s := range list {
		entry := fiber.Map{
			"item_id":       s.ItemID,
			"code":          s.Code,
			"description":   s.Description,
			"suggested_qty": s.SuggestedQty,
		}
		if s.OrderBy != nil {
			entry["order_by"] = s.OrderBy.Format("2006-01-02")
		}
		out = append(out, entry)
	}
	return c.JSON(out)
}

// Turnover ranking de rotación de stock (salidas/existencia), menor primero.
func (h *ForecastHandler) Turnover(c *fiber.Ctx) error {
	windowDays := c.QueryInt("window", 90)
	limit := c.QueryInt("limit", 20)
	list, err := h.advisor.StockTurnover(c.Context(), windowDays, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}
