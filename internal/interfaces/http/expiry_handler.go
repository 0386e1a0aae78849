package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/application/expiry"
	"github.com/jhoicas/Almacen-api/internal/application/importer"
	"github.com/jhoicas/Almacen-api/internal/infrastructure/pdf"
)

// ExpiryHandler control de vencimiento: lotes críticos, etiquetas y reportes.
type ExpiryHandler struct {
	uc       *expiry.UseCase
	exporter *importer.StockExporter
	pdfGen   *pdf.ExpiryReportGenerator
}

// NewExpiryHandler construye el handler.
func NewExpiryHandler(uc *expiry.UseCase, exporter *importer.StockExporter, pdfGen *pdf.ExpiryReportGenerator) *ExpiryHandler {
	return &ExpiryHandler{uc: uc, exporter: exporter, pdfGen: pdfGen}
}

// Pending lotes pendientes que vencen dentro de la ventana.
func (h *ExpiryHandler) Pending(c *fiber.Ctx) error {
	lots, err := h.uc.PendingCritical(c.Context(), c.QueryInt("days", expiry.DefaultWindowDays))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.LotResponse, 0, len(lots))
	for _, l := range lots {
		out = append(out, dto.ToLotResponse(l))
	}
	return c.JSON(out)
}

// MarkDone marca la etiqueta del lote como atendida.
func (h *ExpiryHandler) MarkDone(c *fiber.Ctx) error {
	if err := h.uc.MarkDone(c.Context(), c.Params("id"), GetUsername(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "etiqueta marcada"})
}

// Reopen devuelve el lote a la lista de pendientes.
func (h *ExpiryHandler) Reopen(c *fiber.Ctx) error {
	if err := h.uc.Reopen(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "etiqueta reabierta"})
}

// History lotes ya atendidos, más recientes primero.
func (h *ExpiryHandler) History(c *fiber.Ctx) error {
	lots, err := h.uc.History(c.Context(), c.QueryInt("limit", 500))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.LotResponse, 0, len(lots))
	for _, l := range lots {
		out = append(out, dto.ToLotResponse(l))
	}
	return c.JSON(out)
}

// ExportExcel descarga la planilla de lotes próximos a vencer.
func (h *ExpiryHandler) ExportExcel(c *fiber.Ctx) error {
	days := c.QueryInt("days", expiry.DefaultWindowDays)
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=vencimientos_%s.xlsx`, time.Now().Format("2006-01-02")))
	return h.exporter.ExportExpiring(c.Context(), c.Response().BodyWriter(), days, time.Now())
}

// ExportPDF descarga el reporte imprimible de control de vencimiento.
func (h *ExpiryHandler) ExportPDF(c *fiber.Ctx) error {
	days := c.QueryInt("days", expiry.DefaultWindowDays)
	lots, err := h.uc.PendingCritical(c.Context(), days)
	if err != nil {
		return respondError(c, err)
	}
	bytes, err := h.pdfGen.Generate(c.Context(), lots, days, time.Now())
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=control_vencimiento_%s.pdf`, time.Now().Format("2006-01-02")))
	return c.Send(bytes)
}
