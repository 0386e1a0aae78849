package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/application/importer"
)

// ImportHandler importación/exportación masiva vía planillas Excel (admin).
type ImportHandler struct {
	stockImp *importer.StockImporter
	consImp  *importer.ConsumableImporter
	exporter *importer.StockExporter
}

// NewImportHandler construye el handler.
func NewImportHandler(stockImp *importer.StockImporter, consImp *importer.ConsumableImporter, exporter *importer.StockExporter) *ImportHandler {
	return &ImportHandler{stockImp: stockImp, consImp: consImp, exporter: exporter}
}

// ImportStock godoc
// @Summary      Importar artículos y lotes desde planilla (multipart, campo "file")
// @Tags         import
// @Security     Bearer
// @Router       /api/import/stock [post]
func (h *ImportHandler) ImportStock(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_FILE", Message: "ningún archivo seleccionado"})
	}
	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_FILE", Message: "no se pudo abrir el archivo"})
	}
	defer src.Close()

	res, err := h.stockImp.Import(c.Context(), src, GetUsername(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// ImportConsumables importa el catálogo de consumibles (upsert por código).
func (h *ImportHandler) ImportConsumables(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_FILE", Message: "ningún archivo seleccionado"})
	}
	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_FILE", Message: "no se pudo abrir el archivo"})
	}
	defer src.Close()

	res, err := h.consImp.Import(c.Context(), src)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// ExportStock descarga la planilla detallada del stock (una fila por lote).
func (h *ImportHandler) ExportStock(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=reporte_stock_%s.xlsx`, time.Now().Format("2006-01-02")))
	return h.exporter.Export(c.Context(), c.Response().BodyWriter())
}
