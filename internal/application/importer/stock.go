package importer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Almacen-api/internal/application/stock"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// Etapa y nota que llevan los movimientos generados por importación.
const (
	importStage = "IMPORTACIÓN"
	importNote  = "Importación vía Excel"
)

// Result resumen de una importación.
type Result struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// StockImporter importa artículos y lotes desde una planilla. Los artículos
// desconocidos se crean perezosamente con total 0 y cada fila entra al motor
// como una recepción normal (fusión de lotes incluida).
type StockImporter struct {
	items  repository.ItemRepository
	engine *stock.Engine
}

// NewStockImporter construye el importador de stock.
func NewStockImporter(items repository.ItemRepository, engine *stock.Engine) *StockImporter {
	return &StockImporter{items: items, engine: engine}
}

// Columnas obligatorias de la planilla de stock (matching sin acentos).
var requiredStockColumns = []string{"CODIGO", "DESCRIPCION", "LOTE", "NF", "CANTIDAD"}

// Import procesa la planilla completa. Las filas sin código o con cantidad no
// positiva se cuentan como omitidas; un error de persistencia aborta.
func (si *StockImporter) Import(ctx context.Context, r io.Reader, actor string) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: no se pudo leer la planilla", domain.ErrInvalidInput)
	}
	defer f.Close()

	rows, err := sheetRows(f)
	if err != nil {
		return nil, err
	}

	hi := buildHeaderIndex(rows[0])
	colCode, ok1 := hi.find("CODIGO")
	colDesc, ok2 := hi.find("DESCRIPCION", "DESCRICAO")
	colLot, ok3 := hi.find("LOTE")
	colInvoice, ok4 := hi.find("NF", "FACTURA")
	colQty, ok5 := hi.find("CANTIDAD", "QTD", "STOCK")
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return nil, fmt.Errorf("%w: la planilla debe contener las columnas %v",
			domain.ErrInvalidInput, requiredStockColumns)
	}

	colInvoiceItem, _ := hi.find("ITEM NF")
	colExpiry, _ := hi.find("VALIDEZ", "VENCIMIENTO", "VALIDADE")
	colStation, _ := hi.find("ESTACION", "ESTACAO")
	colAddress, _ := hi.find("LOCAL", "DIRECCION")
	colOptCode, _ := hi.find("CODIGO OPCIONAL")
	colType, _ := hi.find("TIPO")
	colUnit, _ := hi.find("UN")
	colDim, _ := hi.find("DIMENSION", "DIMENSAO")
	colClient, _ := hi.find("CLIENTE")

	res := &Result{}
	for _, row := range rows[1:] {
		code := cell(row, colCode)
		qty := parseQuantity(cell(row, colQty))
		if code == "" || !qty.IsPositive() {
			res.Skipped++
			continue
		}

		item, err := si.items.GetByCode(ctx, code)
		if err != nil {
			return res, err
		}
		if item == nil {
			desc := cell(row, colDesc)
			if desc == "" {
				desc = "Sin descripción"
			}
			item, err = si.items.Create(ctx, &entity.Item{
				Code:         code,
				OptionalCode: cell(row, colOptCode),
				Description:  desc,
				Type:         cell(row, colType),
				Unit:         cell(row, colUnit),
				Dimension:    cell(row, colDim),
				Client:       cell(row, colClient),
				Address:      cell(row, colAddress),
				QtyOnHand:    decimal.Zero,
				MinQty:       decimal.NewFromInt(entity.DefaultMinQty),
				LeadTimeDays: entity.DefaultLeadTimeDays,
			})
			if err != nil {
				return res, err
			}
		}

		key := entity.LotKey{
			LotCode:       orDefault(cell(row, colLot), "N/A"),
			InvoiceItem:   orDefault(cell(row, colInvoiceItem), "N/A"),
			InvoiceNumber: orDefault(cell(row, colInvoice), "N/A"),
		}
		if _, err := si.engine.Receive(ctx, stock.ReceiveInput{
			ItemID:   item.ID,
			LotKey:   key,
			Quantity: qty,
			Expiry:   parseExpiry(cell(row, colExpiry)),
			Stage:    importStage,
			Note:     importNote,
			Station:  cell(row, colStation),
			Actor:    actor,
		}); err != nil {
			log.Warn().Err(err).Str("code", code).Msg("fila de importación rechazada")
			res.Skipped++
			continue
		}
		res.Imported++
	}
	return res, nil
}

// sheetRows devuelve las filas de la primera hoja, validando que exista
// encabezado.
func sheetRows(f *excelize.File) ([][]string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: la planilla no tiene hojas", domain.ErrInvalidInput)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("leer hoja: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: la planilla no tiene datos", domain.ErrInvalidInput)
	}
	return rows, nil
}

// parseExpiry acepta fecha ISO o dd/mm/aaaa. Vacío o ilegible vale nil.
func parseExpiry(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", "02/01/2006", "2/1/2006", "01-02-06"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
