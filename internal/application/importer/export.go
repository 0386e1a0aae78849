package importer

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// StockExporter genera la planilla detallada del stock (una fila por lote).
type StockExporter struct {
	items repository.ItemRepository
	lots  repository.LotRepository
}

// NewStockExporter construye el exportador.
func NewStockExporter(items repository.ItemRepository, lots repository.LotRepository) *StockExporter {
	return &StockExporter{items: items, lots: lots}
}

var exportColumns = []string{
	"CÓDIGO", "CÓDIGO OPCIONAL", "TIPO", "DESCRIPCIÓN",
	"LOCAL", "UN", "DIMENSIÓN", "CLIENTE",
	"LOTE", "ITEM NF", "NF",
	"VENCIMIENTO", "ESTACIÓN", "CANTIDAD", "FECHA ENTRADA",
}

const exportPageSize = 500

// Export escribe la planilla completa en w, ordenada por código de artículo y
// fecha de entrada del lote.
func (se *StockExporter) Export(ctx context.Context, w io.Writer) error {
	type row struct {
		item *entity.Item
		lot  *entity.Lot
	}
	var all []row

	for offset := 0; ; offset += exportPageSize {
		items, err := se.items.List(ctx, exportPageSize, offset)
		if err != nil {
			return err
		}
		for _, it := range items {
			lots, err := se.lots.ListByItem(ctx, it.ID)
			if err != nil {
				return err
			}
			for _, l := range lots {
				all = append(all, row{item: it, lot: l})
			}
		}
		if len(items) < exportPageSize {
			break
		}
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].item.Code != all[j].item.Code {
			return all[i].item.Code < all[j].item.Code
		}
		return all[i].lot.EnteredAt.Before(all[j].lot.EnteredAt)
	})

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Stock_Detallado"
	f.SetSheetName("Sheet1", sheet)

	for i, h := range exportColumns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheet, col+"1", h)
	}

	for n, r := range all {
		expiry := ""
		if r.lot.Expiry != nil {
			expiry = r.lot.Expiry.Format("02/01/2006")
		}
		qty, _ := r.lot.Quantity.Round(2).Float64()
		values := []any{
			r.item.Code, r.item.OptionalCode, r.item.Type, r.item.Description,
			r.item.Address, orDefault(r.item.Unit, "UN"), r.item.Dimension, r.item.Client,
			r.lot.LotCode, r.lot.InvoiceItem, r.lot.InvoiceNumber,
			expiry, r.lot.Station, qty, r.lot.EnteredAt.Format("02/01/2006 15:04:05"),
		}
		for i, v := range values {
			col, _ := excelize.ColumnNumberToName(i + 1)
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, n+2), v)
		}
	}

	return f.Write(w)
}

// ExportExpiring escribe la planilla de lotes próximos a vencer (control de
// etiquetas) en w.
func (se *StockExporter) ExportExpiring(ctx context.Context, w io.Writer, days int, now time.Time) error {
	lots, err := se.lots.ListExpiring(ctx, days, false)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Vencimientos"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"CÓDIGO", "DESCRIPCIÓN", "LOTE", "NF", "VENCIMIENTO", "DÍAS", "CANTIDAD", "ESTACIÓN", "ETIQUETA"}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheet, col+"1", h)
	}

	for n, l := range lots {
		item, err := se.items.GetByID(ctx, l.ItemID)
		if err != nil {
			return err
		}
		code, desc := "", ""
		if item != nil {
			code, desc = item.Code, item.Description
		}
		expiry, daysLeft := "", 0
		if d, ok := l.DaysToExpiry(now); ok {
			expiry = l.Expiry.Format("02/01/2006")
			daysLeft = d
		}
		qty, _ := l.Quantity.Round(2).Float64()
		values := []any{code, desc, l.LotCode, l.InvoiceNumber, expiry, daysLeft, qty, l.Station, l.LabelStatus}
		for i, v := range values {
			col, _ := excelize.ColumnNumberToName(i + 1)
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, n+2), v)
		}
	}

	return f.Write(w)
}
