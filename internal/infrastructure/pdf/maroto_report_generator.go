// Package pdf genera el reporte imprimible de control de vencimiento: los
// lotes críticos con artículo, vencimiento, días restantes y estado de
// etiqueta, para pegar en el tablero del almacén.
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var (
	colorPrimary = &props.Color{Red: 178, Green: 34, Blue: 34}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ExpiryReportGenerator genera el PDF del control de vencimiento con Maroto v2.
type ExpiryReportGenerator struct {
	items repository.ItemRepository
}

// NewExpiryReportGenerator construye el generador.
func NewExpiryReportGenerator(items repository.ItemRepository) *ExpiryReportGenerator {
	return &ExpiryReportGenerator{items: items}
}

// Generate genera el reporte para los lotes dados y devuelve sus bytes.
func (g *ExpiryReportGenerator) Generate(ctx context.Context, lots []*entity.Lot, windowDays int, now time.Time) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Control de Vencimiento", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(windowDays, now, len(lots)))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tableHeaderRow())

	for _, lot := range lots {
		item, err := g.items.GetByID(ctx, lot.ItemID)
		if err != nil {
			return nil, err
		}
		m.AddRows(lotRow(lot, item, now))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// headerRow: título (izq) y ventana + fecha de emisión (der).
func headerRow(windowDays int, now time.Time, total int) core.Row {
	return row.New(14).Add(
		col.New(7).Add(
			text.New("CONTROL DE VENCIMIENTO", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%d lotes críticos", total), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(fmt.Sprintf("Ventana: %d días", windowDays), props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 2,
			}),
			text.New("Emitido: "+now.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	header := func(size int, label string) core.Col {
		return col.New(size).Add(text.New(label, props.Text{Style: fontstyle.Bold, Size: 8}))
	}
	return row.New(7).Add(
		header(2, "CÓDIGO"),
		header(3, "DESCRIPCIÓN"),
		header(2, "LOTE / NF"),
		header(2, "VENCIMIENTO"),
		header(1, "DÍAS"),
		header(1, "CANT."),
		header(1, "ETIQUETA"),
	)
}

func lotRow(lot *entity.Lot, item *entity.Item, now time.Time) core.Row {
	code, desc := "", ""
	if item != nil {
		code, desc = item.Code, item.Description
	}
	expiry, days := "-", "-"
	if d, ok := lot.DaysToExpiry(now); ok {
		expiry = lot.Expiry.Format("02/01/2006")
		days = fmt.Sprintf("%d", d)
	}
	cellProps := props.Text{Size: 8}
	return row.New(6).Add(
		col.New(2).Add(text.New(code, cellProps)),
		col.New(3).Add(text.New(desc, cellProps)),
		col.New(2).Add(text.New(lot.LotCode+" / "+lot.InvoiceNumber, cellProps)),
		col.New(2).Add(text.New(expiry, cellProps)),
		col.New(1).Add(text.New(days, cellProps)),
		col.New(1).Add(text.New(lot.Quantity.Round(2).String(), cellProps)),
		col.New(1).Add(text.New(lot.LabelStatus, cellProps)),
	)
}
