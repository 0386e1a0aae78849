package importer

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Almacen-api/internal/application/consumables"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// ConsumableImporter importa el catálogo de consumibles desde una planilla.
// Los encabezados se matchean por contener patrones (sin acentos): planillas
// de distintos proveedores nombran las columnas de formas distintas.
type ConsumableImporter struct {
	uc *consumables.UseCase
}

// NewConsumableImporter construye el importador de consumibles.
func NewConsumableImporter(uc *consumables.UseCase) *ConsumableImporter {
	return &ConsumableImporter{uc: uc}
}

// Import procesa la planilla y hace upsert por código. Filas sin número de
// producto, código o descripción se omiten.
func (ci *ConsumableImporter) Import(ctx context.Context, r io.Reader) (*Result, error) {
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
	colNo, okNo := hi.find("N PRODUCTO", "NPRODUCTO", "NUM PRODUCTO", "N PRODUTO")
	colCode, okCode := hi.find("CODIGO PRODUCTO", "CODIGOPRODUCTO", "CODIGO")
	colDesc, okDesc := hi.find("DESCRIPCION DEL PRODUCTO", "DESCRIPCION", "DESCRICAO")
	colUnit, okUnit := hi.find("UNIDAD MEDIDA", "UNIDAD", "UNIDADE")
	if !okNo || !okCode || !okDesc || !okUnit {
		return nil, fmt.Errorf("%w: faltan columnas obligatorias (número de producto, código, descripción, unidad)",
			domain.ErrInvalidInput)
	}

	colStockStatus, _ := hi.find("STATUS STOCK", "STATUS ESTOQUE", "STATUS")
	colUsageStatus, _ := hi.find("STATUS CONSUMO")
	colCategory, _ := hi.find("CATEGORIA")
	colSupplier2, _ := hi.find("PROVEEDOR 2", "FORNECEDOR 2", "PROVEEDOR2")
	colSupplier, _ := hi.find("PROVEEDOR", "FORNECEDOR")
	colValue, _ := hi.find("VALOR UNITARIO", "VALOR")
	colLead, _ := hi.find("LEAD TIME", "TIEMPO REPOSICION", "DIAS")
	colSafety, _ := hi.find("STOCK DE SEGURIDAD", "ESTOQUE DE SEGURANCA")
	colMin, _ := hi.find("STOCK MINIMO", "ESTOQUE MINIMO", "MINIMO")
	colQty, _ := hi.find("STOCK ACTUAL", "ESTOQUE ATUAL", "CANTIDAD ACTUAL")

	res := &Result{}
	for _, row := range rows[1:] {
		productNo := cell(row, colNo)
		code := cell(row, colCode)
		desc := cell(row, colDesc)
		if productNo == "" || code == "" || desc == "" {
			res.Skipped++
			continue
		}

		lead := 0
		if v := cell(row, colLead); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				lead = n
			}
		}

		c := &entity.Consumable{
			ProductNo:   productNo,
			Code:        code,
			Description: desc,
			Unit:        orDefault(cell(row, colUnit), "UN"),
			StockStatus: cell(row, colStockStatus),
			UsageStatus: cell(row, colUsageStatus),
			Category:    cell(row, colCategory),
			Supplier:    cell(row, colSupplier),
			Supplier2:   cell(row, colSupplier2),
			UnitValue:   parseQuantity(cell(row, colValue)),
			LeadTime:    lead,
			SafetyStock: parseQuantity(cell(row, colSafety)),
			MinQty:      parseQuantity(cell(row, colMin)),
			Quantity:    parseQuantity(cell(row, colQty)),
		}
		if err := ci.uc.Upsert(ctx, c); err != nil {
			log.Warn().Err(err).Str("code", code).Msg("fila de consumible rechazada")
			res.Skipped++
			continue
		}
		res.Imported++
	}
	return res, nil
}
