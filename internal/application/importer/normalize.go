// Package importer mapea planillas Excel hacia el dominio: importación masiva
// de artículos/lotes y de consumibles, y exportación del detalle de stock.
// Es un colaborador externo del motor de stock: toda mutación pasa por sus
// operaciones públicas.
package importer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/shopspring/decimal"
)

// stripAccents elimina marcas diacríticas vía descomposición NFKD.
var stripAccents = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeHeader normaliza un encabezado de columna para matching tolerante:
// sin acentos ni ordinales, mayúsculas, espacios colapsados.
func normalizeHeader(s string) string {
	s = strings.NewReplacer("º", "", "°", "", "ª", "").Replace(strings.TrimSpace(s))
	if out, _, err := transform.String(stripAccents, s); err == nil {
		s = out
	}
	s = strings.ToUpper(s)
	return strings.Join(strings.Fields(s), " ")
}

// headerColumn un encabezado normalizado con su índice de columna.
type headerColumn struct {
	name string
	col  int
}

// headerIndex encabezados normalizados en orden de columna.
type headerIndex []headerColumn

func buildHeaderIndex(header []string) headerIndex {
	hi := make(headerIndex, 0, len(header))
	for i, h := range header {
		n := normalizeHeader(h)
		if n == "" {
			continue
		}
		hi = append(hi, headerColumn{name: n, col: i})
	}
	return hi
}

// find devuelve el índice de la primera columna que matchea alguno de los
// patrones, en orden. Un match exacto gana sobre uno por contención: "NF" debe
// resolver a la columna NF aunque exista ITEM NF. Retorna -1 si ninguna matchea.
func (hi headerIndex) find(patterns ...string) (int, bool) {
	for _, pat := range patterns {
		for _, hc := range hi {
			if hc.name == pat {
				return hc.col, true
			}
		}
		for _, hc := range hi {
			if strings.Contains(hc.name, pat) {
				return hc.col, true
			}
		}
	}
	return -1, false
}

// cell devuelve la celda `col` de la fila, vacía si la fila es corta.
func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// parseQuantity interpreta una cantidad numérica de planilla. Acepta coma
// decimal. Vacío o ilegible vale 0.
func parseQuantity(s string) decimal.Decimal {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
