package stock

import (
	"sort"
	"strings"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// Tipos de artículo que rotan por FIFO (no perecederos).
// El resto rota por FEFO: primero lo que vence antes.
var fifoTypes = map[string]bool{
	"hardware": true,
	"painel":   true,
}

// UsesFIFO indica si el tipo de artículo rota por FIFO (case-insensitive).
func UsesFIFO(itemType string) bool {
	return fifoTypes[strings.ToLower(strings.TrimSpace(itemType))]
}

// OrderLotsForIssue ordena los lotes candidatos a salida según la política del
// artículo y descarta los vacíos. El orden es consultivo: la salida siempre
// apunta a un único lote elegido por el caller, no se parte automáticamente.
//
//   - FIFO (hardware, painel): fecha de entrada ascendente.
//   - FEFO (resto): vencimiento ascendente con nulos al final; empates por
//     fecha de entrada ascendente.
//
// No muta el slice de entrada.
func OrderLotsForIssue(item *entity.Item, lots []*entity.Lot) []*entity.Lot {
	out := make([]*entity.Lot, 0, len(lots))
	for _, l := range lots {
		if l.Quantity.IsPositive() {
			out = append(out, l)
		}
	}

	if UsesFIFO(item.Type) {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].EnteredAt.Before(out[j].EnteredAt)
		})
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.Expiry == nil && b.Expiry == nil:
			return a.EnteredAt.Before(b.EnteredAt)
		case a.Expiry == nil:
			return false // sin vencimiento va al final
		case b.Expiry == nil:
			return true
		case !a.Expiry.Equal(*b.Expiry):
			return a.Expiry.Before(*b.Expiry)
		default:
			return a.EnteredAt.Before(b.EnteredAt)
		}
	})
	return out
}
