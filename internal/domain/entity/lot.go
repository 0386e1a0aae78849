package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de etiqueta de control de vencimiento.
const (
	LabelPending = "PENDIENTE"
	LabelDone    = "CONCLUIDO"
)

// Estación por defecto cuando el artículo no tiene lotes previos.
const DefaultStation = "Almacén"

// LotKey identifica un lote dentro de un artículo: (lote, ítem de factura,
// número de factura). Una recepción con la misma clave se fusiona en el lote
// existente en vez de crear un duplicado.
type LotKey struct {
	LotCode       string
	InvoiceItem   string
	InvoiceNumber string
}

// Lot representa una recepción físicamente distinguible de un artículo
// (detalle de lote/factura, con vencimiento propio).
type Lot struct {
	ID            string
	ItemID        string
	LotCode       string
	InvoiceItem   string
	InvoiceNumber string
	Expiry        *time.Time // nil = sin vencimiento
	Station       string
	Quantity      decimal.Decimal
	EnteredAt     time.Time
	LabelStatus   string     // PENDIENTE | CONCLUIDO
	LabelAt       *time.Time // cuándo se marcó la etiqueta
	LabelBy       string     // quién la marcó
}

// Key devuelve la clave identificadora del lote.
func (l *Lot) Key() LotKey {
	return LotKey{LotCode: l.LotCode, InvoiceItem: l.InvoiceItem, InvoiceNumber: l.InvoiceNumber}
}

// DaysToExpiry devuelve los días hasta el vencimiento contados desde hoy.
// Retorna false cuando el lote no tiene fecha de vencimiento.
func (l *Lot) DaysToExpiry(today time.Time) (int, bool) {
	if l.Expiry == nil {
		return 0, false
	}
	t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(l.Expiry.Year(), l.Expiry.Month(), l.Expiry.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(t).Hours() / 24), true
}
