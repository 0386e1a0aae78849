package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock.
const (
	MovementEntrada       = "ENTRADA"
	MovementSalida        = "SALIDA"
	MovementAjusteEntrada = "AJUSTE_ENTRADA"
	MovementAjusteSalida  = "AJUSTE_SALIDA"
)

// IsInbound indica si el tipo suma stock (entrada o ajuste positivo).
func IsInbound(kind string) bool {
	return kind == MovementEntrada || kind == MovementAjusteEntrada
}

// IsOutbound indica si el tipo resta stock (salida o ajuste negativo).
func IsOutbound(kind string) bool {
	return kind == MovementSalida || kind == MovementAjusteSalida
}

// Movement es una línea del libro de movimientos: un cambio de cantidad y su
// causa. Los campos de lote (LotCode, InvoiceItem, InvoiceNumber) se copian
// desnormalizados en vez de referenciar al Lot: el movimiento debe sobrevivir
// a la eliminación del lote y la reversión debe degradar con gracia.
type Movement struct {
	ID            string
	ItemID        string
	Type          string // ENTRADA | SALIDA | AJUSTE_ENTRADA | AJUSTE_SALIDA
	Quantity      decimal.Decimal
	LotCode       string
	InvoiceItem   string
	InvoiceNumber string
	Stage         string // etapa/sector de destino
	Note          string
	Actor         string // username de quien registró
	CreatedAt     time.Time
}
