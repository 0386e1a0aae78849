package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item representa un artículo del almacén (SKU).
// QtyOnHand es un agregado materializado: siempre debe ser igual a la suma de
// las cantidades de sus lotes vivos. Cada operación mutadora del motor de
// stock lo restaura de forma síncrona.
type Item struct {
	ID           string
	Code         string // código único, clave visible al usuario
	OptionalCode string
	Description  string
	Type         string // categoría libre: hardware, painel, insumo...
	Unit         string // unidad de medida
	Dimension    string
	Client       string
	Address      string // dirección de almacenamiento
	QtyOnHand    decimal.Decimal
	MinQty       decimal.Decimal // punto de reorden
	IdealBuyQty  decimal.Decimal // cantidad ideal de compra (0 = sin override)
	LeadTimeDays int             // días entre pedido y recepción
	CreatedAt    time.Time
}

// Valores por defecto de registro.
const (
	DefaultMinQty       = 5
	DefaultLeadTimeDays = 7
)
