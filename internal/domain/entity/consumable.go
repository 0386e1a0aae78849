package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Consumable representa un insumo de consumo sin dimensión de lote ni
// vencimiento: una sola cantidad corriente.
type Consumable struct {
	ID          string
	ProductNo   string
	Code        string // código único de producto
	Description string
	Unit        string
	StockStatus string // Activo, Inactivo...
	UsageStatus string
	Category    string
	Supplier    string
	Supplier2   string
	UnitValue   decimal.Decimal
	LeadTime    int
	SafetyStock decimal.Decimal
	MinQty      decimal.Decimal
	Quantity    decimal.Decimal // cantidad corriente
	CreatedAt   time.Time
}

// ConsumableMovement es una línea del libro de consumibles: entrada o salida
// que afecta directamente la cantidad corriente (sin estrategia de lotes).
type ConsumableMovement struct {
	ID           string
	ConsumableID string
	Type         string // ENTRADA | SALIDA
	Quantity     decimal.Decimal
	Sector       string // sector de destino
	Note         string
	Actor        string
	CreatedAt    time.Time
}
