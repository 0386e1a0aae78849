package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// ConsumableMovementRequest body para POST /api/consumables/movements.
type ConsumableMovementRequest struct {
	ConsumableID string          `json:"consumable_id"`
	Type         string          `json:"type"` // ENTRADA | SALIDA
	Quantity     decimal.Decimal `json:"quantity"`
	Sector       string          `json:"sector,omitempty"`
	Note         string          `json:"note,omitempty"`
}

// ConsumableResponse salida de un consumible.
type ConsumableResponse struct {
	ID          string          `json:"id"`
	ProductNo   string          `json:"product_no,omitempty"`
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Unit        string          `json:"unit,omitempty"`
	StockStatus string          `json:"stock_status,omitempty"`
	UsageStatus string          `json:"usage_status,omitempty"`
	Category    string          `json:"category,omitempty"`
	Supplier    string          `json:"supplier,omitempty"`
	Supplier2   string          `json:"supplier2,omitempty"`
	UnitValue   decimal.Decimal `json:"unit_value"`
	LeadTime    int             `json:"lead_time"`
	SafetyStock decimal.Decimal `json:"safety_stock"`
	MinQty      decimal.Decimal `json:"min_qty"`
	Quantity    decimal.Decimal `json:"quantity"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ToConsumableResponse convierte la entidad al DTO.
func ToConsumableResponse(c *entity.Consumable) ConsumableResponse {
	return ConsumableResponse{
		ID:          c.ID,
		ProductNo:   c.ProductNo,
		Code:        c.Code,
		Description: c.Description,
		Unit:        c.Unit,
		StockStatus: c.StockStatus,
		UsageStatus: c.UsageStatus,
		Category:    c.Category,
		Supplier:    c.Supplier,
		Supplier2:   c.Supplier2,
		UnitValue:   c.UnitValue,
		LeadTime:    c.LeadTime,
		SafetyStock: c.SafetyStock,
		MinQty:      c.MinQty,
		Quantity:    c.Quantity,
		CreatedAt:   c.CreatedAt,
	}
}
