package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// RegisterItemRequest body para POST /api/items.
type RegisterItemRequest struct {
	Code         string          `json:"code"`
	OptionalCode string          `json:"optional_code,omitempty"`
	Description  string          `json:"description"`
	Type         string          `json:"type,omitempty"`
	Unit         string          `json:"unit,omitempty"`
	Dimension    string          `json:"dimension,omitempty"`
	Client       string          `json:"client,omitempty"`
	Address      string          `json:"address,omitempty"`
	MinQty       decimal.Decimal `json:"min_qty,omitempty"`
	IdealBuyQty  decimal.Decimal `json:"ideal_buy_qty,omitempty"`
	LeadTimeDays int             `json:"lead_time_days,omitempty"`

	LotCode       string          `json:"lot_code"`
	InvoiceItem   string          `json:"invoice_item"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	Expiry        string          `json:"expiry,omitempty"` // YYYY-MM-DD
	Quantity      decimal.Decimal `json:"quantity"`
}

// UpdateItemRequest body para PUT /api/items/:id. No incluye cantidad: el
// stock solo cambia vía recepciones, salidas y ajustes de lote.
type UpdateItemRequest struct {
	Code         string          `json:"code"`
	OptionalCode string          `json:"optional_code,omitempty"`
	Description  string          `json:"description"`
	Type         string          `json:"type,omitempty"`
	Unit         string          `json:"unit,omitempty"`
	Dimension    string          `json:"dimension,omitempty"`
	Client       string          `json:"client,omitempty"`
	Address      string          `json:"address,omitempty"`
	MinQty       decimal.Decimal `json:"min_qty,omitempty"`
	IdealBuyQty  decimal.Decimal `json:"ideal_buy_qty,omitempty"`
	LeadTimeDays int             `json:"lead_time_days,omitempty"`
}

// ReceiveRequest body para POST /api/stock/receipts.
type ReceiveRequest struct {
	ItemID        string          `json:"item_id"`
	LotCode       string          `json:"lot_code"`
	InvoiceItem   string          `json:"invoice_item"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	Expiry        string          `json:"expiry,omitempty"` // YYYY-MM-DD
	Stage         string          `json:"stage"`
	Note          string          `json:"note,omitempty"`
}

// IssueRequest body para POST /api/stock/issues.
type IssueRequest struct {
	ItemID   string          `json:"item_id"`
	LotID    string          `json:"lot_id"`
	Quantity decimal.Decimal `json:"quantity"`
	Stage    string          `json:"stage"`
	Note     string          `json:"note,omitempty"`
}

// AdjustLotRequest body para PUT /api/lots/:id.
type AdjustLotRequest struct {
	Quantity      decimal.Decimal `json:"quantity"`
	LotCode       string          `json:"lot_code"`
	InvoiceItem   string          `json:"invoice_item"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	Expiry        string          `json:"expiry,omitempty"` // YYYY-MM-DD
	Station       string          `json:"station,omitempty"`
	Reason        string          `json:"reason"`
	ItemAddress   *string         `json:"item_address,omitempty"`
}

// ItemResponse salida de un artículo.
type ItemResponse struct {
	ID           string          `json:"id"`
	Code         string          `json:"code"`
	OptionalCode string          `json:"optional_code,omitempty"`
	Description  string          `json:"description"`
	Type         string          `json:"type,omitempty"`
	Unit         string          `json:"unit,omitempty"`
	Dimension    string          `json:"dimension,omitempty"`
	Client       string          `json:"client,omitempty"`
	Address      string          `json:"address,omitempty"`
	QtyOnHand    decimal.Decimal `json:"qty_on_hand"`
	MinQty       decimal.Decimal `json:"min_qty"`
	IdealBuyQty  decimal.Decimal `json:"ideal_buy_qty"`
	LeadTimeDays int             `json:"lead_time_days"`
	CreatedAt    time.Time       `json:"created_at"`
}

// LotResponse salida de un lote.
type LotResponse struct {
	ID            string          `json:"id"`
	ItemID        string          `json:"item_id"`
	LotCode       string          `json:"lot_code"`
	InvoiceItem   string          `json:"invoice_item"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	Expiry        *string         `json:"expiry,omitempty"` // YYYY-MM-DD, null = sin vencimiento
	Station       string          `json:"station,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	EnteredAt     time.Time       `json:"entered_at"`
	LabelStatus   string          `json:"label_status,omitempty"`
}

// MovementResponse salida de una línea del libro.
type MovementResponse struct {
	ID            string          `json:"id"`
	ItemID        string          `json:"item_id"`
	Type          string          `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	LotCode       string          `json:"lot_code,omitempty"`
	InvoiceItem   string          `json:"invoice_item,omitempty"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	Stage         string          `json:"stage,omitempty"`
	Note          string          `json:"note,omitempty"`
	Actor         string          `json:"actor,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToItemResponse convierte la entidad al DTO.
func ToItemResponse(it *entity.Item) ItemResponse {
	return ItemResponse{
		ID:           it.ID,
		Code:         it.Code,
		OptionalCode: it.OptionalCode,
		Description:  it.Description,
		Type:         it.Type,
		Unit:         it.Unit,
		Dimension:    it.Dimension,
		Client:       it.Client,
		Address:      it.Address,
		QtyOnHand:    it.QtyOnHand,
		MinQty:       it.MinQty,
		IdealBuyQty:  it.IdealBuyQty,
		LeadTimeDays: it.LeadTimeDays,
		CreatedAt:    it.CreatedAt,
	}
}

// ToLotResponse convierte la entidad al DTO (vencimiento como YYYY-MM-DD).
func ToLotResponse(l *entity.Lot) LotResponse {
	r := LotResponse{
		ID:            l.ID,
		ItemID:        l.ItemID,
		LotCode:       l.LotCode,
		InvoiceItem:   l.InvoiceItem,
		InvoiceNumber: l.InvoiceNumber,
		Station:       l.Station,
		Quantity:      l.Quantity,
		EnteredAt:     l.EnteredAt,
		LabelStatus:   l.LabelStatus,
	}
	if l.Expiry != nil {
		s := l.Expiry.Format("2006-01-02")
		r.Expiry = &s
	}
	return r
}

// ToMovementResponse convierte la entidad al DTO.
func ToMovementResponse(m *entity.Movement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		ItemID:        m.ItemID,
		Type:          m.Type,
		Quantity:      m.Quantity,
		LotCode:       m.LotCode,
		InvoiceItem:   m.InvoiceItem,
		InvoiceNumber: m.InvoiceNumber,
		Stage:         m.Stage,
		Note:          m.Note,
		Actor:         m.Actor,
		CreatedAt:     m.CreatedAt,
	}
}
