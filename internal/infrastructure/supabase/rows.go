package supabase

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// Formatos de fecha que devuelve PostgREST: date plano y timestamp RFC3339.
const dateLayout = "2006-01-02"

func parseDate(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	for _, layout := range []string{dateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, *s); err == nil {
			return &t
		}
	}
	return nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseTimestampPtr(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t := parseTimestamp(*s)
	return &t
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimestampPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTimestamp(*t)
	return &s
}

type itemRow struct {
	ID           string          `json:"id,omitempty"`
	Code         string          `json:"code"`
	OptionalCode string          `json:"optional_code"`
	Description  string          `json:"description"`
	Type         string          `json:"type"`
	Unit         string          `json:"unit"`
	Dimension    string          `json:"dimension"`
	Client       string          `json:"client"`
	Address      string          `json:"address"`
	QtyOnHand    decimal.Decimal `json:"qty_on_hand"`
	MinQty       decimal.Decimal `json:"min_qty"`
	IdealBuyQty  decimal.Decimal `json:"ideal_buy_qty"`
	LeadTimeDays int             `json:"lead_time_days"`
	CreatedAt    string          `json:"created_at,omitempty"`
}

func itemToRow(it *entity.Item) itemRow {
	return itemRow{
		ID: it.ID, Code: it.Code, OptionalCode: it.OptionalCode,
		Description: it.Description, Type: it.Type, Unit: it.Unit,
		Dimension: it.Dimension, Client: it.Client, Address: it.Address,
		QtyOnHand: it.QtyOnHand, MinQty: it.MinQty, IdealBuyQty: it.IdealBuyQty,
		LeadTimeDays: it.LeadTimeDays, CreatedAt: formatTimestamp(it.CreatedAt),
	}
}

func (r itemRow) toEntity() *entity.Item {
	return &entity.Item{
		ID: r.ID, Code: r.Code, OptionalCode: r.OptionalCode,
		Description: r.Description, Type: r.Type, Unit: r.Unit,
		Dimension: r.Dimension, Client: r.Client, Address: r.Address,
		QtyOnHand: r.QtyOnHand, MinQty: r.MinQty, IdealBuyQty: r.IdealBuyQty,
		LeadTimeDays: r.LeadTimeDays, CreatedAt: parseTimestamp(r.CreatedAt),
	}
}

type lotRow struct {
	ID            string          `json:"id,omitempty"`
	ItemID        string          `json:"item_id"`
	LotCode       string          `json:"lot_code"`
	InvoiceItem   string          `json:"invoice_item"`
	InvoiceNumber string          `json:"invoice_number"`
	Expiry        *string         `json:"expiry"`
	Station       string          `json:"station"`
	Quantity      decimal.Decimal `json:"quantity"`
	EnteredAt     string          `json:"entered_at,omitempty"`
	LabelStatus   string          `json:"label_status"`
	LabelAt       *string         `json:"label_at"`
	LabelBy       string          `json:"label_by"`
}

func lotToRow(l *entity.Lot) lotRow {
	return lotRow{
		ID: l.ID, ItemID: l.ItemID, LotCode: l.LotCode,
		InvoiceItem: l.InvoiceItem, InvoiceNumber: l.InvoiceNumber,
		Expiry: formatDate(l.Expiry), Station: l.Station, Quantity: l.Quantity,
		EnteredAt: formatTimestamp(l.EnteredAt), LabelStatus: l.LabelStatus,
		LabelAt: formatTimestampPtr(l.LabelAt), LabelBy: l.LabelBy,
	}
}

func (r lotRow) toEntity() *entity.Lot {
	return &entity.Lot{
		ID: r.ID, ItemID: r.ItemID, LotCode: r.LotCode,
		InvoiceItem: r.InvoiceItem, InvoiceNumber: r.InvoiceNumber,
		Expiry: parseDate(r.Expiry), Station: r.Station, Quantity: r.Quantity,
		EnteredAt: parseTimestamp(r.EnteredAt), LabelStatus: r.LabelStatus,
		LabelAt: parseTimestampPtr(r.LabelAt), LabelBy: r.LabelBy,
	}
}

type movementRow struct {
	ID            string          `json:"id,omitempty"`
	ItemID        string          `json:"item_id"`
	Type          string          `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	LotCode       string          `json:"lot_code"`
	InvoiceItem   string          `json:"invoice_item"`
	InvoiceNumber string          `json:"invoice_number"`
	Stage         string          `json:"stage"`
	Note          string          `json:"note"`
	Actor         string          `json:"actor"`
	CreatedAt     string          `json:"created_at,omitempty"`
}

func movementToRow(m *entity.Movement) movementRow {
	return movementRow{
		ID: m.ID, ItemID: m.ItemID, Type: m.Type, Quantity: m.Quantity,
		LotCode: m.LotCode, InvoiceItem: m.InvoiceItem, InvoiceNumber: m.InvoiceNumber,
		Stage: m.Stage, Note: m.Note, Actor: m.Actor,
		CreatedAt: formatTimestamp(m.CreatedAt),
	}
}

func (r movementRow) toEntity() *entity.Movement {
	return &entity.Movement{
		ID: r.ID, ItemID: r.ItemID, Type: r.Type, Quantity: r.Quantity,
		LotCode: r.LotCode, InvoiceItem: r.InvoiceItem, InvoiceNumber: r.InvoiceNumber,
		Stage: r.Stage, Note: r.Note, Actor: r.Actor,
		CreatedAt: parseTimestamp(r.CreatedAt),
	}
}

type consumableRow struct {
	ID          string          `json:"id,omitempty"`
	ProductNo   string          `json:"product_no"`
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	StockStatus string          `json:"stock_status"`
	UsageStatus string          `json:"usage_status"`
	Category    string          `json:"category"`
	Supplier    string          `json:"supplier"`
	Supplier2   string          `json:"supplier2"`
	UnitValue   decimal.Decimal `json:"unit_value"`
	LeadTime    int             `json:"lead_time"`
	SafetyStock decimal.Decimal `json:"safety_stock"`
	MinQty      decimal.Decimal `json:"min_qty"`
	Quantity    decimal.Decimal `json:"quantity"`
	CreatedAt   string          `json:"created_at,omitempty"`
}

func consumableToRow(c *entity.Consumable) consumableRow {
	return consumableRow{
		ID: c.ID, ProductNo: c.ProductNo, Code: c.Code, Description: c.Description,
		Unit: c.Unit, StockStatus: c.StockStatus, UsageStatus: c.UsageStatus,
		Category: c.Category, Supplier: c.Supplier, Supplier2: c.Supplier2,
		UnitValue: c.UnitValue, LeadTime: c.LeadTime, SafetyStock: c.SafetyStock,
		MinQty: c.MinQty, Quantity: c.Quantity, CreatedAt: formatTimestamp(c.CreatedAt),
	}
}

func (r consumableRow) toEntity() *entity.Consumable {
	return &entity.Consumable{
		ID: r.ID, ProductNo: r.ProductNo, Code: r.Code, Description: r.Description,
		Unit: r.Unit, StockStatus: r.StockStatus, UsageStatus: r.UsageStatus,
		Category: r.Category, Supplier: r.Supplier, Supplier2: r.Supplier2,
		UnitValue: r.UnitValue, LeadTime: r.LeadTime, SafetyStock: r.SafetyStock,
		MinQty: r.MinQty, Quantity: r.Quantity, CreatedAt: parseTimestamp(r.CreatedAt),
	}
}

type consumableMovementRow struct {
	ID           string          `json:"id,omitempty"`
	ConsumableID string          `json:"consumable_id"`
	Type         string          `json:"type"`
	Quantity     decimal.Decimal `json:"quantity"`
	Sector       string          `json:"sector"`
	Note         string          `json:"note"`
	Actor        string          `json:"actor"`
	CreatedAt    string          `json:"created_at,omitempty"`
}

func consumableMovementToRow(m *entity.ConsumableMovement) consumableMovementRow {
	return consumableMovementRow{
		ID: m.ID, ConsumableID: m.ConsumableID, Type: m.Type, Quantity: m.Quantity,
		Sector: m.Sector, Note: m.Note, Actor: m.Actor,
		CreatedAt: formatTimestamp(m.CreatedAt),
	}
}

func (r consumableMovementRow) toEntity() *entity.ConsumableMovement {
	return &entity.ConsumableMovement{
		ID: r.ID, ConsumableID: r.ConsumableID, Type: r.Type, Quantity: r.Quantity,
		Sector: r.Sector, Note: r.Note, Actor: r.Actor,
		CreatedAt: parseTimestamp(r.CreatedAt),
	}
}

type userRow struct {
	ID           string `json:"id,omitempty"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	Role         string `json:"role"`
	CreatedAt    string `json:"created_at,omitempty"`
}

func userToRow(u *entity.User) userRow {
	return userRow{
		ID: u.ID, Username: u.Username, PasswordHash: u.PasswordHash,
		Role: u.Role, CreatedAt: formatTimestamp(u.CreatedAt),
	}
}

func (r userRow) toEntity() *entity.User {
	return &entity.User{
		ID: r.ID, Username: r.Username, PasswordHash: r.PasswordHash,
		Role: r.Role, CreatedAt: parseTimestamp(r.CreatedAt),
	}
}
