package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice status enum constants
const (
	InvoiceStatusPending   = "pending"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusCancelled = "cancelled"
	InvoiceStatusOverdue   = "overdue"
)

// DiscountMode enum constants
const (
	DiscountModeFixed      = "fixed"
	DiscountModePercentage = "percentage"
)

// TaxMode enum constants
const (
	TaxModePercentage = "percentage"
	TaxModeFixed      = "fixed"
)

// InvoiceItem type enum constants
const (
	ItemTypeCarpetBase   = "carpet_base"
	ItemTypeAddonService = "addon_service"
	ItemTypeOther        = "other"
)

// Invoice is the billable summary of an order's carpets and addons after
// discount and tax. At most one non-cancelled invoice exists per order.
type Invoice struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	InvoiceNo      string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"invoice_no"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"subtotal"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"discount_amount"`
	DiscountMode   string          `gorm:"type:varchar(20);not null;default:'fixed'" json:"discount_mode"` // fixed, percentage
	TaxSettingID   *uuid.UUID      `gorm:"type:uuid" json:"tax_setting_id"`
	TaxSetting     *TaxSetting     `gorm:"foreignKey:TaxSettingID" json:"tax_setting,omitempty"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"tax_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_amount"`
	Status         string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	IssuedAt       time.Time       `gorm:"not null" json:"issued_at"`
	DueDate        *time.Time      `gorm:"index" json:"due_date"`
	Notes          string          `gorm:"type:text" json:"notes"`
	Items          []InvoiceItem   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Payments       []Payment       `gorm:"foreignKey:InvoiceID" json:"payments,omitempty"`
	Commission     *Commission     `gorm:"foreignKey:InvoiceID" json:"commission,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// InvoiceItem is one billed line of an invoice, optionally tied to a carpet.
type InvoiceItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	CarpetID    *uuid.UUID      `gorm:"type:uuid;index" json:"carpet_id"`
	ItemType    string          `gorm:"type:varchar(20);not null" json:"item_type"` // carpet_base, addon_service, other
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:1" json:"quantity"`
	Unit        string          `gorm:"type:varchar(20)" json:"unit"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"unit_price"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"subtotal"`
	SortOrder   int             `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt   time.Time       `json:"created_at"`
}

// InvoiceSequence backs the per-day atomic invoice/order numbering counter
// when Redis is not configured. One row per (prefix, day), bumped with an
// upsert so concurrent allocations serialize at the storage level.
type InvoiceSequence struct {
	Prefix  string `gorm:"type:varchar(10);primaryKey"`
	Day     string `gorm:"type:varchar(8);primaryKey"`
	LastSeq int64  `gorm:"not null;default:0"`
}
