package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Carpet status enum constants (subset of the order lifecycle)
const (
	CarpetStatusPending      = "pending"
	CarpetStatusPickedUp     = "picked_up"
	CarpetStatusHQInspection = "hq_inspection"
	CarpetStatusInCleaning   = "in_cleaning"
	CarpetStatusCleaned      = "cleaned"
	CarpetStatusDelivered    = "delivered"
	CarpetStatusCanceled     = "canceled"
)

// CarpetStatuses lists every valid carpet status.
var CarpetStatuses = []string{
	CarpetStatusPending,
	CarpetStatusPickedUp,
	CarpetStatusHQInspection,
	CarpetStatusInCleaning,
	CarpetStatusCleaned,
	CarpetStatusDelivered,
	CarpetStatusCanceled,
}

// IsValidCarpetStatus reports whether s is a known carpet status value.
func IsValidCarpetStatus(s string) bool {
	for _, v := range CarpetStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Carpet is one physical item tracked within an order, priced individually.
// Width and length are in feet and may be absent for fixed-price types.
type Carpet struct {
	ID                uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID           uuid.UUID            `gorm:"type:uuid;not null;index" json:"order_id"`
	CarpetTypeID      *uuid.UUID           `gorm:"type:uuid;index" json:"carpet_type_id"`
	CarpetType        *CarpetType          `gorm:"foreignKey:CarpetTypeID" json:"carpet_type,omitempty"`
	Width             *decimal.Decimal     `gorm:"type:decimal(10,2)" json:"width"`
	Length            *decimal.Decimal     `gorm:"type:decimal(10,2)" json:"length"`
	Color             string               `gorm:"type:varchar(50)" json:"color"`
	Status            string               `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	AdditionalCharges decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0" json:"additional_charges"`
	PackLabel         string               `gorm:"type:varchar(50)" json:"pack_label"`
	AddonServices     []CarpetAddonService `gorm:"foreignKey:CarpetID;constraint:OnDelete:CASCADE" json:"addon_services,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// CarpetAddonService joins a carpet to an addon service, optionally carrying
// a per-carpet price override.
type CarpetAddonService struct {
	ID             uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CarpetID       uuid.UUID        `gorm:"type:uuid;not null;index:idx_carpet_addon,unique" json:"carpet_id"`
	AddonServiceID uuid.UUID        `gorm:"type:uuid;not null;index:idx_carpet_addon,unique" json:"addon_service_id"`
	AddonService   *AddonService    `gorm:"foreignKey:AddonServiceID" json:"addon_service,omitempty"`
	PriceOverride  *decimal.Decimal `gorm:"type:decimal(18,2)" json:"price_override"`
	Notes          string           `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time        `json:"created_at"`
}

// SquareFootage returns width*length, or nil when either dimension is absent.
func (c *Carpet) SquareFootage() *decimal.Decimal {
	if c.Width == nil || c.Length == nil {
		return nil
	}
	area := c.Width.Mul(*c.Length)
	return &area
}

// TotalPrice computes the price of this carpet: type base contribution plus
// additional charges, plus each attached addon when includeAddons is set.
// The result is rounded to 2 decimals.
func (c *Carpet) TotalPrice(includeAddons bool) decimal.Decimal {
	total := c.AdditionalCharges
	if c.CarpetType != nil {
		total = total.Add(c.CarpetType.Price(c.Width, c.Length))
	}
	if includeAddons {
		for _, link := range c.AddonServices {
			if link.AddonService == nil {
				continue
			}
			total = total.Add(link.AddonService.Price(c, link.PriceOverride))
		}
	}
	return total.Round(2)
}
