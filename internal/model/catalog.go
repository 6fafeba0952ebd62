package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PricingMode enum constants
const (
	PricingModeFixed   = "fixed"
	PricingModePerArea = "per_area"
)

// CarpetType is a priced category of carpet (e.g. wool, synthetic).
type CarpetType struct {
	ID                   uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name                 string          `gorm:"type:varchar(100);not null" json:"name"`
	PricingMode          string          `gorm:"type:varchar(20);not null;default:'fixed'" json:"pricing_mode"` // fixed, per_area
	BasePrice            decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"base_price"`
	CleaningInstructions string          `gorm:"type:text" json:"cleaning_instructions"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	DeletedAt            gorm.DeletedAt  `gorm:"index" json:"-"`
}

// Price computes the price of one carpet of this type. Per-area types
// multiply base price by width*length; when either dimension is absent they
// fall back to the bare base price.
func (t *CarpetType) Price(width, length *decimal.Decimal) decimal.Decimal {
	if t.PricingMode != PricingModePerArea {
		return t.BasePrice
	}
	if width == nil || length == nil {
		return t.BasePrice
	}
	return t.BasePrice.Mul(*width).Mul(*length).Round(2)
}

// AddonService is an optional extra treatment attachable to a carpet.
type AddonService struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(100);not null" json:"name"`
	PricingMode string          `gorm:"type:varchar(20);not null;default:'fixed'" json:"pricing_mode"` // fixed, per_area
	BasePrice   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"base_price"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// Price resolves the price of this addon for a given carpet. An explicit
// override wins; otherwise per-area services scale by the carpet's square
// footage, falling back to the bare base price when it is unavailable.
func (a *AddonService) Price(carpet *Carpet, override *decimal.Decimal) decimal.Decimal {
	if override != nil {
		return *override
	}
	if a.PricingMode != PricingModePerArea {
		return a.BasePrice
	}
	if carpet == nil {
		return a.BasePrice
	}
	sqft := carpet.SquareFootage()
	if sqft == nil {
		return a.BasePrice
	}
	return sqft.Mul(a.BasePrice).Round(2)
}

// TaxSetting stores a named tax mode and rate applied at invoice time.
type TaxSetting struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string          `gorm:"type:varchar(100);not null" json:"name"`
	Mode      string          `gorm:"type:varchar(20);not null;default:'percentage'" json:"mode"` // percentage, fixed
	Rate      decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"rate"`
	IsActive  bool            `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
