package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Agent status enum constants
const (
	AgentStatusActive   = "active"
	AgentStatusInactive = "inactive"
)

// Commission status enum constants
const (
	CommissionStatusPending = "pending"
	CommissionStatusPaid    = "paid"
)

// Agent is a field worker handling pickup and delivery, paid commission per
// invoiced order. FixedCommission and PercentageCommission are the legacy
// direct fields used only when no commission type resolves.
type Agent struct {
	ID                   uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID               uuid.UUID             `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User                 *User                 `gorm:"foreignKey:UserID" json:"user,omitempty"`
	FixedCommission      decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0" json:"fixed_commission"`
	PercentageCommission decimal.Decimal       `gorm:"type:decimal(10,4);not null;default:0" json:"percentage_commission"`
	Status               string                `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	Notes                string                `gorm:"type:text" json:"notes"`
	CommissionTypes      []AgentCommissionType `gorm:"foreignKey:AgentID;constraint:OnDelete:CASCADE" json:"commission_types,omitempty"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
}

// CommissionType is a named fixed+percentage payout rule, optionally bounded
// to an invoice-amount range.
type CommissionType struct {
	ID               uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name             string           `gorm:"type:varchar(100);not null" json:"name"`
	FixedAmount      decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0" json:"fixed_amount"`
	PercentageRate   decimal.Decimal  `gorm:"type:decimal(10,4);not null;default:0" json:"percentage_rate"`
	IsActive         bool             `gorm:"default:true" json:"is_active"`
	MinInvoiceAmount *decimal.Decimal `gorm:"type:decimal(18,2)" json:"min_invoice_amount"`
	MaxInvoiceAmount *decimal.Decimal `gorm:"type:decimal(18,2)" json:"max_invoice_amount"`
	IsDefault        bool             `gorm:"default:false" json:"is_default"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	DeletedAt        gorm.DeletedAt   `gorm:"index" json:"-"`
}

// AppliesTo reports whether this type's optional amount bounds admit amt.
// A type with no bounds is always applicable.
func (t *CommissionType) AppliesTo(amt decimal.Decimal) bool {
	if t.MinInvoiceAmount != nil && amt.LessThan(*t.MinInvoiceAmount) {
		return false
	}
	if t.MaxInvoiceAmount != nil && amt.GreaterThan(*t.MaxInvoiceAmount) {
		return false
	}
	return true
}

// AgentCommissionType associates an agent with a commission type, optionally
// overriding the type's fixed amount and percentage rate for that agent.
type AgentCommissionType struct {
	ID                 uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AgentID            uuid.UUID        `gorm:"type:uuid;not null;index:idx_agent_commission_type,unique" json:"agent_id"`
	CommissionTypeID   uuid.UUID        `gorm:"type:uuid;not null;index:idx_agent_commission_type,unique" json:"commission_type_id"`
	CommissionType     *CommissionType  `gorm:"foreignKey:CommissionTypeID" json:"commission_type,omitempty"`
	FixedOverride      *decimal.Decimal `gorm:"type:decimal(18,2)" json:"fixed_override"`
	PercentageOverride *decimal.Decimal `gorm:"type:decimal(10,4)" json:"percentage_override"`
	IsActive           bool             `gorm:"default:true" json:"is_active"`
	Notes              string           `gorm:"type:text" json:"notes"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// Fixed returns the effective fixed amount for this association.
func (a *AgentCommissionType) Fixed() decimal.Decimal {
	if a.FixedOverride != nil {
		return *a.FixedOverride
	}
	if a.CommissionType != nil {
		return a.CommissionType.FixedAmount
	}
	return decimal.Zero
}

// Percentage returns the effective percentage rate for this association.
func (a *AgentCommissionType) Percentage() decimal.Decimal {
	if a.PercentageOverride != nil {
		return *a.PercentageOverride
	}
	if a.CommissionType != nil {
		return a.CommissionType.PercentageRate
	}
	return decimal.Zero
}

// Commission is the payout owed to an agent for one paid invoice. At most one
// commission exists per invoice; the unique indexes enforce this at the
// storage level so concurrent settlement requests cannot double-create.
type Commission struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AgentID          uuid.UUID       `gorm:"type:uuid;not null;index:idx_agent_invoice,unique" json:"agent_id"`
	Agent            *Agent          `gorm:"foreignKey:AgentID" json:"agent,omitempty"`
	InvoiceID        uuid.UUID       `gorm:"type:uuid;uniqueIndex;index:idx_agent_invoice,unique;not null" json:"invoice_id"`
	Invoice          *Invoice        `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"`
	CommissionTypeID *uuid.UUID      `gorm:"type:uuid" json:"commission_type_id"` // nil on the legacy direct-field path
	CommissionType   *CommissionType `gorm:"foreignKey:CommissionTypeID" json:"commission_type,omitempty"`
	FixedAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"fixed_amount"`
	Percentage       decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"percentage"`
	TotalCommission  decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_commission"`
	Status           string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaidAt           *time.Time      `json:"paid_at"`
	Notes            string          `gorm:"type:text" json:"notes"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
