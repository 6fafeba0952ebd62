package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateOrder        = "CREATE_ORDER"
	ActionAssignAgent        = "ASSIGN_AGENT"
	ActionOrderStatusChange  = "ORDER_STATUS_CHANGE"
	ActionBulkCarpetStatus   = "BULK_CARPET_STATUS"
	ActionGenerateInvoice    = "GENERATE_INVOICE"
	ActionRegenerateInvoice  = "REGENERATE_INVOICE"
	ActionSettlePayment      = "SETTLE_PAYMENT"
	ActionCreateCommission   = "CREATE_COMMISSION"
	ActionPayCommission      = "PAY_COMMISSION"
	ActionDeleteCommission   = "DELETE_COMMISSION"
	ActionCreateCarpetType   = "CREATE_CARPET_TYPE"
	ActionUpdateCarpetType   = "UPDATE_CARPET_TYPE"
	ActionDeleteCarpetType   = "DELETE_CARPET_TYPE"
	ActionCreateAddonService = "CREATE_ADDON_SERVICE"
	ActionUpdateAddonService = "UPDATE_ADDON_SERVICE"
	ActionDeleteAddonService = "DELETE_ADDON_SERVICE"
	ActionCreateTaxSetting   = "CREATE_TAX_SETTING"
	ActionUpdateTaxSetting   = "UPDATE_TAX_SETTING"

	ActionCreateCommissionType = "CREATE_COMMISSION_TYPE"
	ActionUpdateCommissionType = "UPDATE_COMMISSION_TYPE"
	ActionDeleteCommissionType = "DELETE_COMMISSION_TYPE"

	ActionCreateAgent = "CREATE_AGENT"
	ActionUpdateAgent = "UPDATE_AGENT"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated bot
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
