package model

import (
	"time"

	"github.com/google/uuid"
)

// Order status enum constants
const (
	OrderStatusPending       = "pending"
	OrderStatusAwaitingAgent = "awaiting_agent"
	OrderStatusAssigned      = "assigned"
	OrderStatusAgentAccepted = "agent_accepted"
	OrderStatusAgentRejected = "agent_rejected"
	OrderStatusAgentPickup   = "agent_pickup"
	OrderStatusHQPickup      = "hq_pickup"
	OrderStatusPickedUp      = "picked_up"
	OrderStatusInCleaning    = "in_cleaning"
	OrderStatusHQInspection  = "hq_inspection"
	OrderStatusCleaned       = "cleaned"
	OrderStatusDelivered     = "delivered"
	OrderStatusInvoiced      = "invoiced"
	OrderStatusCompleted     = "completed"
	OrderStatusCanceled      = "canceled"
)

// OrderStatuses lists every valid order status in lifecycle order.
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusAwaitingAgent,
	OrderStatusAssigned,
	OrderStatusAgentAccepted,
	OrderStatusAgentRejected,
	OrderStatusAgentPickup,
	OrderStatusHQPickup,
	OrderStatusPickedUp,
	OrderStatusInCleaning,
	OrderStatusHQInspection,
	OrderStatusCleaned,
	OrderStatusDelivered,
	OrderStatusInvoiced,
	OrderStatusCompleted,
	OrderStatusCanceled,
}

// IsValidOrderStatus reports whether s is a known order status value.
func IsValidOrderStatus(s string) bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Order represents one customer engagement covering pickup, cleaning and
// delivery of one or more carpets.
type Order struct {
	ID                uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReferenceNo       string               `gorm:"type:varchar(30);uniqueIndex;not null" json:"reference_no"`
	ClientID          uuid.UUID            `gorm:"type:uuid;not null;index" json:"client_id"`
	Client            *User                `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	AgentID           *uuid.UUID           `gorm:"type:uuid;index" json:"agent_id"`
	Agent             *Agent               `gorm:"foreignKey:AgentID" json:"agent,omitempty"`
	Status            string               `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PickupDate        *time.Time           `json:"pickup_date"`
	DeliveryDate      *time.Time           `json:"delivery_date"`
	PickupAddressID   *uuid.UUID           `gorm:"type:uuid" json:"pickup_address_id"`   // address book is an external collaborator
	DeliveryAddressID *uuid.UUID           `gorm:"type:uuid" json:"delivery_address_id"` // opaque reference only
	CarpetCount       int                  `gorm:"not null;default:0" json:"carpet_count"`
	Notes             string               `gorm:"type:text" json:"notes"`
	Carpets           []Carpet             `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"carpets,omitempty"`
	Invoice           *Invoice             `gorm:"foreignKey:OrderID" json:"invoice,omitempty"`
	StatusHistory     []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"status_history,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// OrderStatusHistory is an append-only audit record of a committed status
// change. Rows are never updated or deleted.
type OrderStatusHistory struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"order_id"`
	OldStatus string     `gorm:"type:varchar(20);not null" json:"old_status"`
	NewStatus string     `gorm:"type:varchar(20);not null" json:"new_status"`
	ChangedBy *uuid.UUID `gorm:"type:uuid" json:"changed_by"`
	ActorRole string     `gorm:"type:varchar(20)" json:"actor_role"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}
