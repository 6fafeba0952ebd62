package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment status enum constants
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusCancelled = "cancelled"
	PaymentStatusFailed    = "failed"
)

// Gateway webhook result statuses
const (
	GatewayResultSuccess = "success"
	GatewayResultPending = "pending"
	GatewayResultFailed  = "failed"
)

// Payment records money received (or expected) against an invoice. The
// external bill reference ties it to the payment gateway's bill.
type Payment struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Status        string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Method        string          `gorm:"type:varchar(30)" json:"method"`
	BillReference string          `gorm:"type:varchar(100);uniqueIndex" json:"bill_reference"`
	TransactionID string          `gorm:"type:varchar(100)" json:"transaction_id"`
	PaidAt        *time.Time      `json:"paid_at"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
