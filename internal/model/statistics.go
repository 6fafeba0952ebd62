package model

import (
	"time"
)

// StatisticsResponse aggregates billing and payout totals for a time range
type StatisticsResponse struct {
	TotalInvoicedAmount   string             `json:"total_invoiced_amount"`
	TotalPaidAmount       string             `json:"total_paid_amount"`
	TotalInvoices         int                `json:"total_invoices"`
	TotalPaidInvoices     int                `json:"total_paid_invoices"`
	TotalCommissionPayout string             `json:"total_commission_payout"`
	PendingCommissions    int                `json:"pending_commissions"`
	TopCarpetTypes        []CarpetTypeUsage  `json:"top_carpet_types"`
	TopAgents             []AgentPerformance `json:"top_agents"`
	TimeRangeStartDate    time.Time          `json:"time_range_start_date"`
	TimeRangeEndDate      time.Time          `json:"time_range_end_date"`
}

// CarpetTypeUsage ranks a carpet type by billed volume
type CarpetTypeUsage struct {
	CarpetTypeID   string `json:"carpet_type_id"`
	CarpetTypeName string `json:"carpet_type_name"`
	TotalCarpets   int    `json:"total_carpets"`
	TotalValue     string `json:"total_value"`
}

// AgentPerformance ranks an agent by invoiced value and earned commission
type AgentPerformance struct {
	AgentID         string `json:"agent_id"`
	AgentName       string `json:"agent_name"`
	TotalOrders     int    `json:"total_orders"`
	TotalInvoiced   string `json:"total_invoiced"`
	TotalCommission string `json:"total_commission"`
}
