package repository

import (
	"context"
	"fmt"
	"time"

	"carpetcare/internal/model"

	"gorm.io/gorm"
)

type StatisticsRepository interface {
	GetInvoiceTotals(ctx context.Context, status string, start, end time.Time) (value string, count int, err error)
	GetCommissionTotals(ctx context.Context, status string, start, end time.Time) (value string, count int, err error)
	GetTopCarpetTypes(ctx context.Context, start, end time.Time, limit int) ([]model.CarpetTypeUsage, error)
	GetTopAgents(ctx context.Context, start, end time.Time, limit int) ([]model.AgentPerformance, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) GetInvoiceTotals(ctx context.Context, status string, start, end time.Time) (string, int, error) {
	var result struct {
		Value string
		Count int
	}
	query := r.db.WithContext(ctx).Table("invoices").
		Select("COALESCE(CAST(SUM(total_amount) AS TEXT), '0') as value, COUNT(id) as count").
		Where("created_at >= ? AND created_at <= ?", start, end)
	if status != "" {
		query = query.Where("status = ?", status)
	} else {
		query = query.Where("status <> ?", model.InvoiceStatusCancelled)
	}
	if err := query.Scan(&result).Error; err != nil {
		return "0", 0, fmt.Errorf("failed to query invoice totals: %w", err)
	}
	return result.Value, result.Count, nil
}

func (r *statisticsRepository) GetCommissionTotals(ctx context.Context, status string, start, end time.Time) (string, int, error) {
	var result struct {
		Value string
		Count int
	}
	query := r.db.WithContext(ctx).Table("commissions").
		Select("COALESCE(CAST(SUM(total_commission) AS TEXT), '0') as value, COUNT(id) as count").
		Where("created_at >= ? AND created_at <= ?", start, end)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Scan(&result).Error; err != nil {
		return "0", 0, fmt.Errorf("failed to query commission totals: %w", err)
	}
	return result.Value, result.Count, nil
}

func (r *statisticsRepository) GetTopCarpetTypes(ctx context.Context, start, end time.Time, limit int) ([]model.CarpetTypeUsage, error) {
	var rankings []model.CarpetTypeUsage
	if err := r.db.WithContext(ctx).Table("invoice_items").
		Select("carpet_types.id as carpet_type_id, carpet_types.name as carpet_type_name, COUNT(DISTINCT invoice_items.carpet_id) as total_carpets, COALESCE(CAST(SUM(invoice_items.subtotal) AS TEXT), '0') as total_value").
		Joins("JOIN carpets ON carpets.id = invoice_items.carpet_id").
		Joins("JOIN carpet_types ON carpet_types.id = carpets.carpet_type_id").
		Joins("JOIN invoices ON invoices.id = invoice_items.invoice_id").
		Where("invoices.status <> ? AND invoices.created_at >= ? AND invoices.created_at <= ?", model.InvoiceStatusCancelled, start, end).
		Where("invoice_items.item_type = ?", model.ItemTypeCarpetBase).
		Group("carpet_types.id, carpet_types.name").
		Order("total_carpets DESC").
		Limit(limit).
		Scan(&rankings).Error; err != nil {
		return nil, fmt.Errorf("failed to query top carpet types: %w", err)
	}
	return rankings, nil
}

func (r *statisticsRepository) GetTopAgents(ctx context.Context, start, end time.Time, limit int) ([]model.AgentPerformance, error) {
	var rankings []model.AgentPerformance
	if err := r.db.WithContext(ctx).Table("commissions").
		Select("agents.id as agent_id, users.username as agent_name, COUNT(commissions.id) as total_orders, COALESCE(CAST(SUM(invoices.total_amount) AS TEXT), '0') as total_invoiced, COALESCE(CAST(SUM(commissions.total_commission) AS TEXT), '0') as total_commission").
		Joins("JOIN agents ON agents.id = commissions.agent_id").
		Joins("JOIN users ON users.id = agents.user_id").
		Joins("JOIN invoices ON invoices.id = commissions.invoice_id").
		Where("commissions.created_at >= ? AND commissions.created_at <= ?", start, end).
		Group("agents.id, users.username").
		Order("total_invoiced DESC").
		Limit(limit).
		Scan(&rankings).Error; err != nil {
		return nil, fmt.Errorf("failed to query top agents: %w", err)
	}
	return rankings, nil
}
