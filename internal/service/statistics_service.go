package service

import (
	"context"
	"fmt"
	"time"

	"carpetcare/internal/model"
	"carpetcare/internal/repository"
)

type StatisticsService interface {
	GetStatistics(ctx context.Context, startDate, endDate time.Time) (model.StatisticsResponse, error)
}

type statisticsService struct {
	repo repository.StatisticsRepository
}

func NewStatisticsService(repo repository.StatisticsRepository) StatisticsService {
	return &statisticsService{repo: repo}
}

// GetStatistics aggregates billing and payout metrics for a time range
func (s *statisticsService) GetStatistics(ctx context.Context, startDate, endDate time.Time) (model.StatisticsResponse, error) {
	var response model.StatisticsResponse
	response.TimeRangeStartDate = startDate
	response.TimeRangeEndDate = endDate

	invoiced, invoiceCount, err := s.repo.GetInvoiceTotals(ctx, "", startDate, endDate)
	if err != nil {
		return response, fmt.Errorf("failed to compute invoice totals: %w", err)
	}
	response.TotalInvoicedAmount = invoiced
	response.TotalInvoices = invoiceCount

	paid, paidCount, err := s.repo.GetInvoiceTotals(ctx, model.InvoiceStatusPaid, startDate, endDate)
	if err != nil {
		return response, fmt.Errorf("failed to compute paid invoice totals: %w", err)
	}
	response.TotalPaidAmount = paid
	response.TotalPaidInvoices = paidCount

	payout, _, err := s.repo.GetCommissionTotals(ctx, model.CommissionStatusPaid, startDate, endDate)
	if err != nil {
		return response, fmt.Errorf("failed to compute commission payouts: %w", err)
	}
	response.TotalCommissionPayout = payout

	_, pendingCount, err := s.repo.GetCommissionTotals(ctx, model.CommissionStatusPending, startDate, endDate)
	if err != nil {
		return response, fmt.Errorf("failed to compute pending commissions: %w", err)
	}
	response.PendingCommissions = pendingCount

	topTypes, err := s.repo.GetTopCarpetTypes(ctx, startDate, endDate, 5)
	if err != nil {
		return response, fmt.Errorf("failed to rank carpet types: %w", err)
	}
	response.TopCarpetTypes = topTypes

	topAgents, err := s.repo.GetTopAgents(ctx, startDate, endDate, 5)
	if err != nil {
		return response, fmt.Errorf("failed to rank agents: %w", err)
	}
	response.TopAgents = topAgents

	return response, nil
}
