package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"carpetcare/internal/apperr"
	"carpetcare/internal/model"
	"carpetcare/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CommissionQuote is a resolved payout for an agent and invoice amount before
// any commission record exists.
type CommissionQuote struct {
	CommissionTypeID *uuid.UUID
	FixedAmount      decimal.Decimal
	Percentage       decimal.Decimal
	Total            decimal.Decimal
	Source           string
}

// Quote sources, most specific first.
const (
	QuoteSourceApplicable    = "applicable_type"
	QuoteSourceAgentDefault  = "agent_default"
	QuoteSourceGlobalDefault = "global_default"
	QuoteSourceLegacyFields  = "agent_legacy"
)

// ResolveCommission picks the payout rule for an agent and invoice amount.
//
// Among the agent's active associations whose type is active and admits the
// amount, the one paying the most wins; ties keep the earliest association.
// With no applicable candidate the agent's default-flagged association is
// used, then the first active one, then the global default type, and finally
// the agent's legacy fixed and percentage fields.
func ResolveCommission(agent *model.Agent, globalDefault *model.CommissionType, invoiceAmount decimal.Decimal) CommissionQuote {
	var best *model.AgentCommissionType
	var bestTotal decimal.Decimal

	for i := range agent.CommissionTypes {
		link := &agent.CommissionTypes[i]
		if !link.IsActive || link.CommissionType == nil || !link.CommissionType.IsActive {
			continue
		}
		if !link.CommissionType.AppliesTo(invoiceAmount) {
			continue
		}
		total := quoteTotal(link.Fixed(), link.Percentage(), invoiceAmount)
		if best == nil || total.GreaterThan(bestTotal) {
			best = link
			bestTotal = total
		}
	}
	if best != nil {
		return quoteFromLink(best, invoiceAmount, QuoteSourceApplicable)
	}

	var fallback *model.AgentCommissionType
	for i := range agent.CommissionTypes {
		link := &agent.CommissionTypes[i]
		if !link.IsActive || link.CommissionType == nil || !link.CommissionType.IsActive {
			continue
		}
		if link.CommissionType.IsDefault {
			fallback = link
			break
		}
		if fallback == nil {
			fallback = link
		}
	}
	if fallback != nil {
		return quoteFromLink(fallback, invoiceAmount, QuoteSourceAgentDefault)
	}

	if globalDefault != nil {
		id := globalDefault.ID
		return CommissionQuote{
			CommissionTypeID: &id,
			FixedAmount:      globalDefault.FixedAmount,
			Percentage:       globalDefault.PercentageRate,
			Total:            quoteTotal(globalDefault.FixedAmount, globalDefault.PercentageRate, invoiceAmount),
			Source:           QuoteSourceGlobalDefault,
		}
	}

	return CommissionQuote{
		FixedAmount: agent.FixedCommission,
		Percentage:  agent.PercentageCommission,
		Total:       quoteTotal(agent.FixedCommission, agent.PercentageCommission, invoiceAmount),
		Source:      QuoteSourceLegacyFields,
	}
}

func quoteTotal(fixed, percentage, amount decimal.Decimal) decimal.Decimal {
	return fixed.Add(amount.Mul(percentage).Div(oneHundred)).Round(2)
}

func quoteFromLink(link *model.AgentCommissionType, amount decimal.Decimal, source string) CommissionQuote {
	id := link.CommissionTypeID
	return CommissionQuote{
		CommissionTypeID: &id,
		FixedAmount:      link.Fixed(),
		Percentage:       link.Percentage(),
		Total:            quoteTotal(link.Fixed(), link.Percentage(), amount),
		Source:           source,
	}
}

// --- DTOs ---

type CommissionResponse struct {
	ID               string  `json:"id"`
	AgentID          string  `json:"agent_id"`
	AgentName        string  `json:"agent_name,omitempty"`
	InvoiceID        string  `json:"invoice_id"`
	InvoiceNo        string  `json:"invoice_no,omitempty"`
	CommissionTypeID *string `json:"commission_type_id"`
	FixedAmount      string  `json:"fixed_amount"`
	Percentage       string  `json:"percentage"`
	TotalCommission  string  `json:"total_commission"`
	Status           string  `json:"status"`
	PaidAt           *string `json:"paid_at"`
	CreatedAt        string  `json:"created_at"`
}

type CommissionPreviewResponse struct {
	AgentID     string `json:"agent_id"`
	InvoiceID   string `json:"invoice_id"`
	FixedAmount string `json:"fixed_amount"`
	Percentage  string `json:"percentage"`
	Total       string `json:"total"`
	Source      string `json:"source"`
}

type CommissionFilter struct {
	AgentID string
	Status  string
	Page    int
	Limit   int
}

// --- Interface ---

type CommissionService interface {
	CreateForInvoice(ctx context.Context, actor Actor, invoiceID uuid.UUID) (*CommissionResponse, error)
	Preview(ctx context.Context, invoiceID string) (CommissionPreviewResponse, error)
	GetCommission(ctx context.Context, id string) (CommissionResponse, error)
	ListCommissions(ctx context.Context, filter CommissionFilter) ([]CommissionResponse, int64, error)
	MarkPaid(ctx context.Context, actor Actor, id string) (CommissionResponse, error)
	DeleteCommission(ctx context.Context, actor Actor, id string) error
}

type commissionService struct {
	commissionRepo repository.CommissionRepository
	agentRepo      repository.AgentRepository
	invoiceRepo    repository.InvoiceRepository
	orderRepo      repository.OrderRepository
	auditRepo      repository.AuditRepository
	txManager      repository.TransactionManager
}

func NewCommissionService(
	commissionRepo repository.CommissionRepository,
	agentRepo repository.AgentRepository,
	invoiceRepo repository.InvoiceRepository,
	orderRepo repository.OrderRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) CommissionService {
	return &commissionService{
		commissionRepo: commissionRepo,
		agentRepo:      agentRepo,
		invoiceRepo:    invoiceRepo,
		orderRepo:      orderRepo,
		auditRepo:      auditRepo,
		txManager:      txManager,
	}
}

// CreateForInvoice records the payout for the agent on the invoice's order.
// Safe to call more than once for the same invoice: the second and later
// calls return the existing record. Orders without an agent produce no
// commission and no error.
func (s *commissionService) CreateForInvoice(ctx context.Context, actor Actor, invoiceID uuid.UUID) (*CommissionResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("invoice not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	order, err := s.orderRepo.FindByID(ctx, invoice.OrderID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if order.AgentID == nil {
		return nil, nil
	}

	agent, err := s.agentRepo.FindByIDWithCommissionTypes(ctx, *order.AgentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("agent not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	globalDefault, err := s.agentRepo.FindGlobalDefaultCommissionType(ctx)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	quote := ResolveCommission(agent, globalDefault, invoice.TotalAmount)

	commission := &model.Commission{
		AgentID:          agent.ID,
		InvoiceID:        invoice.ID,
		CommissionTypeID: quote.CommissionTypeID,
		FixedAmount:      quote.FixedAmount,
		Percentage:       quote.Percentage,
		TotalCommission:  quote.Total,
		Status:           model.CommissionStatusPending,
	}

	var inserted bool
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ins, createErr := s.commissionRepo.CreateIfAbsent(txCtx, commission)
		if createErr != nil {
			return fmt.Errorf("failed to create commission: %w", createErr)
		}
		inserted = ins
		if !inserted {
			return nil
		}

		details, _ := json.Marshal(map[string]string{
			"invoice_id": invoice.ID.String(),
			"total":      quote.Total.StringFixed(2),
			"source":     quote.Source,
		})
		audit := &model.AuditLog{
			UserID:     actor.UserID,
			Action:     model.ActionCreateCommission,
			EntityID:   commission.ID.String(),
			EntityName: invoice.InvoiceNo,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !inserted {
		existing, findErr := s.commissionRepo.FindByInvoiceID(ctx, invoice.ID)
		if findErr != nil {
			return nil, fmt.Errorf("database error: %w", findErr)
		}
		resp := toCommissionResponse(existing)
		return &resp, nil
	}

	resp := toCommissionResponse(commission)
	return &resp, nil
}

// Preview resolves what the commission for an invoice would be without
// creating anything.
func (s *commissionService) Preview(ctx context.Context, invoiceID string) (CommissionPreviewResponse, error) {
	parsed, err := uuid.Parse(invoiceID)
	if err != nil {
		return CommissionPreviewResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid invoice id")
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, parsed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CommissionPreviewResponse{}, apperr.NotFound("invoice not found")
		}
		return CommissionPreviewResponse{}, fmt.Errorf("database error: %w", err)
	}

	order, err := s.orderRepo.FindByID(ctx, invoice.OrderID)
	if err != nil {
		return CommissionPreviewResponse{}, fmt.Errorf("database error: %w", err)
	}
	if order.AgentID == nil {
		return CommissionPreviewResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "order has no assigned agent")
	}

	agent, err := s.agentRepo.FindByIDWithCommissionTypes(ctx, *order.AgentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CommissionPreviewResponse{}, apperr.NotFound("agent not found")
		}
		return CommissionPreviewResponse{}, fmt.Errorf("database error: %w", err)
	}

	globalDefault, err := s.agentRepo.FindGlobalDefaultCommissionType(ctx)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return CommissionPreviewResponse{}, fmt.Errorf("database error: %w", err)
	}

	quote := ResolveCommission(agent, globalDefault, invoice.TotalAmount)
	return CommissionPreviewResponse{
		AgentID:     agent.ID.String(),
		InvoiceID:   invoice.ID.String(),
		FixedAmount: quote.FixedAmount.StringFixed(2),
		Percentage:  quote.Percentage.String(),
		Total:       quote.Total.StringFixed(2),
		Source:      quote.Source,
	}, nil
}

func (s *commissionService) GetCommission(ctx context.Context, id string) (CommissionResponse, error) {
	commissionID, err := uuid.Parse(id)
	if err != nil {
		return CommissionResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid commission id")
	}
	commission, err := s.commissionRepo.FindByID(ctx, commissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CommissionResponse{}, apperr.NotFound("commission not found")
		}
		return CommissionResponse{}, fmt.Errorf("database error: %w", err)
	}
	return toCommissionResponse(commission), nil
}

func (s *commissionService) ListCommissions(ctx context.Context, filter CommissionFilter) ([]CommissionResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	repoFilter := repository.CommissionListFilter{
		Status: filter.Status,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}
	if filter.AgentID != "" {
		parsed, err := uuid.Parse(filter.AgentID)
		if err != nil {
			return nil, 0, apperr.Validation(apperr.ReasonInvalidInput, "invalid agent id")
		}
		repoFilter.AgentID = &parsed
	}

	commissions, total, err := s.commissionRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch commissions: %w", err)
	}

	result := make([]CommissionResponse, 0, len(commissions))
	for i := range commissions {
		result = append(result, toCommissionResponse(&commissions[i]))
	}
	return result, total, nil
}

func (s *commissionService) MarkPaid(ctx context.Context, actor Actor, id string) (CommissionResponse, error) {
	commissionID, err := uuid.Parse(id)
	if err != nil {
		return CommissionResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid commission id")
	}
	commission, err := s.commissionRepo.FindByID(ctx, commissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CommissionResponse{}, apperr.NotFound("commission not found")
		}
		return CommissionResponse{}, fmt.Errorf("database error: %w", err)
	}
	if commission.Status == model.CommissionStatusPaid {
		return CommissionResponse{}, apperr.Conflict(apperr.ReasonCommissionPaid, "commission is already paid")
	}

	now := time.Now()
	commission.Status = model.CommissionStatusPaid
	commission.PaidAt = &now

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.commissionRepo.Update(txCtx, commission); updateErr != nil {
			return fmt.Errorf("failed to update commission: %w", updateErr)
		}
		audit := &model.AuditLog{
			UserID:   actor.UserID,
			Action:   model.ActionPayCommission,
			EntityID: commission.ID.String(),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return CommissionResponse{}, err
	}

	return toCommissionResponse(commission), nil
}

// DeleteCommission removes a pending commission, typically after an invoice
// was regenerated. Paid commissions are immutable.
func (s *commissionService) DeleteCommission(ctx context.Context, actor Actor, id string) error {
	commissionID, err := uuid.Parse(id)
	if err != nil {
		return apperr.Validation(apperr.ReasonInvalidInput, "invalid commission id")
	}
	commission, err := s.commissionRepo.FindByID(ctx, commissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("commission not found")
		}
		return fmt.Errorf("database error: %w", err)
	}
	if commission.Status == model.CommissionStatusPaid {
		return apperr.Conflict(apperr.ReasonCommissionPaid, "paid commissions cannot be deleted")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if deleteErr := s.commissionRepo.Delete(txCtx, commissionID); deleteErr != nil {
			return fmt.Errorf("failed to delete commission: %w", deleteErr)
		}
		audit := &model.AuditLog{
			UserID:   actor.UserID,
			Action:   model.ActionDeleteCommission,
			EntityID: commissionID.String(),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
}

// --- Mapping ---

func toCommissionResponse(c *model.Commission) CommissionResponse {
	resp := CommissionResponse{
		ID:              c.ID.String(),
		AgentID:         c.AgentID.String(),
		InvoiceID:       c.InvoiceID.String(),
		FixedAmount:     c.FixedAmount.StringFixed(2),
		Percentage:      c.Percentage.String(),
		TotalCommission: c.TotalCommission.StringFixed(2),
		Status:          c.Status,
		PaidAt:          formatOptionalTime(c.PaidAt),
		CreatedAt:       c.CreatedAt.Format(time.RFC3339),
	}
	if c.CommissionTypeID != nil {
		s := c.CommissionTypeID.String()
		resp.CommissionTypeID = &s
	}
	if c.Agent != nil && c.Agent.User != nil {
		resp.AgentName = c.Agent.User.Username
	}
	if c.Invoice != nil {
		resp.InvoiceNo = c.Invoice.InvoiceNo
	}
	return resp
}
