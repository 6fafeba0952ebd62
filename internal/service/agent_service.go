package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"carpetcare/internal/apperr"
	"carpetcare/internal/model"
	"carpetcare/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type AgentRequest struct {
	UserID               string `json:"user_id" binding:"required,uuid"`
	FixedCommission      string `json:"fixed_commission"`
	PercentageCommission string `json:"percentage_commission"`
	Status               string `json:"status" binding:"omitempty,oneof=active inactive"`
	Notes                string `json:"notes"`
}

type AgentCommissionLinkRequest struct {
	CommissionTypeID   string `json:"commission_type_id" binding:"required,uuid"`
	FixedOverride      string `json:"fixed_override"`
	PercentageOverride string `json:"percentage_override"`
	IsActive           *bool  `json:"is_active"`
	Notes              string `json:"notes"`
}

type AgentCommissionLinkResponse struct {
	ID                 string  `json:"id"`
	CommissionTypeID   string  `json:"commission_type_id"`
	CommissionTypeName string  `json:"commission_type_name,omitempty"`
	FixedOverride      *string `json:"fixed_override"`
	PercentageOverride *string `json:"percentage_override"`
	IsActive           bool    `json:"is_active"`
	Notes              string  `json:"notes"`
}

type AgentResponse struct {
	ID                   string                        `json:"id"`
	UserID               string                        `json:"user_id"`
	Username             string                        `json:"username,omitempty"`
	FixedCommission      string                        `json:"fixed_commission"`
	PercentageCommission string                        `json:"percentage_commission"`
	Status               string                        `json:"status"`
	Notes                string                        `json:"notes"`
	CommissionTypes      []AgentCommissionLinkResponse `json:"commission_types,omitempty"`
	CreatedAt            string                        `json:"created_at"`
}

// --- Interface ---

type AgentService interface {
	CreateAgent(ctx context.Context, actor Actor, req AgentRequest) (AgentResponse, error)
	GetAgent(ctx context.Context, id string) (AgentResponse, error)
	ListAgents(ctx context.Context, page, limit int) ([]AgentResponse, int64, error)
	UpdateAgent(ctx context.Context, actor Actor, id string, req AgentRequest) (AgentResponse, error)
	AttachCommissionType(ctx context.Context, actor Actor, agentID string, req AgentCommissionLinkRequest) (AgentResponse, error)
	UpdateCommissionTypeLink(ctx context.Context, actor Actor, agentID, commissionTypeID string, req AgentCommissionLinkRequest) (AgentResponse, error)
	DetachCommissionType(ctx context.Context, actor Actor, agentID, commissionTypeID string) error
}

type agentService struct {
	agentRepo   repository.AgentRepository
	userRepo    repository.UserRepository
	catalogRepo repository.CatalogRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewAgentService(
	agentRepo repository.AgentRepository,
	userRepo repository.UserRepository,
	catalogRepo repository.CatalogRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) AgentService {
	return &agentService{
		agentRepo:   agentRepo,
		userRepo:    userRepo,
		catalogRepo: catalogRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

func (s *agentService) CreateAgent(ctx context.Context, actor Actor, req AgentRequest) (AgentResponse, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return AgentResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid user id")
	}

	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AgentResponse{}, apperr.NotFound("user not found")
		}
		return AgentResponse{}, fmt.Errorf("database error: %w", err)
	}
	if user.Role != model.RoleAgent {
		return AgentResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "user does not have the agent role")
	}

	if _, findErr := s.agentRepo.FindByUserID(ctx, userID); findErr == nil {
		return AgentResponse{}, apperr.Conflict(apperr.ReasonInvalidInput, "agent profile already exists for this user")
	} else if !errors.Is(findErr, gorm.ErrRecordNotFound) {
		return AgentResponse{}, fmt.Errorf("database error: %w", findErr)
	}

	agent := &model.Agent{UserID: userID, Status: model.AgentStatusActive, Notes: req.Notes}
	if err := applyAgentCommissionFields(agent, req); err != nil {
		return AgentResponse{}, err
	}
	if req.Status != "" {
		agent.Status = req.Status
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.agentRepo.Create(txCtx, agent); createErr != nil {
			return fmt.Errorf("failed to create agent: %w", createErr)
		}
		audit := &model.AuditLog{
			UserID:     actor.UserID,
			Action:     model.ActionCreateAgent,
			EntityID:   agent.ID.String(),
			EntityName: user.Username,
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return AgentResponse{}, err
	}

	agent.User = user
	return toAgentResponse(agent), nil
}

func (s *agentService) GetAgent(ctx context.Context, id string) (AgentResponse, error) {
	agentID, err := uuid.Parse(id)
	if err != nil {
		return AgentResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid agent id")
	}
	agent, err := s.agentRepo.FindByIDWithCommissionTypes(ctx, agentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AgentResponse{}, apperr.NotFound("agent not found")
		}
		return AgentResponse{}, fmt.Errorf("database error: %w", err)
	}
	return toAgentResponse(agent), nil
}

func (s *agentService) ListAgents(ctx context.Context, page, limit int) ([]AgentResponse, int64, error) {
	page, limit = normalizePaging(page, limit)
	agents, total, err := s.agentRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch agents: %w", err)
	}
	result := make([]AgentResponse, 0, len(agents))
	for i := range agents {
		result = append(result, toAgentResponse(&agents[i]))
	}
	return result, total, nil
}

func (s *agentService) UpdateAgent(ctx context.Context, actor Actor, id string, req AgentRequest) (AgentResponse, error) {
	agentID, err := uuid.Parse(id)
	if err != nil {
		return AgentResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid agent id")
	}
	agent, err := s.agentRepo.FindByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AgentResponse{}, apperr.NotFound("agent not found")
		}
		return AgentResponse{}, fmt.Errorf("database error: %w", err)
	}

	if err := applyAgentCommissionFields(agent, req); err != nil {
		return AgentResponse{}, err
	}
	if req.Status != "" {
		agent.Status = req.Status
	}
	if req.Notes != "" {
		agent.Notes = req.Notes
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.agentRepo.Update(txCtx, agent); updateErr != nil {
			return fmt.Errorf("failed to update agent: %w", updateErr)
		}
		audit := &model.AuditLog{
			UserID:   actor.UserID,
			Action:   model.ActionUpdateAgent,
			EntityID: agent.ID.String(),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return AgentResponse{}, err
	}
	return toAgentResponse(agent), nil
}

func (s *agentService) AttachCommissionType(ctx context.Context, actor Actor, agentID string, req AgentCommissionLinkRequest) (AgentResponse, error) {
	parsedAgent, err := uuid.Parse(agentID)
	if err != nil {
		return AgentResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid agent id")
	}
	parsedType, err := uuid.Parse(req.CommissionTypeID)
	if err != nil {
		return AgentResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid commission type id")
	}

	if _, findErr := s.agentRepo.FindByID(ctx, parsedAgent); findErr != nil {
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return AgentResponse{}, apperr.NotFound("agent not found")
		}
		return AgentResponse{}, fmt.Errorf("database error: %w", findErr)
	}
	if _, findErr := s.catalogRepo.FindCommissionTypeByID(ctx, parsedType); findErr != nil {
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return AgentResponse{}, apperr.NotFound("commission type not found")
		}
		return AgentResponse{}, fmt.Errorf("database error: %w", findErr)
	}

	link := &model.AgentCommissionType{
		AgentID:          parsedAgent,
		CommissionTypeID: parsedType,
		IsActive:         true,
		Notes:            req.Notes,
	}
	if err := applyLinkOverrides(link, req); err != nil {
		return AgentResponse{}, err
	}
	if req.IsActive != nil {
		link.IsActive = *req.IsActive
	}

	if err := s.agentRepo.AttachCommissionType(ctx, link); err != nil {
		return AgentResponse{}, fmt.Errorf("failed to attach commission type: %w", err)
	}
	return s.GetAgent(ctx, agentID)
}

func (s *agentService) UpdateCommissionTypeLink(ctx context.Context, actor Actor, agentID, commissionTypeID string, req AgentCommissionLinkRequest) (AgentResponse, error) {
	parsedAgent, err := uuid.Parse(agentID)
	if err != nil {
		return AgentResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid agent id")
	}
	parsedType, err := uuid.Parse(commissionTypeID)
	if err != nil {
		return AgentResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid commission type id")
	}

	agent, err := s.agentRepo.FindByIDWithCommissionTypes(ctx, parsedAgent)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AgentResponse{}, apperr.NotFound("agent not found")
		}
		return AgentResponse{}, fmt.Errorf("database error: %w", err)
	}

	var link *model.AgentCommissionType
	for i := range agent.CommissionTypes {
		if agent.CommissionTypes[i].CommissionTypeID == parsedType {
			link = &agent.CommissionTypes[i]
			break
		}
	}
	if link == nil {
		return AgentResponse{}, apperr.NotFound("commission type is not attached to this agent")
	}

	if err := applyLinkOverrides(link, req); err != nil {
		return AgentResponse{}, err
	}
	if req.IsActive != nil {
		link.IsActive = *req.IsActive
	}
	if req.Notes != "" {
		link.Notes = req.Notes
	}

	if err := s.agentRepo.UpdateCommissionTypeLink(ctx, link); err != nil {
		return AgentResponse{}, fmt.Errorf("failed to update commission type link: %w", err)
	}
	return s.GetAgent(ctx, agentID)
}

func (s *agentService) DetachCommissionType(ctx context.Context, actor Actor, agentID, commissionTypeID string) error {
	parsedAgent, err := uuid.Parse(agentID)
	if err != nil {
		return apperr.Validation(apperr.ReasonInvalidInput, "invalid agent id")
	}
	parsedType, err := uuid.Parse(commissionTypeID)
	if err != nil {
		return apperr.Validation(apperr.ReasonInvalidInput, "invalid commission type id")
	}
	if err := s.agentRepo.DetachCommissionType(ctx, parsedAgent, parsedType); err != nil {
		return fmt.Errorf("failed to detach commission type: %w", err)
	}
	return nil
}

// --- Helpers ---

func applyAgentCommissionFields(agent *model.Agent, req AgentRequest) error {
	if req.FixedCommission != "" {
		fixed, err := parsePrice(req.FixedCommission)
		if err != nil {
			return err
		}
		agent.FixedCommission = fixed
	}
	if req.PercentageCommission != "" {
		pct, err := parsePrice(req.PercentageCommission)
		if err != nil {
			return err
		}
		agent.PercentageCommission = pct
	}
	return nil
}

func applyLinkOverrides(link *model.AgentCommissionType, req AgentCommissionLinkRequest) error {
	fixed, err := parseOptionalDecimal(&req.FixedOverride)
	if err != nil {
		return apperr.Validation(apperr.ReasonInvalidInput, "invalid fixed_override")
	}
	if fixed != nil {
		link.FixedOverride = fixed
	}
	pct, err := parseOptionalDecimal(&req.PercentageOverride)
	if err != nil {
		return apperr.Validation(apperr.ReasonInvalidInput, "invalid percentage_override")
	}
	if pct != nil {
		link.PercentageOverride = pct
	}
	return nil
}

// --- Mapping ---

func toAgentResponse(agent *model.Agent) AgentResponse {
	resp := AgentResponse{
		ID:                   agent.ID.String(),
		UserID:               agent.UserID.String(),
		FixedCommission:      agent.FixedCommission.StringFixed(2),
		PercentageCommission: agent.PercentageCommission.String(),
		Status:               agent.Status,
		Notes:                agent.Notes,
		CreatedAt:            agent.CreatedAt.Format(time.RFC3339),
	}
	if agent.User != nil {
		resp.Username = agent.User.Username
	}
	for i := range agent.CommissionTypes {
		link := &agent.CommissionTypes[i]
		lr := AgentCommissionLinkResponse{
			ID:               link.ID.String(),
			CommissionTypeID: link.CommissionTypeID.String(),
			IsActive:         link.IsActive,
			Notes:            link.Notes,
		}
		if link.CommissionType != nil {
			lr.CommissionTypeName = link.CommissionType.Name
		}
		if link.FixedOverride != nil {
			s := link.FixedOverride.StringFixed(2)
			lr.FixedOverride = &s
		}
		if link.PercentageOverride != nil {
			s := link.PercentageOverride.String()
			lr.PercentageOverride = &s
		}
		resp.CommissionTypes = append(resp.CommissionTypes, lr)
	}
	return resp
}
