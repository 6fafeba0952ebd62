package repository

import (
	"context"

	"carpetcare/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AgentRepository interface {
	Create(ctx context.Context, agent *model.Agent) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Agent, error)
	// FindByIDWithCommissionTypes loads the agent together with its active
	// commission-type associations in creation order.
	FindByIDWithCommissionTypes(ctx context.Context, id uuid.UUID) (*model.Agent, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Agent, error)
	List(ctx context.Context, page, limit int) ([]model.Agent, int64, error)
	Update(ctx context.Context, agent *model.Agent) error
	AttachCommissionType(ctx context.Context, link *model.AgentCommissionType) error
	UpdateCommissionTypeLink(ctx context.Context, link *model.AgentCommissionType) error
	DetachCommissionType(ctx context.Context, agentID, commissionTypeID uuid.UUID) error
	// FindGlobalDefaultCommissionType returns the active commission type
	// flagged is_default, if one exists.
	FindGlobalDefaultCommissionType(ctx context.Context) (*model.CommissionType, error)
}

type agentRepository struct {
	db *gorm.DB
}

func NewAgentRepository(db *gorm.DB) AgentRepository {
	return &agentRepository{db: db}
}

func (r *agentRepository) Create(ctx context.Context, agent *model.Agent) error {
	return GetDB(ctx, r.db).Create(agent).Error
}

func (r *agentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Agent, error) {
	var agent model.Agent
	if err := GetDB(ctx, r.db).Preload("User").First(&agent, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *agentRepository) FindByIDWithCommissionTypes(ctx context.Context, id uuid.UUID) (*model.Agent, error) {
	var agent model.Agent
	if err := GetDB(ctx, r.db).
		Preload("User").
		Preload("CommissionTypes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Preload("CommissionTypes.CommissionType").
		First(&agent, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *agentRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Agent, error) {
	var agent model.Agent
	if err := GetDB(ctx, r.db).First(&agent, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *agentRepository) List(ctx context.Context, page, limit int) ([]model.Agent, int64, error) {
	var agents []model.Agent
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Agent{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("User").
		Order("created_at desc").Offset(offset).Limit(limit).
		Find(&agents).Error; err != nil {
		return nil, 0, err
	}

	return agents, total, nil
}

func (r *agentRepository) Update(ctx context.Context, agent *model.Agent) error {
	return GetDB(ctx, r.db).Save(agent).Error
}

func (r *agentRepository) AttachCommissionType(ctx context.Context, link *model.AgentCommissionType) error {
	return GetDB(ctx, r.db).Create(link).Error
}

func (r *agentRepository) UpdateCommissionTypeLink(ctx context.Context, link *model.AgentCommissionType) error {
	return GetDB(ctx, r.db).Save(link).Error
}

func (r *agentRepository) DetachCommissionType(ctx context.Context, agentID, commissionTypeID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("agent_id = ? AND commission_type_id = ?", agentID, commissionTypeID).
		Delete(&model.AgentCommissionType{}).Error
}

func (r *agentRepository) FindGlobalDefaultCommissionType(ctx context.Context) (*model.CommissionType, error) {
	var ct model.CommissionType
	if err := GetDB(ctx, r.db).
		Where("is_default = ? AND is_active = ?", true, true).
		First(&ct).Error; err != nil {
		return nil, err
	}
	return &ct, nil
}
