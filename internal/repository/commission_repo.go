package repository

import (
	"context"

	"carpetcare/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommissionListFilter narrows commission listings.
type CommissionListFilter struct {
	AgentID *uuid.UUID
	Status  string
	Page    int
	Limit   int
}

type CommissionRepository interface {
	// CreateIfAbsent inserts the commission unless one already exists for its
	// invoice. Returns true when a row was inserted. The unique index on
	// invoice_id backs this, so two racing settlements cannot both insert.
	CreateIfAbsent(ctx context.Context, commission *model.Commission) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Commission, error)
	FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*model.Commission, error)
	List(ctx context.Context, filter CommissionListFilter) ([]model.Commission, int64, error)
	Update(ctx context.Context, commission *model.Commission) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type commissionRepository struct {
	db *gorm.DB
}

func NewCommissionRepository(db *gorm.DB) CommissionRepository {
	return &commissionRepository{db: db}
}

func (r *commissionRepository) CreateIfAbsent(ctx context.Context, commission *model.Commission) (bool, error) {
	res := GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "invoice_id"}},
		DoNothing: true,
	}).Create(commission)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *commissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Commission, error) {
	var commission model.Commission
	if err := GetDB(ctx, r.db).
		Preload("Agent").
		Preload("CommissionType").
		First(&commission, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &commission, nil
}

func (r *commissionRepository) FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*model.Commission, error) {
	var commission model.Commission
	if err := GetDB(ctx, r.db).First(&commission, "invoice_id = ?", invoiceID).Error; err != nil {
		return nil, err
	}
	return &commission, nil
}

func (r *commissionRepository) List(ctx context.Context, filter CommissionListFilter) ([]model.Commission, int64, error) {
	var commissions []model.Commission
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Commission{})
	if filter.AgentID != nil {
		query = query.Where("agent_id = ?", *filter.AgentID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Preload("Agent").Preload("CommissionType").Preload("Invoice").
		Order("created_at desc").Offset(offset).Limit(filter.Limit).
		Find(&commissions).Error; err != nil {
		return nil, 0, err
	}

	return commissions, total, nil
}

func (r *commissionRepository) Update(ctx context.Context, commission *model.Commission) error {
	return GetDB(ctx, r.db).Save(commission).Error
}

func (r *commissionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.Commission{}, "id = ?", id).Error
}
