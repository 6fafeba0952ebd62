package repository

import (
	"context"

	"carpetcare/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CarpetRepository interface {
	Create(ctx context.Context, carpet *model.Carpet) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Carpet, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]model.Carpet, error)
	Update(ctx context.Context, carpet *model.Carpet) error
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateStatusByOrder(ctx context.Context, orderID uuid.UUID, status string) error
	CountByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
	AttachAddon(ctx context.Context, link *model.CarpetAddonService) error
	DetachAddon(ctx context.Context, carpetID, addonServiceID uuid.UUID) error
}

type carpetRepository struct {
	db *gorm.DB
}

func NewCarpetRepository(db *gorm.DB) CarpetRepository {
	return &carpetRepository{db: db}
}

func (r *carpetRepository) Create(ctx context.Context, carpet *model.Carpet) error {
	return GetDB(ctx, r.db).Create(carpet).Error
}

func (r *carpetRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Carpet, error) {
	var carpet model.Carpet
	if err := GetDB(ctx, r.db).
		Preload("CarpetType").
		Preload("AddonServices").
		Preload("AddonServices.AddonService").
		First(&carpet, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &carpet, nil
}

func (r *carpetRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]model.Carpet, error) {
	var carpets []model.Carpet
	if err := GetDB(ctx, r.db).
		Preload("CarpetType").
		Preload("AddonServices").
		Preload("AddonServices.AddonService").
		Where("order_id = ?", orderID).
		Order("created_at asc").
		Find(&carpets).Error; err != nil {
		return nil, err
	}
	return carpets, nil
}

func (r *carpetRepository) Update(ctx context.Context, carpet *model.Carpet) error {
	return GetDB(ctx, r.db).Save(carpet).Error
}

func (r *carpetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.Carpet{}, "id = ?", id).Error
}

func (r *carpetRepository) UpdateStatusByOrder(ctx context.Context, orderID uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Carpet{}).
		Where("order_id = ?", orderID).Update("status", status).Error
}

func (r *carpetRepository) CountByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Carpet{}).
		Where("order_id = ?", orderID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *carpetRepository) AttachAddon(ctx context.Context, link *model.CarpetAddonService) error {
	return GetDB(ctx, r.db).Create(link).Error
}

func (r *carpetRepository) DetachAddon(ctx context.Context, carpetID, addonServiceID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("carpet_id = ? AND addon_service_id = ?", carpetID, addonServiceID).
		Delete(&model.CarpetAddonService{}).Error
}
