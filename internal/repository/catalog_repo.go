package repository

import (
	"context"

	"carpetcare/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogRepository covers the priced reference data: carpet types, addon
// services, tax settings, and commission types.
type CatalogRepository interface {
	CreateCarpetType(ctx context.Context, ct *model.CarpetType) error
	FindCarpetTypeByID(ctx context.Context, id uuid.UUID) (*model.CarpetType, error)
	ListCarpetTypes(ctx context.Context, page, limit int) ([]model.CarpetType, int64, error)
	UpdateCarpetType(ctx context.Context, ct *model.CarpetType) error
	DeleteCarpetType(ctx context.Context, id uuid.UUID) error

	CreateAddonService(ctx context.Context, svc *model.AddonService) error
	FindAddonServiceByID(ctx context.Context, id uuid.UUID) (*model.AddonService, error)
	ListAddonServices(ctx context.Context, activeOnly bool, page, limit int) ([]model.AddonService, int64, error)
	UpdateAddonService(ctx context.Context, svc *model.AddonService) error
	DeleteAddonService(ctx context.Context, id uuid.UUID) error

	CreateTaxSetting(ctx context.Context, ts *model.TaxSetting) error
	FindTaxSettingByID(ctx context.Context, id uuid.UUID) (*model.TaxSetting, error)
	ListTaxSettings(ctx context.Context) ([]model.TaxSetting, error)
	UpdateTaxSetting(ctx context.Context, ts *model.TaxSetting) error

	CreateCommissionType(ctx context.Context, ct *model.CommissionType) error
	FindCommissionTypeByID(ctx context.Context, id uuid.UUID) (*model.CommissionType, error)
	ListCommissionTypes(ctx context.Context, page, limit int) ([]model.CommissionType, int64, error)
	UpdateCommissionType(ctx context.Context, ct *model.CommissionType) error
	DeleteCommissionType(ctx context.Context, id uuid.UUID) error
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

// --- Carpet types ---

func (r *catalogRepository) CreateCarpetType(ctx context.Context, ct *model.CarpetType) error {
	return GetDB(ctx, r.db).Create(ct).Error
}

func (r *catalogRepository) FindCarpetTypeByID(ctx context.Context, id uuid.UUID) (*model.CarpetType, error) {
	var ct model.CarpetType
	if err := GetDB(ctx, r.db).First(&ct, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ct, nil
}

func (r *catalogRepository) ListCarpetTypes(ctx context.Context, page, limit int) ([]model.CarpetType, int64, error) {
	var types []model.CarpetType
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.CarpetType{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("name asc").Offset(offset).Limit(limit).Find(&types).Error; err != nil {
		return nil, 0, err
	}
	return types, total, nil
}

func (r *catalogRepository) UpdateCarpetType(ctx context.Context, ct *model.CarpetType) error {
	return GetDB(ctx, r.db).Save(ct).Error
}

func (r *catalogRepository) DeleteCarpetType(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.CarpetType{}, "id = ?", id).Error
}

// --- Addon services ---

func (r *catalogRepository) CreateAddonService(ctx context.Context, svc *model.AddonService) error {
	return GetDB(ctx, r.db).Create(svc).Error
}

func (r *catalogRepository) FindAddonServiceByID(ctx context.Context, id uuid.UUID) (*model.AddonService, error) {
	var svc model.AddonService
	if err := GetDB(ctx, r.db).First(&svc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *catalogRepository) ListAddonServices(ctx context.Context, activeOnly bool, page, limit int) ([]model.AddonService, int64, error) {
	var services []model.AddonService
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.AddonService{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("name asc").Offset(offset).Limit(limit).Find(&services).Error; err != nil {
		return nil, 0, err
	}
	return services, total, nil
}

func (r *catalogRepository) UpdateAddonService(ctx context.Context, svc *model.AddonService) error {
	return GetDB(ctx, r.db).Save(svc).Error
}

func (r *catalogRepository) DeleteAddonService(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.AddonService{}, "id = ?", id).Error
}

// --- Tax settings ---

func (r *catalogRepository) CreateTaxSetting(ctx context.Context, ts *model.TaxSetting) error {
	return GetDB(ctx, r.db).Create(ts).Error
}

func (r *catalogRepository) FindTaxSettingByID(ctx context.Context, id uuid.UUID) (*model.TaxSetting, error) {
	var ts model.TaxSetting
	if err := GetDB(ctx, r.db).First(&ts, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ts, nil
}

func (r *catalogRepository) ListTaxSettings(ctx context.Context) ([]model.TaxSetting, error) {
	var settings []model.TaxSetting
	if err := GetDB(ctx, r.db).Order("name asc").Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

func (r *catalogRepository) UpdateTaxSetting(ctx context.Context, ts *model.TaxSetting) error {
	return GetDB(ctx, r.db).Save(ts).Error
}

// --- Commission types ---

func (r *catalogRepository) CreateCommissionType(ctx context.Context, ct *model.CommissionType) error {
	return GetDB(ctx, r.db).Create(ct).Error
}

func (r *catalogRepository) FindCommissionTypeByID(ctx context.Context, id uuid.UUID) (*model.CommissionType, error) {
	var ct model.CommissionType
	if err := GetDB(ctx, r.db).First(&ct, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ct, nil
}

func (r *catalogRepository) ListCommissionTypes(ctx context.Context, page, limit int) ([]model.CommissionType, int64, error) {
	var types []model.CommissionType
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.CommissionType{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("name asc").Offset(offset).Limit(limit).Find(&types).Error; err != nil {
		return nil, 0, err
	}
	return types, total, nil
}

func (r *catalogRepository) UpdateCommissionType(ctx context.Context, ct *model.CommissionType) error {
	return GetDB(ctx, r.db).Save(ct).Error
}

func (r *catalogRepository) DeleteCommissionType(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.CommissionType{}, "id = ?", id).Error
}
