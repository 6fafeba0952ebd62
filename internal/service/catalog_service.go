package service

import (
	"context"
	"errors"
	"fmt"

	"carpetcare/internal/apperr"
	"carpetcare/internal/model"
	"carpetcare/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CarpetTypeRequest struct {
	Name                 string `json:"name" binding:"required"`
	PricingMode          string `json:"pricing_mode" binding:"required,oneof=fixed per_area"`
	BasePrice            string `json:"base_price" binding:"required"`
	CleaningInstructions string `json:"cleaning_instructions"`
}

type AddonServiceRequest struct {
	Name        string `json:"name" binding:"required"`
	PricingMode string `json:"pricing_mode" binding:"required,oneof=fixed per_area"`
	BasePrice   string `json:"base_price" binding:"required"`
	IsActive    *bool  `json:"is_active"`
}

type TaxSettingRequest struct {
	Name     string `json:"name" binding:"required"`
	Mode     string `json:"mode" binding:"required,oneof=percentage fixed"`
	Rate     string `json:"rate" binding:"required"`
	IsActive *bool  `json:"is_active"`
}

type CommissionTypeRequest struct {
	Name             string `json:"name" binding:"required"`
	FixedAmount      string `json:"fixed_amount"`
	PercentageRate   string `json:"percentage_rate"`
	MinInvoiceAmount string `json:"min_invoice_amount"`
	MaxInvoiceAmount string `json:"max_invoice_amount"`
	IsActive         *bool  `json:"is_active"`
	IsDefault        *bool  `json:"is_default"`
}

// --- Interface ---

type CatalogService interface {
	CreateCarpetType(ctx context.Context, actor Actor, req CarpetTypeRequest) (*model.CarpetType, error)
	GetCarpetType(ctx context.Context, id string) (*model.CarpetType, error)
	ListCarpetTypes(ctx context.Context, page, limit int) ([]model.CarpetType, int64, error)
	UpdateCarpetType(ctx context.Context, actor Actor, id string, req CarpetTypeRequest) (*model.CarpetType, error)
	DeleteCarpetType(ctx context.Context, actor Actor, id string) error

	CreateAddonService(ctx context.Context, actor Actor, req AddonServiceRequest) (*model.AddonService, error)
	GetAddonService(ctx context.Context, id string) (*model.AddonService, error)
	ListAddonServices(ctx context.Context, activeOnly bool, page, limit int) ([]model.AddonService, int64, error)
	UpdateAddonService(ctx context.Context, actor Actor, id string, req AddonServiceRequest) (*model.AddonService, error)
	DeleteAddonService(ctx context.Context, actor Actor, id string) error

	CreateTaxSetting(ctx context.Context, actor Actor, req TaxSettingRequest) (*model.TaxSetting, error)
	ListTaxSettings(ctx context.Context) ([]model.TaxSetting, error)
	UpdateTaxSetting(ctx context.Context, actor Actor, id string, req TaxSettingRequest) (*model.TaxSetting, error)

	CreateCommissionType(ctx context.Context, actor Actor, req CommissionTypeRequest) (*model.CommissionType, error)
	GetCommissionType(ctx context.Context, id string) (*model.CommissionType, error)
	ListCommissionTypes(ctx context.Context, page, limit int) ([]model.CommissionType, int64, error)
	UpdateCommissionType(ctx context.Context, actor Actor, id string, req CommissionTypeRequest) (*model.CommissionType, error)
	DeleteCommissionType(ctx context.Context, actor Actor, id string) error
}

type catalogService struct {
	catalogRepo repository.CatalogRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewCatalogService(
	catalogRepo repository.CatalogRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) CatalogService {
	return &catalogService{catalogRepo: catalogRepo, auditRepo: auditRepo, txManager: txManager}
}

// --- Carpet types ---

func (s *catalogService) CreateCarpetType(ctx context.Context, actor Actor, req CarpetTypeRequest) (*model.CarpetType, error) {
	price, err := parsePrice(req.BasePrice)
	if err != nil {
		return nil, err
	}
	ct := &model.CarpetType{
		Name:                 req.Name,
		PricingMode:          req.PricingMode,
		BasePrice:            price,
		CleaningInstructions: req.CleaningInstructions,
	}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.catalogRepo.CreateCarpetType(txCtx, ct); createErr != nil {
			return fmt.Errorf("failed to create carpet type: %w", createErr)
		}
		return s.logCatalogAction(txCtx, actor, model.ActionCreateCarpetType, ct.ID.String(), ct.Name)
	})
	if err != nil {
		return nil, err
	}
	return ct, nil
}

func (s *catalogService) GetCarpetType(ctx context.Context, id string) (*model.CarpetType, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation(apperr.ReasonInvalidInput, "invalid carpet type id")
	}
	ct, err := s.catalogRepo.FindCarpetTypeByID(ctx, parsed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("carpet type not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return ct, nil
}

func (s *catalogService) ListCarpetTypes(ctx context.Context, page, limit int) ([]model.CarpetType, int64, error) {
	page, limit = normalizePaging(page, limit)
	return s.catalogRepo.ListCarpetTypes(ctx, page, limit)
}

func (s *catalogService) UpdateCarpetType(ctx context.Context, actor Actor, id string, req CarpetTypeRequest) (*model.CarpetType, error) {
	ct, err := s.GetCarpetType(ctx, id)
	if err != nil {
		return nil, err
	}
	price, err := parsePrice(req.BasePrice)
	if err != nil {
		return nil, err
	}
	ct.Name = req.Name
	ct.PricingMode = req.PricingMode
	ct.BasePrice = price
	ct.CleaningInstructions = req.CleaningInstructions

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.catalogRepo.UpdateCarpetType(txCtx, ct); updateErr != nil {
			return fmt.Errorf("failed to update carpet type: %w", updateErr)
		}
		return s.logCatalogAction(txCtx, actor, model.ActionUpdateCarpetType, ct.ID.String(), ct.Name)
	})
	if err != nil {
		return nil, err
	}
	return ct, nil
}

func (s *catalogService) DeleteCarpetType(ctx context.Context, actor Actor, id string) error {
	ct, err := s.GetCarpetType(ctx, id)
	if err != nil {
		return err
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if deleteErr := s.catalogRepo.DeleteCarpetType(txCtx, ct.ID); deleteErr != nil {
			return fmt.Errorf("failed to delete carpet type: %w", deleteErr)
		}
		return s.logCatalogAction(txCtx, actor, model.ActionDeleteCarpetType, ct.ID.String(), ct.Name)
	})
}

// --- Addon services ---

func (s *catalogService) CreateAddonService(ctx context.Context, actor Actor, req AddonServiceRequest) (*model.AddonService, error) {
	price, err := parsePrice(req.BasePrice)
	if err != nil {
		return nil, err
	}
	svc := &model.AddonService{
		Name:        req.Name,
		PricingMode: req.PricingMode,
		BasePrice:   price,
		IsActive:    true,
	}
	if req.IsActive != nil {
		svc.IsActive = *req.IsActive
	}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.catalogRepo.CreateAddonService(txCtx, svc); createErr != nil {
			return fmt.Errorf("failed to create addon service: %w", createErr)
		}
		return s.logCatalogAction(txCtx, actor, model.ActionCreateAddonService, svc.ID.String(), svc.Name)
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *catalogService) GetAddonService(ctx context.Context, id string) (*model.AddonService, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation(apperr.ReasonInvalidInput, "invalid addon service id")
	}
	svc, err := s.catalogRepo.FindAddonServiceByID(ctx, parsed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("addon service not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return svc, nil
}

func (s *catalogService) ListAddonServices(ctx context.Context, activeOnly bool, page, limit int) ([]model.AddonService, int64, error) {
	page, limit = normalizePaging(page, limit)
	return s.catalogRepo.ListAddonServices(ctx, activeOnly, page, limit)
}

func (s *catalogService) UpdateAddonService(ctx context.Context, actor Actor, id string, req AddonServiceRequest) (*model.AddonService, error) {
	svc, err := s.GetAddonService(ctx, id)
	if err != nil {
		return nil, err
	}
	price, err := parsePrice(req.BasePrice)
	if err != nil {
		return nil, err
	}
	svc.Name = req.Name
	svc.PricingMode = req.PricingMode
	svc.BasePrice = price
	if req.IsActive != nil {
		svc.IsActive = *req.IsActive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.catalogRepo.UpdateAddonService(txCtx, svc); updateErr != nil {
			return fmt.Errorf("failed to update addon service: %w", updateErr)
		}
		return s.logCatalogAction(txCtx, actor, model.ActionUpdateAddonService, svc.ID.String(), svc.Name)
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *catalogService) DeleteAddonService(ctx context.Context, actor Actor, id string) error {
	svc, err := s.GetAddonService(ctx, id)
	if err != nil {
		return err
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if deleteErr := s.catalogRepo.DeleteAddonService(txCtx, svc.ID); deleteErr != nil {
			return fmt.Errorf("failed to delete addon service: %w", deleteErr)
		}
		return s.logCatalogAction(txCtx, actor, model.ActionDeleteAddonService, svc.ID.String(), svc.Name)
	})
}

// --- Tax settings ---

func (s *catalogService) CreateTaxSetting(ctx context.Context, actor Actor, req TaxSettingRequest) (*model.TaxSetting, error) {
	rate, err := parsePrice(req.Rate)
	if err != nil {
		return nil, err
	}
	ts := &model.TaxSetting{
		Name:     req.Name,
		Mode:     req.Mode,
		Rate:     rate,
		IsActive: true,
	}
	if req.IsActive != nil {
		ts.IsActive = *req.IsActive
	}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.catalogRepo.CreateTaxSetting(txCtx, ts); createErr != nil {
			return fmt.Errorf("failed to create tax setting: %w", createErr)
		}
		return s.logCatalogAction(txCtx, actor, model.ActionCreateTaxSetting, ts.ID.String(), ts.Name)
	})
	if err != nil {
		return nil, err
	}
	return ts, nil
}

func (s *catalogService) ListTaxSettings(ctx context.Context) ([]model.TaxSetting, error) {
	return s.catalogRepo.ListTaxSettings(ctx)
}

func (s *catalogService) UpdateTaxSetting(ctx context.Context, actor Actor, id string, req TaxSettingRequest) (*model.TaxSetting, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation(apperr.ReasonInvalidInput, "invalid tax setting id")
	}
	ts, err := s.catalogRepo.FindTaxSettingByID(ctx, parsed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("tax setting not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	rate, err := parsePrice(req.Rate)
	if err != nil {
		return nil, err
	}
	ts.Name = req.Name
	ts.Mode = req.Mode
	ts.Rate = rate
	if req.IsActive != nil {
		ts.IsActive = *req.IsActive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.catalogRepo.UpdateTaxSetting(txCtx, ts); updateErr != nil {
			return fmt.Errorf("failed to update tax setting: %w", updateErr)
		}
		return s.logCatalogAction(txCtx, actor, model.ActionUpdateTaxSetting, ts.ID.String(), ts.Name)
	})
	if err != nil {
		return nil, err
	}
	return ts, nil
}

// --- Commission types ---

func (s *catalogService) CreateCommissionType(ctx context.Context, actor Actor, req CommissionTypeRequest) (*model.CommissionType, error) {
	ct := &model.CommissionType{Name: req.Name, IsActive: true}
	if err := applyCommissionTypeRequest(ct, req); err != nil {
		return nil, err
	}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.catalogRepo.CreateCommissionType(txCtx, ct); createErr != nil {
			return fmt.Errorf("failed to create commission type: %w", createErr)
		}
		return s.logCatalogAction(txCtx, actor, model.ActionCreateCommissionType, ct.ID.String(), ct.Name)
	})
	if err != nil {
		return nil, err
	}
	return ct, nil
}

func (s *catalogService) GetCommissionType(ctx context.Context, id string) (*model.CommissionType, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation(apperr.ReasonInvalidInput, "invalid commission type id")
	}
	ct, err := s.catalogRepo.FindCommissionTypeByID(ctx, parsed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("commission type not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return ct, nil
}

func (s *catalogService) ListCommissionTypes(ctx context.Context, page, limit int) ([]model.CommissionType, int64, error) {
	page, limit = normalizePaging(page, limit)
	return s.catalogRepo.ListCommissionTypes(ctx, page, limit)
}

func (s *catalogService) UpdateCommissionType(ctx context.Context, actor Actor, id string, req CommissionTypeRequest) (*model.CommissionType, error) {
	ct, err := s.GetCommissionType(ctx, id)
	if err != nil {
		return nil, err
	}
	ct.Name = req.Name
	if err := applyCommissionTypeRequest(ct, req); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.catalogRepo.UpdateCommissionType(txCtx, ct); updateErr != nil {
			return fmt.Errorf("failed to update commission type: %w", updateErr)
		}
		return s.logCatalogAction(txCtx, actor, model.ActionUpdateCommissionType, ct.ID.String(), ct.Name)
	})
	if err != nil {
		return nil, err
	}
	return ct, nil
}

func (s *catalogService) DeleteCommissionType(ctx context.Context, actor Actor, id string) error {
	ct, err := s.GetCommissionType(ctx, id)
	if err != nil {
		return err
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if deleteErr := s.catalogRepo.DeleteCommissionType(txCtx, ct.ID); deleteErr != nil {
			return fmt.Errorf("failed to delete commission type: %w", deleteErr)
		}
		return s.logCatalogAction(txCtx, actor, model.ActionDeleteCommissionType, ct.ID.String(), ct.Name)
	})
}

// --- Helpers ---

func (s *catalogService) logCatalogAction(ctx context.Context, actor Actor, action, entityID, entityName string) error {
	audit := &model.AuditLog{
		UserID:     actor.UserID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
	}
	if err := s.auditRepo.Log(ctx, audit); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func applyCommissionTypeRequest(ct *model.CommissionType, req CommissionTypeRequest) error {
	if req.FixedAmount != "" {
		fixed, err := parsePrice(req.FixedAmount)
		if err != nil {
			return err
		}
		ct.FixedAmount = fixed
	}
	if req.PercentageRate != "" {
		pct, err := parsePrice(req.PercentageRate)
		if err != nil {
			return err
		}
		ct.PercentageRate = pct
	}
	min, err := parseOptionalDecimal(&req.MinInvoiceAmount)
	if err != nil {
		return apperr.Validation(apperr.ReasonInvalidInput, "invalid min_invoice_amount")
	}
	ct.MinInvoiceAmount = min
	max, err := parseOptionalDecimal(&req.MaxInvoiceAmount)
	if err != nil {
		return apperr.Validation(apperr.ReasonInvalidInput, "invalid max_invoice_amount")
	}
	ct.MaxInvoiceAmount = max
	if req.IsActive != nil {
		ct.IsActive = *req.IsActive
	}
	if req.IsDefault != nil {
		ct.IsDefault = *req.IsDefault
	}
	return nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	val, err := decimal.NewFromString(raw)
	if err != nil || val.IsNegative() {
		return decimal.Decimal{}, apperr.Validation(apperr.ReasonInvalidInput, "amount must be a non-negative number")
	}
	return val, nil
}

func normalizePaging(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return page, limit
}
