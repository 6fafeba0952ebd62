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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CarpetRequest struct {
	CarpetTypeID      string  `json:"carpet_type_id"`
	Width             *string `json:"width"`
	Length            *string `json:"length"`
	Color             string  `json:"color"`
	AdditionalCharges string  `json:"additional_charges"`
	PackLabel         string  `json:"pack_label"`
}

type AttachAddonRequest struct {
	AddonServiceID string  `json:"addon_service_id" binding:"required"`
	PriceOverride  *string `json:"price_override"`
	Notes          string  `json:"notes"`
}

type CarpetAddonResponse struct {
	AddonServiceID string  `json:"addon_service_id"`
	Name           string  `json:"name"`
	Price          string  `json:"price"`
	PriceOverride  *string `json:"price_override"`
	Notes          string  `json:"notes"`
}

type CarpetResponse struct {
	ID                string                `json:"id"`
	OrderID           string                `json:"order_id"`
	CarpetTypeID      *string               `json:"carpet_type_id"`
	CarpetTypeName    string                `json:"carpet_type_name,omitempty"`
	Width             *string               `json:"width"`
	Length            *string               `json:"length"`
	Color             string                `json:"color"`
	Status            string                `json:"status"`
	AdditionalCharges string                `json:"additional_charges"`
	PackLabel         string                `json:"pack_label"`
	TotalPrice        string                `json:"total_price"`
	AddonServices     []CarpetAddonResponse `json:"addon_services,omitempty"`
	CreatedAt         string                `json:"created_at"`
}

// --- Interface ---

type CarpetService interface {
	AddCarpet(ctx context.Context, actor Actor, orderID string, req CarpetRequest) (CarpetResponse, error)
	UpdateCarpet(ctx context.Context, actor Actor, carpetID string, req CarpetRequest) (CarpetResponse, error)
	DeleteCarpet(ctx context.Context, actor Actor, carpetID string) error
	AttachAddon(ctx context.Context, actor Actor, carpetID string, req AttachAddonRequest) (CarpetResponse, error)
	DetachAddon(ctx context.Context, actor Actor, carpetID, addonServiceID string) (CarpetResponse, error)
	ListByOrder(ctx context.Context, orderID string) ([]CarpetResponse, error)
}

type carpetService struct {
	carpetRepo  repository.CarpetRepository
	orderRepo   repository.OrderRepository
	invoiceRepo repository.InvoiceRepository
	catalogRepo repository.CatalogRepository
	txManager   repository.TransactionManager
}

func NewCarpetService(
	carpetRepo repository.CarpetRepository,
	orderRepo repository.OrderRepository,
	invoiceRepo repository.InvoiceRepository,
	catalogRepo repository.CatalogRepository,
	txManager repository.TransactionManager,
) CarpetService {
	return &carpetService{
		carpetRepo:  carpetRepo,
		orderRepo:   orderRepo,
		invoiceRepo: invoiceRepo,
		catalogRepo: catalogRepo,
		txManager:   txManager,
	}
}

// --- Implementation ---

// carpetsMutable enforces the carpet lifecycle gate: carpets can only be
// created or destroyed while the order has no live invoice and is still
// pending or assigned.
func (s *carpetService) carpetsMutable(ctx context.Context, order *model.Order) error {
	if order.Status != model.OrderStatusPending && order.Status != model.OrderStatusAssigned {
		return apperr.Conflict(apperr.ReasonOrderLocked, fmt.Sprintf("carpets cannot change while order is %s", order.Status))
	}
	if _, err := s.invoiceRepo.FindActiveByOrderID(ctx, order.ID); err == nil {
		return apperr.Conflict(apperr.ReasonAlreadyInvoiced, "order already has an invoice")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("database error: %w", err)
	}
	return nil
}

func (s *carpetService) AddCarpet(ctx context.Context, actor Actor, orderID string, req CarpetRequest) (CarpetResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return CarpetResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid order id")
	}

	order, err := s.orderRepo.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CarpetResponse{}, apperr.NotFound("order not found")
		}
		return CarpetResponse{}, fmt.Errorf("database error: %w", err)
	}
	if err := s.carpetsMutable(ctx, order); err != nil {
		return CarpetResponse{}, err
	}

	carpet := model.Carpet{
		OrderID: oid,
		Status:  model.CarpetStatusPending,
	}
	if err := applyCarpetRequest(&carpet, req); err != nil {
		return CarpetResponse{}, err
	}
	if carpet.CarpetTypeID != nil {
		ct, typeErr := s.catalogRepo.FindCarpetTypeByID(ctx, *carpet.CarpetTypeID)
		if typeErr != nil {
			if errors.Is(typeErr, gorm.ErrRecordNotFound) {
				return CarpetResponse{}, apperr.NotFound("carpet type not found")
			}
			return CarpetResponse{}, fmt.Errorf("database error: %w", typeErr)
		}
		carpet.CarpetType = ct
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.carpetRepo.Create(txCtx, &carpet); createErr != nil {
			return fmt.Errorf("failed to create carpet: %w", createErr)
		}
		count, countErr := s.carpetRepo.CountByOrder(txCtx, oid)
		if countErr != nil {
			return fmt.Errorf("failed to count carpets: %w", countErr)
		}
		order.CarpetCount = int(count)
		if updErr := s.orderRepo.Update(txCtx, order); updErr != nil {
			return fmt.Errorf("failed to update carpet count: %w", updErr)
		}
		return nil
	})
	if err != nil {
		return CarpetResponse{}, err
	}

	return toCarpetResponse(&carpet), nil
}

func (s *carpetService) UpdateCarpet(ctx context.Context, actor Actor, carpetID string, req CarpetRequest) (CarpetResponse, error) {
	cid, err := uuid.Parse(carpetID)
	if err != nil {
		return CarpetResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid carpet id")
	}

	carpet, err := s.carpetRepo.FindByID(ctx, cid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CarpetResponse{}, apperr.NotFound("carpet not found")
		}
		return CarpetResponse{}, fmt.Errorf("database error: %w", err)
	}

	order, err := s.orderRepo.FindByID(ctx, carpet.OrderID)
	if err != nil {
		return CarpetResponse{}, fmt.Errorf("database error: %w", err)
	}
	if err := s.carpetsMutable(ctx, order); err != nil {
		return CarpetResponse{}, err
	}

	if err := applyCarpetRequest(carpet, req); err != nil {
		return CarpetResponse{}, err
	}
	if carpet.CarpetTypeID != nil {
		ct, typeErr := s.catalogRepo.FindCarpetTypeByID(ctx, *carpet.CarpetTypeID)
		if typeErr != nil {
			if errors.Is(typeErr, gorm.ErrRecordNotFound) {
				return CarpetResponse{}, apperr.NotFound("carpet type not found")
			}
			return CarpetResponse{}, fmt.Errorf("database error: %w", typeErr)
		}
		carpet.CarpetType = ct
	}

	if err := s.carpetRepo.Update(ctx, carpet); err != nil {
		return CarpetResponse{}, fmt.Errorf("failed to update carpet: %w", err)
	}
	return toCarpetResponse(carpet), nil
}

func (s *carpetService) DeleteCarpet(ctx context.Context, actor Actor, carpetID string) error {
	cid, err := uuid.Parse(carpetID)
	if err != nil {
		return apperr.Validation(apperr.ReasonInvalidInput, "invalid carpet id")
	}

	carpet, err := s.carpetRepo.FindByID(ctx, cid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("carpet not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	order, err := s.orderRepo.FindByID(ctx, carpet.OrderID)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if err := s.carpetsMutable(ctx, order); err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.carpetRepo.Delete(txCtx, cid); delErr != nil {
			return fmt.Errorf("failed to delete carpet: %w", delErr)
		}
		count, countErr := s.carpetRepo.CountByOrder(txCtx, carpet.OrderID)
		if countErr != nil {
			return fmt.Errorf("failed to count carpets: %w", countErr)
		}
		order.CarpetCount = int(count)
		if updErr := s.orderRepo.Update(txCtx, order); updErr != nil {
			return fmt.Errorf("failed to update carpet count: %w", updErr)
		}
		return nil
	})
}

func (s *carpetService) AttachAddon(ctx context.Context, actor Actor, carpetID string, req AttachAddonRequest) (CarpetResponse, error) {
	cid, err := uuid.Parse(carpetID)
	if err != nil {
		return CarpetResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid carpet id")
	}
	sid, err := uuid.Parse(req.AddonServiceID)
	if err != nil {
		return CarpetResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid addon_service_id")
	}

	carpet, err := s.carpetRepo.FindByID(ctx, cid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CarpetResponse{}, apperr.NotFound("carpet not found")
		}
		return CarpetResponse{}, fmt.Errorf("database error: %w", err)
	}

	order, err := s.orderRepo.FindByID(ctx, carpet.OrderID)
	if err != nil {
		return CarpetResponse{}, fmt.Errorf("database error: %w", err)
	}
	if err := s.carpetsMutable(ctx, order); err != nil {
		return CarpetResponse{}, err
	}

	svc, err := s.catalogRepo.FindAddonServiceByID(ctx, sid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CarpetResponse{}, apperr.NotFound("addon service not found")
		}
		return CarpetResponse{}, fmt.Errorf("database error: %w", err)
	}
	if !svc.IsActive {
		return CarpetResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "addon service is inactive")
	}

	link := model.CarpetAddonService{
		CarpetID:       cid,
		AddonServiceID: sid,
		Notes:          req.Notes,
	}
	if req.PriceOverride != nil && *req.PriceOverride != "" {
		override, parseErr := decimal.NewFromString(*req.PriceOverride)
		if parseErr != nil {
			return CarpetResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid price_override")
		}
		link.PriceOverride = &override
	}

	if err := s.carpetRepo.AttachAddon(ctx, &link); err != nil {
		return CarpetResponse{}, fmt.Errorf("failed to attach addon service: %w", err)
	}

	reloaded, err := s.carpetRepo.FindByID(ctx, cid)
	if err != nil {
		return CarpetResponse{}, fmt.Errorf("failed to reload carpet: %w", err)
	}
	return toCarpetResponse(reloaded), nil
}

func (s *carpetService) DetachAddon(ctx context.Context, actor Actor, carpetID, addonServiceID string) (CarpetResponse, error) {
	cid, err := uuid.Parse(carpetID)
	if err != nil {
		return CarpetResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid carpet id")
	}
	sid, err := uuid.Parse(addonServiceID)
	if err != nil {
		return CarpetResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid addon service id")
	}

	carpet, err := s.carpetRepo.FindByID(ctx, cid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CarpetResponse{}, apperr.NotFound("carpet not found")
		}
		return CarpetResponse{}, fmt.Errorf("database error: %w", err)
	}

	order, err := s.orderRepo.FindByID(ctx, carpet.OrderID)
	if err != nil {
		return CarpetResponse{}, fmt.Errorf("database error: %w", err)
	}
	if err := s.carpetsMutable(ctx, order); err != nil {
		return CarpetResponse{}, err
	}

	if err := s.carpetRepo.DetachAddon(ctx, cid, sid); err != nil {
		return CarpetResponse{}, fmt.Errorf("failed to detach addon service: %w", err)
	}

	reloaded, err := s.carpetRepo.FindByID(ctx, cid)
	if err != nil {
		return CarpetResponse{}, fmt.Errorf("failed to reload carpet: %w", err)
	}
	return toCarpetResponse(reloaded), nil
}

func (s *carpetService) ListByOrder(ctx context.Context, orderID string) ([]CarpetResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, apperr.Validation(apperr.ReasonInvalidInput, "invalid order id")
	}
	carpets, err := s.carpetRepo.FindByOrderID(ctx, oid)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch carpets: %w", err)
	}
	result := make([]CarpetResponse, 0, len(carpets))
	for i := range carpets {
		result = append(result, toCarpetResponse(&carpets[i]))
	}
	return result, nil
}

// --- Helpers ---

func applyCarpetRequest(carpet *model.Carpet, req CarpetRequest) error {
	if req.CarpetTypeID != "" {
		typeID, err := uuid.Parse(req.CarpetTypeID)
		if err != nil {
			return apperr.Validation(apperr.ReasonInvalidInput, "invalid carpet_type_id")
		}
		carpet.CarpetTypeID = &typeID
	}
	var err error
	if carpet.Width, err = parseOptionalDecimal(req.Width); err != nil {
		return apperr.Validation(apperr.ReasonInvalidInput, "invalid width")
	}
	if carpet.Length, err = parseOptionalDecimal(req.Length); err != nil {
		return apperr.Validation(apperr.ReasonInvalidInput, "invalid length")
	}
	carpet.Color = req.Color
	carpet.PackLabel = req.PackLabel
	if req.AdditionalCharges != "" {
		charges, parseErr := decimal.NewFromString(req.AdditionalCharges)
		if parseErr != nil || charges.IsNegative() {
			return apperr.Validation(apperr.ReasonInvalidInput, "invalid additional_charges")
		}
		carpet.AdditionalCharges = charges
	}
	return nil
}

func parseOptionalDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// --- Mapping ---

func toCarpetResponse(carpet *model.Carpet) CarpetResponse {
	resp := CarpetResponse{
		ID:                carpet.ID.String(),
		OrderID:           carpet.OrderID.String(),
		Color:             carpet.Color,
		Status:            carpet.Status,
		AdditionalCharges: carpet.AdditionalCharges.StringFixed(2),
		PackLabel:         carpet.PackLabel,
		TotalPrice:        carpet.TotalPrice(true).StringFixed(2),
		CreatedAt:         carpet.CreatedAt.Format(time.RFC3339),
	}
	if carpet.CarpetTypeID != nil {
		s := carpet.CarpetTypeID.String()
		resp.CarpetTypeID = &s
	}
	if carpet.CarpetType != nil {
		resp.CarpetTypeName = carpet.CarpetType.Name
	}
	if carpet.Width != nil {
		s := carpet.Width.StringFixed(2)
		resp.Width = &s
	}
	if carpet.Length != nil {
		s := carpet.Length.StringFixed(2)
		resp.Length = &s
	}
	for _, link := range carpet.AddonServices {
		if link.AddonService == nil {
			continue
		}
		ar := CarpetAddonResponse{
			AddonServiceID: link.AddonServiceID.String(),
			Name:           link.AddonService.Name,
			Price:          link.AddonService.Price(carpet, link.PriceOverride).StringFixed(2),
			Notes:          link.Notes,
		}
		if link.PriceOverride != nil {
			s := link.PriceOverride.StringFixed(2)
			ar.PriceOverride = &s
		}
		resp.AddonServices = append(resp.AddonServices, ar)
	}
	return resp
}
