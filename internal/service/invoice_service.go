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

var oneHundred = decimal.NewFromInt(100)

// InvoiceComputation is the result of the pure calculation step: the line
// items and every derived amount, before anything touches storage.
type InvoiceComputation struct {
	Items          []model.InvoiceItem
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	TotalAmount    decimal.Decimal
}

// CalculateInvoice turns an order's carpets into invoice line items and
// applies discount and tax. It has no side effects.
//
// Each carpet contributes one carpet_base item (its type price plus
// additional charges) followed by one addon_service item per attached addon,
// keeping carpet-then-addon ordering. The discount is clamped to
// [0, subtotal]; tax applies to the discounted base only when the tax
// setting is active.
func CalculateInvoice(carpets []model.Carpet, taxSetting *model.TaxSetting, discount decimal.Decimal, discountMode string) InvoiceComputation {
	var comp InvoiceComputation
	comp.Subtotal = decimal.Zero
	sortOrder := 0

	for i := range carpets {
		carpet := &carpets[i]
		base := carpet.TotalPrice(false)
		name := "Carpet cleaning"
		if carpet.CarpetType != nil {
			name = fmt.Sprintf("Carpet cleaning (%s)", carpet.CarpetType.Name)
		}
		carpetID := carpet.ID
		comp.Items = append(comp.Items, model.InvoiceItem{
			CarpetID:  &carpetID,
			ItemType:  model.ItemTypeCarpetBase,
			Name:      name,
			Quantity:  decimal.NewFromInt(1),
			Unit:      "pc",
			UnitPrice: base,
			Subtotal:  base,
			SortOrder: sortOrder,
		})
		sortOrder++
		comp.Subtotal = comp.Subtotal.Add(base)

		for _, link := range carpet.AddonServices {
			if link.AddonService == nil {
				continue
			}
			price := link.AddonService.Price(carpet, link.PriceOverride)
			comp.Items = append(comp.Items, model.InvoiceItem{
				CarpetID:  &carpetID,
				ItemType:  model.ItemTypeAddonService,
				Name:      link.AddonService.Name,
				Quantity:  decimal.NewFromInt(1),
				Unit:      "svc",
				UnitPrice: price,
				Subtotal:  price,
				SortOrder: sortOrder,
			})
			sortOrder++
			comp.Subtotal = comp.Subtotal.Add(price)
		}
	}

	comp.Subtotal = comp.Subtotal.Round(2)

	if discountMode == model.DiscountModePercentage {
		comp.DiscountAmount = comp.Subtotal.Mul(discount).Div(oneHundred).Round(2)
	} else {
		comp.DiscountAmount = discount.Round(2)
	}
	if comp.DiscountAmount.IsNegative() {
		comp.DiscountAmount = decimal.Zero
	}
	if comp.DiscountAmount.GreaterThan(comp.Subtotal) {
		comp.DiscountAmount = comp.Subtotal
	}

	taxableBase := comp.Subtotal.Sub(comp.DiscountAmount)
	comp.TaxAmount = decimal.Zero
	if taxSetting != nil && taxSetting.IsActive {
		if taxSetting.Mode == model.TaxModePercentage {
			comp.TaxAmount = taxableBase.Mul(taxSetting.Rate).Div(oneHundred).Round(2)
		} else {
			comp.TaxAmount = taxSetting.Rate.Round(2)
		}
	}

	comp.TotalAmount = taxableBase.Add(comp.TaxAmount).Round(2)
	return comp
}

// --- DTOs ---

type GenerateInvoiceRequest struct {
	TaxSettingID string `json:"tax_setting_id"`
	Discount     string `json:"discount"`
	DiscountMode string `json:"discount_mode" binding:"omitempty,oneof=fixed percentage"`
	DueDate      string `json:"due_date"`
	Notes        string `json:"notes"`
}

type InvoiceFilter struct {
	Status    string
	InvoiceNo string
	Page      int
	Limit     int
}

type InvoiceItemResponse struct {
	CarpetID  *string `json:"carpet_id"`
	ItemType  string  `json:"item_type"`
	Name      string  `json:"name"`
	Quantity  string  `json:"quantity"`
	Unit      string  `json:"unit"`
	UnitPrice string  `json:"unit_price"`
	Subtotal  string  `json:"subtotal"`
	SortOrder int     `json:"sort_order"`
}

type InvoiceResponse struct {
	ID             string                `json:"id"`
	OrderID        string                `json:"order_id"`
	InvoiceNo      string                `json:"invoice_no"`
	Subtotal       string                `json:"subtotal"`
	DiscountAmount string                `json:"discount_amount"`
	DiscountMode   string                `json:"discount_mode"`
	TaxSettingID   *string               `json:"tax_setting_id"`
	TaxAmount      string                `json:"tax_amount"`
	TotalAmount    string                `json:"total_amount"`
	Status         string                `json:"status"`
	IssuedAt       string                `json:"issued_at"`
	DueDate        *string               `json:"due_date"`
	Notes          string                `json:"notes"`
	Items          []InvoiceItemResponse `json:"items,omitempty"`
	CreatedAt      string                `json:"created_at"`
}

// --- Interface ---

type InvoiceService interface {
	GenerateInvoice(ctx context.Context, actor Actor, orderID string, req GenerateInvoiceRequest) (InvoiceResponse, error)
	RegenerateInvoice(ctx context.Context, actor Actor, orderID string, req GenerateInvoiceRequest) (InvoiceResponse, error)
	GetInvoice(ctx context.Context, id string) (InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter InvoiceFilter) ([]InvoiceResponse, int64, error)
	MarkOverdueInvoices(ctx context.Context) (int64, error)
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
	orderRepo   repository.OrderRepository
	catalogRepo repository.CatalogRepository
	auditRepo   repository.AuditRepository
	allocator   repository.NumberAllocator
	txManager   repository.TransactionManager
	hub         EventBroadcaster
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	orderRepo repository.OrderRepository,
	catalogRepo repository.CatalogRepository,
	auditRepo repository.AuditRepository,
	allocator repository.NumberAllocator,
	txManager repository.TransactionManager,
	hub EventBroadcaster,
) InvoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		orderRepo:   orderRepo,
		catalogRepo: catalogRepo,
		auditRepo:   auditRepo,
		allocator:   allocator,
		txManager:   txManager,
		hub:         hub,
	}
}

// --- Implementation ---

func (s *invoiceService) GenerateInvoice(ctx context.Context, actor Actor, orderID string, req GenerateInvoiceRequest) (InvoiceResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return InvoiceResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid order id")
	}

	order, err := s.orderRepo.FindByIDWithCarpets(ctx, oid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return InvoiceResponse{}, apperr.NotFound("order not found")
		}
		return InvoiceResponse{}, fmt.Errorf("database error: %w", err)
	}

	if err := EligibleForInvoice(order); err != nil {
		return InvoiceResponse{}, err
	}

	invoice, err := s.buildInvoice(ctx, order, req)
	if err != nil {
		return InvoiceResponse{}, err
	}

	for attempt := 1; ; attempt++ {
		err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			if createErr := s.invoiceRepo.Create(txCtx, invoice); createErr != nil {
				return fmt.Errorf("failed to create invoice: %w", createErr)
			}

			// Invoicing advances the order, unless it already reached completed.
			if order.Status != model.OrderStatusCompleted {
				if setErr := s.orderRepo.UpdateStatus(txCtx, order.ID, model.OrderStatusInvoiced); setErr != nil {
					return fmt.Errorf("failed to update order status: %w", setErr)
				}
				entry := &model.OrderStatusHistory{
					OrderID:   order.ID,
					OldStatus: order.Status,
					NewStatus: model.OrderStatusInvoiced,
					ChangedBy: actor.UserID,
					ActorRole: actor.Role,
				}
				if histErr := s.orderRepo.AppendHistory(txCtx, entry); histErr != nil {
					return fmt.Errorf("failed to append status history: %w", histErr)
				}
			}

			details, _ := json.Marshal(map[string]string{
				"invoice_no": invoice.InvoiceNo,
				"total":      invoice.TotalAmount.StringFixed(2),
			})
			audit := &model.AuditLog{
				UserID:     actor.UserID,
				Action:     model.ActionGenerateInvoice,
				EntityID:   invoice.ID.String(),
				EntityName: invoice.InvoiceNo,
				Details:    string(details),
			}
			if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
				return fmt.Errorf("failed to write audit log: %w", auditErr)
			}
			return nil
		})
		if err == nil {
			break
		}
		// The counter fallback can reissue a number the unique index already
		// holds. A fresh allocation gets past the collision.
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt < maxNumberAttempts {
			if reErr := s.reallocateNumber(ctx, invoice); reErr != nil {
				return InvoiceResponse{}, reErr
			}
			continue
		}
		return InvoiceResponse{}, err
	}

	s.broadcastInvoiceEvent("invoice.created", invoice)
	return toInvoiceServiceResponse(invoice), nil
}

// RegenerateInvoice cancels the order's current invoice and issues a new one
// from the order's present carpet and addon state. Refused once any payment
// exists against the previous invoice.
func (s *invoiceService) RegenerateInvoice(ctx context.Context, actor Actor, orderID string, req GenerateInvoiceRequest) (InvoiceResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return InvoiceResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid order id")
	}

	order, err := s.orderRepo.FindByIDWithCarpets(ctx, oid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return InvoiceResponse{}, apperr.NotFound("order not found")
		}
		return InvoiceResponse{}, fmt.Errorf("database error: %w", err)
	}

	previous, err := s.invoiceRepo.FindActiveByOrderID(ctx, oid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return InvoiceResponse{}, apperr.NotFound("order has no invoice to regenerate")
		}
		return InvoiceResponse{}, fmt.Errorf("database error: %w", err)
	}

	paymentCount, err := s.invoiceRepo.CountPayments(ctx, previous.ID)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("database error: %w", err)
	}
	if paymentCount > 0 {
		return InvoiceResponse{}, apperr.Conflict(apperr.ReasonHasPayments, "invoice already has payments and cannot be regenerated")
	}

	invoice, err := s.buildInvoice(ctx, order, req)
	if err != nil {
		return InvoiceResponse{}, err
	}

	for attempt := 1; ; attempt++ {
		err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			if cancelErr := s.invoiceRepo.UpdateStatus(txCtx, previous.ID, model.InvoiceStatusCancelled); cancelErr != nil {
				return fmt.Errorf("failed to cancel previous invoice: %w", cancelErr)
			}
			if createErr := s.invoiceRepo.Create(txCtx, invoice); createErr != nil {
				return fmt.Errorf("failed to create invoice: %w", createErr)
			}

			details, _ := json.Marshal(map[string]string{
				"previous_invoice_no": previous.InvoiceNo,
				"invoice_no":          invoice.InvoiceNo,
				"total":               invoice.TotalAmount.StringFixed(2),
			})
			audit := &model.AuditLog{
				UserID:     actor.UserID,
				Action:     model.ActionRegenerateInvoice,
				EntityID:   invoice.ID.String(),
				EntityName: invoice.InvoiceNo,
				Details:    string(details),
			}
			if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
				return fmt.Errorf("failed to write audit log: %w", auditErr)
			}
			return nil
		})
		if err == nil {
			break
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt < maxNumberAttempts {
			if reErr := s.reallocateNumber(ctx, invoice); reErr != nil {
				return InvoiceResponse{}, reErr
			}
			continue
		}
		return InvoiceResponse{}, err
	}

	s.broadcastInvoiceEvent("invoice.regenerated", invoice)
	return toInvoiceServiceResponse(invoice), nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (InvoiceResponse, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid invoice id")
	}
	invoice, err := s.invoiceRepo.FindByIDWithItems(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return InvoiceResponse{}, apperr.NotFound("invoice not found")
		}
		return InvoiceResponse{}, fmt.Errorf("database error: %w", err)
	}
	return toInvoiceServiceResponse(invoice), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]InvoiceResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	invoices, total, err := s.invoiceRepo.List(ctx, repository.InvoiceListFilter{
		Status:    filter.Status,
		InvoiceNo: filter.InvoiceNo,
		Page:      filter.Page,
		Limit:     filter.Limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch invoices: %w", err)
	}

	result := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		result = append(result, toInvoiceServiceResponse(&invoices[i]))
	}
	return result, total, nil
}

// MarkOverdueInvoices is called by the daily scheduler.
func (s *invoiceService) MarkOverdueInvoices(ctx context.Context) (int64, error) {
	return s.invoiceRepo.MarkOverdue(ctx, time.Now())
}

// buildInvoice runs the calculation and assembles an unsaved invoice with a
// freshly allocated number.
func (s *invoiceService) buildInvoice(ctx context.Context, order *model.Order, req GenerateInvoiceRequest) (*model.Invoice, error) {
	discount := decimal.Zero
	if req.Discount != "" {
		var err error
		discount, err = decimal.NewFromString(req.Discount)
		if err != nil || discount.IsNegative() {
			return nil, apperr.Validation(apperr.ReasonInvalidInput, "invalid discount")
		}
	}
	discountMode := req.DiscountMode
	if discountMode == "" {
		discountMode = model.DiscountModeFixed
	}

	var taxSetting *model.TaxSetting
	var taxSettingID *uuid.UUID
	if req.TaxSettingID != "" {
		parsed, err := uuid.Parse(req.TaxSettingID)
		if err != nil {
			return nil, apperr.Validation(apperr.ReasonInvalidInput, "invalid tax_setting_id")
		}
		taxSetting, err = s.catalogRepo.FindTaxSettingByID(ctx, parsed)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("tax setting not found")
			}
			return nil, fmt.Errorf("database error: %w", err)
		}
		taxSettingID = &parsed
	}

	var dueDate *time.Time
	if req.DueDate != "" {
		parsed, err := parseOptionalDate(&req.DueDate)
		if err != nil {
			return nil, apperr.Validation(apperr.ReasonInvalidInput, "invalid due_date")
		}
		dueDate = parsed
	}

	comp := CalculateInvoice(order.Carpets, taxSetting, discount, discountMode)

	invoiceNo, err := s.allocator.Next(ctx, "INV")
	if err != nil {
		return nil, fmt.Errorf("failed to allocate invoice number: %w", err)
	}

	return &model.Invoice{
		OrderID:        order.ID,
		InvoiceNo:      invoiceNo,
		Subtotal:       comp.Subtotal,
		DiscountAmount: comp.DiscountAmount,
		DiscountMode:   discountMode,
		TaxSettingID:   taxSettingID,
		TaxAmount:      comp.TaxAmount,
		TotalAmount:    comp.TotalAmount,
		Status:         model.InvoiceStatusPending,
		IssuedAt:       time.Now(),
		DueDate:        dueDate,
		Notes:          req.Notes,
		Items:          comp.Items,
	}, nil
}

// reallocateNumber replaces the invoice number after a unique-index
// collision, before the create is retried.
func (s *invoiceService) reallocateNumber(ctx context.Context, invoice *model.Invoice) error {
	invoiceNo, err := s.allocator.Next(ctx, "INV")
	if err != nil {
		return fmt.Errorf("failed to allocate invoice number: %w", err)
	}
	invoice.InvoiceNo = invoiceNo
	return nil
}

func (s *invoiceService) broadcastInvoiceEvent(event string, invoice *model.Invoice) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastEvent(event, map[string]interface{}{
		"invoice_id": invoice.ID.String(),
		"invoice_no": invoice.InvoiceNo,
		"order_id":   invoice.OrderID.String(),
		"total":      invoice.TotalAmount.StringFixed(2),
		"status":     invoice.Status,
	})
}

// --- Mapping ---

func toInvoiceServiceResponse(inv *model.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:             inv.ID.String(),
		OrderID:        inv.OrderID.String(),
		InvoiceNo:      inv.InvoiceNo,
		Subtotal:       inv.Subtotal.StringFixed(2),
		DiscountAmount: inv.DiscountAmount.StringFixed(2),
		DiscountMode:   inv.DiscountMode,
		TaxAmount:      inv.TaxAmount.StringFixed(2),
		TotalAmount:    inv.TotalAmount.StringFixed(2),
		Status:         inv.Status,
		IssuedAt:       inv.IssuedAt.Format(time.RFC3339),
		DueDate:        formatOptionalTime(inv.DueDate),
		Notes:          inv.Notes,
		CreatedAt:      inv.CreatedAt.Format(time.RFC3339),
	}
	if inv.TaxSettingID != nil {
		s := inv.TaxSettingID.String()
		resp.TaxSettingID = &s
	}
	for _, item := range inv.Items {
		ir := InvoiceItemResponse{
			ItemType:  item.ItemType,
			Name:      item.Name,
			Quantity:  item.Quantity.StringFixed(2),
			Unit:      item.Unit,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Subtotal:  item.Subtotal.StringFixed(2),
			SortOrder: item.SortOrder,
		}
		if item.CarpetID != nil {
			s := item.CarpetID.String()
			ir.CarpetID = &s
		}
		resp.Items = append(resp.Items, ir)
	}
	return resp
}
