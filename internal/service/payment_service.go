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

// --- DTOs ---

type CreatePaymentRequest struct {
	InvoiceID     string `json:"invoice_id" binding:"required,uuid"`
	Amount        string `json:"amount" binding:"required"`
	Method        string `json:"method" binding:"required"`
	BillReference string `json:"bill_reference" binding:"required"`
}

// GatewayWebhookRequest is the payload the payment gateway posts back once a
// bill settles. Replays carry the same bill_reference.
type GatewayWebhookRequest struct {
	BillReference string `json:"bill_reference" binding:"required"`
	Status        string `json:"status" binding:"required,oneof=success pending failed"`
	TransactionID string `json:"transaction_id"`
}

type PaymentResponse struct {
	ID            string  `json:"id"`
	InvoiceID     string  `json:"invoice_id"`
	Amount        string  `json:"amount"`
	Status        string  `json:"status"`
	Method        string  `json:"method"`
	BillReference string  `json:"bill_reference"`
	TransactionID string  `json:"transaction_id,omitempty"`
	PaidAt        *string `json:"paid_at"`
	CreatedAt     string  `json:"created_at"`
}

// --- Interface ---

type PaymentService interface {
	CreatePayment(ctx context.Context, actor Actor, req CreatePaymentRequest) (PaymentResponse, error)
	HandleGatewayWebhook(ctx context.Context, req GatewayWebhookRequest) (PaymentResponse, error)
	GetPayment(ctx context.Context, id string) (PaymentResponse, error)
	ListByInvoice(ctx context.Context, invoiceID string) ([]PaymentResponse, error)
}

type paymentService struct {
	paymentRepo   repository.PaymentRepository
	invoiceRepo   repository.InvoiceRepository
	auditRepo     repository.AuditRepository
	commissionSvc CommissionService
	txManager     repository.TransactionManager
	hub           EventBroadcaster
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	invoiceRepo repository.InvoiceRepository,
	auditRepo repository.AuditRepository,
	commissionSvc CommissionService,
	txManager repository.TransactionManager,
	hub EventBroadcaster,
) PaymentService {
	return &paymentService{
		paymentRepo:   paymentRepo,
		invoiceRepo:   invoiceRepo,
		auditRepo:     auditRepo,
		commissionSvc: commissionSvc,
		txManager:     txManager,
		hub:           hub,
	}
}

// CreatePayment records a pending payment attempt against an invoice, keyed
// by the gateway bill reference.
func (s *paymentService) CreatePayment(ctx context.Context, actor Actor, req CreatePaymentRequest) (PaymentResponse, error) {
	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		return PaymentResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid invoice id")
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return PaymentResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "amount must be a positive number")
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PaymentResponse{}, apperr.NotFound("invoice not found")
		}
		return PaymentResponse{}, fmt.Errorf("database error: %w", err)
	}
	if invoice.Status == model.InvoiceStatusPaid {
		return PaymentResponse{}, apperr.Conflict(apperr.ReasonInvoicePaid, "invoice is already paid")
	}
	if invoice.Status == model.InvoiceStatusCancelled {
		return PaymentResponse{}, apperr.Conflict(apperr.ReasonInvalidInput, "invoice is cancelled")
	}

	if existing, findErr := s.paymentRepo.FindByBillReference(ctx, req.BillReference); findErr == nil {
		return toPaymentResponse(existing), nil
	} else if !errors.Is(findErr, gorm.ErrRecordNotFound) {
		return PaymentResponse{}, fmt.Errorf("database error: %w", findErr)
	}

	payment := &model.Payment{
		InvoiceID:     invoiceID,
		Amount:        amount,
		Status:        model.PaymentStatusPending,
		Method:        req.Method,
		BillReference: req.BillReference,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return PaymentResponse{}, fmt.Errorf("failed to create payment: %w", err)
	}
	return toPaymentResponse(payment), nil
}

// HandleGatewayWebhook applies a gateway callback to the matching payment.
// Replayed callbacks for an already-settled payment return the current state
// without re-running settlement. A success callback marks the payment
// completed, the invoice paid, and creates the agent commission, all in one
// transaction.
func (s *paymentService) HandleGatewayWebhook(ctx context.Context, req GatewayWebhookRequest) (PaymentResponse, error) {
	payment, err := s.paymentRepo.FindByBillReference(ctx, req.BillReference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PaymentResponse{}, apperr.NotFound("no payment matches bill reference")
		}
		return PaymentResponse{}, fmt.Errorf("database error: %w", err)
	}

	// Replay or out-of-order delivery: terminal payments stay as they are.
	if payment.Status == model.PaymentStatusCompleted || payment.Status == model.PaymentStatusFailed {
		return toPaymentResponse(payment), nil
	}

	switch req.Status {
	case model.GatewayResultPending:
		return toPaymentResponse(payment), nil

	case model.GatewayResultFailed:
		payment.Status = model.PaymentStatusFailed
		payment.TransactionID = req.TransactionID
		if err := s.paymentRepo.Update(ctx, payment); err != nil {
			return PaymentResponse{}, fmt.Errorf("failed to update payment: %w", err)
		}
		return toPaymentResponse(payment), nil

	case model.GatewayResultSuccess:
		return s.settle(ctx, payment, req.TransactionID)

	default:
		return PaymentResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "unknown gateway status")
	}
}

func (s *paymentService) settle(ctx context.Context, payment *model.Payment, transactionID string) (PaymentResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, payment.InvoiceID)
	if err != nil {
		return PaymentResponse{}, fmt.Errorf("database error: %w", err)
	}

	now := time.Now()
	payment.Status = model.PaymentStatusCompleted
	payment.TransactionID = transactionID
	payment.PaidAt = &now

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.paymentRepo.Update(txCtx, payment); updateErr != nil {
			return fmt.Errorf("failed to update payment: %w", updateErr)
		}
		if invoice.Status != model.InvoiceStatusPaid {
			if invErr := s.invoiceRepo.UpdateStatus(txCtx, invoice.ID, model.InvoiceStatusPaid); invErr != nil {
				return fmt.Errorf("failed to update invoice: %w", invErr)
			}
		}

		if _, commErr := s.commissionSvc.CreateForInvoice(txCtx, Actor{Role: model.RoleAdmin}, invoice.ID); commErr != nil {
			return fmt.Errorf("failed to create commission: %w", commErr)
		}

		details, _ := json.Marshal(map[string]string{
			"bill_reference": payment.BillReference,
			"transaction_id": transactionID,
			"amount":         payment.Amount.StringFixed(2),
		})
		audit := &model.AuditLog{
			Action:     model.ActionSettlePayment,
			EntityID:   payment.ID.String(),
			EntityName: invoice.InvoiceNo,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return PaymentResponse{}, err
	}

	if s.hub != nil {
		s.hub.BroadcastEvent("invoice.paid", map[string]interface{}{
			"invoice_id": invoice.ID.String(),
			"invoice_no": invoice.InvoiceNo,
			"payment_id": payment.ID.String(),
			"amount":     payment.Amount.StringFixed(2),
		})
	}
	return toPaymentResponse(payment), nil
}

func (s *paymentService) GetPayment(ctx context.Context, id string) (PaymentResponse, error) {
	paymentID, err := uuid.Parse(id)
	if err != nil {
		return PaymentResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid payment id")
	}
	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PaymentResponse{}, apperr.NotFound("payment not found")
		}
		return PaymentResponse{}, fmt.Errorf("database error: %w", err)
	}
	return toPaymentResponse(payment), nil
}

func (s *paymentService) ListByInvoice(ctx context.Context, invoiceID string) ([]PaymentResponse, error) {
	parsed, err := uuid.Parse(invoiceID)
	if err != nil {
		return nil, apperr.Validation(apperr.ReasonInvalidInput, "invalid invoice id")
	}
	payments, err := s.paymentRepo.FindByInvoiceID(ctx, parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payments: %w", err)
	}
	result := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		result = append(result, toPaymentResponse(&payments[i]))
	}
	return result, nil
}

// --- Mapping ---

func toPaymentResponse(p *model.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID.String(),
		InvoiceID:     p.InvoiceID.String(),
		Amount:        p.Amount.StringFixed(2),
		Status:        p.Status,
		Method:        p.Method,
		BillReference: p.BillReference,
		TransactionID: p.TransactionID,
		PaidAt:        formatOptionalTime(p.PaidAt),
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
	}
}
