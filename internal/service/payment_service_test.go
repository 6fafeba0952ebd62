package service

import (
	"context"
	"testing"
	"time"

	"carpetcare/internal/apperr"
	"carpetcare/internal/model"
	"carpetcare/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- in-memory fakes ---

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakePaymentRepo struct {
	payments map[string]*model.Payment // keyed by bill reference
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: map[string]*model.Payment{}}
}

func (r *fakePaymentRepo) Create(_ context.Context, p *model.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	cp := *p
	r.payments[p.BillReference] = &cp
	return nil
}

func (r *fakePaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Payment, error) {
	for _, p := range r.payments {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePaymentRepo) FindByBillReference(_ context.Context, billRef string) (*model.Payment, error) {
	p, ok := r.payments[billRef]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) FindByInvoiceID(_ context.Context, invoiceID uuid.UUID) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range r.payments {
		if p.InvoiceID == invoiceID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) Update(_ context.Context, p *model.Payment) error {
	cp := *p
	r.payments[p.BillReference] = &cp
	return nil
}

type fakeInvoiceRepo struct {
	invoices      map[uuid.UUID]*model.Invoice
	statusUpdates int
	payments      map[uuid.UUID]int64
}

func newFakeInvoiceRepo(invoices ...*model.Invoice) *fakeInvoiceRepo {
	r := &fakeInvoiceRepo{invoices: map[uuid.UUID]*model.Invoice{}}
	for _, inv := range invoices {
		r.invoices[inv.ID] = inv
	}
	return r
}

func (r *fakeInvoiceRepo) Create(_ context.Context, inv *model.Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	r.invoices[inv.ID] = inv
	return nil
}

func (r *fakeInvoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *inv
	return &cp, nil
}

func (r *fakeInvoiceRepo) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeInvoiceRepo) FindActiveByOrderID(_ context.Context, orderID uuid.UUID) (*model.Invoice, error) {
	for _, inv := range r.invoices {
		if inv.OrderID == orderID && inv.Status != model.InvoiceStatusCancelled {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeInvoiceRepo) List(context.Context, repository.InvoiceListFilter) ([]model.Invoice, int64, error) {
	return nil, 0, nil
}

func (r *fakeInvoiceRepo) Update(_ context.Context, inv *model.Invoice) error {
	r.invoices[inv.ID] = inv
	return nil
}

func (r *fakeInvoiceRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	inv, ok := r.invoices[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	inv.Status = status
	r.statusUpdates++
	return nil
}

func (r *fakeInvoiceRepo) CountPayments(_ context.Context, invoiceID uuid.UUID) (int64, error) {
	return r.payments[invoiceID], nil
}

func (r *fakeInvoiceRepo) MarkOverdue(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (r *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(context.Context, int, int) ([]model.AuditLog, int64, error) {
	return nil, 0, nil
}

type fakeCommissionService struct {
	createCalls int
}

func (s *fakeCommissionService) CreateForInvoice(context.Context, Actor, uuid.UUID) (*CommissionResponse, error) {
	s.createCalls++
	return nil, nil
}

func (s *fakeCommissionService) Preview(context.Context, string) (CommissionPreviewResponse, error) {
	return CommissionPreviewResponse{}, nil
}

func (s *fakeCommissionService) GetCommission(context.Context, string) (CommissionResponse, error) {
	return CommissionResponse{}, nil
}

func (s *fakeCommissionService) ListCommissions(context.Context, CommissionFilter) ([]CommissionResponse, int64, error) {
	return nil, 0, nil
}

func (s *fakeCommissionService) MarkPaid(context.Context, Actor, string) (CommissionResponse, error) {
	return CommissionResponse{}, nil
}

func (s *fakeCommissionService) DeleteCommission(context.Context, Actor, string) error {
	return nil
}

type fakeHub struct {
	events []string
}

func (h *fakeHub) BroadcastEvent(event string, _ map[string]interface{}) {
	h.events = append(h.events, event)
}

// --- fixtures ---

type paymentFixture struct {
	svc         PaymentService
	payments    *fakePaymentRepo
	invoices    *fakeInvoiceRepo
	audit       *fakeAuditRepo
	commissions *fakeCommissionService
	hub         *fakeHub
	invoice     *model.Invoice
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	invoice := &model.Invoice{
		ID:          uuid.New(),
		OrderID:     uuid.New(),
		InvoiceNo:   "INV-20260901-001",
		Status:      model.InvoiceStatusPending,
		TotalAmount: dec("190.80"),
	}
	f := &paymentFixture{
		payments:    newFakePaymentRepo(),
		invoices:    newFakeInvoiceRepo(invoice),
		audit:       &fakeAuditRepo{},
		commissions: &fakeCommissionService{},
		hub:         &fakeHub{},
		invoice:     invoice,
	}
	f.svc = NewPaymentService(f.payments, f.invoices, f.audit, f.commissions, fakeTxManager{}, f.hub)
	return f
}

func (f *paymentFixture) createPending(t *testing.T, billRef string) PaymentResponse {
	t.Helper()
	res, err := f.svc.CreatePayment(context.Background(), Actor{Role: model.RoleStaff}, CreatePaymentRequest{
		InvoiceID:     f.invoice.ID.String(),
		Amount:        "190.80",
		Method:        "fpx",
		BillReference: billRef,
	})
	if err != nil {
		t.Fatalf("CreatePayment() error = %v", err)
	}
	return res
}

// --- tests ---

func TestCreatePaymentReturnsExistingForSameBillReference(t *testing.T) {
	f := newPaymentFixture(t)

	first := f.createPending(t, "bill-001")
	second := f.createPending(t, "bill-001")

	if first.ID != second.ID {
		t.Errorf("duplicate bill reference created a new payment: %s vs %s", first.ID, second.ID)
	}
	if len(f.payments.payments) != 1 {
		t.Errorf("stored %d payments, want 1", len(f.payments.payments))
	}
}

func TestCreatePaymentRejectsSettledInvoice(t *testing.T) {
	f := newPaymentFixture(t)
	f.invoice.Status = model.InvoiceStatusPaid

	_, err := f.svc.CreatePayment(context.Background(), Actor{Role: model.RoleStaff}, CreatePaymentRequest{
		InvoiceID:     f.invoice.ID.String(),
		Amount:        "50",
		Method:        "cash",
		BillReference: "bill-002",
	})
	e := apperr.From(err)
	if e == nil || e.Reason != apperr.ReasonInvoicePaid {
		t.Fatalf("CreatePayment() error = %v, want %s conflict", err, apperr.ReasonInvoicePaid)
	}
}

func TestWebhookSuccessSettlesEverything(t *testing.T) {
	f := newPaymentFixture(t)
	f.createPending(t, "bill-001")

	res, err := f.svc.HandleGatewayWebhook(context.Background(), GatewayWebhookRequest{
		BillReference: "bill-001",
		Status:        model.GatewayResultSuccess,
		TransactionID: "txn-abc",
	})
	if err != nil {
		t.Fatalf("HandleGatewayWebhook() error = %v", err)
	}

	if res.Status != model.PaymentStatusCompleted {
		t.Errorf("payment status = %s, want completed", res.Status)
	}
	if res.PaidAt == nil {
		t.Error("PaidAt not set on settled payment")
	}
	if res.TransactionID != "txn-abc" {
		t.Errorf("transaction id = %s, want txn-abc", res.TransactionID)
	}
	if f.invoice.Status != model.InvoiceStatusPaid {
		t.Errorf("invoice status = %s, want paid", f.invoice.Status)
	}
	if f.commissions.createCalls != 1 {
		t.Errorf("commission created %d times, want 1", f.commissions.createCalls)
	}
	if len(f.audit.entries) != 1 || f.audit.entries[0].Action != model.ActionSettlePayment {
		t.Errorf("audit entries = %+v, want one settle action", f.audit.entries)
	}
	if len(f.hub.events) != 1 || f.hub.events[0] != "invoice.paid" {
		t.Errorf("broadcast events = %v, want [invoice.paid]", f.hub.events)
	}
}

func TestWebhookReplayDoesNotSettleTwice(t *testing.T) {
	f := newPaymentFixture(t)
	f.createPending(t, "bill-001")

	req := GatewayWebhookRequest{
		BillReference: "bill-001",
		Status:        model.GatewayResultSuccess,
		TransactionID: "txn-abc",
	}
	if _, err := f.svc.HandleGatewayWebhook(context.Background(), req); err != nil {
		t.Fatalf("first webhook error = %v", err)
	}
	res, err := f.svc.HandleGatewayWebhook(context.Background(), req)
	if err != nil {
		t.Fatalf("replayed webhook error = %v", err)
	}

	if res.Status != model.PaymentStatusCompleted {
		t.Errorf("replay returned status %s, want completed", res.Status)
	}
	if f.commissions.createCalls != 1 {
		t.Errorf("commission created %d times across replay, want 1", f.commissions.createCalls)
	}
	if f.invoices.statusUpdates != 1 {
		t.Errorf("invoice status updated %d times, want 1", f.invoices.statusUpdates)
	}
	if len(f.audit.entries) != 1 {
		t.Errorf("audit entries = %d, want 1", len(f.audit.entries))
	}
}

func TestWebhookFailureIsTerminal(t *testing.T) {
	f := newPaymentFixture(t)
	f.createPending(t, "bill-001")

	res, err := f.svc.HandleGatewayWebhook(context.Background(), GatewayWebhookRequest{
		BillReference: "bill-001",
		Status:        model.GatewayResultFailed,
	})
	if err != nil {
		t.Fatalf("failure webhook error = %v", err)
	}
	if res.Status != model.PaymentStatusFailed {
		t.Errorf("payment status = %s, want failed", res.Status)
	}

	// A late success for the same bill must not resurrect the payment.
	res, err = f.svc.HandleGatewayWebhook(context.Background(), GatewayWebhookRequest{
		BillReference: "bill-001",
		Status:        model.GatewayResultSuccess,
		TransactionID: "txn-late",
	})
	if err != nil {
		t.Fatalf("late success webhook error = %v", err)
	}
	if res.Status != model.PaymentStatusFailed {
		t.Errorf("payment status after late success = %s, want failed", res.Status)
	}
	if f.commissions.createCalls != 0 {
		t.Errorf("commission created %d times, want 0", f.commissions.createCalls)
	}
	if f.invoice.Status != model.InvoiceStatusPending {
		t.Errorf("invoice status = %s, want pending", f.invoice.Status)
	}
}

func TestWebhookPendingIsNoOp(t *testing.T) {
	f := newPaymentFixture(t)
	f.createPending(t, "bill-001")

	res, err := f.svc.HandleGatewayWebhook(context.Background(), GatewayWebhookRequest{
		BillReference: "bill-001",
		Status:        model.GatewayResultPending,
	})
	if err != nil {
		t.Fatalf("pending webhook error = %v", err)
	}
	if res.Status != model.PaymentStatusPending {
		t.Errorf("payment status = %s, want pending", res.Status)
	}
}

func TestWebhookUnknownBillReference(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.svc.HandleGatewayWebhook(context.Background(), GatewayWebhookRequest{
		BillReference: "no-such-bill",
		Status:        model.GatewayResultSuccess,
	})
	e := apperr.From(err)
	if e == nil || e.Kind != apperr.KindNotFound {
		t.Fatalf("HandleGatewayWebhook() error = %v, want not found", err)
	}
}
