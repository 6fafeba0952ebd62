package service

import (
	"context"
	"testing"

	"carpetcare/internal/apperr"
	"carpetcare/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// fakeCatalogRepo serves tax settings from memory. The rest of the catalog
// is not consulted by invoice generation.
type fakeCatalogRepo struct {
	taxSettings map[uuid.UUID]*model.TaxSetting
}

func newFakeCatalogRepo(settings ...*model.TaxSetting) *fakeCatalogRepo {
	r := &fakeCatalogRepo{taxSettings: map[uuid.UUID]*model.TaxSetting{}}
	for _, ts := range settings {
		r.taxSettings[ts.ID] = ts
	}
	return r
}

func (r *fakeCatalogRepo) FindTaxSettingByID(_ context.Context, id uuid.UUID) (*model.TaxSetting, error) {
	ts, ok := r.taxSettings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *ts
	return &cp, nil
}

func (r *fakeCatalogRepo) CreateTaxSetting(context.Context, *model.TaxSetting) error { return nil }

func (r *fakeCatalogRepo) ListTaxSettings(context.Context) ([]model.TaxSetting, error) {
	return nil, nil
}

func (r *fakeCatalogRepo) UpdateTaxSetting(context.Context, *model.TaxSetting) error { return nil }

func (r *fakeCatalogRepo) CreateCarpetType(context.Context, *model.CarpetType) error { return nil }

func (r *fakeCatalogRepo) FindCarpetTypeByID(context.Context, uuid.UUID) (*model.CarpetType, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCatalogRepo) ListCarpetTypes(context.Context, int, int) ([]model.CarpetType, int64, error) {
	return nil, 0, nil
}

func (r *fakeCatalogRepo) UpdateCarpetType(context.Context, *model.CarpetType) error { return nil }

func (r *fakeCatalogRepo) DeleteCarpetType(context.Context, uuid.UUID) error { return nil }

func (r *fakeCatalogRepo) CreateAddonService(context.Context, *model.AddonService) error { return nil }

func (r *fakeCatalogRepo) FindAddonServiceByID(context.Context, uuid.UUID) (*model.AddonService, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCatalogRepo) ListAddonServices(context.Context, bool, int, int) ([]model.AddonService, int64, error) {
	return nil, 0, nil
}

func (r *fakeCatalogRepo) UpdateAddonService(context.Context, *model.AddonService) error { return nil }

func (r *fakeCatalogRepo) DeleteAddonService(context.Context, uuid.UUID) error { return nil }

func (r *fakeCatalogRepo) CreateCommissionType(context.Context, *model.CommissionType) error {
	return nil
}

func (r *fakeCatalogRepo) FindCommissionTypeByID(context.Context, uuid.UUID) (*model.CommissionType, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCatalogRepo) ListCommissionTypes(context.Context, int, int) ([]model.CommissionType, int64, error) {
	return nil, 0, nil
}

func (r *fakeCatalogRepo) UpdateCommissionType(context.Context, *model.CommissionType) error {
	return nil
}

func (r *fakeCatalogRepo) DeleteCommissionType(context.Context, uuid.UUID) error { return nil }

// --- fixture ---

type invoiceFixture struct {
	svc      InvoiceService
	orders   *fakeOrderRepo
	invoices *fakeInvoiceRepo
	catalog  *fakeCatalogRepo
	audit    *fakeAuditRepo
	hub      *fakeHub
}

func newInvoiceFixture(t *testing.T, orders ...*model.Order) *invoiceFixture {
	t.Helper()
	f := &invoiceFixture{
		orders:   newFakeOrderRepo(orders...),
		invoices: newFakeInvoiceRepo(),
		catalog:  newFakeCatalogRepo(),
		audit:    &fakeAuditRepo{},
		hub:      &fakeHub{},
	}
	f.svc = NewInvoiceService(f.invoices, f.orders, f.catalog, f.audit, &fakeAllocator{}, fakeTxManager{}, f.hub)
	return f
}

func cleanedOrder() *model.Order {
	return &model.Order{
		ID:          uuid.New(),
		ReferenceNo: "ORD-20260901-010",
		ClientID:    uuid.New(),
		Status:      model.OrderStatusCleaned,
		Carpets:     []model.Carpet{fixedCarpet("120")},
	}
}

// --- tests ---

func TestGenerateInvoiceAdvancesOrder(t *testing.T) {
	order := cleanedOrder()
	f := newInvoiceFixture(t, order)
	actorID := uuid.New()

	res, err := f.svc.GenerateInvoice(context.Background(), Actor{UserID: &actorID, Role: model.RoleStaff}, order.ID.String(), GenerateInvoiceRequest{})
	if err != nil {
		t.Fatalf("GenerateInvoice() error = %v", err)
	}
	if res.InvoiceNo != "INV-20260901-001" {
		t.Errorf("InvoiceNo = %s, want INV-20260901-001", res.InvoiceNo)
	}
	if res.Status != model.InvoiceStatusPending {
		t.Errorf("invoice status = %s, want pending", res.Status)
	}

	if f.orders.orders[order.ID].Status != model.OrderStatusInvoiced {
		t.Errorf("order status = %s, want invoiced", f.orders.orders[order.ID].Status)
	}
	if len(f.orders.history) != 1 {
		t.Fatalf("history has %d hops, want 1", len(f.orders.history))
	}
	hop := f.orders.history[0]
	if hop.OldStatus != model.OrderStatusCleaned || hop.NewStatus != model.OrderStatusInvoiced {
		t.Errorf("hop = %s->%s, want cleaned->invoiced", hop.OldStatus, hop.NewStatus)
	}

	if len(f.audit.entries) != 1 || f.audit.entries[0].Action != model.ActionGenerateInvoice {
		t.Errorf("audit entries = %+v, want one generate action", f.audit.entries)
	}
	if len(f.hub.events) != 1 || f.hub.events[0] != "invoice.created" {
		t.Errorf("broadcast events = %v, want [invoice.created]", f.hub.events)
	}
}

func TestGenerateInvoiceLeavesCompletedOrderAlone(t *testing.T) {
	order := cleanedOrder()
	order.Status = model.OrderStatusCompleted
	f := newInvoiceFixture(t, order)
	actorID := uuid.New()

	_, err := f.svc.GenerateInvoice(context.Background(), Actor{UserID: &actorID, Role: model.RoleStaff}, order.ID.String(), GenerateInvoiceRequest{})
	if err != nil {
		t.Fatalf("GenerateInvoice() error = %v", err)
	}
	if f.orders.orders[order.ID].Status != model.OrderStatusCompleted {
		t.Errorf("order status = %s, want completed untouched", f.orders.orders[order.ID].Status)
	}
	if len(f.orders.history) != 0 {
		t.Errorf("history has %d hops, want none", len(f.orders.history))
	}
}

func TestRegenerateInvoiceRefusedWithPayments(t *testing.T) {
	order := cleanedOrder()
	f := newInvoiceFixture(t, order)
	previous := &model.Invoice{
		ID:        uuid.New(),
		OrderID:   order.ID,
		InvoiceNo: "INV-20260901-001",
		Status:    model.InvoiceStatusPending,
	}
	f.invoices.invoices[previous.ID] = previous
	f.invoices.payments = map[uuid.UUID]int64{previous.ID: 1}
	actorID := uuid.New()

	_, err := f.svc.RegenerateInvoice(context.Background(), Actor{UserID: &actorID, Role: model.RoleAdmin}, order.ID.String(), GenerateInvoiceRequest{})
	e := apperr.From(err)
	if e == nil || e.Reason != apperr.ReasonHasPayments {
		t.Fatalf("expected has_payments conflict, got %v", err)
	}

	if previous.Status != model.InvoiceStatusPending {
		t.Errorf("previous invoice status = %s, want pending untouched", previous.Status)
	}
	if len(f.invoices.invoices) != 1 {
		t.Errorf("stored invoices = %d, want 1", len(f.invoices.invoices))
	}
}

func TestRegenerateInvoiceCancelsPreviousAndIssuesNew(t *testing.T) {
	order := cleanedOrder()
	f := newInvoiceFixture(t, order)
	previous := &model.Invoice{
		ID:        uuid.New(),
		OrderID:   order.ID,
		InvoiceNo: "INV-20260831-007",
		Status:    model.InvoiceStatusPending,
	}
	f.invoices.invoices[previous.ID] = previous
	actorID := uuid.New()

	res, err := f.svc.RegenerateInvoice(context.Background(), Actor{UserID: &actorID, Role: model.RoleAdmin}, order.ID.String(), GenerateInvoiceRequest{})
	if err != nil {
		t.Fatalf("RegenerateInvoice() error = %v", err)
	}
	if res.InvoiceNo != "INV-20260901-001" {
		t.Errorf("InvoiceNo = %s, want INV-20260901-001", res.InvoiceNo)
	}
	if res.Status != model.InvoiceStatusPending {
		t.Errorf("new invoice status = %s, want pending", res.Status)
	}

	if previous.Status != model.InvoiceStatusCancelled {
		t.Errorf("previous invoice status = %s, want cancelled", previous.Status)
	}
	if len(f.invoices.invoices) != 2 {
		t.Errorf("stored invoices = %d, want 2", len(f.invoices.invoices))
	}
	if len(f.audit.entries) != 1 || f.audit.entries[0].Action != model.ActionRegenerateInvoice {
		t.Errorf("audit entries = %+v, want one regenerate action", f.audit.entries)
	}
	if len(f.hub.events) != 1 || f.hub.events[0] != "invoice.regenerated" {
		t.Errorf("broadcast events = %v, want [invoice.regenerated]", f.hub.events)
	}
}
