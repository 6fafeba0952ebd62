package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"carpetcare/internal/apperr"
	"carpetcare/internal/model"
	"carpetcare/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- in-memory fakes ---

type fakeOrderRepo struct {
	orders  map[uuid.UUID]*model.Order
	history []model.OrderStatusHistory
}

func newFakeOrderRepo(orders ...*model.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{orders: map[uuid.UUID]*model.Order{}}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *fakeOrderRepo) Create(_ context.Context, o *model.Order) error {
	for _, existing := range r.orders {
		if existing.ReferenceNo == o.ReferenceNo {
			return gorm.ErrDuplicatedKey
		}
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.CreatedAt = time.Now()
	r.orders[o.ID] = o
	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) FindByIDWithCarpets(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeOrderRepo) List(context.Context, repository.OrderListFilter) ([]model.Order, int64, error) {
	return nil, 0, nil
}

func (r *fakeOrderRepo) Update(_ context.Context, o *model.Order) error {
	r.orders[o.ID] = o
	return nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	o, ok := r.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.Status = status
	return nil
}

func (r *fakeOrderRepo) SetAgent(_ context.Context, id uuid.UUID, agentID *uuid.UUID, status string) error {
	o, ok := r.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.AgentID = agentID
	o.Status = status
	return nil
}

func (r *fakeOrderRepo) AppendHistory(_ context.Context, entry *model.OrderStatusHistory) error {
	r.history = append(r.history, *entry)
	return nil
}

func (r *fakeOrderRepo) ListHistory(_ context.Context, orderID uuid.UUID) ([]model.OrderStatusHistory, error) {
	var out []model.OrderStatusHistory
	for _, h := range r.history {
		if h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out, nil
}

type fakeCarpetRepo struct {
	carpets map[uuid.UUID]*model.Carpet
}

func newFakeCarpetRepo() *fakeCarpetRepo {
	return &fakeCarpetRepo{carpets: map[uuid.UUID]*model.Carpet{}}
}

func (r *fakeCarpetRepo) Create(_ context.Context, c *model.Carpet) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.carpets[c.ID] = c
	return nil
}

func (r *fakeCarpetRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Carpet, error) {
	c, ok := r.carpets[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCarpetRepo) FindByOrderID(_ context.Context, orderID uuid.UUID) ([]model.Carpet, error) {
	var out []model.Carpet
	for _, c := range r.carpets {
		if c.OrderID == orderID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCarpetRepo) Update(_ context.Context, c *model.Carpet) error {
	r.carpets[c.ID] = c
	return nil
}

func (r *fakeCarpetRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.carpets, id)
	return nil
}

func (r *fakeCarpetRepo) UpdateStatusByOrder(_ context.Context, orderID uuid.UUID, status string) error {
	for _, c := range r.carpets {
		if c.OrderID == orderID {
			c.Status = status
		}
	}
	return nil
}

func (r *fakeCarpetRepo) CountByOrder(_ context.Context, orderID uuid.UUID) (int64, error) {
	var n int64
	for _, c := range r.carpets {
		if c.OrderID == orderID {
			n++
		}
	}
	return n, nil
}

func (r *fakeCarpetRepo) AttachAddon(context.Context, *model.CarpetAddonService) error { return nil }

func (r *fakeCarpetRepo) DetachAddon(context.Context, uuid.UUID, uuid.UUID) error { return nil }

type fakeAgentRepo struct {
	agents map[uuid.UUID]*model.Agent
}

func newFakeAgentRepo(agents ...*model.Agent) *fakeAgentRepo {
	r := &fakeAgentRepo{agents: map[uuid.UUID]*model.Agent{}}
	for _, a := range agents {
		r.agents[a.ID] = a
	}
	return r
}

func (r *fakeAgentRepo) Create(_ context.Context, a *model.Agent) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.agents[a.ID] = a
	return nil
}

func (r *fakeAgentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Agent, error) {
	a, ok := r.agents[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAgentRepo) FindByIDWithCommissionTypes(ctx context.Context, id uuid.UUID) (*model.Agent, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeAgentRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*model.Agent, error) {
	for _, a := range r.agents {
		if a.UserID == userID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAgentRepo) List(context.Context, int, int) ([]model.Agent, int64, error) {
	return nil, 0, nil
}

func (r *fakeAgentRepo) Update(_ context.Context, a *model.Agent) error {
	r.agents[a.ID] = a
	return nil
}

func (r *fakeAgentRepo) AttachCommissionType(context.Context, *model.AgentCommissionType) error {
	return nil
}

func (r *fakeAgentRepo) UpdateCommissionTypeLink(context.Context, *model.AgentCommissionType) error {
	return nil
}

func (r *fakeAgentRepo) DetachCommissionType(context.Context, uuid.UUID, uuid.UUID) error {
	return nil
}

func (r *fakeAgentRepo) FindGlobalDefaultCommissionType(context.Context) (*model.CommissionType, error) {
	return nil, gorm.ErrRecordNotFound
}

type fakeAllocator struct {
	n int
}

func (a *fakeAllocator) Next(_ context.Context, prefix string) (string, error) {
	a.n++
	return fmt.Sprintf("%s-20260901-%03d", prefix, a.n), nil
}

// --- fixtures ---

type orderFixture struct {
	svc     OrderService
	orders  *fakeOrderRepo
	carpets *fakeCarpetRepo
	agents  *fakeAgentRepo
	audit   *fakeAuditRepo
	hub     *fakeHub
}

func newOrderFixture(t *testing.T, orders ...*model.Order) *orderFixture {
	t.Helper()
	f := &orderFixture{
		orders:  newFakeOrderRepo(orders...),
		carpets: newFakeCarpetRepo(),
		agents:  newFakeAgentRepo(),
		audit:   &fakeAuditRepo{},
		hub:     &fakeHub{},
	}
	f.svc = NewOrderService(f.orders, f.carpets, f.agents, f.audit, &fakeAllocator{}, fakeTxManager{}, f.hub)
	return f
}

// --- tests ---

func TestCreateOrderAllocatesReference(t *testing.T) {
	f := newOrderFixture(t)
	actorID := uuid.New()

	res, err := f.svc.CreateOrder(context.Background(), Actor{UserID: &actorID, Role: model.RoleStaff}, CreateOrderRequest{
		ClientID: uuid.NewString(),
		Notes:    "two wool carpets",
	})
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	if res.ReferenceNo != "ORD-20260901-001" {
		t.Errorf("ReferenceNo = %s, want ORD-20260901-001", res.ReferenceNo)
	}
	if res.Status != model.OrderStatusPending {
		t.Errorf("Status = %s, want pending", res.Status)
	}
	if len(f.audit.entries) != 1 || f.audit.entries[0].Action != model.ActionCreateOrder {
		t.Errorf("audit entries = %+v, want one create action", f.audit.entries)
	}
}

func TestCreateOrderRetriesCollidingReference(t *testing.T) {
	// A stale counter hands out a number that is already taken, as happens
	// when the fast counter drops out mid-day and the fallback restarts low.
	taken := &model.Order{
		ID:          uuid.New(),
		ReferenceNo: "ORD-20260901-001",
		ClientID:    uuid.New(),
		Status:      model.OrderStatusCompleted,
	}
	f := newOrderFixture(t, taken)
	actorID := uuid.New()

	res, err := f.svc.CreateOrder(context.Background(), Actor{UserID: &actorID, Role: model.RoleStaff}, CreateOrderRequest{
		ClientID: uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	if res.ReferenceNo != "ORD-20260901-002" {
		t.Errorf("ReferenceNo = %s, want ORD-20260901-002 after collision", res.ReferenceNo)
	}
	if len(f.orders.orders) != 2 {
		t.Errorf("stored orders = %d, want 2", len(f.orders.orders))
	}
	if len(f.audit.entries) != 1 {
		t.Errorf("audit entries = %d, want 1", len(f.audit.entries))
	}
}

func TestAssignAgentAdvancesPendingOrder(t *testing.T) {
	agent := &model.Agent{ID: uuid.New(), UserID: uuid.New(), Status: model.AgentStatusActive}
	order := &model.Order{ID: uuid.New(), ReferenceNo: "ORD-20260901-001", ClientID: uuid.New(), Status: model.OrderStatusPending}

	f := newOrderFixture(t, order)
	f.agents.agents[agent.ID] = agent
	actorID := uuid.New()

	res, err := f.svc.AssignAgent(context.Background(), Actor{UserID: &actorID, Role: model.RoleAdmin}, order.ID.String(), agent.ID.String())
	if err != nil {
		t.Fatalf("AssignAgent() error = %v", err)
	}
	if res.Status != model.OrderStatusAssigned {
		t.Errorf("Status = %s, want assigned", res.Status)
	}
	if res.AgentID == nil || *res.AgentID != agent.ID.String() {
		t.Errorf("AgentID = %v, want %s", res.AgentID, agent.ID)
	}
	if len(f.orders.history) != 1 || f.orders.history[0].NewStatus != model.OrderStatusAssigned {
		t.Errorf("history = %+v, want one pending->assigned hop", f.orders.history)
	}
}

func TestAgentRejectionReturnsOrderToPool(t *testing.T) {
	agentID := uuid.New()
	agentUserID := uuid.New()
	order := &model.Order{
		ID:          uuid.New(),
		ReferenceNo: "ORD-20260901-002",
		ClientID:    uuid.New(),
		AgentID:     &agentID,
		Status:      model.OrderStatusAssigned,
	}

	f := newOrderFixture(t, order)

	res, err := f.svc.TransitionStatus(context.Background(), Actor{UserID: &agentUserID, Role: model.RoleAgent}, order.ID.String(), model.OrderStatusAgentRejected)
	if err != nil {
		t.Fatalf("TransitionStatus() error = %v", err)
	}

	if res.Status != model.OrderStatusPending {
		t.Errorf("Status = %s, want pending after rejection", res.Status)
	}
	if res.AgentID != nil {
		t.Errorf("AgentID = %v, want cleared", res.AgentID)
	}

	stored := f.orders.orders[order.ID]
	if stored.AgentID != nil || stored.Status != model.OrderStatusPending {
		t.Errorf("stored order = agent %v status %s, want unassigned pending", stored.AgentID, stored.Status)
	}

	if len(f.orders.history) != 2 {
		t.Fatalf("history has %d hops, want 2", len(f.orders.history))
	}
	first, second := f.orders.history[0], f.orders.history[1]
	if first.OldStatus != model.OrderStatusAssigned || first.NewStatus != model.OrderStatusAgentRejected {
		t.Errorf("first hop = %s->%s, want assigned->agent_rejected", first.OldStatus, first.NewStatus)
	}
	if second.OldStatus != model.OrderStatusAgentRejected || second.NewStatus != model.OrderStatusPending {
		t.Errorf("second hop = %s->%s, want agent_rejected->pending", second.OldStatus, second.NewStatus)
	}
	if first.ActorRole != model.RoleAgent {
		t.Errorf("hop actor role = %s, want agent", first.ActorRole)
	}
}

func TestTransitionRecordsSingleHop(t *testing.T) {
	order := &model.Order{
		ID:          uuid.New(),
		ReferenceNo: "ORD-20260901-003",
		ClientID:    uuid.New(),
		Status:      model.OrderStatusAgentAccepted,
	}
	f := newOrderFixture(t, order)
	actorID := uuid.New()

	res, err := f.svc.TransitionStatus(context.Background(), Actor{UserID: &actorID, Role: model.RoleAgent}, order.ID.String(), model.OrderStatusPickedUp)
	if err != nil {
		t.Fatalf("TransitionStatus() error = %v", err)
	}
	if res.Status != model.OrderStatusPickedUp {
		t.Errorf("Status = %s, want picked_up", res.Status)
	}
	if len(f.orders.history) != 1 {
		t.Fatalf("history has %d hops, want 1", len(f.orders.history))
	}
	if len(f.hub.events) != 1 || f.hub.events[0] != "order.status_changed" {
		t.Errorf("broadcast events = %v, want [order.status_changed]", f.hub.events)
	}
}

func TestBulkCarpetStatusRefusedOnClosedOrder(t *testing.T) {
	order := &model.Order{
		ID:          uuid.New(),
		ReferenceNo: "ORD-20260901-005",
		ClientID:    uuid.New(),
		Status:      model.OrderStatusCanceled,
	}
	f := newOrderFixture(t, order)
	carpet := &model.Carpet{ID: uuid.New(), OrderID: order.ID, Status: model.CarpetStatusPickedUp}
	f.carpets.carpets[carpet.ID] = carpet
	actorID := uuid.New()

	_, err := f.svc.BulkUpdateCarpetStatus(context.Background(), Actor{UserID: &actorID, Role: model.RoleStaff}, order.ID.String(), model.CarpetStatusDelivered)
	e := apperr.From(err)
	if e == nil || e.Reason != apperr.ReasonOrderLocked {
		t.Fatalf("expected order_locked conflict, got %v", err)
	}

	if f.orders.orders[order.ID].Status != model.OrderStatusCanceled {
		t.Errorf("order status = %s, want canceled untouched", f.orders.orders[order.ID].Status)
	}
	if f.carpets.carpets[carpet.ID].Status != model.CarpetStatusPickedUp {
		t.Errorf("carpet status = %s, want picked_up untouched", f.carpets.carpets[carpet.ID].Status)
	}
	if len(f.orders.history) != 0 {
		t.Errorf("history has %d hops, want none", len(f.orders.history))
	}
}

func TestBulkCarpetStatusPropagatesToOrder(t *testing.T) {
	order := &model.Order{
		ID:          uuid.New(),
		ReferenceNo: "ORD-20260901-004",
		ClientID:    uuid.New(),
		Status:      model.OrderStatusPickedUp,
	}
	f := newOrderFixture(t, order)
	for i := 0; i < 2; i++ {
		c := &model.Carpet{ID: uuid.New(), OrderID: order.ID, Status: model.CarpetStatusPickedUp}
		f.carpets.carpets[c.ID] = c
	}
	actorID := uuid.New()

	res, err := f.svc.BulkUpdateCarpetStatus(context.Background(), Actor{UserID: &actorID, Role: model.RoleStaff}, order.ID.String(), model.CarpetStatusInCleaning)
	if err != nil {
		t.Fatalf("BulkUpdateCarpetStatus() error = %v", err)
	}
	if res.Status != model.OrderStatusInCleaning {
		t.Errorf("order status = %s, want in_cleaning after uniform carpet update", res.Status)
	}
	for _, c := range f.carpets.carpets {
		if c.Status != model.CarpetStatusInCleaning {
			t.Errorf("carpet status = %s, want in_cleaning", c.Status)
		}
	}
}
