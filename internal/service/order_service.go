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
	"gorm.io/gorm"
)

// maxNumberAttempts bounds how often a create is retried after the
// allocated reference number collides with the unique index.
const maxNumberAttempts = 3

// Actor identifies who is performing an operation. It is threaded explicitly
// through every state-changing call; there is no ambient current-user.
type Actor struct {
	UserID *uuid.UUID
	Role   string
}

// EventBroadcaster pushes fire-and-forget events to connected clients after
// a transaction commits. Failures never roll anything back.
type EventBroadcaster interface {
	BroadcastEvent(event string, data map[string]interface{})
}

// agentTransitions is the only transition table agents may move along.
// Anything not listed here is an invalid transition for the agent role.
var agentTransitions = map[string][]string{
	model.OrderStatusAwaitingAgent: {model.OrderStatusAgentAccepted, model.OrderStatusAgentRejected},
	model.OrderStatusAssigned:      {model.OrderStatusAgentAccepted, model.OrderStatusAgentRejected},
	model.OrderStatusAgentAccepted: {model.OrderStatusPickedUp},
	model.OrderStatusPickedUp:      {model.OrderStatusInCleaning},
	model.OrderStatusInCleaning:    {model.OrderStatusCleaned},
	model.OrderStatusCleaned:       {model.OrderStatusDelivered},
	model.OrderStatusDelivered:     {model.OrderStatusCompleted},
}

// terminal statuses lock the order against any further change.
func isTerminalStatus(s string) bool {
	return s == model.OrderStatusCompleted || s == model.OrderStatusCanceled
}

// ValidateTransition checks whether role may move an order from one status to
// another. Staff and admin may set any status unless the order is terminal;
// agents follow the transition table; clients cannot change status at all.
func ValidateTransition(role, from, to string) error {
	if !model.IsValidOrderStatus(to) {
		return apperr.Validation(apperr.ReasonInvalidInput, fmt.Sprintf("unknown order status %q", to))
	}

	switch role {
	case model.RoleAdmin, model.RoleStaff:
		if isTerminalStatus(from) {
			return apperr.Conflict(apperr.ReasonOrderLocked, fmt.Sprintf("order is %s and can no longer change", from))
		}
		return nil
	case model.RoleAgent:
		for _, allowed := range agentTransitions[from] {
			if allowed == to {
				return nil
			}
		}
		return apperr.Conflict(apperr.ReasonInvalidTransition, fmt.Sprintf("agent cannot move order from %s to %s", from, to))
	default:
		return apperr.Permission(apperr.ReasonForbidden, "role may not change order status")
	}
}

// EligibleForInvoice reports whether the order may be invoiced: at least one
// carpet, no live invoice, and a status past HQ inspection.
func EligibleForInvoice(order *model.Order) error {
	if len(order.Carpets) == 0 {
		return apperr.Conflict(apperr.ReasonNoCarpets, "order has no carpets to invoice")
	}
	if order.Invoice != nil && order.Invoice.Status != model.InvoiceStatusCancelled {
		return apperr.Conflict(apperr.ReasonAlreadyInvoiced, "order already has an invoice")
	}
	switch order.Status {
	case model.OrderStatusHQInspection, model.OrderStatusCleaned, model.OrderStatusDelivered, model.OrderStatusCompleted:
		return nil
	}
	return apperr.Conflict(apperr.ReasonNotEligibleStatus, fmt.Sprintf("order status %s is not eligible for invoicing", order.Status))
}

// --- DTOs ---

type CreateOrderRequest struct {
	ClientID          string  `json:"client_id" binding:"required"`
	PickupDate        *string `json:"pickup_date"`
	DeliveryDate      *string `json:"delivery_date"`
	PickupAddressID   *string `json:"pickup_address_id"`
	DeliveryAddressID *string `json:"delivery_address_id"`
	Notes             string  `json:"notes"`
}

// UpdateOrderRequest carries the fields a client may edit while the order is
// still pending or assigned.
type UpdateOrderRequest struct {
	PickupDate        *string `json:"pickup_date"`
	DeliveryDate      *string `json:"delivery_date"`
	PickupAddressID   *string `json:"pickup_address_id"`
	DeliveryAddressID *string `json:"delivery_address_id"`
	Notes             *string `json:"notes"`
}

type OrderFilter struct {
	Status   string
	ClientID string
	AgentID  string
	Page     int
	Limit    int
}

type StatusHistoryResponse struct {
	OldStatus string  `json:"old_status"`
	NewStatus string  `json:"new_status"`
	ChangedBy *string `json:"changed_by"`
	ActorRole string  `json:"actor_role"`
	ChangedAt string  `json:"changed_at"`
}

type OrderResponse struct {
	ID           string                  `json:"id"`
	ReferenceNo  string                  `json:"reference_no"`
	ClientID     string                  `json:"client_id"`
	AgentID      *string                 `json:"agent_id"`
	Status       string                  `json:"status"`
	PickupDate   *string                 `json:"pickup_date"`
	DeliveryDate *string                 `json:"delivery_date"`
	CarpetCount  int                     `json:"carpet_count"`
	Notes        string                  `json:"notes"`
	Carpets      []CarpetResponse        `json:"carpets,omitempty"`
	History      []StatusHistoryResponse `json:"history,omitempty"`
	CreatedAt    string                  `json:"created_at"`
}

// --- Interface ---

type OrderService interface {
	CreateOrder(ctx context.Context, actor Actor, req CreateOrderRequest) (OrderResponse, error)
	GetOrder(ctx context.Context, id string) (OrderResponse, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]OrderResponse, int64, error)
	UpdateOrder(ctx context.Context, actor Actor, id string, req UpdateOrderRequest) (OrderResponse, error)
	AssignAgent(ctx context.Context, actor Actor, orderID, agentID string) (OrderResponse, error)
	TransitionStatus(ctx context.Context, actor Actor, orderID, newStatus string) (OrderResponse, error)
	BulkUpdateCarpetStatus(ctx context.Context, actor Actor, orderID, status string) (OrderResponse, error)
	GetHistory(ctx context.Context, orderID string) ([]StatusHistoryResponse, error)
}

type orderService struct {
	orderRepo  repository.OrderRepository
	carpetRepo repository.CarpetRepository
	agentRepo  repository.AgentRepository
	auditRepo  repository.AuditRepository
	allocator  repository.NumberAllocator
	txManager  repository.TransactionManager
	hub        EventBroadcaster
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	carpetRepo repository.CarpetRepository,
	agentRepo repository.AgentRepository,
	auditRepo repository.AuditRepository,
	allocator repository.NumberAllocator,
	txManager repository.TransactionManager,
	hub EventBroadcaster,
) OrderService {
	return &orderService{
		orderRepo:  orderRepo,
		carpetRepo: carpetRepo,
		agentRepo:  agentRepo,
		auditRepo:  auditRepo,
		allocator:  allocator,
		txManager:  txManager,
		hub:        hub,
	}
}

// --- Implementation ---

func (s *orderService) CreateOrder(ctx context.Context, actor Actor, req CreateOrderRequest) (OrderResponse, error) {
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return OrderResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid client_id")
	}

	order := model.Order{
		ClientID: clientID,
		Status:   model.OrderStatusPending,
		Notes:    req.Notes,
	}
	if order.PickupDate, err = parseOptionalDate(req.PickupDate); err != nil {
		return OrderResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid pickup_date")
	}
	if order.DeliveryDate, err = parseOptionalDate(req.DeliveryDate); err != nil {
		return OrderResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid delivery_date")
	}
	if order.PickupAddressID, err = parseOptionalUUID(req.PickupAddressID); err != nil {
		return OrderResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid pickup_address_id")
	}
	if order.DeliveryAddressID, err = parseOptionalUUID(req.DeliveryAddressID); err != nil {
		return OrderResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid delivery_address_id")
	}

	for attempt := 1; ; attempt++ {
		refNo, allocErr := s.allocator.Next(ctx, "ORD")
		if allocErr != nil {
			return OrderResponse{}, fmt.Errorf("failed to allocate order reference: %w", allocErr)
		}
		order.ReferenceNo = refNo

		err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			if createErr := s.orderRepo.Create(txCtx, &order); createErr != nil {
				return fmt.Errorf("failed to create order: %w", createErr)
			}

			details, _ := json.Marshal(req)
			audit := &model.AuditLog{
				UserID:     actor.UserID,
				Action:     model.ActionCreateOrder,
				EntityID:   order.ID.String(),
				EntityName: order.ReferenceNo,
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
			continue
		}
		return OrderResponse{}, err
	}

	return toOrderResponse(&order, false), nil
}

func (s *orderService) GetOrder(ctx context.Context, id string) (OrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return OrderResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid order id")
	}

	order, err := s.orderRepo.FindByIDWithCarpets(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OrderResponse{}, apperr.NotFound("order not found")
		}
		return OrderResponse{}, fmt.Errorf("database error: %w", err)
	}

	resp := toOrderResponse(order, true)
	history, err := s.orderRepo.ListHistory(ctx, orderID)
	if err == nil {
		resp.History = toHistoryResponses(history)
	}
	return resp, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderFilter) ([]OrderResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	repoFilter := repository.OrderListFilter{
		Status: filter.Status,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}
	if filter.ClientID != "" {
		id, err := uuid.Parse(filter.ClientID)
		if err != nil {
			return nil, 0, apperr.Validation(apperr.ReasonInvalidInput, "invalid client_id filter")
		}
		repoFilter.ClientID = &id
	}
	if filter.AgentID != "" {
		id, err := uuid.Parse(filter.AgentID)
		if err != nil {
			return nil, 0, apperr.Validation(apperr.ReasonInvalidInput, "invalid agent_id filter")
		}
		repoFilter.AgentID = &id
	}

	orders, total, err := s.orderRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	result := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		result = append(result, toOrderResponse(&orders[i], true))
	}
	return result, total, nil
}

// UpdateOrder lets clients edit pickup details and notes, but only while the
// order is still pending or assigned. Staff and admin may edit at any
// non-terminal point.
func (s *orderService) UpdateOrder(ctx context.Context, actor Actor, id string, req UpdateOrderRequest) (OrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return OrderResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid order id")
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OrderResponse{}, apperr.NotFound("order not found")
		}
		return OrderResponse{}, fmt.Errorf("database error: %w", err)
	}

	switch actor.Role {
	case model.RoleClient:
		if order.Status != model.OrderStatusPending && order.Status != model.OrderStatusAssigned {
			return OrderResponse{}, apperr.Conflict(apperr.ReasonOrderLocked, "order can no longer be edited by the client")
		}
	case model.RoleAdmin, model.RoleStaff:
		if isTerminalStatus(order.Status) {
			return OrderResponse{}, apperr.Conflict(apperr.ReasonOrderLocked, "order is closed")
		}
	default:
		return OrderResponse{}, apperr.Permission(apperr.ReasonForbidden, "role may not edit orders")
	}

	if req.PickupDate != nil {
		if order.PickupDate, err = parseOptionalDate(req.PickupDate); err != nil {
			return OrderResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid pickup_date")
		}
	}
	if req.DeliveryDate != nil {
		if order.DeliveryDate, err = parseOptionalDate(req.DeliveryDate); err != nil {
			return OrderResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid delivery_date")
		}
	}
	if req.PickupAddressID != nil {
		if order.PickupAddressID, err = parseOptionalUUID(req.PickupAddressID); err != nil {
			return OrderResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid pickup_address_id")
		}
	}
	if req.DeliveryAddressID != nil {
		if order.DeliveryAddressID, err = parseOptionalUUID(req.DeliveryAddressID); err != nil {
			return OrderResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid delivery_address_id")
		}
	}
	if req.Notes != nil {
		order.Notes = *req.Notes
	}

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return OrderResponse{}, fmt.Errorf("failed to update order: %w", err)
	}
	return toOrderResponse(order, false), nil
}

// AssignAgent sets or replaces the order's agent. Staff/admin only, refused
// once the order is terminal. Assignment moves a pending order to assigned.
func (s *orderService) AssignAgent(ctx context.Context, actor Actor, orderID, agentID string) (OrderResponse, error) {
	if actor.Role != model.RoleAdmin && actor.Role != model.RoleStaff {
		return OrderResponse{}, apperr.Permission(apperr.ReasonForbidden, "only staff may assign agents")
	}

	oid, err := uuid.Parse(orderID)
	if err != nil {
		return OrderResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid order id")
	}
	aid, err := uuid.Parse(agentID)
	if err != nil {
		return OrderResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid agent id")
	}

	order, err := s.orderRepo.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OrderResponse{}, apperr.NotFound("order not found")
		}
		return OrderResponse{}, fmt.Errorf("database error: %w", err)
	}
	if isTerminalStatus(order.Status) {
		return OrderResponse{}, apperr.Conflict(apperr.ReasonOrderLocked, "order is closed")
	}

	agent, err := s.agentRepo.FindByID(ctx, aid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OrderResponse{}, apperr.NotFound("agent not found")
		}
		return OrderResponse{}, fmt.Errorf("database error: %w", err)
	}

	oldStatus := order.Status
	newStatus := oldStatus
	if oldStatus == model.OrderStatusPending || oldStatus == model.OrderStatusAwaitingAgent {
		newStatus = model.OrderStatusAssigned
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if setErr := s.orderRepo.SetAgent(txCtx, oid, &agent.ID, newStatus); setErr != nil {
			return fmt.Errorf("failed to assign agent: %w", setErr)
		}
		if newStatus != oldStatus {
			entry := &model.OrderStatusHistory{
				OrderID:   oid,
				OldStatus: oldStatus,
				NewStatus: newStatus,
				ChangedBy: actor.UserID,
				ActorRole: actor.Role,
			}
			if histErr := s.orderRepo.AppendHistory(txCtx, entry); histErr != nil {
				return fmt.Errorf("failed to append status history: %w", histErr)
			}
		}

		details, _ := json.Marshal(map[string]string{"agent_id": agentID})
		audit := &model.AuditLog{
			UserID:     actor.UserID,
			Action:     model.ActionAssignAgent,
			EntityID:   order.ID.String(),
			EntityName: order.ReferenceNo,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return OrderResponse{}, err
	}

	order.AgentID = &agent.ID
	order.Status = newStatus
	s.broadcastOrderEvent("order.assigned", order)
	return toOrderResponse(order, false), nil
}

// TransitionStatus applies a role-checked status change atomically with its
// history record. An agent rejection clears the agent and returns the order
// to the unassigned pool as pending.
func (s *orderService) TransitionStatus(ctx context.Context, actor Actor, orderID, newStatus string) (OrderResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return OrderResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid order id")
	}

	order, err := s.orderRepo.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OrderResponse{}, apperr.NotFound("order not found")
		}
		return OrderResponse{}, fmt.Errorf("database error: %w", err)
	}

	if err := ValidateTransition(actor.Role, order.Status, newStatus); err != nil {
		return OrderResponse{}, err
	}

	oldStatus := order.Status
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if newStatus == model.OrderStatusAgentRejected {
			// Rejection returns the order to the pool: agent cleared, status
			// back to pending. Both hops are recorded so the audit trail
			// shows the rejection as well as the reset.
			if setErr := s.orderRepo.SetAgent(txCtx, oid, nil, model.OrderStatusPending); setErr != nil {
				return fmt.Errorf("failed to clear agent: %w", setErr)
			}
			hops := []model.OrderStatusHistory{
				{OrderID: oid, OldStatus: oldStatus, NewStatus: model.OrderStatusAgentRejected, ChangedBy: actor.UserID, ActorRole: actor.Role},
				{OrderID: oid, OldStatus: model.OrderStatusAgentRejected, NewStatus: model.OrderStatusPending, ChangedBy: actor.UserID, ActorRole: actor.Role},
			}
			for i := range hops {
				if histErr := s.orderRepo.AppendHistory(txCtx, &hops[i]); histErr != nil {
					return fmt.Errorf("failed to append status history: %w", histErr)
				}
			}
			order.AgentID = nil
			order.Status = model.OrderStatusPending
			return nil
		}

		if setErr := s.orderRepo.UpdateStatus(txCtx, oid, newStatus); setErr != nil {
			return fmt.Errorf("failed to update order status: %w", setErr)
		}
		entry := &model.OrderStatusHistory{
			OrderID:   oid,
			OldStatus: oldStatus,
			NewStatus: newStatus,
			ChangedBy: actor.UserID,
			ActorRole: actor.Role,
		}
		if histErr := s.orderRepo.AppendHistory(txCtx, entry); histErr != nil {
			return fmt.Errorf("failed to append status history: %w", histErr)
		}
		order.Status = newStatus
		return nil
	})
	if err != nil {
		return OrderResponse{}, err
	}

	s.broadcastOrderEvent("order.status_changed", order)
	return toOrderResponse(order, false), nil
}

// BulkUpdateCarpetStatus sets every carpet of the order to one status. When
// the update leaves all carpets sharing a status that is also a valid order
// status, the order follows. This propagation is best effort; nothing else keeps
// the two in sync.
func (s *orderService) BulkUpdateCarpetStatus(ctx context.Context, actor Actor, orderID, status string) (OrderResponse, error) {
	if actor.Role != model.RoleAdmin && actor.Role != model.RoleStaff {
		return OrderResponse{}, apperr.Permission(apperr.ReasonForbidden, "only staff may bulk-update carpet status")
	}
	if !model.IsValidCarpetStatus(status) {
		return OrderResponse{}, apperr.Validation(apperr.ReasonInvalidInput, fmt.Sprintf("unknown carpet status %q", status))
	}

	oid, err := uuid.Parse(orderID)
	if err != nil {
		return OrderResponse{}, apperr.Validation(apperr.ReasonInvalidInput, "invalid order id")
	}

	order, err := s.orderRepo.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OrderResponse{}, apperr.NotFound("order not found")
		}
		return OrderResponse{}, fmt.Errorf("database error: %w", err)
	}
	if isTerminalStatus(order.Status) {
		return OrderResponse{}, apperr.Conflict(apperr.ReasonOrderLocked, "order is closed")
	}

	oldStatus := order.Status
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updErr := s.carpetRepo.UpdateStatusByOrder(txCtx, oid, status); updErr != nil {
			return fmt.Errorf("failed to update carpet statuses: %w", updErr)
		}

		carpets, listErr := s.carpetRepo.FindByOrderID(txCtx, oid)
		if listErr != nil {
			return fmt.Errorf("failed to reload carpets: %w", listErr)
		}
		uniform := len(carpets) > 0
		for _, c := range carpets {
			if c.Status != status {
				uniform = false
				break
			}
		}

		if uniform && model.IsValidOrderStatus(status) && status != oldStatus {
			if setErr := s.orderRepo.UpdateStatus(txCtx, oid, status); setErr != nil {
				return fmt.Errorf("failed to propagate order status: %w", setErr)
			}
			entry := &model.OrderStatusHistory{
				OrderID:   oid,
				OldStatus: oldStatus,
				NewStatus: status,
				ChangedBy: actor.UserID,
				ActorRole: actor.Role,
			}
			if histErr := s.orderRepo.AppendHistory(txCtx, entry); histErr != nil {
				return fmt.Errorf("failed to append status history: %w", histErr)
			}
			order.Status = status
		}

		details, _ := json.Marshal(map[string]string{"carpet_status": status})
		audit := &model.AuditLog{
			UserID:     actor.UserID,
			Action:     model.ActionBulkCarpetStatus,
			EntityID:   order.ID.String(),
			EntityName: order.ReferenceNo,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return OrderResponse{}, err
	}

	s.broadcastOrderEvent("order.carpets_updated", order)
	return toOrderResponse(order, false), nil
}

func (s *orderService) GetHistory(ctx context.Context, orderID string) ([]StatusHistoryResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, apperr.Validation(apperr.ReasonInvalidInput, "invalid order id")
	}
	entries, err := s.orderRepo.ListHistory(ctx, oid)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch status history: %w", err)
	}
	return toHistoryResponses(entries), nil
}

func (s *orderService) broadcastOrderEvent(event string, order *model.Order) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastEvent(event, map[string]interface{}{
		"order_id":     order.ID.String(),
		"reference_no": order.ReferenceNo,
		"status":       order.Status,
	})
}

// --- Helpers ---

func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		// Allow bare dates too
		t, err = time.Parse("2006-01-02", *s)
		if err != nil {
			return nil, err
		}
	}
	return &t, nil
}

func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

// --- Mapping ---

func toOrderResponse(order *model.Order, includeCarpets bool) OrderResponse {
	resp := OrderResponse{
		ID:           order.ID.String(),
		ReferenceNo:  order.ReferenceNo,
		ClientID:     order.ClientID.String(),
		Status:       order.Status,
		PickupDate:   formatOptionalTime(order.PickupDate),
		DeliveryDate: formatOptionalTime(order.DeliveryDate),
		CarpetCount:  order.CarpetCount,
		Notes:        order.Notes,
		CreatedAt:    order.CreatedAt.Format(time.RFC3339),
	}
	if order.AgentID != nil {
		s := order.AgentID.String()
		resp.AgentID = &s
	}
	if includeCarpets {
		resp.Carpets = make([]CarpetResponse, 0, len(order.Carpets))
		for i := range order.Carpets {
			resp.Carpets = append(resp.Carpets, toCarpetResponse(&order.Carpets[i]))
		}
	}
	return resp
}

func toHistoryResponses(entries []model.OrderStatusHistory) []StatusHistoryResponse {
	result := make([]StatusHistoryResponse, 0, len(entries))
	for _, e := range entries {
		r := StatusHistoryResponse{
			OldStatus: e.OldStatus,
			NewStatus: e.NewStatus,
			ActorRole: e.ActorRole,
			ChangedAt: e.CreatedAt.Format(time.RFC3339),
		}
		if e.ChangedBy != nil {
			s := e.ChangedBy.String()
			r.ChangedBy = &s
		}
		result = append(result, r)
	}
	return result
}
