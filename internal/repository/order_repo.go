package repository

import (
	"context"

	"carpetcare/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderListFilter narrows order listings.
type OrderListFilter struct {
	Status   string
	ClientID *uuid.UUID
	AgentID  *uuid.UUID
	Page     int
	Limit    int
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindByIDWithCarpets(ctx context.Context, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, filter OrderListFilter) ([]model.Order, int64, error)
	Update(ctx context.Context, order *model.Order) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	SetAgent(ctx context.Context, id uuid.UUID, agentID *uuid.UUID, status string) error
	AppendHistory(ctx context.Context, entry *model.OrderStatusHistory) error
	ListHistory(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusHistory, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByIDWithCarpets(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).
		Preload("Carpets").
		Preload("Carpets.CarpetType").
		Preload("Carpets.AddonServices").
		Preload("Carpets.AddonServices.AddonService").
		Preload("Agent").
		Preload("Invoice", "status <> ?", model.InvoiceStatusCancelled).
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, filter OrderListFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Order{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.AgentID != nil {
		query = query.Where("agent_id = ?", *filter.AgentID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Preload("Carpets").Preload("Agent").
		Order("created_at desc").Offset(offset).Limit(filter.Limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepository) Update(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Save(order).Error
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Order{}).Where("id = ?", id).Update("status", status).Error
}

func (r *orderRepository) SetAgent(ctx context.Context, id uuid.UUID, agentID *uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Order{}).Where("id = ?", id).
		Updates(map[string]interface{}{"agent_id": agentID, "status": status}).Error
}

func (r *orderRepository) AppendHistory(ctx context.Context, entry *model.OrderStatusHistory) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *orderRepository) ListHistory(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusHistory, error) {
	var entries []model.OrderStatusHistory
	if err := GetDB(ctx, r.db).Where("order_id = ?", orderID).
		Order("created_at asc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
