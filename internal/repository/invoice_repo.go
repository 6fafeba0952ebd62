package repository

import (
	"context"
	"time"

	"carpetcare/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvoiceListFilter narrows invoice listings.
type InvoiceListFilter struct {
	Status    string
	InvoiceNo string
	Page      int
	Limit     int
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	FindActiveByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Invoice, error)
	List(ctx context.Context, filter InvoiceListFilter) ([]model.Invoice, int64, error)
	Update(ctx context.Context, invoice *model.Invoice) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	CountPayments(ctx context.Context, invoiceID uuid.UUID) (int64, error)
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Create(invoice).Error
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := GetDB(ctx, r.db).First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := GetDB(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order asc") }).
		Preload("TaxSetting").
		Preload("Payments").
		First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// FindActiveByOrderID returns the order's non-cancelled invoice, if any.
func (r *invoiceRepository) FindActiveByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := GetDB(ctx, r.db).
		Where("order_id = ? AND status <> ?", orderID, model.InvoiceStatusCancelled).
		First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) List(ctx context.Context, filter InvoiceListFilter) ([]model.Invoice, int64, error) {
	var invoices []model.Invoice
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Invoice{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.InvoiceNo != "" {
		query = query.Where("invoice_no LIKE ?", "%"+filter.InvoiceNo+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Preload("TaxSetting").
		Order("created_at desc").Offset(offset).Limit(filter.Limit).
		Find(&invoices).Error; err != nil {
		return nil, 0, err
	}

	return invoices, total, nil
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Save(invoice).Error
}

func (r *invoiceRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Invoice{}).Where("id = ?", id).Update("status", status).Error
}

func (r *invoiceRepository) CountPayments(ctx context.Context, invoiceID uuid.UUID) (int64, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Payment{}).
		Where("invoice_id = ?", invoiceID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// MarkOverdue flips pending invoices whose due date has passed to overdue.
func (r *invoiceRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Invoice{}).
		Where("status = ? AND due_date IS NOT NULL AND due_date < ?", model.InvoiceStatusPending, asOf).
		Update("status", model.InvoiceStatusOverdue)
	return res.RowsAffected, res.Error
}
