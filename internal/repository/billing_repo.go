package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wardflow/wardflow/internal/domain/billing"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(ctx context.Context, i *billing.Invoice) error {
	return conn(ctx, r.db).Create(i).Error
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var i billing.Invoice
	err := conn(ctx, r.db).Preload("Lines").First(&i, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, billing.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching invoice: %w", err)
	}
	return &i, nil
}

func (r *InvoiceRepository) FindDraftByPatient(ctx context.Context, patientID uuid.UUID) (*billing.Invoice, error) {
	var i billing.Invoice
	err := conn(ctx, r.db).Preload("Lines").
		Where("patient_id = ? AND state = ? AND original_invoice_id IS NULL", patientID, billing.StateDraft).
		Order("created_at ASC").
		First(&i).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, billing.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding draft invoice: %w", err)
	}
	return &i, nil
}

// Update writes the invoice header and inserts any lines appended since the
// last load. Existing lines are immutable.
func (r *InvoiceRepository) Update(ctx context.Context, i *billing.Invoice) error {
	db := conn(ctx, r.db)
	if err := db.Omit(clause.Associations).Save(i).Error; err != nil {
		return fmt.Errorf("updating invoice: %w", err)
	}
	for idx := range i.Lines {
		if i.Lines[idx].ID != uuid.Nil {
			continue
		}
		i.Lines[idx].InvoiceID = i.ID
		if err := db.Create(&i.Lines[idx]).Error; err != nil {
			return fmt.Errorf("inserting invoice line: %w", err)
		}
	}
	return nil
}

func (r *InvoiceRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*billing.Invoice, error) {
	var invoices []*billing.Invoice
	err := conn(ctx, r.db).Preload("Lines").
		Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	return invoices, nil
}

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *billing.Payment) error {
	return conn(ctx, r.db).Create(p).Error
}

func (r *PaymentRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*billing.Payment, error) {
	var payments []*billing.Payment
	err := conn(ctx, r.db).
		Where("invoice_id = ?", invoiceID).
		Order("created_at ASC").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	return payments, nil
}
