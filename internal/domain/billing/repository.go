package billing

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, i *Invoice) error

	// GetByID retrieves an invoice with its lines preloaded.
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindDraftByPatient returns the patient's open draft customer invoice,
	// or ErrInvoiceNotFound when none exists.
	FindDraftByPatient(ctx context.Context, patientID uuid.UUID) (*Invoice, error)

	// Update persists invoice header changes and any new lines.
	Update(ctx context.Context, i *Invoice) error

	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Invoice, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*Payment, error)
}
