package billing

import (
	"time"

	"github.com/google/uuid"
)

type InvoiceState string

const (
	StateDraft     InvoiceState = "draft"
	StatePosted    InvoiceState = "posted"
	StatePaid      InvoiceState = "paid"
	StateCancelled InvoiceState = "cancelled"
)

// Invoice is a customer invoice on a patient's account. An invoice carrying
// OriginalInvoiceID is an insurance invoice billed to the insurer and points
// back at the patient invoice it covers.
type Invoice struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	Number    string    `gorm:"column:number;type:varchar(20);uniqueIndex;not null"`
	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`

	State    InvoiceState `gorm:"column:state;type:varchar(10);not null;default:'draft';index"`
	Currency string       `gorm:"column:currency;type:varchar(3);not null"`

	Lines []Line `gorm:"foreignKey:InvoiceID"`

	AmountTotal float64 `gorm:"column:amount_total;not null"`

	// Set on insurance invoices only; points at the patient invoice covered.
	OriginalInvoiceID *uuid.UUID `gorm:"column:original_invoice_id;type:uuid;index"`

	InsuranceDiscountApplied bool `gorm:"column:insurance_discount_applied;not null;default:false"`
}

func (Invoice) TableName() string {
	return "billing.invoices"
}

type Line struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	InvoiceID   uuid.UUID `gorm:"column:invoice_id;type:uuid;not null;index"`
	Description string    `gorm:"column:description;type:varchar(255);not null"`
	Quantity    float64   `gorm:"column:quantity;not null"`
	UnitPrice   float64   `gorm:"column:unit_price;not null"`
}

func (Line) TableName() string {
	return "billing.invoice_lines"
}

func (l Line) Amount() float64 {
	return l.Quantity * l.UnitPrice
}

// LineInput is a prepared invoice line handed to the billing layer by the
// workflows (room charges, services, discounts, coverage).
type LineInput struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

func (i *Invoice) IsInsuranceInvoice() bool {
	return i.OriginalInvoiceID != nil
}

// RecomputeTotal derives the invoice total from the loaded lines.
func (i *Invoice) RecomputeTotal() {
	total := 0.0
	for _, l := range i.Lines {
		total += l.Amount()
	}
	i.AmountTotal = total
}

// AppendLines adds prepared lines to a draft invoice and recomputes the
// total. Workflow-prepared lines carry a positive quantity and a
// non-negative price; anything else is an upstream pricing bug and is
// rejected before any line is appended.
func (i *Invoice) AppendLines(lines []LineInput) error {
	if i.State != StateDraft {
		return ErrInvoiceNotDraft
	}
	for _, in := range lines {
		if in.UnitPrice < 0 {
			return ErrNegativeLinePrice
		}
		if in.Quantity <= 0 {
			return ErrNonPositiveQuantity
		}
	}
	for _, in := range lines {
		desc := in.Description
		if desc == "" {
			desc = "Service"
		}
		i.Lines = append(i.Lines, Line{
			InvoiceID:   i.ID,
			Description: desc,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
		})
	}
	i.RecomputeTotal()
	return nil
}

// AppendAdjustment appends a single discount or coverage adjustment line.
// Negative prices are allowed here and only here. Approved discounts may
// land after posting, so posted invoices stay adjustable; paid and
// cancelled invoices are closed.
func (i *Invoice) AppendAdjustment(in LineInput) error {
	if i.State != StateDraft && i.State != StatePosted {
		return ErrInvoiceNotAdjustable
	}
	if len(i.Lines) == 0 {
		return ErrNoInvoiceLines
	}
	if in.Quantity <= 0 {
		return ErrNonPositiveQuantity
	}
	desc := in.Description
	if desc == "" {
		desc = "Adjustment"
	}
	i.Lines = append(i.Lines, Line{
		InvoiceID:   i.ID,
		Description: desc,
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice,
	})
	i.RecomputeTotal()
	return nil
}

// Post moves a draft invoice to posted.
func (i *Invoice) Post() error {
	if i.State != StateDraft {
		return ErrInvoiceNotDraft
	}
	i.State = StatePosted
	return nil
}

// MarkPaid records a registered payment. Only posted invoices can be paid.
func (i *Invoice) MarkPaid() error {
	if i.State != StatePosted {
		return ErrInvoiceNotPosted
	}
	i.State = StatePaid
	return nil
}

// Payment records an inbound payment registered against an invoice, e.g. an
// insurance claim payout.
type Payment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	InvoiceID     uuid.UUID `gorm:"column:invoice_id;type:uuid;not null;index"`
	PartnerName   string    `gorm:"column:partner_name;type:varchar(255);not null"`
	Journal       string    `gorm:"column:journal;type:varchar(100);not null"`
	Amount        float64   `gorm:"column:amount;not null"`
	Communication string    `gorm:"column:communication;type:varchar(255)"`
}

func (Payment) TableName() string {
	return "billing.payments"
}
