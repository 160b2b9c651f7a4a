package discount

import (
	"time"

	"github.com/google/uuid"
	"github.com/wardflow/wardflow/internal/domain"
	"github.com/wardflow/wardflow/internal/domain/billing"
	"github.com/wardflow/wardflow/internal/domain/workflow"
)

// State transitions:
//
//	draft → submitted → approved → applied
//	submitted → rejected
type State string

const (
	StateDraft     State = "draft"
	StateSubmitted State = "submitted"
	StateApproved  State = "approved"
	StateRejected  State = "rejected"
	StateApplied   State = "applied"
)

const (
	ActionSubmit  workflow.Action = "submit"
	ActionApprove workflow.Action = "approve"
	ActionReject  workflow.Action = "reject"
	ActionApply   workflow.Action = "apply"
)

var Transitions = workflow.NewMachine("discount request", map[workflow.Action][]workflow.Rule[State]{
	ActionSubmit: {
		{From: StateDraft, To: StateSubmitted, Permission: domain.PermDiscountSubmit},
	},
	ActionApprove: {
		{From: StateSubmitted, To: StateApproved, Permission: domain.PermDiscountApprove},
	},
	ActionReject: {
		{From: StateSubmitted, To: StateRejected, Permission: domain.PermDiscountReject},
	},
	ActionApply: {
		{From: StateApproved, To: StateApplied, Permission: domain.PermDiscountApply},
	},
})

// Request asks for a fixed amount off a patient's invoice. Applying an
// approved request appends a negative adjustment line to the invoice.
type Request struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	Reference string    `gorm:"column:reference;type:varchar(20);uniqueIndex;not null"`
	InvoiceID uuid.UUID `gorm:"column:invoice_id;type:uuid;not null;index"`
	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`

	Amount   float64 `gorm:"column:amount;not null"`
	Reason   string  `gorm:"column:reason;type:text;not null"`
	Currency string  `gorm:"column:currency;type:varchar(3);not null"`

	State State `gorm:"column:state;type:varchar(10);not null;default:'draft';index"`
}

func (Request) TableName() string {
	return "billing.discount_requests"
}

// ValidateAmount enforces that the discount never exceeds the invoice total.
func (r *Request) ValidateAmount(inv *billing.Invoice) error {
	if r.Amount <= 0 {
		return ErrNonPositiveAmount
	}
	if r.Amount > inv.AmountTotal {
		return ErrAmountExceedsInvoice
	}
	return nil
}

// Apply runs one guarded transition; on any error the state is unchanged.
func (r *Request) Apply(action workflow.Action, actor domain.Actor) error {
	next, err := Transitions.Apply(r.State, action, actor)
	if err != nil {
		return err
	}
	r.State = next
	return nil
}

type CreateRequestCommand struct {
	InvoiceID uuid.UUID
	Amount    float64
	Reason    string
}

type ListRequestsQuery struct {
	PatientID *uuid.UUID
	InvoiceID *uuid.UUID
	State     *State
	Page      int
	PageSize  int
}

type PagedRequests struct {
	Requests   []*Request
	TotalCount int64
	Page       int
	PageSize   int
}
