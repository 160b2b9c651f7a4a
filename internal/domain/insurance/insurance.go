package insurance

import (
	"time"

	"github.com/google/uuid"
	"github.com/wardflow/wardflow/internal/domain"
	"github.com/wardflow/wardflow/internal/domain/billing"
	"github.com/wardflow/wardflow/internal/domain/workflow"
)

// Company is an insurer reimbursing a fixed percentage of patient invoices.
type Company struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	Name    string `gorm:"column:name;type:varchar(255);not null;uniqueIndex"`
	Phone   string `gorm:"column:phone;type:varchar(20)"`
	Email   string `gorm:"column:email;type:varchar(255)"`
	Website string `gorm:"column:website;type:varchar(255)"`

	// Fraction of an invoice the insurer reimburses, in [0, 100] inclusive.
	CoveragePercentage float64 `gorm:"column:coverage_percentage;not null"`

	PaymentJournal string `gorm:"column:payment_journal;type:varchar(100)"`
}

func (Company) TableName() string {
	return "billing.insurance_companies"
}

// ValidateCoverage enforces the inclusive [0, 100] bound.
func (c *Company) ValidateCoverage() error {
	if c.CoveragePercentage < 0 || c.CoveragePercentage > 100 {
		return ErrCoverageOutOfRange
	}
	return nil
}

// State transitions:
//
//	draft → submitted → approved → paid
//	submitted → rejected
type ClaimState string

const (
	ClaimDraft     ClaimState = "draft"
	ClaimSubmitted ClaimState = "submitted"
	ClaimApproved  ClaimState = "approved"
	ClaimRejected  ClaimState = "rejected"
	ClaimPaid      ClaimState = "paid"
)

const (
	ActionSubmit   workflow.Action = "submit"
	ActionApprove  workflow.Action = "approve"
	ActionReject   workflow.Action = "reject"
	ActionMarkPaid workflow.Action = "mark_paid"
)

var ClaimTransitions = workflow.NewMachine("insurance claim", map[workflow.Action][]workflow.Rule[ClaimState]{
	ActionSubmit: {
		{From: ClaimDraft, To: ClaimSubmitted, Permission: domain.PermClaimSubmit},
	},
	ActionApprove: {
		{From: ClaimSubmitted, To: ClaimApproved, Permission: domain.PermClaimApprove},
	},
	ActionReject: {
		{From: ClaimSubmitted, To: ClaimRejected, Permission: domain.PermClaimReject},
	},
	ActionMarkPaid: {
		{From: ClaimApproved, To: ClaimPaid, Permission: domain.PermClaimPay},
	},
})

// Claim asks an insurance company to pay its share of an invoice.
type Claim struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	Reference string    `gorm:"column:reference;type:varchar(20);uniqueIndex;not null"`
	InvoiceID uuid.UUID `gorm:"column:invoice_id;type:uuid;not null;index"`
	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`
	CompanyID uuid.UUID `gorm:"column:company_id;type:uuid;not null;index"`

	TotalInvoiceAmount float64 `gorm:"column:total_invoice_amount;not null"`
	CoveragePercentage float64 `gorm:"column:coverage_percentage;not null"`
	ClaimAmount        float64 `gorm:"column:claim_amount;not null"`

	Currency string `gorm:"column:currency;type:varchar(3);not null"`

	State ClaimState `gorm:"column:state;type:varchar(10);not null;default:'draft';index"`

	Notes string `gorm:"column:notes;type:text"`
}

func (Claim) TableName() string {
	return "billing.insurance_claims"
}

// RecomputeAmount derives the claim amount from the invoice. An insurance
// invoice (one carrying the original-invoice back-reference) is claimed in
// full regardless of coverage; a patient invoice is claimed at the coverage
// percentage.
func (c *Claim) RecomputeAmount(inv *billing.Invoice) {
	c.TotalInvoiceAmount = inv.AmountTotal
	switch {
	case inv.IsInsuranceInvoice():
		c.ClaimAmount = inv.AmountTotal
	case c.CoveragePercentage != 0 && inv.AmountTotal != 0:
		c.ClaimAmount = inv.AmountTotal * c.CoveragePercentage / 100.0
	default:
		c.ClaimAmount = 0
	}
}

// Apply runs one guarded transition; on any error the state is unchanged.
func (c *Claim) Apply(action workflow.Action, actor domain.Actor) error {
	next, err := ClaimTransitions.Apply(c.State, action, actor)
	if err != nil {
		return err
	}
	c.State = next
	return nil
}

type CreateCompanyCommand struct {
	Name               string
	Phone              string
	Email              string
	Website            string
	CoveragePercentage float64
	PaymentJournal     string
}

type UpdateCompanyCommand struct {
	Phone              *string
	Email              *string
	Website            *string
	CoveragePercentage *float64
	PaymentJournal     *string
}

type ListClaimsQuery struct {
	PatientID *uuid.UUID
	CompanyID *uuid.UUID
	State     *ClaimState
	Page      int
	PageSize  int
}

type PagedClaims struct {
	Claims     []*Claim
	TotalCount int64
	Page       int
	PageSize   int
}
