package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/wardflow/wardflow/internal/domain"
	"github.com/wardflow/wardflow/internal/domain/billing"
	"github.com/wardflow/wardflow/internal/domain/insurance"
	"github.com/wardflow/wardflow/internal/domain/patient"
	"github.com/wardflow/wardflow/internal/domain/sequence"
	"github.com/wardflow/wardflow/internal/domain/workflow"
	"github.com/wardflow/wardflow/pkg/metrics"
	"go.uber.org/zap"
)

type InsuranceService struct {
	companies   insurance.CompanyRepository
	claims      insurance.ClaimRepository
	patientRepo patient.Repository
	billingSvc  *BillingService
	seq         sequence.Generator
	tx          TxRunner
	auditSvc    *AuditService
	collector   *metrics.Collector
	log         *zap.Logger
}

func NewInsuranceService(
	companies insurance.CompanyRepository,
	claims insurance.ClaimRepository,
	patientRepo patient.Repository,
	billingSvc *BillingService,
	seq sequence.Generator,
	tx TxRunner,
	auditSvc *AuditService,
	collector *metrics.Collector,
	log *zap.Logger,
) *InsuranceService {
	return &InsuranceService{
		companies:   companies,
		claims:      claims,
		patientRepo: patientRepo,
		billingSvc:  billingSvc,
		seq:         seq,
		tx:          tx,
		auditSvc:    auditSvc,
		collector:   collector,
		log:         log,
	}
}

func (s *InsuranceService) CreateCompany(ctx context.Context, cmd *insurance.CreateCompanyCommand, actor domain.Actor, ip string) (*insurance.Company, error) {
	if strings.TrimSpace(cmd.Name) == "" {
		return nil, &ValidationError{Fields: []string{"name is required"}}
	}

	c := &insurance.Company{
		Name:               strings.TrimSpace(cmd.Name),
		Phone:              cmd.Phone,
		Email:              cmd.Email,
		Website:            cmd.Website,
		CoveragePercentage: cmd.CoveragePercentage,
		PaymentJournal:     cmd.PaymentJournal,
	}
	if err := c.ValidateCoverage(); err != nil {
		return nil, err
	}

	taken, err := s.companies.ExistsByName(ctx, c.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("checking company name: %w", err)
	}
	if taken {
		return nil, insurance.ErrCompanyNameTaken
	}

	if err := s.companies.Create(ctx, c); err != nil {
		s.log.Error("failed to create insurance company", zap.Error(err))
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: actor.UserID.String(), UserRole: string(actor.Role),
		Action: "create", ResourceType: "insurance_company", ResourceID: c.ID.String(), IPAddress: ip,
	})

	return c, nil
}

func (s *InsuranceService) UpdateCompany(ctx context.Context, id uuid.UUID, cmd *insurance.UpdateCompanyCommand, actor domain.Actor, ip string) (*insurance.Company, error) {
	c, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if cmd.Phone != nil {
		c.Phone = *cmd.Phone
	}
	if cmd.Email != nil {
		c.Email = *cmd.Email
	}
	if cmd.Website != nil {
		c.Website = *cmd.Website
	}
	if cmd.PaymentJournal != nil {
		c.PaymentJournal = *cmd.PaymentJournal
	}
	if cmd.CoveragePercentage != nil {
		c.CoveragePercentage = *cmd.CoveragePercentage
	}
	if err := c.ValidateCoverage(); err != nil {
		return nil, err
	}

	if err := s.companies.Update(ctx, c); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: actor.UserID.String(), UserRole: string(actor.Role),
		Action: "update", ResourceType: "insurance_company", ResourceID: id.String(), IPAddress: ip,
	})

	return c, nil
}

func (s *InsuranceService) ListCompanies(ctx context.Context) ([]*insurance.Company, error) {
	return s.companies.List(ctx)
}

// ApplyInsurance covers a patient invoice: it creates the insurance invoice
// billed to the insurer, appends the negative coverage line to the patient
// invoice, and opens a draft claim. One transaction covers all three.
func (s *InsuranceService) ApplyInsurance(ctx context.Context, invoiceID uuid.UUID, actor domain.Actor, ip string) (*insurance.Claim, error) {
	var created *insurance.Claim
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		inv, err := s.billingSvc.GetInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.InsuranceDiscountApplied {
			return insurance.ErrDiscountApplied
		}
		if len(inv.Lines) == 0 {
			return billing.ErrNoInvoiceLines
		}

		p, err := s.patientRepo.GetByID(ctx, inv.PatientID)
		if err != nil {
			return err
		}
		if p.InsuranceCompanyID == nil {
			return insurance.ErrNoInsuranceCompany
		}
		company, err := s.companies.GetByID(ctx, *p.InsuranceCompanyID)
		if err != nil {
			return err
		}

		coverage := company.CoveragePercentage
		covered := inv.AmountTotal * coverage / 100.0

		number, err := s.seq.Next(ctx, sequence.CodeInvoice)
		if err != nil {
			return fmt.Errorf("generating invoice number: %w", err)
		}
		insInv := &billing.Invoice{
			Number:            number,
			PatientID:         inv.PatientID,
			State:             billing.StateDraft,
			Currency:          inv.Currency,
			OriginalInvoiceID: &inv.ID,
		}
		if err := insInv.AppendLines([]billing.LineInput{{
			Description: fmt.Sprintf("Insurance Coverage (%g%%)", coverage),
			Quantity:    1,
			UnitPrice:   covered,
		}}); err != nil {
			return err
		}
		if err := s.billingSvc.invoices.Create(ctx, insInv); err != nil {
			return fmt.Errorf("creating insurance invoice: %w", err)
		}

		if err := s.billingSvc.AppendAdjustmentLine(ctx, inv, billing.LineInput{
			Description: "Insurance Discount",
			Quantity:    1,
			UnitPrice:   -covered,
		}); err != nil {
			return err
		}
		inv.InsuranceDiscountApplied = true
		if err := s.billingSvc.invoices.Update(ctx, inv); err != nil {
			return err
		}

		ref, err := s.seq.Next(ctx, sequence.CodeClaim)
		if err != nil {
			return fmt.Errorf("generating claim reference: %w", err)
		}
		claim := &insurance.Claim{
			Reference:          ref,
			InvoiceID:          insInv.ID,
			PatientID:          p.ID,
			CompanyID:          company.ID,
			CoveragePercentage: coverage,
			Currency:           inv.Currency,
			State:              insurance.ClaimDraft,
		}
		claim.RecomputeAmount(insInv)

		if err := s.claims.Create(ctx, claim); err != nil {
			return err
		}
		created = claim
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.collector.ClaimsTotal.WithLabelValues(string(insurance.ClaimDraft)).Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: actor.UserID.String(), UserRole: string(actor.Role),
		Action: "create", ResourceType: "insurance_claim", ResourceID: created.ID.String(), IPAddress: ip,
	})

	return created, nil
}

// SubmitClaim posts the underlying invoice when still draft, then moves the
// claim to submitted.
func (s *InsuranceService) SubmitClaim(ctx context.Context, id uuid.UUID, actor domain.Actor, ip string) (*insurance.Claim, error) {
	claim, err := s.transition(ctx, id, insurance.ActionSubmit, actor, func(ctx context.Context, c *insurance.Claim) error {
		inv, err := s.billingSvc.GetInvoice(ctx, c.InvoiceID)
		if err != nil {
			return err
		}
		if inv.State == billing.StateDraft {
			if err := s.billingSvc.PostInvoice(ctx, inv); err != nil {
				return err
			}
		}

		// Several full-coverage claims against one original invoice would
		// double count; surfaced, not blocked (reconciliation gap).
		if inv.IsInsuranceInvoice() {
			n, err := s.claims.CountByInvoice(ctx, inv.ID)
			if err != nil {
				return err
			}
			if n > 1 {
				s.collector.ClaimsDuplicateOriginalTotal.Inc()
				s.log.Warn("multiple claims reference the same original invoice",
					zap.String("invoice", inv.Number),
					zap.Int64("claims", n),
				)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit(ctx, actor, id, ip, "submit")
	return claim, nil
}

func (s *InsuranceService) ApproveClaim(ctx context.Context, id uuid.UUID, actor domain.Actor, ip string) (*insurance.Claim, error) {
	claim, err := s.transition(ctx, id, insurance.ActionApprove, actor, nil)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, actor, id, ip, "approve")
	return claim, nil
}

func (s *InsuranceService) RejectClaim(ctx context.Context, id uuid.UUID, actor domain.Actor, ip string) (*insurance.Claim, error) {
	claim, err := s.transition(ctx, id, insurance.ActionReject, actor, nil)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, actor, id, ip, "reject")
	return claim, nil
}

// MarkClaimPaid registers the payout through the billing adapter and moves
// the claim to paid. Payment and transition commit or roll back together.
func (s *InsuranceService) MarkClaimPaid(ctx context.Context, id uuid.UUID, actor domain.Actor, ip string) (*insurance.Claim, error) {
	claim, err := s.transition(ctx, id, insurance.ActionMarkPaid, actor, func(ctx context.Context, c *insurance.Claim) error {
		company, err := s.companies.GetByID(ctx, c.CompanyID)
		if err != nil {
			return err
		}
		inv, err := s.billingSvc.GetInvoice(ctx, c.InvoiceID)
		if err != nil {
			return err
		}
		_, err = s.billingSvc.RegisterPayment(ctx, inv, company.Name, company.PaymentJournal,
			c.ClaimAmount, fmt.Sprintf("Insurance Claim Payment: %s", c.Reference))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.collector.ClaimsTotal.WithLabelValues(string(insurance.ClaimPaid)).Inc()
	s.audit(ctx, actor, id, ip, "mark_paid")
	return claim, nil
}

func (s *InsuranceService) GetClaim(ctx context.Context, id uuid.UUID) (*insurance.Claim, error) {
	return s.claims.GetByID(ctx, id)
}

func (s *InsuranceService) ListClaims(ctx context.Context, q *insurance.ListClaimsQuery) (*insurance.PagedClaims, error) {
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.claims.List(ctx, q)
}

// transition runs one guarded claim transition plus its side effect in a
// single transaction. The state check happens first so a permission or state
// violation never runs the effect; an effect failure rolls everything back.
func (s *InsuranceService) transition(
	ctx context.Context,
	id uuid.UUID,
	action workflow.Action,
	actor domain.Actor,
	effect func(ctx context.Context, c *insurance.Claim) error,
) (*insurance.Claim, error) {
	var out *insurance.Claim
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.claims.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := c.Apply(action, actor); err != nil {
			return err
		}
		if effect != nil {
			if err := effect(ctx, c); err != nil {
				return err
			}
		}
		if err := s.claims.Update(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *InsuranceService) audit(ctx context.Context, actor domain.Actor, id uuid.UUID, ip, action string) {
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: actor.UserID.String(), UserRole: string(actor.Role),
		Action: "transition", ResourceType: "insurance_claim", ResourceID: id.String(),
		IPAddress: ip, Changes: fmt.Sprintf(`{"action":%q}`, action),
	})
}
