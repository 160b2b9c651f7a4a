package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/wardflow/wardflow/internal/domain"
	"github.com/wardflow/wardflow/internal/domain/billing"
	"github.com/wardflow/wardflow/internal/domain/discount"
	"github.com/wardflow/wardflow/internal/domain/sequence"
	"github.com/wardflow/wardflow/internal/domain/workflow"
	"github.com/wardflow/wardflow/pkg/metrics"
	"go.uber.org/zap"
)

type DiscountService struct {
	requests   discount.Repository
	billingSvc *BillingService
	seq        sequence.Generator
	tx         TxRunner
	auditSvc   *AuditService
	collector  *metrics.Collector
	log        *zap.Logger
}

func NewDiscountService(
	requests discount.Repository,
	billingSvc *BillingService,
	seq sequence.Generator,
	tx TxRunner,
	auditSvc *AuditService,
	collector *metrics.Collector,
	log *zap.Logger,
) *DiscountService {
	return &DiscountService{
		requests:   requests,
		billingSvc: billingSvc,
		seq:        seq,
		tx:         tx,
		auditSvc:   auditSvc,
		collector:  collector,
		log:        log,
	}
}

func (s *DiscountService) CreateRequest(ctx context.Context, cmd *discount.CreateRequestCommand, actor domain.Actor, ip string) (*discount.Request, error) {
	if strings.TrimSpace(cmd.Reason) == "" {
		return nil, discount.ErrReasonRequired
	}

	inv, err := s.billingSvc.GetInvoice(ctx, cmd.InvoiceID)
	if err != nil {
		return nil, err
	}
	if inv.State != billing.StateDraft {
		return nil, billing.ErrInvoiceNotDraft
	}

	r := &discount.Request{
		InvoiceID: inv.ID,
		PatientID: inv.PatientID,
		Amount:    cmd.Amount,
		Reason:    strings.TrimSpace(cmd.Reason),
		Currency:  inv.Currency,
		State:     discount.StateDraft,
	}
	if err := r.ValidateAmount(inv); err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ref, err := s.seq.Next(ctx, sequence.CodeDiscount)
		if err != nil {
			return fmt.Errorf("generating discount reference: %w", err)
		}
		r.Reference = ref
		return s.requests.Create(ctx, r)
	})
	if err != nil {
		s.log.Error("failed to create discount request", zap.Error(err))
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: actor.UserID.String(), UserRole: string(actor.Role),
		Action: "create", ResourceType: "discount_request", ResourceID: r.ID.String(), IPAddress: ip,
	})

	return r, nil
}

func (s *DiscountService) Submit(ctx context.Context, id uuid.UUID, actor domain.Actor, ip string) (*discount.Request, error) {
	return s.transition(ctx, id, discount.ActionSubmit, actor, ip, nil)
}

func (s *DiscountService) Approve(ctx context.Context, id uuid.UUID, actor domain.Actor, ip string) (*discount.Request, error) {
	return s.transition(ctx, id, discount.ActionApprove, actor, ip, nil)
}

func (s *DiscountService) Reject(ctx context.Context, id uuid.UUID, actor domain.Actor, ip string) (*discount.Request, error) {
	return s.transition(ctx, id, discount.ActionReject, actor, ip, nil)
}

// Apply appends the negative discount line to the invoice and marks the
// request applied, in one transaction.
func (s *DiscountService) Apply(ctx context.Context, id uuid.UUID, actor domain.Actor, ip string) (*discount.Request, error) {
	return s.transition(ctx, id, discount.ActionApply, actor, ip, func(ctx context.Context, r *discount.Request) error {
		inv, err := s.billingSvc.GetInvoice(ctx, r.InvoiceID)
		if err != nil {
			return err
		}
		return s.billingSvc.AppendAdjustmentLine(ctx, inv, billing.LineInput{
			Description: fmt.Sprintf("Discount %s", r.Reference),
			Quantity:    1,
			UnitPrice:   -r.Amount,
		})
	})
}

func (s *DiscountService) GetRequest(ctx context.Context, id uuid.UUID) (*discount.Request, error) {
	return s.requests.GetByID(ctx, id)
}

func (s *DiscountService) ListRequests(ctx context.Context, q *discount.ListRequestsQuery) (*discount.PagedRequests, error) {
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.requests.List(ctx, q)
}

func (s *DiscountService) transition(
	ctx context.Context,
	id uuid.UUID,
	action workflow.Action,
	actor domain.Actor,
	ip string,
	effect func(ctx context.Context, r *discount.Request) error,
) (*discount.Request, error) {
	var out *discount.Request
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		r, err := s.requests.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := r.Apply(action, actor); err != nil {
			return err
		}
		if effect != nil {
			if err := effect(ctx, r); err != nil {
				return err
			}
		}
		if err := s.requests.Update(ctx, r); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.collector.DiscountsTotal.WithLabelValues(string(out.State)).Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: actor.UserID.String(), UserRole: string(actor.Role),
		Action: "transition", ResourceType: "discount_request", ResourceID: id.String(),
		IPAddress: ip, Changes: fmt.Sprintf(`{"action":%q}`, string(action)),
	})

	return out, nil
}
