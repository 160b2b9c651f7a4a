package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wardflow/wardflow/internal/domain/billing"
	"github.com/wardflow/wardflow/internal/domain/sequence"
	"go.uber.org/zap"
)

// BillingService is the billing adapter: it owns draft invoices on patient
// accounts, appends prepared charge lines, and registers payments.
type BillingService struct {
	invoices billing.Repository
	payments billing.PaymentRepository
	seq      sequence.Generator
	tx       TxRunner
	currency string
	log      *zap.Logger
}

func NewBillingService(
	invoices billing.Repository,
	payments billing.PaymentRepository,
	seq sequence.Generator,
	tx TxRunner,
	currency string,
	log *zap.Logger,
) *BillingService {
	return &BillingService{invoices: invoices, payments: payments, seq: seq, tx: tx, currency: currency, log: log}
}

// GetOrCreateDraftInvoice returns the patient's open draft invoice, creating
// one when none exists. Idempotent.
func (s *BillingService) GetOrCreateDraftInvoice(ctx context.Context, patientID uuid.UUID) (*billing.Invoice, error) {
	if patientID == uuid.Nil {
		return nil, &ValidationError{Fields: []string{"patient_id is required"}}
	}

	inv, err := s.invoices.FindDraftByPatient(ctx, patientID)
	if err == nil {
		return inv, nil
	}
	if !errors.Is(err, billing.ErrInvoiceNotFound) {
		return nil, fmt.Errorf("finding draft invoice: %w", err)
	}

	number, err := s.seq.Next(ctx, sequence.CodeInvoice)
	if err != nil {
		return nil, fmt.Errorf("generating invoice number: %w", err)
	}

	inv = &billing.Invoice{
		Number:    number,
		PatientID: patientID,
		State:     billing.StateDraft,
		Currency:  s.currency,
	}
	if err := s.invoices.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("creating draft invoice: %w", err)
	}

	s.log.Info("draft invoice created",
		zap.String("invoice", inv.Number),
		zap.String("patient_id", patientID.String()),
	)

	return inv, nil
}

// AppendLines adds prepared lines to a draft invoice. Caller-supplied lines
// must carry non-negative prices; adjustment lines go through
// AppendAdjustmentLine.
func (s *BillingService) AppendLines(ctx context.Context, inv *billing.Invoice, lines []billing.LineInput) error {
	if err := inv.AppendLines(lines); err != nil {
		return err
	}
	return s.invoices.Update(ctx, inv)
}

// AppendAdjustmentLine adds a single (typically negative) adjustment line,
// used by the discount and insurance workflows.
func (s *BillingService) AppendAdjustmentLine(ctx context.Context, inv *billing.Invoice, line billing.LineInput) error {
	if err := inv.AppendAdjustment(line); err != nil {
		return err
	}
	return s.invoices.Update(ctx, inv)
}

// AddInvoiceItems appends lines to the patient's draft invoice, creating the
// invoice first when needed. Runs as one unit of work.
func (s *BillingService) AddInvoiceItems(ctx context.Context, patientID uuid.UUID, lines []billing.LineInput) (*billing.Invoice, error) {
	var inv *billing.Invoice
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.GetOrCreateDraftInvoice(ctx, patientID)
		if err != nil {
			return err
		}
		return s.AppendLines(ctx, inv, lines)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *BillingService) GetInvoice(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	return s.invoices.GetByID(ctx, id)
}

func (s *BillingService) ListInvoices(ctx context.Context, patientID uuid.UUID) ([]*billing.Invoice, error) {
	return s.invoices.ListByPatient(ctx, patientID)
}

func (s *BillingService) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]*billing.Payment, error) {
	if _, err := s.invoices.GetByID(ctx, invoiceID); err != nil {
		return nil, err
	}
	return s.payments.ListByInvoice(ctx, invoiceID)
}

// PostInvoice moves a draft invoice to posted.
func (s *BillingService) PostInvoice(ctx context.Context, inv *billing.Invoice) error {
	if err := inv.Post(); err != nil {
		return err
	}
	return s.invoices.Update(ctx, inv)
}

// RegisterPayment records an inbound payment against an invoice and marks it
// paid. Both writes belong to the caller's transaction: a payment failure
// must abort the caller's state transition as well.
func (s *BillingService) RegisterPayment(ctx context.Context, inv *billing.Invoice, partnerName, journal string, amount float64, communication string) (*billing.Payment, error) {
	if journal == "" {
		return nil, billing.ErrMissingJournal
	}
	if err := inv.MarkPaid(); err != nil {
		return nil, err
	}

	p := &billing.Payment{
		InvoiceID:     inv.ID,
		PartnerName:   partnerName,
		Journal:       journal,
		Amount:        amount,
		Communication: communication,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("registering payment: %w", err)
	}
	if err := s.invoices.Update(ctx, inv); err != nil {
		return nil, err
	}

	s.log.Info("payment registered",
		zap.String("invoice", inv.Number),
		zap.Float64("amount", amount),
		zap.String("journal", journal),
	)

	return p, nil
}
