package billing

import "errors"

var (
	ErrInvoiceNotFound   = errors.New("invoice not found")
	ErrInvoiceNotDraft   = errors.New("invoice must be in draft state to append lines")
	ErrInvoiceNotPosted  = errors.New("invoice must be posted before payment")
	ErrNegativeLinePrice    = errors.New("invalid price in invoice line")
	ErrNonPositiveQuantity  = errors.New("invoice line quantity must be positive")
	ErrNoInvoiceLines       = errors.New("no lines found in the invoice")
	ErrInvoiceNotAdjustable = errors.New("cannot adjust a paid or cancelled invoice")
	ErrMissingJournal       = errors.New("no payment journal set for the insurance company")
)
