package discount

import "errors"

var (
	ErrRequestNotFound      = errors.New("discount request not found")
	ErrAmountExceedsInvoice = errors.New("discount amount cannot be greater than the invoice total amount")
	ErrNonPositiveAmount    = errors.New("discount amount must be positive")
	ErrReasonRequired       = errors.New("discount reason is required")
)
