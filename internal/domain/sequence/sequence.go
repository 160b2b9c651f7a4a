// Package sequence issues the human-readable reference numbers used across
// the domain (rooms, admissions, invoices, claims, discounts). Numbers come
// from a persisted monotonic counter per code, incremented under the
// enclosing transaction.
package sequence

import (
	"context"
	"fmt"
)

const (
	CodeRoom        = "RM"
	CodeRoomService = "RS"
	CodeAdmission   = "ADM"
	CodeInvoice     = "INV"
	CodeClaim       = "CLM"
	CodeDiscount    = "DSC"
)

type Generator interface {
	// Next returns the formatted next reference for the code, e.g. ADM00042.
	Next(ctx context.Context, code string) (string, error)
}

// Counter is the persisted per-code counter row backing a Generator.
type Counter struct {
	Code  string `gorm:"column:code;type:varchar(10);primaryKey"`
	Value int64  `gorm:"column:value;not null;default:0"`
}

func (Counter) TableName() string {
	return "core.sequences"
}

// Format renders a reference from its prefix and counter value.
func Format(prefix string, n int64) string {
	return fmt.Sprintf("%s%05d", prefix, n)
}
