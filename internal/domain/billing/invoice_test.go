package billing_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wardflow/wardflow/internal/domain/billing"
)

func draftInvoice() *billing.Invoice {
	return &billing.Invoice{
		ID:        uuid.New(),
		Number:    "INV00001",
		PatientID: uuid.New(),
		State:     billing.StateDraft,
		Currency:  "USD",
	}
}

func TestAppendLinesComputesTotal(t *testing.T) {
	inv := draftInvoice()

	err := inv.AppendLines([]billing.LineInput{
		{Description: "Room Charge: RM00001", Quantity: 5, UnitPrice: 50},
		{Description: "Service: Physiotherapy", Quantity: 5, UnitPrice: 10},
	})
	require.NoError(t, err)

	assert.Len(t, inv.Lines, 2)
	assert.Equal(t, 300.0, inv.AmountTotal)
}

func TestAppendLinesDefaultsDescription(t *testing.T) {
	inv := draftInvoice()

	require.NoError(t, inv.AppendLines([]billing.LineInput{{Quantity: 2, UnitPrice: 40}}))
	require.Len(t, inv.Lines, 1)
	assert.Equal(t, "Service", inv.Lines[0].Description)
	assert.Equal(t, 80.0, inv.AmountTotal)
}

func TestAppendLinesDraftOnly(t *testing.T) {
	inv := draftInvoice()
	inv.State = billing.StatePosted

	err := inv.AppendLines([]billing.LineInput{{Quantity: 1, UnitPrice: 10}})
	assert.ErrorIs(t, err, billing.ErrInvoiceNotDraft)
	assert.Empty(t, inv.Lines)
}

func TestAppendLinesRejectsNonPositiveQuantity(t *testing.T) {
	inv := draftInvoice()

	for _, qty := range []float64{0, -1.5} {
		err := inv.AppendLines([]billing.LineInput{{Description: "Charge", Quantity: qty, UnitPrice: 10}})
		assert.ErrorIs(t, err, billing.ErrNonPositiveQuantity, "quantity %v", qty)
	}
	assert.Empty(t, inv.Lines)
	assert.Zero(t, inv.AmountTotal)
}

func TestAppendLinesAllOrNothing(t *testing.T) {
	inv := draftInvoice()

	err := inv.AppendLines([]billing.LineInput{
		{Description: "Charge", Quantity: 2, UnitPrice: 50},
		{Description: "Broken", Quantity: 0, UnitPrice: 10},
	})
	assert.ErrorIs(t, err, billing.ErrNonPositiveQuantity)
	assert.Empty(t, inv.Lines)
	assert.Zero(t, inv.AmountTotal)
}

func TestAppendLinesRejectsNegativePrices(t *testing.T) {
	inv := draftInvoice()

	err := inv.AppendLines([]billing.LineInput{{Description: "Discount", Quantity: 1, UnitPrice: -20}})
	assert.ErrorIs(t, err, billing.ErrNegativeLinePrice)
	assert.Empty(t, inv.Lines)
}

func TestAppendAdjustmentAllowsNegativePrice(t *testing.T) {
	inv := draftInvoice()
	require.NoError(t, inv.AppendLines([]billing.LineInput{{Description: "Charge", Quantity: 1, UnitPrice: 100}}))

	require.NoError(t, inv.AppendAdjustment(billing.LineInput{Description: "Discount DSC00001", Quantity: 1, UnitPrice: -20}))
	assert.Len(t, inv.Lines, 2)
	assert.Equal(t, 80.0, inv.AmountTotal)
}

func TestAppendAdjustmentOnPostedInvoice(t *testing.T) {
	inv := draftInvoice()
	require.NoError(t, inv.AppendLines([]billing.LineInput{{Description: "Charge", Quantity: 1, UnitPrice: 100}}))
	require.NoError(t, inv.Post())

	require.NoError(t, inv.AppendAdjustment(billing.LineInput{Description: "Discount DSC00001", Quantity: 1, UnitPrice: -30}))
	assert.Equal(t, 70.0, inv.AmountTotal)
}

func TestAppendAdjustmentRejectsClosedInvoices(t *testing.T) {
	inv := draftInvoice()
	require.NoError(t, inv.AppendLines([]billing.LineInput{{Description: "Charge", Quantity: 1, UnitPrice: 100}}))
	require.NoError(t, inv.Post())
	require.NoError(t, inv.MarkPaid())

	err := inv.AppendAdjustment(billing.LineInput{Description: "Discount", Quantity: 1, UnitPrice: -10})
	assert.ErrorIs(t, err, billing.ErrInvoiceNotAdjustable)
	assert.Equal(t, 100.0, inv.AmountTotal)
}

func TestAppendAdjustmentDefaultsDescription(t *testing.T) {
	inv := draftInvoice()
	require.NoError(t, inv.AppendLines([]billing.LineInput{{Description: "Charge", Quantity: 1, UnitPrice: 100}}))

	require.NoError(t, inv.AppendAdjustment(billing.LineInput{Quantity: 1, UnitPrice: -10}))
	assert.Equal(t, "Adjustment", inv.Lines[1].Description)
}

func TestAppendAdjustmentNeedsExistingLines(t *testing.T) {
	inv := draftInvoice()

	err := inv.AppendAdjustment(billing.LineInput{Description: "Discount", Quantity: 1, UnitPrice: -10})
	assert.ErrorIs(t, err, billing.ErrNoInvoiceLines)
}

func TestPostAndMarkPaid(t *testing.T) {
	inv := draftInvoice()
	require.NoError(t, inv.AppendLines([]billing.LineInput{{Quantity: 1, UnitPrice: 100}}))

	assert.ErrorIs(t, inv.MarkPaid(), billing.ErrInvoiceNotPosted)

	require.NoError(t, inv.Post())
	assert.Equal(t, billing.StatePosted, inv.State)
	assert.ErrorIs(t, inv.Post(), billing.ErrInvoiceNotDraft)

	require.NoError(t, inv.MarkPaid())
	assert.Equal(t, billing.StatePaid, inv.State)
	assert.ErrorIs(t, inv.MarkPaid(), billing.ErrInvoiceNotPosted)
}

func TestIsInsuranceInvoice(t *testing.T) {
	inv := draftInvoice()
	assert.False(t, inv.IsInsuranceInvoice())

	original := uuid.New()
	inv.OriginalInvoiceID = &original
	assert.True(t, inv.IsInsuranceInvoice())
}
