package insurance_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wardflow/wardflow/internal/domain"
	"github.com/wardflow/wardflow/internal/domain/billing"
	"github.com/wardflow/wardflow/internal/domain/insurance"
	"github.com/wardflow/wardflow/internal/domain/workflow"
)

func TestValidateCoverage(t *testing.T) {
	for _, pct := range []float64{0, 50, 100} {
		c := insurance.Company{Name: "Acme Health", CoveragePercentage: pct}
		assert.NoError(t, c.ValidateCoverage(), "coverage %v", pct)
	}
	for _, pct := range []float64{-1, 100.5, 150} {
		c := insurance.Company{Name: "Acme Health", CoveragePercentage: pct}
		assert.ErrorIs(t, c.ValidateCoverage(), insurance.ErrCoverageOutOfRange, "coverage %v", pct)
	}
}

func TestRecomputeAmountCoveragePercentage(t *testing.T) {
	inv := &billing.Invoice{AmountTotal: 200}
	c := &insurance.Claim{CoveragePercentage: 80}

	c.RecomputeAmount(inv)
	assert.Equal(t, 200.0, c.TotalInvoiceAmount)
	assert.Equal(t, 160.0, c.ClaimAmount)
}

func TestRecomputeAmountInsuranceInvoiceClaimedInFull(t *testing.T) {
	original := uuid.New()
	inv := &billing.Invoice{AmountTotal: 160, OriginalInvoiceID: &original}
	c := &insurance.Claim{CoveragePercentage: 80}

	c.RecomputeAmount(inv)
	assert.Equal(t, 160.0, c.ClaimAmount)
}

func TestRecomputeAmountZeroCoverage(t *testing.T) {
	inv := &billing.Invoice{AmountTotal: 200}
	c := &insurance.Claim{CoveragePercentage: 0}

	c.RecomputeAmount(inv)
	assert.Zero(t, c.ClaimAmount)
}

func TestClaimLifecycle(t *testing.T) {
	c := &insurance.Claim{State: insurance.ClaimDraft}

	require.NoError(t, c.Apply(insurance.ActionSubmit, domain.Actor{Role: domain.RoleClaimUser}))
	assert.Equal(t, insurance.ClaimSubmitted, c.State)

	require.NoError(t, c.Apply(insurance.ActionApprove, domain.Actor{Role: domain.RoleClaimManager}))
	assert.Equal(t, insurance.ClaimApproved, c.State)

	require.NoError(t, c.Apply(insurance.ActionMarkPaid, domain.Actor{Role: domain.RoleAccountant}))
	assert.Equal(t, insurance.ClaimPaid, c.State)
}

func TestClaimReject(t *testing.T) {
	c := &insurance.Claim{State: insurance.ClaimSubmitted}

	require.NoError(t, c.Apply(insurance.ActionReject, domain.Actor{Role: domain.RoleClaimManager}))
	assert.Equal(t, insurance.ClaimRejected, c.State)

	err := c.Apply(insurance.ActionApprove, domain.Actor{Role: domain.RoleClaimManager})
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
	assert.Equal(t, insurance.ClaimRejected, c.State)
}

func TestClaimApproveNeedsManager(t *testing.T) {
	c := &insurance.Claim{State: insurance.ClaimSubmitted}

	err := c.Apply(insurance.ActionApprove, domain.Actor{Role: domain.RoleClaimUser})
	assert.ErrorIs(t, err, workflow.ErrPermissionDenied)
	assert.Equal(t, insurance.ClaimSubmitted, c.State)
}

func TestClaimApproveFromDraftRejected(t *testing.T) {
	c := &insurance.Claim{State: insurance.ClaimDraft}

	err := c.Apply(insurance.ActionApprove, domain.Actor{Role: domain.RoleClaimManager})
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
	assert.Equal(t, insurance.ClaimDraft, c.State)
}
