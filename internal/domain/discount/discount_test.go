package discount_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wardflow/wardflow/internal/domain"
	"github.com/wardflow/wardflow/internal/domain/billing"
	"github.com/wardflow/wardflow/internal/domain/discount"
	"github.com/wardflow/wardflow/internal/domain/workflow"
)

func TestValidateAmount(t *testing.T) {
	inv := &billing.Invoice{AmountTotal: 100}

	r := &discount.Request{Amount: 0}
	assert.ErrorIs(t, r.ValidateAmount(inv), discount.ErrNonPositiveAmount)

	r.Amount = -10
	assert.ErrorIs(t, r.ValidateAmount(inv), discount.ErrNonPositiveAmount)

	r.Amount = 100.01
	assert.ErrorIs(t, r.ValidateAmount(inv), discount.ErrAmountExceedsInvoice)

	r.Amount = 100
	assert.NoError(t, r.ValidateAmount(inv))

	r.Amount = 25
	assert.NoError(t, r.ValidateAmount(inv))
}

func TestRequestLifecycle(t *testing.T) {
	r := &discount.Request{State: discount.StateDraft}

	require.NoError(t, r.Apply(discount.ActionSubmit, domain.Actor{Role: domain.RoleDiscountCreator}))
	assert.Equal(t, discount.StateSubmitted, r.State)

	require.NoError(t, r.Apply(discount.ActionApprove, domain.Actor{Role: domain.RoleFinancialManager}))
	assert.Equal(t, discount.StateApproved, r.State)

	require.NoError(t, r.Apply(discount.ActionApply, domain.Actor{Role: domain.RoleAccountant}))
	assert.Equal(t, discount.StateApplied, r.State)
}

func TestRequestReject(t *testing.T) {
	r := &discount.Request{State: discount.StateSubmitted}

	require.NoError(t, r.Apply(discount.ActionReject, domain.Actor{Role: domain.RoleFinancialManager}))
	assert.Equal(t, discount.StateRejected, r.State)

	err := r.Apply(discount.ActionApply, domain.Actor{Role: domain.RoleAccountant})
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
	assert.Equal(t, discount.StateRejected, r.State)
}

func TestRequestPermissionDeniedLeavesState(t *testing.T) {
	r := &discount.Request{State: discount.StateSubmitted}

	err := r.Apply(discount.ActionApprove, domain.Actor{Role: domain.RoleDiscountCreator})
	assert.ErrorIs(t, err, workflow.ErrPermissionDenied)
	assert.Equal(t, discount.StateSubmitted, r.State)
}

func TestApplyNeedsApproval(t *testing.T) {
	r := &discount.Request{State: discount.StateSubmitted}

	err := r.Apply(discount.ActionApply, domain.Actor{Role: domain.RoleAccountant})
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
	assert.Equal(t, discount.StateSubmitted, r.State)
}
