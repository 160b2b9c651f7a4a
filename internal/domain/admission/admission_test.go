package admission_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wardflow/wardflow/internal/domain"
	"github.com/wardflow/wardflow/internal/domain/admission"
	"github.com/wardflow/wardflow/internal/domain/room"
	"github.com/wardflow/wardflow/internal/domain/workflow"
)

var reception = domain.Actor{Role: domain.RoleReception}

func newRoom(beds int, basePrice float64) *room.Room {
	r := &room.Room{
		Reference:       "RM00001",
		Type:            room.TypeStandard,
		BedCount:        beds,
		BaseHourlyPrice: basePrice,
		State:           room.StateAvailable,
	}
	r.RecomputeTotalPrice()
	return r
}

func newAdmission() *admission.Admission {
	return &admission.Admission{
		Reference: "ADM00001",
		RoomType:  room.TypeStandard,
		State:     admission.StateDraft,
		Currency:  "USD",
	}
}

func TestConfirmBooksBedAndSetsDate(t *testing.T) {
	r := newRoom(1, 50)
	a := newAdmission()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, a.Confirm(r, now, reception))

	assert.Equal(t, admission.StateInProgress, a.State)
	assert.Equal(t, 1, r.BookedBeds)
	assert.Equal(t, room.StateFullyBooked, r.State)
	require.NotNil(t, a.AdmissionDate)
	assert.Equal(t, now, *a.AdmissionDate)
}

func TestConfirmKeepsExplicitAdmissionDate(t *testing.T) {
	r := newRoom(1, 50)
	a := newAdmission()
	planned := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	a.AdmissionDate = &planned

	require.NoError(t, a.Confirm(r, planned.Add(2*time.Hour), reception))
	assert.Equal(t, planned, *a.AdmissionDate)
}

func TestConfirmFullRoomIsNoOp(t *testing.T) {
	r := newRoom(1, 50)
	require.NoError(t, r.AdjustOccupancy(+1))

	a := newAdmission()
	err := a.Confirm(r, time.Now(), reception)

	assert.ErrorIs(t, err, room.ErrCapacityExceeded)
	assert.Equal(t, admission.StateDraft, a.State)
	assert.Nil(t, a.AdmissionDate)
	assert.Equal(t, 1, r.BookedBeds)
}

func TestConfirmFromTerminalState(t *testing.T) {
	r := newRoom(1, 50)
	a := newAdmission()
	a.State = admission.StateDischarged

	err := a.Confirm(r, time.Now(), reception)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
	assert.Equal(t, 0, r.BookedBeds)
}

func TestConfirmPermission(t *testing.T) {
	r := newRoom(1, 50)
	a := newAdmission()

	err := a.Confirm(r, time.Now(), domain.Actor{Role: domain.RoleClaimUser})
	assert.ErrorIs(t, err, workflow.ErrPermissionDenied)
	assert.Equal(t, admission.StateDraft, a.State)
	assert.Equal(t, 0, r.BookedBeds)
}

func TestDischargePricesStayAndPreparesLines(t *testing.T) {
	r := newRoom(1, 50)
	a := newAdmission()
	a.OptionalServices = []room.Service{
		{ServiceName: "Physiotherapy", Price: 10, Type: room.ServiceOptional},
	}

	admitted := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, a.Confirm(r, admitted, reception))

	lines, err := a.Discharge(r, admitted.Add(5*time.Hour), reception)
	require.NoError(t, err)

	assert.Equal(t, admission.StateDischarged, a.State)
	assert.Equal(t, 0, r.BookedBeds)
	assert.Equal(t, room.StateAvailable, r.State)
	assert.Equal(t, 5.0, a.StayHours())
	// 5h x (50 room + 10 optional service)
	assert.Equal(t, 300.0, a.TotalPrice)

	require.Len(t, lines, 2)
	assert.Equal(t, "Room Charge: RM00001", lines[0].Description)
	assert.Equal(t, 5.0, lines[0].Quantity)
	assert.Equal(t, 50.0, lines[0].UnitPrice)
	assert.Equal(t, "Service: Physiotherapy", lines[1].Description)
	assert.Equal(t, 5.0, lines[1].Quantity)
	assert.Equal(t, 10.0, lines[1].UnitPrice)
}

func TestDischargeFractionalHours(t *testing.T) {
	r := newRoom(1, 100)
	a := newAdmission()

	admitted := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, a.Confirm(r, admitted, reception))

	_, err := a.Discharge(r, admitted.Add(90*time.Minute), reception)
	require.NoError(t, err)
	assert.Equal(t, 1.5, a.StayHours())
	assert.Equal(t, 150.0, a.TotalPrice)
}

func TestDischargeNonPositiveStayIsNoOp(t *testing.T) {
	r := newRoom(1, 50)
	a := newAdmission()

	admitted := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, a.Confirm(r, admitted, reception))

	_, err := a.Discharge(r, admitted, reception)
	assert.ErrorIs(t, err, admission.ErrInvalidStayDuration)
	assert.Equal(t, admission.StateInProgress, a.State)
	assert.Nil(t, a.DischargeDate)
	assert.Equal(t, 1, r.BookedBeds)
	assert.Zero(t, a.TotalPrice)
}

func TestDischargeDraftRejected(t *testing.T) {
	r := newRoom(1, 50)
	a := newAdmission()

	_, err := a.Discharge(r, time.Now(), reception)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestCancelConfirmedReleasesBed(t *testing.T) {
	r := newRoom(1, 50)
	a := newAdmission()
	require.NoError(t, a.Confirm(r, time.Now(), reception))

	require.NoError(t, a.Cancel(r, reception))
	assert.Equal(t, admission.StateCancelled, a.State)
	assert.Equal(t, 0, r.BookedBeds)
	assert.Equal(t, room.StateAvailable, r.State)
}

func TestCancelDraftLeavesOccupancy(t *testing.T) {
	r := newRoom(1, 50)
	a := newAdmission()

	require.NoError(t, a.Cancel(r, reception))
	assert.Equal(t, admission.StateCancelled, a.State)
	assert.Equal(t, 0, r.BookedBeds)
}

func TestCancelDischargedRejected(t *testing.T) {
	r := newRoom(1, 50)
	a := newAdmission()
	a.State = admission.StateDischarged

	err := a.Cancel(r, reception)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
	assert.Equal(t, admission.StateDischarged, a.State)
}

func TestHourlyRateIncludesOptionalServices(t *testing.T) {
	r := newRoom(1, 50)
	r.BasicServices = []room.Service{{ServiceName: "Cleaning", Price: 15, Type: room.ServiceBasic}}
	r.RecomputeTotalPrice()

	a := newAdmission()
	a.OptionalServices = []room.Service{{ServiceName: "TV", Price: 5, Type: room.ServiceOptional}}

	assert.Equal(t, 70.0, a.HourlyRate(r))
}
