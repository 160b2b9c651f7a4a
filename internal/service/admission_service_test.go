package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wardflow/wardflow/internal/domain"
	"github.com/wardflow/wardflow/internal/domain/admission"
	"github.com/wardflow/wardflow/internal/domain/room"
	"github.com/wardflow/wardflow/internal/service"
	"go.uber.org/zap"
)

type admissionFixture struct {
	svc        *service.AdmissionService
	admissions *fakeAdmissionRepo
	rooms      *fakeRoomRepo
	invoices   *fakeInvoiceRepo
	tx         *recordingTx
}

func newAdmissionFixture() *admissionFixture {
	f := &admissionFixture{
		admissions: newFakeAdmissionRepo(),
		rooms:      newFakeRoomRepo(),
		invoices:   newFakeInvoiceRepo(),
		tx:         &recordingTx{},
	}
	billingSvc := service.NewBillingService(f.invoices, &fakePaymentRepo{}, &fakeSequence{}, passthroughTx{}, "USD", zap.NewNop())
	f.svc = service.NewAdmissionService(
		f.admissions, f.rooms, newFakeRoomServiceRepo(), newFakePatientRepo(), billingSvc,
		&fakeSequence{}, f.tx, newTestAuditService(), testCollector, zap.NewNop(),
	)
	return f
}

func (f *admissionFixture) seedOccupiedRoom(t *testing.T) *room.Room {
	t.Helper()
	r := &room.Room{
		Reference:            "RM00001",
		ClinicID:             uuid.New(),
		Type:                 room.TypeStandard,
		BedCount:             1,
		BookedBeds:           1,
		BaseHourlyPrice:      50,
		TotalBaseHourlyPrice: 50,
		State:                room.StateFullyBooked,
	}
	require.NoError(t, f.rooms.Create(context.Background(), r))
	return r
}

func (f *admissionFixture) seedStay(t *testing.T, r *room.Room, admittedAt time.Time) *admission.Admission {
	t.Helper()
	a := &admission.Admission{
		Reference:     "ADM00001",
		PatientID:     uuid.New(),
		RoomID:        r.ID,
		RoomType:      r.Type,
		AdmissionDate: &admittedAt,
		OptionalServices: []room.Service{{
			ID:          uuid.New(),
			Reference:   "RS00001",
			ServiceName: "Physiotherapy",
			Price:       10,
			Type:        room.ServiceOptional,
		}},
		State:    admission.StateInProgress,
		Currency: "USD",
	}
	require.NoError(t, f.admissions.Create(context.Background(), a))
	return a
}

func TestDischargeBillsStayOnPatientDraftInvoice(t *testing.T) {
	f := newAdmissionFixture()
	reception := domain.Actor{UserID: uuid.New(), Role: domain.RoleReception}

	r := f.seedOccupiedRoom(t)
	a := f.seedStay(t, r, time.Now().Add(-2*time.Hour))

	discharged, err := f.svc.Discharge(context.Background(), a.ID, reception, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, admission.StateDischarged, discharged.State)
	require.NotNil(t, discharged.DischargeDate)
	assert.InDelta(t, 120.0, discharged.TotalPrice, 1.0)

	roomAfter, err := f.rooms.GetByID(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, roomAfter.BookedBeds)
	assert.Equal(t, room.StateAvailable, roomAfter.State)

	inv, err := f.invoices.FindDraftByPatient(context.Background(), a.PatientID)
	require.NoError(t, err)
	require.Len(t, inv.Lines, 2)

	assert.Equal(t, "Room Charge: RM00001", inv.Lines[0].Description)
	assert.Equal(t, 50.0, inv.Lines[0].UnitPrice)
	assert.InDelta(t, 2.0, inv.Lines[0].Quantity, 0.01)

	assert.Equal(t, "Service: Physiotherapy", inv.Lines[1].Description)
	assert.Equal(t, 10.0, inv.Lines[1].UnitPrice)
	assert.InDelta(t, 2.0, inv.Lines[1].Quantity, 0.01)
}

func TestDischargeBillingFailureAbortsDischarge(t *testing.T) {
	f := newAdmissionFixture()
	reception := domain.Actor{UserID: uuid.New(), Role: domain.RoleReception}

	r := f.seedOccupiedRoom(t)
	a := f.seedStay(t, r, time.Now().Add(-2*time.Hour))
	f.invoices.createErr = errors.New("insert invoice: connection reset")

	_, err := f.svc.Discharge(context.Background(), a.ID, reception, "10.0.0.1")
	require.Error(t, err)
	assert.ErrorContains(t, err, "billing discharge")
	assert.True(t, f.tx.rolledBack, "a billing failure must abort the whole discharge")
}

func TestDischargeRejectsNonPositiveStay(t *testing.T) {
	f := newAdmissionFixture()
	reception := domain.Actor{UserID: uuid.New(), Role: domain.RoleReception}

	r := f.seedOccupiedRoom(t)
	a := f.seedStay(t, r, time.Now().Add(time.Hour))

	_, err := f.svc.Discharge(context.Background(), a.ID, reception, "10.0.0.1")
	assert.ErrorIs(t, err, admission.ErrInvalidStayDuration)

	roomAfter, err := f.rooms.GetByID(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, roomAfter.BookedBeds, "a failed discharge keeps the bed booked")
}

func TestDischargeRequiresDischargePermission(t *testing.T) {
	f := newAdmissionFixture()
	claimUser := domain.Actor{UserID: uuid.New(), Role: domain.RoleClaimUser}

	r := f.seedOccupiedRoom(t)
	a := f.seedStay(t, r, time.Now().Add(-2*time.Hour))

	_, err := f.svc.Discharge(context.Background(), a.ID, claimUser, "10.0.0.1")
	require.Error(t, err)
	assert.Equal(t, 0, len(f.invoices.invoices), "no invoice may be opened for a denied discharge")
}
