package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wardflow/wardflow/internal/domain"
	"github.com/wardflow/wardflow/internal/domain/admission"
	"github.com/wardflow/wardflow/internal/domain/patient"
	"github.com/wardflow/wardflow/internal/domain/room"
	"github.com/wardflow/wardflow/internal/domain/sequence"
	"github.com/wardflow/wardflow/pkg/metrics"
	"go.uber.org/zap"
)

type AdmissionService struct {
	admissions  admission.Repository
	rooms       room.Repository
	services    room.ServiceRepository
	patientRepo patient.Repository
	billingSvc  *BillingService
	seq         sequence.Generator
	tx          TxRunner
	auditSvc    *AuditService
	collector   *metrics.Collector
	log         *zap.Logger
	now         func() time.Time
}

func NewAdmissionService(
	admissions admission.Repository,
	rooms room.Repository,
	services room.ServiceRepository,
	patientRepo patient.Repository,
	billingSvc *BillingService,
	seq sequence.Generator,
	tx TxRunner,
	auditSvc *AuditService,
	collector *metrics.Collector,
	log *zap.Logger,
) *AdmissionService {
	return &AdmissionService{
		admissions:  admissions,
		rooms:       rooms,
		services:    services,
		patientRepo: patientRepo,
		billingSvc:  billingSvc,
		seq:         seq,
		tx:          tx,
		auditSvc:    auditSvc,
		collector:   collector,
		log:         log,
		now:         time.Now,
	}
}

func (s *AdmissionService) CreateAdmission(ctx context.Context, cmd *admission.CreateAdmissionCommand, actor domain.Actor, ip string) (*admission.Admission, error) {
	if !cmd.RoomType.IsValid() {
		return nil, room.ErrInvalidRoomType
	}

	p, err := s.patientRepo.GetByID(ctx, cmd.PatientID)
	if err != nil {
		return nil, fmt.Errorf("verifying patient: %w", err)
	}

	active, err := s.admissions.HasActive(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("checking active admissions: %w", err)
	}
	if active {
		return nil, admission.ErrPatientAlreadyStayed
	}

	r, err := s.rooms.GetByID(ctx, cmd.RoomID)
	if err != nil {
		return nil, err
	}
	if r.Type != cmd.RoomType {
		return nil, admission.ErrRoomTypeMismatch
	}
	if !r.Bookable() {
		return nil, admission.ErrRoomNotBookable
	}

	optional, err := s.optionalServices(ctx, cmd.OptionalServiceIDs)
	if err != nil {
		return nil, err
	}

	a := &admission.Admission{
		Reference:        cmd.Reference,
		PatientID:        cmd.PatientID,
		RoomID:           cmd.RoomID,
		RoomType:         cmd.RoomType,
		AdmissionDate:    cmd.AdmissionDate,
		OptionalServices: optional,
		State:            admission.StateDraft,
		Currency:         s.billingSvc.currency,
	}
	a.RecomputeTotalPrice(r)

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if a.Reference == "" {
			ref, err := s.seq.Next(ctx, sequence.CodeAdmission)
			if err != nil {
				return fmt.Errorf("generating admission reference: %w", err)
			}
			a.Reference = ref
		}
		return s.admissions.Create(ctx, a)
	})
	if err != nil {
		s.log.Error("failed to create admission", zap.Error(err))
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: actor.UserID.String(), UserRole: string(actor.Role),
		Action: "create", ResourceType: "admission", ResourceID: a.ID.String(), IPAddress: ip,
	})

	return a, nil
}

// Confirm books a bed and moves the admission into progress. The room row is
// locked for the duration of the transaction so two concurrent confirms
// against the same room serialize and booked_beds never exceeds bed_count.
func (s *AdmissionService) Confirm(ctx context.Context, id uuid.UUID, actor domain.Actor, ip string) (*admission.Admission, error) {
	var confirmed *admission.Admission
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.admissions.GetByID(ctx, id)
		if err != nil {
			return err
		}
		r, err := s.rooms.GetByIDForUpdate(ctx, a.RoomID)
		if err != nil {
			return err
		}

		if err := a.Confirm(r, s.now(), actor); err != nil {
			return err
		}

		if err := s.rooms.Update(ctx, r); err != nil {
			return err
		}
		if err := s.admissions.Update(ctx, a); err != nil {
			return err
		}
		confirmed = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.collector.AdmissionsTotal.WithLabelValues(string(admission.StateInProgress)).Inc()
	s.collector.OccupiedBedsGauge.WithLabelValues(string(confirmed.RoomType)).Inc()
	s.audit(ctx, actor, "admission", id, ip, `{"action":"confirm"}`)

	return confirmed, nil
}

// Discharge closes the stay and hands the prepared charge lines to the
// billing adapter, all inside one transaction.
func (s *AdmissionService) Discharge(ctx context.Context, id uuid.UUID, actor domain.Actor, ip string) (*admission.Admission, error) {
	var discharged *admission.Admission
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.admissions.GetByID(ctx, id)
		if err != nil {
			return err
		}
		r, err := s.rooms.GetByIDForUpdate(ctx, a.RoomID)
		if err != nil {
			return err
		}

		lines, err := a.Discharge(r, s.now(), actor)
		if err != nil {
			return err
		}

		if err := s.rooms.Update(ctx, r); err != nil {
			return err
		}
		if err := s.admissions.Update(ctx, a); err != nil {
			return err
		}
		if _, err := s.billingSvc.AddInvoiceItems(ctx, a.PatientID, lines); err != nil {
			return fmt.Errorf("billing discharge: %w", err)
		}
		discharged = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.collector.AdmissionsTotal.WithLabelValues(string(admission.StateDischarged)).Inc()
	s.collector.OccupiedBedsGauge.WithLabelValues(string(discharged.RoomType)).Dec()
	s.log.Info("patient discharged",
		zap.String("admission", discharged.Reference),
		zap.Float64("stay_hours", discharged.StayHours()),
		zap.Float64("total_price", discharged.TotalPrice),
	)
	s.audit(ctx, actor, "admission", id, ip, `{"action":"discharge"}`)

	return discharged, nil
}

// Cancel aborts an admission before discharge, releasing the bed when one
// was booked.
func (s *AdmissionService) Cancel(ctx context.Context, id uuid.UUID, actor domain.Actor, ip string) (*admission.Admission, error) {
	var cancelled *admission.Admission
	var bedReleased bool
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.admissions.GetByID(ctx, id)
		if err != nil {
			return err
		}
		r, err := s.rooms.GetByIDForUpdate(ctx, a.RoomID)
		if err != nil {
			return err
		}

		bedReleased = a.State == admission.StateInProgress
		if err := a.Cancel(r, actor); err != nil {
			return err
		}

		if err := s.rooms.Update(ctx, r); err != nil {
			return err
		}
		if err := s.admissions.Update(ctx, a); err != nil {
			return err
		}
		cancelled = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.collector.AdmissionsTotal.WithLabelValues(string(admission.StateCancelled)).Inc()
	if bedReleased {
		s.collector.OccupiedBedsGauge.WithLabelValues(string(cancelled.RoomType)).Dec()
	}
	s.audit(ctx, actor, "admission", id, ip, `{"action":"cancel"}`)

	return cancelled, nil
}

func (s *AdmissionService) GetAdmission(ctx context.Context, id uuid.UUID) (*admission.Admission, error) {
	return s.admissions.GetByID(ctx, id)
}

func (s *AdmissionService) ListAdmissions(ctx context.Context, q *admission.ListAdmissionsQuery) (*admission.PagedAdmissions, error) {
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.admissions.List(ctx, q)
}

func (s *AdmissionService) optionalServices(ctx context.Context, ids []uuid.UUID) ([]room.Service, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	services, err := s.services.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(services) != len(ids) {
		return nil, room.ErrServiceNotFound
	}
	for _, svc := range services {
		if svc.Type != room.ServiceOptional {
			return nil, admission.ErrOptionalServiceType
		}
	}
	return services, nil
}

func (s *AdmissionService) audit(ctx context.Context, actor domain.Actor, resource string, id uuid.UUID, ip, changes string) {
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: actor.UserID.String(), UserRole: string(actor.Role),
		Action: "transition", ResourceType: resource, ResourceID: id.String(),
		IPAddress: ip, Changes: changes,
	})
}
