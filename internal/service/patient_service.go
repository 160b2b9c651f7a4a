package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wardflow/wardflow/internal/domain"
	"github.com/wardflow/wardflow/internal/domain/billing"
	"github.com/wardflow/wardflow/internal/domain/patient"
	"go.uber.org/zap"
)

type PatientService struct {
	repo        patient.Repository
	departments patient.DepartmentRepository
	doctors     patient.DoctorRepository
	invoices    billing.Repository
	auditSvc    *AuditService
	log         *zap.Logger
}

func NewPatientService(
	repo patient.Repository,
	departments patient.DepartmentRepository,
	doctors patient.DoctorRepository,
	invoices billing.Repository,
	auditSvc *AuditService,
	log *zap.Logger,
) *PatientService {
	return &PatientService{
		repo:        repo,
		departments: departments,
		doctors:     doctors,
		invoices:    invoices,
		auditSvc:    auditSvc,
		log:         log,
	}
}

func (s *PatientService) CreatePatient(ctx context.Context, cmd *patient.CreatePatientCommand, actor domain.Actor, ip string) (*patient.Patient, error) {
	if err := validatePatientCommand(cmd); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if email != "" {
		exists, err := s.repo.ExistsByEmail(ctx, email, nil)
		if err != nil {
			s.log.Error("failed to check email uniqueness", zap.Error(err))
			return nil, fmt.Errorf("checking uniqueness: %w", err)
		}
		if exists {
			return nil, patient.ErrEmailTaken
		}
	}

	if cmd.DepartmentID != nil {
		if _, err := s.departments.GetByID(ctx, *cmd.DepartmentID); err != nil {
			return nil, err
		}
	}

	docs, err := s.doctors.GetByIDs(ctx, cmd.DoctorIDs)
	if err != nil {
		return nil, err
	}

	p := &patient.Patient{
		FirstName:          strings.TrimSpace(cmd.FirstName),
		LastName:           strings.TrimSpace(cmd.LastName),
		Email:              email,
		BirthDate:          cmd.BirthDate,
		History:            cmd.History,
		CRRatio:            cmd.CRRatio,
		BloodType:          cmd.BloodType,
		Address:            cmd.Address,
		DepartmentID:       cmd.DepartmentID,
		InsuranceCompanyID: cmd.InsuranceCompanyID,
		Doctors:            docs,
		Condition:          patient.ConditionUndetermined,
	}
	p.ApplyPCRRule()

	if err := s.repo.Create(ctx, p); err != nil {
		s.log.Error("failed to create patient", zap.Error(err))
		return nil, fmt.Errorf("creating patient: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: actor.UserID.String(), UserRole: string(actor.Role),
		Action: "create", ResourceType: "patient", ResourceID: p.ID.String(), IPAddress: ip,
	})

	return p, nil
}

func (s *PatientService) UpdatePatient(ctx context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand, actor domain.Actor, ip string) (*patient.Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if cmd.FirstName != nil {
		p.FirstName = strings.TrimSpace(*cmd.FirstName)
	}
	if cmd.LastName != nil {
		p.LastName = strings.TrimSpace(*cmd.LastName)
	}
	if cmd.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*cmd.Email))
		if err := patient.ValidateEmail(email); err != nil {
			return nil, err
		}
		if email != "" && email != p.Email {
			exists, err := s.repo.ExistsByEmail(ctx, email, &id)
			if err != nil {
				return nil, fmt.Errorf("checking uniqueness: %w", err)
			}
			if exists {
				return nil, patient.ErrEmailTaken
			}
		}
		p.Email = email
	}
	if cmd.History != nil {
		p.History = *cmd.History
	}
	if cmd.CRRatio != nil {
		p.CRRatio = *cmd.CRRatio
	}
	if cmd.BloodType != nil {
		if !cmd.BloodType.IsValid() {
			return nil, patient.ErrInvalidBloodType
		}
		p.BloodType = *cmd.BloodType
	}
	if cmd.Address != nil {
		p.Address = *cmd.Address
	}
	if cmd.DepartmentID != nil {
		if _, err := s.departments.GetByID(ctx, *cmd.DepartmentID); err != nil {
			return nil, err
		}
		p.DepartmentID = cmd.DepartmentID
	}
	if cmd.InsuranceCompanyID != nil {
		p.InsuranceCompanyID = cmd.InsuranceCompanyID
	}
	if cmd.DoctorIDs != nil {
		docs, err := s.doctors.GetByIDs(ctx, *cmd.DoctorIDs)
		if err != nil {
			return nil, err
		}
		p.Doctors = docs
	}
	p.ApplyPCRRule()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: actor.UserID.String(), UserRole: string(actor.Role),
		Action: "update", ResourceType: "patient", ResourceID: id.String(), IPAddress: ip,
	})

	return p, nil
}

// SetCondition changes the clinical condition and appends the matching
// log-history entry.
func (s *PatientService) SetCondition(ctx context.Context, id uuid.UUID, c patient.Condition, actor domain.Actor, ip string) (*patient.Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	entry, err := p.SetCondition(c)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	if err := s.repo.AppendLog(ctx, entry); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: actor.UserID.String(), UserRole: string(actor.Role),
		Action: "update", ResourceType: "patient", ResourceID: id.String(), IPAddress: ip,
		Changes: fmt.Sprintf(`{"condition":%q}`, string(c)),
	})

	return p, nil
}

func (s *PatientService) GetPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *PatientService) DeletePatient(ctx context.Context, id uuid.UUID, actor domain.Actor, ip string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	// A patient linked to billing records stays on file.
	invoices, err := s.invoices.ListByPatient(ctx, id)
	if err != nil {
		return fmt.Errorf("checking linked invoices: %w", err)
	}
	if len(invoices) > 0 {
		return patient.ErrPatientHasRecords
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: actor.UserID.String(), UserRole: string(actor.Role),
		Action: "delete", ResourceType: "patient", ResourceID: id.String(), IPAddress: ip,
	})

	return nil
}

func (s *PatientService) ListPatients(ctx context.Context, q *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.repo.List(ctx, q)
}

func validatePatientCommand(cmd *patient.CreatePatientCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.FirstName) == "" {
		errs = append(errs, "first_name is required")
	}
	if strings.TrimSpace(cmd.LastName) == "" {
		errs = append(errs, "last_name is required")
	}
	if cmd.BirthDate.IsZero() {
		errs = append(errs, "birth_date is required")
	}
	if cmd.BirthDate.After(time.Now()) {
		errs = append(errs, "birth_date cannot be in the future")
	}
	if err := patient.ValidateEmail(strings.TrimSpace(cmd.Email)); err != nil {
		errs = append(errs, err.Error())
	}
	if cmd.BloodType != "" && !cmd.BloodType.IsValid() {
		errs = append(errs, "blood_type is invalid")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
