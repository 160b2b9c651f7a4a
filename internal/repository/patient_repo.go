package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wardflow/wardflow/internal/domain/patient"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PatientRepository struct {
	db *gorm.DB
}

func NewPatientRepository(db *gorm.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

func (r *PatientRepository) Create(ctx context.Context, p *patient.Patient) error {
	return conn(ctx, r.db).Create(p).Error
}

func (r *PatientRepository) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	var p patient.Patient
	err := conn(ctx, r.db).
		Preload("Doctors").
		Preload("LogHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&p, "id = ? AND deleted_at IS NULL", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, patient.ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching patient: %w", err)
	}
	return &p, nil
}

func (r *PatientRepository) Update(ctx context.Context, p *patient.Patient) error {
	db := conn(ctx, r.db)
	if err := db.Omit(clause.Associations).Save(p).Error; err != nil {
		return fmt.Errorf("updating patient: %w", err)
	}
	if p.Doctors != nil {
		if err := db.Model(p).Association("Doctors").Replace(p.Doctors); err != nil {
			return fmt.Errorf("updating patient doctors: %w", err)
		}
	}
	return nil
}

func (r *PatientRepository) AppendLog(ctx context.Context, e *patient.LogEntry) error {
	return conn(ctx, r.db).Create(e).Error
}

func (r *PatientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	res := conn(ctx, r.db).Model(&patient.Patient{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", &now)
	if res.Error != nil {
		return fmt.Errorf("deleting patient: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepository) List(ctx context.Context, q *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	db := conn(ctx, r.db).Model(&patient.Patient{}).Where("deleted_at IS NULL")

	if q.Search != "" {
		like := "%" + q.Search + "%"
		db = db.Where("first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?", like, like, like)
	}
	if q.Condition != nil {
		db = db.Where("condition = ?", *q.Condition)
	}
	if q.DepartmentID != nil {
		db = db.Where("department_id = ?", *q.DepartmentID)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting patients: %w", err)
	}

	var patients []*patient.Patient
	err := db.Preload("Doctors").
		Order("last_name ASC, first_name ASC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&patients).Error
	if err != nil {
		return nil, fmt.Errorf("listing patients: %w", err)
	}

	return &patient.PagedPatients{Patients: patients, TotalCount: total, Page: q.Page, PageSize: q.PageSize}, nil
}

func (r *PatientRepository) ExistsByEmail(ctx context.Context, email string, excludeID *uuid.UUID) (bool, error) {
	db := conn(ctx, r.db).Model(&patient.Patient{}).
		Where("LOWER(email) = LOWER(?) AND deleted_at IS NULL", email)
	if excludeID != nil {
		db = db.Where("id <> ?", *excludeID)
	}
	var n int64
	if err := db.Count(&n).Error; err != nil {
		return false, fmt.Errorf("checking patient email: %w", err)
	}
	return n > 0, nil
}

type DepartmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) Create(ctx context.Context, d *patient.Department) error {
	return conn(ctx, r.db).Create(d).Error
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*patient.Department, error) {
	var d patient.Department
	err := conn(ctx, r.db).First(&d, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, patient.ErrDepartmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching department: %w", err)
	}
	return &d, nil
}

func (r *DepartmentRepository) List(ctx context.Context) ([]*patient.Department, error) {
	var departments []*patient.Department
	if err := conn(ctx, r.db).Order("name ASC").Find(&departments).Error; err != nil {
		return nil, fmt.Errorf("listing departments: %w", err)
	}
	return departments, nil
}

type DoctorRepository struct {
	db *gorm.DB
}

func NewDoctorRepository(db *gorm.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

func (r *DoctorRepository) Create(ctx context.Context, d *patient.Doctor) error {
	return conn(ctx, r.db).Create(d).Error
}

func (r *DoctorRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]patient.Doctor, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var doctors []patient.Doctor
	if err := conn(ctx, r.db).Find(&doctors, "id IN ?", ids).Error; err != nil {
		return nil, fmt.Errorf("fetching doctors: %w", err)
	}
	return doctors, nil
}

func (r *DoctorRepository) List(ctx context.Context) ([]*patient.Doctor, error) {
	var doctors []*patient.Doctor
	if err := conn(ctx, r.db).Order("name ASC").Find(&doctors).Error; err != nil {
		return nil, fmt.Errorf("listing doctors: %w", err)
	}
	return doctors, nil
}
