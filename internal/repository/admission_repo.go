package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wardflow/wardflow/internal/domain/admission"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AdmissionRepository struct {
	db *gorm.DB
}

func NewAdmissionRepository(db *gorm.DB) *AdmissionRepository {
	return &AdmissionRepository{db: db}
}

func (r *AdmissionRepository) Create(ctx context.Context, a *admission.Admission) error {
	return conn(ctx, r.db).Create(a).Error
}

func (r *AdmissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*admission.Admission, error) {
	var a admission.Admission
	err := conn(ctx, r.db).Preload("OptionalServices").First(&a, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, admission.ErrAdmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching admission: %w", err)
	}
	return &a, nil
}

func (r *AdmissionRepository) Update(ctx context.Context, a *admission.Admission) error {
	return conn(ctx, r.db).Omit(clause.Associations).Save(a).Error
}

func (r *AdmissionRepository) List(ctx context.Context, q *admission.ListAdmissionsQuery) (*admission.PagedAdmissions, error) {
	db := conn(ctx, r.db).Model(&admission.Admission{})

	if q.PatientID != nil {
		db = db.Where("patient_id = ?", *q.PatientID)
	}
	if q.RoomID != nil {
		db = db.Where("room_id = ?", *q.RoomID)
	}
	if q.State != nil {
		db = db.Where("state = ?", *q.State)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting admissions: %w", err)
	}

	var admissions []*admission.Admission
	err := db.Preload("OptionalServices").
		Order("created_at DESC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&admissions).Error
	if err != nil {
		return nil, fmt.Errorf("listing admissions: %w", err)
	}

	return &admission.PagedAdmissions{Admissions: admissions, TotalCount: total, Page: q.Page, PageSize: q.PageSize}, nil
}

func (r *AdmissionRepository) HasActive(ctx context.Context, patientID uuid.UUID) (bool, error) {
	var n int64
	err := conn(ctx, r.db).Model(&admission.Admission{}).
		Where("patient_id = ? AND state IN ?", patientID,
			[]admission.State{admission.StateDraft, admission.StateInProgress}).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("counting active admissions: %w", err)
	}
	return n > 0, nil
}
