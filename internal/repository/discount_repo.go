package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wardflow/wardflow/internal/domain/discount"
	"gorm.io/gorm"
)

type DiscountRepository struct {
	db *gorm.DB
}

func NewDiscountRepository(db *gorm.DB) *DiscountRepository {
	return &DiscountRepository{db: db}
}

func (r *DiscountRepository) Create(ctx context.Context, req *discount.Request) error {
	return conn(ctx, r.db).Create(req).Error
}

func (r *DiscountRepository) GetByID(ctx context.Context, id uuid.UUID) (*discount.Request, error) {
	var req discount.Request
	err := conn(ctx, r.db).First(&req, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, discount.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching discount request: %w", err)
	}
	return &req, nil
}

func (r *DiscountRepository) Update(ctx context.Context, req *discount.Request) error {
	return conn(ctx, r.db).Save(req).Error
}

func (r *DiscountRepository) List(ctx context.Context, q *discount.ListRequestsQuery) (*discount.PagedRequests, error) {
	db := conn(ctx, r.db).Model(&discount.Request{})

	if q.PatientID != nil {
		db = db.Where("patient_id = ?", *q.PatientID)
	}
	if q.InvoiceID != nil {
		db = db.Where("invoice_id = ?", *q.InvoiceID)
	}
	if q.State != nil {
		db = db.Where("state = ?", *q.State)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting discount requests: %w", err)
	}

	var requests []*discount.Request
	err := db.Order("created_at DESC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("listing discount requests: %w", err)
	}

	return &discount.PagedRequests{Requests: requests, TotalCount: total, Page: q.Page, PageSize: q.PageSize}, nil
}
