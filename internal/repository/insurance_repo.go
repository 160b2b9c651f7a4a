package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wardflow/wardflow/internal/domain/insurance"
	"gorm.io/gorm"
)

type InsuranceCompanyRepository struct {
	db *gorm.DB
}

func NewInsuranceCompanyRepository(db *gorm.DB) *InsuranceCompanyRepository {
	return &InsuranceCompanyRepository{db: db}
}

func (r *InsuranceCompanyRepository) Create(ctx context.Context, c *insurance.Company) error {
	return conn(ctx, r.db).Create(c).Error
}

func (r *InsuranceCompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*insurance.Company, error) {
	var c insurance.Company
	err := conn(ctx, r.db).First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, insurance.ErrCompanyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching insurance company: %w", err)
	}
	return &c, nil
}

func (r *InsuranceCompanyRepository) Update(ctx context.Context, c *insurance.Company) error {
	return conn(ctx, r.db).Save(c).Error
}

func (r *InsuranceCompanyRepository) List(ctx context.Context) ([]*insurance.Company, error) {
	var companies []*insurance.Company
	err := conn(ctx, r.db).Order("name ASC").Find(&companies).Error
	if err != nil {
		return nil, fmt.Errorf("listing insurance companies: %w", err)
	}
	return companies, nil
}

func (r *InsuranceCompanyRepository) ExistsByName(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	db := conn(ctx, r.db).Model(&insurance.Company{}).Where("LOWER(name) = LOWER(?)", name)
	if excludeID != nil {
		db = db.Where("id <> ?", *excludeID)
	}
	var n int64
	if err := db.Count(&n).Error; err != nil {
		return false, fmt.Errorf("checking company name: %w", err)
	}
	return n > 0, nil
}

type ClaimRepository struct {
	db *gorm.DB
}

func NewClaimRepository(db *gorm.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

func (r *ClaimRepository) Create(ctx context.Context, c *insurance.Claim) error {
	return conn(ctx, r.db).Create(c).Error
}

func (r *ClaimRepository) GetByID(ctx context.Context, id uuid.UUID) (*insurance.Claim, error) {
	var c insurance.Claim
	err := conn(ctx, r.db).First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, insurance.ErrClaimNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching claim: %w", err)
	}
	return &c, nil
}

func (r *ClaimRepository) Update(ctx context.Context, c *insurance.Claim) error {
	return conn(ctx, r.db).Save(c).Error
}

func (r *ClaimRepository) List(ctx context.Context, q *insurance.ListClaimsQuery) (*insurance.PagedClaims, error) {
	db := conn(ctx, r.db).Model(&insurance.Claim{})

	if q.PatientID != nil {
		db = db.Where("patient_id = ?", *q.PatientID)
	}
	if q.CompanyID != nil {
		db = db.Where("company_id = ?", *q.CompanyID)
	}
	if q.State != nil {
		db = db.Where("state = ?", *q.State)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting claims: %w", err)
	}

	var claims []*insurance.Claim
	err := db.Order("created_at DESC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&claims).Error
	if err != nil {
		return nil, fmt.Errorf("listing claims: %w", err)
	}

	return &insurance.PagedClaims{Claims: claims, TotalCount: total, Page: q.Page, PageSize: q.PageSize}, nil
}

// CountByInvoice counts claims whose invoice covers the same original invoice
// as the one given, the claim on the given invoice included.
func (r *ClaimRepository) CountByInvoice(ctx context.Context, invoiceID uuid.UUID) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Raw(`
		SELECT COUNT(*) FROM billing.insurance_claims c
		JOIN billing.invoices i ON i.id = c.invoice_id
		WHERE i.original_invoice_id = (
			SELECT original_invoice_id FROM billing.invoices WHERE id = ?
		)`, invoiceID).Scan(&n).Error
	if err != nil {
		return 0, fmt.Errorf("counting claims by invoice: %w", err)
	}
	return n, nil
}
