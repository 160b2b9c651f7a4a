package insurance

import (
	"context"

	"github.com/google/uuid"
)

type CompanyRepository interface {
	Create(ctx context.Context, c *Company) error
	GetByID(ctx context.Context, id uuid.UUID) (*Company, error)
	Update(ctx context.Context, c *Company) error
	List(ctx context.Context) ([]*Company, error)
	ExistsByName(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error)
}

type ClaimRepository interface {
	Create(ctx context.Context, c *Claim) error
	GetByID(ctx context.Context, id uuid.UUID) (*Claim, error)
	Update(ctx context.Context, c *Claim) error
	List(ctx context.Context, q *ListClaimsQuery) (*PagedClaims, error)

	// CountByInvoice counts claims referencing the invoice. Used to surface
	// potential double counting of full-coverage claims.
	CountByInvoice(ctx context.Context, invoiceID uuid.UUID) (int64, error)
}
