package admission

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Admission) error

	// GetByID retrieves an admission with its optional services preloaded.
	GetByID(ctx context.Context, id uuid.UUID) (*Admission, error)

	Update(ctx context.Context, a *Admission) error

	List(ctx context.Context, q *ListAdmissionsQuery) (*PagedAdmissions, error)

	// HasActive reports whether the patient has an admission that is neither
	// discharged nor cancelled.
	HasActive(ctx context.Context, patientID uuid.UUID) (bool, error)
}
