package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error

	// GetByID retrieves a patient with doctors and log history preloaded.
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	Update(ctx context.Context, p *Patient) error

	// AppendLog stores a log-history entry for the patient.
	AppendLog(ctx context.Context, e *LogEntry) error

	Delete(ctx context.Context, id uuid.UUID) error

	List(ctx context.Context, q *ListPatientsQuery) (*PagedPatients, error)

	// ExistsByEmail checks email uniqueness without fetching the record.
	ExistsByEmail(ctx context.Context, email string, excludeID *uuid.UUID) (bool, error)
}

type DepartmentRepository interface {
	Create(ctx context.Context, d *Department) error
	GetByID(ctx context.Context, id uuid.UUID) (*Department, error)
	List(ctx context.Context) ([]*Department, error)
}

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]Doctor, error)
	List(ctx context.Context) ([]*Doctor, error)
}
