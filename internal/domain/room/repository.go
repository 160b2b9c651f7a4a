package room

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Room) error

	// GetByID retrieves a room with its basic services preloaded.
	GetByID(ctx context.Context, id uuid.UUID) (*Room, error)

	// GetByIDForUpdate retrieves the room under a row lock. Must be called
	// inside a transaction; concurrent occupancy changes serialize on it.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Room, error)

	Update(ctx context.Context, r *Room) error

	// ReplaceBasicServices rewrites the basic-service set of the room.
	ReplaceBasicServices(ctx context.Context, r *Room, services []Service) error

	List(ctx context.Context, q *ListRoomsQuery) (*PagedRooms, error)
}

type ServiceRepository interface {
	Create(ctx context.Context, s *Service) error
	GetByID(ctx context.Context, id uuid.UUID) (*Service, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]Service, error)
	Update(ctx context.Context, s *Service) error
	ListByType(ctx context.Context, t ServiceType) ([]Service, error)
}
