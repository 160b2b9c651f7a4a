package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wardflow/wardflow/internal/domain/room"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) Create(ctx context.Context, rm *room.Room) error {
	return conn(ctx, r.db).Create(rm).Error
}

func (r *RoomRepository) GetByID(ctx context.Context, id uuid.UUID) (*room.Room, error) {
	var rm room.Room
	err := conn(ctx, r.db).Preload("BasicServices").First(&rm, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, room.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching room: %w", err)
	}
	return &rm, nil
}

// GetByIDForUpdate locks the room row for the rest of the transaction;
// concurrent occupancy changes on the same room serialize here. Preloads run
// as separate queries and take no lock.
func (r *RoomRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*room.Room, error) {
	var rm room.Room
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("BasicServices").
		First(&rm, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, room.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("locking room: %w", err)
	}
	return &rm, nil
}

func (r *RoomRepository) Update(ctx context.Context, rm *room.Room) error {
	return conn(ctx, r.db).Omit(clause.Associations).Save(rm).Error
}

func (r *RoomRepository) ReplaceBasicServices(ctx context.Context, rm *room.Room, services []room.Service) error {
	if err := conn(ctx, r.db).Model(rm).Association("BasicServices").Replace(services); err != nil {
		return fmt.Errorf("replacing basic services: %w", err)
	}
	rm.BasicServices = services
	return nil
}

func (r *RoomRepository) List(ctx context.Context, q *room.ListRoomsQuery) (*room.PagedRooms, error) {
	db := conn(ctx, r.db).Model(&room.Room{})

	if q.ClinicID != nil {
		db = db.Where("clinic_id = ?", *q.ClinicID)
	}
	if q.Type != nil {
		db = db.Where("type = ?", *q.Type)
	}
	if q.State != nil {
		db = db.Where("state = ?", *q.State)
	}
	if q.Bookable {
		db = db.Where("state IN ?", []room.State{room.StateAvailable, room.StatePartiallyBooked})
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting rooms: %w", err)
	}

	var rooms []*room.Room
	err := db.Preload("BasicServices").
		Order("reference ASC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("listing rooms: %w", err)
	}

	return &room.PagedRooms{Rooms: rooms, TotalCount: total, Page: q.Page, PageSize: q.PageSize}, nil
}

type RoomServiceRepository struct {
	db *gorm.DB
}

func NewRoomServiceRepository(db *gorm.DB) *RoomServiceRepository {
	return &RoomServiceRepository{db: db}
}

func (r *RoomServiceRepository) Create(ctx context.Context, s *room.Service) error {
	return conn(ctx, r.db).Create(s).Error
}

func (r *RoomServiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*room.Service, error) {
	var s room.Service
	err := conn(ctx, r.db).First(&s, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, room.ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching room service: %w", err)
	}
	return &s, nil
}

func (r *RoomServiceRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]room.Service, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var services []room.Service
	if err := conn(ctx, r.db).Find(&services, "id IN ?", ids).Error; err != nil {
		return nil, fmt.Errorf("fetching room services: %w", err)
	}
	return services, nil
}

func (r *RoomServiceRepository) Update(ctx context.Context, s *room.Service) error {
	return conn(ctx, r.db).Save(s).Error
}

func (r *RoomServiceRepository) ListByType(ctx context.Context, t room.ServiceType) ([]room.Service, error) {
	var services []room.Service
	err := conn(ctx, r.db).Where("type = ?", t).Order("reference ASC").Find(&services).Error
	if err != nil {
		return nil, fmt.Errorf("listing room services: %w", err)
	}
	return services, nil
}
