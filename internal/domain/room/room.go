package room

import (
	"time"

	"github.com/google/uuid"
	"github.com/wardflow/wardflow/internal/domain"
	"github.com/wardflow/wardflow/internal/domain/workflow"
)

type RoomType string

const (
	TypeStandard RoomType = "standard"
	TypePrivate  RoomType = "private"
)

func (t RoomType) IsValid() bool {
	return t == TypeStandard || t == TypePrivate
}

type ServiceType string

const (
	ServiceBasic    ServiceType = "basic"
	ServiceOptional ServiceType = "optional"
)

func (t ServiceType) IsValid() bool {
	return t == ServiceBasic || t == ServiceOptional
}

// State transitions:
//
//	available ⇄ partially_booked ⇄ fully_booked   (derived from occupancy)
//	available → under_maintenance → available      (explicit)
//	available → out_of_service → available         (explicit)
type State string

const (
	StateAvailable        State = "available"
	StatePartiallyBooked  State = "partially_booked"
	StateFullyBooked      State = "fully_booked"
	StateUnderMaintenance State = "under_maintenance"
	StateOutOfService     State = "out_of_service"
)

const (
	ActionSetUnderMaintenance workflow.Action = "set_under_maintenance"
	ActionSetOutOfService     workflow.Action = "set_out_of_service"
	ActionRestore             workflow.Action = "restore"
)

// Maintenance transitions are explicit and independent of occupancy; each is
// only legal from the state named in its rule.
var Maintenance = workflow.NewMachine("room", map[workflow.Action][]workflow.Rule[State]{
	ActionSetUnderMaintenance: {
		{From: StateAvailable, To: StateUnderMaintenance, Permission: domain.PermRoomMaintain},
	},
	ActionSetOutOfService: {
		{From: StateAvailable, To: StateOutOfService, Permission: domain.PermRoomMaintain},
	},
	ActionRestore: {
		{From: StateUnderMaintenance, To: StateAvailable, Permission: domain.PermRoomMaintain},
		{From: StateOutOfService, To: StateAvailable, Permission: domain.PermRoomMaintain},
	},
})

// Service is a priced room service, either included with the room (basic)
// or selected per admission (optional). Price changes affect future stay
// computations only; admissions do not snapshot prices.
type Service struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	Reference   string      `gorm:"column:reference;type:varchar(20);uniqueIndex;not null"`
	ServiceName string      `gorm:"column:service_name;type:varchar(100);not null"`
	Price       float64     `gorm:"column:price;not null"` // hourly
	Type        ServiceType `gorm:"column:type;type:varchar(10);not null;index"`
	Description string      `gorm:"column:description;type:text"`
}

func (Service) TableName() string {
	return "clinical.room_services"
}

func (s *Service) DisplayName() string {
	if s.ServiceName != "" {
		return s.ServiceName
	}
	return s.Reference
}

type Room struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	Reference string    `gorm:"column:reference;type:varchar(20);uniqueIndex;not null"`
	ClinicID  uuid.UUID `gorm:"column:clinic_id;type:uuid;not null;index"`
	Type      RoomType  `gorm:"column:type;type:varchar(10);not null;index"`

	BedCount   int `gorm:"column:bed_count;not null;default:1"`
	BookedBeds int `gorm:"column:booked_beds;not null;default:0"`

	BaseHourlyPrice float64 `gorm:"column:base_hourly_price;not null"`
	// Base price plus all basic service prices. Recomputed synchronously on
	// every mutating operation; never read stale.
	TotalBaseHourlyPrice float64 `gorm:"column:total_base_hourly_price;not null"`

	BasicServices []Service `gorm:"many2many:clinical.room_basic_services"`

	State State `gorm:"column:state;type:varchar(20);not null;default:'available';index"`
}

func (Room) TableName() string {
	return "clinical.rooms"
}

// AvailableBeds is display-only; transition guards compare BookedBeds with
// BedCount directly.
func (r *Room) AvailableBeds() int {
	return r.BedCount - r.BookedBeds
}

// Bookable reports whether an admission may be confirmed into this room.
func (r *Room) Bookable() bool {
	return r.State == StateAvailable || r.State == StatePartiallyBooked
}

func (r *Room) InMaintenance() bool {
	return r.State == StateUnderMaintenance || r.State == StateOutOfService
}

// RecomputeTotalPrice derives the total hourly price from the base price and
// the loaded basic services.
func (r *Room) RecomputeTotalPrice() {
	total := r.BaseHourlyPrice
	for _, s := range r.BasicServices {
		total += s.Price
	}
	r.TotalBaseHourlyPrice = total
}

// AdjustOccupancy books or releases one bed and refreshes the derived state.
// The result must stay within [0, BedCount]; otherwise the room is left
// unchanged and ErrCapacityExceeded is returned.
func (r *Room) AdjustOccupancy(delta int) error {
	next := r.BookedBeds + delta
	if next < 0 || next > r.BedCount {
		return ErrCapacityExceeded
	}
	r.BookedBeds = next
	r.refreshOccupancyState()
	return nil
}

// refreshOccupancyState applies the occupancy invariant. Maintenance states
// are explicit and never overridden by occupancy changes.
func (r *Room) refreshOccupancyState() {
	if r.InMaintenance() {
		return
	}
	switch {
	case r.BookedBeds <= 0:
		r.State = StateAvailable
	case r.BookedBeds < r.BedCount:
		r.State = StatePartiallyBooked
	default:
		r.State = StateFullyBooked
	}
}

// ApplyMaintenance runs one of the explicit maintenance transitions.
func (r *Room) ApplyMaintenance(action workflow.Action, actor domain.Actor) error {
	next, err := Maintenance.Apply(r.State, action, actor)
	if err != nil {
		return err
	}
	r.State = next
	if next == StateAvailable {
		// Returning from maintenance re-derives the occupancy state.
		r.refreshOccupancyState()
	}
	return nil
}

type CreateRoomCommand struct {
	Reference       string
	ClinicID        uuid.UUID
	Type            RoomType
	BedCount        int
	BaseHourlyPrice float64
	BasicServiceIDs []uuid.UUID
}

type UpdateRoomCommand struct {
	BedCount        *int
	BaseHourlyPrice *float64
	BasicServiceIDs *[]uuid.UUID
}

type CreateServiceCommand struct {
	Reference   string
	ServiceName string
	Price       float64
	Type        ServiceType
	Description string
}

type UpdateServiceCommand struct {
	ServiceName *string
	Price       *float64
	Description *string
}

type ListRoomsQuery struct {
	ClinicID *uuid.UUID
	Type     *RoomType
	State    *State
	Bookable bool
	Page     int
	PageSize int
}

type PagedRooms struct {
	Rooms      []*Room
	TotalCount int64
	Page       int
	PageSize   int
}
