package admission

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wardflow/wardflow/internal/domain"
	"github.com/wardflow/wardflow/internal/domain/billing"
	"github.com/wardflow/wardflow/internal/domain/room"
	"github.com/wardflow/wardflow/internal/domain/workflow"
)

// State transitions:
//
//	draft → in_progress → discharged
//	draft | in_progress → cancelled
//
// discharged and cancelled are terminal.
type State string

const (
	StateDraft      State = "draft"
	StateInProgress State = "in_progress"
	StateDischarged State = "discharged"
	StateCancelled  State = "cancelled"
)

const (
	ActionConfirm   workflow.Action = "confirm"
	ActionDischarge workflow.Action = "discharge"
	ActionCancel    workflow.Action = "cancel"
)

var Transitions = workflow.NewMachine("admission", map[workflow.Action][]workflow.Rule[State]{
	ActionConfirm: {
		{From: StateDraft, To: StateInProgress, Permission: domain.PermAdmissionConfirm},
	},
	ActionDischarge: {
		{From: StateInProgress, To: StateDischarged, Permission: domain.PermAdmissionDischarge},
	},
	ActionCancel: {
		{From: StateDraft, To: StateCancelled, Permission: domain.PermAdmissionCancel},
		{From: StateInProgress, To: StateCancelled, Permission: domain.PermAdmissionCancel},
	},
})

// Admission is a patient's stay episode in a room, billed hourly on
// discharge.
type Admission struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	Reference string    `gorm:"column:reference;type:varchar(20);uniqueIndex;not null"`
	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`
	RoomID    uuid.UUID `gorm:"column:room_id;type:uuid;not null;index"`

	// Must match the room's type; validated on create.
	RoomType room.RoomType `gorm:"column:room_type;type:varchar(10);not null"`

	AdmissionDate *time.Time `gorm:"column:admission_date"`
	DischargeDate *time.Time `gorm:"column:discharge_date"`

	OptionalServices []room.Service `gorm:"many2many:clinical.admission_optional_services"`

	State State `gorm:"column:state;type:varchar(15);not null;default:'draft';index"`

	Currency   string  `gorm:"column:currency;type:varchar(3);not null"`
	TotalPrice float64 `gorm:"column:total_price;not null"`
}

func (Admission) TableName() string {
	return "clinical.admissions"
}

func (a *Admission) Terminal() bool {
	return a.State == StateDischarged || a.State == StateCancelled
}

// StayHours is the stay duration in fractional hours, zero unless both dates
// are set.
func (a *Admission) StayHours() float64 {
	if a.AdmissionDate == nil || a.DischargeDate == nil {
		return 0
	}
	return a.DischargeDate.Sub(*a.AdmissionDate).Hours()
}

// HourlyRate is the room's total base price plus the optional services.
func (a *Admission) HourlyRate(r *room.Room) float64 {
	rate := r.TotalBaseHourlyPrice
	for _, s := range a.OptionalServices {
		rate += s.Price
	}
	return rate
}

// RecomputeTotalPrice derives the stay price. The price is only defined once
// the room and both dates are known; otherwise it is zero.
func (a *Admission) RecomputeTotalPrice(r *room.Room) {
	if r == nil || a.AdmissionDate == nil || a.DischargeDate == nil {
		a.TotalPrice = 0
		return
	}
	a.TotalPrice = a.StayHours() * a.HourlyRate(r)
}

// Confirm moves a draft admission into progress and books a bed. All
// effects apply together or not at all: the transition rule and the room
// capacity are both checked before anything is mutated.
func (a *Admission) Confirm(r *room.Room, now time.Time, actor domain.Actor) error {
	next, err := Transitions.Apply(a.State, ActionConfirm, actor)
	if err != nil {
		return err
	}
	if r.BookedBeds >= r.BedCount {
		return room.ErrCapacityExceeded
	}
	if err := r.AdjustOccupancy(+1); err != nil {
		return err
	}
	if a.AdmissionDate == nil {
		a.AdmissionDate = &now
	}
	a.State = next
	return nil
}

// Discharge closes the stay: sets the discharge date, releases the bed,
// recomputes the stay price and prepares the invoice lines. A non-positive
// stay duration fails with ErrInvalidStayDuration before any effect.
func (a *Admission) Discharge(r *room.Room, now time.Time, actor domain.Actor) ([]billing.LineInput, error) {
	next, err := Transitions.Apply(a.State, ActionDischarge, actor)
	if err != nil {
		return nil, err
	}

	if a.AdmissionDate == nil || !now.After(*a.AdmissionDate) {
		return nil, ErrInvalidStayDuration
	}

	a.DischargeDate = &now
	if err := r.AdjustOccupancy(-1); err != nil {
		a.DischargeDate = nil
		return nil, err
	}
	a.State = next
	a.RecomputeTotalPrice(r)

	return a.prepareInvoiceLines(r), nil
}

// Cancel aborts the admission before discharge. A confirmed admission
// releases its bed, symmetric with Confirm.
func (a *Admission) Cancel(r *room.Room, actor domain.Actor) error {
	wasInProgress := a.State == StateInProgress

	next, err := Transitions.Apply(a.State, ActionCancel, actor)
	if err != nil {
		return err
	}
	if wasInProgress {
		if err := r.AdjustOccupancy(-1); err != nil {
			return err
		}
	}
	a.State = next
	return nil
}

// prepareInvoiceLines builds one room-charge line plus one line per optional
// service, each billed for the exact fractional stay duration.
func (a *Admission) prepareInvoiceLines(r *room.Room) []billing.LineInput {
	stayHours := a.StayHours()

	lines := []billing.LineInput{{
		Description: fmt.Sprintf("Room Charge: %s", r.Reference),
		Quantity:    stayHours,
		UnitPrice:   r.TotalBaseHourlyPrice,
	}}

	for _, s := range a.OptionalServices {
		lines = append(lines, billing.LineInput{
			Description: fmt.Sprintf("Service: %s", s.DisplayName()),
			Quantity:    stayHours,
			UnitPrice:   s.Price,
		})
	}

	return lines
}

type CreateAdmissionCommand struct {
	Reference          string
	PatientID          uuid.UUID
	RoomID             uuid.UUID
	RoomType           room.RoomType
	AdmissionDate      *time.Time
	OptionalServiceIDs []uuid.UUID
}

type ListAdmissionsQuery struct {
	PatientID *uuid.UUID
	RoomID    *uuid.UUID
	State     *State
	Page      int
	PageSize  int
}

type PagedAdmissions struct {
	Admissions []*Admission
	TotalCount int64
	Page       int
	PageSize   int
}
