package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/wardflow/wardflow/internal/domain"
	"github.com/wardflow/wardflow/internal/domain/room"
	"github.com/wardflow/wardflow/internal/domain/sequence"
	"github.com/wardflow/wardflow/internal/domain/workflow"
	"go.uber.org/zap"
)

type RoomService struct {
	rooms    room.Repository
	services room.ServiceRepository
	seq      sequence.Generator
	tx       TxRunner
	auditSvc *AuditService
	log      *zap.Logger
}

func NewRoomService(
	rooms room.Repository,
	services room.ServiceRepository,
	seq sequence.Generator,
	tx TxRunner,
	auditSvc *AuditService,
	log *zap.Logger,
) *RoomService {
	return &RoomService{rooms: rooms, services: services, seq: seq, tx: tx, auditSvc: auditSvc, log: log}
}

func (s *RoomService) CreateRoom(ctx context.Context, cmd *room.CreateRoomCommand, actor domain.Actor, ip string) (*room.Room, error) {
	var errs []string
	if cmd.BedCount < 1 {
		errs = append(errs, "bed_count must be at least 1")
	}
	if cmd.BaseHourlyPrice < 0 {
		errs = append(errs, "base_hourly_price cannot be negative")
	}
	if !cmd.Type.IsValid() {
		errs = append(errs, "room type is invalid")
	}
	if cmd.ClinicID == uuid.Nil {
		errs = append(errs, "clinic_id is required")
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	// Private rooms with more than one bed are legal but unusual.
	if cmd.Type == room.TypePrivate && cmd.BedCount > 1 {
		s.log.Warn("private room created with more than one bed",
			zap.Int("bed_count", cmd.BedCount),
		)
	}

	basic, err := s.basicServices(ctx, cmd.BasicServiceIDs)
	if err != nil {
		return nil, err
	}

	r := &room.Room{
		Reference:       cmd.Reference,
		ClinicID:        cmd.ClinicID,
		Type:            cmd.Type,
		BedCount:        cmd.BedCount,
		BookedBeds:      0,
		BaseHourlyPrice: cmd.BaseHourlyPrice,
		BasicServices:   basic,
		State:           room.StateAvailable,
	}
	r.RecomputeTotalPrice()

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if r.Reference == "" {
			ref, err := s.seq.Next(ctx, sequence.CodeRoom)
			if err != nil {
				return fmt.Errorf("generating room reference: %w", err)
			}
			r.Reference = ref
		}
		return s.rooms.Create(ctx, r)
	})
	if err != nil {
		s.log.Error("failed to create room", zap.Error(err))
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: actor.UserID.String(), UserRole: string(actor.Role),
		Action: "create", ResourceType: "room", ResourceID: r.ID.String(), IPAddress: ip,
	})

	return r, nil
}

func (s *RoomService) UpdateRoom(ctx context.Context, id uuid.UUID, cmd *room.UpdateRoomCommand, actor domain.Actor, ip string) (*room.Room, error) {
	var updated *room.Room
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		r, err := s.rooms.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if cmd.BedCount != nil {
			if *cmd.BedCount < 1 {
				return room.ErrInvalidBedCount
			}
			if *cmd.BedCount < r.BookedBeds {
				return room.ErrCapacityExceeded
			}
			r.BedCount = *cmd.BedCount
		}
		if cmd.BaseHourlyPrice != nil {
			if *cmd.BaseHourlyPrice < 0 {
				return room.ErrNegativePrice
			}
			r.BaseHourlyPrice = *cmd.BaseHourlyPrice
		}
		if cmd.BasicServiceIDs != nil {
			basic, err := s.basicServices(ctx, *cmd.BasicServiceIDs)
			if err != nil {
				return err
			}
			if err := s.rooms.ReplaceBasicServices(ctx, r, basic); err != nil {
				return err
			}
			r.BasicServices = basic
		}

		// Derived price is stored on write; no stale reads.
		r.RecomputeTotalPrice()
		if err := s.rooms.Update(ctx, r); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: actor.UserID.String(), UserRole: string(actor.Role),
		Action: "update", ResourceType: "room", ResourceID: id.String(), IPAddress: ip,
	})

	return updated, nil
}

func (s *RoomService) GetRoom(ctx context.Context, id uuid.UUID) (*room.Room, error) {
	return s.rooms.GetByID(ctx, id)
}

func (s *RoomService) ListRooms(ctx context.Context, q *room.ListRoomsQuery) (*room.PagedRooms, error) {
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.rooms.List(ctx, q)
}

// SetMaintenanceState runs one of the explicit room transitions
// (set_under_maintenance, set_out_of_service, restore).
func (s *RoomService) SetMaintenanceState(ctx context.Context, id uuid.UUID, action workflow.Action, actor domain.Actor, ip string) (*room.Room, error) {
	var updated *room.Room
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		r, err := s.rooms.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := r.ApplyMaintenance(action, actor); err != nil {
			return err
		}
		if err := s.rooms.Update(ctx, r); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: actor.UserID.String(), UserRole: string(actor.Role),
		Action: "transition", ResourceType: "room", ResourceID: id.String(), IPAddress: ip,
		Changes: fmt.Sprintf(`{"action":%q,"state":%q}`, string(action), string(updated.State)),
	})

	return updated, nil
}

func (s *RoomService) CreateService(ctx context.Context, cmd *room.CreateServiceCommand, actor domain.Actor, ip string) (*room.Service, error) {
	var errs []string
	if strings.TrimSpace(cmd.ServiceName) == "" {
		errs = append(errs, "service_name is required")
	}
	if cmd.Price < 0 {
		errs = append(errs, "price cannot be negative")
	}
	if !cmd.Type.IsValid() {
		errs = append(errs, "service type is invalid")
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	svc := &room.Service{
		Reference:   cmd.Reference,
		ServiceName: strings.TrimSpace(cmd.ServiceName),
		Price:       cmd.Price,
		Type:        cmd.Type,
		Description: cmd.Description,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if svc.Reference == "" {
			ref, err := s.seq.Next(ctx, sequence.CodeRoomService)
			if err != nil {
				return fmt.Errorf("generating service reference: %w", err)
			}
			svc.Reference = ref
		}
		return s.services.Create(ctx, svc)
	})
	if err != nil {
		s.log.Error("failed to create room service", zap.Error(err))
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: actor.UserID.String(), UserRole: string(actor.Role),
		Action: "create", ResourceType: "room_service", ResourceID: svc.ID.String(), IPAddress: ip,
	})

	return svc, nil
}

// UpdateService changes a service's name, price or description. Price
// changes only affect stays priced after the update; closed admissions keep
// the totals computed at discharge.
func (s *RoomService) UpdateService(ctx context.Context, id uuid.UUID, cmd *room.UpdateServiceCommand, actor domain.Actor, ip string) (*room.Service, error) {
	svc, err := s.services.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if cmd.ServiceName != nil {
		name := strings.TrimSpace(*cmd.ServiceName)
		if name == "" {
			return nil, &ValidationError{Fields: []string{"service_name cannot be empty"}}
		}
		svc.ServiceName = name
	}
	if cmd.Price != nil {
		if *cmd.Price < 0 {
			return nil, room.ErrNegativePrice
		}
		svc.Price = *cmd.Price
	}
	if cmd.Description != nil {
		svc.Description = *cmd.Description
	}

	if err := s.services.Update(ctx, svc); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: actor.UserID.String(), UserRole: string(actor.Role),
		Action: "update", ResourceType: "room_service", ResourceID: id.String(), IPAddress: ip,
	})

	return svc, nil
}

func (s *RoomService) ListServices(ctx context.Context, t room.ServiceType) ([]room.Service, error) {
	if !t.IsValid() {
		return nil, room.ErrInvalidService
	}
	return s.services.ListByType(ctx, t)
}

// basicServices resolves and checks the basic-service set of a room.
func (s *RoomService) basicServices(ctx context.Context, ids []uuid.UUID) ([]room.Service, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	services, err := s.services.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(services) != len(ids) {
		return nil, room.ErrServiceNotFound
	}
	for _, svc := range services {
		if svc.Type != room.ServiceBasic {
			return nil, &ValidationError{Fields: []string{
				fmt.Sprintf("service %s is not a basic service", svc.Reference),
			}}
		}
	}
	return services, nil
}
