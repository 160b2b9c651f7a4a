package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wardflow/wardflow/internal/domain/room"
	"github.com/wardflow/wardflow/internal/domain/workflow"
	"github.com/wardflow/wardflow/internal/service"
)

type RoomHandler struct {
	roomSvc *service.RoomService
}

func NewRoomHandler(roomSvc *service.RoomService) *RoomHandler {
	return &RoomHandler{roomSvc: roomSvc}
}

type createRoomRequest struct {
	Reference       string        `json:"reference"`
	ClinicID        uuid.UUID     `json:"clinic_id" binding:"required"`
	Type            room.RoomType `json:"type" binding:"required"`
	BedCount        int           `json:"bed_count" binding:"required"`
	BaseHourlyPrice float64       `json:"base_hourly_price"`
	BasicServiceIDs []uuid.UUID   `json:"basic_service_ids"`
}

func (h *RoomHandler) Create(c *gin.Context) {
	var req createRoomRequest
	if !bindJSON(c, &req) {
		return
	}

	r, err := h.roomSvc.CreateRoom(c.Request.Context(), &room.CreateRoomCommand{
		Reference:       req.Reference,
		ClinicID:        req.ClinicID,
		Type:            req.Type,
		BedCount:        req.BedCount,
		BaseHourlyPrice: req.BaseHourlyPrice,
		BasicServiceIDs: req.BasicServiceIDs,
	}, actorFromContext(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, r)
}

type updateRoomRequest struct {
	BedCount        *int         `json:"bed_count"`
	BaseHourlyPrice *float64     `json:"base_hourly_price"`
	BasicServiceIDs *[]uuid.UUID `json:"basic_service_ids"`
}

func (h *RoomHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updateRoomRequest
	if !bindJSON(c, &req) {
		return
	}

	r, err := h.roomSvc.UpdateRoom(c.Request.Context(), id, &room.UpdateRoomCommand{
		BedCount:        req.BedCount,
		BaseHourlyPrice: req.BaseHourlyPrice,
		BasicServiceIDs: req.BasicServiceIDs,
	}, actorFromContext(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, r)
}

func (h *RoomHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	r, err := h.roomSvc.GetRoom(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, r)
}

func (h *RoomHandler) List(c *gin.Context) {
	q := &room.ListRoomsQuery{
		Bookable: c.Query("bookable") == "true",
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("clinic_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid clinic_id")
			return
		}
		q.ClinicID = &id
	}
	if raw := c.Query("type"); raw != "" {
		t := room.RoomType(raw)
		q.Type = &t
	}
	if raw := c.Query("state"); raw != "" {
		st := room.State(raw)
		q.State = &st
	}

	page, err := h.roomSvc.ListRooms(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, page)
}

type maintenanceRequest struct {
	Action string `json:"action" binding:"required"`
}

// SetMaintenance runs one of the explicit room transitions:
// set_under_maintenance, set_out_of_service, restore.
func (h *RoomHandler) SetMaintenance(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req maintenanceRequest
	if !bindJSON(c, &req) {
		return
	}

	action := workflow.Action(req.Action)
	switch action {
	case room.ActionSetUnderMaintenance, room.ActionSetOutOfService, room.ActionRestore:
	default:
		respondError(c, http.StatusBadRequest, "unknown maintenance action")
		return
	}

	r, err := h.roomSvc.SetMaintenanceState(c.Request.Context(), id, action, actorFromContext(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, r)
}

type createServiceRequest struct {
	Reference   string           `json:"reference"`
	ServiceName string           `json:"service_name" binding:"required"`
	Price       float64          `json:"price"`
	Type        room.ServiceType `json:"type" binding:"required"`
	Description string           `json:"description"`
}

func (h *RoomHandler) CreateService(c *gin.Context) {
	var req createServiceRequest
	if !bindJSON(c, &req) {
		return
	}

	svc, err := h.roomSvc.CreateService(c.Request.Context(), &room.CreateServiceCommand{
		Reference:   req.Reference,
		ServiceName: req.ServiceName,
		Price:       req.Price,
		Type:        req.Type,
		Description: req.Description,
	}, actorFromContext(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, svc)
}

type updateServiceRequest struct {
	ServiceName *string  `json:"service_name"`
	Price       *float64 `json:"price"`
	Description *string  `json:"description"`
}

func (h *RoomHandler) UpdateService(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updateServiceRequest
	if !bindJSON(c, &req) {
		return
	}

	svc, err := h.roomSvc.UpdateService(c.Request.Context(), id, &room.UpdateServiceCommand{
		ServiceName: req.ServiceName,
		Price:       req.Price,
		Description: req.Description,
	}, actorFromContext(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, svc)
}

func (h *RoomHandler) ListServices(c *gin.Context) {
	t := room.ServiceType(c.DefaultQuery("type", string(room.ServiceBasic)))
	services, err := h.roomSvc.ListServices(c.Request.Context(), t)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, services)
}
