package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wardflow/wardflow/internal/domain/admission"
	"github.com/wardflow/wardflow/internal/domain/room"
	"github.com/wardflow/wardflow/internal/service"
)

type AdmissionHandler struct {
	admissionSvc *service.AdmissionService
}

func NewAdmissionHandler(admissionSvc *service.AdmissionService) *AdmissionHandler {
	return &AdmissionHandler{admissionSvc: admissionSvc}
}

type createAdmissionRequest struct {
	Reference          string        `json:"reference"`
	PatientID          uuid.UUID     `json:"patient_id" binding:"required"`
	RoomID             uuid.UUID     `json:"room_id" binding:"required"`
	RoomType           room.RoomType `json:"room_type" binding:"required"`
	AdmissionDate      *time.Time    `json:"admission_date"`
	OptionalServiceIDs []uuid.UUID   `json:"optional_service_ids"`
}

func (h *AdmissionHandler) Create(c *gin.Context) {
	var req createAdmissionRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.admissionSvc.CreateAdmission(c.Request.Context(), &admission.CreateAdmissionCommand{
		Reference:          req.Reference,
		PatientID:          req.PatientID,
		RoomID:             req.RoomID,
		RoomType:           req.RoomType,
		AdmissionDate:      req.AdmissionDate,
		OptionalServiceIDs: req.OptionalServiceIDs,
	}, actorFromContext(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, a)
}

func (h *AdmissionHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	a, err := h.admissionSvc.GetAdmission(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

func (h *AdmissionHandler) List(c *gin.Context) {
	q := &admission.ListAdmissionsQuery{
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("patient_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			q.PatientID = &id
		}
	}
	if raw := c.Query("room_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			q.RoomID = &id
		}
	}
	if raw := c.Query("state"); raw != "" {
		st := admission.State(raw)
		q.State = &st
	}

	page, err := h.admissionSvc.ListAdmissions(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, page)
}

func (h *AdmissionHandler) Confirm(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	a, err := h.admissionSvc.Confirm(c.Request.Context(), id, actorFromContext(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

func (h *AdmissionHandler) Discharge(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	a, err := h.admissionSvc.Discharge(c.Request.Context(), id, actorFromContext(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

func (h *AdmissionHandler) Cancel(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	a, err := h.admissionSvc.Cancel(c.Request.Context(), id, actorFromContext(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}
