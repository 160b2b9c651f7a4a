package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wardflow/wardflow/internal/domain/patient"
	"github.com/wardflow/wardflow/internal/service"
	"go.uber.org/zap"
)

type PatientHandler struct {
	patientSvc *service.PatientService
	log        *zap.Logger
}

func NewPatientHandler(patientSvc *service.PatientService, log *zap.Logger) *PatientHandler {
	return &PatientHandler{patientSvc: patientSvc, log: log}
}

type createPatientRequest struct {
	FirstName          string            `json:"first_name" binding:"required"`
	LastName           string            `json:"last_name" binding:"required"`
	Email              string            `json:"email"`
	BirthDate          time.Time         `json:"birth_date" binding:"required"`
	History            string            `json:"history"`
	CRRatio            float64           `json:"cr_ratio"`
	BloodType          patient.BloodType `json:"blood_type"`
	Address            string            `json:"address"`
	DepartmentID       *uuid.UUID        `json:"department_id"`
	InsuranceCompanyID *uuid.UUID        `json:"insurance_company_id"`
	DoctorIDs          []uuid.UUID       `json:"doctor_ids"`
}

func (h *PatientHandler) Create(c *gin.Context) {
	var req createPatientRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.patientSvc.CreatePatient(c.Request.Context(), &patient.CreatePatientCommand{
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Email:              req.Email,
		BirthDate:          req.BirthDate,
		History:            req.History,
		CRRatio:            req.CRRatio,
		BloodType:          req.BloodType,
		Address:            req.Address,
		DepartmentID:       req.DepartmentID,
		InsuranceCompanyID: req.InsuranceCompanyID,
		DoctorIDs:          req.DoctorIDs,
	}, actorFromContext(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, projectPatient(p))
}

type updatePatientRequest struct {
	FirstName          *string            `json:"first_name"`
	LastName           *string            `json:"last_name"`
	Email              *string            `json:"email"`
	History            *string            `json:"history"`
	CRRatio            *float64           `json:"cr_ratio"`
	BloodType          *patient.BloodType `json:"blood_type"`
	Address            *string            `json:"address"`
	DepartmentID       *uuid.UUID         `json:"department_id"`
	InsuranceCompanyID *uuid.UUID         `json:"insurance_company_id"`
	DoctorIDs          *[]uuid.UUID       `json:"doctor_ids"`
}

func (h *PatientHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updatePatientRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.patientSvc.UpdatePatient(c.Request.Context(), id, &patient.UpdatePatientCommand{
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Email:              req.Email,
		History:            req.History,
		CRRatio:            req.CRRatio,
		BloodType:          req.BloodType,
		Address:            req.Address,
		DepartmentID:       req.DepartmentID,
		InsuranceCompanyID: req.InsuranceCompanyID,
		DoctorIDs:          req.DoctorIDs,
	}, actorFromContext(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, projectPatient(p))
}

type setConditionRequest struct {
	Condition patient.Condition `json:"condition" binding:"required"`
}

func (h *PatientHandler) SetCondition(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req setConditionRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.patientSvc.SetCondition(c.Request.Context(), id, req.Condition, actorFromContext(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, projectPatient(p))
}

func (h *PatientHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.patientSvc.GetPatient(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, projectPatient(p))
}

// List serves the flat record listing. An empty result responds with the
// "There are no records" message instead of an empty array; callers depend
// on that shape.
func (h *PatientHandler) List(c *gin.Context) {
	q := &patient.ListPatientsQuery{
		Search:   c.Query("search"),
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("condition"); raw != "" {
		cond := patient.Condition(raw)
		q.Condition = &cond
	}

	page, err := h.patientSvc.ListPatients(c.Request.Context(), q)
	if err != nil {
		h.log.Error("failed to list patients", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"message": "There are no records"})
		return
	}
	if len(page.Patients) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "There are no records"})
		return
	}

	projections := make([]patientProjection, 0, len(page.Patients))
	for _, p := range page.Patients {
		projections = append(projections, projectPatient(p))
	}
	c.JSON(http.StatusOK, gin.H{
		"data":        projections,
		"total_count": page.TotalCount,
		"page":        page.Page,
		"page_size":   page.PageSize,
	})
}

// Delete never propagates a fault: the response is {"success": true} or
// {"error": <reason>} with status 200, matching the legacy record-deletion
// endpoint this mirrors.
func (h *PatientHandler) Delete(c *gin.Context) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"error": "invalid patient id"})
		return
	}

	if err := h.patientSvc.DeletePatient(c.Request.Context(), id, actorFromContext(c), c.ClientIP()); err != nil {
		h.log.Warn("patient deletion refused", zap.String("patient_id", raw), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type patientProjection struct {
	ID         uuid.UUID         `json:"id"`
	FirstName  string            `json:"first_name"`
	LastName   string            `json:"last_name"`
	Email      string            `json:"email"`
	BirthDate  time.Time         `json:"birth_date"`
	Age        int               `json:"age"`
	History    string            `json:"history"`
	PCR        bool              `json:"pcr"`
	CRRatio    float64           `json:"cr_ratio"`
	BloodType  patient.BloodType `json:"blood_type"`
	Address    string            `json:"address"`
	Department *uuid.UUID        `json:"department_id,omitempty"`
	Doctors    []string          `json:"doctors"`
	LogHistory []string          `json:"log_history"`
	State      patient.Condition `json:"state"`
}

func projectPatient(p *patient.Patient) patientProjection {
	doctors := make([]string, 0, len(p.Doctors))
	for _, d := range p.Doctors {
		doctors = append(doctors, d.Name)
	}
	logs := make([]string, 0, len(p.LogHistory))
	for _, e := range p.LogHistory {
		logs = append(logs, e.Description)
	}
	return patientProjection{
		ID:         p.ID,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Email:      p.Email,
		BirthDate:  p.BirthDate,
		Age:        p.Age(),
		History:    p.History,
		PCR:        p.PCR,
		CRRatio:    p.CRRatio,
		BloodType:  p.BloodType,
		Address:    p.Address,
		Department: p.DepartmentID,
		Doctors:    doctors,
		LogHistory: logs,
		State:      p.Condition,
	}
}
