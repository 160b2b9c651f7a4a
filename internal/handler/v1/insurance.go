package v1

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wardflow/wardflow/internal/domain"
	"github.com/wardflow/wardflow/internal/domain/insurance"
	"github.com/wardflow/wardflow/internal/service"
)

type InsuranceHandler struct {
	insuranceSvc *service.InsuranceService
}

func NewInsuranceHandler(insuranceSvc *service.InsuranceService) *InsuranceHandler {
	return &InsuranceHandler{insuranceSvc: insuranceSvc}
}

type createCompanyRequest struct {
	Name               string  `json:"name" binding:"required"`
	Phone              string  `json:"phone"`
	Email              string  `json:"email"`
	Website            string  `json:"website"`
	CoveragePercentage float64 `json:"coverage_percentage"`
	PaymentJournal     string  `json:"payment_journal"`
}

func (h *InsuranceHandler) CreateCompany(c *gin.Context) {
	var req createCompanyRequest
	if !bindJSON(c, &req) {
		return
	}

	company, err := h.insuranceSvc.CreateCompany(c.Request.Context(), &insurance.CreateCompanyCommand{
		Name:               req.Name,
		Phone:              req.Phone,
		Email:              req.Email,
		Website:            req.Website,
		CoveragePercentage: req.CoveragePercentage,
		PaymentJournal:     req.PaymentJournal,
	}, actorFromContext(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, company)
}

type updateCompanyRequest struct {
	Phone              *string  `json:"phone"`
	Email              *string  `json:"email"`
	Website            *string  `json:"website"`
	CoveragePercentage *float64 `json:"coverage_percentage"`
	PaymentJournal     *string  `json:"payment_journal"`
}

func (h *InsuranceHandler) UpdateCompany(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updateCompanyRequest
	if !bindJSON(c, &req) {
		return
	}

	company, err := h.insuranceSvc.UpdateCompany(c.Request.Context(), id, &insurance.UpdateCompanyCommand{
		Phone:              req.Phone,
		Email:              req.Email,
		Website:            req.Website,
		CoveragePercentage: req.CoveragePercentage,
		PaymentJournal:     req.PaymentJournal,
	}, actorFromContext(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, company)
}

func (h *InsuranceHandler) ListCompanies(c *gin.Context) {
	companies, err := h.insuranceSvc.ListCompanies(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, companies)
}

type applyInsuranceRequest struct {
	InvoiceID uuid.UUID `json:"invoice_id" binding:"required"`
}

// ApplyInsurance covers an invoice: creates the insurance invoice, appends
// the negative coverage line and opens a draft claim.
func (h *InsuranceHandler) ApplyInsurance(c *gin.Context) {
	var req applyInsuranceRequest
	if !bindJSON(c, &req) {
		return
	}

	claim, err := h.insuranceSvc.ApplyInsurance(c.Request.Context(), req.InvoiceID, actorFromContext(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, claim)
}

func (h *InsuranceHandler) GetClaim(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	claim, err := h.insuranceSvc.GetClaim(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, claim)
}

func (h *InsuranceHandler) ListClaims(c *gin.Context) {
	q := &insurance.ListClaimsQuery{
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("patient_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			q.PatientID = &id
		}
	}
	if raw := c.Query("company_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			q.CompanyID = &id
		}
	}
	if raw := c.Query("state"); raw != "" {
		st := insurance.ClaimState(raw)
		q.State = &st
	}

	page, err := h.insuranceSvc.ListClaims(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, page)
}

func (h *InsuranceHandler) SubmitClaim(c *gin.Context) {
	h.claimTransition(c, h.insuranceSvc.SubmitClaim)
}

func (h *InsuranceHandler) ApproveClaim(c *gin.Context) {
	h.claimTransition(c, h.insuranceSvc.ApproveClaim)
}

func (h *InsuranceHandler) RejectClaim(c *gin.Context) {
	h.claimTransition(c, h.insuranceSvc.RejectClaim)
}

func (h *InsuranceHandler) MarkClaimPaid(c *gin.Context) {
	h.claimTransition(c, h.insuranceSvc.MarkClaimPaid)
}

func (h *InsuranceHandler) claimTransition(
	c *gin.Context,
	fn func(ctx context.Context, id uuid.UUID, actor domain.Actor, ip string) (*insurance.Claim, error),
) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	claim, err := fn(c.Request.Context(), id, actorFromContext(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, claim)
}
