package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wardflow/wardflow/internal/domain/billing"
	"github.com/wardflow/wardflow/internal/service"
)

type BillingHandler struct {
	billingSvc *service.BillingService
}

func NewBillingHandler(billingSvc *service.BillingService) *BillingHandler {
	return &BillingHandler{billingSvc: billingSvc}
}

func (h *BillingHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	inv, err := h.billingSvc.GetInvoice(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, inv)
}

func (h *BillingHandler) ListByPatient(c *gin.Context) {
	raw := c.Query("patient_id")
	patientID, err := uuid.Parse(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, "patient_id query parameter is required")
		return
	}
	invoices, err := h.billingSvc.ListInvoices(c.Request.Context(), patientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, invoices)
}

type addItemsRequest struct {
	PatientID uuid.UUID           `json:"patient_id" binding:"required"`
	Lines     []billing.LineInput `json:"lines" binding:"required"`
}

// AddItems appends charge lines to the patient's open draft invoice,
// creating one when none exists.
func (h *BillingHandler) AddItems(c *gin.Context) {
	var req addItemsRequest
	if !bindJSON(c, &req) {
		return
	}

	inv, err := h.billingSvc.AddInvoiceItems(c.Request.Context(), req.PatientID, req.Lines)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, inv)
}

func (h *BillingHandler) ListPayments(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	payments, err := h.billingSvc.ListPayments(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, payments)
}

func (h *BillingHandler) Post(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	inv, err := h.billingSvc.GetInvoice(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if err := h.billingSvc.PostInvoice(c.Request.Context(), inv); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, inv)
}
