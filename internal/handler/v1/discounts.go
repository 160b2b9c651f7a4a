package v1

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wardflow/wardflow/internal/domain"
	"github.com/wardflow/wardflow/internal/domain/discount"
	"github.com/wardflow/wardflow/internal/service"
)

type DiscountHandler struct {
	discountSvc *service.DiscountService
}

func NewDiscountHandler(discountSvc *service.DiscountService) *DiscountHandler {
	return &DiscountHandler{discountSvc: discountSvc}
}

type createDiscountRequest struct {
	InvoiceID uuid.UUID `json:"invoice_id" binding:"required"`
	Amount    float64   `json:"amount" binding:"required"`
	Reason    string    `json:"reason" binding:"required"`
}

func (h *DiscountHandler) Create(c *gin.Context) {
	var req createDiscountRequest
	if !bindJSON(c, &req) {
		return
	}

	r, err := h.discountSvc.CreateRequest(c.Request.Context(), &discount.CreateRequestCommand{
		InvoiceID: req.InvoiceID,
		Amount:    req.Amount,
		Reason:    req.Reason,
	}, actorFromContext(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, r)
}

func (h *DiscountHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	r, err := h.discountSvc.GetRequest(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, r)
}

func (h *DiscountHandler) List(c *gin.Context) {
	q := &discount.ListRequestsQuery{
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("patient_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			q.PatientID = &id
		}
	}
	if raw := c.Query("invoice_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			q.InvoiceID = &id
		}
	}
	if raw := c.Query("state"); raw != "" {
		st := discount.State(raw)
		q.State = &st
	}

	page, err := h.discountSvc.ListRequests(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, page)
}

func (h *DiscountHandler) Submit(c *gin.Context) {
	h.transition(c, h.discountSvc.Submit)
}

func (h *DiscountHandler) Approve(c *gin.Context) {
	h.transition(c, h.discountSvc.Approve)
}

func (h *DiscountHandler) Reject(c *gin.Context) {
	h.transition(c, h.discountSvc.Reject)
}

func (h *DiscountHandler) Apply(c *gin.Context) {
	h.transition(c, h.discountSvc.Apply)
}

func (h *DiscountHandler) transition(
	c *gin.Context,
	fn func(ctx context.Context, id uuid.UUID, actor domain.Actor, ip string) (*discount.Request, error),
) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	r, err := fn(c.Request.Context(), id, actorFromContext(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, r)
}
