package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wardflow/wardflow/internal/domain"
	"github.com/wardflow/wardflow/internal/domain/admission"
	"github.com/wardflow/wardflow/internal/domain/billing"
	"github.com/wardflow/wardflow/internal/domain/discount"
	"github.com/wardflow/wardflow/internal/domain/insurance"
	"github.com/wardflow/wardflow/internal/domain/patient"
	"github.com/wardflow/wardflow/internal/domain/room"
	"github.com/wardflow/wardflow/internal/domain/workflow"
	"github.com/wardflow/wardflow/internal/service"
)

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse[any]{Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

func respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: validErr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, patient.ErrPatientNotFound),
		errors.Is(err, patient.ErrDepartmentNotFound),
		errors.Is(err, room.ErrRoomNotFound),
		errors.Is(err, room.ErrServiceNotFound),
		errors.Is(err, admission.ErrAdmissionNotFound),
		errors.Is(err, billing.ErrInvoiceNotFound),
		errors.Is(err, insurance.ErrCompanyNotFound),
		errors.Is(err, insurance.ErrClaimNotFound),
		errors.Is(err, discount.ErrRequestNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})

	case errors.Is(err, patient.ErrEmailTaken),
		errors.Is(err, insurance.ErrCompanyNameTaken),
		errors.Is(err, patient.ErrPatientHasRecords),
		errors.Is(err, admission.ErrPatientAlreadyStayed):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})

	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, room.ErrCapacityExceeded),
		errors.Is(err, room.ErrInvalidBedCount),
		errors.Is(err, room.ErrNegativePrice),
		errors.Is(err, room.ErrInvalidRoomType),
		errors.Is(err, room.ErrInvalidService),
		errors.Is(err, admission.ErrInvalidStayDuration),
		errors.Is(err, admission.ErrRoomTypeMismatch),
		errors.Is(err, admission.ErrRoomNotBookable),
		errors.Is(err, admission.ErrOptionalServiceType),
		errors.Is(err, billing.ErrInvoiceNotDraft),
		errors.Is(err, billing.ErrInvoiceNotPosted),
		errors.Is(err, billing.ErrNegativeLinePrice),
		errors.Is(err, billing.ErrNonPositiveQuantity),
		errors.Is(err, billing.ErrNoInvoiceLines),
		errors.Is(err, billing.ErrInvoiceNotAdjustable),
		errors.Is(err, billing.ErrMissingJournal),
		errors.Is(err, insurance.ErrCoverageOutOfRange),
		errors.Is(err, insurance.ErrNoInsuranceCompany),
		errors.Is(err, insurance.ErrDiscountApplied),
		errors.Is(err, discount.ErrAmountExceedsInvoice),
		errors.Is(err, discount.ErrNonPositiveAmount),
		errors.Is(err, discount.ErrReasonRequired),
		errors.Is(err, patient.ErrInvalidEmail),
		errors.Is(err, patient.ErrInvalidCondition),
		errors.Is(err, patient.ErrInvalidBloodType),
		errors.Is(err, patient.ErrBirthDateInFuture):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})

	case errors.Is(err, workflow.ErrPermissionDenied),
		errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "access denied"})

	case errors.Is(err, service.ErrAccountInactive):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})

	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})

	case errors.Is(err, service.ErrAccountLocked):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Error: "account temporarily locked",
			Code:  "ACCOUNT_LOCKED",
		})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return false
	}

	return true
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + param + ": must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

func parseQueryInt(c *gin.Context, key string, defaultVal int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return defaultVal
}

// actorFromContext returns the authenticated actor placed by the auth
// middleware. Routes behind the middleware always have one.
func actorFromContext(c *gin.Context) domain.Actor {
	if v, ok := c.Get("claims"); ok {
		if claims, ok := v.(*domain.Claims); ok {
			return claims.Actor()
		}
	}
	return domain.Actor{}
}
