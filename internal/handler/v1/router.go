package v1

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/wardflow/wardflow/internal/config"
	"github.com/wardflow/wardflow/internal/domain"
	"github.com/wardflow/wardflow/internal/middleware"
	"github.com/wardflow/wardflow/pkg/auth"
	"github.com/wardflow/wardflow/pkg/metrics"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth       *AuthHandler
	Patients   *PatientHandler
	Rooms      *RoomHandler
	Admissions *AdmissionHandler
	Billing    *BillingHandler
	Insurance  *InsuranceHandler
	Discounts  *DiscountHandler
}

func NewRouter(
	cfg *config.Config,
	h *Handlers,
	jwtManager *auth.JWTManager,
	collector *metrics.Collector,
	log *zap.Logger,
) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Metrics(collector))
	r.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS.AllowedOrigins,
		AllowMethods: cfg.CORS.AllowedMethods,
		AllowHeaders: cfg.CORS.AllowedHeaders,
		MaxAge:       cfg.CORS.MaxAge,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": cfg.App.Version})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	api := r.Group("/api/v1")

	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)

	protected := api.Group("")
	protected.Use(middleware.Auth(jwtManager))

	protected.POST("/auth/password", h.Auth.ChangePassword)

	patients := protected.Group("/patients")
	{
		patients.GET("", h.Patients.List)
		patients.POST("", h.Patients.Create)
		patients.GET("/:id", h.Patients.Get)
		patients.PUT("/:id", h.Patients.Update)
		patients.PUT("/:id/condition", h.Patients.SetCondition)
		patients.POST("/:id/delete", h.Patients.Delete)
	}

	rooms := protected.Group("/rooms")
	{
		rooms.GET("", h.Rooms.List)
		rooms.POST("", middleware.RequireRole(domain.RoleReception), h.Rooms.Create)
		rooms.GET("/:id", h.Rooms.Get)
		rooms.PUT("/:id", middleware.RequireRole(domain.RoleReception), h.Rooms.Update)
		rooms.POST("/:id/maintenance", h.Rooms.SetMaintenance)
	}

	services := protected.Group("/room-services")
	{
		services.GET("", h.Rooms.ListServices)
		services.POST("", h.Rooms.CreateService)
		services.PUT("/:id", h.Rooms.UpdateService)
	}

	admissions := protected.Group("/admissions")
	{
		admissions.GET("", h.Admissions.List)
		admissions.POST("", h.Admissions.Create)
		admissions.GET("/:id", h.Admissions.Get)
		admissions.POST("/:id/confirm", h.Admissions.Confirm)
		admissions.POST("/:id/discharge", h.Admissions.Discharge)
		admissions.POST("/:id/cancel", h.Admissions.Cancel)
	}

	invoices := protected.Group("/invoices")
	{
		invoices.GET("", h.Billing.ListByPatient)
		invoices.GET("/:id", h.Billing.Get)
		invoices.GET("/:id/payments", h.Billing.ListPayments)
		invoices.POST("/items", h.Billing.AddItems)
		invoices.POST("/:id/post", h.Billing.Post)
	}

	companies := protected.Group("/insurance/companies")
	{
		companies.GET("", h.Insurance.ListCompanies)
		companies.POST("", middleware.RequireRole(domain.RoleClaimManager, domain.RoleFinancialManager), h.Insurance.CreateCompany)
		companies.PUT("/:id", middleware.RequireRole(domain.RoleClaimManager, domain.RoleFinancialManager), h.Insurance.UpdateCompany)
	}

	claims := protected.Group("/claims")
	{
		claims.GET("", h.Insurance.ListClaims)
		claims.POST("/apply", h.Insurance.ApplyInsurance)
		claims.GET("/:id", h.Insurance.GetClaim)
		claims.POST("/:id/submit", h.Insurance.SubmitClaim)
		claims.POST("/:id/approve", h.Insurance.ApproveClaim)
		claims.POST("/:id/reject", h.Insurance.RejectClaim)
		claims.POST("/:id/pay", h.Insurance.MarkClaimPaid)
	}

	discounts := protected.Group("/discounts")
	{
		discounts.GET("", h.Discounts.List)
		discounts.POST("", h.Discounts.Create)
		discounts.GET("/:id", h.Discounts.Get)
		discounts.POST("/:id/submit", h.Discounts.Submit)
		discounts.POST("/:id/approve", h.Discounts.Approve)
		discounts.POST("/:id/reject", h.Discounts.Reject)
		discounts.POST("/:id/apply", h.Discounts.Apply)
	}

	return r
}
