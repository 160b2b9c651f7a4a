package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/wardflow/wardflow/internal/config"
	v1 "github.com/wardflow/wardflow/internal/handler/v1"
	"github.com/wardflow/wardflow/internal/repository"
	"github.com/wardflow/wardflow/internal/service"
	"github.com/wardflow/wardflow/pkg/auth"
	"github.com/wardflow/wardflow/pkg/database"
	"github.com/wardflow/wardflow/pkg/logger"
	"github.com/wardflow/wardflow/pkg/metrics"
	"github.com/wardflow/wardflow/pkg/tracer"
	"go.uber.org/zap"
)

func main() {
	// Missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("loading configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("initializing logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.Migrate(db, log); err != nil {
		return err
	}

	collector := metrics.NewCollector("wardflow")
	if err := database.Instrument(db, collector); err != nil {
		return err
	}
	stopPoll := make(chan struct{})
	defer close(stopPoll)
	go database.PollConnections(db, collector, 15*time.Second, stopPoll)

	jwtManager := auth.NewJWTManager(cfg.JWT)

	txRunner := repository.NewTxRunner(db)
	seq := repository.NewSequenceGenerator(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	doctorRepo := repository.NewDoctorRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	roomServiceRepo := repository.NewRoomServiceRepository(db)
	admissionRepo := repository.NewAdmissionRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	companyRepo := repository.NewInsuranceCompanyRepository(db)
	claimRepo := repository.NewClaimRepository(db)
	discountRepo := repository.NewDiscountRepository(db)

	auditSvc := service.NewAuditService(auditRepo, collector, log)
	defer auditSvc.Shutdown()

	authSvc := service.NewAuthService(userRepo, jwtManager, auditSvc, log)
	patientSvc := service.NewPatientService(patientRepo, departmentRepo, doctorRepo, invoiceRepo, auditSvc, log)
	billingSvc := service.NewBillingService(invoiceRepo, paymentRepo, seq, txRunner, cfg.Billing.Currency, log)
	roomSvc := service.NewRoomService(roomRepo, roomServiceRepo, seq, txRunner, auditSvc, log)
	admissionSvc := service.NewAdmissionService(admissionRepo, roomRepo, roomServiceRepo, patientRepo,
		billingSvc, seq, txRunner, auditSvc, collector, log)
	insuranceSvc := service.NewInsuranceService(companyRepo, claimRepo, patientRepo,
		billingSvc, seq, txRunner, auditSvc, collector, log)
	discountSvc := service.NewDiscountService(discountRepo, billingSvc, seq, txRunner, auditSvc, collector, log)

	router := v1.NewRouter(cfg, &v1.Handlers{
		Auth:       v1.NewAuthHandler(authSvc),
		Patients:   v1.NewPatientHandler(patientSvc, log),
		Rooms:      v1.NewRoomHandler(roomSvc),
		Admissions: v1.NewAdmissionHandler(admissionSvc),
		Billing:    v1.NewBillingHandler(billingSvc),
		Insurance:  v1.NewInsuranceHandler(insuranceSvc),
		Discounts:  v1.NewDiscountHandler(discountSvc),
	}, jwtManager, collector, log)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("address", srv.Addr),
			zap.String("environment", cfg.App.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	log.Info("server stopped")
	return nil
}
