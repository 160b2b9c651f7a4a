package database

import (
	"fmt"
	"time"

	"github.com/wardflow/wardflow/internal/config"
	"github.com/wardflow/wardflow/internal/domain"
	"github.com/wardflow/wardflow/internal/domain/admission"
	"github.com/wardflow/wardflow/internal/domain/billing"
	"github.com/wardflow/wardflow/internal/domain/discount"
	"github.com/wardflow/wardflow/internal/domain/insurance"
	"github.com/wardflow/wardflow/internal/domain/patient"
	"github.com/wardflow/wardflow/internal/domain/room"
	"github.com/wardflow/wardflow/internal/domain/sequence"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		PrepareStmt:                              true,
		DisableForeignKeyConstraintWhenMigrating: false,
		DisableAutomaticPing:                     false,
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: false,
	}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()

	schemas := []string{"core", "clinical", "billing"} // logical namespace
	for _, schema := range schemas {
		if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)).Error; err != nil {
			return fmt.Errorf("creating schema %s: %w", schema, err)
		}
	}

	models := []any{
		&domain.User{},
		&domain.AuditLog{},
		&sequence.Counter{},
		&patient.Department{},
		&patient.Doctor{},
		&patient.Patient{},
		&patient.LogEntry{},
		&room.Service{},
		&room.Room{},
		&admission.Admission{},
		&billing.Invoice{},
		&billing.Line{},
		&billing.Payment{},
		&insurance.Company{},
		&insurance.Claim{},
		&discount.Request{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	if err := createConstraints(db); err != nil {
		return fmt.Errorf("creating constraints: %w", err)
	}

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

func createConstraints(db *gorm.DB) error {
	statements := []struct {
		name  string
		query string
	}{
		// Occupancy can never leave [0, bed_count], even under concurrent writes
		// that slip past the application-level lock.
		{
			name: "chk_rooms_occupancy",
			query: `ALTER TABLE clinical.rooms ADD CONSTRAINT chk_rooms_occupancy
				CHECK (booked_beds >= 0 AND booked_beds <= bed_count)`,
		},
		{
			name: "chk_insurance_coverage",
			query: `ALTER TABLE billing.insurance_companies ADD CONSTRAINT chk_insurance_coverage
				CHECK (coverage_percentage >= 0 AND coverage_percentage <= 100)`,
		},
		{
			name:  "idx_admissions_active",
			query: `CREATE INDEX IF NOT EXISTS idx_admissions_active ON clinical.admissions (patient_id, state) WHERE deleted_at IS NULL AND state IN ('draft', 'in_progress')`,
		},
		{
			name:  "idx_invoices_patient_draft",
			query: `CREATE INDEX IF NOT EXISTS idx_invoices_patient_draft ON billing.invoices (patient_id) WHERE deleted_at IS NULL AND state = 'draft'`,
		},
	}

	for _, stmt := range statements {
		// Constraint additions fail when re-run; that is fine on an already
		// migrated database.
		if err := db.Exec(stmt.query).Error; err != nil {
			_ = err
		}
	}

	return nil
}
