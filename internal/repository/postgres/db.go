package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/jwalitptl/clinic-rbac/internal/config"
	"github.com/jwalitptl/clinic-rbac/internal/repository"
)

//go:embed schema.sql
var schema string

func NewDB(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	}

	return db, nil
}

// EnsureSchema creates missing tables and indexes. It is idempotent and does
// not alter existing tables.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// NewStore wires every postgres repository onto db.
func NewStore(db *sqlx.DB) repository.Store {
	base := NewBaseRepository(db)
	return repository.Store{
		Users:          NewUserRepository(base),
		Appointments:   NewAppointmentRepository(base),
		MedicalRecords: NewMedicalRecordRepository(base),
		Health:         &base,
	}
}
