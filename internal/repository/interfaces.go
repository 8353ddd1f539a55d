package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jwalitptl/clinic-rbac/internal/model"
	"github.com/jwalitptl/clinic-rbac/internal/policy"
)

// Store level errors. Implementations wrap driver errors into these so
// services never look at driver codes.
var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicate        = errors.New("duplicate key")
	ErrInvalidReference = errors.New("invalid reference")
	// ErrReferenced rejects a role change for a principal that appointments
	// or medical records still point at.
	ErrReferenced = errors.New("referenced by dependent rows")
)

// All repository interfaces in one file
type (
	// UserRepository stores principals. Username and email uniqueness is
	// enforced atomically by Create and Update. Update refuses to change the
	// role of a principal referenced by an appointment or medical record.
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id int64) (*model.User, error)
		GetByUsername(ctx context.Context, username string) (*model.User, error)
		List(ctx context.Context) ([]model.User, error)
		ListByRole(ctx context.Context, role policy.Role) ([]model.User, error)
		Update(ctx context.Context, id int64, req *model.UpdateUserRequest) (*model.User, error)
		// Delete removes the principal with every appointment and medical
		// record referencing it, in one transaction.
		Delete(ctx context.Context, id int64) error
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id int64) (*model.Appointment, error)
		List(ctx context.Context, filter model.AppointmentFilter) ([]model.Appointment, error)
		Update(ctx context.Context, id int64, req *model.UpdateAppointmentRequest) (*model.Appointment, error)
		Delete(ctx context.Context, id int64) error
	}

	MedicalRecordRepository interface {
		Create(ctx context.Context, record *model.MedicalRecord) error
		Get(ctx context.Context, id int64) (*model.MedicalRecord, error)
		List(ctx context.Context, filter model.MedicalRecordFilter) ([]model.MedicalRecord, error)
		Update(ctx context.Context, id int64, req *model.UpdateMedicalRecordRequest) (*model.MedicalRecord, error)
		Delete(ctx context.Context, id int64) error
	}

	// LoginAttemptStore counts failed logins per key within a window.
	LoginAttemptStore interface {
		Failures(ctx context.Context, key string) (int, error)
		RecordFailure(ctx context.Context, key string, window time.Duration) (int, error)
		Reset(ctx context.Context, key string) error
	}

	// HealthChecker reports whether the backing store is reachable.
	HealthChecker interface {
		Ping(ctx context.Context) error
	}
)

// Store bundles the repositories of one backend.
type Store struct {
	Users          UserRepository
	Appointments   AppointmentRepository
	MedicalRecords MedicalRecordRepository
	Health         HealthChecker
}
