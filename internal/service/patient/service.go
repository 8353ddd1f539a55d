package patient

import (
	"context"
	"errors"

	"github.com/jwalitptl/clinic-rbac/internal/model"
	"github.com/jwalitptl/clinic-rbac/internal/policy"
	"github.com/jwalitptl/clinic-rbac/internal/repository"
	"github.com/jwalitptl/clinic-rbac/internal/service/access"
	"github.com/jwalitptl/clinic-rbac/internal/service/audit"
	apperrors "github.com/jwalitptl/clinic-rbac/pkg/errors"
)

const resource = policy.ResourcePatients

// Service assembles read-only patient views from the user, appointment and record stores.
type Service struct {
	users        repository.UserRepository
	appointments repository.AppointmentRepository
	records      repository.MedicalRecordRepository
	evaluator    *policy.Evaluator
	guard        *access.Guard
	auditor      *audit.Service
}

func NewService(store repository.Store, evaluator *policy.Evaluator, auditor *audit.Service) *Service {
	return &Service{
		users:        store.Users,
		appointments: store.Appointments,
		records:      store.MedicalRecords,
		evaluator:    evaluator,
		guard:        access.NewGuard(evaluator, auditor),
		auditor:      auditor,
	}
}

// List returns every patient. Staff only.
func (s *Service) List(ctx context.Context, p policy.Principal) ([]model.PublicUser, error) {
	if err := s.guard.Authorize(ctx, p, policy.Action{Resource: resource, Operation: policy.OpList}, 0); err != nil {
		return nil, err
	}
	patients, err := s.users.ListByRole(ctx, policy.RolePatient)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return model.PublicUsers(patients), nil
}

// Aggregate returns the patient's profile with the appointments and records
// p may read, and a summary over exactly those.
func (s *Service) Aggregate(ctx context.Context, p policy.Principal, patientID int64) (*model.PatientAggregate, error) {
	if err := s.guard.Authorize(ctx, p, policy.Action{
		Resource:  resource,
		Operation: policy.OpRead,
		PatientID: patientID,
	}, patientID); err != nil {
		return nil, err
	}

	u, err := s.users.Get(ctx, patientID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, s.guard.Missing(ctx, p, resource, policy.OpRead, patientID, err)
	case err != nil:
		return nil, apperrors.Internal(err)
	case u.Role != policy.RolePatient:
		return nil, s.guard.Missing(ctx, p, resource, policy.OpRead, patientID, repository.ErrNotFound)
	}

	appts, err := s.appointments.List(ctx, model.AppointmentFilter{PatientID: patientID})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	records, err := s.records.List(ctx, model.MedicalRecordFilter{PatientID: patientID})
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	agg := &model.PatientAggregate{
		Patient:        u.Public(),
		Appointments:   make([]model.Appointment, 0, len(appts)),
		MedicalRecords: make([]model.MedicalRecord, 0, len(records)),
	}
	for _, a := range appts {
		if s.evaluator.Allow(p, policy.Action{
			Resource:  policy.ResourceAppointments,
			Operation: policy.OpRead,
			PatientID: a.PatientID,
			DoctorID:  a.DoctorID,
		}) {
			agg.Appointments = append(agg.Appointments, a)
		}
	}
	for _, r := range records {
		if s.evaluator.Allow(p, policy.Action{
			Resource:  policy.ResourceMedicalRecords,
			Operation: policy.OpRead,
			PatientID: r.PatientID,
			DoctorID:  r.DoctorID,
		}) {
			agg.MedicalRecords = append(agg.MedicalRecords, r)
		}
	}
	agg.Summarize()

	s.auditor.Log(ctx, p, policy.OpRead, resource, patientID, &audit.LogOptions{
		Metadata: map[string]interface{}{
			"appointments":    len(agg.Appointments),
			"medical_records": len(agg.MedicalRecords),
		},
	})
	return agg, nil
}
