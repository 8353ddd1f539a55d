package medical

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jwalitptl/clinic-rbac/internal/model"
	"github.com/jwalitptl/clinic-rbac/internal/policy"
	"github.com/jwalitptl/clinic-rbac/internal/repository"
	"github.com/jwalitptl/clinic-rbac/internal/service/access"
	"github.com/jwalitptl/clinic-rbac/internal/service/audit"
	apperrors "github.com/jwalitptl/clinic-rbac/pkg/errors"
	"github.com/jwalitptl/clinic-rbac/pkg/validator"
)

const resource = policy.ResourceMedicalRecords

type Service struct {
	repo     repository.MedicalRecordRepository
	users    repository.UserRepository
	guard    *access.Guard
	auditor  *audit.Service
	validate validator.Validator
	now      func() time.Time
}

func NewService(repo repository.MedicalRecordRepository, users repository.UserRepository, evaluator *policy.Evaluator, auditor *audit.Service) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		guard:    access.NewGuard(evaluator, auditor),
		auditor:  auditor,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a record authored by p. The author is always the caller.
func (s *Service) Create(ctx context.Context, p policy.Principal, req *model.CreateMedicalRecordRequest) (*model.MedicalRecord, error) {
	if err := s.guard.Authorize(ctx, p, policy.Action{
		Resource:  resource,
		Operation: policy.OpCreate,
		PatientID: req.PatientID,
		DoctorID:  p.ID,
	}, 0); err != nil {
		return nil, err
	}
	req.Diagnosis = strings.TrimSpace(req.Diagnosis)
	if err := s.validate.Validate(req); err != nil {
		return nil, validator.ToAppError(err)
	}

	patient, err := s.users.Get(ctx, req.PatientID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.Validation("validation failed", map[string]string{
			"patient_id": "does not reference an existing user",
		})
	case err != nil:
		return nil, apperrors.Internal(err)
	case patient.Role != policy.RolePatient:
		return nil, apperrors.Validation("validation failed", map[string]string{
			"patient_id": "references a user with the wrong role",
		})
	}

	visit := s.now()
	if req.VisitDate != nil {
		visit = req.VisitDate.UTC()
	}
	record := &model.MedicalRecord{
		PatientID:    req.PatientID,
		DoctorID:     p.ID,
		Diagnosis:    req.Diagnosis,
		Prescription: req.Prescription,
		Notes:        req.Notes,
		VisitDate:    visit,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, mapError(err)
	}
	s.auditor.Log(ctx, p, policy.OpCreate, resource, record.ID, &audit.LogOptions{
		Metadata: map[string]interface{}{"patient_id": record.PatientID},
	})

	created, err := s.repo.Get(ctx, record.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return created, nil
}

// List returns the records visible to p: a patient's own, a doctor's authored, or all.
func (s *Service) List(ctx context.Context, p policy.Principal) ([]model.MedicalRecord, error) {
	if err := s.guard.Authorize(ctx, p, policy.Action{Resource: resource, Operation: policy.OpList}, 0); err != nil {
		return nil, err
	}

	filter := model.MedicalRecordFilter{}
	if s.guard.Scope(p, resource, policy.OpList) == policy.ScopeOwn {
		switch p.Role {
		case policy.RolePatient:
			filter.PatientID = p.ID
		case policy.RoleDoctor:
			filter.DoctorID = p.ID
		default:
			return nil, s.guard.Deny(ctx, p, resource, policy.OpList, 0)
		}
	}

	records, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return records, nil
}

func (s *Service) Get(ctx context.Context, p policy.Principal, id int64) (*model.MedicalRecord, error) {
	return s.load(ctx, p, policy.OpRead, id)
}

// Update is reserved to the authoring doctor.
func (s *Service) Update(ctx context.Context, p policy.Principal, id int64, req *model.UpdateMedicalRecordRequest) (*model.MedicalRecord, error) {
	if _, err := s.load(ctx, p, policy.OpUpdate, id); err != nil {
		return nil, err
	}
	if req.Empty() {
		return nil, apperrors.Validation("no fields to update", nil)
	}
	if err := s.validate.Validate(req); err != nil {
		return nil, validator.ToAppError(err)
	}

	record, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, mapError(err)
	}
	s.auditor.Log(ctx, p, policy.OpUpdate, resource, id, nil)
	return record, nil
}

func (s *Service) Delete(ctx context.Context, p policy.Principal, id int64) error {
	if _, err := s.load(ctx, p, policy.OpDelete, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapError(err)
	}
	s.auditor.Log(ctx, p, policy.OpDelete, resource, id, nil)
	return nil
}

func (s *Service) load(ctx context.Context, p policy.Principal, op policy.Operation, id int64) (*model.MedicalRecord, error) {
	if s.guard.Scope(p, resource, op) == policy.ScopeNone {
		return nil, s.guard.Deny(ctx, p, resource, op, id)
	}

	record, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, s.guard.Missing(ctx, p, resource, op, id, err)
		}
		return nil, apperrors.Internal(err)
	}

	if err := s.guard.Authorize(ctx, p, policy.Action{
		Resource:  resource,
		Operation: op,
		PatientID: record.PatientID,
		DoctorID:  record.DoctorID,
	}, id); err != nil {
		return nil, err
	}
	return record, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("medical record", err)
	case errors.Is(err, repository.ErrInvalidReference):
		return apperrors.Validation("medical record references an unknown user", nil)
	default:
		return apperrors.Internal(err)
	}
}
