package appointment

import (
	"context"
	"errors"
	"strings"

	"github.com/jwalitptl/clinic-rbac/internal/model"
	"github.com/jwalitptl/clinic-rbac/internal/policy"
	"github.com/jwalitptl/clinic-rbac/internal/repository"
	"github.com/jwalitptl/clinic-rbac/internal/service/access"
	"github.com/jwalitptl/clinic-rbac/internal/service/audit"
	apperrors "github.com/jwalitptl/clinic-rbac/pkg/errors"
	"github.com/jwalitptl/clinic-rbac/pkg/validator"
)

const resource = policy.ResourceAppointments

type Service struct {
	repo     repository.AppointmentRepository
	users    repository.UserRepository
	guard    *access.Guard
	auditor  *audit.Service
	validate validator.Validator
}

func NewService(repo repository.AppointmentRepository, users repository.UserRepository, evaluator *policy.Evaluator, auditor *audit.Service) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		guard:    access.NewGuard(evaluator, auditor),
		auditor:  auditor,
		validate: validator.New(),
	}
}

// Create books an appointment. Patients and doctors may only book ones they take part in.
func (s *Service) Create(ctx context.Context, p policy.Principal, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, validator.ToAppError(err)
	}
	if err := s.guard.Authorize(ctx, p, policy.Action{
		Resource:  resource,
		Operation: policy.OpCreate,
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
	}, 0); err != nil {
		return nil, err
	}
	if err := s.checkParticipants(ctx, req.PatientID, req.DoctorID); err != nil {
		return nil, err
	}

	appt := &model.Appointment{
		PatientID:       req.PatientID,
		DoctorID:        req.DoctorID,
		AppointmentDate: req.AppointmentDate.UTC(),
		Status:          model.AppointmentStatusScheduled,
		Reason:          strings.TrimSpace(req.Reason),
		Notes:           req.Notes,
	}
	if err := s.repo.Create(ctx, appt); err != nil {
		return nil, mapError(err)
	}
	s.auditor.Log(ctx, p, policy.OpCreate, resource, appt.ID, &audit.LogOptions{
		Metadata: map[string]interface{}{"patient_id": appt.PatientID, "doctor_id": appt.DoctorID},
	})

	// reload for the name projection
	created, err := s.repo.Get(ctx, appt.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return created, nil
}

// List returns the appointments visible to p. Own-scope roles only see the
// ones they take part in.
func (s *Service) List(ctx context.Context, p policy.Principal, status string) ([]model.Appointment, error) {
	if err := s.guard.Authorize(ctx, p, policy.Action{Resource: resource, Operation: policy.OpList}, 0); err != nil {
		return nil, err
	}

	filter := model.AppointmentFilter{}
	if status != "" {
		filter.Status = model.AppointmentStatus(strings.ToLower(status))
		if !filter.Status.Valid() {
			return nil, apperrors.Validation("validation failed", map[string]string{
				"status": "must be one of [scheduled completed cancelled]",
			})
		}
	}
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

	appts, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return appts, nil
}

func (s *Service) Get(ctx context.Context, p policy.Principal, id int64) (*model.Appointment, error) {
	return s.load(ctx, p, policy.OpRead, id)
}

// Update applies the non-nil fields of req. Status changes are not restricted
// to any particular order.
func (s *Service) Update(ctx context.Context, p policy.Principal, id int64, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	if _, err := s.load(ctx, p, policy.OpUpdate, id); err != nil {
		return nil, err
	}
	if req.Empty() {
		return nil, apperrors.Validation("no fields to update", nil)
	}
	if req.Status != nil {
		status := model.AppointmentStatus(strings.ToLower(string(*req.Status)))
		req.Status = &status
	}
	if err := s.validate.Validate(req); err != nil {
		return nil, validator.ToAppError(err)
	}
	if req.AppointmentDate != nil {
		d := req.AppointmentDate.UTC()
		req.AppointmentDate = &d
	}

	appt, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, mapError(err)
	}

	meta := map[string]interface{}{}
	if req.Status != nil {
		meta["status"] = string(*req.Status)
	}
	s.auditor.Log(ctx, p, policy.OpUpdate, resource, id, &audit.LogOptions{Metadata: meta})
	return appt, nil
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

// load fetches the row and checks p may perform op on it.
func (s *Service) load(ctx context.Context, p policy.Principal, op policy.Operation, id int64) (*model.Appointment, error) {
	if s.guard.Scope(p, resource, op) == policy.ScopeNone {
		return nil, s.guard.Deny(ctx, p, resource, op, id)
	}

	appt, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, s.guard.Missing(ctx, p, resource, op, id, err)
		}
		return nil, apperrors.Internal(err)
	}

	if err := s.guard.Authorize(ctx, p, policy.Action{
		Resource:  resource,
		Operation: op,
		PatientID: appt.PatientID,
		DoctorID:  appt.DoctorID,
	}, id); err != nil {
		return nil, err
	}
	return appt, nil
}

// checkParticipants requires patientID to be a Patient and doctorID a Doctor.
func (s *Service) checkParticipants(ctx context.Context, patientID, doctorID int64) error {
	details := map[string]string{}
	if err := s.expectRole(ctx, patientID, policy.RolePatient); err != nil {
		if !isReferenceProblem(err) {
			return err
		}
		details["patient_id"] = err.Error()
	}
	if err := s.expectRole(ctx, doctorID, policy.RoleDoctor); err != nil {
		if !isReferenceProblem(err) {
			return err
		}
		details["doctor_id"] = err.Error()
	}
	if len(details) > 0 {
		return apperrors.Validation("validation failed", details)
	}
	return nil
}

var (
	errNoSuchUser = errors.New("does not reference an existing user")
	errWrongRole  = errors.New("references a user with the wrong role")
)

func (s *Service) expectRole(ctx context.Context, id int64, role policy.Role) error {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errNoSuchUser
		}
		return apperrors.Internal(err)
	}
	if u.Role != role {
		return errWrongRole
	}
	return nil
}

func isReferenceProblem(err error) bool {
	return errors.Is(err, errNoSuchUser) || errors.Is(err, errWrongRole)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("appointment", err)
	case errors.Is(err, repository.ErrInvalidReference):
		return apperrors.Validation("appointment references an unknown user", nil)
	default:
		return apperrors.Internal(err)
	}
}
