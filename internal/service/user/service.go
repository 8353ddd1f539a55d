package user

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

type Service struct {
	repo     repository.UserRepository
	guard    *access.Guard
	auditor  *audit.Service
	validate validator.Validator
}

func NewService(repo repository.UserRepository, evaluator *policy.Evaluator, auditor *audit.Service) *Service {
	return &Service{
		repo:     repo,
		guard:    access.NewGuard(evaluator, auditor),
		auditor:  auditor,
		validate: validator.New(),
	}
}

// List returns every principal. Administrators only.
func (s *Service) List(ctx context.Context, p policy.Principal) ([]model.PublicUser, error) {
	if err := s.guard.Authorize(ctx, p, policy.Action{Resource: policy.ResourceUsers, Operation: policy.OpList}, 0); err != nil {
		return nil, err
	}
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return model.PublicUsers(users), nil
}

// ListByRole is the directory: principals of one role, as far as the caller may see them.
func (s *Service) ListByRole(ctx context.Context, p policy.Principal, role string) ([]model.PublicUser, error) {
	target, err := policy.ParseRole(role)
	if err != nil {
		return nil, apperrors.Validation("invalid role", map[string]string{"role": err.Error()})
	}
	if err := s.guard.Authorize(ctx, p, policy.Action{
		Resource:   policy.ResourceUsers,
		Operation:  policy.OpListByRole,
		TargetRole: target,
	}, 0); err != nil {
		return nil, err
	}

	users, err := s.repo.ListByRole(ctx, target)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return model.PublicUsers(users), nil
}

func (s *Service) Get(ctx context.Context, p policy.Principal, id int64) (*model.PublicUser, error) {
	if err := s.guard.Authorize(ctx, p, subject(policy.OpRead, id), id); err != nil {
		return nil, err
	}
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	pub := u.Public()
	return &pub, nil
}

// Update applies the non-nil fields of req. Changing the role additionally
// requires the assign_role permission.
func (s *Service) Update(ctx context.Context, p policy.Principal, id int64, req *model.UpdateUserRequest) (*model.PublicUser, error) {
	if err := s.guard.Authorize(ctx, p, subject(policy.OpUpdate, id), id); err != nil {
		return nil, err
	}
	if req.Empty() {
		return nil, apperrors.Validation("no fields to update", nil)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		req.Email = &email
	}
	if err := s.validate.Validate(req); err != nil {
		return nil, validator.ToAppError(err)
	}

	if req.Role != nil {
		if err := s.guard.Authorize(ctx, p, subject(policy.OpAssignRole, id), id); err != nil {
			return nil, err
		}
		role, err := policy.ParseRole(string(*req.Role))
		if err != nil {
			return nil, apperrors.Validation("validation failed", map[string]string{"role": err.Error()})
		}
		req.Role = &role
	}

	u, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, mapError(err)
	}

	meta := map[string]interface{}{}
	if req.Role != nil {
		meta["role"] = string(*req.Role)
	}
	s.auditor.Log(ctx, p, policy.OpUpdate, policy.ResourceUsers, id, &audit.LogOptions{Metadata: meta})

	pub := u.Public()
	return &pub, nil
}

// Delete removes the principal together with every appointment and medical
// record that references it.
func (s *Service) Delete(ctx context.Context, p policy.Principal, id int64) error {
	if err := s.guard.Authorize(ctx, p, subject(policy.OpDelete, id), id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapError(err)
	}
	s.auditor.Log(ctx, p, policy.OpDelete, policy.ResourceUsers, id, nil)
	return nil
}

func subject(op policy.Operation, id int64) policy.Action {
	return policy.Action{Resource: policy.ResourceUsers, Operation: op, SubjectID: id}
}

func mapError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("user", err)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.Conflict("email already exists", err)
	case errors.Is(err, repository.ErrReferenced):
		return apperrors.Conflict("role cannot change while the user has appointments or medical records", err)
	default:
		return apperrors.Internal(err)
	}
}
