// Package access turns evaluator decisions into service errors and audit events.
package access

import (
	"context"

	"github.com/jwalitptl/clinic-rbac/internal/policy"
	"github.com/jwalitptl/clinic-rbac/internal/service/audit"
	apperrors "github.com/jwalitptl/clinic-rbac/pkg/errors"
)

type Guard struct {
	evaluator *policy.Evaluator
	auditor   *audit.Service
}

func NewGuard(evaluator *policy.Evaluator, auditor *audit.Service) *Guard {
	return &Guard{evaluator: evaluator, auditor: auditor}
}

// Authorize returns Forbidden and audits the denial when p may not perform a.
func (g *Guard) Authorize(ctx context.Context, p policy.Principal, a policy.Action, entityID int64) error {
	if g.evaluator.Allow(p, a) {
		return nil
	}
	return g.Deny(ctx, p, a.Resource, a.Operation, entityID)
}

func (g *Guard) Deny(ctx context.Context, p policy.Principal, res policy.Resource, op policy.Operation, entityID int64) error {
	g.auditor.Denied(ctx, p, op, res, entityID)
	return apperrors.Forbidden()
}

func (g *Guard) Scope(p policy.Principal, res policy.Resource, op policy.Operation) policy.Scope {
	if p.ID <= 0 {
		return policy.ScopeNone
	}
	return g.evaluator.ScopeOf(p.Role, res, op)
}

// Missing reports a row that does not exist. Only callers with unrestricted
// scope learn that; everyone else gets the same Forbidden as for a row they
// do not own.
func (g *Guard) Missing(ctx context.Context, p policy.Principal, res policy.Resource, op policy.Operation, entityID int64, cause error) error {
	if g.Scope(p, res, op) == policy.ScopeAll {
		return apperrors.NotFound(Noun(res), cause)
	}
	return g.Deny(ctx, p, res, op, entityID)
}

// Noun is the singular display name of res.
func Noun(res policy.Resource) string {
	switch res {
	case policy.ResourceUsers:
		return "user"
	case policy.ResourceAppointments:
		return "appointment"
	case policy.ResourceMedicalRecords:
		return "medical record"
	case policy.ResourcePatients:
		return "patient"
	}
	return string(res)
}
