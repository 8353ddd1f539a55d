package audit

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-rbac/internal/policy"
	"github.com/jwalitptl/clinic-rbac/pkg/logger"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeDenied  Outcome = "denied"
	OutcomeFailure Outcome = "failure"
)

type LogOptions struct {
	Outcome  Outcome
	Metadata map[string]interface{}
}

// Service writes the audit trail as structured log events.
type Service struct {
	logger zerolog.Logger
}

func NewService(l zerolog.Logger) *Service {
	return &Service{logger: l.With().Str("component", "audit").Logger()}
}

// Log records that actor performed action on entity.
func (s *Service) Log(ctx context.Context, actor policy.Principal, action policy.Operation, entity policy.Resource, entityID int64, opts *LogOptions) {
	if s == nil {
		return
	}
	outcome := OutcomeSuccess
	if opts != nil && opts.Outcome != "" {
		outcome = opts.Outcome
	}

	ev := s.logger.Info()
	if outcome != OutcomeSuccess {
		ev = s.logger.Warn()
	}
	if rid := logger.RequestID(ctx); rid != "" {
		ev = ev.Str("request_id", rid)
	}
	ev = ev.
		Int64("actor_id", actor.ID).
		Str("actor_role", string(actor.Role)).
		Str("action", string(action)).
		Str("entity", string(entity)).
		Str("outcome", string(outcome))
	if entityID != 0 {
		ev = ev.Int64("entity_id", entityID)
	}
	if opts != nil && len(opts.Metadata) > 0 {
		ev = ev.Fields(opts.Metadata)
	}
	ev.Msg("audit")
}

// Denied is shorthand for a denied Log entry.
func (s *Service) Denied(ctx context.Context, actor policy.Principal, action policy.Operation, entity policy.Resource, entityID int64) {
	s.Log(ctx, actor, action, entity, entityID, &LogOptions{Outcome: OutcomeDenied})
}
