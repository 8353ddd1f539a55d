package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-rbac/internal/policy"
	"github.com/jwalitptl/clinic-rbac/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-rbac/pkg/errors"
	"github.com/jwalitptl/clinic-rbac/pkg/httputil"
	"github.com/jwalitptl/clinic-rbac/pkg/metrics"
)

const ContextPrincipal = "principal"

type AuthMiddleware struct {
	jwtSvc  auth.JWTService
	metrics *metrics.Metrics
}

func NewAuthMiddleware(jwtSvc auth.JWTService, m *metrics.Metrics) *AuthMiddleware {
	return &AuthMiddleware{jwtSvc: jwtSvc, metrics: m}
}

// Authenticate verifies the bearer token and stores the principal in the context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err == nil {
			var claims *auth.Claims
			claims, err = m.jwtSvc.Verify(token)
			if err == nil {
				p := claims.Principal()
				c.Set(ContextPrincipal, p)

				ctx := c.Request.Context()
				l := zerolog.Ctx(ctx).With().Int64("user_id", p.ID).Str("role", string(p.Role)).Logger()
				c.Request = c.Request.WithContext(l.WithContext(ctx))
				c.Next()
				return
			}
		}

		if m.metrics != nil {
			m.metrics.TokensRejected.WithLabelValues(rejectReason(err)).Inc()
		}
		httputil.RespondWithError(c, apperrors.Unauthenticated(err))
	}
}

// GetPrincipal returns the caller stored by Authenticate.
func GetPrincipal(c *gin.Context) (policy.Principal, bool) {
	v, ok := c.Get(ContextPrincipal)
	if !ok {
		return policy.Principal{}, false
	}
	p, ok := v.(policy.Principal)
	return p, ok
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", auth.ErrTokenMissing
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", auth.ErrTokenMalformed
	}
	return strings.TrimSpace(token), nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenMissing):
		return "missing"
	case errors.Is(err, auth.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, auth.ErrTokenExpired):
		return "expired"
	default:
		return "invalid"
	}
}
