package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-rbac/internal/middleware"
	"github.com/jwalitptl/clinic-rbac/internal/policy"
	apperrors "github.com/jwalitptl/clinic-rbac/pkg/errors"
)

// ParseID reads a positive integer path parameter.
func ParseID(c *gin.Context, param string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Validation("invalid "+param, map[string]string{param: "must be a positive integer"})
	}
	return id, nil
}

// Principal returns the authenticated caller or an Unauthenticated error.
func Principal(c *gin.Context) (policy.Principal, error) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return policy.Principal{}, apperrors.Unauthenticated(errors.New("no principal on request"))
	}
	return p, nil
}

// BindJSON decodes the request body into obj.
func BindJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.Validation("request body too large", nil)
		}
		return apperrors.Validation("invalid request body", map[string]string{"body": err.Error()})
	}
	return nil
}
