package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-rbac/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// RespondWithSuccess sends a 200 success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	Respond(c, http.StatusOK, data)
}

// RespondCreated sends a 201 success response
func RespondCreated(c *gin.Context, data interface{}) {
	Respond(c, http.StatusCreated, data)
}

func Respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Status: "success",
		Data:   data,
	})
}

// RespondWithMessage sends a success response without a payload
func RespondWithMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Response{
		Status:  "success",
		Message: message,
	})
}

// RespondWithStatus aborts with an error envelope for conditions that have no
// AppError kind, such as rate limiting.
func RespondWithStatus(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{
		Status:  "error",
		Message: message,
	})
}

// RespondWithError maps err onto the error envelope. Anything that is not an
// AppError is treated as internal and its detail only goes to the log.
func RespondWithError(c *gin.Context, err error) {
	appErr := errors.As(err)
	status := appErr.StatusCode()

	logger := zerolog.Ctx(c.Request.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	} else {
		logger.Debug().Err(err).Int("status", status).Msg("request rejected")
	}

	c.AbortWithStatusJSON(status, Response{
		Status:  "error",
		Message: appErr.Message,
		Errors:  appErr.Details,
	})
}
