package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/clinic-rbac/internal/policy"
	apperrors "github.com/jwalitptl/clinic-rbac/pkg/errors"
)

// FieldErrors maps a request field (json name) to a human readable problem.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for field, msg := range fe {
		parts = append(parts, fmt.Sprintf("%s %s", field, msg))
	}
	return strings.Join(parts, "; ")
}

// Validator provides validation functionality
type Validator interface {
	Validate(interface{}) error
}

type structValidator struct {
	v *validator.Validate
}

func New() Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		_, err := policy.ParseRole(fl.Field().String())
		return err == nil
	})
	return &structValidator{v: v}
}

// Validate returns FieldErrors for tag violations, nil when obj is valid.
func (s *structValidator) Validate(obj interface{}) error {
	err := s.v.Struct(obj)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "alphanum":
		return "must contain only letters and digits"
	case "role":
		return fmt.Sprintf("must be one of %v", policy.Roles)
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// ToAppError converts a Validate result into a validation AppError.
func ToAppError(err error) *apperrors.AppError {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return apperrors.Validation("validation failed", fe)
	}
	return apperrors.Validation(err.Error(), nil)
}
