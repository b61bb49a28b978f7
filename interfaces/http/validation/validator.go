// Package validation decodes and validates JSON request bodies at the HTTP
// boundary. Failures are reported as validation errors whose details name
// the offending JSON field.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	appErrors "maswada-backend/pkg/errors"

	"github.com/go-playground/validator/v10"
)

// Validator wraps a configured go-playground validator.
type Validator struct {
	validate *validator.Validate
}

// New creates a validator that reports fields by their JSON names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct validates s against its struct tags.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErrors.NewValidationError("Invalid request")
	}

	details := make([]appErrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, appErrors.FieldError{
			Path:    fe.Field(),
			Message: message(fe),
		})
	}
	return appErrors.NewValidationError("Validation failed").WithDetails(details...)
}

// Decode reads a JSON body into dst and validates it. An empty body is
// treated as an empty object.
func (v *Validator) Decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			appErr := appErrors.NewValidationError("Request body too large")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			return appErr
		}
		return appErrors.NewValidationError("Invalid JSON body").
			WithDetails(appErrors.FieldError{Path: "", Message: err.Error()})
	}
	return v.Struct(dst)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Required"
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "uuid":
		return "Invalid uuid"
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("Failed %s validation", fe.Tag())
	}
}
