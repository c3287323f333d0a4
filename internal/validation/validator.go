// Package validation wires go-playground/validator into echo and maps its
// failures to domain errors with per-field messages.
package validation

import (
	"errors"
	"fmt"
	"mime/multipart"
	"reflect"
	"strings"

	"github.com/dukerupert/fleetcheck"
	"github.com/go-playground/validator/v10"
)

// Validator implements echo.Validator.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator with the fleetcheck tags registered:
//
//	fieldkey     - a normalized checklist field key
//	answerstatus - empty or a writable answer status
//	inspstatus   - a known inspection status
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("fieldkey", func(fl validator.FieldLevel) bool {
		key := fl.Field().String()
		return key != "" && fleetcheck.NormalizeFieldKey(key) == key
	})
	_ = v.RegisterValidation("answerstatus", func(fl validator.FieldLevel) bool {
		s := fleetcheck.AnswerStatus(fl.Field().String())
		return s == "" || s.IsWritable()
	})
	_ = v.RegisterValidation("inspstatus", func(fl validator.FieldLevel) bool {
		return fleetcheck.InspectionStatus(fl.Field().String()).IsValid()
	})

	return &Validator{validate: v}
}

// Validate validates a struct using its validation tags. Failures are
// returned as an EINVALID error carrying one message per field.
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fleetcheck.Invalid("Invalid request")
	}
	return fleetcheck.ErrorWithFields(FormatValidationErrors(verrs))
}

// FormatValidationErrors converts validator errors to field -> message.
func FormatValidationErrors(err error) map[string]string {
	out := make(map[string]string)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["_error"] = err.Error()
		return out
	}

	for _, fe := range verrs {
		field := fe.Field()
		isString := fe.Kind() == reflect.String

		switch fe.Tag() {
		case "required":
			out[field] = "is required"
		case "min":
			if isString {
				out[field] = fmt.Sprintf("must be at least %s characters", fe.Param())
			} else {
				out[field] = fmt.Sprintf("must be at least %s", fe.Param())
			}
		case "max":
			if isString {
				out[field] = fmt.Sprintf("must be no more than %s characters", fe.Param())
			} else {
				out[field] = fmt.Sprintf("must be no more than %s", fe.Param())
			}
		case "uuid":
			out[field] = "must be a valid UUID"
		case "gte":
			out[field] = fmt.Sprintf("must be greater than or equal to %s", fe.Param())
		case "lte":
			out[field] = fmt.Sprintf("must be less than or equal to %s", fe.Param())
		case "oneof":
			out[field] = fmt.Sprintf("must be one of: %s", fe.Param())
		case "fieldkey":
			out[field] = "must be a field key (lowercase letters, digits and underscores)"
		case "answerstatus":
			out[field] = "is not an accepted answer status"
		case "inspstatus":
			out[field] = "is not a valid inspection status"
		default:
			out[field] = fmt.Sprintf("failed validation: %s", fe.Tag())
		}
	}
	return out
}

// ValidateFileUpload checks an uploaded file's size and content type.
func ValidateFileUpload(fh *multipart.FileHeader, maxSize int64, allowedTypes []string) error {
	if fh == nil {
		return fleetcheck.Invalid("File is required")
	}
	if fh.Size <= 0 {
		return fleetcheck.Invalid("File is empty")
	}
	if maxSize > 0 && fh.Size > maxSize {
		return fleetcheck.Invalid("File exceeds maximum size of %d MB", maxSize/(1024*1024))
	}

	contentType := fh.Header.Get("Content-Type")
	for _, t := range allowedTypes {
		if t == contentType {
			return nil
		}
	}
	return fleetcheck.Invalid("File type %q is not accepted", contentType)
}
