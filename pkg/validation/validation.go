package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a validation error with field-level details.
type ValidationError struct {
	Errors map[string]string `json:"errors"`
}

// Error implements the error interface. Fields are listed alphabetically so
// the message is stable.
func (v *ValidationError) Error() string {
	fields := make([]string, 0, len(v.Errors))
	for field := range v.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	messages := make([]string, 0, len(fields))
	for _, field := range fields {
		messages = append(messages, v.Errors[field])
	}
	return strings.Join(messages, "; ")
}

// AddError adds a custom error message for a field.
func (v *ValidationError) AddError(field, message string) {
	if v.Errors == nil {
		v.Errors = make(map[string]string)
	}
	v.Errors[field] = message
}

// HasErrors returns true if there are any validation errors.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = validate.RegisterValidation("nonul", func(fl validator.FieldLevel) bool {
			return !strings.ContainsRune(fl.Field().String(), 0)
		})
	})
	return validate
}

// Struct validates s against its `validate` tags. Field names in the result
// use the json tag.
func Struct(s any) *ValidationError {
	err := instance().Struct(s)
	if err == nil {
		return &ValidationError{}
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return NewValidationError(fieldErrs)
	}

	ve := &ValidationError{}
	ve.AddError("request", err.Error())
	return ve
}

// NewValidationError creates a new ValidationError from validator.ValidationErrors.
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	ve := &ValidationError{Errors: make(map[string]string, len(errs))}
	for _, err := range errs {
		ve.Errors[err.Field()] = getErrorMessage(err)
	}
	return ve
}

func getErrorMessage(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", field, param)
	case "nonul":
		return fmt.Sprintf("%s must not contain NUL characters", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", field, param)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// ContainsNUL reports whether any string in v, including map keys and nested
// values of decoded JSON, contains a NUL character. Postgres TEXT and JSONB
// columns cannot store it.
func ContainsNUL(v any) bool {
	switch t := v.(type) {
	case string:
		return strings.ContainsRune(t, 0)
	case map[string]any:
		for k, val := range t {
			if ContainsNUL(k) || ContainsNUL(val) {
				return true
			}
		}
	case map[string]bool:
		for k := range t {
			if ContainsNUL(k) {
				return true
			}
		}
	case []any:
		for _, val := range t {
			if ContainsNUL(val) {
				return true
			}
		}
	case []string:
		for _, val := range t {
			if ContainsNUL(val) {
				return true
			}
		}
	}
	return false
}
