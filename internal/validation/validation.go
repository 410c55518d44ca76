// Package validation turns input checks into structured, user-facing errors.
// Struct tags are evaluated with go-playground/validator; domain checks that
// need the store (uniqueness, self-follow) add fields by hand. Every *Error
// matches common.ErrorValidation under errors.Is.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dmitrijs2005/microblog/internal/common"
	"github.com/go-playground/validator/v10"
)

// FieldError names the offending input field (by its JSON name) and says
// what is wrong with it.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a list of field errors, in the order they were found.
type Error struct {
	Fields []FieldError
}

// New returns an Error with a single field.
func New(field, message string) *Error {
	return &Error{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (e *Error) Is(target error) bool {
	return target == common.ErrorValidation
}

// Add appends a field error and returns e for chaining.
func (e *Error) Add(field, message string) *Error {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
	return e
}

// Has reports whether field already failed.
func (e *Error) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// OrNil returns nil when no field failed, so callers can write
// `return verr.OrNil()` without a typed-nil error.
func (e *Error) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// As extracts the *Error wrapped in err, if any.
func As(err error) (*Error, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Struct validates v by its `validate` tags. The result holds one entry per
// failing field and is empty when v is valid; callers usually add their own
// checks and finish with OrNil.
func Struct(v any) *Error {
	err := validate.Struct(v)
	if err == nil {
		return &Error{}
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return New("", err.Error())
	}
	out := &Error{}
	for _, fe := range ves {
		out.Add(fe.Field(), message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "email":
		return "invalid email address"
	case "eqfield":
		return "must match " + strings.ToLower(fe.Param())
	case "gte":
		return "must be at least " + fe.Param()
	default:
		return "is invalid"
	}
}
