// Package validation provides struct-level and document-level validation.
// Struct rules run through go-playground/validator with a handful of custom
// tags for the node domain; document rules check cross-node consistency that
// tags cannot express (connection endpoints, port directions, fan-in limits).
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var kindNameRe = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

func init() {
	validate = validator.New()

	validate.RegisterValidation("node_kind", validateNodeKind)
	validate.RegisterValidation("port_type", validatePortType)
	validate.RegisterValidation("widget_position", validateWidgetPosition)

	// Report field names from JSON tags so errors match the wire format.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
}

// Error is one failed validation rule.
type Error struct {
	Field   string      `json:"field"`
	Value   interface{} `json:"value"`
	Message string      `json:"message"`
}

func (e Error) Error() string {
	return fmt.Sprintf("validation failed on '%s': %s (got: %v)", e.Field, e.Message, e.Value)
}

// Errors aggregates all failed rules for one subject.
type Errors []Error

func (e Errors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Struct validates v against its `validate` tags.
func Struct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var out Errors
	if fieldErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrors {
			out = append(out, Error{
				Field:   fe.Field(),
				Value:   fe.Value(),
				Message: message(fe),
			})
		}
		return out
	}
	return err
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "min":
		return fmt.Sprintf("minimum value/length is %s", fe.Param())
	case "max":
		return fmt.Sprintf("maximum value/length is %s", fe.Param())
	case "node_kind":
		return "must be a valid kind name (alphanumeric, underscore, dot, hyphen)"
	case "port_type":
		return "must be 'data' or 'exec'"
	case "widget_position":
		return "must be 'under' or 'besides'"
	default:
		return fmt.Sprintf("failed rule: %s", fe.Tag())
	}
}

func validateNodeKind(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	return name != "" && len(name) <= 100 && kindNameRe.MatchString(name)
}

func validatePortType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "data", "exec":
		return true
	}
	return false
}

func validateWidgetPosition(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", "under", "besides":
		return true
	}
	return false
}
