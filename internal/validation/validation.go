// Package validation checks inbound payloads with go-playground/validator and
// reports the first failure as a field-attributed models.AppError.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"conduit/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		if f.Kind() != reflect.String {
			return !f.IsZero()
		}
		return strings.TrimSpace(f.String()) != ""
	})
	return v
}

// Struct validates s using its `validate` tags.
func Struct(s any) error {
	return translate("", validate.Struct(s))
}

// Var validates a single value reported under field.
func Var(field string, value any, tag string) error {
	return translate(field, validate.Var(value, tag))
}

func translate(field string, err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return models.NewInternalError(err)
	}
	fe := verrs[0]
	if field == "" {
		field = fe.Field()
	}
	return models.NewValidationError(field, message(fe))
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "can't be blank"
	case "max":
		return fmt.Sprintf("is too long (maximum is %s characters)", fe.Param())
	case "min":
		return fmt.Sprintf("is too short (minimum is %s characters)", fe.Param())
	default:
		return "is invalid"
	}
}
