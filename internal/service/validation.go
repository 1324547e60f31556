package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"user-management-api/internal/i18n"
	"user-management-api/pkg/apierror"
)

// Validator checks request DTOs and reports failures keyed by JSON field name.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Check returns nil when s is valid and a 422 APIError otherwise.
func (v *Validator) Check(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}

	fields := map[string][]string{}
	for _, fe := range errs {
		fields[fe.Field()] = append(fields[fe.Field()], fieldMessage(fe))
	}
	return apierror.Validation(fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " " + i18n.T("required_validation")
	case "email":
		return fe.Field() + " " + i18n.T("valid_email")
	case "min":
		return fe.Field() + " " + i18n.T("password_length")
	case "eqfield":
		return i18n.T("confirm_password")
	default:
		return fe.Field() + " " + i18n.T("invalid_field")
	}
}

// fieldError builds a single-field 422 error.
func fieldError(field string, message string) *apierror.APIError {
	return apierror.Validation(map[string][]string{field: {message}})
}

func uniqueFieldError(field string) *apierror.APIError {
	return fieldError(field, field+" "+i18n.T("unique_field"))
}
