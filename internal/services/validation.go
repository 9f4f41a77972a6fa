package services

import (
	"audit-service/internal/models"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator checks request structs and reports offending fields by their JSON name.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("monitored_state", func(fl validator.FieldLevel) bool {
		return models.IsMonitoredState(fl.Field().String())
	})
	_ = validate.RegisterValidation("utility_category", func(fl validator.FieldLevel) bool {
		return models.IsUtilityCategory(fl.Field().String())
	})

	return &Validator{validate: validate}
}

func (v *Validator) Validate(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return models.NewValidationError(err.Error())
	}

	var missing, invalid []string
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		} else {
			invalid = append(invalid, fe.Field())
		}
	}
	if len(missing) > 0 {
		return models.NewValidationError("missing required fields", missing...)
	}
	return models.NewValidationError("invalid fields", invalid...)
}
