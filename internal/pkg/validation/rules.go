package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/aurcc/bonafide-portal/internal/app/models"
	"github.com/aurcc/bonafide-portal/internal/pkg/apperrors"
)

// Rule constants shared by forms and services
const (
	PasswordMinLength = 8
	MinAcademicYear   = 2000
	// MaxAcademicYearAhead is how many years past the current calendar year the baseline may go
	MaxAcademicYearAhead = 10
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report form field names instead of Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	mustRegister(v, "reason", func(fl validator.FieldLevel) bool {
		r := models.Reason(fl.Field().String())
		for _, opt := range models.ReasonOptions {
			if opt.Value == r {
				return true
			}
		}
		return false
	})
	mustRegister(v, "cooldown", func(fl validator.FieldLevel) bool {
		return models.CooldownPeriod(fl.Field().String()).Valid()
	})
	mustRegister(v, "review_action", func(fl validator.FieldLevel) bool {
		return models.ReviewAction(fl.Field().String()).Valid()
	})
	mustRegister(v, "academic_year", func(fl validator.FieldLevel) bool {
		year := int(fl.Field().Int())
		return year >= MinAcademicYear && year <= time.Now().Year()+MaxAcademicYearAhead
	})
	mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

// Struct validates obj against its `validate` tags. Failures come back as a validation
// CustomError whose message is the first field message and whose Fields map holds all of them.
func Struct(obj interface{}) error {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewCustomError(apperrors.ErrValidationFailed, err.Error())
	}

	fields := make(map[string]string, len(verrs))
	first := ""
	for _, fe := range verrs {
		msg := formatValidationError(fe)
		if _, seen := fields[fe.Field()]; !seen {
			fields[fe.Field()] = msg
		}
		if first == "" {
			first = msg
		}
	}
	return apperrors.NewCustomError(apperrors.ErrValidationFailed, first).WithFields(fields)
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(e validator.FieldError) string {
	field := humanize(e.Field())
	switch e.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long", field, e.Param())
		}
		return field + " must be at least " + e.Param()
	case "max":
		return field + " must be at most " + e.Param()
	case "email":
		return field + " must be a valid email address"
	case "oneof":
		return field + " must be one of: " + e.Param()
	case "eqfield":
		return field + " does not match"
	case "reason":
		return "Please select a valid reason"
	case "cooldown":
		return "Please select a valid cooldown period"
	case "review_action":
		return "Action must be approve or reject"
	case "academic_year":
		return fmt.Sprintf("Please enter a year between %d and %d", MinAcademicYear, time.Now().Year()+MaxAcademicYearAhead)
	default:
		return field + " validation failed: " + e.Tag()
	}
}

// humanize turns "phone_number" into "Phone number".
func humanize(name string) string {
	name = strings.ReplaceAll(name, "_", " ")
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
