// Package validation validates service requests with go-playground/validator
// and converts failures into domain validation errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	domainerrors "github.com/larderapp/larder-server/internal/errors"
)

// Limits for the "money" tag: at most five digits, two of them after the point.
const (
	moneyMaxDigits = 5
	moneyMaxScale  = 2
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator with JSON field names and the custom
// "money" and "notblank" tags registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// Decimals validate as their canonical string form.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	//nolint:errcheck // tags are static and valid
	_ = v.RegisterValidation("money", validateMoney)
	//nolint:errcheck // tags are static and valid
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns a domain error listing every invalid field.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make([]domainerrors.FieldError, 0, len(validationErrs))
	for _, e := range validationErrs {
		fieldErrors = append(fieldErrors, domainerrors.FieldError{
			Field:   e.Field(),
			Message: friendlyMessage(e),
		})
	}
	sort.Slice(fieldErrors, func(i, j int) bool {
		return fieldErrors[i].Field < fieldErrors[j].Field
	})

	first := fieldErrors[0]
	return domainerrors.ValidationWithDetails(
		fmt.Sprintf("%s %s", first.Field, first.Message),
		fieldErrors,
	)
}

func validateMoney(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil || d.IsNegative() {
		return false
	}
	// "5.250" is fine, "5.255" is not.
	if !d.Equal(d.Round(moneyMaxScale)) {
		return false
	}
	cents := d.Shift(moneyMaxScale).BigInt()
	return len(cents.String()) <= moneyMaxDigits
}

//nolint:gocyclo // exhaustive switch over supported tags
func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "notblank":
		return "may not be blank"
	case "email":
		return "must be a valid email address"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return "must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", e.Param())
		}
		return "must not exceed " + e.Param()
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "money":
		return fmt.Sprintf("must be a non-negative amount with at most %d digits and %d decimal places", moneyMaxDigits, moneyMaxScale)
	case "dive":
		return "contains an invalid entry"
	default:
		return "is invalid"
	}
}
