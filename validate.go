package rentbook

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/xraph/rentbook/id"
	"github.com/xraph/rentbook/types"
)

// validate is shared by every validation call; validator caches struct
// metadata per type.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	// Money compares on its minor-unit amount and IDs on their string form.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if m, ok := field.Interface().(types.Money); ok {
			return m.Amount
		}
		return nil
	}, types.Money{})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if i, ok := field.Interface().(id.ID); ok {
			return i.String()
		}
		return nil
	}, id.ID{})

	return v
}

// validateStruct runs the struct tags of s and translates failures into
// ValidationError values. Several failures are returned as a MultiError.
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("rentbook: validate: %w", err)
	}

	var multi MultiError
	for _, fe := range fieldErrs {
		multi.Add(ValidationError{Field: fe.Field(), Message: describeTag(fe)})
	}
	return multi.ErrOrNil()
}

// collect adds err to errs, flattening a MultiError.
func collect(errs *MultiError, err error) {
	var multi MultiError
	if errors.As(err, &multi) {
		errs.Errors = append(errs.Errors, multi.Errors...)
		return
	}
	errs.Add(err)
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must not be negative"
	case "gt":
		return "must be positive"
	case "min", "max":
		return fmt.Sprintf("is out of range (%s %s)", fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

// checkCurrency rejects an amount in a currency other than the ledger's.
// Amounts without a currency adopt the ledger's.
func checkCurrency(field string, m types.Money, currency string) error {
	if m.Currency == "" || currency == "" || m.Currency == currency {
		return nil
	}
	return ValidationError{
		Field:   field,
		Message: fmt.Sprintf("currency %q does not match ledger currency %q", m.Currency, currency),
	}
}
