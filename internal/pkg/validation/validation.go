package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// New returns a validator that reports json field names and compares
// decimal.Decimal fields as numbers.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	return v
}

// FormatErrors turns a validator error into field -> message. Errors of any
// other kind are reported under "body".
func FormatErrors(err error) map[string]string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return map[string]string{"body": err.Error()}
	}

	messages := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			messages[field] = fmt.Sprintf("%s is required", field)
		case "gt":
			messages[field] = fmt.Sprintf("%s must be greater than %s", field, fe.Param())
		case "gte":
			messages[field] = fmt.Sprintf("%s must be at least %s", field, fe.Param())
		case "min":
			messages[field] = fmt.Sprintf("%s must %s", field, sizeBound("at least", fe))
		case "max":
			messages[field] = fmt.Sprintf("%s must %s", field, sizeBound("at most", fe))
		case "alpha":
			messages[field] = fmt.Sprintf("%s must contain letters only", field)
		default:
			messages[field] = fmt.Sprintf("%s is invalid", field)
		}
	}
	return messages
}

// sizeBound words a min/max bound by the kind of the field it applies to.
func sizeBound(bound string, fe validator.FieldError) string {
	switch fe.Kind() {
	case reflect.String:
		return fmt.Sprintf("be %s %s characters long", bound, fe.Param())
	case reflect.Slice, reflect.Array, reflect.Map:
		return fmt.Sprintf("have %s %s items", bound, fe.Param())
	default:
		return fmt.Sprintf("be %s %s", bound, fe.Param())
	}
}
