package salesorders

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("field")
	})
	return v
}

// validateInput checks in (CreateInput or UpdateInput) and the tax rate of
// every line, which validator tags cannot express for decimals.
func validateInput(in any, lines []LineInput) error {
	vs := Violations{}
	if err := validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate input: %w", err)
		}
		for _, fe := range fieldErrs {
			vs[fieldPath(fe.Namespace())] = reason(fe.Tag())
		}
	}
	for i, l := range lines {
		checkTaxRate(fmt.Sprintf("orderDetails[%d].taxRate", i), l.TaxRate, vs)
	}
	if len(vs) > 0 {
		return &ValidationError{Violations: vs}
	}
	return nil
}

var maxTaxRate = decimal.NewFromInt(100)

func checkTaxRate(field string, rate decimal.Decimal, vs Violations) {
	switch {
	case rate.IsNegative() || rate.GreaterThan(maxTaxRate):
		vs[field] = "out_of_range"
	case !rate.Equal(rate.Truncate(2)):
		vs[field] = "too_many_decimals"
	}
}

// fieldPath drops the leading struct name: "CreateInput.orderDetails[0].quantity"
// becomes "orderDetails[0].quantity".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func reason(tag string) string {
	switch tag {
	case "gt", "gte":
		return "must_be_positive"
	case "max":
		return "too_long"
	case "lte":
		return "too_large"
	case "required":
		return "required"
	default:
		return "invalid"
	}
}
