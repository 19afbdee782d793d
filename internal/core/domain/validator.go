package domain

import (
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared struct validator.
// decimal.Decimal fields are presented to tag rules as float64 so that
// tags like "gte=0" work on money amounts.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				f, _ := d.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})
	})
	return validate
}
