package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	AmountScale = 2 // Знаков после запятой у сумм
	RateScale   = 4 // Знаков после запятой у ставок
)

var validate = newValidator()

// newValidator создает валидатор, который называет поля по их json-тегам.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct проверяет теги validate и возвращает первую ошибку как ValidationError.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		msg := "failed on '" + fe.Tag() + "'"
		if fe.Param() != "" {
			msg += " (" + fe.Param() + ")"
		}
		return ValidationError{Field: fe.Field(), Message: msg}
	}
	return ValidationError{Field: "body", Message: err.Error()}
}

// Наибольшие значения, которые помещаются в NUMERIC(18,2) и NUMERIC(9,4).
var (
	MaxAmount = decimal.RequireFromString("9999999999999999.99")
	MaxRate   = decimal.RequireFromString("99999.9999")
)

const (
	amountIntDigits = 16
	rateIntDigits   = 5
)

// validateAmount проверяет положительную сумму с не более чем двумя знаками после запятой.
func validateAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ValidationError{Field: field, Message: "must be positive"}
	}
	return validateDecimal(field, amount, amountIntDigits, AmountScale, MaxAmount)
}

func validateRate(rate decimal.Decimal) error {
	if rate.IsNegative() {
		return ValidationError{Field: "interestRate", Message: "must not be negative"}
	}
	return validateDecimal("interestRate", rate, rateIntDigits, RateScale, MaxRate)
}

// validateDecimal проверяет размер и точность числа.
// Размер экспоненты проверяется до вызова Round.
func validateDecimal(field string, d decimal.Decimal, intDigits int, scale int32, max decimal.Decimal) error {
	if d.IsZero() {
		return nil
	}
	exp := int(d.Exponent())
	digits := d.NumDigits()
	if exp > 0 && digits+exp > intDigits {
		return ValidationError{Field: field, Message: "must not exceed " + max.String()}
	}
	// Ненулевое число меньше 10^-scale всегда имеет лишние знаки после запятой.
	if exp < 0 && -exp > digits+int(scale) {
		return ValidationError{Field: field, Message: fmt.Sprintf("at most %d decimal places allowed", scale)}
	}
	if !d.Equal(d.Round(scale)) {
		return ValidationError{Field: field, Message: fmt.Sprintf("at most %d decimal places allowed", scale)}
	}
	if d.Abs().GreaterThan(max) {
		return ValidationError{Field: field, Message: "must not exceed " + max.String()}
	}
	return nil
}
