package fulfillment

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"bistro-checkout/internal/model"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// ValidationError lists the invalid fields of a manual address entry.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + " " + e.Fields[name]
	}
	return "invalid address: " + strings.Join(parts, ", ")
}

// NormalizeAddress trims the input, upper-cases the state and drops the
// hyphen from the postal code, then validates it.
func NormalizeAddress(in model.AddressInput) (model.AddressInput, error) {
	in.Street = strings.TrimSpace(in.Street)
	in.Number = strings.TrimSpace(in.Number)
	in.Neighborhood = strings.TrimSpace(in.Neighborhood)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.ToUpper(strings.TrimSpace(in.State))
	in.PostalCode = strings.ReplaceAll(strings.TrimSpace(in.PostalCode), "-", "")
	if in.Complement != nil {
		c := strings.TrimSpace(*in.Complement)
		if c == "" {
			in.Complement = nil
		} else {
			in.Complement = &c
		}
	}
	if in.NoNumber {
		in.Number = model.NoNumberSentinel
	}

	if err := validate.Struct(in); err != nil {
		return in, formatValidationErrors(err)
	}
	return in, nil
}

func formatValidationErrors(err error) error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("invalid address: %w", err)
	}

	fields := make(map[string]string, len(errs))
	for _, fieldErr := range errs {
		fields[fieldErr.Field()] = validationMessage(fieldErr)
	}
	return &ValidationError{Fields: fields}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "is required"
	case "len":
		return fmt.Sprintf("must have exactly %s characters", fe.Param())
	case "number":
		return "must contain only digits"
	case "alpha":
		return "must contain only letters"
	}
	return "is invalid"
}
