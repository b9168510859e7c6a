package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError lists the invalid fields of an input, keyed by field name.
// Err, when set, is the sentinel for the most specific problem found.
type ValidationError struct {
	Fields map[string]string
	Err    error
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Validate checks a normalized input and returns a *ValidationError that
// also matches the relevant sentinel with errors.Is.
func (in RecordInput) Validate() error {
	fields := map[string]string{}
	var sentinel error

	var verrs validator.ValidationErrors
	if err := structValidator().Struct(in); err != nil {
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate record: %w", err)
		}
		for _, fe := range verrs {
			field := fieldName(fe.Field())
			switch fe.Tag() {
			case "required":
				fields[field] = "This field is required"
			case "max":
				fields[field] = fmt.Sprintf("Must be at most %s characters", fe.Param())
			default:
				fields[field] = "Invalid value"
			}
			switch fe.Field() {
			case "GuestName":
				if fe.Tag() == "required" {
					sentinel = ErrEmptyGuestName
				}
			case "PaymentType":
				sentinel = ErrInvalidPaymentType
			}
		}
	}
	if err := in.Amount.Validate(); err != nil {
		fields["amount"] = "Must be between 0 and 99999999.99"
		sentinel = ErrInvalidAmount
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields, Err: sentinel}
}

func fieldName(goName string) string {
	switch goName {
	case "GuestName":
		return "guestName"
	case "ItemDescription":
		return "itemDescription"
	case "PaymentType":
		return "paymentType"
	default:
		return strings.ToLower(goName)
	}
}
