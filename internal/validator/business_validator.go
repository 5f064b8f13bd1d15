package validator

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// Validator is the type services and handlers depend on.
type Validator = BusinessValidator

// New creates the validator with all custom rules registered.
func New() *Validator {
	return NewBusinessValidator()
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateGradeBudget checks that the grades already assigned to questions
// plus the incoming grade stay within the assessment's cap.
func (bv *BusinessValidator) ValidateGradeBudget(gradeCap, assigned, incoming float64) ValidationErrors {
	if incoming <= 0 {
		return ValidationErrors{{Field: "grade", Message: "must be greater than 0", Value: incoming}}
	}
	if assigned+incoming > gradeCap {
		return ValidationErrors{{
			Field:   "grade",
			Message: "would exceed the assessment grade cap",
			Value:   incoming,
		}}
	}
	return nil
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	// Title validation (1-200 characters)
	bv.validate.RegisterValidation("title", func(fl validator.FieldLevel) bool {
		title := strings.TrimSpace(fl.Field().String())
		return len(title) >= 1 && len(title) <= 200
	})

	// Due date validation (must be in future)
	bv.validate.RegisterValidation("future_date", func(fl validator.FieldLevel) bool {
		field := fl.Field()

		if field.Kind() == reflect.Ptr && field.IsNil() {
			return true // Optional field
		}

		var dueDate time.Time
		if field.Kind() == reflect.Ptr {
			dueDate = field.Elem().Interface().(time.Time)
		} else {
			dueDate = field.Interface().(time.Time)
		}

		return dueDate.After(time.Now())
	})

	// Sandbox language whitelist
	bv.validate.RegisterValidation("sandbox_language", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "python", "go", "java", "javascript", "c", "cpp":
			return true
		default:
			return false
		}
	})
}
