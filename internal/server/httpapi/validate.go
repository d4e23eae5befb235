package httpapi

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/habits/internal/server/auth"
	"github.com/dmitrijs2005/habits/internal/server/models"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator checks request DTOs against their `validate` struct tags and
// reports failures as FieldErrors named after the JSON fields.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("frequency", func(fl validator.FieldLevel) bool {
		return models.Frequency(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= auth.MaxPasswordBytes
	})
	return &Validator{v: v}
}

// Struct validates s. A nil result means s is valid.
func (v *Validator) Struct(s any) []FieldError {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "", Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Required"
	case "email":
		return "Invalid email address"
	case "uuid":
		return "Invalid UUID"
	case "hexcolor":
		return "Invalid hex color"
	case "frequency":
		names := make([]string, len(models.Frequencies))
		for i, f := range models.Frequencies {
			names[i] = string(f)
		}
		return "Must be one of: " + strings.Join(names, ", ")
	case "bcryptlen":
		return fmt.Sprintf("Must be at most %d bytes", auth.MaxPasswordBytes)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at least %s characters", fe.Param())
		}
		return "Must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at most %s characters", fe.Param())
		}
		return "Must be at most " + fe.Param()
	default:
		return fmt.Sprintf("Failed on %q", fe.Tag())
	}
}
