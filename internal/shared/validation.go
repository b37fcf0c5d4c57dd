package shared

import (
	"errors"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError groups per-field messages for a rejected form.
type ValidationError struct {
	Fields map[string]string
}

func (e ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "validation failed: " + strings.Join(keys, ", ")
}

// Is lets errors.Is(err, ErrValidation) match grouped field errors.
func (e ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// FromValidator converts validator errors into a ValidationError. Field keys
// are the struct field names in snake case; messages maps struct field
// names to user-facing text.
func FromValidator(err error, messages map[string]string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		msg, ok := messages[fe.Field()]
		if !ok {
			msg = "Valor inválido"
		}
		fields[snakeCase(fe.Field())] = msg
	}
	return ValidationError{Fields: fields}
}

// FormErrors turns a service error into the Errors map rendered by forms.
// Unexpected errors are reported under the "general" key.
func FormErrors(err error) map[string]string {
	if err == nil {
		return map[string]string{}
	}
	var verr ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	var ferr FieldError
	if errors.As(err, &ferr) {
		return map[string]string{ferr.Field: ferr.Message}
	}
	return map[string]string{"general": UserSafeMessage(err)}
}

func snakeCase(s string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			if prevLower {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
			prevLower = false
		} else {
			prevLower = true
		}
		b.WriteRune(r)
	}
	return b.String()
}
